package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flowkit-dev/flowkit/pkg/builder"
	"github.com/flowkit-dev/flowkit/pkg/parser"
	"github.com/flowkit-dev/flowkit/pkg/versioning"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleCoreError maps core error kinds to problem responses.
func handleCoreError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, versioning.ErrVersionFormat),
		errors.Is(err, versioning.ErrInvalidBumpType),
		errors.Is(err, parser.ErrStructural),
		errors.Is(err, parser.ErrStrictMode),
		errors.Is(err, builder.ErrSizeLimit),
		errors.Is(err, builder.ErrUnknownNode):
		return badRequest(c, err.Error())

	case versioning.IsLockTimeout(err):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("lock_timeout").
			WithDetail(err.Error())

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	case versioning.IsHistoryNotFound(err):
		return notFound(c, err.Error())

	default:
		return internalError(c, err)
	}
}
