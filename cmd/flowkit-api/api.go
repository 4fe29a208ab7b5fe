// Package main provides the FlowKit API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowkit-dev/flowkit/pkg/parser"
	"github.com/flowkit-dev/flowkit/pkg/versioning"
	"github.com/flowkit-dev/flowkit/pkg/web"
)

type API struct {
	logger      *slog.Logger
	store       *versioning.Store
	tracer      trace.Tracer
	historyPath string
	validate    *validator.Validate
}

func NewAPI(logger *slog.Logger, store *versioning.Store, tracer trace.Tracer, historyPath string) *API {
	return &API{
		logger:      logger,
		store:       store,
		tracer:      tracer,
		historyPath: historyPath,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		parser.New(a.logger),
		a.store,
		a.validate,
		a.tracer,
		a.logger,
		a.historyPath,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FlowKit API")
	})

	w := app.Group("/workflows")
	w.Post("/validate", handlers.ValidateWorkflow)
	w.Post("/:id/versions", handlers.CreateVersion)
	w.Post("/:id/versions/bump", handlers.BumpVersion)
	w.Get("/:id/versions", handlers.GetVersions)
	w.Get("/:id/versions/latest", handlers.GetLatestVersion)

	app.Post("/diff", handlers.Diff)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
