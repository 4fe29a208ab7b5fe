package web

import (
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowkit-dev/flowkit/pkg/models"
	"github.com/flowkit-dev/flowkit/pkg/otelhelper"
	"github.com/flowkit-dev/flowkit/pkg/parser"
	"github.com/flowkit-dev/flowkit/pkg/versioning"
)

// APIHandlers serves workflow validation and the version/diff API.
type APIHandlers struct {
	parser      *parser.Parser
	store       *versioning.Store
	validator   *validator.Validate
	tracer      trace.Tracer
	logger      *slog.Logger
	historyPath string
}

// NewAPIHandlers wires the handlers to the core components. When historyPath
// is non-empty, the version history is persisted there after every
// successful mutation.
func NewAPIHandlers(p *parser.Parser, store *versioning.Store, validate *validator.Validate, tracer trace.Tracer, logger *slog.Logger, historyPath string) *APIHandlers {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandlers{
		parser:      p,
		store:       store,
		validator:   validate,
		tracer:      tracer,
		logger:      logger,
		historyPath: historyPath,
	}
}

// persistHistory saves the version history after a mutation. Persistence
// failures are logged, not surfaced: the in-memory mutation already
// succeeded and the next successful save will include it.
func (h *APIHandlers) persistHistory() {
	if h.historyPath == "" {
		return
	}

	if err := h.store.SaveToDisk(h.historyPath); err != nil {
		h.logger.Error("failed to persist version history", "path", h.historyPath, "error", err)
	}
}

// ValidateWorkflow parses the request body as a workflow document and
// returns every diagnostic found. ?strict=true makes errors fatal.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	strict := c.Query("strict") == "true"

	if schemaDiags, err := parser.ValidateDocument(c.Body()); err != nil {
		return badRequest(c, err.Error())
	} else if len(schemaDiags) > 0 && strict {
		return c.JSON(ValidateResponse{Valid: false, Diagnostics: schemaDiags})
	}

	parsed, diags, err := h.parser.Parse(c.Body(), strict)
	if err != nil {
		if diags != nil {
			return c.JSON(ValidateResponse{Valid: false, Diagnostics: diags})
		}

		return handleCoreError(c, err)
	}

	if diags == nil {
		diags = []parser.Diagnostic{}
	}

	return c.JSON(ValidateResponse{
		Valid:                   !parser.HasErrors(diags),
		Diagnostics:             diags,
		TriggerNodes:            parsed.TriggerNodes,
		ExecutionOrder:          parsed.ExecutionOrder,
		RequiredCredentialTypes: parsed.RequiredCredentialTypes,
	})
}

// CreateVersion stores a snapshot under an explicit version string.
func (h *APIHandlers) CreateVersion(c fiber.Ctx) error {
	workflowID := c.Params("id")

	var req CreateVersionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	wf, err := decodeWorkflow(req.Workflow)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "version.create",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.VersionKey, req.Version),
	)
	defer span.End()

	record, err := h.store.CreateVersion(ctx, wf, req.Version, req.Changelog, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return handleCoreError(c, err)
	}

	h.persistHistory()

	return c.Status(fiber.StatusCreated).JSON(record)
}

// BumpVersion stores a snapshot under the next version per the bump rule.
func (h *APIHandlers) BumpVersion(c fiber.Ctx) error {
	workflowID := c.Params("id")

	var req BumpVersionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	wf, err := decodeWorkflow(req.Workflow)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "version.bump",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.BumpTypeKey, req.BumpType),
	)
	defer span.End()

	record, err := h.store.VersionBump(ctx, wf, versioning.BumpType(req.BumpType), workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return handleCoreError(c, err)
	}

	h.persistHistory()

	return c.Status(fiber.StatusCreated).JSON(record)
}

// GetVersions lists the stored history of a workflow.
func (h *APIHandlers) GetVersions(c fiber.Ctx) error {
	workflowID := c.Params("id")
	history := h.store.Versions(workflowID)

	if len(history) == 0 {
		return notFound(c, "no versions stored for workflow "+workflowID)
	}

	return c.JSON(HistoryResponse{WorkflowID: workflowID, Versions: history})
}

// GetLatestVersion returns the semver-maximum version of a workflow.
func (h *APIHandlers) GetLatestVersion(c fiber.Ctx) error {
	workflowID := c.Params("id")

	latest := h.store.Latest(workflowID)
	if latest == nil {
		return notFound(c, "no versions stored for workflow "+workflowID)
	}

	return c.JSON(latest)
}

// Diff compares two workflow documents and returns the unified diff, the
// structured change set, and the suggested bump.
func (h *APIHandlers) Diff(c fiber.Ctx) error {
	var req DiffRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	a, err := decodeWorkflow(req.A)
	if err != nil {
		return badRequest(c, "a: "+err.Error())
	}

	b, err := decodeWorkflow(req.B)
	if err != nil {
		return badRequest(c, "b: "+err.Error())
	}

	diff, err := versioning.GenerateDiff(a, b, "a/workflow", "b/workflow")
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(DiffResponse{
		Diff:          diff,
		Changes:       versioning.DetectChanges(a, b),
		SuggestedBump: string(versioning.SuggestVersionBump(a, b)),
	})
}

func decodeWorkflow(raw json.RawMessage) (*models.Workflow, error) {
	var wf models.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, err
	}

	return &wf, nil
}
