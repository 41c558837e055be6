// Package web provides the HTTP handlers of the inspection API.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowlens/flowlens/pkg/connections"
	"github.com/flowlens/flowlens/pkg/n8n"
	"github.com/flowlens/flowlens/pkg/schedule"
	"github.com/flowlens/flowlens/pkg/search"
)

// WorkflowAPI is everything the handlers need from an upstream client.
type WorkflowAPI interface {
	schedule.WorkflowSource

	Ping(ctx context.Context) error
}

// SourceFactory builds an upstream client for resolved credentials. Tests
// substitute fakes here.
type SourceFactory func(baseURL, apiKey string) WorkflowAPI

// NewSourceFactory returns the production factory backed by the n8n client.
func NewSourceFactory(logger *slog.Logger) SourceFactory {
	return func(baseURL, apiKey string) WorkflowAPI {
		return n8n.NewClient(baseURL, apiKey, logger)
	}
}

type APIHandlers struct {
	resolver   *connections.Resolver
	aggregator *schedule.Aggregator
	searcher   *search.Searcher
	newSource  SourceFactory
	validator  *validator.Validate
}

func NewAPIHandlers(
	resolver *connections.Resolver,
	aggregator *schedule.Aggregator,
	searcher *search.Searcher,
	newSource SourceFactory,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		resolver:   resolver,
		aggregator: aggregator,
		searcher:   searcher,
		newSource:  newSource,
		validator:  validator,
	}
}

// SearchWorkflow handles POST /search.
func (h *APIHandlers) SearchWorkflow(c fiber.Ctx) error {
	var req SearchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	resolved, err := h.resolver.Resolve(req.ConnectionID)
	if err != nil {
		return handlePipelineError(c, err)
	}

	source := h.newSource(resolved.BaseURL, resolved.APIKey)

	results, err := h.searcher.Search(c.Context(), source, req.WorkflowID, req.SearchTerm)
	if err != nil {
		return handlePipelineError(c, err)
	}

	return c.JSON(SearchResponse{Results: results})
}

// ListSchedules handles POST /schedules.
func (h *APIHandlers) ListSchedules(c fiber.Ctx) error {
	var req SchedulesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.TimeZone != "" {
		if _, err := time.LoadLocation(req.TimeZone); err != nil {
			return badRequest(c, "Invalid time_zone")
		}
	}

	resolved, err := h.resolver.Resolve(req.ConnectionID)
	if err != nil {
		return handlePipelineError(c, err)
	}

	source := h.newSource(resolved.BaseURL, resolved.APIKey)

	result, err := h.aggregator.Schedules(c.Context(), source)
	if err != nil {
		return handlePipelineError(c, err)
	}

	return c.JSON(SchedulesResponse{
		Workflows:         result.Workflows,
		UnparsedWorkflows: result.Unparsed,
		TimeZone:          req.TimeZone,
	})
}

// ListScheduleEvents handles POST /schedules/events.
func (h *APIHandlers) ListScheduleEvents(c fiber.Ctx) error {
	var req ScheduleEventsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rangeStart, err := time.Parse(time.RFC3339, req.RangeStart)
	if err != nil {
		return badRequest(c, "Invalid range_start")
	}

	rangeEnd, err := time.Parse(time.RFC3339, req.RangeEnd)
	if err != nil {
		return badRequest(c, "Invalid range_end")
	}

	var location *time.Location

	if req.TimeZone != "" {
		location, err = time.LoadLocation(req.TimeZone)
		if err != nil {
			return badRequest(c, "Invalid time_zone")
		}
	}

	resolved, err := h.resolver.Resolve(req.ConnectionID)
	if err != nil {
		return handlePipelineError(c, err)
	}

	source := h.newSource(resolved.BaseURL, resolved.APIKey)

	result, err := h.aggregator.Events(c.Context(), source, schedule.EventsRequest{
		APIKey:     resolved.APIKey,
		TimeZone:   req.TimeZone,
		Location:   location,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
	if err != nil {
		return handlePipelineError(c, err)
	}

	return c.JSON(ScheduleEventsResponse{
		Events:     result.Events,
		TimeZone:   req.TimeZone,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Cached:     result.Cached,
	})
}

// TestConnection handles POST /test-connection.
func (h *APIHandlers) TestConnection(c fiber.Ctx) error {
	var req TestConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	resolved, err := h.resolver.Resolve(req.ConnectionID)
	if err != nil {
		return handlePipelineError(c, err)
	}

	source := h.newSource(resolved.BaseURL, resolved.APIKey)
	if err := source.Ping(c.Context()); err != nil {
		return handlePipelineError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// HealthCheck handles GET /health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
