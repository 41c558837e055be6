package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flowlens/flowlens/pkg/connections"
	"github.com/flowlens/flowlens/pkg/n8n"
	"github.com/flowlens/flowlens/pkg/search"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handlePipelineError maps the error taxonomy onto problem documents:
// credential failures keep their HTTP-style status, upstream timeouts become
// 504, upstream status errors pass their status through, and a workflow
// without a node list is reported as a distinct bad-gateway condition.
func handlePipelineError(c fiber.Ctx, err error) error {
	var resolveErr *connections.ResolveError
	if errors.As(err, &resolveErr) {
		problem := problems.NewStatusProblem(resolveErr.Status).
			WithInstance(c.Path()).
			WithType("connection_error").
			WithDetail(resolveErr.Error())

		return c.Status(resolveErr.Status).JSON(problem)
	}

	if errors.Is(err, n8n.ErrUpstreamTimeout) {
		problem := problems.NewStatusProblem(fiber.StatusGatewayTimeout).
			WithInstance(c.Path()).
			WithType("upstream_timeout").
			WithDetail("Upstream request timed out")

		return c.Status(fiber.StatusGatewayTimeout).JSON(problem)
	}

	if statusErr, ok := n8n.IsStatusError(err); ok {
		problem := problems.NewStatusProblem(statusErr.Status).
			WithInstance(c.Path()).
			WithType("upstream_error").
			WithDetail(statusErr.Message)

		return c.Status(statusErr.Status).JSON(problem)
	}

	if errors.Is(err, search.ErrInvalidWorkflowData) {
		problem := problems.NewStatusProblem(fiber.StatusBadGateway).
			WithInstance(c.Path()).
			WithType("invalid_workflow_data").
			WithDetail(search.ErrInvalidWorkflowData.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)
	}

	return internalError(c, err)
}
