package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowlens/flowlens/pkg/models"
	"github.com/flowlens/flowlens/pkg/otelhelper"
)

// ErrInvalidWorkflowData is returned when a fetched workflow lacks a node
// list. Distinct from upstream failures: the fetch itself succeeded.
var ErrInvalidWorkflowData = errors.New("invalid workflow data received from n8n")

// WorkflowGetter fetches one full workflow document.
type WorkflowGetter interface {
	GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error)
}

// Searcher runs the variable search pipeline over one workflow.
type Searcher struct {
	logger *slog.Logger
	tracer trace.Tracer
}

func NewSearcher(logger *slog.Logger, tracer trace.Tracer) *Searcher {
	return &Searcher{
		logger: logger.With("module", "search"),
		tracer: tracer,
	}
}

// Search fetches the workflow and returns every node with at least one
// match, ranked by relevance. Node processing order follows the document;
// the final sort is stable, so equally scored nodes keep that order.
func (s *Searcher) Search(ctx context.Context, source WorkflowGetter, workflowID, searchTerm string) ([]models.SearchResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "search.variable",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.SearchTermKey, searchTerm),
	)
	defer span.End()

	workflow, err := source.GetWorkflow(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("fetching workflow %s: %w", workflowID, err)
	}

	if workflow.Nodes == nil {
		otelhelper.SetError(span, ErrInvalidWorkflowData)

		return nil, ErrInvalidWorkflowData
	}

	results := make([]models.SearchResult, 0)

	for _, node := range workflow.Nodes {
		patterns := PatternsFor(searchTerm, node.IsScriptNode())
		walker := NewWalker(node.Name, node.IsScriptNode(), patterns, s.logger)

		walker.Walk(node.Parameters, "parameters")

		if node.Credentials != nil {
			walker.Walk(node.Credentials, "credentials")
		}

		matches := Dedupe(walker.Matches())
		if len(matches) == 0 {
			continue
		}

		results = append(results, models.SearchResult{
			NodeName: node.Name,
			NodeType: node.Type,
			NodeID:   node.ID,
			Matches:  matches,
		})
	}

	RankResults(results, searchTerm)
	span.SetAttributes(attribute.Int(otelhelper.ResultCountKey, len(results)))

	return results, nil
}
