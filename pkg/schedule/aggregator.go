package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowlens/flowlens/pkg/models"
	"github.com/flowlens/flowlens/pkg/otelhelper"
)

const (
	// DefaultMaxEventsPerWorkflow bounds occurrence expansion so a
	// pathological expression like "* * * * *" cannot produce unbounded
	// output.
	DefaultMaxEventsPerWorkflow = 500

	// DefaultEventDuration is assumed when a trigger's notes declare no
	// duration.
	DefaultEventDuration = 300 * time.Second

	// DefaultCacheTTL is how long computed event sets stay valid.
	DefaultCacheTTL = 60 * time.Second
)

// durationPattern matches a "duration=<seconds>" declaration in a trigger
// node's free-text notes.
var durationPattern = regexp.MustCompile(`(?i)duration\s*=\s*(\d+(\.\d+)?)`)

// WorkflowSource is the upstream workflow API as the aggregator sees it.
type WorkflowSource interface {
	ListWorkflows(ctx context.Context) ([]models.WorkflowListItem, error)
	GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error)
	BaseURL() string
}

// Options carries the aggregation tunables; deployments override them per
// instance.
type Options struct {
	MaxEventsPerWorkflow int
	DefaultEventDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxEventsPerWorkflow <= 0 {
		o.MaxEventsPerWorkflow = DefaultMaxEventsPerWorkflow
	}

	if o.DefaultEventDuration <= 0 {
		o.DefaultEventDuration = DefaultEventDuration
	}

	return o
}

// Aggregator turns an instance's workflow list into calendar events and
// schedule summaries.
type Aggregator struct {
	cache  EventCache
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

func NewAggregator(cache EventCache, opts Options, logger *slog.Logger, tracer trace.Tracer) *Aggregator {
	return &Aggregator{
		cache:  cache,
		opts:   opts.withDefaults(),
		logger: logger.With("module", "schedule_aggregator"),
		tracer: tracer,
	}
}

// EventsRequest describes one events computation. APIKey participates only in
// the cache key; the source itself already carries the credential.
type EventsRequest struct {
	APIKey     string
	TimeZone   string
	Location   *time.Location
	RangeStart time.Time
	RangeEnd   time.Time
}

// EventsResult is the computed (or cached) event set.
type EventsResult struct {
	Events []models.ScheduleEvent
	Cached bool
}

// Events computes every schedule occurrence of every active workflow inside
// the requested range. Upstream listing failures abort the whole computation;
// individual unparseable triggers are skipped.
func (a *Aggregator) Events(ctx context.Context, source WorkflowSource, req EventsRequest) (*EventsResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "schedule.events",
		attribute.String(otelhelper.TimeZoneKey, req.TimeZone),
	)
	defer span.End()

	key := eventsCacheKey(source.BaseURL(), req)
	if events, ok := a.cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool(otelhelper.CacheHitKey, true))

		return &EventsResult{Events: events, Cached: true}, nil
	}

	workflows, err := source.ListWorkflows(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("fetching workflows: %w", err)
	}

	events := make([]models.ScheduleEvent, 0)

	for _, workflow := range workflows {
		if !workflow.Active || workflow.IsArchived {
			continue
		}

		for _, trigger := range ExtractScheduleTriggers(workflow.Nodes) {
			if len(trigger.ParsedCrons) == 0 {
				continue
			}

			duration := a.opts.DefaultEventDuration
			if trigger.DurationSeconds > 0 {
				duration = time.Duration(trigger.DurationSeconds) * time.Second
			}

			for _, cronExpr := range trigger.ParsedCrons {
				occurrences := OccurrencesInRange(
					cronExpr,
					req.RangeStart,
					req.RangeEnd,
					req.Location,
					a.opts.MaxEventsPerWorkflow,
					a.logger,
				)

				for i, occurrence := range occurrences {
					events = append(events, models.ScheduleEvent{
						ID:         models.NewScheduleEventID(workflow.ID, trigger.ID, cronExpr, i),
						Title:      workflow.Name,
						Start:      occurrence,
						End:        occurrence.Add(duration),
						WorkflowID: workflow.ID,
						Cron:       cronExpr,
					})
				}
			}
		}
	}

	a.cache.Set(ctx, key, events)
	span.SetAttributes(attribute.Int(otelhelper.EventCountKey, len(events)))

	return &EventsResult{Events: events, Cached: false}, nil
}

// SchedulesResult is the schedules-list view: workflows that carry schedule
// triggers, plus diagnostics for workflows whose triggers resisted parsing.
type SchedulesResult struct {
	Workflows []models.ScheduledWorkflow
	Unparsed  []models.UnparsedWorkflow
}

// Schedules builds the list view. Unlike Events it hydrates each active
// workflow through the detail endpoint, because several n8n versions omit
// node parameters from the list response.
func (a *Aggregator) Schedules(ctx context.Context, source WorkflowSource) (*SchedulesResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "schedule.list")
	defer span.End()

	listed, err := source.ListWorkflows(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("fetching workflows: %w", err)
	}

	result := &SchedulesResult{
		Workflows: make([]models.ScheduledWorkflow, 0),
		Unparsed:  make([]models.UnparsedWorkflow, 0),
	}

	for _, item := range listed {
		if !item.Active {
			continue
		}

		workflow := a.hydrate(ctx, source, item)
		if workflow.IsArchived {
			continue
		}

		triggers := ExtractScheduleTriggers(workflow.Nodes)
		if len(triggers) == 0 {
			continue
		}

		for _, trigger := range triggers {
			if len(trigger.ParsedCrons) == 0 {
				result.Unparsed = append(result.Unparsed, models.UnparsedWorkflow{
					ID:     workflow.ID,
					Name:   workflow.Name,
					URL:    source.BaseURL() + "/workflow/" + workflow.ID,
					Reason: "Unable to parse schedule trigger parameters",
				})

				break
			}
		}

		result.Workflows = append(result.Workflows, models.ScheduledWorkflow{
			ID:               workflow.ID,
			Name:             workflow.Name,
			Active:           workflow.Active,
			Nodes:            len(workflow.Nodes),
			UpdatedAt:        workflow.UpdatedAt,
			ScheduleTriggers: triggers,
		})
	}

	span.SetAttributes(attribute.Int(otelhelper.WorkflowCountKey, len(result.Workflows)))

	return result, nil
}

// hydrate fetches the full workflow document, falling back to the list item
// when the detail call fails. A degraded entry still lists, it just may lack
// trigger parameters.
func (a *Aggregator) hydrate(ctx context.Context, source WorkflowSource, item models.WorkflowListItem) models.WorkflowListItem {
	detailed, err := source.GetWorkflow(ctx, item.ID)
	if err != nil {
		a.logger.Warn("Failed to hydrate workflow, using list entry", "workflow_id", item.ID, "error", err)

		return item
	}

	return models.WorkflowListItem{
		ID:         detailed.ID,
		Name:       detailed.Name,
		Active:     item.Active,
		IsArchived: detailed.IsArchived,
		UpdatedAt:  detailed.UpdatedAt,
		Nodes:      detailed.Nodes,
	}
}

// ExtractScheduleTriggers normalizes every schedule-trigger node in the
// given node list.
func ExtractScheduleTriggers(nodes []models.WorkflowNode) []models.ScheduleTrigger {
	var triggers []models.ScheduleTrigger

	for _, node := range nodes {
		if !node.IsScheduleTrigger() {
			continue
		}

		normalized := NormalizeRule(node.Parameters)
		triggers = append(triggers, models.ScheduleTrigger{
			ID:              node.ID,
			Name:            node.Name,
			Type:            node.Type,
			Parameters:      node.Parameters,
			ParsedCrons:     normalized.Crons,
			ParseErrors:     normalized.Errors,
			DurationSeconds: ParseDurationSeconds(node.Notes),
		})
	}

	return triggers
}

// ParseDurationSeconds extracts an expected run duration from a
// "duration=<seconds>" declaration in the node notes. Returns 0 when absent
// or non-positive.
func ParseDurationSeconds(notes string) int {
	match := durationPattern.FindStringSubmatch(notes)
	if match == nil {
		return 0
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil || value <= 0 {
		return 0
	}

	return int(math.Round(value))
}

func eventsCacheKey(baseURL string, req EventsRequest) string {
	return strings.Join([]string{
		baseURL,
		req.APIKey,
		req.TimeZone,
		req.RangeStart.UTC().Format(time.RFC3339),
		req.RangeEnd.UTC().Format(time.RFC3339),
	}, "|")
}
