package models

import (
	"fmt"
	"time"
)

// ScheduleTrigger is a schedule-trigger node extracted from a workflow,
// carrying whatever canonical cron expressions could be derived from its
// parameters. ParseErrors holds per-interval diagnostics for shapes the
// normalizer did not recognize; they are informational, never fatal.
type ScheduleTrigger struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Parameters      map[string]any `json:"parameters"`
	ParsedCrons     []string       `json:"parsed_crons"`
	ParseErrors     []string       `json:"parse_errors"`
	DurationSeconds int            `json:"duration_seconds,omitempty"`
}

// ScheduleEvent is one concrete occurrence of a schedule trigger inside the
// requested time range.
type ScheduleEvent struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	WorkflowID string    `json:"workflow_id"`
	Cron       string    `json:"cron"`

	// AverageDurationMs is reserved for execution-history statistics and is
	// always null until those are wired in.
	AverageDurationMs *int64 `json:"average_duration_ms"`
}

// NewScheduleEventID composes the synthetic event identifier. The format is
// stable so callers can reconstruct which workflow, trigger, cron expression
// and occurrence index an event came from.
func NewScheduleEventID(workflowID, triggerID, cronExpr string, index int) string {
	return fmt.Sprintf("%s:%s:%s:%d", workflowID, triggerID, cronExpr, index)
}

// ScheduledWorkflow is one workflow of the schedules-list view: an active,
// non-archived workflow together with its extracted schedule triggers.
type ScheduledWorkflow struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Active           bool              `json:"active"`
	Nodes            int               `json:"nodes"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
	ScheduleTriggers []ScheduleTrigger `json:"schedule_triggers"`
}

// UnparsedWorkflow records a workflow whose schedule trigger could not be
// normalized into any cron expression. It is reported alongside successful
// output, not instead of it.
type UnparsedWorkflow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}
