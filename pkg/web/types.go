// Package web provides HTTP request and response types for the inspection API.
package web

import (
	"time"

	"github.com/flowlens/flowlens/pkg/models"
)

// SearchRequest is the body of POST /search. ConnectionID is optional; when
// empty the active connection is used.
type SearchRequest struct {
	ConnectionID string `json:"connection_id"`
	WorkflowID   string `json:"workflow_id"   validate:"required,min=1"`
	SearchTerm   string `json:"search_term"   validate:"required,min=1"`
}

// SearchResponse lists matching nodes ordered by relevance.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// SchedulesRequest is the body of POST /schedules.
type SchedulesRequest struct {
	ConnectionID string `json:"connection_id"`
	TimeZone     string `json:"time_zone"`
}

// SchedulesResponse is the schedules-list view.
type SchedulesResponse struct {
	Workflows         []models.ScheduledWorkflow `json:"workflows"`
	UnparsedWorkflows []models.UnparsedWorkflow  `json:"unparsed_workflows"`
	TimeZone          string                     `json:"time_zone,omitempty"`
}

// ScheduleEventsRequest is the body of POST /schedules/events. Range bounds
// are mandatory ISO-8601 instants.
type ScheduleEventsRequest struct {
	ConnectionID string `json:"connection_id"`
	TimeZone     string `json:"time_zone"`
	RangeStart   string `json:"range_start" validate:"required,min=1"`
	RangeEnd     string `json:"range_end"   validate:"required,min=1"`
}

// ScheduleEventsResponse carries the expanded occurrences. Cached reports
// whether the event set was served from the short-lived result cache.
type ScheduleEventsResponse struct {
	Events     []models.ScheduleEvent `json:"events"`
	TimeZone   string                 `json:"time_zone,omitempty"`
	RangeStart time.Time              `json:"range_start"`
	RangeEnd   time.Time              `json:"range_end"`
	Cached     bool                   `json:"cached"`
}

// TestConnectionRequest is the body of POST /test-connection.
type TestConnectionRequest struct {
	ConnectionID string `json:"connection_id"`
}
