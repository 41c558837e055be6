package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/flowlens/flowlens/pkg/models"
	"github.com/flowlens/flowlens/pkg/testutil"
)

// fakeSource is an in-memory WorkflowSource for aggregator tests.
type fakeSource struct {
	items     []models.WorkflowListItem
	workflows map[string]*models.Workflow
	listErr   error
	getErr    error
	listCalls int
}

func (s *fakeSource) ListWorkflows(_ context.Context) ([]models.WorkflowListItem, error) {
	s.listCalls++

	return s.items, s.listErr
}

func (s *fakeSource) GetWorkflow(_ context.Context, workflowID string) (*models.Workflow, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}

	workflow, ok := s.workflows[workflowID]
	if !ok {
		return nil, errors.New("workflow not found")
	}

	return workflow, nil
}

func (s *fakeSource) BaseURL() string {
	return "https://n8n.example.com"
}

func newTestAggregator(opts Options) *Aggregator {
	return NewAggregator(NewMemoryCache(time.Minute), opts, discardLogger(), noop.NewTracerProvider().Tracer("test"))
}

func dailyNoonTrigger() models.WorkflowNode {
	return testutil.CreateTestNode(testutil.WithScheduleTrigger(map[string]any{
		"field": "days",
		"value": float64(1),
		"triggerAt": map[string]any{
			"hour":   float64(12),
			"minute": float64(0),
		},
	}))
}

func eventsRequest(start, end time.Time) EventsRequest {
	return EventsRequest{
		APIKey:     "key",
		TimeZone:   "UTC",
		Location:   time.UTC,
		RangeStart: start,
		RangeEnd:   end,
	}
}

func TestAggregatorEvents_ComputesOccurrences(t *testing.T) {
	t.Parallel()

	workflow := testutil.CreateTestWorkflow(
		[]models.WorkflowNode{dailyNoonTrigger()},
		testutil.WithWorkflowID("wf-1"),
		testutil.WithWorkflowName("Daily Report"),
	)
	source := &fakeSource{items: []models.WorkflowListItem{testutil.ListItem(workflow)}}

	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(72*time.Hour)))

	require.NoError(t, err)
	assert.False(t, result.Cached)
	require.Len(t, result.Events, 3)

	first := result.Events[0]
	assert.Equal(t, "Daily Report", first.Title)
	assert.Equal(t, "wf-1", first.WorkflowID)
	assert.Equal(t, "0 12 */1 * *", first.Cron)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, first.Start.Add(DefaultEventDuration), first.End)
	assert.Nil(t, first.AverageDurationMs)
}

func TestAggregatorEvents_EventIDsAreStable(t *testing.T) {
	t.Parallel()

	workflow := testutil.CreateTestWorkflow(
		[]models.WorkflowNode{dailyNoonTrigger()},
		testutil.WithWorkflowID("wf-1"),
	)
	triggerID := workflow.Nodes[0].ID
	source := &fakeSource{items: []models.WorkflowListItem{testutil.ListItem(workflow)}}

	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(48*time.Hour)))

	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "wf-1:"+triggerID+":0 12 */1 * *:0", result.Events[0].ID)
	assert.Equal(t, "wf-1:"+triggerID+":0 12 */1 * *:1", result.Events[1].ID)
}

func TestAggregatorEvents_SecondCallServedFromCache(t *testing.T) {
	t.Parallel()

	workflow := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()})
	source := &fakeSource{items: []models.WorkflowListItem{testutil.ListItem(workflow)}}

	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	req := eventsRequest(start, start.Add(24*time.Hour))

	first, err := aggregator.Events(context.Background(), source, req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := aggregator.Events(context.Background(), source, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, 1, source.listCalls)
}

func TestAggregatorEvents_DifferentRangeMissesCache(t *testing.T) {
	t.Parallel()

	workflow := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()})
	source := &fakeSource{items: []models.WorkflowListItem{testutil.ListItem(workflow)}}

	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(24*time.Hour)))
	require.NoError(t, err)

	_, err = aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(48*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, 2, source.listCalls)
}

func TestAggregatorEvents_DurationFromNotes(t *testing.T) {
	t.Parallel()

	node := dailyNoonTrigger()
	node.Notes = "average duration=600 seconds"

	workflow := testutil.CreateTestWorkflow([]models.WorkflowNode{node})
	source := &fakeSource{items: []models.WorkflowListItem{testutil.ListItem(workflow)}}

	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(24*time.Hour)))

	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, result.Events[0].Start.Add(600*time.Second), result.Events[0].End)
}

func TestAggregatorEvents_SkipsInactiveAndArchived(t *testing.T) {
	t.Parallel()

	inactive := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()}, testutil.WithInactive())
	archived := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()}, testutil.WithArchived())
	source := &fakeSource{items: []models.WorkflowListItem{
		testutil.ListItem(inactive),
		testutil.ListItem(archived),
	}}

	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(24*time.Hour)))

	require.NoError(t, err)
	assert.Empty(t, result.Events)
}

func TestAggregatorEvents_OverlappingWorkflowsBothPresent(t *testing.T) {
	t.Parallel()

	first := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()}, testutil.WithWorkflowID("wf-a"))
	second := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()}, testutil.WithWorkflowID("wf-b"))
	source := &fakeSource{items: []models.WorkflowListItem{
		testutil.ListItem(first),
		testutil.ListItem(second),
	}}

	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(24*time.Hour)))

	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, result.Events[0].Start, result.Events[1].Start)
	assert.NotEqual(t, result.Events[0].WorkflowID, result.Events[1].WorkflowID)
}

func TestAggregatorEvents_MaxEventsCap(t *testing.T) {
	t.Parallel()

	node := testutil.CreateTestNode(testutil.WithScheduleTrigger(map[string]any{
		"field": "minutes",
		"value": float64(1),
	}))
	workflow := testutil.CreateTestWorkflow([]models.WorkflowNode{node})
	source := &fakeSource{items: []models.WorkflowListItem{testutil.ListItem(workflow)}}

	aggregator := newTestAggregator(Options{MaxEventsPerWorkflow: 25})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(24*time.Hour)))

	require.NoError(t, err)
	assert.Len(t, result.Events, 25)
}

func TestAggregatorEvents_ListFailureAborts(t *testing.T) {
	t.Parallel()

	source := &fakeSource{listErr: errors.New("upstream down")}
	aggregator := newTestAggregator(Options{})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := aggregator.Events(context.Background(), source, eventsRequest(start, start.Add(24*time.Hour)))

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestAggregatorSchedules_HydratesFromDetailEndpoint(t *testing.T) {
	t.Parallel()

	workflow := testutil.CreateTestWorkflow(
		[]models.WorkflowNode{dailyNoonTrigger(), testutil.CreateTestNode()},
		testutil.WithWorkflowID("wf-1"),
		testutil.WithWorkflowName("Daily Report"),
	)

	// The list endpoint omits node definitions; only the detail endpoint has
	// them.
	item := testutil.ListItem(workflow)
	item.Nodes = nil

	source := &fakeSource{
		items:     []models.WorkflowListItem{item},
		workflows: map[string]*models.Workflow{"wf-1": workflow},
	}

	aggregator := newTestAggregator(Options{})

	result, err := aggregator.Schedules(context.Background(), source)

	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Empty(t, result.Unparsed)

	scheduled := result.Workflows[0]
	assert.Equal(t, "wf-1", scheduled.ID)
	assert.Equal(t, "Daily Report", scheduled.Name)
	assert.Equal(t, 2, scheduled.Nodes)
	require.Len(t, scheduled.ScheduleTriggers, 1)
	assert.Equal(t, []string{"0 12 */1 * *"}, scheduled.ScheduleTriggers[0].ParsedCrons)
}

func TestAggregatorSchedules_FallsBackToListItemOnDetailFailure(t *testing.T) {
	t.Parallel()

	workflow := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()}, testutil.WithWorkflowID("wf-1"))
	source := &fakeSource{
		items:  []models.WorkflowListItem{testutil.ListItem(workflow)},
		getErr: errors.New("detail endpoint unavailable"),
	}

	aggregator := newTestAggregator(Options{})

	result, err := aggregator.Schedules(context.Background(), source)

	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, "wf-1", result.Workflows[0].ID)
}

func TestAggregatorSchedules_ReportsUnparsedTriggers(t *testing.T) {
	t.Parallel()

	node := testutil.CreateTestNode(testutil.WithScheduleTrigger())
	node.Parameters = map[string]any{"rule": map[string]any{}}

	workflow := testutil.CreateTestWorkflow(
		[]models.WorkflowNode{node},
		testutil.WithWorkflowID("wf-1"),
		testutil.WithWorkflowName("Broken Schedule"),
	)
	source := &fakeSource{
		items:     []models.WorkflowListItem{testutil.ListItem(workflow)},
		workflows: map[string]*models.Workflow{"wf-1": workflow},
	}

	aggregator := newTestAggregator(Options{})

	result, err := aggregator.Schedules(context.Background(), source)

	require.NoError(t, err)
	require.Len(t, result.Unparsed, 1)

	unparsed := result.Unparsed[0]
	assert.Equal(t, "wf-1", unparsed.ID)
	assert.Equal(t, "Broken Schedule", unparsed.Name)
	assert.Equal(t, "https://n8n.example.com/workflow/wf-1", unparsed.URL)
	assert.Equal(t, "Unable to parse schedule trigger parameters", unparsed.Reason)

	// The workflow itself still lists, with its parse errors attached.
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, []string{"Missing rule.interval"}, result.Workflows[0].ScheduleTriggers[0].ParseErrors)
}

func TestAggregatorSchedules_SkipsWorkflowsWithoutTriggers(t *testing.T) {
	t.Parallel()

	plain := testutil.CreateTestWorkflow([]models.WorkflowNode{testutil.CreateTestNode()}, testutil.WithWorkflowID("wf-plain"))
	archived := testutil.CreateTestWorkflow([]models.WorkflowNode{dailyNoonTrigger()}, testutil.WithWorkflowID("wf-archived"), testutil.WithArchived())

	source := &fakeSource{
		items: []models.WorkflowListItem{
			testutil.ListItem(plain),
			{ID: "wf-archived", Name: archived.Name, Active: true},
		},
		workflows: map[string]*models.Workflow{
			"wf-plain":    plain,
			"wf-archived": archived,
		},
	}

	aggregator := newTestAggregator(Options{})

	result, err := aggregator.Schedules(context.Background(), source)

	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
	assert.Empty(t, result.Unparsed)
}

func TestParseDurationSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		notes    string
		expected int
	}{
		{"plain declaration", "duration=600", 600},
		{"embedded in text", "runs nightly, duration = 45 roughly", 45},
		{"case insensitive", "DURATION=90", 90},
		{"fractional rounds", "duration=2.6", 3},
		{"zero ignored", "duration=0", 0},
		{"absent", "no declaration here", 0},
		{"empty", "", 0},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, ParseDurationSeconds(testCase.notes))
		})
	}
}
