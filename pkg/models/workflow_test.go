package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowNode_IsScriptNode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		nodeType string
		expected bool
	}{
		{NodeTypeCode, true},
		{NodeTypeFunction, true},
		{NodeTypeFunctionItem, true},
		{NodeTypeScheduleTrigger, false},
		{"n8n-nodes-base.set", false},
		{"", false},
	}

	for _, testCase := range tests {
		t.Run(testCase.nodeType, func(t *testing.T) {
			t.Parallel()

			node := WorkflowNode{Type: testCase.nodeType}

			assert.Equal(t, testCase.expected, node.IsScriptNode())
		})
	}
}

func TestWorkflowNode_IsScheduleTrigger(t *testing.T) {
	t.Parallel()

	trigger := WorkflowNode{Type: NodeTypeScheduleTrigger}
	code := WorkflowNode{Type: NodeTypeCode}

	assert.True(t, trigger.IsScheduleTrigger())
	assert.False(t, code.IsScheduleTrigger())
}

func TestNewScheduleEventID(t *testing.T) {
	t.Parallel()

	id := NewScheduleEventID("wf-1", "trigger-1", "0 12 */1 * *", 3)

	assert.Equal(t, "wf-1:trigger-1:0 12 */1 * *:3", id)
}
