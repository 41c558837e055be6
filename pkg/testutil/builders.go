// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/flowlens/flowlens/pkg/models"
)

// CreateTestNode creates a test WorkflowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) models.WorkflowNode {
	node := models.WorkflowNode{
		ID:   uuid.New().String(),
		Name: "Test Node",
		Type: "n8n-nodes-base.set",
		Parameters: map[string]any{
			"values": map[string]any{
				"string": []any{
					map[string]any{"name": "message", "value": "test"},
				},
			},
		},
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithScheduleTrigger configures the node as a schedule trigger with the
// given interval entries.
func WithScheduleTrigger(intervals ...map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeScheduleTrigger
		n.Name = "Schedule Trigger"

		entries := make([]any, 0, len(intervals))
		for _, interval := range intervals {
			entries = append(entries, interval)
		}

		n.Parameters = map[string]any{
			"rule": map[string]any{"interval": entries},
		}
	}
}

// WithCodeNode configures the node as a code node holding the given script body.
func WithCodeNode(script string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeCode
		n.Name = "Code"
		n.Parameters = map[string]any{"jsCode": script}
	}
}

// WithParameters sets the node parameter tree.
func WithParameters(parameters map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Parameters = parameters
	}
}

// WithCredentials sets the node credential tree.
func WithCredentials(credentials map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Credentials = credentials
	}
}

// WithNodeName sets the node name.
func WithNodeName(name string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Name = name
	}
}

// WithNotes sets the node notes.
func WithNotes(notes string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Notes = notes
	}
}

// CreateTestWorkflow creates an active test Workflow with the given nodes.
func CreateTestWorkflow(nodes []models.WorkflowNode, overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:        uuid.New().String(),
		Name:      "Test Workflow",
		Active:    true,
		UpdatedAt: "2025-01-01T00:00:00.000Z",
		Nodes:     nodes,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithWorkflowID sets the workflow ID.
func WithWorkflowID(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ID = id
	}
}

// WithWorkflowName sets the workflow name.
func WithWorkflowName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// WithInactive marks the workflow as inactive.
func WithInactive() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Active = false
	}
}

// WithArchived marks the workflow as archived.
func WithArchived() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.IsArchived = true
	}
}

// ListItem converts a full workflow into its paginated list representation.
func ListItem(w *models.Workflow) models.WorkflowListItem {
	return models.WorkflowListItem{
		ID:         w.ID,
		Name:       w.Name,
		Active:     w.Active,
		IsArchived: w.IsArchived,
		UpdatedAt:  w.UpdatedAt,
		Nodes:      w.Nodes,
	}
}
