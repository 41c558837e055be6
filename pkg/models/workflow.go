// Package models defines the core domain models for n8n workflow inspection
package models

// WorkflowNode represents one automation step inside a fetched workflow.
// Parameters and Credentials are untyped trees as delivered by the n8n API;
// they must never be assumed acyclic or bounded in depth.
type WorkflowNode struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Credentials map[string]any `json:"credentials,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// Workflow is the full workflow document returned by the "get workflow by id"
// endpoint. It is a read-only snapshot; the inspector never mutates or
// persists it.
type Workflow struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Active     bool           `json:"active"`
	IsArchived bool           `json:"isArchived,omitempty"`
	UpdatedAt  string         `json:"updatedAt,omitempty"`
	Nodes      []WorkflowNode `json:"nodes"`
}

// WorkflowListItem is a single entry of the paginated workflow list. The list
// endpoint may or may not include node definitions depending on the n8n
// version, so Nodes is optional here.
type WorkflowListItem struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Active     bool           `json:"active"`
	IsArchived bool           `json:"isArchived,omitempty"`
	UpdatedAt  string         `json:"updatedAt,omitempty"`
	Nodes      []WorkflowNode `json:"nodes,omitempty"`
}

// NodeTypeScheduleTrigger is the n8n node type tag for schedule triggers.
const NodeTypeScheduleTrigger = "n8n-nodes-base.scheduleTrigger"

// Script-bearing node types. Their string parameters hold whole source
// bodies rather than short templated expressions, which changes both pattern
// ordering and match contextualization during search.
const (
	NodeTypeCode         = "n8n-nodes-base.code"
	NodeTypeFunction     = "n8n-nodes-base.function"
	NodeTypeFunctionItem = "n8n-nodes-base.functionItem"
)

// IsScriptNode reports whether the node embeds a source-code body.
func (n *WorkflowNode) IsScriptNode() bool {
	switch n.Type {
	case NodeTypeCode, NodeTypeFunction, NodeTypeFunctionItem:
		return true
	default:
		return false
	}
}

// IsScheduleTrigger reports whether the node is a schedule trigger.
func (n *WorkflowNode) IsScheduleTrigger() bool {
	return n.Type == NodeTypeScheduleTrigger
}
