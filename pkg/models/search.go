package models

// Match is one located occurrence of a search term within one string value of
// a node's parameter tree. Field is the dotted/bracketed path to the value,
// Expression is either the full matched snippet or, for script nodes, the
// best single matching line. MatchIndex is a monotonic counter used for
// stable ordering.
type Match struct {
	Field      string `json:"field"`
	Expression string `json:"expression"`
	FullValue  string `json:"full_value"`
	Context    string `json:"context"`
	MatchIndex int    `json:"match_index"`
}

// SearchResult is one node with at least one match. Nodes without matches
// never appear in a result set.
type SearchResult struct {
	NodeName string  `json:"node_name"`
	NodeType string  `json:"node_type"`
	NodeID   string  `json:"node_id"`
	Matches  []Match `json:"matches"`
}
