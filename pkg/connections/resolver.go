// Package connections resolves n8n instance credentials from a YAML
// configuration file.
package connections

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConnectionNotFound is returned when an explicit connection id does
	// not exist in the configuration.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrNoActiveConnection is returned when no connection id was given and
	// none of the configured connections is marked active.
	ErrNoActiveConnection = errors.New("no active connection found")
)

// ResolveError carries an HTTP-style status alongside the failure so the web
// layer can map credential failures without inspecting sentinel errors.
type ResolveError struct {
	Status int
	Err    error
}

func (e *ResolveError) Error() string {
	return e.Err.Error()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Connection is one configured n8n instance.
type Connection struct {
	ID      string `yaml:"id"       json:"id"`
	Name    string `yaml:"name"     json:"name"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key"  json:"api_key"`
	Active  bool   `yaml:"active"   json:"active"`
}

// Resolved is the credential pair handed to the upstream client.
type Resolved struct {
	BaseURL string
	APIKey  string
}

type configFile struct {
	Connections []Connection `yaml:"connections"`
}

// connectionSchema validates the decoded configuration before any resolution
// happens, so a malformed file fails at startup rather than on first request.
var connectionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"connections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "base_url", "api_key"},
				"properties": map[string]any{
					"id":       map[string]any{"type": "string", "minLength": 1},
					"name":     map[string]any{"type": "string"},
					"base_url": map[string]any{"type": "string", "minLength": 1},
					"api_key":  map[string]any{"type": "string", "minLength": 1},
					"active":   map[string]any{"type": "boolean"},
				},
			},
		},
	},
	"required": []any{"connections"},
}

// Resolver looks up connection credentials by id, or the active connection
// when no id is given. The configuration is immutable after Load.
type Resolver struct {
	connections []Connection
}

// Load reads and validates the connections file.
func Load(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read connections file %s: %w", path, err)
	}

	var config configFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse connections file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid connections file %s: %w", path, err)
	}

	normalized := make([]Connection, len(config.Connections))
	for i, conn := range config.Connections {
		conn.BaseURL = strings.TrimRight(conn.BaseURL, "/")
		normalized[i] = conn
	}

	return &Resolver{connections: normalized}, nil
}

// NewResolver builds a resolver from an in-memory connection list. Used by
// tests and by deployments that inject credentials without a config file.
func NewResolver(conns []Connection) *Resolver {
	normalized := make([]Connection, len(conns))
	for i, conn := range conns {
		conn.BaseURL = strings.TrimRight(conn.BaseURL, "/")
		normalized[i] = conn
	}

	return &Resolver{connections: normalized}
}

func validateConfig(config configFile) error {
	// Round-trip through the generic form so the schema sees JSON types.
	generic := map[string]any{
		"connections": make([]any, 0, len(config.Connections)),
	}

	items := generic["connections"].([]any)
	for _, conn := range config.Connections {
		items = append(items, map[string]any{
			"id":       conn.ID,
			"name":     conn.Name,
			"base_url": conn.BaseURL,
			"api_key":  conn.APIKey,
			"active":   conn.Active,
		})
	}

	generic["connections"] = items

	schemaLoader := gojsonschema.NewGoLoader(connectionSchema)
	dataLoader := gojsonschema.NewGoLoader(generic)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var descriptions []string
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(descriptions, "; "))
	}

	return nil
}

// Resolve returns credentials for the given connection id, or for the active
// connection when connectionID is empty.
func (r *Resolver) Resolve(connectionID string) (*Resolved, error) {
	if connectionID != "" {
		for _, conn := range r.connections {
			if conn.ID == connectionID {
				return &Resolved{BaseURL: conn.BaseURL, APIKey: conn.APIKey}, nil
			}
		}

		return nil, &ResolveError{Status: http.StatusNotFound, Err: ErrConnectionNotFound}
	}

	for _, conn := range r.connections {
		if conn.Active {
			return &Resolved{BaseURL: conn.BaseURL, APIKey: conn.APIKey}, nil
		}
	}

	return nil, &ResolveError{Status: http.StatusBadRequest, Err: ErrNoActiveConnection}
}
