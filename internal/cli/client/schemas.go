package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Schema is an extraction schema of a project
type Schema struct {
	ID         string          `json:"id" yaml:"id"`
	ProjectID  string          `json:"project_id" yaml:"project_id"`
	Name       string          `json:"name" yaml:"name"`
	Definition json.RawMessage `json:"definition" yaml:"-"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" yaml:"updated_at"`
}

// CreateSchemaRequest defines a new schema; Definition must be a JSON object
type CreateSchemaRequest struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
}

// ListSchemas returns the schemas of a project
func (c *Client) ListSchemas(ctx context.Context, projectID string) ([]Schema, error) {
	var schemas []Schema
	if err := c.doJSON(ctx, "GET", projectPath(projectID)+"/schemas", nil, &schemas); err != nil {
		return nil, err
	}
	return schemas, nil
}

// GetSchema returns one schema of a project
func (c *Client) GetSchema(ctx context.Context, projectID, schemaID string) (*Schema, error) {
	var schema Schema
	if err := c.doJSON(ctx, "GET", projectPath(projectID)+"/schema/"+url.PathEscape(schemaID), nil, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// CreateSchema adds a schema to a project
func (c *Client) CreateSchema(ctx context.Context, projectID string, req CreateSchemaRequest) (*Schema, error) {
	var schema Schema
	if err := c.doJSON(ctx, "POST", projectPath(projectID)+"/schema", req, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// DeleteSchema removes a schema from a project
func (c *Client) DeleteSchema(ctx context.Context, projectID, schemaID string) error {
	return c.doJSON(ctx, "DELETE", projectPath(projectID)+"/schema/"+url.PathEscape(schemaID), nil, nil)
}
