package client

import (
	"context"
	"net/url"
	"time"
)

// Project statuses
const (
	ProjectActive    = "active"
	ProjectInactive  = "inactive"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// Project represents a project owned by a user
type Project struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Status      string    `json:"status" yaml:"status"`
	OwnerID     string    `json:"owner_id" yaml:"owner_id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// ProjectInput is the body of create and update requests
type ProjectInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ListProjects returns the projects visible to the current user
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.doJSON(ctx, "GET", "/api/project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns one project
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.doJSON(ctx, "GET", projectPath(id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project owned by the current user
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	var project Project
	if err := c.doJSON(ctx, "POST", "/api/project", in, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies the non-empty fields of in
func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (*Project, error) {
	var project Project
	if err := c.doJSON(ctx, "PUT", projectPath(id), in, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject deletes a project and its trials
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", projectPath(id), nil, nil)
}

func projectPath(projectID string) string {
	return "/api/project/" + url.PathEscape(projectID)
}
