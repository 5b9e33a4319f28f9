package client

import (
	"context"
	"net/url"
	"time"
)

// Trial statuses
const (
	TrialPending   = "pending"
	TrialRunning   = "running"
	TrialCompleted = "completed"
	TrialFailed    = "failed"
)

// Trial is one evaluation run inside a project
type Trial struct {
	ID          string     `json:"id" yaml:"id"`
	ProjectID   string     `json:"project_id" yaml:"project_id"`
	Name        string     `json:"name" yaml:"name"`
	Status      string     `json:"status" yaml:"status"`
	Progress    float64    `json:"progress" yaml:"progress"`
	Message     string     `json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// CreateTrialRequest starts a new trial
type CreateTrialRequest struct {
	Name string `json:"name"`
}

func trialsPath(projectID string) string {
	return projectPath(projectID) + "/trials"
}

// ListTrials returns the trials of a project
func (c *Client) ListTrials(ctx context.Context, projectID string) ([]Trial, error) {
	var trials []Trial
	if err := c.doJSON(ctx, "GET", trialsPath(projectID), nil, &trials); err != nil {
		return nil, err
	}
	return trials, nil
}

// GetTrial returns one trial of a project
func (c *Client) GetTrial(ctx context.Context, projectID, trialID string) (*Trial, error) {
	var trial Trial
	if err := c.doJSON(ctx, "GET", trialsPath(projectID)+"/"+url.PathEscape(trialID), nil, &trial); err != nil {
		return nil, err
	}
	return &trial, nil
}

// CreateTrial queues a new trial run
func (c *Client) CreateTrial(ctx context.Context, projectID, name string) (*Trial, error) {
	var trial Trial
	if err := c.doJSON(ctx, "POST", trialsPath(projectID), CreateTrialRequest{Name: name}, &trial); err != nil {
		return nil, err
	}
	return &trial, nil
}
