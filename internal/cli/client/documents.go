package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Document is a source text of a project. Listings omit Text.
type Document struct {
	ID        string          `json:"id" yaml:"id"`
	ProjectID string          `json:"project_id" yaml:"project_id"`
	Name      string          `json:"name" yaml:"name"`
	Text      string          `json:"text,omitempty" yaml:"text,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty" yaml:"-"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
}

// CreateDocumentRequest uploads a document's text
type CreateDocumentRequest struct {
	Name     string          `json:"name"`
	Text     string          `json:"text"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ListDocuments returns the documents of a project
func (c *Client) ListDocuments(ctx context.Context, projectID string) ([]Document, error) {
	var documents []Document
	if err := c.doJSON(ctx, "GET", projectPath(projectID)+"/documents", nil, &documents); err != nil {
		return nil, err
	}
	return documents, nil
}

// GetDocument returns one document with its text
func (c *Client) GetDocument(ctx context.Context, projectID, documentID string) (*Document, error) {
	var document Document
	if err := c.doJSON(ctx, "GET", projectPath(projectID)+"/document/"+url.PathEscape(documentID), nil, &document); err != nil {
		return nil, err
	}
	return &document, nil
}

// CreateDocument uploads a document to a project
func (c *Client) CreateDocument(ctx context.Context, projectID string, req CreateDocumentRequest) (*Document, error) {
	var document Document
	if err := c.doJSON(ctx, "POST", projectPath(projectID)+"/documents", req, &document); err != nil {
		return nil, err
	}
	return &document, nil
}
