package projects

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/auth"
	"github.com/trialdesk-dev/trialdesk/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentParams are the fields of a new document. Metadata is a JSON object
// or empty.
type DocumentParams struct {
	Name     string
	Text     string
	Metadata []byte
}

// ListDocuments returns a project's documents, newest first
func (s *Service) ListDocuments(ctx context.Context, session *auth.SessionData, projectID string) ([]models.Document, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	var documents []models.Document
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

// GetDocument loads one document of a project
func (s *Service) GetDocument(ctx context.Context, session *auth.SessionData, projectID, documentID string) (*models.Document, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	var document models.Document
	if err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", documentID, projectID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &document, nil
}

// CreateDocument stores a document's text in a project
func (s *Service) CreateDocument(ctx context.Context, session *auth.SessionData, projectID string, params DocumentParams) (*models.Document, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	document := &models.Document{
		ProjectID: projectID,
		Name:      params.Name,
		Text:      params.Text,
		Metadata:  string(params.Metadata),
	}
	if err := s.db.WithContext(ctx).Create(document).Error; err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info().
		Str("document_id", document.ID).
		Str("project_id", projectID).
		Int("bytes", len(params.Text)).
		Msg("Document created")
	return document, nil
}
