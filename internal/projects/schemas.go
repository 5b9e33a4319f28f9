package projects

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/auth"
	"github.com/trialdesk-dev/trialdesk/internal/models"
)

var (
	ErrSchemaNotFound  = errors.New("schema not found")
	ErrSchemaNameTaken = errors.New("a schema with this name already exists in the project")
)

// ListSchemas returns a project's schemas ordered by name
func (s *Service) ListSchemas(ctx context.Context, session *auth.SessionData, projectID string) ([]models.Schema, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	var schemas []models.Schema
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&schemas).Error; err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return schemas, nil
}

// GetSchema loads one schema of a project
func (s *Service) GetSchema(ctx context.Context, session *auth.SessionData, projectID, schemaID string) (*models.Schema, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}
	return s.findSchema(ctx, projectID, schemaID)
}

// CreateSchema stores a schema. definition must already be a JSON object.
func (s *Service) CreateSchema(ctx context.Context, session *auth.SessionData, projectID, name string, definition []byte) (*models.Schema, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Schema{}).
		Where("project_id = ? AND name = ?", projectID, name).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check schema name: %w", err)
	}
	if count > 0 {
		return nil, ErrSchemaNameTaken
	}

	schema := &models.Schema{
		ProjectID:  projectID,
		Name:       name,
		Definition: string(definition),
	}
	if err := s.db.WithContext(ctx).Create(schema).Error; err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Info().
		Str("schema_id", schema.ID).
		Str("project_id", projectID).
		Msg("Schema created")
	return schema, nil
}

// DeleteSchema removes a schema from a project
func (s *Service) DeleteSchema(ctx context.Context, session *auth.SessionData, projectID, schemaID string) error {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return err
	}

	schema, err := s.findSchema(ctx, projectID, schemaID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(schema).Error; err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}

	s.logger.Info().
		Str("schema_id", schema.ID).
		Str("deleted_by", session.UserID).
		Msg("Schema deleted")
	return nil
}

func (s *Service) findSchema(ctx context.Context, projectID, schemaID string) (*models.Schema, error) {
	var schema models.Schema
	if err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", schemaID, projectID).
		First(&schema).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchemaNotFound
		}
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return &schema, nil
}
