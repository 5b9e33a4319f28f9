package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/assert"
	"github.com/trialdesk-dev/trialdesk/internal/auth"
	"github.com/trialdesk-dev/trialdesk/internal/models"
	"github.com/trialdesk-dev/trialdesk/internal/tasks"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrTrialNotFound = errors.New("trial not found")
	ErrForbidden     = errors.New("not allowed to access this project")
	ErrNameTaken     = errors.New("a project with this name already exists")
)

// Enqueuer schedules background tasks. *asynq.Client implements it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Service handles project and trial operations for the API server
type Service struct {
	db       *gorm.DB
	enqueuer Enqueuer
	logger   zerolog.Logger
}

// NewService creates a new projects service
func NewService(db *gorm.DB, enqueuer Enqueuer, logger zerolog.Logger) *Service {
	return &Service{
		db:       db,
		enqueuer: enqueuer,
		logger:   logger.With().Str("component", "projects_service").Logger(),
	}
}

// CreateParams are the fields of a new project
type CreateParams struct {
	Name        string
	Description string
	OwnerID     string
}

// UpdateParams holds the fields to change; empty fields are left alone
type UpdateParams struct {
	Name        string
	Description string
	Status      string
}

// List returns the projects the session may see: all of them for admins,
// owned ones otherwise
func (s *Service) List(ctx context.Context, session *auth.SessionData) ([]models.Project, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if !session.IsAdmin() {
		query = query.Where("owner_id = ?", session.UserID)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Get loads a project the session owns, or any project for admins
func (s *Service) Get(ctx context.Context, session *auth.SessionData, id string) (*models.Project, error) {
	var project models.Project
	if err := models.FindByID(s.db.WithContext(ctx), id, &project); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if project.OwnerID != session.UserID && !session.IsAdmin() {
		return nil, ErrForbidden
	}
	return &project, nil
}

// Create stores a new active project
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Project, error) {
	if err := s.ensureNameFree(ctx, params.Name, ""); err != nil {
		return nil, err
	}

	assert.NotEmpty(params.OwnerID, "project owner")
	project := &models.Project{
		Name:        params.Name,
		Description: params.Description,
		Status:      models.ProjectActive,
		OwnerID:     params.OwnerID,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("owner_id", project.OwnerID).
		Msg("Project created")
	return project, nil
}

// Update changes a project's name, description or status
func (s *Service) Update(ctx context.Context, session *auth.SessionData, id string, params UpdateParams) (*models.Project, error) {
	project, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if params.Name != "" && params.Name != project.Name {
		if err := s.ensureNameFree(ctx, params.Name, project.ID); err != nil {
			return nil, err
		}
		updates["name"] = params.Name
	}
	if params.Description != "" {
		updates["description"] = params.Description
	}
	if params.Status != "" {
		assert.OneOf(params.Status, models.ProjectStatuses, "project status")
		updates["status"] = params.Status
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
	}

	return s.Get(ctx, session, id)
}

// Delete removes a project with its trials, schemas and documents
func (s *Service) Delete(ctx context.Context, session *auth.SessionData, id string) error {
	project, err := s.Get(ctx, session, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owned := range []interface{}{&models.Trial{}, &models.Schema{}, &models.Document{}} {
			if err := tx.Where("project_id = ?", project.ID).Delete(owned).Error; err != nil {
				return err
			}
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("deleted_by", session.UserID).
		Msg("Project deleted")
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name, exceptID string) error {
	query := s.db.WithContext(ctx).Model(&models.Project{}).Where("name = ?", name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check project name: %w", err)
	}
	if count > 0 {
		return ErrNameTaken
	}
	return nil
}

// ListTrials returns a project's trials, newest first
func (s *Service) ListTrials(ctx context.Context, session *auth.SessionData, projectID string) ([]models.Trial, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	var trials []models.Trial
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&trials).Error; err != nil {
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}
	return trials, nil
}

// GetTrial loads one trial of a project
func (s *Service) GetTrial(ctx context.Context, session *auth.SessionData, projectID, trialID string) (*models.Trial, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	var trial models.Trial
	if err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", trialID, projectID).
		First(&trial).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrialNotFound
		}
		return nil, fmt.Errorf("failed to load trial: %w", err)
	}
	return &trial, nil
}

// StartTrial records a pending trial and enqueues it for the worker. If the
// task cannot be enqueued the trial is marked failed.
func (s *Service) StartTrial(ctx context.Context, session *auth.SessionData, projectID, name string) (*models.Trial, error) {
	if _, err := s.Get(ctx, session, projectID); err != nil {
		return nil, err
	}

	trial := &models.Trial{
		ProjectID: projectID,
		Name:      name,
		Status:    models.TrialPending,
	}
	if err := s.db.WithContext(ctx).Create(trial).Error; err != nil {
		return nil, fmt.Errorf("failed to create trial: %w", err)
	}

	task, err := tasks.NewRunTrialTask(trial.ID)
	if err == nil {
		_, err = s.enqueuer.EnqueueContext(ctx, task, asynq.Timeout(time.Hour), asynq.MaxRetry(3))
	}
	if err != nil {
		s.logger.Error().Err(err).Str("trial_id", trial.ID).Msg("Failed to enqueue trial")
		now := time.Now()
		s.db.WithContext(ctx).Model(trial).Updates(map[string]interface{}{
			"status":       models.TrialFailed,
			"message":      "failed to schedule trial",
			"completed_at": now,
		})
		return nil, fmt.Errorf("failed to enqueue trial: %w", err)
	}

	s.logger.Info().
		Str("trial_id", trial.ID).
		Str("project_id", projectID).
		Msg("Trial enqueued")
	return trial, nil
}
