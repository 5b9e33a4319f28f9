package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trialdesk-dev/trialdesk/internal/models"
	"github.com/trialdesk-dev/trialdesk/internal/projects"
)

// CreateProjectRequest represents the request to create a project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required" validate:"min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateProjectRequest holds the fields to change
type UpdateProjectRequest struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Status      string `json:"status" validate:"omitempty,project_status"`
}

// ProjectResponse is a project as returned by the API
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProjectResponse(p *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// respondProjectError maps service errors to HTTP responses
func (s *Server) respondProjectError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, projects.ErrNotFound),
		errors.Is(err, projects.ErrTrialNotFound),
		errors.Is(err, projects.ErrSchemaNotFound),
		errors.Is(err, projects.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, projects.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, projects.ErrNameTaken), errors.Is(err, projects.ErrSchemaNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// @Router /api/project [get]
func (s *Server) listProjects(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	list, err := s.projectsService.List(c.Request.Context(), sessionData)
	if err != nil {
		s.respondProjectError(c, err, "Failed to list projects")
		return
	}

	response := make([]ProjectResponse, 0, len(list))
	for i := range list {
		response = append(response, newProjectResponse(&list[i]))
	}
	c.JSON(http.StatusOK, response)
}

// @Router /api/project [post]
func (s *Server) createProject(c *gin.Context) {
	var req CreateProjectRequest
	if !s.bindAndValidate(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	project, err := s.projectsService.Create(c.Request.Context(), projects.CreateParams{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		OwnerID:     sessionData.UserID,
	})
	if err != nil {
		s.respondProjectError(c, err, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, newProjectResponse(project))
}

// @Router /api/project/{id} [get]
func (s *Server) getProject(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	project, err := s.projectsService.Get(c.Request.Context(), sessionData, c.Param("id"))
	if err != nil {
		s.respondProjectError(c, err, "Failed to load project")
		return
	}

	c.JSON(http.StatusOK, newProjectResponse(project))
}

// @Router /api/project/{id} [put]
func (s *Server) updateProject(c *gin.Context) {
	var req UpdateProjectRequest
	if !s.bindAndValidate(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	project, err := s.projectsService.Update(c.Request.Context(), sessionData, c.Param("id"), projects.UpdateParams{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		s.respondProjectError(c, err, "Failed to update project")
		return
	}

	c.JSON(http.StatusOK, newProjectResponse(project))
}

// @Router /api/project/{id} [delete]
func (s *Server) deleteProject(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	if err := s.projectsService.Delete(c.Request.Context(), sessionData, c.Param("id")); err != nil {
		s.respondProjectError(c, err, "Failed to delete project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
