package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trialdesk-dev/trialdesk/internal/models"
)

// CreateTrialRequest represents the request to run a trial
type CreateTrialRequest struct {
	Name string `json:"name" binding:"required" validate:"min=1,max=100"`
}

// TrialResponse is a trial as returned by the API
type TrialResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newTrialResponse(t *models.Trial) TrialResponse {
	return TrialResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Status:      t.Status,
		Progress:    t.Progress,
		Message:     t.Message,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}

// @Router /api/project/{id}/trials [get]
func (s *Server) listTrials(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	trials, err := s.projectsService.ListTrials(c.Request.Context(), sessionData, c.Param("id"))
	if err != nil {
		s.respondProjectError(c, err, "Failed to list trials")
		return
	}

	response := make([]TrialResponse, 0, len(trials))
	for i := range trials {
		response = append(response, newTrialResponse(&trials[i]))
	}
	c.JSON(http.StatusOK, response)
}

// @Router /api/project/{id}/trials [post]
func (s *Server) createTrial(c *gin.Context) {
	var req CreateTrialRequest
	if !s.bindAndValidate(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	trial, err := s.projectsService.StartTrial(c.Request.Context(), sessionData, c.Param("id"), strings.TrimSpace(req.Name))
	if err != nil {
		s.respondProjectError(c, err, "Failed to start trial")
		return
	}

	c.JSON(http.StatusCreated, newTrialResponse(trial))
}

// @Router /api/project/{id}/trials/{trialId} [get]
func (s *Server) getTrial(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	trial, err := s.projectsService.GetTrial(c.Request.Context(), sessionData, c.Param("id"), c.Param("trialId"))
	if err != nil {
		s.respondProjectError(c, err, "Failed to load trial")
		return
	}

	c.JSON(http.StatusOK, newTrialResponse(trial))
}
