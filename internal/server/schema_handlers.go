package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trialdesk-dev/trialdesk/internal/models"
)

// CreateSchemaRequest defines a new extraction schema
type CreateSchemaRequest struct {
	Name       string          `json:"name" binding:"required" validate:"min=1,max=100"`
	Definition json.RawMessage `json:"definition" binding:"required" validate:"json_object"`
}

// SchemaResponse is a schema as returned by the API
type SchemaResponse struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"project_id"`
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func newSchemaResponse(s *models.Schema) SchemaResponse {
	return SchemaResponse{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		Name:       s.Name,
		Definition: json.RawMessage(s.Definition),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// @Router /api/project/{id}/schemas [get]
func (s *Server) listSchemas(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	schemas, err := s.projectsService.ListSchemas(c.Request.Context(), sessionData, c.Param("id"))
	if err != nil {
		s.respondProjectError(c, err, "Failed to list schemas")
		return
	}

	response := make([]SchemaResponse, 0, len(schemas))
	for i := range schemas {
		response = append(response, newSchemaResponse(&schemas[i]))
	}
	c.JSON(http.StatusOK, response)
}

// @Router /api/project/{id}/schema [post]
func (s *Server) createSchema(c *gin.Context) {
	var req CreateSchemaRequest
	if !s.bindAndValidate(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	schema, err := s.projectsService.CreateSchema(c.Request.Context(), sessionData, c.Param("id"), strings.TrimSpace(req.Name), req.Definition)
	if err != nil {
		s.respondProjectError(c, err, "Failed to create schema")
		return
	}

	c.JSON(http.StatusCreated, newSchemaResponse(schema))
}

// @Router /api/project/{id}/schema/{schemaId} [get]
func (s *Server) getSchema(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	schema, err := s.projectsService.GetSchema(c.Request.Context(), sessionData, c.Param("id"), c.Param("schemaId"))
	if err != nil {
		s.respondProjectError(c, err, "Failed to load schema")
		return
	}

	c.JSON(http.StatusOK, newSchemaResponse(schema))
}

// @Router /api/project/{id}/schema/{schemaId} [delete]
func (s *Server) deleteSchema(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	if err := s.projectsService.DeleteSchema(c.Request.Context(), sessionData, c.Param("id"), c.Param("schemaId")); err != nil {
		s.respondProjectError(c, err, "Failed to delete schema")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schema deleted successfully"})
}
