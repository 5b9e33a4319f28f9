package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trialdesk-dev/trialdesk/internal/models"
	"github.com/trialdesk-dev/trialdesk/internal/projects"
)

// CreateDocumentRequest uploads a document's text
type CreateDocumentRequest struct {
	Name     string          `json:"name" binding:"required" validate:"min=1,max=255"`
	Text     string          `json:"text" binding:"required"`
	Metadata json.RawMessage `json:"metadata" validate:"omitempty,json_object"`
}

// DocumentResponse is a document as returned by the API. Listings leave
// Text empty.
type DocumentResponse struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Name      string          `json:"name"`
	Text      string          `json:"text,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newDocumentResponse(d *models.Document, withText bool) DocumentResponse {
	resp := DocumentResponse{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Metadata != "" {
		resp.Metadata = json.RawMessage(d.Metadata)
	}
	if withText {
		resp.Text = d.Text
	}
	return resp
}

// @Router /api/project/{id}/documents [get]
func (s *Server) listDocuments(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	documents, err := s.projectsService.ListDocuments(c.Request.Context(), sessionData, c.Param("id"))
	if err != nil {
		s.respondProjectError(c, err, "Failed to list documents")
		return
	}

	response := make([]DocumentResponse, 0, len(documents))
	for i := range documents {
		response = append(response, newDocumentResponse(&documents[i], false))
	}
	c.JSON(http.StatusOK, response)
}

// @Router /api/project/{id}/documents [post]
func (s *Server) createDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if !s.bindAndValidate(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	document, err := s.projectsService.CreateDocument(c.Request.Context(), sessionData, c.Param("id"), projects.DocumentParams{
		Name:     strings.TrimSpace(req.Name),
		Text:     req.Text,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.respondProjectError(c, err, "Failed to create document")
		return
	}

	c.JSON(http.StatusCreated, newDocumentResponse(document, true))
}

// @Router /api/project/{id}/document/{documentId} [get]
func (s *Server) getDocument(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	document, err := s.projectsService.GetDocument(c.Request.Context(), sessionData, c.Param("id"), c.Param("documentId"))
	if err != nil {
		s.respondProjectError(c, err, "Failed to load document")
		return
	}

	c.JSON(http.StatusOK, newDocumentResponse(document, true))
}
