package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/models"
)

// CreateInvitationRequest represents the request to invite a user
type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// InvitationResponse is an issued invitation
type InvitationResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	IsUsed    bool      `json:"is_used"`
	ExpiresAt time.Time `json:"expires_at"`
}

// @Router /api/users [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	details := make([]*UserDetail, 0, len(users))
	for i := range users {
		details = append(details, newUserDetail(&users[i]))
	}
	c.JSON(http.StatusOK, details)
}

// @Router /api/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	userID := c.Param("id")
	sessionData, _ := GetSessionData(c)

	if sessionData.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}

	if user.IsAdmin() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete an admin account"})
		return
	}

	// Remove the user's projects and everything they own along with the account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Project{}).Select("id").Where("owner_id = ?", user.ID)
		for _, child := range []interface{}{&models.Trial{}, &models.Schema{}, &models.Document{}} {
			if err := tx.Where("project_id IN (?)", owned).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("deleted_by", sessionData.UserID).
		Msg("User deleted")

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// @Router /api/invitations [post]
func (s *Server) createInvitation(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := normalizeEmail(req.Email)
	sessionData, _ := GetSessionData(c)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
		return
	}

	token, err := generateInvitationToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate invitation token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	inv := models.Invitation{
		Email:       email,
		Token:       token,
		InvitedByID: sessionData.UserID,
		ExpiresAt:   time.Now().Add(s.config.Auth.InvitationTTL),
	}
	if err := s.db.Create(&inv).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create invitation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	s.logger.Info().
		Str("invitation_id", inv.ID).
		Str("email", inv.Email).
		Str("invited_by", sessionData.UserID).
		Msg("Invitation created")

	c.JSON(http.StatusCreated, InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Token:     inv.Token,
		IsUsed:    inv.UsedAt != nil,
		ExpiresAt: inv.ExpiresAt,
	})
}

// @Router /api/invitations/{token} [get]
func (s *Server) getInvitation(c *gin.Context) {
	var inv models.Invitation
	if err := s.db.Where("token = ?", c.Param("token")).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"valid": false})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load invitation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !inv.Usable(time.Now()) {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "email": inv.Email})
}

func generateInvitationToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
