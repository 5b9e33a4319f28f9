package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/assert"
	"github.com/trialdesk-dev/trialdesk/internal/auth"
	"github.com/trialdesk-dev/trialdesk/internal/models"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest creates a regular account
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required" validate:"min=8,max=128"`
	FullName        string `json:"full_name" validate:"max=100"`
	InvitationToken string `json:"invitation_token"`
}

// FirstAdminRequest creates the initial admin account
type FirstAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" validate:"min=8,max=128"`
	FullName string `json:"full_name" validate:"max=100"`
}

// TokenResponse is returned by login and first-admin creation
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bindAndValidate binds the JSON body and runs the struct validators
func (s *Server) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return false
	}
	return true
}

func (s *Server) issueToken(c *gin.Context, user *models.User, status int) {
	assert.NotEmpty(user.ID, "user id")

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, s.config.Auth.AccessTokenTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(status, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        newUserDetail(user),
	})
}

func (s *Server) adminExists() (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// @Router /api/user/first-admin-check [get]
func (s *Server) firstAdminCheck(c *gin.Context) {
	exists, err := s.adminExists()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count admins")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"allow_first_admin_setup": !exists})
}

// @Router /api/user/first-admin [post]
func (s *Server) createFirstAdmin(c *gin.Context) {
	var req FirstAdminRequest
	if !s.bindAndValidate(c, &req) {
		return
	}

	var user *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errAdminExists
		}

		passwordHash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}

		user = &models.User{
			Email:        normalizeEmail(req.Email),
			PasswordHash: passwordHash,
			FullName:     req.FullName,
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		return tx.Create(user).Error
	})
	if err != nil {
		if errors.Is(err, errAdminExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "An admin account already exists"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create first admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("First admin user created")

	s.issueToken(c, user, http.StatusCreated)
}

var errAdminExists = errors.New("admin exists")

// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Verify password
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Inactive user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	s.issueToken(c, &user, http.StatusOK)
}

// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !s.bindAndValidate(c, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	var user *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errEmailTaken
		}

		if req.InvitationToken != "" {
			var inv models.Invitation
			if err := tx.Where("token = ?", req.InvitationToken).First(&inv).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errInvalidInvitation
				}
				return err
			}
			if !inv.Usable(time.Now()) || normalizeEmail(inv.Email) != email {
				return errInvalidInvitation
			}
			now := time.Now()
			if err := tx.Model(&inv).Update("used_at", &now).Error; err != nil {
				return err
			}
		}

		passwordHash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}

		user = &models.User{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     req.FullName,
			Role:         models.RoleUser,
			IsActive:     true,
		}
		return tx.Create(user).Error
	})
	switch {
	case errors.Is(err, errEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	case errors.Is(err, errInvalidInvitation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation is invalid or has expired"})
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Failed to register user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Bool("invited", req.InvitationToken != "").
		Msg("User registered")

	c.JSON(http.StatusCreated, newUserDetail(user))
}

var (
	errEmailTaken        = errors.New("email taken")
	errInvalidInvitation = errors.New("invalid invitation")
)

// @Router /api/user/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, newUserDetail(&user))
}
