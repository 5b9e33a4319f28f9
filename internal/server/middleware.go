package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/auth"
	"github.com/trialdesk-dev/trialdesk/internal/models"
)

const sessionKey = "session"

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrUserNotFound      = errors.New("user not found")
	ErrInactiveUser      = errors.New("inactive user")
	ErrNotAdmin          = errors.New("admin access required")
)

// authFailures maps authentication errors to their status and client message.
// Everything except an inactive account is a 401 so clients drop the
// credential and log in again.
var authFailures = map[error]struct {
	status  int
	message string
}{
	ErrMissingAuthHeader: {http.StatusUnauthorized, "Missing authorization header"},
	ErrInvalidAuthFormat: {http.StatusUnauthorized, "Invalid authorization header format"},
	ErrEmptyToken:        {http.StatusUnauthorized, "Empty token"},
	ErrInvalidToken:      {http.StatusUnauthorized, "Invalid or expired token"},
	ErrUserNotFound:      {http.StatusUnauthorized, "User not found"},
	ErrInactiveUser:      {http.StatusForbidden, "Inactive user"},
	ErrNotAdmin:          {http.StatusForbidden, "Admin access required"},
}

// GetSessionData returns the session set by JWTAuthMiddleware
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	sessionData, ok := v.(*auth.SessionData)
	return sessionData, ok
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrInvalidAuthFormat
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// authenticate resolves the request's bearer token to an active user. The
// role comes from the database, so demotions apply to tokens already issued.
func authenticate(db *gorm.DB, header string) (*models.User, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := models.FindByID(db, claims.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return &user, nil
}

func abortAuth(c *gin.Context, log zerolog.Logger, err error) {
	failure, known := authFailures[err]
	if !known {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Authentication failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(failure.message)
	c.AbortWithStatusJSON(failure.status, gin.H{"error": failure.message})
}

// JWTAuthMiddleware requires a valid bearer token for an active user and
// stores the session on the context
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(db, c.GetHeader("Authorization"))
		if err != nil {
			abortAuth(c, log, err)
			return
		}

		c.Set(sessionKey, &auth.SessionData{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		})
		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			abortAuth(c, log, ErrMissingAuthHeader)
			return
		}
		if !sessionData.IsAdmin() {
			abortAuth(c, log, ErrNotAdmin)
			return
		}
		c.Next()
	}
}
