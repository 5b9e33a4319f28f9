package client

import (
	"context"
	"net/url"
)

// Roles understood by the client. The server may add more.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the profile of an account
type User struct {
	ID       string `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	FullName string `json:"full_name" yaml:"full_name"`
	Role     string `json:"role" yaml:"role"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

// IsAdmin reports whether the profile carries the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and first-admin creation
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// RegisterRequest creates a regular account, optionally through an invitation
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FullName        string `json:"full_name"`
	InvitationToken string `json:"invitation_token,omitempty"`
}

// FirstAdminRequest creates the initial admin account
type FirstAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// InvitationInfo describes an invitation token without consuming it
type InvitationInfo struct {
	Valid bool   `json:"valid"`
	Email string `json:"email,omitempty"`
}

// Login authenticates the user and returns an access token
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.doJSON(ctx, "POST", "/api/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new regular account
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, "POST", "/api/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the profile of the authenticated user
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, "GET", "/api/user/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FirstAdminCheck reports whether the server still allows first-admin setup
func (c *Client) FirstAdminCheck(ctx context.Context) (bool, error) {
	var resp struct {
		AllowFirstAdminSetup bool `json:"allow_first_admin_setup"`
	}
	if err := c.doJSON(ctx, "GET", "/api/user/first-admin-check", nil, &resp); err != nil {
		return false, err
	}
	return resp.AllowFirstAdminSetup, nil
}

// CreateFirstAdmin creates the initial admin account and returns its token
func (c *Client) CreateFirstAdmin(ctx context.Context, req FirstAdminRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.doJSON(ctx, "POST", "/api/user/first-admin", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetInvitation looks up an invitation token
func (c *Client) GetInvitation(ctx context.Context, token string) (*InvitationInfo, error) {
	var info InvitationInfo
	if err := c.doJSON(ctx, "GET", "/api/invitations/"+url.PathEscape(token), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
