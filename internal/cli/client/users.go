package client

import (
	"context"
	"net/url"
	"time"
)

// Invitation is an admin-issued registration token
type Invitation struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Token     string    `json:"token" yaml:"token"`
	IsUsed    bool      `json:"is_used" yaml:"is_used"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// ListUsers returns all accounts (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSON(ctx, "GET", "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes a regular account (admin only)
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/api/users/"+url.PathEscape(id), nil, nil)
}

// CreateInvitation issues an invitation for email (admin only)
func (c *Client) CreateInvitation(ctx context.Context, email string) (*Invitation, error) {
	req := struct {
		Email string `json:"email"`
	}{Email: email}

	var inv Invitation
	if err := c.doJSON(ctx, "POST", "/api/invitations", req, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}
