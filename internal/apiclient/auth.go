package apiclient

import (
	"context"
	"net/http"
)

// User is an account as returned by the auth and admin endpoints
type User struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	IsActive    bool    `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
	CreatedAt   string  `json:"created_at"`
	LastLogin   *string `json:"last_login"`
}

// AdminStats is the payload of GET /api/admin/stats
type AdminStats struct {
	TotalUsers     int `json:"total_users"`
	ActiveUsers    int `json:"active_users"`
	Superusers     int `json:"superusers"`
	TotalDocuments int `json:"total_documents"`
	TotalClients   int `json:"total_clients"`
}

// UserUpdate is a partial update of a user; nil fields are left unchanged
type UserUpdate struct {
	IsActive    *bool `json:"is_active,omitempty"`
	IsSuperuser *bool `json:"is_superuser,omitempty"`
}

// GuestInfo reports the anonymous upload allowance
type GuestInfo struct {
	IsGuest          bool `json:"is_guest"`
	UploadsUsed      int  `json:"uploads_used"`
	UploadLimit      int  `json:"upload_limit"`
	UploadsRemaining int  `json:"uploads_remaining"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Message is a plain acknowledgement response
type Message struct {
	Message string `json:"message"`
}

// Login calls POST /api/auth/login. The session cookie is stored in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var out User
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout calls POST /api/auth/logout
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

// Register calls POST /api/auth/register
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckSession calls POST /api/auth/check and returns the logged in user
func (c *Client) CheckSession(ctx context.Context) (*User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/check", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset calls POST /api/auth/password-reset-request
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*Message, error) {
	var out Message
	body := map[string]string{"email": email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/password-reset-request", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword calls POST /api/auth/password-reset
func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (*Message, error) {
	var out Message
	body := map[string]string{
		"token":            token,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/password-reset", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword calls POST /api/auth/change-password
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword, confirmPassword string) (*Message, error) {
	var out Message
	body := map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/change-password", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GuestInfo calls GET /api/upload/guest/info
func (c *Client) GuestInfo(ctx context.Context) (*GuestInfo, error) {
	var out GuestInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/upload/guest/info", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminStats calls GET /api/admin/stats
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers calls GET /api/admin/users
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUser calls PATCH /api/admin/users/:id
func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/users/"+idSegment(id), nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser calls DELETE /api/admin/users/:id
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/users/"+idSegment(id), nil, nil, nil)
}
