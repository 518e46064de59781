package models

import "time"

// Roles assigned by the server.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the authenticated user's public profile. It is owned by the
// session manager and never outlives the session it was fetched with.
type Identity struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// ProfileUpdate carries optional profile fields for PUT /auth/me.
// Nil fields are left unchanged by the server.
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}
