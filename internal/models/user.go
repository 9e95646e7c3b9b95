package models

import "time"

// Role is a participant's role in the program
type Role string

const (
	RoleLeader  Role = "leader"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleLeader || r == RoleStudent
}

// User represents a program participant. Leaders hold admin privileges.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	IsLeader     bool      `json:"is_leader"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanLogin reports whether the user has a password set
func (u *User) CanLogin() bool {
	return u.PasswordHash != ""
}

// UserWithPoints combines a user with their derived point totals
type UserWithPoints struct {
	User
	Points PointsSummary `json:"points"`
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
