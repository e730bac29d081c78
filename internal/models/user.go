package models

import "time"

type Role string

const (
	RoleClient    Role = "client"
	RoleTherapist Role = "therapist"
	RoleOperator  Role = "operator"
)

// Audience maps a role to the notification audience it reads from.
func (r Role) Audience() Audience {
	switch r {
	case RoleTherapist:
		return AudienceTherapist
	case RoleOperator:
		return AudienceOperator
	default:
		return AudienceClient
	}
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName falls back to the email when no name is on file.
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}
