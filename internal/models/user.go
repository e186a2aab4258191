package models

import (
	"maps"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleUser      Role = "user"
)

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleRecruiter, RoleUser:
		return r, true
	}
	return "", false
}

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Image     string         `json:"image,omitempty"`
	Role      Role           `json:"role"`
	Status    UserStatus     `json:"status"`
	Profile   map[string]any `json:"profile,omitempty"` // free-form, shape depends on role
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (u User) Clone() User {
	u.Profile = maps.Clone(u.Profile)
	return u
}

type UserInput struct {
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Password string         `json:"password,omitempty"`
	Role     Role           `json:"role"`
	Status   UserStatus     `json:"status,omitempty"`
	Profile  map[string]any `json:"profile,omitempty"`
}
