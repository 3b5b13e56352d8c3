package models

import (
	"strings"
	"time"
)

// DefaultRole is granted to every newly registered account.
const DefaultRole = "USER"

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DefaultRoles returns a fresh slice holding only DefaultRole.
func DefaultRoles() []string {
	return []string{DefaultRole}
}

// JoinRoles encodes roles in their stored comma-delimited form.
// An empty list is stored as DefaultRole.
func JoinRoles(roles []string) string {
	clean := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		return DefaultRole
	}
	return strings.Join(clean, ",")
}

// SplitRoles decodes the stored form. It never returns an empty list.
func SplitRoles(stored string) []string {
	var roles []string
	for _, r := range strings.Split(stored, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return DefaultRoles()
	}
	return roles
}
