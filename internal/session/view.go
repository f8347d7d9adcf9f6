package session

import (
	"fmt"
	"strings"
)

// View is a top-level screen of the dashboard.
type View string

const (
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
	ViewMonitor   View = "monitor"
)

// ParseView resolves a view name, ignoring case.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewLogin, ViewDashboard, ViewMonitor:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Role is the kind of user signing in. It does not change what the
// dashboard shows.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole resolves a role name, ignoring case.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
