package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Organization roles, ordered roughly by privilege. Every authenticated user
// carries at least one of these in their token.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTherapist  = "therapist"
	RoleAssistant  = "assistant"
)

// Permissions gate individual API surfaces.
const (
	PermClientsRead   = "clients:read"
	PermClientsWrite  = "clients:write"
	PermSessionsRead  = "sessions:read"
	PermSessionsWrite = "sessions:write"
	PermOrgManage     = "org:manage"
	PermBillingManage = "billing:manage"
	PermReportsView   = "reports:view"
	PermTeamView      = "team:view"
)

// rolePermissions is the static role -> permission lookup table. Assistants
// can read and schedule but never write clinical session notes.
var rolePermissions = map[string][]string{
	RoleOwner: {
		PermClientsRead, PermClientsWrite, PermSessionsRead, PermSessionsWrite,
		PermOrgManage, PermBillingManage, PermReportsView, PermTeamView,
	},
	RoleAdmin: {
		PermClientsRead, PermClientsWrite, PermSessionsRead, PermSessionsWrite,
		PermOrgManage, PermReportsView, PermTeamView,
	},
	RoleSupervisor: {
		PermClientsRead, PermClientsWrite, PermSessionsRead, PermSessionsWrite,
		PermReportsView, PermTeamView,
	},
	RoleTherapist: {
		PermClientsRead, PermClientsWrite, PermSessionsRead, PermSessionsWrite,
		PermReportsView,
	},
	RoleAssistant: {
		PermClientsRead, PermSessionsRead,
	},
}

// ValidRole reports whether the role name is one the system knows about.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission reports whether any of the given roles grants the permission.
func HasPermission(roles []string, permission string) bool {
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if p == permission {
				return true
			}
		}
	}
	return false
}

// PermissionsForRole returns the permission set for a single role. Unknown
// roles have no permissions.
func PermissionsForRole(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles. Owners pass every role check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == RoleOwner {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequirePermission returns middleware that checks the static role-permission
// table for the given permission.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			if HasPermission(userRoles, permission) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required permission: %s", permission))
		}
	}
}
