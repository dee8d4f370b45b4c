// Package policy holds the pure access decisions for every resource kind.
// Handlers consult these before touching the store; a false answer becomes
// 401 or 403 depending on whether the caller was authenticated at all.
package policy

import (
	"github.com/artrate/artrate/internal/models"
	"github.com/google/uuid"
)

// CanWriteCatalog decides create/update/delete on categories, genres and
// titles. Reads are open to everyone, including anonymous callers, and are
// never routed through here.
func CanWriteCatalog(role models.Role) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator, models.RoleUser:
		return false
	}
	return false
}

// CanModerateContent decides edit/delete of a specific review or comment.
// Moderators and admins override the authorship check; a regular user may
// only touch their own content.
func CanModerateContent(role models.Role, identityID, authorID uuid.UUID) bool {
	switch role {
	case models.RoleAdmin, models.RoleModerator:
		return true
	case models.RoleUser:
		return identityID == authorID
	}
	return false
}

// CanAdministerUsers decides list/create/update/delete of arbitrary user
// records. Self-service via /users/me is handled separately and does not
// go through this check.
func CanAdministerUsers(role models.Role) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator, models.RoleUser:
		return false
	}
	return false
}
