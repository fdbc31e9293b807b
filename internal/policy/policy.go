// Package policy holds the pure access-control predicates for user
// management. Project and task mutation is intentionally open to any
// authenticated caller while user management is role-gated; that
// asymmetry is inherited behavior, kept as-is.
package policy

import "taskboard/internal/models"

func IsAdmin(id models.Identity) bool {
	return id.Role == models.RoleAdmin
}

func IsManager(id models.Identity) bool {
	return id.Role == models.RoleManager
}

// CanListAllUsers: admins and managers see everyone, developers see
// only themselves.
func CanListAllUsers(id models.Identity) bool {
	return IsAdmin(id) || IsManager(id)
}

func CanViewUser(id models.Identity, targetID int) bool {
	return IsAdmin(id) || IsManager(id) || id.ID == targetID
}

func CanCreateUser(id models.Identity) bool {
	return IsAdmin(id)
}

func CanDeleteUser(id models.Identity) bool {
	return IsAdmin(id)
}

// CanUpdateUser reports whether the caller may touch the target at all.
// Field-level rules (the role field is silently dropped for non-admins)
// are applied by the user handler.
func CanUpdateUser(id models.Identity, targetID int) bool {
	return IsAdmin(id) || id.ID == targetID
}

// CanAssignRole: only admins may set a role, and only to a known value.
func CanAssignRole(id models.Identity) bool {
	return IsAdmin(id)
}
