// Package policy is the access decision layer: given an actor and an
// intended action it either allows the action or returns a classified
// denial, and it produces the visibility scope that every task read and
// write must be filtered by. All functions are pure; the policy never
// touches storage.
package policy

import "task-service/internal/apperror"

// Role is the coarse permission level carried in the session token.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRole reports whether s is one of the two recognized role values.
func ValidRole(s string) bool {
	return s == string(RoleAdmin) || s == string(RoleUser)
}

// NormalizeRole maps a client-supplied role to a Role for registration.
// Anything other than the two recognized values is coerced to RoleUser.
// Role updates go through CheckRoleChange instead, which rejects unknown
// values outright; the asymmetry is part of the published contract.
func NormalizeRole(s string) Role {
	if ValidRole(s) {
		return Role(s)
	}
	return RoleUser
}

// Actor is the authenticated principal a request acts as. Role is the
// snapshot embedded in the token at issuance, not the currently stored
// role.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// TaskScope is the visibility predicate for task reads and writes.
// Exactly one field is set: admins see tasks they own, everyone else sees
// tasks assigned to them. No role sees tasks system-wide.
type TaskScope struct {
	OwnerID    string
	AssigneeID string
}

// ScopeFor derives the task visibility scope for an actor.
func ScopeFor(a Actor) TaskScope {
	if a.IsAdmin() {
		return TaskScope{OwnerID: a.ID}
	}
	return TaskScope{AssigneeID: a.ID}
}

// Task update fields, named as they appear on the wire.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "dueDate"
	FieldPriority    = "priority"
	FieldStatus      = "status"
	FieldAssignedTo  = "assignedTo"
)

// taskFieldsByRole is the declarative allowlist for partial task updates.
// Owners (admins) may touch every field; assignees may only toggle status.
var taskFieldsByRole = map[Role]map[string]bool{
	RoleAdmin: {
		FieldTitle:       true,
		FieldDescription: true,
		FieldDueDate:     true,
		FieldPriority:    true,
		FieldStatus:      true,
		FieldAssignedTo:  true,
	},
	RoleUser: {
		FieldStatus: true,
	},
}

// Denials surfaced to clients. Messages are part of the wire contract.
var (
	ErrCreateForbidden = apperror.Authorization("Only admins can create tasks")
	ErrDeleteForbidden = apperror.Authorization("Only admins can delete tasks")
	ErrFieldNotAllowed = apperror.Authorization("You are not allowed to modify these fields")
	ErrAdminOnly       = apperror.Authorization("Access denied")
	ErrSelfRoleChange  = apperror.Validation("You cannot change your own role")
	ErrSelfDelete      = apperror.Validation("You cannot delete your own account")
	ErrInvalidRole     = apperror.Validation("Invalid role")
)

// CanCreateTask gates task creation to admins.
func CanCreateTask(a Actor) error {
	if !a.IsAdmin() {
		return ErrCreateForbidden
	}
	return nil
}

// CanDeleteTask gates task deletion to admins. Which tasks the admin may
// actually delete is decided by ScopeFor, not here.
func CanDeleteTask(a Actor) error {
	if !a.IsAdmin() {
		return ErrDeleteForbidden
	}
	return nil
}

// CanManageUsers gates the user directory (listing, role changes,
// deletion) to admins.
func CanManageUsers(a Actor) error {
	if !a.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// CheckTaskUpdate rejects an update request whole if any named field is
// outside the actor's allowlist. There is no partial apply.
func CheckTaskUpdate(a Actor, fields []string) error {
	allowed := taskFieldsByRole[a.Role]
	for _, f := range fields {
		if !allowed[f] {
			return ErrFieldNotAllowed
		}
	}
	return nil
}

// CheckRoleChange enforces the self-protection rules for role updates: an
// admin cannot change their own role (lockout prevention), and the new
// role must be a recognized value.
func CheckRoleChange(a Actor, targetID, role string) error {
	if err := CanManageUsers(a); err != nil {
		return err
	}
	if targetID == a.ID {
		return ErrSelfRoleChange
	}
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	return nil
}

// CheckUserDelete enforces the self-protection rule for user deletion.
func CheckUserDelete(a Actor, targetID string) error {
	if err := CanManageUsers(a); err != nil {
		return err
	}
	if targetID == a.ID {
		return ErrSelfDelete
	}
	return nil
}
