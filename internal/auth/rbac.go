package auth

// Permission is a capability token gating one action on one resource.
// Tokens are namespaced resource:action, except the universal override
// PermissionAdminAll which satisfies every check.
type Permission string

const (
	// Ticket permissions
	PermissionTicketsRead    Permission = "tickets:read"
	PermissionTicketsCreate  Permission = "tickets:create"
	PermissionTicketsUpdate  Permission = "tickets:update"
	PermissionTicketsDelete  Permission = "tickets:delete"
	PermissionTicketsAssign  Permission = "tickets:assign"
	PermissionTicketsApprove Permission = "tickets:approve"
	PermissionTicketsClose   Permission = "tickets:close"

	// Checklist permissions
	PermissionChecklistsRead    Permission = "checklists:read"
	PermissionChecklistsCreate  Permission = "checklists:create"
	PermissionChecklistsExecute Permission = "checklists:execute"
	PermissionChecklistsUpdate  Permission = "checklists:update"

	// User management permissions
	PermissionUsersRead   Permission = "users:read"
	PermissionUsersCreate Permission = "users:create"
	PermissionUsersUpdate Permission = "users:update"
	PermissionUsersDelete Permission = "users:delete"

	// Unit permissions
	PermissionUnitsRead   Permission = "units:read"
	PermissionUnitsCreate Permission = "units:create"
	PermissionUnitsUpdate Permission = "units:update"

	// Settings permissions
	PermissionSettingsRead   Permission = "settings:read"
	PermissionSettingsUpdate Permission = "settings:update"

	// Report permissions
	PermissionReportsRead   Permission = "reports:read"
	PermissionReportsExport Permission = "reports:export"

	// Universal override
	PermissionAdminAll Permission = "admin:all"
)

// AllPermissions lists every token in the catalog. Used by the offline
// matrix audit and by admin tooling; keep in sync with the constants above.
func AllPermissions() []Permission {
	return []Permission{
		PermissionTicketsRead, PermissionTicketsCreate, PermissionTicketsUpdate,
		PermissionTicketsDelete, PermissionTicketsAssign, PermissionTicketsApprove,
		PermissionTicketsClose,
		PermissionChecklistsRead, PermissionChecklistsCreate,
		PermissionChecklistsExecute, PermissionChecklistsUpdate,
		PermissionUsersRead, PermissionUsersCreate, PermissionUsersUpdate,
		PermissionUsersDelete,
		PermissionUnitsRead, PermissionUnitsCreate, PermissionUnitsUpdate,
		PermissionSettingsRead, PermissionSettingsUpdate,
		PermissionReportsRead, PermissionReportsExport,
		PermissionAdminAll,
	}
}

// PermissionSet is a deduplicated set of permissions resolved from a user's
// role assignments. The zero value (nil map) is a valid empty set.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given tokens.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the set satisfies p. The admin:all override is checked
// here and nowhere else; every other predicate in this package goes through
// Has so the override cannot be forgotten.
func (s PermissionSet) Has(p Permission) bool {
	if _, ok := s[PermissionAdminAll]; ok {
		return true
	}
	_, ok := s[p]
	return ok
}

// HasAny reports whether the set satisfies at least one of the given
// permissions. An empty list is never satisfied.
func (s PermissionSet) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether the set satisfies every one of the given
// permissions. An empty list is vacuously satisfied.
func (s PermissionSet) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// IsAdmin reports whether the set carries the admin:all override itself.
func (s PermissionSet) IsAdmin() bool {
	_, ok := s[PermissionAdminAll]
	return ok
}

// List returns the set's tokens in unspecified order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return out
}
