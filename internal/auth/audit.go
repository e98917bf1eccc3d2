package auth

import (
	"fmt"
	"sort"

	"github.com/chamados-io/chamados-ce/internal/models"
)

// MatrixGap is one finding from the offline matrix audit. A gap is a
// configuration problem to fix before deployment, not a runtime error:
// resolution silently skips unmapped roles, so without this pass a gap
// surfaces as a user locked out of everything.
type MatrixGap struct {
	Department string // empty for global scope
	Role       string
	Reason     string
}

func (g MatrixGap) String() string {
	if g.Department == "" {
		return fmt.Sprintf("global role %q: %s", g.Role, g.Reason)
	}
	return fmt.Sprintf("role %q in %q: %s", g.Role, g.Department, g.Reason)
}

// Audit checks the matrix for empty grants and tokens outside the catalog.
// Findings are sorted for stable CLI output.
func (m *Matrix) Audit() []MatrixGap {
	catalog := NewPermissionSet(AllPermissions()...)
	var gaps []MatrixGap

	for role, perms := range m.Global {
		gaps = append(gaps, auditGrant("", role, perms, catalog)...)
	}
	for dept, roles := range m.Department {
		for role, perms := range roles {
			gaps = append(gaps, auditGrant(dept, role, perms, catalog)...)
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Department != gaps[j].Department {
			return gaps[i].Department < gaps[j].Department
		}
		if gaps[i].Role != gaps[j].Role {
			return gaps[i].Role < gaps[j].Role
		}
		return gaps[i].Reason < gaps[j].Reason
	})
	return gaps
}

func auditGrant(dept, role string, perms []Permission, catalog PermissionSet) []MatrixGap {
	var gaps []MatrixGap
	if len(perms) == 0 {
		gaps = append(gaps, MatrixGap{Department: dept, Role: role, Reason: "empty permission grant"})
	}
	seen := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		if _, ok := catalog[p]; !ok {
			gaps = append(gaps, MatrixGap{
				Department: dept, Role: role,
				Reason: fmt.Sprintf("unknown permission token %q", p),
			})
		}
		if _, dup := seen[p]; dup {
			gaps = append(gaps, MatrixGap{
				Department: dept, Role: role,
				Reason: fmt.Sprintf("duplicate permission token %q", p),
			})
		}
		seen[p] = struct{}{}
	}
	return gaps
}

// AuditAssignments reports every live role assignment that would resolve to
// zero permissions under the matrix. Feed it the distinct assignments found
// in production data to catch drift between the identity store and this
// configuration.
func (m *Matrix) AuditAssignments(assignments []models.RoleAssignment) []MatrixGap {
	var gaps []MatrixGap
	for _, a := range assignments {
		if len(m.Resolve([]models.RoleAssignment{a})) == 0 {
			gaps = append(gaps, MatrixGap{
				Department: a.Department,
				Role:       a.RoleName,
				Reason:     "assignment resolves to no permissions",
			})
		}
	}
	return gaps
}
