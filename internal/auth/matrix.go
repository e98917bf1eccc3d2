package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chamados-io/chamados-ce/internal/models"
)

// Matrix is the role-permission matrix: global role names and
// (department, role name) pairs mapped to permission grants. It is built
// once at startup and never mutated afterwards; resolution stays a pure
// read over it.
type Matrix struct {
	Global     map[string][]Permission            `yaml:"global"`
	Department map[string]map[string][]Permission `yaml:"department"`
}

// DefaultMatrix returns the built-in role-permission matrix.
func DefaultMatrix() *Matrix {
	return &Matrix{
		Global: map[string][]Permission{
			models.RoleAdministrador: {PermissionAdminAll},
			models.RoleDiretor: {
				PermissionTicketsRead, PermissionChecklistsRead,
				PermissionUsersRead, PermissionUnitsRead,
				PermissionSettingsRead,
				PermissionReportsRead, PermissionReportsExport,
			},
		},
		Department: map[string]map[string][]Permission{
			models.DepartmentOperacoes: {
				models.RoleManobrista: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionChecklistsRead, PermissionChecklistsExecute,
				},
				models.RoleEncarregado: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionTicketsUpdate, PermissionTicketsAssign,
					PermissionTicketsApprove,
					PermissionChecklistsRead, PermissionChecklistsCreate,
					PermissionChecklistsExecute,
				},
				models.RoleSupervisor: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionTicketsUpdate, PermissionTicketsAssign,
					PermissionTicketsApprove, PermissionTicketsClose,
					PermissionChecklistsRead, PermissionChecklistsCreate,
					PermissionChecklistsExecute, PermissionChecklistsUpdate,
					PermissionReportsRead,
				},
				models.RoleGerente: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionTicketsUpdate, PermissionTicketsDelete,
					PermissionTicketsAssign, PermissionTicketsApprove,
					PermissionTicketsClose,
					PermissionChecklistsRead, PermissionChecklistsCreate,
					PermissionChecklistsExecute, PermissionChecklistsUpdate,
					PermissionUsersRead, PermissionSettingsRead,
					PermissionReportsRead, PermissionReportsExport,
				},
			},
			models.DepartmentRH: {
				models.RoleAnalistaJr: {
					PermissionUsersRead, PermissionUsersCreate,
				},
				models.RoleAnalistaPleno: {
					PermissionUsersRead, PermissionUsersCreate,
					PermissionUsersUpdate, PermissionReportsRead,
				},
				models.RoleGerente: {
					PermissionUsersRead, PermissionUsersCreate,
					PermissionUsersUpdate, PermissionUsersDelete,
					PermissionTicketsRead, PermissionSettingsRead,
					PermissionReportsRead, PermissionReportsExport,
				},
			},
			models.DepartmentComercial: {
				models.RoleVendedor: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionUnitsRead,
				},
				models.RoleGerente: {
					PermissionUnitsRead, PermissionUnitsCreate,
					PermissionUnitsUpdate,
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionSettingsRead, PermissionReportsRead,
				},
			},
			models.DepartmentTI: {
				models.RoleTecnico: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionTicketsUpdate, PermissionChecklistsRead,
				},
				models.RoleCoordenador: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionTicketsUpdate, PermissionTicketsAssign,
					PermissionTicketsApprove, PermissionTicketsClose,
					PermissionChecklistsRead, PermissionReportsRead,
				},
			},
			models.DepartmentCompras: {
				models.RoleComprador: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionTicketsUpdate,
				},
				models.RoleGerente: {
					PermissionTicketsRead, PermissionTicketsCreate,
					PermissionTicketsUpdate, PermissionTicketsApprove,
					PermissionTicketsClose,
					PermissionReportsRead, PermissionReportsExport,
				},
			},
		},
	}
}

// LoadMatrixFile reads a YAML matrix from path and merges it over the
// defaults. File entries replace the default grant for the same role; roles
// absent from the file keep their built-in grants. This lets deployments
// adjust individual roles without restating the whole matrix.
func LoadMatrixFile(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix file: %w", err)
	}

	var overlay Matrix
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse matrix file %s: %w", path, err)
	}

	m := DefaultMatrix()
	for role, perms := range overlay.Global {
		m.Global[role] = perms
	}
	for dept, roles := range overlay.Department {
		if m.Department[dept] == nil {
			m.Department[dept] = make(map[string][]Permission, len(roles))
		}
		for role, perms := range roles {
			m.Department[dept][role] = perms
		}
	}
	return m, nil
}

// Resolve turns a user's role assignments into a deduplicated permission
// set. The global and department lookups are independent: an assignment
// flagged global contributes its global grant, and an assignment carrying a
// department contributes that department's grant; an assignment matching
// neither table contributes nothing. Pure, no caching, safe per request.
func (m *Matrix) Resolve(assignments []models.RoleAssignment) PermissionSet {
	set := make(PermissionSet)
	for _, a := range assignments {
		if a.IsGlobal {
			for _, p := range m.Global[a.RoleName] {
				set[p] = struct{}{}
			}
		}
		if a.Department != "" {
			for _, p := range m.Department[a.Department][a.RoleName] {
				set[p] = struct{}{}
			}
		}
	}
	return set
}
