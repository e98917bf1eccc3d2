package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamados-io/chamados-ce/internal/models"
)

func TestResolvePermissions(t *testing.T) {
	matrix := DefaultMatrix()

	t.Run("global Administrador resolves to exactly admin:all", func(t *testing.T) {
		set := matrix.Resolve([]models.RoleAssignment{
			{RoleName: models.RoleAdministrador, IsGlobal: true},
		})

		assert.Len(t, set, 1)
		assert.True(t, set.IsAdmin())
	})

	t.Run("Manobrista in Operações gets the floor grant", func(t *testing.T) {
		set := matrix.Resolve([]models.RoleAssignment{
			{RoleName: models.RoleManobrista, Department: models.DepartmentOperacoes},
		})

		assert.True(t, set.Has(PermissionTicketsRead))
		assert.True(t, set.Has(PermissionTicketsCreate))
		assert.True(t, set.Has(PermissionChecklistsRead))
		assert.True(t, set.Has(PermissionChecklistsExecute))
		assert.False(t, set.IsAdmin())
		assert.False(t, set.Has(PermissionUsersRead))
	})

	t.Run("multiple assignments union their grants", func(t *testing.T) {
		set := matrix.Resolve([]models.RoleAssignment{
			{RoleName: models.RoleAnalistaJr, Department: models.DepartmentRH},
			{RoleName: models.RoleGerente, Department: models.DepartmentComercial},
		})

		// From RH
		assert.True(t, set.Has(PermissionUsersRead))
		assert.True(t, set.Has(PermissionUsersCreate))
		// From Comercial
		assert.True(t, set.Has(PermissionUnitsRead))
		assert.True(t, set.Has(PermissionTicketsRead))
		assert.True(t, set.Has(PermissionSettingsRead))
	})

	t.Run("union equals resolving separately and merging", func(t *testing.T) {
		a := models.RoleAssignment{RoleName: models.RoleTecnico, Department: models.DepartmentTI}
		b := models.RoleAssignment{RoleName: models.RoleVendedor, Department: models.DepartmentComercial}

		combined := matrix.Resolve([]models.RoleAssignment{a, b})
		merged := make(PermissionSet)
		for p := range matrix.Resolve([]models.RoleAssignment{a}) {
			merged[p] = struct{}{}
		}
		for p := range matrix.Resolve([]models.RoleAssignment{b}) {
			merged[p] = struct{}{}
		}

		assert.Equal(t, merged, combined)
	})

	t.Run("resolution is idempotent", func(t *testing.T) {
		assignments := []models.RoleAssignment{
			{RoleName: models.RoleSupervisor, Department: models.DepartmentOperacoes},
			{RoleName: models.RoleDiretor, IsGlobal: true},
		}

		assert.Equal(t, matrix.Resolve(assignments), matrix.Resolve(assignments))
	})

	t.Run("overlapping grants do not duplicate", func(t *testing.T) {
		set := matrix.Resolve([]models.RoleAssignment{
			{RoleName: models.RoleManobrista, Department: models.DepartmentOperacoes},
			{RoleName: models.RoleEncarregado, Department: models.DepartmentOperacoes},
		})

		// Both roles grant tickets:read; a set has no way to hold it twice,
		// and the total size must match the larger grant.
		assert.Len(t, set, len(DefaultMatrix().Department[models.DepartmentOperacoes][models.RoleEncarregado]))
	})

	t.Run("empty assignments yield an empty set", func(t *testing.T) {
		assert.Empty(t, matrix.Resolve(nil))
		assert.Empty(t, matrix.Resolve([]models.RoleAssignment{}))
	})

	t.Run("unmapped role contributes nothing", func(t *testing.T) {
		set := matrix.Resolve([]models.RoleAssignment{
			{RoleName: "Estagiário", Department: models.DepartmentOperacoes},
			{RoleName: models.RoleManobrista, Department: "Jurídico"},
			{RoleName: "Fantasma", IsGlobal: true},
		})

		assert.Empty(t, set)
	})

	t.Run("global and department lookups are independent", func(t *testing.T) {
		// A single assignment both flagged global and carrying a department
		// contributes from both tables.
		set := matrix.Resolve([]models.RoleAssignment{
			{RoleName: models.RoleGerente, Department: models.DepartmentRH, IsGlobal: true},
		})

		// Gerente has no global grant, so only the RH grant applies.
		assert.True(t, set.Has(PermissionUsersDelete))
		assert.False(t, set.IsAdmin())
	})
}

func TestLoadMatrixFile(t *testing.T) {
	t.Run("overlay replaces listed roles and keeps the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matrix.yaml")
		content := `
department:
  Operações:
    Manobrista:
      - "tickets:read"
  Jurídico:
    Advogado:
      - "tickets:read"
      - "reports:read"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		m, err := LoadMatrixFile(path)
		require.NoError(t, err)

		trimmed := m.Resolve([]models.RoleAssignment{
			{RoleName: models.RoleManobrista, Department: models.DepartmentOperacoes},
		})
		assert.Len(t, trimmed, 1)
		assert.True(t, trimmed.Has(PermissionTicketsRead))

		added := m.Resolve([]models.RoleAssignment{
			{RoleName: "Advogado", Department: "Jurídico"},
		})
		assert.True(t, added.Has(PermissionReportsRead))

		// Untouched roles keep their defaults.
		kept := m.Resolve([]models.RoleAssignment{
			{RoleName: models.RoleAdministrador, IsGlobal: true},
		})
		assert.True(t, kept.IsAdmin())
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadMatrixFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("global: [broken"), 0o644))

		_, err := LoadMatrixFile(path)
		assert.Error(t, err)
	})
}
