package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamados-io/chamados-ce/internal/auth"
	"github.com/chamados-io/chamados-ce/internal/models"
)

func TestLevelEnumeration(t *testing.T) {
	t.Run("levels are strictly ordered 1 to 3", func(t *testing.T) {
		assert.Equal(t, []Level{LevelEncarregado, LevelSupervisor, LevelGerente}, Levels())
	})

	t.Run("role and status lookups are consistent both ways", func(t *testing.T) {
		for _, level := range Levels() {
			status, ok := WaitingStatus(level)
			require.True(t, ok)

			back, ok := LevelForStatus(status)
			require.True(t, ok)
			assert.Equal(t, level, back)

			_, ok = RoleFor(level)
			assert.True(t, ok)
		}
	})

	t.Run("unknown level resolves to nothing", func(t *testing.T) {
		_, ok := RoleFor(Level(4))
		assert.False(t, ok)
		_, ok = WaitingStatus(Level(0))
		assert.False(t, ok)
		_, ok = LevelForStatus(models.StatusInProgress)
		assert.False(t, ok)
	})

	t.Run("entry status is level 1 waiting", func(t *testing.T) {
		assert.Equal(t, models.StatusAwaitingApprovalEncarregado, EntryStatus())
	})
}

func TestStatusAfterApprove(t *testing.T) {
	next, err := StatusAfterApprove(LevelEncarregado)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingApprovalSupervisor, next)

	next, err = StatusAfterApprove(LevelSupervisor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingApprovalGerente, next)

	// Final sign-off releases the ticket for execution.
	next, err = StatusAfterApprove(LevelGerente)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingTriage, next)

	_, err = StatusAfterApprove(Level(7))
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestNewRecords(t *testing.T) {
	records := NewRecords(99)

	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, int64(99), rec.TicketID)
		assert.Equal(t, i+1, rec.Level)
		assert.Equal(t, models.ApprovalPending, rec.Decision)
	}
	assert.Equal(t, models.RoleEncarregado, records[0].RequiredRole)
	assert.Equal(t, models.RoleSupervisor, records[1].RequiredRole)
	assert.Equal(t, models.RoleGerente, records[2].RequiredRole)
}

func TestActiveLevel(t *testing.T) {
	t.Run("fresh sequence activates level 1", func(t *testing.T) {
		level, ok := ActiveLevel(NewRecords(1))
		require.True(t, ok)
		assert.Equal(t, LevelEncarregado, level)
	})

	t.Run("approval advances the active level", func(t *testing.T) {
		records := NewRecords(1)
		records[0].Decision = models.ApprovalApproved

		level, ok := ActiveLevel(records)
		require.True(t, ok)
		assert.Equal(t, LevelSupervisor, level)
	})

	t.Run("denial halts the sequence", func(t *testing.T) {
		records := NewRecords(1)
		records[0].Decision = models.ApprovalApproved
		records[1].Decision = models.ApprovalDenied

		_, ok := ActiveLevel(records)
		assert.False(t, ok)
		// Level 3 stays untouched.
		assert.Equal(t, models.ApprovalPending, records[2].Decision)
	})

	t.Run("fully approved sequence has no active level", func(t *testing.T) {
		records := NewRecords(1)
		for i := range records {
			records[i].Decision = models.ApprovalApproved
		}

		_, ok := ActiveLevel(records)
		assert.False(t, ok)
	})

	t.Run("at most one level is pending-active", func(t *testing.T) {
		records := NewRecords(1)
		records[0].Decision = models.ApprovalApproved

		level, ok := ActiveLevel(records)
		require.True(t, ok)
		// The active level is the lowest non-approved one even though level
		// 3 is also still pending.
		assert.Equal(t, LevelSupervisor, level)
	})
}

func TestCanDecide(t *testing.T) {
	matrix := auth.DefaultMatrix()

	encarregado := []models.RoleAssignment{
		{RoleName: models.RoleEncarregado, Department: models.DepartmentOperacoes},
	}
	gerente := []models.RoleAssignment{
		{RoleName: models.RoleGerente, Department: models.DepartmentOperacoes},
	}
	admin := []models.RoleAssignment{
		{RoleName: models.RoleAdministrador, IsGlobal: true},
	}

	t.Run("matching role decides its own level", func(t *testing.T) {
		assert.True(t, CanDecide(LevelEncarregado, encarregado, matrix.Resolve(encarregado)))
		assert.True(t, CanDecide(LevelGerente, gerente, matrix.Resolve(gerente)))
	})

	t.Run("higher role cannot skip ahead to a lower level", func(t *testing.T) {
		assert.False(t, CanDecide(LevelEncarregado, gerente, matrix.Resolve(gerente)))
		assert.False(t, CanDecide(LevelSupervisor, gerente, matrix.Resolve(gerente)))
	})

	t.Run("lower role cannot reach up", func(t *testing.T) {
		assert.False(t, CanDecide(LevelSupervisor, encarregado, matrix.Resolve(encarregado)))
		assert.False(t, CanDecide(LevelGerente, encarregado, matrix.Resolve(encarregado)))
	})

	t.Run("same role outside Operações carries no authority", func(t *testing.T) {
		rhGerente := []models.RoleAssignment{
			{RoleName: models.RoleGerente, Department: models.DepartmentRH},
		}
		assert.False(t, CanDecide(LevelGerente, rhGerente, matrix.Resolve(rhGerente)))
	})

	t.Run("admin override decides any level", func(t *testing.T) {
		perms := matrix.Resolve(admin)
		for _, level := range Levels() {
			assert.True(t, CanDecide(level, admin, perms))
		}
	})
}
