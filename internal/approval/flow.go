package approval

import (
	"errors"

	"github.com/chamados-io/chamados-ce/internal/auth"
	"github.com/chamados-io/chamados-ce/internal/models"
)

var (
	ErrInvalidLevel     = errors.New("approval level out of range")
	ErrWrongLevel       = errors.New("decision targets a level that is not currently pending")
	ErrAlreadyDecided   = errors.New("approval level already decided")
	ErrNotesRequired    = errors.New("denial requires a justification note")
	ErrNotUnderApproval = errors.New("ticket is not under approval")
)

// Level is one escalation step of the three-level sign-off, ordered 1..3.
type Level int

const (
	LevelEncarregado Level = 1
	LevelSupervisor  Level = 2
	LevelGerente     Level = 3
)

// levelDefs is the single ordered enumeration the level/role/status lookups
// derive from. Keeping one table means the directions cannot drift apart.
var levelDefs = []struct {
	level   Level
	role    string
	waiting models.TicketStatus
}{
	{LevelEncarregado, models.RoleEncarregado, models.StatusAwaitingApprovalEncarregado},
	{LevelSupervisor, models.RoleSupervisor, models.StatusAwaitingApprovalSupervisor},
	{LevelGerente, models.RoleGerente, models.StatusAwaitingApprovalGerente},
}

// Levels returns the escalation levels in order.
func Levels() []Level {
	out := make([]Level, len(levelDefs))
	for i, def := range levelDefs {
		out[i] = def.level
	}
	return out
}

// RoleFor returns the Operações role that may decide the given level.
func RoleFor(level Level) (string, bool) {
	for _, def := range levelDefs {
		if def.level == level {
			return def.role, true
		}
	}
	return "", false
}

// WaitingStatus returns the ticket status representing "waiting on this
// level's decision".
func WaitingStatus(level Level) (models.TicketStatus, bool) {
	for _, def := range levelDefs {
		if def.level == level {
			return def.waiting, true
		}
	}
	return "", false
}

// LevelForStatus is the inverse of WaitingStatus.
func LevelForStatus(status models.TicketStatus) (Level, bool) {
	for _, def := range levelDefs {
		if def.waiting == status {
			return def.level, true
		}
	}
	return 0, false
}

// EntryStatus is the ticket status set when the approval flow is initiated.
func EntryStatus() models.TicketStatus {
	return levelDefs[0].waiting
}

// StatusAfterApprove returns the ticket status that follows approving the
// given level: the next level's waiting status, or awaiting_triage once the
// final level signs off.
func StatusAfterApprove(level Level) (models.TicketStatus, error) {
	for i, def := range levelDefs {
		if def.level != level {
			continue
		}
		if i+1 < len(levelDefs) {
			return levelDefs[i+1].waiting, nil
		}
		return models.StatusAwaitingTriage, nil
	}
	return "", ErrInvalidLevel
}

// NewRecords creates the full pending escalation sequence for a ticket
// entering the approval flow. The records are persisted together; partial
// sequences never exist.
func NewRecords(ticketID int64) []models.ApprovalRecord {
	records := make([]models.ApprovalRecord, len(levelDefs))
	for i, def := range levelDefs {
		records[i] = models.ApprovalRecord{
			TicketID:     ticketID,
			Level:        int(def.level),
			RequiredRole: def.role,
			Decision:     models.ApprovalPending,
		}
	}
	return records
}

// ActiveLevel returns the level whose decision is currently awaited: the
// lowest-numbered level not yet approved. Returns false when the sequence is
// exhausted (all approved) or short-circuited by a denial.
func ActiveLevel(records []models.ApprovalRecord) (Level, bool) {
	for _, def := range levelDefs {
		for _, rec := range records {
			if Level(rec.Level) != def.level {
				continue
			}
			switch rec.Decision {
			case models.ApprovalPending:
				return def.level, true
			case models.ApprovalDenied:
				return 0, false
			}
		}
	}
	return 0, false
}

// CanDecide reports whether an actor holding the given assignments and
// resolved permissions may decide the given level. Authority is strict:
// the actor must hold exactly the level's role in Operações, or the
// admin:all override. A Gerente cannot act on a pending Encarregado level.
func CanDecide(level Level, assignments []models.RoleAssignment, perms auth.PermissionSet) bool {
	if perms.IsAdmin() {
		return true
	}
	role, ok := RoleFor(level)
	if !ok {
		return false
	}
	for _, a := range assignments {
		if a.Department == models.DepartmentOperacoes && a.RoleName == role {
			return true
		}
	}
	return false
}
