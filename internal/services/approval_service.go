package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chamados-io/chamados-ce/internal/approval"
	"github.com/chamados-io/chamados-ce/internal/auth"
	"github.com/chamados-io/chamados-ce/internal/models"
	"github.com/chamados-io/chamados-ce/internal/repository"
	"github.com/chamados-io/chamados-ce/internal/workflow"
)

// ErrInvalidDecision reports a decision value other than approved/denied.
var ErrInvalidDecision = errors.New("decision must be approved or denied")

// ApprovalService runs the three-level escalation on top of the ticket
// repository. All rule checks happen here against the loaded state; the
// repository's version check is the backstop that keeps a racing second
// decision out.
type ApprovalService struct {
	repo   repository.TicketRepository
	matrix *auth.Matrix
	engine *workflow.Engine
}

func NewApprovalService(repo repository.TicketRepository, matrix *auth.Matrix, engine *workflow.Engine) *ApprovalService {
	return &ApprovalService{repo: repo, matrix: matrix, engine: engine}
}

// Initiate puts the ticket under the three-level sign-off: all three
// pending records are created together and the status moves to the level-1
// waiting status. The ticket's current status must allow entering the
// approval chain in its domain table.
func (s *ApprovalService) Initiate(ctx context.Context, ticketID int64, assignments []models.RoleAssignment) error {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	entry := approval.EntryStatus()
	allowed := false
	for _, candidate := range s.engine.AllowedTransitions(ticket.Domain, ticket.Status) {
		if candidate == entry {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	perms := s.matrix.Resolve(assignments)
	if !perms.Has(auth.PermissionTicketsUpdate) {
		return ErrPermissionDenied
	}

	return s.repo.InitiateApproval(ctx, ticketID, ticket.Version,
		approval.NewRecords(ticketID), entry)
}

// Decide finalizes the given level with an approval or a denial. Rules, in
// order: the decision value must be valid, a denial must carry a
// justification, the ticket must be waiting on exactly the given level, and
// the actor must hold the level's role in Operações or the admin override.
// Decisions are final; correcting one is an administrative action outside
// this service.
func (s *ApprovalService) Decide(ctx context.Context, ticketID int64, level approval.Level, decision models.ApprovalDecision, notes, actorID string, assignments []models.RoleAssignment) error {
	if decision != models.ApprovalApproved && decision != models.ApprovalDenied {
		return ErrInvalidDecision
	}
	if decision == models.ApprovalDenied && strings.TrimSpace(notes) == "" {
		return approval.ErrNotesRequired
	}
	if _, ok := approval.RoleFor(level); !ok {
		return approval.ErrInvalidLevel
	}

	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	records, err := s.repo.GetApprovalRecords(ctx, ticketID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return approval.ErrNotUnderApproval
	}

	statusLevel, waiting := approval.LevelForStatus(ticket.Status)
	if !waiting {
		return approval.ErrNotUnderApproval
	}
	active, ok := approval.ActiveLevel(records)
	if !ok {
		return approval.ErrAlreadyDecided
	}
	if level != active || level != statusLevel {
		for _, rec := range records {
			if approval.Level(rec.Level) == level && rec.Decision != models.ApprovalPending {
				return approval.ErrAlreadyDecided
			}
		}
		return approval.ErrWrongLevel
	}

	perms := s.matrix.Resolve(assignments)
	if !approval.CanDecide(level, assignments, perms) {
		return ErrPermissionDenied
	}

	next := models.StatusDenied
	if decision == models.ApprovalApproved {
		next, err = approval.StatusAfterApprove(level)
		if err != nil {
			return err
		}
	}

	return s.repo.ApplyDecision(ctx, ticketID, ticket.Version, repository.Decision{
		Level:     int(level),
		Decision:  decision,
		DecidedBy: actorID,
		DecidedAt: time.Now().UTC(),
		Notes:     notes,
	}, next)
}

// Status reports the ticket's approval sequence as stored, in level order.
func (s *ApprovalService) Status(ctx context.Context, ticketID int64) ([]models.ApprovalRecord, error) {
	if _, err := s.repo.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.repo.GetApprovalRecords(ctx, ticketID)
}
