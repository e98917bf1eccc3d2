package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chamados-io/chamados-ce/internal/approval"
	"github.com/chamados-io/chamados-ce/internal/auth"
	"github.com/chamados-io/chamados-ce/internal/models"
	"github.com/chamados-io/chamados-ce/internal/repository"
	"github.com/chamados-io/chamados-ce/internal/workflow"
)

var (
	// ErrPermissionDenied reports that the actor lacks the permission an
	// operation or transition requires. Distinct from
	// repository.ErrVersionConflict so the UI can tell "you can't" from
	// "someone beat you to it".
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidTransition reports a requested status change that is not in
	// the current status's allowed set.
	ErrInvalidTransition = errors.New("transition not allowed from current status")
)

// TicketService exposes the workflow core over a ticket repository: listing
// the moves a caller may make and applying one. Permissions are resolved
// per call from the actor's role assignments; nothing is cached here.
type TicketService struct {
	repo   repository.TicketRepository
	matrix *auth.Matrix
	engine *workflow.Engine
}

func NewTicketService(repo repository.TicketRepository, matrix *auth.Matrix, engine *workflow.Engine) *TicketService {
	return &TicketService{repo: repo, matrix: matrix, engine: engine}
}

// CreateTicket opens a ticket at the domain's triage entry point.
func (s *TicketService) CreateTicket(ctx context.Context, domain models.TicketDomain, title, actorID string, assignments []models.RoleAssignment) (*models.Ticket, error) {
	perms := s.matrix.Resolve(assignments)
	if !perms.Has(auth.PermissionTicketsCreate) {
		return nil, ErrPermissionDenied
	}

	ticket := &models.Ticket{
		ExternalID: uuid.NewString(),
		Domain:     domain,
		Status:     models.StatusAwaitingTriage,
		Title:      title,
		CreatedBy:  actorID,
	}
	if err := s.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return ticket, nil
}

// AllowedActions returns the status changes the actor may request on the
// ticket, in table order. Gated destinations the actor cannot satisfy are
// removed, matching what the UI should offer.
func (s *TicketService) AllowedActions(ctx context.Context, ticketID int64, assignments []models.RoleAssignment) ([]models.TicketStatus, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	perms := s.matrix.Resolve(assignments)
	candidates := s.engine.AllowedTransitions(ticket.Domain, ticket.Status)
	return s.engine.FilterByPermission(ticket.Domain, candidates, perms), nil
}

// RequestTransition applies a status change on behalf of the actor. The
// approval waiting statuses are reserved for the approval service; asking
// for them here is an invalid transition even though the table lists them.
// Manage standing is tickets:update for every domain.
func (s *TicketService) RequestTransition(ctx context.Context, ticketID int64, next models.TicketStatus, assignments []models.RoleAssignment) error {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	if _, reserved := approval.LevelForStatus(next); reserved {
		return ErrInvalidTransition
	}

	allowed := false
	for _, candidate := range s.engine.AllowedTransitions(ticket.Domain, ticket.Status) {
		if candidate == next {
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
	if gate, gated := s.engine.RequiredPermission(ticket.Domain, next); gated && !perms.Has(gate) {
		return ErrPermissionDenied
	}

	return s.repo.UpdateStatus(ctx, ticketID, ticket.Version, next)
}
