package repository

import (
	"context"
	"errors"
	"time"

	"github.com/chamados-io/chamados-ce/internal/models"
)

var (
	// ErrTicketNotFound reports an unknown ticket id.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrVersionConflict reports that a concurrent writer moved the ticket
	// between the caller's read and write. Callers surface this distinctly
	// from an authorization failure so the UI prompts a refresh instead of
	// claiming missing permissions.
	ErrVersionConflict = errors.New("ticket was modified concurrently")

	// ErrApprovalExists reports an initiation attempt on a ticket that
	// already owns an approval sequence.
	ErrApprovalExists = errors.New("ticket already has approval records")
)

// Decision carries one finalized approval outcome to the repository.
type Decision struct {
	Level     int
	Decision  models.ApprovalDecision
	DecidedBy string
	DecidedAt time.Time
	Notes     string
}

// TicketRepository is the narrow persistence contract the workflow core
// depends on. Every write carries the version the caller read; an
// implementation must guarantee at-most-one-writer per ticket by rejecting
// stale versions with ErrVersionConflict.
type TicketRepository interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicket(ctx context.Context, id int64) (*models.Ticket, error)
	GetApprovalRecords(ctx context.Context, ticketID int64) ([]models.ApprovalRecord, error)

	// UpdateStatus applies a plain status change.
	UpdateStatus(ctx context.Context, ticketID int64, expectedVersion int, next models.TicketStatus) error

	// InitiateApproval writes the full pending record sequence and the
	// entry status in one atomic step.
	InitiateApproval(ctx context.Context, ticketID int64, expectedVersion int, records []models.ApprovalRecord, status models.TicketStatus) error

	// ApplyDecision finalizes one pending level and moves the ticket status
	// in one atomic step. The decision for a level is unique: a second
	// writer racing on the same level receives ErrVersionConflict.
	ApplyDecision(ctx context.Context, ticketID int64, expectedVersion int, decision Decision, status models.TicketStatus) error
}
