package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chamados-io/chamados-ce/internal/models"
	"github.com/chamados-io/chamados-ce/internal/repository"
)

// TicketRepository is the in-memory implementation of
// repository.TicketRepository, used in tests and local development. It
// honors the same at-most-one-writer contract as the SQL implementation:
// writes carrying a stale version fail with ErrVersionConflict.
type TicketRepository struct {
	mu       sync.Mutex
	nextID   int64
	tickets  map[int64]*models.Ticket
	records  map[int64][]models.ApprovalRecord
	recordID int64
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		tickets: make(map[int64]*models.Ticket),
		records: make(map[int64][]models.ApprovalRecord),
	}
}

func (r *TicketRepository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ticket.ID == 0 {
		r.nextID++
		ticket.ID = r.nextID
	} else if ticket.ID > r.nextID {
		r.nextID = ticket.ID
	}
	now := time.Now().UTC()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *TicketRepository) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (r *TicketRepository) GetApprovalRecords(ctx context.Context, ticketID int64) ([]models.ApprovalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.records[ticketID]
	out := make([]models.ApprovalRecord, len(records))
	copy(out, records)
	return out, nil
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, ticketID int64, expectedVersion int, next models.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, err := r.lockedTicket(ticketID, expectedVersion)
	if err != nil {
		return err
	}
	ticket.Status = next
	ticket.Version++
	ticket.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *TicketRepository) InitiateApproval(ctx context.Context, ticketID int64, expectedVersion int, records []models.ApprovalRecord, status models.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records[ticketID]) > 0 {
		return repository.ErrApprovalExists
	}
	ticket, err := r.lockedTicket(ticketID, expectedVersion)
	if err != nil {
		return err
	}

	stored := make([]models.ApprovalRecord, len(records))
	copy(stored, records)
	for i := range stored {
		r.recordID++
		stored[i].ID = r.recordID
		stored[i].TicketID = ticketID
	}
	r.records[ticketID] = stored

	ticket.Status = status
	ticket.Version++
	ticket.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *TicketRepository) ApplyDecision(ctx context.Context, ticketID int64, expectedVersion int, decision repository.Decision, status models.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, err := r.lockedTicket(ticketID, expectedVersion)
	if err != nil {
		return err
	}

	records := r.records[ticketID]
	for i := range records {
		if records[i].Level != decision.Level {
			continue
		}
		if records[i].Decision != models.ApprovalPending {
			return repository.ErrVersionConflict
		}
		decidedAt := decision.DecidedAt
		records[i].Decision = decision.Decision
		records[i].DecidedBy = decision.DecidedBy
		records[i].DecidedAt = &decidedAt
		records[i].Notes = decision.Notes

		ticket.Status = status
		ticket.Version++
		ticket.UpdatedAt = time.Now().UTC()
		return nil
	}
	return repository.ErrVersionConflict
}

func (r *TicketRepository) lockedTicket(ticketID int64, expectedVersion int) (*models.Ticket, error) {
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	if ticket.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	return ticket, nil
}
