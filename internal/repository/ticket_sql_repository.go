package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chamados-io/chamados-ce/internal/models"
)

// SQLTicketRepository persists tickets and approval records through sqlx.
// Optimistic locking: every write bumps ticket.version and matches the
// version the caller read; zero rows affected with a live row means a
// concurrent writer won the race.
type SQLTicketRepository struct {
	db *sqlx.DB
}

func NewSQLTicketRepository(db *sqlx.DB) *SQLTicketRepository {
	return &SQLTicketRepository{db: db}
}

func (r *SQLTicketRepository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	now := time.Now().UTC()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create ticket: %w", err)
	}
	defer tx.Rollback()

	if ticket.ID == 0 {
		if err := tx.GetContext(ctx, &ticket.ID,
			tx.Rebind(`SELECT COALESCE(MAX(id), 0) + 1 FROM ticket`)); err != nil {
			return fmt.Errorf("allocate ticket id: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO ticket (id, external_id, domain, status, title, created_by, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		ticket.ID, ticket.ExternalID, ticket.Domain, ticket.Status,
		ticket.Title, ticket.CreatedBy, ticket.Version, ticket.CreatedAt, ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return tx.Commit()
}

func (r *SQLTicketRepository) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.GetContext(ctx, &ticket,
		r.db.Rebind(`SELECT * FROM ticket WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return &ticket, nil
}

func (r *SQLTicketRepository) GetApprovalRecords(ctx context.Context, ticketID int64) ([]models.ApprovalRecord, error) {
	var records []models.ApprovalRecord
	err := r.db.SelectContext(ctx, &records,
		r.db.Rebind(`SELECT * FROM ticket_approval WHERE ticket_id = ? ORDER BY level`), ticketID)
	if err != nil {
		return nil, fmt.Errorf("get approval records for ticket %d: %w", ticketID, err)
	}
	return records, nil
}

func (r *SQLTicketRepository) UpdateStatus(ctx context.Context, ticketID int64, expectedVersion int, next models.TicketStatus) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE ticket SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`),
		next, time.Now().UTC(), ticketID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update ticket %d status: %w", ticketID, err)
	}
	return r.checkWrite(ctx, result, ticketID)
}

func (r *SQLTicketRepository) InitiateApproval(ctx context.Context, ticketID int64, expectedVersion int, records []models.ApprovalRecord, status models.TicketStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin initiate approval: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.GetContext(ctx, &existing,
		tx.Rebind(`SELECT COUNT(*) FROM ticket_approval WHERE ticket_id = ?`), ticketID); err != nil {
		return fmt.Errorf("check existing approval records: %w", err)
	}
	if existing > 0 {
		return ErrApprovalExists
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE ticket SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`),
		status, time.Now().UTC(), ticketID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update ticket %d for approval: %w", ticketID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return r.conflictOrMissing(ctx, ticketID)
	}

	var nextID int64
	if err := tx.GetContext(ctx, &nextID,
		tx.Rebind(`SELECT COALESCE(MAX(id), 0) + 1 FROM ticket_approval`)); err != nil {
		return fmt.Errorf("allocate approval record id: %w", err)
	}
	for i, rec := range records {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO ticket_approval (id, ticket_id, level, required_role, decision, decided_by, notes)
			VALUES (?, ?, ?, ?, ?, '', '')`),
			nextID+int64(i), ticketID, rec.Level, rec.RequiredRole, rec.Decision)
		if err != nil {
			return fmt.Errorf("insert approval record level %d: %w", rec.Level, err)
		}
	}
	return tx.Commit()
}

func (r *SQLTicketRepository) ApplyDecision(ctx context.Context, ticketID int64, expectedVersion int, decision Decision, status models.TicketStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply decision: %w", err)
	}
	defer tx.Rollback()

	// The version match on the ticket row is the single writer gate; the
	// decision = 'pending' guard keeps a finalized level final even if a
	// caller bypasses the service checks.
	result, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE ticket SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`),
		status, time.Now().UTC(), ticketID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update ticket %d status: %w", ticketID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return r.conflictOrMissing(ctx, ticketID)
	}

	result, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE ticket_approval
		SET decision = ?, decided_by = ?, decided_at = ?, notes = ?
		WHERE ticket_id = ? AND level = ? AND decision = 'pending'`),
		decision.Decision, decision.DecidedBy, decision.DecidedAt, decision.Notes,
		ticketID, decision.Level)
	if err != nil {
		return fmt.Errorf("finalize approval level %d: %w", decision.Level, err)
	}
	affected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return tx.Commit()
}

func (r *SQLTicketRepository) checkWrite(ctx context.Context, result sql.Result, ticketID int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return r.conflictOrMissing(ctx, ticketID)
	}
	return nil
}

func (r *SQLTicketRepository) conflictOrMissing(ctx context.Context, ticketID int64) error {
	var one int
	err := r.db.GetContext(ctx, &one,
		r.db.Rebind(`SELECT 1 FROM ticket WHERE id = ?`), ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTicketNotFound
	}
	if err != nil {
		return fmt.Errorf("check ticket %d: %w", ticketID, err)
	}
	return ErrVersionConflict
}
