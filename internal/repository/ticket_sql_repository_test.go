package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamados-io/chamados-ce/internal/approval"
	"github.com/chamados-io/chamados-ce/internal/database"
	"github.com/chamados-io/chamados-ce/internal/models"
)

// getTestDB connects to the database named by CHAMADOS_TEST_DSN. The SQL
// repository tests are skipped when no test database is configured; the
// same contract is covered against the in-memory implementation in
// repository/memory.
func getTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("CHAMADOS_TEST_DSN")
	if dsn == "" {
		t.Skip("CHAMADOS_TEST_DSN not set; skipping SQL repository tests")
	}
	driver := os.Getenv("CHAMADOS_TEST_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	db, err := database.Connect(driver, dsn, 5, 2, time.Minute)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(db))

	t.Cleanup(func() {
		db.Exec("DELETE FROM ticket_approval")
		db.Exec("DELETE FROM ticket")
		db.Close()
	})
	return db
}

func seedSQLTicket(t *testing.T, repo *SQLTicketRepository, status models.TicketStatus) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		ExternalID: "SQL-" + time.Now().Format("150405.000000"),
		Domain:     models.DomainPurchasing,
		Status:     status,
		Title:      "Pedido de compra",
		CreatedBy:  "u-1",
	}
	require.NoError(t, repo.CreateTicket(context.Background(), ticket))
	return ticket
}

func TestSQLTicketRepository(t *testing.T) {
	db := getTestDB(t)
	repo := NewSQLTicketRepository(db)
	ctx := context.Background()

	t.Run("create and load round trip", func(t *testing.T) {
		ticket := seedSQLTicket(t, repo, models.StatusAwaitingApproval)

		loaded, err := repo.GetTicket(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.ExternalID, loaded.ExternalID)
		assert.Equal(t, 1, loaded.Version)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		_, err := repo.GetTicket(ctx, 999999)
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})

	t.Run("stale status write conflicts", func(t *testing.T) {
		ticket := seedSQLTicket(t, repo, models.StatusQuoting)

		require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, 1, models.StatusApproved))
		err := repo.UpdateStatus(ctx, ticket.ID, 1, models.StatusDenied)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("approval sequence lifecycle", func(t *testing.T) {
		ticket := seedSQLTicket(t, repo, models.StatusAwaitingApproval)

		require.NoError(t, repo.InitiateApproval(ctx, ticket.ID, 1,
			approval.NewRecords(ticket.ID), approval.EntryStatus()))

		records, err := repo.GetApprovalRecords(ctx, ticket.ID)
		require.NoError(t, err)
		require.Len(t, records, 3)

		err = repo.ApplyDecision(ctx, ticket.ID, 2, Decision{
			Level:     1,
			Decision:  models.ApprovalApproved,
			DecidedBy: "u-enc",
			DecidedAt: time.Now().UTC(),
		}, models.StatusAwaitingApprovalSupervisor)
		require.NoError(t, err)

		// Replaying the same decision with the stale version conflicts.
		err = repo.ApplyDecision(ctx, ticket.ID, 2, Decision{
			Level:     1,
			Decision:  models.ApprovalDenied,
			DecidedBy: "u-other",
			DecidedAt: time.Now().UTC(),
			Notes:     "não",
		}, models.StatusDenied)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("double initiation", func(t *testing.T) {
		ticket := seedSQLTicket(t, repo, models.StatusAwaitingApproval)

		require.NoError(t, repo.InitiateApproval(ctx, ticket.ID, 1,
			approval.NewRecords(ticket.ID), approval.EntryStatus()))
		err := repo.InitiateApproval(ctx, ticket.ID, 2,
			approval.NewRecords(ticket.ID), approval.EntryStatus())
		assert.ErrorIs(t, err, ErrApprovalExists)
	})
}
