package models

import "time"

// TicketDomain selects which department workflow a ticket follows. Each
// domain has its own status vocabulary and transition table.
type TicketDomain string

const (
	DomainPurchasing  TicketDomain = "purchasing"
	DomainIT          TicketDomain = "it"
	DomainHR          TicketDomain = "hr"
	DomainMaintenance TicketDomain = "maintenance"
)

// TicketStatus is the current lifecycle stage of a ticket within its domain.
type TicketStatus string

const (
	StatusAwaitingTriage TicketStatus = "awaiting_triage"
	StatusInProgress     TicketStatus = "in_progress"
	StatusQuoting        TicketStatus = "quoting"
	StatusAwaitingParts  TicketStatus = "awaiting_parts"
	StatusScheduled      TicketStatus = "scheduled"
	StatusInReview       TicketStatus = "in_review"
	StatusResolved       TicketStatus = "resolved"
	StatusApproved       TicketStatus = "approved"
	StatusDenied         TicketStatus = "denied"
	StatusClosed         TicketStatus = "closed"
	StatusCancelled      TicketStatus = "cancelled"

	// Waiting statuses for the three-level approval escalation.
	StatusAwaitingApproval            TicketStatus = "awaiting_approval"
	StatusAwaitingApprovalEncarregado TicketStatus = "awaiting_approval_encarregado"
	StatusAwaitingApprovalSupervisor  TicketStatus = "awaiting_approval_supervisor"
	StatusAwaitingApprovalGerente     TicketStatus = "awaiting_approval_gerente"
)

// Ticket is the slice of the persisted ticket the workflow core operates on.
// Version implements the optimistic at-most-one-writer check: every status
// or approval write carries the version it read, and the repository rejects
// the write when the row has moved on.
type Ticket struct {
	ID         int64        `db:"id" json:"id"`
	ExternalID string       `db:"external_id" json:"external_id"`
	Domain     TicketDomain `db:"domain" json:"domain"`
	Status     TicketStatus `db:"status" json:"status"`
	Title      string       `db:"title" json:"title"`
	CreatedBy  string       `db:"created_by" json:"created_by"`
	Version    int          `db:"version" json:"version"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}
