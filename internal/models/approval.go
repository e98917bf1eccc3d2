package models

import "time"

// ApprovalDecision is the state of one escalation level's sign-off.
type ApprovalDecision string

const (
	ApprovalPending  ApprovalDecision = "pending"
	ApprovalApproved ApprovalDecision = "approved"
	ApprovalDenied   ApprovalDecision = "denied"
)

// ApprovalRecord is one escalation level of a ticket under multi-level
// sign-off. A ticket in the approval flow owns exactly one record per level,
// all created together when the flow is initiated. Decisions are final: once
// a record leaves pending it never changes again.
type ApprovalRecord struct {
	ID           int64            `db:"id" json:"id"`
	TicketID     int64            `db:"ticket_id" json:"ticket_id"`
	Level        int              `db:"level" json:"level"`
	RequiredRole string           `db:"required_role" json:"required_role"`
	Decision     ApprovalDecision `db:"decision" json:"decision"`
	DecidedBy    string           `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt    *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
	Notes        string           `db:"notes" json:"notes,omitempty"`
}
