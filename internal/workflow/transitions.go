package workflow

import (
	"github.com/chamados-io/chamados-ce/internal/auth"
	"github.com/chamados-io/chamados-ce/internal/models"
)

// TransitionTable is one domain's status graph: for each current status the
// ordered list of statuses reachable next, and for each reachable status an
// optional permission gate. A status mapped to an empty (or absent) next
// list is terminal. Gates are keyed by the destination status; a destination
// with no gate entry needs no permission beyond generic manage access, which
// the caller checks separately.
type TransitionTable struct {
	Next map[models.TicketStatus][]models.TicketStatus
	Gate map[models.TicketStatus]auth.Permission
}

// Tables returns the built-in transition tables, one per ticket domain.
// Each domain's table is authoritative on its own: the variations between
// them (HR's unreachable cancelled from review onward, purchasing's denied
// looping back to triage) are carried as-is rather than unified, and the
// Audit pass reports them for the business owner to confirm.
func Tables() map[models.TicketDomain]*TransitionTable {
	return map[models.TicketDomain]*TransitionTable{
		models.DomainPurchasing: {
			Next: map[models.TicketStatus][]models.TicketStatus{
				models.StatusAwaitingTriage: {models.StatusQuoting, models.StatusCancelled},
				models.StatusQuoting: {
					models.StatusAwaitingApproval,
					models.StatusApproved,
					models.StatusDenied,
				},
				models.StatusAwaitingApproval:            {models.StatusAwaitingApprovalEncarregado, models.StatusCancelled},
				models.StatusAwaitingApprovalEncarregado: {models.StatusAwaitingApprovalSupervisor, models.StatusDenied},
				models.StatusAwaitingApprovalSupervisor:  {models.StatusAwaitingApprovalGerente, models.StatusDenied},
				models.StatusAwaitingApprovalGerente:     {models.StatusAwaitingTriage, models.StatusDenied},
				models.StatusApproved:                    {models.StatusInProgress, models.StatusCancelled},
				models.StatusInProgress:                  {models.StatusClosed, models.StatusCancelled},
				// denied is not terminal here: the requester may fix the
				// request and resubmit for triage.
				models.StatusDenied:    {models.StatusAwaitingTriage},
				models.StatusClosed:    {},
				models.StatusCancelled: {},
			},
			Gate: map[models.TicketStatus]auth.Permission{
				models.StatusApproved:                    auth.PermissionTicketsApprove,
				models.StatusDenied:                      auth.PermissionTicketsApprove,
				models.StatusAwaitingApprovalEncarregado: auth.PermissionTicketsApprove,
				models.StatusAwaitingApprovalSupervisor:  auth.PermissionTicketsApprove,
				models.StatusAwaitingApprovalGerente:     auth.PermissionTicketsApprove,
				models.StatusClosed:                      auth.PermissionTicketsClose,
				models.StatusCancelled:                   auth.PermissionTicketsUpdate,
			},
		},
		models.DomainIT: {
			Next: map[models.TicketStatus][]models.TicketStatus{
				models.StatusAwaitingTriage: {models.StatusInProgress, models.StatusScheduled, models.StatusCancelled},
				models.StatusScheduled:      {models.StatusInProgress, models.StatusCancelled},
				models.StatusInProgress:     {models.StatusAwaitingParts, models.StatusResolved, models.StatusCancelled},
				models.StatusAwaitingParts:  {models.StatusInProgress, models.StatusCancelled},
				models.StatusResolved:       {models.StatusClosed, models.StatusInProgress},
				models.StatusClosed:         {},
				models.StatusCancelled:      {},
			},
			Gate: map[models.TicketStatus]auth.Permission{
				models.StatusClosed:    auth.PermissionTicketsClose,
				models.StatusCancelled: auth.PermissionTicketsUpdate,
			},
		},
		models.DomainHR: {
			Next: map[models.TicketStatus][]models.TicketStatus{
				models.StatusAwaitingTriage: {models.StatusInProgress, models.StatusCancelled},
				models.StatusInProgress:     {models.StatusInReview, models.StatusCancelled},
				models.StatusInReview:       {models.StatusResolved, models.StatusInProgress},
				models.StatusResolved:       {models.StatusClosed},
				models.StatusClosed:         {},
				models.StatusCancelled:      {},
			},
			Gate: map[models.TicketStatus]auth.Permission{
				models.StatusClosed: auth.PermissionTicketsClose,
			},
		},
		models.DomainMaintenance: {
			Next: map[models.TicketStatus][]models.TicketStatus{
				models.StatusAwaitingTriage: {models.StatusScheduled, models.StatusInProgress, models.StatusCancelled},
				models.StatusScheduled:      {models.StatusInProgress, models.StatusCancelled},
				models.StatusInProgress:     {models.StatusAwaitingParts, models.StatusResolved},
				models.StatusAwaitingParts:  {models.StatusInProgress},
				models.StatusResolved:       {models.StatusClosed},
				models.StatusClosed:         {},
				models.StatusCancelled:      {},
			},
			Gate: map[models.TicketStatus]auth.Permission{
				models.StatusClosed:    auth.PermissionTicketsClose,
				models.StatusCancelled: auth.PermissionTicketsUpdate,
			},
		},
	}
}

// Engine answers transition questions over a fixed set of tables. Build one
// at startup and share it; it is read-only after construction.
type Engine struct {
	tables map[models.TicketDomain]*TransitionTable
}

func NewEngine(tables map[models.TicketDomain]*TransitionTable) *Engine {
	return &Engine{tables: tables}
}

// NewDefaultEngine builds an engine over the built-in tables.
func NewDefaultEngine() *Engine {
	return NewEngine(Tables())
}

// AllowedTransitions returns the ordered statuses reachable from current in
// the given domain. Unknown domains and unrecognized statuses return an
// empty list: a status the table does not know offers no actions, same as a
// terminal one.
func (e *Engine) AllowedTransitions(domain models.TicketDomain, current models.TicketStatus) []models.TicketStatus {
	table, ok := e.tables[domain]
	if !ok {
		return nil
	}
	next := table.Next[current]
	out := make([]models.TicketStatus, len(next))
	copy(out, next)
	return out
}

// RequiredPermission returns the gate on moving to next within the domain,
// or false when the move is ungated.
func (e *Engine) RequiredPermission(domain models.TicketDomain, next models.TicketStatus) (auth.Permission, bool) {
	table, ok := e.tables[domain]
	if !ok {
		return "", false
	}
	perm, ok := table.Gate[next]
	return perm, ok
}

// FilterByPermission drops every candidate whose gate the given permission
// set does not satisfy, preserving order. Ungated candidates always pass;
// the caller still owes the generic manage-access check for the domain.
func (e *Engine) FilterByPermission(domain models.TicketDomain, candidates []models.TicketStatus, perms auth.PermissionSet) []models.TicketStatus {
	out := make([]models.TicketStatus, 0, len(candidates))
	for _, candidate := range candidates {
		if gate, gated := e.RequiredPermission(domain, candidate); gated && !perms.Has(gate) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// CanTransition reports whether moving from current to next is legal in the
// domain for a holder of perms.
func (e *Engine) CanTransition(domain models.TicketDomain, current, next models.TicketStatus, perms auth.PermissionSet) bool {
	for _, candidate := range e.FilterByPermission(domain, e.AllowedTransitions(domain, current), perms) {
		if candidate == next {
			return true
		}
	}
	return false
}

// Domains lists the domains the engine has tables for.
func (e *Engine) Domains() []models.TicketDomain {
	out := make([]models.TicketDomain, 0, len(e.tables))
	for d := range e.tables {
		out = append(out, d)
	}
	return out
}
