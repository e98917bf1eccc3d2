package workflow

import (
	"fmt"
	"sort"

	"github.com/chamados-io/chamados-ce/internal/models"
)

// Audit reports structural findings across the engine's tables: statuses
// that are reachable but have no transition entry (implicitly terminal),
// gates on statuses that nothing reaches, and expected-terminal statuses
// that still have outgoing edges. It also notes where cancelled is reachable
// in one domain but not another, since that drift needs a business decision
// rather than silent unification.
func (e *Engine) Audit() []string {
	var findings []string

	cancelledReachable := make(map[models.TicketDomain]bool, len(e.tables))

	for domain, table := range e.tables {
		reachable := make(map[models.TicketStatus]struct{})
		for _, nexts := range table.Next {
			for _, n := range nexts {
				reachable[n] = struct{}{}
			}
		}
		_, cancelled := reachable[models.StatusCancelled]
		cancelledReachable[domain] = cancelled

		for status := range reachable {
			if _, ok := table.Next[status]; !ok {
				findings = append(findings, fmt.Sprintf(
					"%s: status %q is reachable but has no transition entry (implicitly terminal)",
					domain, status))
			}
		}
		for gated := range table.Gate {
			if _, ok := reachable[gated]; !ok {
				findings = append(findings, fmt.Sprintf(
					"%s: gate on %q but no transition reaches it", domain, gated))
			}
		}
		for _, terminal := range []models.TicketStatus{models.StatusClosed, models.StatusCancelled} {
			if nexts, ok := table.Next[terminal]; ok && len(nexts) > 0 {
				findings = append(findings, fmt.Sprintf(
					"%s: terminal status %q has outgoing transitions %v", domain, terminal, nexts))
			}
		}
	}

	var with, without []string
	for domain, ok := range cancelledReachable {
		if ok {
			with = append(with, string(domain))
		} else {
			without = append(without, string(domain))
		}
	}
	if len(with) > 0 && len(without) > 0 {
		sort.Strings(with)
		sort.Strings(without)
		findings = append(findings, fmt.Sprintf(
			"cancelled is reachable in %v but not in %v; confirm this drift is intentional",
			with, without))
	}

	sort.Strings(findings)
	return findings
}
