// Package policy is the single authority deciding whether a user may
// perform an operation on a ticket. Presentation layers must consult
// CanPerform before every mutation and must not implement their own
// visibility shortcuts.
package policy

import "github.com/facilityworks/helpdesk/internal/domain"

// Operation enumerates the gated actions.
type Operation string

const (
	OpViewTicket     Operation = "viewTicket"
	OpListAllTickets Operation = "listAllTickets"
	OpCreateTicket   Operation = "createTicket"
	OpUpdateTicket   Operation = "updateTicket"
	OpAssignTicket   Operation = "assignTicket"
	OpComment        Operation = "comment"
	OpViewDashboard  Operation = "viewDashboard"
	OpViewReports    Operation = "viewReports"
)

// CanPerform reports whether a user with the given role may perform op.
// For ticket-scoped operations the ticket argument carries ownership;
// it may be nil for operations that are not about a specific ticket.
func CanPerform(role domain.Role, userID string, ticket *domain.Ticket, op Operation) bool {
	switch role {
	case domain.RoleEndUser:
		switch op {
		case OpCreateTicket:
			return true
		case OpViewTicket, OpComment:
			return ticket != nil && ticket.RequesterID == userID
		}
		return false
	case domain.RoleTechnician:
		switch op {
		case OpViewTicket, OpListAllTickets, OpCreateTicket, OpUpdateTicket, OpAssignTicket, OpComment:
			return true
		}
		return false
	case domain.RoleTechManager:
		// Superset of Technician.
		switch op {
		case OpViewTicket, OpListAllTickets, OpCreateTicket, OpUpdateTicket, OpAssignTicket, OpComment,
			OpViewDashboard, OpViewReports:
			return true
		}
		return false
	}
	return false
}
