package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket priorities and statuses.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"

	TicketOpen     = "open"
	TicketResolved = "resolved"
)

// Ticket is a support ticket created for human follow-up. Tickets are
// mutated only by resolution and never deleted.
type Ticket struct {
	TicketID        string
	SessionID       string
	CustomerID      string
	IssueType       string
	Description     string
	Priority        string
	Status          string
	ConfidenceScore *float64
	AssignedTo      string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

// NewTicketID generates a ticket identifier in the TKTxxxxxxxx form.
func NewTicketID() string {
	return "TKT" + strings.ToUpper(uuid.NewString()[:8])
}

// CreateTicket inserts a ticket and returns its generated identifier.
// An empty priority defaults to medium.
func (s *Store) CreateTicket(t Ticket) (string, error) {
	if t.TicketID == "" {
		t.TicketID = NewTicketID()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	var confidence any
	if t.ConfidenceScore != nil {
		confidence = *t.ConfidenceScore
	}
	var customerID any
	if t.CustomerID != "" {
		customerID = t.CustomerID
	}

	_, err := s.db.Exec(`
		INSERT INTO support_tickets
		(ticket_id, session_id, customer_id, issue_type, description, priority, confidence_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.TicketID, t.SessionID, customerID, t.IssueType, t.Description, t.Priority, confidence)
	if err != nil {
		return "", fmt.Errorf("create ticket: %w", err)
	}
	return t.TicketID, nil
}

// Ticket fetches a ticket by its public identifier.
func (s *Store) Ticket(ticketID string) (*Ticket, error) {
	row := s.db.QueryRow(`
		SELECT ticket_id, COALESCE(session_id, ''), COALESCE(customer_id, ''),
		       COALESCE(issue_type, ''), COALESCE(description, ''),
		       COALESCE(priority, 'medium'), COALESCE(status, 'open'),
		       confidence_score, COALESCE(assigned_to, ''), created_at, resolved_at
		FROM support_tickets
		WHERE ticket_id = ?
	`, ticketID)

	var t Ticket
	var confidence sql.NullFloat64
	var resolvedAt sql.NullTime
	err := row.Scan(&t.TicketID, &t.SessionID, &t.CustomerID, &t.IssueType,
		&t.Description, &t.Priority, &t.Status, &confidence, &t.AssignedTo,
		&t.CreatedAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch ticket %s: %w", ticketID, err)
	}
	if confidence.Valid {
		t.ConfidenceScore = &confidence.Float64
	}
	if resolvedAt.Valid {
		t.ResolvedAt = &resolvedAt.Time
	}
	return &t, nil
}

// OpenTickets returns all open tickets, highest priority first.
func (s *Store) OpenTickets() ([]Ticket, error) {
	rows, err := s.db.Query(`
		SELECT ticket_id, COALESCE(session_id, ''), COALESCE(customer_id, ''),
		       COALESCE(issue_type, ''), COALESCE(description, ''),
		       COALESCE(priority, 'medium'), COALESCE(status, 'open'),
		       confidence_score, COALESCE(assigned_to, ''), created_at, resolved_at
		FROM support_tickets
		WHERE status = 'open'
		ORDER BY
			CASE priority
				WHEN 'urgent' THEN 0
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				ELSE 3
			END,
			created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query open tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		var confidence sql.NullFloat64
		var resolvedAt sql.NullTime
		if err := rows.Scan(&t.TicketID, &t.SessionID, &t.CustomerID, &t.IssueType,
			&t.Description, &t.Priority, &t.Status, &confidence, &t.AssignedTo,
			&t.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		if confidence.Valid {
			t.ConfidenceScore = &confidence.Float64
		}
		if resolvedAt.Valid {
			t.ResolvedAt = &resolvedAt.Time
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// ResolveTicket marks a ticket resolved. Returns ErrNotFound if no
// open ticket with that id exists.
func (s *Store) ResolveTicket(ticketID string) error {
	res, err := s.db.Exec(`
		UPDATE support_tickets
		SET status = ?, resolved_at = ?
		WHERE ticket_id = ? AND status = ?
	`, TicketResolved, time.Now(), ticketID, TicketOpen)
	if err != nil {
		return fmt.Errorf("resolve ticket %s: %w", ticketID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("open ticket %s: %w", ticketID, ErrNotFound)
	}
	return nil
}
