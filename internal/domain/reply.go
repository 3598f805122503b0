package domain

import "time"

// Reply is a threaded message on a ticket, from the customer or from
// staff. Replies are append-only and totally ordered by CreatedAt
// ascending; that ordering is the only supported read order.
type Reply struct {
	ID           string
	TicketID     string
	AuthorUserID *string
	AuthorName   string
	AuthorEmail  string
	Content      string
	IsAdmin      bool
	CreatedAt    time.Time
}
