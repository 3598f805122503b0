package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketCategory enumerates the topic of a ticket. Empty means unset.
type TicketCategory string

const (
	TicketCategoryNone      TicketCategory = ""
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryGeneral   TicketCategory = "general"
	TicketCategoryBugReport TicketCategory = "bug_report"
)

// ParseStatus validates a raw status value. Unknown values are rejected
// at write time rather than stored.
func ParseStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return TicketStatus(raw), true
	}
	return "", false
}

// ParsePriority validates a raw priority value.
func ParsePriority(raw string) (TicketPriority, bool) {
	switch TicketPriority(raw) {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return TicketPriority(raw), true
	}
	return "", false
}

// ParseCategory validates a raw category value. The empty string is a
// valid "unset" category.
func ParseCategory(raw string) (TicketCategory, bool) {
	switch TicketCategory(raw) {
	case TicketCategoryNone, TicketCategoryTechnical, TicketCategoryBilling, TicketCategoryGeneral, TicketCategoryBugReport:
		return TicketCategory(raw), true
	}
	return "", false
}

// AuthorInfo identifies who submitted a ticket: either a registered user
// id, or an anonymous (name, email) pair.
type AuthorInfo struct {
	UserID *string
	Name   string
	Email  string
}

// Anonymous reports whether the author has no registered identity.
func (a AuthorInfo) Anonymous() bool {
	return a.UserID == nil
}

// Ticket is the aggregate for support requests. Content is stored raw and
// sanitized only when rendered.
type Ticket struct {
	ID          string
	Title       string
	Content     string
	AuthorID    *string
	AuthorName  string
	AuthorEmail string
	Status      TicketStatus
	Priority    TicketPriority
	Category    TicketCategory
	CreatedAt   time.Time
	ReplyCount  int
}
