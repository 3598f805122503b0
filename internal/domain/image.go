package domain

import "time"

// Image is a file attachment tied to a ticket's initial submission
// (ReplyID nil) or to one specific reply. If ReplyID is set it must
// reference a reply belonging to the same ticket.
type Image struct {
	ID               string
	TicketID         string
	ReplyID          *string
	URL              string
	OriginalFilename string
	UploadedAt       time.Time
}
