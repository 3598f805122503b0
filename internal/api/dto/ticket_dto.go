package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// TicketResponse is the public shape of a ticket. Content passes through
// the UGC sanitizer on the way out.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	AuthorName  string                `json:"author_name"`
	AuthorEmail string                `json:"author_email"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    domain.TicketCategory `json:"category,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	ReplyCount  int                   `json:"reply_count"`
}

// ReplyResponse is one thread entry.
type ReplyResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

// ImageResponse is one stored attachment.
type ImageResponse struct {
	ID               string    `json:"id"`
	TicketID         string    `json:"ticket_id"`
	ReplyID          *string   `json:"reply_id,omitempty"`
	URL              string    `json:"url"`
	OriginalFilename string    `json:"original_filename"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// TicketDetailResponse aggregates a ticket with its thread and images.
type TicketDetailResponse struct {
	Ticket  TicketResponse  `json:"ticket"`
	Replies []ReplyResponse `json:"replies"`
	Images  []ImageResponse `json:"images"`
}

// TicketListResponse is one page of a listing.
type TicketListResponse struct {
	Items      []TicketResponse `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// SubmitTicketResponse pairs the created ticket with per-file upload
// outcomes.
type SubmitTicketResponse struct {
	Ticket  TicketResponse      `json:"ticket"`
	Images  []ImageResponse     `json:"images"`
	Failed  []service.FileError `json:"failed_uploads,omitempty"`
	Message string              `json:"message"`
}

// AddReplyResponse pairs the created reply with per-file upload outcomes.
type AddReplyResponse struct {
	Reply  ReplyResponse       `json:"reply"`
	Images []ImageResponse     `json:"images"`
	Failed []service.FileError `json:"failed_uploads,omitempty"`
}

// UpdateTicketRequest is a partial ticket update. Absent fields stay
// untouched.
type UpdateTicketRequest struct {
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	AuthorName  *string `json:"author_name"`
	AuthorEmail *string `json:"author_email"`
}

// Fields converts the request to the service update shape.
func (r UpdateTicketRequest) Fields() service.UpdateTicketFields {
	return service.UpdateTicketFields{
		Status:      r.Status,
		Priority:    r.Priority,
		Category:    r.Category,
		AuthorName:  r.AuthorName,
		AuthorEmail: r.AuthorEmail,
	}
}

// BulkActionRequest names the tickets and the action to apply.
type BulkActionRequest struct {
	TicketIDs []string `json:"ticket_ids"`
	Action    string   `json:"action"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(ticket domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       sanitize(ticket.Title),
		Content:     sanitize(ticket.Content),
		AuthorName:  sanitize(ticket.AuthorName),
		AuthorEmail: ticket.AuthorEmail,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		Category:    ticket.Category,
		CreatedAt:   ticket.CreatedAt,
		ReplyCount:  ticket.ReplyCount,
	}
}

// FromTickets maps a slice of tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i, ticket := range tickets {
		out[i] = FromTicket(ticket)
	}
	return out
}

// FromReply maps a domain reply to its response shape.
func FromReply(reply domain.Reply) ReplyResponse {
	return ReplyResponse{
		ID:         reply.ID,
		TicketID:   reply.TicketID,
		AuthorName: sanitize(reply.AuthorName),
		Content:    sanitize(reply.Content),
		IsAdmin:    reply.IsAdmin,
		CreatedAt:  reply.CreatedAt,
	}
}

// FromReplies maps a slice of replies.
func FromReplies(replies []domain.Reply) []ReplyResponse {
	out := make([]ReplyResponse, len(replies))
	for i, reply := range replies {
		out[i] = FromReply(reply)
	}
	return out
}

// FromImage maps a domain image to its response shape.
func FromImage(image domain.Image) ImageResponse {
	return ImageResponse{
		ID:               image.ID,
		TicketID:         image.TicketID,
		ReplyID:          image.ReplyID,
		URL:              image.URL,
		OriginalFilename: image.OriginalFilename,
		UploadedAt:       image.UploadedAt,
	}
}

// FromImages maps a slice of images.
func FromImages(images []domain.Image) []ImageResponse {
	out := make([]ImageResponse, len(images))
	for i, image := range images {
		out[i] = FromImage(image)
	}
	return out
}

// FromDetail maps a ticket detail aggregate.
func FromDetail(detail service.TicketDetail) TicketDetailResponse {
	return TicketDetailResponse{
		Ticket:  FromTicket(detail.Ticket),
		Replies: FromReplies(detail.Replies),
		Images:  FromImages(detail.Images),
	}
}
