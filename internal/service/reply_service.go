package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// ReplyService manages the append-only reply thread of a ticket.
type ReplyService struct {
	tickets     repository.TicketRepository
	replies     repository.ReplyRepository
	replyCounts *cache.ReplyCountCache
	dispatcher  events.Dispatcher
}

// ReplyDependencies bundles collaborators for the reply service.
type ReplyDependencies struct {
	TicketRepo  repository.TicketRepository
	ReplyRepo   repository.ReplyRepository
	ReplyCounts *cache.ReplyCountCache
	Dispatcher  events.Dispatcher
}

// AddReplyInput describes a new thread entry.
type AddReplyInput struct {
	Content string
	Author  domain.AuthorInfo
	IsAdmin bool
}

// NewReplyService constructs the service.
func NewReplyService(deps ReplyDependencies) *ReplyService {
	return &ReplyService{
		tickets:     deps.TicketRepo,
		replies:     deps.ReplyRepo,
		replyCounts: deps.ReplyCounts,
		dispatcher:  deps.Dispatcher,
	}
}

// Add appends a reply to an existing ticket. The ticket is verified
// before the insert so a reply can never target a missing ticket.
func (s *ReplyService) Add(ctx context.Context, ticketID string, input AddReplyInput) (*domain.Reply, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, util.NewPersistenceError(err)
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, util.NewValidationError("invalid reply", map[string]any{"content": "content is required"})
	}

	reply := &domain.Reply{
		ID:           uuid.NewString(),
		TicketID:     ticketID,
		AuthorUserID: input.Author.UserID,
		AuthorName:   strings.TrimSpace(input.Author.Name),
		AuthorEmail:  strings.TrimSpace(input.Author.Email),
		Content:      content,
		IsAdmin:      input.IsAdmin,
	}

	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, util.NewPersistenceError(err)
	}

	s.replyCounts.Invalidate(ctx, ticketID)

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketReplyAdded,
			TicketID:  ticketID,
			Timestamp: time.Now(),
			Payload:   events.TicketReplyAddedPayload{Ticket: *ticket, Reply: *reply},
		})
	}
	return reply, nil
}

// List returns the ticket's replies in chronological order. A ticket
// without replies yields an empty slice.
func (s *ReplyService) List(ctx context.Context, ticketID string) ([]domain.Reply, error) {
	replies, err := s.replies.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.NewPersistenceError(err)
	}
	if replies == nil {
		replies = []domain.Reply{}
	}
	return replies, nil
}
