package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	replies     repository.ReplyRepository
	images      repository.ImageRepository
	replyCounts *cache.ReplyCountCache
	store       storage.Store
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	perPage     int
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	ReplyRepo   repository.ReplyRepository
	ImageRepo   repository.ImageRepository
	ReplyCounts *cache.ReplyCountCache
	Store       storage.Store
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	PerPage     int
}

// CreateTicketInput describes a ticket submission. Priority and Category
// arrive raw and are validated against the enums; empty priority defaults
// to medium, empty category stays unset.
type CreateTicketInput struct {
	Title    string
	Content  string
	Priority string
	Category string
	Author   domain.AuthorInfo
}

// TicketFilter describes listing filters. Owner keys are OR-combined;
// everything else narrows with AND.
type TicketFilter struct {
	SearchText  string
	Status      string
	Priority    string
	Category    string
	OwnerUserID *string
	OwnerEmail  *string
}

// TicketPage is one page of a filtered listing.
type TicketPage struct {
	Items      []domain.Ticket
	TotalCount int
	Page       int
	PageSize   int
}

// TicketDetail aggregates a ticket with its thread and attachments.
type TicketDetail struct {
	Ticket  domain.Ticket
	Replies []domain.Reply
	Images  []domain.Image
}

// UpdateTicketFields is a partial update. Nil fields are left untouched.
type UpdateTicketFields struct {
	Status      *string
	Priority    *string
	Category    *string
	AuthorName  *string
	AuthorEmail *string
}

// BulkAction enumerates supported bulk operations.
type BulkAction string

const (
	BulkActionDelete       BulkAction = "delete"
	BulkActionMarkResolved BulkAction = "mark_resolved"
	BulkActionMarkClosed   BulkAction = "mark_closed"
)

// BulkFailure records one ticket that a bulk action could not process.
type BulkFailure struct {
	TicketID string `json:"ticket_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// BulkResult reports per-ticket outcomes of a bulk action.
type BulkResult struct {
	Processed []string      `json:"processed"`
	Failed    []BulkFailure `json:"failed"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	perPage := deps.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		replies:     deps.ReplyRepo,
		images:      deps.ImageRepo,
		replyCounts: deps.ReplyCounts,
		store:       deps.Store,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		perPage:     perPage,
	}
}

// Create validates and persists a new ticket with status open.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	details := map[string]any{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		details["title"] = "title is required"
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		details["content"] = "content is required"
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != "" {
		parsed, ok := domain.ParsePriority(input.Priority)
		if !ok {
			details["priority"] = "unknown priority: " + input.Priority
		} else {
			priority = parsed
		}
	}

	category, ok := domain.ParseCategory(input.Category)
	if !ok {
		details["category"] = "unknown category: " + input.Category
	}

	author := input.Author
	author.Name = strings.TrimSpace(author.Name)
	author.Email = strings.TrimSpace(author.Email)
	if author.Anonymous() {
		if author.Name == "" {
			details["customer_name"] = "name is required for anonymous submissions"
		}
		if author.Email == "" {
			details["customer_email"] = "email is required for anonymous submissions"
		} else if _, err := mail.ParseAddress(author.Email); err != nil {
			details["customer_email"] = "invalid email address"
		}
	}

	if len(details) > 0 {
		return nil, util.NewValidationError("invalid ticket submission", details)
	}

	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     content,
		AuthorID:    author.UserID,
		AuthorName:  author.Name,
		AuthorEmail: author.Email,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		Category:    category,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.NewPersistenceError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload:  events.TicketCreatedPayload{Ticket: *ticket},
	})
	return ticket, nil
}

// List returns one page of tickets matching the filter, most recent
// first, with reply counts attached. Page numbers below 1 clamp to 1.
func (s *TicketService) List(ctx context.Context, filter TicketFilter, page, pageSize int) (*TicketPage, error) {
	repoFilter, err := s.toRepoFilter(filter)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.perPage
	}
	repoFilter.Limit = pageSize
	repoFilter.Offset = (page - 1) * pageSize

	items, total, err := s.tickets.ListWithFilter(ctx, *repoFilter)
	if err != nil {
		return nil, util.NewPersistenceError(err)
	}
	if items == nil {
		items = []domain.Ticket{}
	}

	if err := s.attachReplyCounts(ctx, items); err != nil {
		return nil, err
	}

	return &TicketPage{Items: items, TotalCount: total, Page: page, PageSize: pageSize}, nil
}

// ListMine returns the caller's own tickets. Scoping is strictly by the
// authenticated user id; anonymous-by-email lookups go through List with
// an explicit OwnerEmail filter.
func (s *TicketService) ListMine(ctx context.Context, userID string, page, pageSize int) (*TicketPage, error) {
	return s.List(ctx, TicketFilter{OwnerUserID: &userID}, page, pageSize)
}

// Get fetches a ticket together with its replies (ascending) and images.
func (s *TicketService) Get(ctx context.Context, id string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, util.NewPersistenceError(err)
	}

	replies, err := s.replies.ListByTicket(ctx, id)
	if err != nil {
		return nil, util.NewPersistenceError(err)
	}
	images, err := s.images.ListByTicket(ctx, id)
	if err != nil {
		return nil, util.NewPersistenceError(err)
	}

	ticket.ReplyCount = len(replies)
	if replies == nil {
		replies = []domain.Reply{}
	}
	if images == nil {
		images = []domain.Image{}
	}
	return &TicketDetail{Ticket: *ticket, Replies: replies, Images: images}, nil
}

// UpdateFields applies a partial update restricted to status, priority,
// category and author contact fields.
func (s *TicketService) UpdateFields(ctx context.Context, id string, fields UpdateTicketFields) (*domain.Ticket, error) {
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, util.NewPersistenceError(err)
	}

	attrs := map[string]string{}
	details := map[string]any{}

	if fields.Status != nil {
		status, ok := domain.ParseStatus(*fields.Status)
		if !ok {
			details["status"] = "unknown status: " + *fields.Status
		} else {
			attrs[repository.AttrStatus] = string(status)
		}
	}
	if fields.Priority != nil {
		priority, ok := domain.ParsePriority(*fields.Priority)
		if !ok {
			details["priority"] = "unknown priority: " + *fields.Priority
		} else {
			attrs[repository.AttrPriority] = string(priority)
		}
	}
	if fields.Category != nil {
		category, ok := domain.ParseCategory(*fields.Category)
		if !ok {
			details["category"] = "unknown category: " + *fields.Category
		} else {
			attrs[repository.AttrCategory] = string(category)
		}
	}
	if fields.AuthorName != nil {
		attrs[repository.AttrAuthorName] = strings.TrimSpace(*fields.AuthorName)
	}
	if fields.AuthorEmail != nil {
		attrs[repository.AttrAuthorEmail] = strings.TrimSpace(*fields.AuthorEmail)
	}

	if len(details) > 0 {
		return nil, util.NewValidationError("invalid ticket fields", details)
	}

	if err := s.tickets.UpdateAttributes(ctx, id, attrs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, util.NewPersistenceError(err)
	}

	updated, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, util.NewPersistenceError(err)
	}

	if newStatus, ok := attrs[repository.AttrStatus]; ok && domain.TicketStatus(newStatus) != current.Status {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: id,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: current.Status,
				NewStatus: domain.TicketStatus(newStatus),
			},
		})
	}
	return updated, nil
}

// BulkApply runs an action across tickets. A failure on one ticket is
// recorded and skipped; the batch never aborts.
func (s *TicketService) BulkApply(ctx context.Context, ticketIDs []string, action BulkAction) (*BulkResult, error) {
	switch action {
	case BulkActionDelete, BulkActionMarkResolved, BulkActionMarkClosed:
	default:
		return nil, util.NewValidationError("unknown bulk action", map[string]any{"action": string(action)})
	}

	result := &BulkResult{Processed: []string{}, Failed: []BulkFailure{}}
	for _, id := range ticketIDs {
		var err error
		switch action {
		case BulkActionDelete:
			err = s.Delete(ctx, id)
		case BulkActionMarkResolved:
			status := string(domain.TicketStatusResolved)
			_, err = s.UpdateFields(ctx, id, UpdateTicketFields{Status: &status})
		case BulkActionMarkClosed:
			status := string(domain.TicketStatusClosed)
			_, err = s.UpdateFields(ctx, id, UpdateTicketFields{Status: &status})
		}
		if err != nil {
			domainErr := util.ToDomainError(err)
			result.Failed = append(result.Failed, BulkFailure{
				TicketID: id,
				Code:     domainErr.Code,
				Message:  domainErr.Message,
			})
			continue
		}
		result.Processed = append(result.Processed, id)
	}
	return result, nil
}

// Delete removes a ticket; replies and images cascade. Stored upload
// files are removed best-effort after the rows are gone.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	images, err := s.images.ListByTicket(ctx, id)
	if err != nil {
		return util.NewPersistenceError(err)
	}

	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return util.NewPersistenceError(err)
	}

	if s.store != nil {
		for _, image := range images {
			if err := s.store.Remove(ctx, image.URL); err != nil && s.logger != nil {
				s.logger.Warn("failed to remove stored upload", zap.String("url", image.URL), zap.Error(err))
			}
		}
	}

	s.replyCounts.Invalidate(ctx, id)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Payload:  events.TicketDeletedPayload{TicketID: id},
	})
	return nil
}

func (s *TicketService) toRepoFilter(filter TicketFilter) (*repository.TicketFilter, error) {
	repoFilter := &repository.TicketFilter{
		OwnerUserID: filter.OwnerUserID,
		OwnerEmail:  filter.OwnerEmail,
	}
	details := map[string]any{}

	if filter.SearchText != "" {
		search := filter.SearchText
		repoFilter.SearchText = &search
	}
	if filter.Status != "" {
		status, ok := domain.ParseStatus(filter.Status)
		if !ok {
			details["status"] = "unknown status: " + filter.Status
		} else {
			repoFilter.Status = &status
		}
	}
	if filter.Priority != "" {
		priority, ok := domain.ParsePriority(filter.Priority)
		if !ok {
			details["priority"] = "unknown priority: " + filter.Priority
		} else {
			repoFilter.Priority = &priority
		}
	}
	if filter.Category != "" {
		category, ok := domain.ParseCategory(filter.Category)
		if !ok {
			details["category"] = "unknown category: " + filter.Category
		} else {
			repoFilter.Category = &category
		}
	}

	if len(details) > 0 {
		return nil, util.NewValidationError("invalid ticket filter", details)
	}
	return repoFilter, nil
}

func (s *TicketService) attachReplyCounts(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]string, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
	}

	counts := s.replyCounts.GetMany(ctx, ids)
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := counts[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		fresh, err := s.tickets.CountReplies(ctx, missing)
		if err != nil {
			return util.NewPersistenceError(err)
		}
		for _, id := range missing {
			count := fresh[id]
			counts[id] = count
			s.replyCounts.Set(ctx, id, count)
		}
	}

	for i := range tickets {
		tickets[i].ReplyCount = counts[tickets[i].ID]
	}
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
