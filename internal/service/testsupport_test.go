package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	counts  map[string]int
	clock   time.Time
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: map[string]*domain.Ticket{},
		counts:  map[string]int{},
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	ticket.CreatedAt = r.clock
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) UpdateAttributes(ctx context.Context, id string, attrs map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	for key, value := range attrs {
		switch key {
		case repository.AttrStatus:
			ticket.Status = domain.TicketStatus(value)
		case repository.AttrPriority:
			ticket.Priority = domain.TicketPriority(value)
		case repository.AttrCategory:
			ticket.Category = domain.TicketCategory(value)
		case repository.AttrAuthorName:
			ticket.AuthorName = value
		case repository.AttrAuthorEmail:
			ticket.AuthorEmail = value
		}
	}
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.Ticket
	for _, ticket := range r.tickets {
		if !matches(*ticket, filter) {
			continue
		}
		matched = append(matched, *ticket)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matches(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.Category != nil && ticket.Category != *filter.Category {
		return false
	}
	if filter.SearchText != nil {
		needle := strings.ToLower(*filter.SearchText)
		if !strings.Contains(strings.ToLower(ticket.Title), needle) &&
			!strings.Contains(strings.ToLower(ticket.Content), needle) {
			return false
		}
	}
	if filter.OwnerUserID != nil || filter.OwnerEmail != nil {
		owned := false
		if filter.OwnerUserID != nil && ticket.AuthorID != nil && *ticket.AuthorID == *filter.OwnerUserID {
			owned = true
		}
		if filter.OwnerEmail != nil && ticket.AuthorEmail == *filter.OwnerEmail {
			owned = true
		}
		if !owned {
			return false
		}
	}
	return true
}

func (r *fakeTicketRepo) CountReplies(ctx context.Context, ticketIDs []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int{}
	for _, id := range ticketIDs {
		counts[id] = r.counts[id]
	}
	return counts, nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type fakeReplyRepo struct {
	mu      sync.Mutex
	replies map[string]*domain.Reply
	clock   time.Time
}

func newFakeReplyRepo() *fakeReplyRepo {
	return &fakeReplyRepo{
		replies: map[string]*domain.Reply{},
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeReplyRepo) Create(ctx context.Context, reply *domain.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	reply.CreatedAt = r.clock
	stored := *reply
	r.replies[reply.ID] = &stored
	return nil
}

func (r *fakeReplyRepo) GetByID(ctx context.Context, id string) (*domain.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reply, ok := r.replies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *reply
	return &copied, nil
}

func (r *fakeReplyRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reply
	for _, reply := range r.replies {
		if reply.TicketID == ticketID {
			out = append(out, *reply)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type fakeImageRepo struct {
	mu     sync.Mutex
	images []domain.Image
	clock  time.Time
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeImageRepo) Create(ctx context.Context, image *domain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	image.UploadedAt = r.clock
	r.images = append(r.images, *image)
	return nil
}

func (r *fakeImageRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Image
	for _, image := range r.images {
		if image.TicketID == ticketID {
			out = append(out, image)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) ListByScope(ctx context.Context, ticketID string, replyID *string) ([]domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Image
	for _, image := range r.images {
		if image.TicketID != ticketID {
			continue
		}
		if replyID == nil {
			if image.ReplyID == nil {
				out = append(out, image)
			}
			continue
		}
		if image.ReplyID != nil && *image.ReplyID == *replyID {
			out = append(out, image)
		}
	}
	return out, nil
}

type fakeStore struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	saveErr error
}

func (s *fakeStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	url := "/uploads/" + filename
	s.saved = append(s.saved, url)
	return url, nil
}

func (s *fakeStore) Remove(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, url)
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (s *fakeSender) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (s *fakeSender) all() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail{}, s.sent...)
}
