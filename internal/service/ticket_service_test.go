package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/pkg/util"
)

type ticketFixture struct {
	service    *TicketService
	ticketRepo *fakeTicketRepo
	replyRepo  *fakeReplyRepo
	imageRepo  *fakeImageRepo
	store      *fakeStore
	dispatcher events.Dispatcher
	published  *[]events.Event
}

func newTicketFixture() *ticketFixture {
	ticketRepo := newFakeTicketRepo()
	replyRepo := newFakeReplyRepo()
	imageRepo := newFakeImageRepo()
	store := &fakeStore{}
	dispatcher := events.NewInMemoryDispatcher()

	published := &[]events.Event{}
	capture := func(ctx context.Context, event events.Event) error {
		*published = append(*published, event)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, capture)
	dispatcher.Subscribe(events.EventTicketStatusChanged, capture)
	dispatcher.Subscribe(events.EventTicketDeleted, capture)

	service := NewTicketService(TicketDependencies{
		TicketRepo:  ticketRepo,
		ReplyRepo:   replyRepo,
		ImageRepo:   imageRepo,
		ReplyCounts: cache.NewReplyCountCache(nil),
		Store:       store,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
		PerPage:     2,
	})
	return &ticketFixture{
		service:    service,
		ticketRepo: ticketRepo,
		replyRepo:  replyRepo,
		imageRepo:  imageRepo,
		store:      store,
		dispatcher: dispatcher,
		published:  published,
	}
}

func registeredAuthor(userID string) domain.AuthorInfo {
	return domain.AuthorInfo{UserID: &userID, Name: "Jane Doe", Email: "jane@example.com"}
}

func TestCreateTicketDefaults(t *testing.T) {
	fx := newTicketFixture()

	ticket, err := fx.service.Create(context.Background(), CreateTicketInput{
		Title:   "Printer on fire",
		Content: "It is quite literally on fire.",
		Author:  registeredAuthor("u1"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketCategoryNone, ticket.Category)
	assert.False(t, ticket.CreatedAt.IsZero())

	require.Len(t, *fx.published, 1)
	assert.Equal(t, events.EventTicketCreated, (*fx.published)[0].Type)
	assert.Equal(t, ticket.ID, (*fx.published)[0].TicketID)
}

func TestCreateTicketValidation(t *testing.T) {
	fx := newTicketFixture()

	_, err := fx.service.Create(context.Background(), CreateTicketInput{})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))

	_, err = fx.service.Create(context.Background(), CreateTicketInput{
		Title:   "Help",
		Content: "Something broke",
		Author:  domain.AuthorInfo{Name: "Anon", Email: "not-an-email"},
	})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))

	_, err = fx.service.Create(context.Background(), CreateTicketInput{
		Title:    "Help",
		Content:  "Something broke",
		Priority: "mega-urgent",
		Author:   registeredAuthor("u1"),
	})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))

	assert.Empty(t, *fx.published)
}

func TestCreateTicketAnonymousContact(t *testing.T) {
	fx := newTicketFixture()

	ticket, err := fx.service.Create(context.Background(), CreateTicketInput{
		Title:    "Billing question",
		Content:  "Charged twice",
		Category: "billing",
		Author:   domain.AuthorInfo{Name: "Anon", Email: "anon@example.com"},
	})
	require.NoError(t, err)

	assert.Nil(t, ticket.AuthorID)
	assert.Equal(t, domain.TicketCategoryBilling, ticket.Category)
	assert.Equal(t, "anon@example.com", ticket.AuthorEmail)
}

func TestListScopedToOwner(t *testing.T) {
	fx := newTicketFixture()
	ctx := context.Background()

	first, err := fx.service.Create(ctx, CreateTicketInput{Title: "one", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)
	second, err := fx.service.Create(ctx, CreateTicketInput{Title: "two", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)
	_, err = fx.service.Create(ctx, CreateTicketInput{Title: "other", Content: "c", Author: domain.AuthorInfo{Name: "A", Email: "a@example.com"}})
	require.NoError(t, err)

	fx.ticketRepo.counts[first.ID] = 3

	page, err := fx.service.ListMine(ctx, "u1", 1, 10)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, first.ID, page.Items[1].ID)
	assert.Equal(t, 3, page.Items[1].ReplyCount)
	assert.Equal(t, 0, page.Items[0].ReplyCount)
}

func TestListClampsPagination(t *testing.T) {
	fx := newTicketFixture()
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := fx.service.Create(ctx, CreateTicketInput{Title: title, Content: "c", Author: registeredAuthor("u1")})
		require.NoError(t, err)
	}

	page, err := fx.service.List(ctx, TicketFilter{}, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.TotalCount)
}

func TestListRejectsUnknownFilterValues(t *testing.T) {
	fx := newTicketFixture()

	_, err := fx.service.List(context.Background(), TicketFilter{Status: "bogus"}, 1, 10)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestGetTicketDetail(t *testing.T) {
	fx := newTicketFixture()
	ctx := context.Background()

	ticket, err := fx.service.Create(ctx, CreateTicketInput{Title: "t", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)

	require.NoError(t, fx.replyRepo.Create(ctx, &domain.Reply{ID: "r1", TicketID: ticket.ID, Content: "first"}))
	require.NoError(t, fx.replyRepo.Create(ctx, &domain.Reply{ID: "r2", TicketID: ticket.ID, Content: "second"}))
	require.NoError(t, fx.imageRepo.Create(ctx, &domain.Image{ID: "i1", TicketID: ticket.ID, URL: "/uploads/x.png"}))

	detail, err := fx.service.Get(ctx, ticket.ID)
	require.NoError(t, err)

	assert.Equal(t, ticket.ID, detail.Ticket.ID)
	assert.Equal(t, 2, detail.Ticket.ReplyCount)
	require.Len(t, detail.Replies, 2)
	assert.Equal(t, "first", detail.Replies[0].Content)
	assert.Equal(t, "second", detail.Replies[1].Content)
	require.Len(t, detail.Images, 1)
}

func TestGetTicketNotFound(t *testing.T) {
	fx := newTicketFixture()

	_, err := fx.service.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "NOT_FOUND"))
}

func TestUpdateFields(t *testing.T) {
	fx := newTicketFixture()
	ctx := context.Background()

	ticket, err := fx.service.Create(ctx, CreateTicketInput{Title: "t", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)
	*fx.published = nil

	status := "resolved"
	priority := "high"
	updated, err := fx.service.UpdateFields(ctx, ticket.ID, UpdateTicketFields{Status: &status, Priority: &priority})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)

	require.Len(t, *fx.published, 1)
	event := (*fx.published)[0]
	assert.Equal(t, events.EventTicketStatusChanged, event.Type)
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusOpen, payload.OldStatus)
	assert.Equal(t, domain.TicketStatusResolved, payload.NewStatus)
}

func TestUpdateFieldsRejectsUnknownStatus(t *testing.T) {
	fx := newTicketFixture()
	ctx := context.Background()

	ticket, err := fx.service.Create(ctx, CreateTicketInput{Title: "t", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)

	status := "gone"
	_, err = fx.service.UpdateFields(ctx, ticket.ID, UpdateTicketFields{Status: &status})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))

	stored, err := fx.ticketRepo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
}

func TestUpdateFieldsNotFound(t *testing.T) {
	fx := newTicketFixture()

	status := "resolved"
	_, err := fx.service.UpdateFields(context.Background(), "missing", UpdateTicketFields{Status: &status})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "NOT_FOUND"))
}

func TestBulkApplyPartialFailure(t *testing.T) {
	fx := newTicketFixture()
	ctx := context.Background()

	first, err := fx.service.Create(ctx, CreateTicketInput{Title: "a", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)
	second, err := fx.service.Create(ctx, CreateTicketInput{Title: "b", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)

	result, err := fx.service.BulkApply(ctx, []string{first.ID, "missing", second.ID}, BulkActionMarkClosed)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{first.ID, second.ID}, result.Processed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing", result.Failed[0].TicketID)
	assert.Equal(t, "NOT_FOUND", result.Failed[0].Code)

	stored, err := fx.ticketRepo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, stored.Status)
}

func TestBulkApplyRejectsUnknownAction(t *testing.T) {
	fx := newTicketFixture()

	_, err := fx.service.BulkApply(context.Background(), []string{"t1"}, BulkAction("archive"))
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestDeleteTicketRemovesStoredFiles(t *testing.T) {
	fx := newTicketFixture()
	ctx := context.Background()

	ticket, err := fx.service.Create(ctx, CreateTicketInput{Title: "t", Content: "c", Author: registeredAuthor("u1")})
	require.NoError(t, err)
	require.NoError(t, fx.imageRepo.Create(ctx, &domain.Image{ID: "i1", TicketID: ticket.ID, URL: "/uploads/a.png"}))
	require.NoError(t, fx.imageRepo.Create(ctx, &domain.Image{ID: "i2", TicketID: ticket.ID, URL: "/uploads/b.png"}))
	*fx.published = nil

	require.NoError(t, fx.service.Delete(ctx, ticket.ID))

	assert.ElementsMatch(t, []string{"/uploads/a.png", "/uploads/b.png"}, fx.store.removed)
	require.Len(t, *fx.published, 1)
	assert.Equal(t, events.EventTicketDeleted, (*fx.published)[0].Type)

	err = fx.service.Delete(ctx, ticket.ID)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "NOT_FOUND"))
}
