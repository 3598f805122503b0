package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

func notificationConfig() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:           true,
		NotifyOnNewTicket: true,
		NotifyOnReply:     true,
		AdminEmail:        "admin@example.com",
		SiteName:          "Helpdesk",
		SiteURL:           "https://help.example.com",
		Templates: config.TemplateConfig{
			NewTicketAdminSubject: "New ticket: {ticket_title}",
			NewTicketAdminBody:    "From {customer_name}: {ticket_content}\n{ticket_url}",
			NewTicketUserSubject:  "We got it: {ticket_title}",
			NewTicketUserBody:     "Status {status}, priority {priority}.",
			ReplyAdminSubject:     "Reply on {ticket_title}",
			ReplyAdminBody:        "{reply_content}",
			ReplyUserSubject:      "Reply to your ticket {ticket_id}",
			ReplyUserBody:         "{reply_content}\n{tickets_url}",
		},
	}
}

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		ID:          "t1",
		Title:       "Login broken",
		Content:     "Cannot sign in",
		AuthorName:  "Jane",
		AuthorEmail: "jane@example.com",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityHigh,
	}
}

func publishCreated(dispatcher events.Dispatcher, ticket domain.Ticket) {
	_ = dispatcher.Publish(context.Background(), events.Event{
		ID:        "e1",
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Timestamp: time.Now(),
		Payload:   events.TicketCreatedPayload{Ticket: ticket},
	})
}

func TestNotifyOnTicketCreated(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(notificationConfig(), sender, zap.NewNop()).RegisterHandlers(dispatcher)

	publishCreated(dispatcher, sampleTicket())

	sent := sender.all()
	require.Len(t, sent, 2)

	assert.Equal(t, "admin@example.com", sent[0].To)
	assert.Equal(t, "New ticket: Login broken", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "From Jane: Cannot sign in")
	assert.Contains(t, sent[0].Body, "https://help.example.com/tickets/t1")

	assert.Equal(t, "jane@example.com", sent[1].To)
	assert.Equal(t, "Status open, priority high.", sent[1].Body)
}

func TestNotifyDisabled(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := events.NewInMemoryDispatcher()
	cfg := notificationConfig()
	cfg.Enabled = false
	NewNotificationService(cfg, sender, zap.NewNop()).RegisterHandlers(dispatcher)

	publishCreated(dispatcher, sampleTicket())

	assert.Empty(t, sender.all())
}

func TestNotifyOnReplyRouting(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(notificationConfig(), sender, zap.NewNop()).RegisterHandlers(dispatcher)

	ticket := sampleTicket()
	publish := func(isAdmin bool) {
		_ = dispatcher.Publish(context.Background(), events.Event{
			ID:       "e2",
			Type:     events.EventTicketReplyAdded,
			TicketID: ticket.ID,
			Payload: events.TicketReplyAddedPayload{
				Ticket: ticket,
				Reply:  domain.Reply{ID: "r1", TicketID: ticket.ID, Content: "we are on it", IsAdmin: isAdmin},
			},
		})
	}

	publish(true)
	sent := sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "we are on it")
	assert.Contains(t, sent[0].Body, "https://help.example.com/tickets")

	publish(false)
	sent = sender.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "admin@example.com", sent[1].To)
}
