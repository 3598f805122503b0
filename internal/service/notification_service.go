package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
)

// NotificationService turns ticket events into email. Delivery failures
// are logged and swallowed; notifications never affect the originating
// request.
type NotificationService struct {
	cfg    config.NotificationConfig
	sender mail.Sender
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, sender mail.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{cfg: cfg, sender: sender, logger: logger}
}

// RegisterHandlers subscribes the service to the events it reacts to.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketReplyAdded, s.onReplyAdded)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	if !s.cfg.Enabled || !s.cfg.NotifyOnNewTicket {
		return nil
	}
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}

	vars := ticketTemplateVars(s.cfg, payload.Ticket)
	if s.cfg.AdminEmail != "" {
		s.send(s.cfg.AdminEmail, s.cfg.Templates.NewTicketAdminSubject, s.cfg.Templates.NewTicketAdminBody, vars)
	}
	if payload.Ticket.AuthorEmail != "" {
		s.send(payload.Ticket.AuthorEmail, s.cfg.Templates.NewTicketUserSubject, s.cfg.Templates.NewTicketUserBody, vars)
	}
	return nil
}

func (s *NotificationService) onReplyAdded(ctx context.Context, event events.Event) error {
	if !s.cfg.Enabled || !s.cfg.NotifyOnReply {
		return nil
	}
	payload, ok := event.Payload.(events.TicketReplyAddedPayload)
	if !ok {
		return nil
	}

	vars := replyTemplateVars(s.cfg, payload.Ticket, payload.Reply)
	if payload.Reply.IsAdmin {
		// staff replied: tell the customer
		if payload.Ticket.AuthorEmail != "" {
			s.send(payload.Ticket.AuthorEmail, s.cfg.Templates.ReplyUserSubject, s.cfg.Templates.ReplyUserBody, vars)
		}
		return nil
	}
	if s.cfg.AdminEmail != "" {
		s.send(s.cfg.AdminEmail, s.cfg.Templates.ReplyAdminSubject, s.cfg.Templates.ReplyAdminBody, vars)
	}
	return nil
}

func (s *NotificationService) send(to, subjectTpl, bodyTpl string, vars map[string]string) {
	subject := RenderTemplate(subjectTpl, vars)
	body := RenderTemplate(bodyTpl, vars)
	if err := s.sender.Send(to, subject, body); err != nil && s.logger != nil {
		s.logger.Warn("failed to send notification email", zap.String("to", to), zap.Error(err))
	}
}
