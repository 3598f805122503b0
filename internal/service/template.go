package service

import (
	"strings"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RenderTemplate substitutes {placeholder} variables in a notification
// template. Unknown placeholders are left untouched.
func RenderTemplate(tpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

func ticketTemplateVars(cfg config.NotificationConfig, ticket domain.Ticket) map[string]string {
	category := string(ticket.Category)
	if category == "" {
		category = "none"
	}
	return map[string]string{
		"ticket_id":      ticket.ID,
		"ticket_title":   ticket.Title,
		"ticket_content": ticket.Content,
		"customer_name":  ticket.AuthorName,
		"customer_email": ticket.AuthorEmail,
		"status":         string(ticket.Status),
		"priority":       string(ticket.Priority),
		"category":       category,
		"site_name":      cfg.SiteName,
		"site_url":       strings.TrimRight(cfg.SiteURL, "/"),
		"ticket_url":     strings.TrimRight(cfg.SiteURL, "/") + "/tickets/" + ticket.ID,
		"tickets_url":    strings.TrimRight(cfg.SiteURL, "/") + "/tickets",
	}
}

func replyTemplateVars(cfg config.NotificationConfig, ticket domain.Ticket, reply domain.Reply) map[string]string {
	vars := ticketTemplateVars(cfg, ticket)
	vars["reply_content"] = reply.Content
	vars["reply_author"] = reply.AuthorName
	return vars
}
