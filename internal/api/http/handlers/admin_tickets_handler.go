package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AdminTicketsHandler manages the triage endpoints. Routes are gated by
// the admin middleware; handlers assume an admin identity is present.
type AdminTicketsHandler struct {
	tickets *service.TicketService
	replies *service.ReplyService
	images  *service.ImageService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(tickets *service.TicketService, replies *service.ReplyService, images *service.ImageService) *AdminTicketsHandler {
	return &AdminTicketsHandler{tickets: tickets, replies: replies, images: images}
}

// List GET /admin/tickets.
func (h *AdminTicketsHandler) List(c *fiber.Ctx) error {
	page, pageSize := pagination(c)
	result, err := h.tickets.List(c.UserContext(), service.TicketFilter{
		SearchText: c.Query("search"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Category:   c.Query("category"),
	}, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(dto.TicketListResponse{
		Items:      dto.FromTickets(result.Items),
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	})
}

// Update PATCH /admin/tickets/:id.
func (h *AdminTicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.UpdateFields(c.UserContext(), c.Params("id"), req.Fields())
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(*ticket))
}

// Bulk POST /admin/tickets/bulk. Applies one action across tickets and
// reports per-id outcomes.
func (h *AdminTicketsHandler) Bulk(c *fiber.Ctx) error {
	var req dto.BulkActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.TicketIDs) == 0 {
		return apperrors.NewValidationError("ticket_ids required", nil)
	}

	result, err := h.tickets.BulkApply(c.UserContext(), req.TicketIDs, service.BulkAction(req.Action))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// AddReply POST /admin/tickets/:id/replies. Staff replies carry the
// admin flag regardless of payload.
func (h *AdminTicketsHandler) AddReply(c *fiber.Ctx) error {
	identity := auth.IdentityFrom(c)

	userID := identity.UserID
	ticketID := c.Params("id")
	reply, err := h.replies.Add(c.UserContext(), ticketID, service.AddReplyInput{
		Content: c.FormValue("content"),
		Author: domain.AuthorInfo{
			UserID: &userID,
			Name:   identity.Name,
			Email:  identity.Email,
		},
		IsAdmin: true,
	})
	if err != nil {
		return err
	}

	response := dto.AddReplyResponse{
		Reply:  dto.FromReply(*reply),
		Images: []dto.ImageResponse{},
	}
	if uploads := uploadsFromRequest(c); len(uploads) > 0 {
		attached, err := h.images.Attach(c.UserContext(), ticketID, &reply.ID, uploads)
		if err != nil {
			return err
		}
		response.Images = dto.FromImages(attached.Attached)
		response.Failed = attached.Failed
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// Delete DELETE /admin/tickets/:id.
func (h *AdminTicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.tickets.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
