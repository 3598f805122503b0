package handlers

import (
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	replies *service.ReplyService
	images  *service.ImageService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, replies *service.ReplyService, images *service.ImageService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, replies: replies, images: images}
}

// SubmitTicket POST /tickets. Accepts multipart form data so image
// attachments ride along with the submission.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	identity := auth.IdentityFrom(c)

	author := domain.AuthorInfo{
		Name:  c.FormValue("customer_name"),
		Email: c.FormValue("customer_email"),
	}
	if identity != nil {
		userID := identity.UserID
		author.UserID = &userID
		if identity.Name != "" {
			author.Name = identity.Name
		}
		if identity.Email != "" {
			author.Email = identity.Email
		}
	}

	ticket, err := h.tickets.Create(c.UserContext(), service.CreateTicketInput{
		Title:    c.FormValue("title"),
		Content:  c.FormValue("content"),
		Priority: c.FormValue("priority"),
		Category: c.FormValue("category"),
		Author:   author,
	})
	if err != nil {
		return err
	}

	response := dto.SubmitTicketResponse{
		Ticket:  dto.FromTicket(*ticket),
		Images:  []dto.ImageResponse{},
		Message: "Your ticket has been submitted.",
	}
	if uploads := uploadsFromRequest(c); len(uploads) > 0 {
		attached, err := h.images.Attach(c.UserContext(), ticket.ID, nil, uploads)
		if err != nil {
			return err
		}
		response.Images = dto.FromImages(attached.Attached)
		response.Failed = attached.Failed
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// ListMine GET /tickets. Requires an authenticated caller; results are
// scoped to the caller's own tickets.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	identity := auth.IdentityFrom(c)
	if identity == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	page, pageSize := pagination(c)
	result, err := h.tickets.ListMine(c.UserContext(), identity.UserID, page, pageSize)
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

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.tickets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromDetail(*detail))
}

// AddReply POST /tickets/:id/replies. Multipart so images can accompany
// the reply; the reply survives even when every upload fails.
func (h *TicketsHandler) AddReply(c *fiber.Ctx) error {
	identity := auth.IdentityFrom(c)

	author := domain.AuthorInfo{
		Name:  c.FormValue("customer_name"),
		Email: c.FormValue("customer_email"),
	}
	isAdmin := false
	if identity != nil {
		userID := identity.UserID
		author.UserID = &userID
		if identity.Name != "" {
			author.Name = identity.Name
		}
		if identity.Email != "" {
			author.Email = identity.Email
		}
		isAdmin = identity.IsAdmin
	}

	ticketID := c.Params("id")
	reply, err := h.replies.Add(c.UserContext(), ticketID, service.AddReplyInput{
		Content: c.FormValue("content"),
		Author:  author,
		IsAdmin: isAdmin,
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

func pagination(c *fiber.Ctx) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	pageSize, _ = strconv.Atoi(c.Query("page_size", "0"))
	return page, pageSize
}

// uploadsFromRequest extracts the "images" multipart field. A request
// without a multipart body yields no uploads.
func uploadsFromRequest(c *fiber.Ctx) []service.FileUpload {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	headers := form.File["images"]
	uploads := make([]service.FileUpload, 0, len(headers))
	for _, header := range headers {
		uploads = append(uploads, fileUpload(header))
	}
	return uploads
}

func fileUpload(header *multipart.FileHeader) service.FileUpload {
	return service.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
