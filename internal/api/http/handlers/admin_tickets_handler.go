package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claim-service/internal/api/dto"
	"github.com/spec-kit/claim-service/internal/auth"
	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/repository"
	"github.com/spec-kit/claim-service/internal/service"
	apperrors "github.com/spec-kit/claim-service/pkg/util/errorutil"
)

// AdminTicketsHandler exposes the claim workflow to support admins.
type AdminTicketsHandler struct {
	claims *service.ClaimService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(claims *service.ClaimService) *AdminTicketsHandler {
	return &AdminTicketsHandler{claims: claims}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := adminActor(c); err != nil {
		return err
	}
	filter := parseQueueQuery(c)
	tickets, err := h.claims.ListQueue(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := adminActor(c); err != nil {
		return err
	}
	ticket, err := h.claims.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	audit, err := h.claims.AuditTrail(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, audit)})
}

// Permissions GET /admin/tickets/:id/permissions.
//
// Advisory UI enablement only; every action re-checks server-side against
// fresh ticket state.
func (h *AdminTicketsHandler) Permissions(c *fiber.Ctx) error {
	actorID, err := adminActor(c)
	if err != nil {
		return err
	}
	perms, err := h.claims.Permissions(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return err
	}
	result := make(fiber.Map, len(perms))
	for action, allowed := range perms {
		result[strings.ToLower(string(action))] = allowed
	}
	return c.JSON(fiber.Map{"data": result})
}

// Claim POST /admin/tickets/:id/claim.
func (h *AdminTicketsHandler) Claim(c *fiber.Ctx) error {
	return h.perform(c, domain.ActionClaim)
}

// Release POST /admin/tickets/:id/release.
func (h *AdminTicketsHandler) Release(c *fiber.Ctx) error {
	return h.perform(c, domain.ActionRelease)
}

// Handle POST /admin/tickets/:id/handle.
func (h *AdminTicketsHandler) Handle(c *fiber.Ctx) error {
	return h.perform(c, domain.ActionHandle)
}

// Respond POST /admin/tickets/:id/respond.
func (h *AdminTicketsHandler) Respond(c *fiber.Ctx) error {
	actorID, err := adminActor(c)
	if err != nil {
		return err
	}
	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.claims.Respond(c.Context(), c.Params("id"), actorID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// Close POST /admin/tickets/:id/close.
func (h *AdminTicketsHandler) Close(c *fiber.Ctx) error {
	actorID, err := adminActor(c)
	if err != nil {
		return err
	}
	var req dto.CloseRequest
	// close note is optional; an empty body is fine
	_ = c.BodyParser(&req)
	ticket, err := h.claims.Close(c.Context(), c.Params("id"), actorID, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Reopen POST /admin/tickets/:id/reopen.
func (h *AdminTicketsHandler) Reopen(c *fiber.Ctx) error {
	return h.perform(c, domain.ActionReopen)
}

func (h *AdminTicketsHandler) perform(c *fiber.Ctx, action domain.TicketAction) error {
	actorID, err := adminActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.claims.Perform(c.Context(), c.Params("id"), actorID, action, service.ActionPayload{})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func adminActor(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return "", apperrors.NewUnauthorized("admin required")
	}
	return principal.Admin.ID, nil
}

func parseQueueQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if claimedBy := c.Query("claimed_by"); claimedBy != "" {
		filter.ClaimedBy = &claimedBy
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}
