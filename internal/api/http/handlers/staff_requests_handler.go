package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-stack/request-service/internal/api/dto"
	"github.com/civic-stack/request-service/internal/auth"
	"github.com/civic-stack/request-service/internal/domain"
	"github.com/civic-stack/request-service/internal/lifecycle"
	"github.com/civic-stack/request-service/internal/service"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// StaffRequestsHandler manages the staff request surface, including the
// status transition endpoint.
type StaffRequestsHandler struct {
	requests  *service.RequestService
	lifecycle *service.LifecycleService
}

// NewStaffRequestsHandler constructs handler.
func NewStaffRequestsHandler(requestService *service.RequestService, lifecycleService *service.LifecycleService) *StaffRequestsHandler {
	return &StaffRequestsHandler{requests: requestService, lifecycle: lifecycleService}
}

// ChangeStatus POST /requests/:id/status.
func (h *StaffRequestsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	expectedVersion, err := parseIfMatch(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	action, ok := lifecycle.ParseAction(req.Action)
	if !ok {
		return apperrors.NewValidationError(fmt.Sprintf("unknown action %q", req.Action), nil)
	}

	input := service.ChangeStatusInput{
		RequestID:       c.Params("id"),
		Action:          action,
		Reason:          req.Reason,
		AssigneeID:      req.AssignedTo,
		ExpectedVersion: expectedVersion,
	}
	request, err := h.lifecycle.ChangeStatus(c.Context(), staffActor(principal), input)
	if err != nil {
		return err
	}
	setVersionHeader(c, request.Version)
	return c.JSON(dto.StatusChangeResponse{
		ID:        request.ID,
		Status:    request.Status,
		Version:   request.Version,
		UpdatedAt: request.UpdatedAt,
	})
}

// Assign POST /staff/requests/:id/assign.
func (h *StaffRequestsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	expectedVersion, err := parseIfMatch(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if strings.TrimSpace(req.AssignedTo) == "" {
		return apperrors.NewValidationError("assignedTo is required", nil)
	}

	request, err := h.lifecycle.Reassign(c.Context(), staffActor(principal), c.Params("id"), req.AssignedTo, expectedVersion)
	if err != nil {
		return err
	}
	setVersionHeader(c, request.Version)
	return c.JSON(dto.StatusChangeResponse{
		ID:        request.ID,
		Status:    request.Status,
		Version:   request.Version,
		UpdatedAt: request.UpdatedAt,
	})
}

// List GET /staff/requests.
func (h *StaffRequestsHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	filter := parseStaffQuery(c)
	requests, err := h.requests.ListForStaff(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /staff/requests/:id.
func (h *StaffRequestsHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	request, history, err := h.requests.GetForStaff(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	setVersionHeader(c, request.Version)
	return c.JSON(fiber.Map{"data": requestDetail(request, history)})
}

// GetByCode GET /staff/requests/code/:code.
func (h *StaffRequestsHandler) GetByCode(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	request, history, err := h.requests.GetForStaffByCode(c.Context(), c.Params("code"))
	if err != nil {
		return err
	}
	setVersionHeader(c, request.Version)
	return c.JSON(fiber.Map{"data": requestDetail(request, history)})
}

func parseStaffQuery(c *fiber.Ctx) service.RequestStaffFilter {
	filter := service.RequestStaffFilter{
		Statuses: parseStatuses(c.Query("status")),
	}
	if dept := c.Query("department_id"); dept != "" {
		filter.DepartmentID = &dept
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.Limit, filter.Offset = parsePaging(c)
	return filter
}

func staffActor(principal *auth.Principal) service.Actor {
	return service.Actor{
		Subject: domain.SubjectTypeStaff,
		ID:      principal.Staff.ID,
		Role:    principal.Role,
	}
}
