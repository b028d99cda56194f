package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-stack/request-service/internal/api/dto"
	"github.com/civic-stack/request-service/internal/auth"
	"github.com/civic-stack/request-service/internal/domain"
	"github.com/civic-stack/request-service/internal/service"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// RequestsHandler manages citizen request endpoints.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requestService}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}

	input := service.RequestCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Draft:       req.Draft,
	}
	request, err := h.requests.CreateRequest(c.Context(), principal.Citizen.ID, input)
	if err != nil {
		return err
	}
	setVersionHeader(c, request.Version)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestSummary(request)})
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	filter := service.RequestCitizenFilter{
		Statuses: parseStatuses(c.Query("status")),
	}
	filter.Limit, filter.Offset = parsePaging(c)

	requests, err := h.requests.ListForCitizen(c.Context(), principal.Citizen.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	request, history, err := h.requests.GetForCitizen(c.Context(), principal.Citizen.ID, c.Params("id"))
	if err != nil {
		return err
	}
	setVersionHeader(c, request.Version)
	return c.JSON(fiber.Map{"data": requestDetail(request, history)})
}

// Submit POST /requests/:id/submit.
func (h *RequestsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	expectedVersion, err := parseIfMatch(c)
	if err != nil {
		return err
	}
	request, err := h.requests.SubmitDraft(c.Context(), principal.Citizen.ID, c.Params("id"), expectedVersion)
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

// parseIfMatch extracts the expected version from the If-Match header. A
// missing or malformed header is a 400, before any state is consulted.
func parseIfMatch(c *fiber.Ctx) (int64, error) {
	raw := strings.TrimSpace(c.Get(fiber.HeaderIfMatch))
	if raw == "" {
		return 0, apperrors.NewBadRequest("If-Match header required")
	}
	raw = strings.Trim(raw, `"`)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version <= 0 {
		return 0, apperrors.NewBadRequest("If-Match must be a positive version")
	}
	return version, nil
}

func setVersionHeader(c *fiber.Ctx, version int64) {
	c.Set(fiber.HeaderETag, `"`+strconv.FormatInt(version, 10)+`"`)
}

func parseStatuses(raw string) []domain.Status {
	if raw == "" {
		return nil
	}
	var statuses []domain.Status
	for _, part := range strings.Split(raw, ",") {
		status := domain.Status(strings.TrimSpace(part))
		if status.Valid() {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

func parsePaging(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
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

func requestSummary(request *domain.ServiceRequest) dto.RequestSummary {
	return dto.RequestSummary{
		ID:        request.ID,
		Code:      request.Code,
		Title:     request.Title,
		Category:  request.Category,
		Status:    request.Status,
		Version:   request.Version,
		CreatedAt: request.CreatedAt,
		UpdatedAt: request.UpdatedAt,
	}
}

func requestDetail(request *domain.ServiceRequest, history []domain.EventLogEntry) dto.RequestDetailResponse {
	entries := make([]dto.EventLogResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.EventLogResponse{
			ID:        entry.ID,
			Type:      entry.Type,
			Payload:   entry.Payload,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto.RequestDetailResponse{
		ID:           request.ID,
		Code:         request.Code,
		Title:        request.Title,
		Description:  request.Description,
		Category:     request.Category,
		Location:     request.Location,
		Status:       request.Status,
		Version:      request.Version,
		DepartmentID: request.DepartmentID,
		AssignedTo:   request.AssignedTo,
		CreatedAt:    request.CreatedAt,
		UpdatedAt:    request.UpdatedAt,
		ClosedAt:     request.ClosedAt,
		Events:       entries,
	}
}
