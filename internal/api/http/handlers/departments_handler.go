package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civic-stack/request-service/internal/repository"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// DepartmentsHandler serves department reference data so clients can
// populate category and routing pickers.
type DepartmentsHandler struct {
	departments repository.DepartmentRepository
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departments repository.DepartmentRepository) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments}
}

// List GET /departments. Only active departments are offered.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	departments, err := h.departments.ListActive(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]fiber.Map, 0, len(departments))
	for _, dept := range departments {
		items = append(items, fiber.Map{
			"id":   dept.ID,
			"name": dept.Name,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
