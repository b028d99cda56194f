package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civic-stack/request-service/internal/api/dto"
	"github.com/civic-stack/request-service/internal/service"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// StaffAuthHandler exposes auth endpoints for staff.
type StaffAuthHandler struct {
	auth *service.AuthService
}

// NewStaffAuthHandler constructs handler.
func NewStaffAuthHandler(authService *service.AuthService) *StaffAuthHandler {
	return &StaffAuthHandler{auth: authService}
}

// Login handles POST /auth/staff/login.
func (h *StaffAuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("email and password required")
	}

	staff, token, exp, err := h.auth.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": fiber.Map{
				"id":    staff.ID,
				"name":  staff.Name,
				"email": staff.Email,
				"role":  staff.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
