package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-stack/request-service/internal/api/dto"
	"github.com/civic-stack/request-service/internal/service"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// CitizensHandler exposes auth endpoints for citizens.
type CitizensHandler struct {
	auth *service.AuthService
}

// NewCitizensHandler constructs handler.
func NewCitizensHandler(authService *service.AuthService) *CitizensHandler {
	return &CitizensHandler{auth: authService}
}

// Register handles POST /auth/citizens/register.
func (h *CitizensHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewBadRequest("name, email, password required")
	}

	citizen, token, exp, err := h.auth.RegisterCitizen(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"citizen": fiber.Map{
				"id":    citizen.ID,
				"name":  citizen.Name,
				"email": citizen.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/citizens/login.
func (h *CitizensHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("email and password required")
	}

	citizen, token, exp, err := h.auth.LoginCitizen(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"citizen": fiber.Map{
				"id":    citizen.ID,
				"name":  citizen.Name,
				"email": citizen.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
