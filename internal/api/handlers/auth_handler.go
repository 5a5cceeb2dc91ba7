package handlers

import (
	"errors"

	"holding-rag/internal/dto"
	"holding-rag/internal/models"
	"holding-rag/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Issue an access token
// @Description Verify username and password and return a bearer token
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} map[string]string
// @Router /token [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.authService.Login(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "نام کاربری یا رمز عبور اشتباه است",
			})
		}
		h.logger.Error("Login failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "خطای داخلی سرور. لطفاً دوباره تلاش کنید",
		})
	}

	return c.JSON(resp)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Refresh access token using refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} map[string]string
// @Router /token/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.authService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid refresh token",
			})
		}
		h.logger.Error("Token refresh failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "خطای داخلی سرور. لطفاً دوباره تلاش کنید",
		})
	}

	return c.JSON(resp)
}

// Me godoc
// @Summary Current identity
// @Description Return the identity derived from the bearer token
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} models.Identity
// @Failure 401 {object} map[string]string
// @Router /me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(identityFromContext(c))
}

// identityFromContext rebuilds the request identity from the claims the auth
// middleware stored in fiber locals.
func identityFromContext(c *fiber.Ctx) *models.Identity {
	username, _ := c.Locals("username").(string)
	role, _ := c.Locals("role").(string)
	tenant, _ := c.Locals("tenant").(string)

	return &models.Identity{
		Username: username,
		Role:     models.Role(role),
		Tenant:   tenant,
	}
}
