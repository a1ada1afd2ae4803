package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type AuthHandler struct {
	service ports.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service ports.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log,
	}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "refresh_token is required", "field": "refresh_token"})
	}

	token, err := h.service.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		h.log.Warn("Token refresh failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired refresh token"})
	}

	return c.JSON(fiber.Map{"access_token": token})
}

// Logout revokes the token the request was authenticated with
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	if err := h.service.RevokeToken(c.UserContext(), principal.TokenID); err != nil {
		return err
	}

	h.log.Info("User logged out", zap.String("user_id", principal.UserID))
	return c.SendStatus(fiber.StatusNoContent)
}
