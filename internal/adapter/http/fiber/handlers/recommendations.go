package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type RecommendationHandler struct {
	service ports.RecommendationService
	log     *zap.Logger
}

func NewRecommendationHandler(service ports.RecommendationService, log *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		log:     log,
	}
}

func (h *RecommendationHandler) Recommend(c *fiber.Ctx) error {
	var user domain.UserContext
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	resp, err := h.service.Recommend(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
