package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type ChargingHandler struct {
	estimator ports.CostEstimator
	currency  string
	log       *zap.Logger
}

func NewChargingHandler(estimator ports.CostEstimator, currency string, log *zap.Logger) *ChargingHandler {
	return &ChargingHandler{
		estimator: estimator,
		currency:  currency,
		log:       log,
	}
}

type EstimateRequest struct {
	FromPercent        float64            `json:"from_percent"`
	ToPercent          float64            `json:"to_percent"`
	BatteryCapacityKWh float64            `json:"battery_capacity_kwh"`
	ChargerKind        domain.ChargerKind `json:"charger_kind"`
	Tier               domain.Tier        `json:"tier"`
}

// Estimate prices a single charging session. Capacity defaults to
// DefaultBatteryCapacityKWh and the charger kind to fast.
func (h *ChargingHandler) Estimate(c *fiber.Ctx) error {
	var req EstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.BatteryCapacityKWh == 0 {
		req.BatteryCapacityKWh = domain.DefaultBatteryCapacityKWh
	}
	if req.ChargerKind == "" {
		req.ChargerKind = domain.ChargerKindFast
	}
	tier, err := domain.ParseTier(string(req.Tier))
	if err != nil {
		return err
	}

	estimate, err := h.estimator.EstimateSessionCost(req.FromPercent, req.ToPercent, req.BatteryCapacityKWh, req.ChargerKind, tier)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"currency": h.currency,
		"estimate": estimate,
	})
}
