package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type TripHandler struct {
	service ports.TripService
	log     *zap.Logger
}

func NewTripHandler(service ports.TripService, log *zap.Logger) *TripHandler {
	return &TripHandler{
		service: service,
		log:     log,
	}
}

// SaveTripRequest carries the plan request fields plus an optional name
type SaveTripRequest struct {
	Name string `json:"name"`
	domain.TripPlanRequest
}

func (h *TripHandler) Plan(c *fiber.Ctx) error {
	var req domain.TripPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	// callers cannot attribute anonymous plans to someone else
	req.UserID = ""

	plan, err := h.service.PlanTrip(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(plan)
}

func (h *TripHandler) Save(c *fiber.Ctx) error {
	var req SaveTripRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	trip, err := h.service.SaveTrip(c.UserContext(), userID(c), req.Name, req.TripPlanRequest)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(trip)
}

func (h *TripHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	trips, err := h.service.ListTrips(c.UserContext(), userID(c), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"trips":  trips,
		"count":  len(trips),
		"offset": offset,
	})
}

func (h *TripHandler) Get(c *fiber.Ctx) error {
	trip, err := h.service.GetTrip(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(trip)
}

func (h *TripHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteTrip(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
