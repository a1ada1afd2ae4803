package health

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// CatalogVersionHeader carries the served snapshot version on readiness
// responses so a rollout can wait for every instance to converge
const CatalogVersionHeader = "X-Catalog-Version"

// FiberHandler creates Fiber routes for health checks
type FiberHandler struct {
	service *Service
}

// NewFiberHandler creates a new Fiber health handler
func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes registers health check routes
func (h *FiberHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/healthz", h.Health) // Kubernetes alias
	app.Get("/ready", h.Ready)
	app.Get("/readyz", h.Ready) // Kubernetes alias
	app.Get("/live", h.Health)  // Kubernetes liveness
}

// Health answers liveness checks
func (h *FiberHandler) Health(c *fiber.Ctx) error {
	response := h.service.Health(c.UserContext())
	return c.Status(fiber.StatusOK).JSON(response)
}

// Ready answers readiness checks and reports the served catalog version
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	response := h.service.Ready(c.UserContext())

	status := fiber.StatusOK
	if !response.Ready {
		status = fiber.StatusServiceUnavailable
	}
	if response.Catalog != nil {
		c.Set(CatalogVersionHeader, strconv.FormatUint(response.Catalog.Version, 10))
	}

	return c.Status(status).JSON(response)
}
