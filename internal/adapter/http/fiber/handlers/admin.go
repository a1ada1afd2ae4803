package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type AdminHandler struct {
	catalog ports.StationCatalog
	log     *zap.Logger
}

func NewAdminHandler(catalog ports.StationCatalog, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		log:     log,
	}
}

func (h *AdminHandler) ReloadCatalog(c *fiber.Ctx) error {
	if err := h.catalog.Reload(c.UserContext()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	snap := h.catalog.Current()
	h.log.Info("Catalog reloaded on request", zap.Uint64("version", snap.Version))
	return c.JSON(fiber.Map{
		"catalog_version": snap.Version,
		"source":          snap.Source,
		"stations":        snap.Len(),
	})
}

// UpdateStatus applies a charger status change outside the feed
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var update domain.ChargerStatusUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.catalog.ApplyStatusUpdate(c.UserContext(), update); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"catalog_version": h.catalog.Current().Version})
}
