package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type StationHandler struct {
	catalog ports.StationCatalog
	recs    ports.RecommendationService
	log     *zap.Logger
}

func NewStationHandler(catalog ports.StationCatalog, recs ports.RecommendationService, log *zap.Logger) *StationHandler {
	return &StationHandler{
		catalog: catalog,
		recs:    recs,
		log:     log,
	}
}

// List returns the current catalog. Optional filters: kind=fast|slow and
// available=true.
func (h *StationHandler) List(c *fiber.Ctx) error {
	snap := h.catalog.Current()

	kind := domain.ChargerKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		return domain.NewValidationError("kind", "must be fast or slow")
	}
	onlyAvailable := c.QueryBool("available", false)

	stations := make([]domain.Station, 0, snap.Len())
	for _, st := range snap.Stations() {
		if onlyAvailable && !st.HasAvailable() {
			continue
		}
		if kind != "" && !hasKind(st, kind) {
			continue
		}
		stations = append(stations, st)
	}

	return c.JSON(fiber.Map{
		"catalog_version": snap.Version,
		"source":          snap.Source,
		"count":           len(stations),
		"stations":        stations,
	})
}

func (h *StationHandler) Get(c *fiber.Ctx) error {
	st, err := h.catalog.GetStation(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// Score ranks the catalog for the posted user context without costing
func (h *StationHandler) Score(c *fiber.Ctx) error {
	var user domain.UserContext
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	results, version, err := h.recs.ScoreStations(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"catalog_version": version,
		"results":         results,
	})
}

func hasKind(st domain.Station, kind domain.ChargerKind) bool {
	for _, ch := range st.Chargers {
		if ch.Kind == kind {
			return true
		}
	}
	return false
}
