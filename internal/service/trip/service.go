package trip

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/queue"
	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
	"github.com/seu-repo/sigec-route/internal/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PlannedEvent is published on trips.planned for every computed plan
type PlannedEvent struct {
	PlanID         string            `json:"plan_id"`
	UserID         string            `json:"user_id,omitempty"`
	Status         domain.PlanStatus `json:"status"`
	Stops          int               `json:"stops"`
	TotalCost      float64           `json:"total_cost"`
	LowConfidence  bool              `json:"low_confidence"`
	CatalogVersion uint64            `json:"catalog_version"`
	PlannedAt      time.Time         `json:"planned_at"`
}

type Service struct {
	planner ports.TripPlanner
	catalog ports.StationCatalog
	repo    ports.TripRepository
	mq      queue.MessageQueue
	log     *zap.Logger
}

// NewService wires the planner to the catalog. repo and mq may be nil;
// without a repository the saved-trip operations are unavailable.
func NewService(planner ports.TripPlanner, catalog ports.StationCatalog, repo ports.TripRepository, mq queue.MessageQueue, log *zap.Logger) ports.TripService {
	return &Service{
		planner: planner,
		catalog: catalog,
		repo:    repo,
		mq:      mq,
		log:     log,
	}
}

// ErrStorageDisabled is returned by saved-trip operations when no repository is configured
var ErrStorageDisabled = errors.New("saved trips are not enabled")

func (s *Service) PlanTrip(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlan, error) {
	_, span := telemetry.StartSpan(ctx, "trip.PlanTrip")
	defer span.End()

	snap := s.catalog.Current()

	start := time.Now()
	plan, err := s.planner.Plan(req, snap.Stations())
	telemetry.PlanningLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	plan.CatalogVersion = snap.Version

	span.SetAttributes(
		attribute.String("plan.status", string(plan.Status)),
		attribute.Int("plan.stops", len(plan.Stops)),
		attribute.Int64("catalog.version", int64(snap.Version)),
	)

	telemetry.TripPlansTotal.WithLabelValues(string(plan.Status)).Inc()
	telemetry.TripPlanStops.Observe(float64(len(plan.Stops)))
	if plan.LowConfidence {
		telemetry.LowConfidencePlans.Inc()
		s.log.Warn("Trip plan has low confidence",
			zap.String("plan_id", plan.ID),
			zap.Strings("warnings", plan.Warnings),
		)
	}

	s.publishPlanned(req.UserID, &plan)

	s.log.Info("Trip planned",
		zap.String("plan_id", plan.ID),
		zap.String("status", string(plan.Status)),
		zap.Int("stops", len(plan.Stops)),
		zap.Float64("total_distance_km", plan.TotalDistanceKm),
	)
	return &plan, nil
}

func (s *Service) publishPlanned(userID string, plan *domain.TripPlan) {
	if s.mq == nil {
		return
	}
	data, _ := json.Marshal(PlannedEvent{
		PlanID:         plan.ID,
		UserID:         userID,
		Status:         plan.Status,
		Stops:          len(plan.Stops),
		TotalCost:      plan.TotalCost,
		LowConfidence:  plan.LowConfidence,
		CatalogVersion: plan.CatalogVersion,
		PlannedAt:      plan.CreatedAt,
	})
	if err := s.mq.Publish(queue.SubjectTripPlanned, data); err != nil {
		s.log.Warn("Failed to publish trip planned event", zap.Error(err))
	}
}

// SaveTrip plans req and stores the result under userID
func (s *Service) SaveTrip(ctx context.Context, userID, name string, req domain.TripPlanRequest) (*domain.Trip, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "is required")
	}

	req.UserID = userID
	plan, err := s.PlanTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Trip " + plan.CreatedAt.Format("2006-01-02 15:04")
	}

	trip := &domain.Trip{
		ID:              uuid.New().String(),
		UserID:          userID,
		Name:            name,
		Plan:            *plan,
		TotalDistanceKm: plan.TotalDistanceKm,
		EstimatedCost:   plan.TotalCost,
		StopCount:       len(plan.Stops),
		Status:          domain.TripStatusPlanned,
	}

	if err := s.repo.Save(ctx, trip); err != nil {
		s.log.Error("Failed to save trip", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.log.Info("Trip saved", zap.String("trip_id", trip.ID), zap.String("user_id", userID))
	return trip, nil
}

func (s *Service) GetTrip(ctx context.Context, userID, id string) (*domain.Trip, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return trip, nil
}

func (s *Service) ListTrips(ctx context.Context, userID string, limit, offset int) ([]domain.Trip, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByUserID(ctx, userID, "", limit, offset)
}

func (s *Service) DeleteTrip(ctx context.Context, userID, id string) error {
	if _, err := s.GetTrip(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Trip deleted", zap.String("trip_id", id), zap.String("user_id", userID))
	return nil
}
