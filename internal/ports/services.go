package ports

import (
	"context"

	"github.com/seu-repo/sigec-route/internal/domain"
)

type AuthService interface {
	ValidateToken(ctx context.Context, token string) (*domain.Principal, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	RevokeToken(ctx context.Context, tokenID string) error
}

// CostEstimator prices a charging session
type CostEstimator interface {
	EstimateSessionCost(fromPct, toPct, capacityKWh float64, kind domain.ChargerKind, tier domain.Tier) (domain.CostEstimate, error)
}

type StationScorer interface {
	Rank(stations []domain.Station, from domain.Location, prefs domain.Preferences) []domain.ScoreResult
}

type TripPlanner interface {
	Plan(req domain.TripPlanRequest, stations []domain.Station) (domain.TripPlan, error)
}

// StationCatalog serves the current catalog snapshot
type StationCatalog interface {
	Current() *domain.StationSnapshot
	GetStation(ctx context.Context, id string) (*domain.Station, error)
	Reload(ctx context.Context) error
	ApplyStatusUpdate(ctx context.Context, update domain.ChargerStatusUpdate) error
}

type RecommendationService interface {
	Recommend(ctx context.Context, user domain.UserContext) (*domain.RecommendationResponse, error)
	ScoreStations(ctx context.Context, user domain.UserContext) ([]domain.ScoreResult, uint64, error)
}

type TripService interface {
	PlanTrip(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlan, error)
	SaveTrip(ctx context.Context, userID, name string, req domain.TripPlanRequest) (*domain.Trip, error)
	GetTrip(ctx context.Context, userID, id string) (*domain.Trip, error)
	ListTrips(ctx context.Context, userID string, limit, offset int) ([]domain.Trip, error)
	DeleteTrip(ctx context.Context, userID, id string) error
}
