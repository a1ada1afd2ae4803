package mocks

import (
	"context"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// MockAuthService is a mock implementation of AuthService interface
type MockAuthService struct {
	ValidateTokenFunc func(ctx context.Context, token string) (*domain.Principal, error)
	RefreshTokenFunc  func(ctx context.Context, refreshToken string) (string, error)
	RevokeTokenFunc   func(ctx context.Context, tokenID string) error
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*domain.Principal, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	return &domain.Principal{UserID: "user-1", Role: domain.UserRoleUser}, nil
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return "access-token", nil
}

func (m *MockAuthService) RevokeToken(ctx context.Context, tokenID string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, tokenID)
	}
	return nil
}

// MockStationCatalog serves a fixed snapshot unless overridden
type MockStationCatalog struct {
	Snapshot              *domain.StationSnapshot
	GetStationFunc        func(ctx context.Context, id string) (*domain.Station, error)
	ReloadFunc            func(ctx context.Context) error
	ApplyStatusUpdateFunc func(ctx context.Context, update domain.ChargerStatusUpdate) error
}

func NewMockStationCatalog(stations ...domain.Station) *MockStationCatalog {
	return &MockStationCatalog{Snapshot: domain.NewStationSnapshot(1, "mock", stations)}
}

func (m *MockStationCatalog) Current() *domain.StationSnapshot {
	return m.Snapshot
}

func (m *MockStationCatalog) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	if m.GetStationFunc != nil {
		return m.GetStationFunc(ctx, id)
	}
	st, ok := m.Snapshot.Get(id)
	if !ok {
		return nil, domain.NewNotFoundError("station", id)
	}
	return &st, nil
}

func (m *MockStationCatalog) Reload(ctx context.Context) error {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return nil
}

func (m *MockStationCatalog) ApplyStatusUpdate(ctx context.Context, update domain.ChargerStatusUpdate) error {
	if m.ApplyStatusUpdateFunc != nil {
		return m.ApplyStatusUpdateFunc(ctx, update)
	}
	return nil
}

// MockRecommendationService is a mock implementation of RecommendationService interface
type MockRecommendationService struct {
	RecommendFunc     func(ctx context.Context, user domain.UserContext) (*domain.RecommendationResponse, error)
	ScoreStationsFunc func(ctx context.Context, user domain.UserContext) ([]domain.ScoreResult, uint64, error)
}

func (m *MockRecommendationService) Recommend(ctx context.Context, user domain.UserContext) (*domain.RecommendationResponse, error) {
	if m.RecommendFunc != nil {
		return m.RecommendFunc(ctx, user)
	}
	return &domain.RecommendationResponse{}, nil
}

func (m *MockRecommendationService) ScoreStations(ctx context.Context, user domain.UserContext) ([]domain.ScoreResult, uint64, error) {
	if m.ScoreStationsFunc != nil {
		return m.ScoreStationsFunc(ctx, user)
	}
	return []domain.ScoreResult{}, 0, nil
}

// MockTripService is a mock implementation of TripService interface
type MockTripService struct {
	PlanTripFunc   func(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlan, error)
	SaveTripFunc   func(ctx context.Context, userID, name string, req domain.TripPlanRequest) (*domain.Trip, error)
	GetTripFunc    func(ctx context.Context, userID, id string) (*domain.Trip, error)
	ListTripsFunc  func(ctx context.Context, userID string, limit, offset int) ([]domain.Trip, error)
	DeleteTripFunc func(ctx context.Context, userID, id string) error
}

func (m *MockTripService) PlanTrip(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlan, error) {
	if m.PlanTripFunc != nil {
		return m.PlanTripFunc(ctx, req)
	}
	return &domain.TripPlan{}, nil
}

func (m *MockTripService) SaveTrip(ctx context.Context, userID, name string, req domain.TripPlanRequest) (*domain.Trip, error) {
	if m.SaveTripFunc != nil {
		return m.SaveTripFunc(ctx, userID, name, req)
	}
	return &domain.Trip{UserID: userID, Name: name}, nil
}

func (m *MockTripService) GetTrip(ctx context.Context, userID, id string) (*domain.Trip, error) {
	if m.GetTripFunc != nil {
		return m.GetTripFunc(ctx, userID, id)
	}
	return nil, domain.NewNotFoundError("trip", id)
}

func (m *MockTripService) ListTrips(ctx context.Context, userID string, limit, offset int) ([]domain.Trip, error) {
	if m.ListTripsFunc != nil {
		return m.ListTripsFunc(ctx, userID, limit, offset)
	}
	return []domain.Trip{}, nil
}

func (m *MockTripService) DeleteTrip(ctx context.Context, userID, id string) error {
	if m.DeleteTripFunc != nil {
		return m.DeleteTripFunc(ctx, userID, id)
	}
	return nil
}
