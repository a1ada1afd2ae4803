package mocks

import (
	"context"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// MockTripRepository is a mock implementation of TripRepository
type MockTripRepository struct {
	SaveFunc        func(ctx context.Context, trip *domain.Trip) error
	GetByIDFunc     func(ctx context.Context, id string) (*domain.Trip, error)
	GetByUserIDFunc func(ctx context.Context, userID string, status domain.TripStatus, limit, offset int) ([]domain.Trip, error)
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockTripRepository) Save(ctx context.Context, trip *domain.Trip) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, trip)
	}
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.NewNotFoundError("trip", id)
}

func (m *MockTripRepository) GetByUserID(ctx context.Context, userID string, status domain.TripStatus, limit, offset int) ([]domain.Trip, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID, status, limit, offset)
	}
	return []domain.Trip{}, nil
}

func (m *MockTripRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockStationRepository is a mock implementation of StationRepository
type MockStationRepository struct {
	FindAllFunc             func(ctx context.Context) ([]domain.Station, error)
	SaveFunc                func(ctx context.Context, station *domain.Station) error
	UpdateChargerStatusFunc func(ctx context.Context, update domain.ChargerStatusUpdate) error
}

func (m *MockStationRepository) FindAll(ctx context.Context) ([]domain.Station, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return []domain.Station{}, nil
}

func (m *MockStationRepository) Save(ctx context.Context, station *domain.Station) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, station)
	}
	return nil
}

func (m *MockStationRepository) UpdateChargerStatus(ctx context.Context, update domain.ChargerStatusUpdate) error {
	if m.UpdateChargerStatusFunc != nil {
		return m.UpdateChargerStatusFunc(ctx, update)
	}
	return nil
}
