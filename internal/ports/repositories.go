package ports

import (
	"context"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// TripRepository handles saved trip persistence
type TripRepository interface {
	Save(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	GetByUserID(ctx context.Context, userID string, status domain.TripStatus, limit, offset int) ([]domain.Trip, error)
	Delete(ctx context.Context, id string) error
}

// StationRepository is the database-backed station catalog source
type StationRepository interface {
	FindAll(ctx context.Context) ([]domain.Station, error)
	Save(ctx context.Context, station *domain.Station) error
	UpdateChargerStatus(ctx context.Context, update domain.ChargerStatusUpdate) error
}
