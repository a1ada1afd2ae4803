package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type TripRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTripRepository(db *gorm.DB, log *zap.Logger) ports.TripRepository {
	return &TripRepository{
		db:  db,
		log: log,
	}
}

func (r *TripRepository) Save(ctx context.Context, trip *domain.Trip) error {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	result := r.db.WithContext(ctx).Save(trip)
	if result.Error != nil {
		r.log.Error("Failed to save trip", zap.String("trip_id", trip.ID), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	var trip domain.Trip
	result := r.db.WithContext(ctx).First(&trip, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("trip", id)
		}
		return nil, result.Error
	}
	return &trip, nil
}

// GetByUserID lists a user's trips, newest first. An empty status matches all.
func (r *TripRepository) GetByUserID(ctx context.Context, userID string, status domain.TripStatus, limit, offset int) ([]domain.Trip, error) {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var trips []domain.Trip
	result := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&trips)
	if result.Error != nil {
		return nil, result.Error
	}
	return trips, nil
}

func (r *TripRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	result := r.db.WithContext(ctx).Delete(&domain.Trip{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("trip", id)
	}
	return nil
}
