package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type stationRecord struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"not null"`
	Address        string
	Latitude       float64 `gorm:"not null"`
	Longitude      float64 `gorm:"not null"`
	AvgWaitMinutes float64
	PeakHours      []domain.HourRange `gorm:"serializer:json;type:jsonb"`
	Amenities      []string           `gorm:"serializer:json;type:jsonb"`
	Chargers       []chargerRecord    `gorm:"foreignKey:StationID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (stationRecord) TableName() string {
	return "stations"
}

type chargerRecord struct {
	StationID string  `gorm:"primaryKey"`
	ID        string  `gorm:"primaryKey"`
	Position  int     `gorm:"not null;default:0"`
	Kind      string  `gorm:"not null"`
	PowerKW   float64 `gorm:"column:power_kw"`
	Connector string
	Status    string `gorm:"not null;index"`
}

func (chargerRecord) TableName() string {
	return "chargers"
}

func toRecord(st *domain.Station) stationRecord {
	rec := stationRecord{
		ID:             st.ID,
		Name:           st.Name,
		Address:        st.Address,
		Latitude:       st.Location.Lat,
		Longitude:      st.Location.Lng,
		AvgWaitMinutes: st.Usage.AvgWaitMinutes,
		PeakHours:      st.Usage.PeakHours,
		Amenities:      st.Usage.Amenities,
		UpdatedAt:      st.UpdatedAt,
	}
	for i, c := range st.Chargers {
		rec.Chargers = append(rec.Chargers, chargerRecord{
			StationID: st.ID,
			ID:        c.ID,
			Position:  i,
			Kind:      string(c.Kind),
			PowerKW:   c.PowerKW,
			Connector: c.Connector,
			Status:    string(c.Status),
		})
	}
	return rec
}

func (r stationRecord) toDomain() domain.Station {
	st := domain.Station{
		ID:       r.ID,
		Name:     r.Name,
		Address:  r.Address,
		Location: domain.Location{Lat: r.Latitude, Lng: r.Longitude},
		Chargers: make([]domain.Charger, 0, len(r.Chargers)),
		Usage: domain.UsageStats{
			PeakHours:      r.PeakHours,
			AvgWaitMinutes: r.AvgWaitMinutes,
			Amenities:      r.Amenities,
		},
		UpdatedAt: r.UpdatedAt,
	}
	for _, c := range r.Chargers {
		st.Chargers = append(st.Chargers, domain.Charger{
			ID:        c.ID,
			Kind:      domain.ChargerKind(c.Kind),
			PowerKW:   c.PowerKW,
			Connector: c.Connector,
			Status:    domain.ChargerStatus(c.Status),
		})
	}
	return st
}

type StationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStationRepository(db *gorm.DB, log *zap.Logger) ports.StationRepository {
	return &StationRepository{
		db:  db,
		log: log,
	}
}

func (r *StationRepository) FindAll(ctx context.Context) ([]domain.Station, error) {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	var recs []stationRecord
	result := r.db.WithContext(ctx).
		Preload("Chargers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("id ASC").
		Find(&recs)
	if result.Error != nil {
		r.log.Error("Failed to load stations", zap.Error(result.Error))
		return nil, result.Error
	}

	stations := make([]domain.Station, len(recs))
	for i, rec := range recs {
		stations[i] = rec.toDomain()
	}
	return stations, nil
}

// Save upserts the station and replaces its charger list
func (r *StationRepository) Save(ctx context.Context, station *domain.Station) error {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	rec := toRecord(station)
	chargers := rec.Chargers
	rec.Chargers = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("station_id = ?", rec.ID).Delete(&chargerRecord{}).Error; err != nil {
			return err
		}
		if len(chargers) > 0 {
			return tx.Create(&chargers).Error
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to save station", zap.String("station_id", station.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *StationRepository) UpdateChargerStatus(ctx context.Context, update domain.ChargerStatusUpdate) error {
	start := time.Now()
	defer func() { telemetry.DatabaseLatency.Observe(time.Since(start).Seconds()) }()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&chargerRecord{}).
			Where("station_id = ? AND id = ?", update.StationID, update.ChargerID).
			Update("status", string(update.Status))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("charger", update.ChargerID)
		}

		fields := map[string]interface{}{"updated_at": update.ObservedAt}
		if update.AvgWaitMinutes != nil {
			fields["avg_wait_minutes"] = *update.AvgWaitMinutes
		}
		return tx.Model(&stationRecord{}).Where("id = ?", update.StationID).Updates(fields).Error
	})
}
