package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// setupDB connects to DATABASE_URL when set, otherwise starts a container
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("sigec_route_test"),
			tcpostgres.WithUsername("sigec"),
			tcpostgres.WithPassword("sigec_test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Fatalf("Failed to start postgres container: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("Failed to terminate postgres container: %v", err)
			}
		})

		url, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("Failed to get connection string: %v", err)
		}
	}

	db, err := NewConnection(url, Options{}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("TRUNCATE chargers, stations, saved_trips")
		Close(db)
	})
	return db
}

func TestStationRepository_SaveAndFindAll(t *testing.T) {
	db := setupDB(t)
	repo := NewStationRepository(db, zap.NewNop())
	ctx := context.Background()

	st := &domain.Station{
		ID:       "st-1",
		Name:     "Paulista",
		Address:  "Av. Paulista, 1000",
		Location: domain.Location{Lat: -23.56, Lng: -46.65},
		Chargers: []domain.Charger{
			{ID: "c2", Kind: domain.ChargerKindSlow, PowerKW: 22, Connector: "Type2", Status: domain.ChargerStatusOccupied},
			{ID: "c1", Kind: domain.ChargerKindFast, PowerKW: 150, Connector: "CCS2", Status: domain.ChargerStatusAvailable},
		},
		Usage: domain.UsageStats{
			PeakHours:      []domain.HourRange{{Start: 17, End: 20}},
			AvgWaitMinutes: 7,
			Amenities:      []string{"cafe"},
		},
	}
	if err := repo.Save(ctx, st); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stations, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all failed: %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("expected 1 station, got %d", len(stations))
	}
	got := stations[0]
	if got.Chargers[0].ID != "c2" || got.Chargers[1].ID != "c1" {
		t.Errorf("charger order not preserved: %+v", got.Chargers)
	}
	if len(got.Usage.PeakHours) != 1 || got.Usage.PeakHours[0].Start != 17 || got.Usage.Amenities[0] != "cafe" {
		t.Errorf("usage not round-tripped: %+v", got.Usage)
	}

	// saving again replaces the charger list
	st.Chargers = st.Chargers[:1]
	if err := repo.Save(ctx, st); err != nil {
		t.Fatalf("resave failed: %v", err)
	}
	stations, _ = repo.FindAll(ctx)
	if len(stations[0].Chargers) != 1 {
		t.Errorf("expected 1 charger after resave, got %d", len(stations[0].Chargers))
	}
}

func TestStationRepository_UpdateChargerStatus(t *testing.T) {
	db := setupDB(t)
	repo := NewStationRepository(db, zap.NewNop())
	ctx := context.Background()

	_ = repo.Save(ctx, &domain.Station{
		ID:       "st-2",
		Name:     "Campinas",
		Location: domain.Location{Lat: -22.9, Lng: -47.06},
		Chargers: []domain.Charger{{ID: "c1", Kind: domain.ChargerKindFast, PowerKW: 150, Status: domain.ChargerStatusAvailable}},
	})

	wait := 15.0
	err := repo.UpdateChargerStatus(ctx, domain.ChargerStatusUpdate{
		StationID:      "st-2",
		ChargerID:      "c1",
		Status:         domain.ChargerStatusMaintenance,
		AvgWaitMinutes: &wait,
		ObservedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stations, _ := repo.FindAll(ctx)
	if stations[0].Chargers[0].Status != domain.ChargerStatusMaintenance || stations[0].Usage.AvgWaitMinutes != 15 {
		t.Errorf("update not stored: %+v", stations[0])
	}

	err = repo.UpdateChargerStatus(ctx, domain.ChargerStatusUpdate{StationID: "st-2", ChargerID: "nope", Status: domain.ChargerStatusAvailable})
	if !domain.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestTripRepository_CRUD(t *testing.T) {
	db := setupDB(t)
	repo := NewTripRepository(db, zap.NewNop())
	ctx := context.Background()

	trip := &domain.Trip{
		ID:     "trip-1",
		UserID: "user-1",
		Name:   "Weekend",
		Plan: domain.TripPlan{
			ID:     "plan-1",
			Status: domain.PlanStatusStopsPlanned,
			Stops:  []domain.ChargingStop{{Order: 1, StationID: "st-1", BatteryInPercent: 22, BatteryOutPercent: 80}},
		},
		StopCount: 1,
		Status:    domain.TripStatusPlanned,
	}
	if err := repo.Save(ctx, trip); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	_ = repo.Save(ctx, &domain.Trip{ID: "trip-2", UserID: "user-1", Name: "Old", Status: domain.TripStatusArchived})
	_ = repo.Save(ctx, &domain.Trip{ID: "trip-3", UserID: "user-2", Name: "Other", Status: domain.TripStatusPlanned})

	got, err := repo.GetByID(ctx, "trip-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Plan.ID != "plan-1" || len(got.Plan.Stops) != 1 || got.Plan.Stops[0].BatteryOutPercent != 80 {
		t.Errorf("plan not round-tripped: %+v", got.Plan)
	}

	all, _ := repo.GetByUserID(ctx, "user-1", "", 10, 0)
	if len(all) != 2 {
		t.Errorf("expected 2 trips for user-1, got %d", len(all))
	}
	planned, _ := repo.GetByUserID(ctx, "user-1", domain.TripStatusPlanned, 10, 0)
	if len(planned) != 1 || planned[0].ID != "trip-1" {
		t.Errorf("status filter failed: %+v", planned)
	}

	if err := repo.Delete(ctx, "trip-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "trip-1"); !domain.IsNotFound(err) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "trip-1"); !domain.IsNotFound(err) {
		t.Errorf("expected NotFoundError on second delete, got %v", err)
	}
}
