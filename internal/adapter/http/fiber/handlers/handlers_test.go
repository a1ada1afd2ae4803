package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/mocks"
	"github.com/seu-repo/sigec-route/internal/service/pricing"
)

func testStations() []domain.Station {
	return []domain.Station{
		{
			ID:       "st-1",
			Name:     "Fast Hub",
			Location: domain.Location{Lat: 37.5, Lng: 127.0},
			Chargers: []domain.Charger{{ID: "st-1-1", Kind: domain.ChargerKindFast, PowerKW: 150, Status: domain.ChargerStatusAvailable}},
		},
		{
			ID:       "st-2",
			Name:     "Slow Corner",
			Location: domain.Location{Lat: 37.6, Lng: 127.1},
			Chargers: []domain.Charger{{ID: "st-2-1", Kind: domain.ChargerKindSlow, PowerKW: 50, Status: domain.ChargerStatusOccupied}},
		},
	}
}

type testDeps struct {
	catalog *mocks.MockStationCatalog
	recs    *mocks.MockRecommendationService
	trips   *mocks.MockTripService
	auth    *mocks.MockAuthService
}

func newTestApp(d testDeps) *fiber.App {
	log := zap.NewNop()
	if d.catalog == nil {
		d.catalog = mocks.NewMockStationCatalog(testStations()...)
	}
	if d.recs == nil {
		d.recs = &mocks.MockRecommendationService{}
	}
	if d.trips == nil {
		d.trips = &mocks.MockTripService{}
	}
	if d.auth == nil {
		d.auth = &mocks.MockAuthService{}
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	api := app.Group("/api/v1")

	stations := NewStationHandler(d.catalog, d.recs, log)
	api.Get("/stations", stations.List)
	api.Get("/stations/:id", stations.Get)
	api.Post("/stations/score", stations.Score)

	api.Post("/recommendations", NewRecommendationHandler(d.recs, log).Recommend)
	api.Post("/charging/estimate", NewChargingHandler(pricing.NewEstimator(nil), "KRW", log).Estimate)

	trips := NewTripHandler(d.trips, log)
	api.Post("/trips/plan", trips.Plan)

	authHandler := NewAuthHandler(d.auth, log)
	api.Post("/auth/refresh", authHandler.Refresh)

	protected := api.Group("", middleware.AuthRequired(d.auth))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/trips", trips.Save)
	protected.Get("/trips", trips.List)
	protected.Get("/trips/:id", trips.Get)
	protected.Delete("/trips/:id", trips.Delete)

	admin := NewAdminHandler(d.catalog, log)
	adminGroup := protected.Group("/admin", middleware.RequireRole(domain.UserRoleAdmin))
	adminGroup.Post("/catalog/reload", admin.ReloadCatalog)
	adminGroup.Post("/stations/status", admin.UpdateStatus)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestStations_ListAndFilter(t *testing.T) {
	app := newTestApp(testDeps{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/stations", nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["count"].(float64) != 2 {
		t.Errorf("expected 2 stations, got %v", body["count"])
	}
	if body["catalog_version"].(float64) != 1 {
		t.Errorf("expected version 1, got %v", body["catalog_version"])
	}

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/stations?available=true", nil, "")
	if body["count"].(float64) != 1 {
		t.Errorf("expected 1 available station, got %v", body["count"])
	}

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/stations?kind=slow", nil, "")
	if body["count"].(float64) != 1 {
		t.Errorf("expected 1 slow station, got %v", body["count"])
	}

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/stations?kind=warp", nil, "")
	if resp.StatusCode != fiber.StatusBadRequest || body["field"] != "kind" {
		t.Errorf("expected 400 on kind, got %d %v", resp.StatusCode, body)
	}
}

func TestStations_Get(t *testing.T) {
	app := newTestApp(testDeps{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/stations/st-1", nil, "")
	if resp.StatusCode != fiber.StatusOK || body["id"] != "st-1" {
		t.Fatalf("expected station st-1, got %d %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/stations/missing", nil, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStations_ScoreValidation(t *testing.T) {
	recs := &mocks.MockRecommendationService{
		ScoreStationsFunc: func(ctx context.Context, user domain.UserContext) ([]domain.ScoreResult, uint64, error) {
			if err := user.Normalize(); err != nil {
				return nil, 0, err
			}
			return []domain.ScoreResult{{Total: 80}}, 7, nil
		},
	}
	app := newTestApp(testDeps{recs: recs})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/stations/score", domain.UserContext{
		Location:       &domain.Location{Lat: 37.5, Lng: 127},
		BatteryPercent: 40,
	}, "")
	if resp.StatusCode != fiber.StatusOK || body["catalog_version"].(float64) != 7 {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/stations/score", domain.UserContext{
		Location:       &domain.Location{Lat: 37.5, Lng: 127},
		BatteryPercent: 140,
	}, "")
	if resp.StatusCode != fiber.StatusBadRequest || body["field"] != "battery_percent" {
		t.Errorf("expected 400 on battery_percent, got %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/stations/score", map[string]interface{}{
		"battery_percent": 50,
	}, "")
	if resp.StatusCode != fiber.StatusBadRequest || body["field"] != "location" {
		t.Errorf("expected 400 on location, got %d %v", resp.StatusCode, body)
	}
}

func TestRecommendations_InternalErrorIsHidden(t *testing.T) {
	recs := &mocks.MockRecommendationService{
		RecommendFunc: func(ctx context.Context, user domain.UserContext) (*domain.RecommendationResponse, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	app := newTestApp(testDeps{recs: recs})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/recommendations", domain.UserContext{}, "")
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("internal error leaked: %v", body["error"])
	}
}

func TestCharging_Estimate(t *testing.T) {
	app := newTestApp(testDeps{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/charging/estimate", EstimateRequest{
		FromPercent:        20,
		ToPercent:          80,
		BatteryCapacityKWh: 60,
		ChargerKind:        domain.ChargerKindFast,
		Tier:               domain.TierPremium,
	}, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", resp.StatusCode, body)
	}
	est := body["estimate"].(map[string]interface{})
	if est["final_cost"].(float64) != 8100 || est["points_earned"].(float64) != 81 {
		t.Errorf("unexpected estimate %v", est)
	}
	if body["currency"] != "KRW" {
		t.Errorf("expected KRW, got %v", body["currency"])
	}

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/charging/estimate", EstimateRequest{FromPercent: 80, ToPercent: 20}, "")
	if resp.StatusCode != fiber.StatusBadRequest || body["field"] != "to_percent" {
		t.Errorf("expected 400 on to_percent, got %d %v", resp.StatusCode, body)
	}
}

func TestTrips_PlanIsAnonymous(t *testing.T) {
	var got domain.TripPlanRequest
	trips := &mocks.MockTripService{
		PlanTripFunc: func(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlan, error) {
			got = req
			return &domain.TripPlan{ID: "plan-1", Status: domain.PlanStatusNoChargeNeeded}, nil
		},
	}
	app := newTestApp(testDeps{trips: trips})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/trips/plan", domain.TripPlanRequest{UserID: "someone-else"}, "")
	if resp.StatusCode != fiber.StatusOK || body["id"] != "plan-1" {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, body)
	}
	if got.UserID != "" {
		t.Errorf("anonymous plan should not carry a user id, got %q", got.UserID)
	}
}

func TestTrips_PlanRejectsMissingCoordinates(t *testing.T) {
	trips := &mocks.MockTripService{
		PlanTripFunc: func(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlan, error) {
			if err := req.Validate(); err != nil {
				return nil, err
			}
			return &domain.TripPlan{ID: "plan-1"}, nil
		},
	}
	app := newTestApp(testDeps{trips: trips})

	// an absent origin must not decode to the (0,0) point in the Gulf of Guinea
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/trips/plan", map[string]interface{}{
		"destination":      map[string]float64{"lat": 37.5, "lng": 127},
		"battery_percent":  50,
		"vehicle_range_km": 300,
	}, "")
	if resp.StatusCode != fiber.StatusBadRequest || body["field"] != "origin" {
		t.Errorf("expected 400 on origin, got %d %v", resp.StatusCode, body)
	}
}

func TestTrips_RequireAuth(t *testing.T) {
	app := newTestApp(testDeps{})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/trips", nil, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	auth := &mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Principal, error) {
			return nil, errors.New("expired")
		},
	}
	app = newTestApp(testDeps{auth: auth})
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/trips", nil, "stale")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401 with invalid token, got %d", resp.StatusCode)
	}
}

func TestTrips_SaveUsesCaller(t *testing.T) {
	var gotUser, gotName string
	trips := &mocks.MockTripService{
		SaveTripFunc: func(ctx context.Context, userID, name string, req domain.TripPlanRequest) (*domain.Trip, error) {
			gotUser, gotName = userID, name
			return &domain.Trip{ID: "trip-1", UserID: userID, Name: name}, nil
		},
	}
	app := newTestApp(testDeps{trips: trips})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/trips", map[string]interface{}{
		"name":             "Seoul to Busan",
		"origin":           map[string]float64{"lat": 37.5, "lng": 127},
		"destination":      map[string]float64{"lat": 35.1, "lng": 129},
		"battery_percent":  50,
		"vehicle_range_km": 400,
	}, "token")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d %v", resp.StatusCode, body)
	}
	if gotUser != "user-1" || gotName != "Seoul to Busan" {
		t.Errorf("unexpected save arguments %q %q", gotUser, gotName)
	}
}

func TestTrips_ErrorMapping(t *testing.T) {
	trips := &mocks.MockTripService{
		GetTripFunc: func(ctx context.Context, userID, id string) (*domain.Trip, error) {
			if id == "other" {
				return nil, domain.ErrForbidden
			}
			return nil, domain.NewNotFoundError("trip", id)
		},
		DeleteTripFunc: func(ctx context.Context, userID, id string) error {
			return nil
		},
	}
	app := newTestApp(testDeps{trips: trips})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/trips/other", nil, "token")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/trips/missing", nil, "token")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/trips/mine", nil, "token")
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestTrips_ListPassesPaging(t *testing.T) {
	var gotLimit, gotOffset int
	trips := &mocks.MockTripService{
		ListTripsFunc: func(ctx context.Context, userID string, limit, offset int) ([]domain.Trip, error) {
			gotLimit, gotOffset = limit, offset
			return []domain.Trip{{ID: "a"}}, nil
		},
	}
	app := newTestApp(testDeps{trips: trips})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/trips?limit=5&offset=10", nil, "token")
	if resp.StatusCode != fiber.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, body)
	}
	if gotLimit != 5 || gotOffset != 10 {
		t.Errorf("expected limit 5 offset 10, got %d %d", gotLimit, gotOffset)
	}
}

func TestAuth_RefreshAndLogout(t *testing.T) {
	var revoked string
	auth := &mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Principal, error) {
			return &domain.Principal{UserID: "user-1", Role: domain.UserRoleUser, TokenID: "jti-1"}, nil
		},
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (string, error) {
			if refreshToken != "good" {
				return "", errors.New("invalid")
			}
			return "new-access", nil
		},
		RevokeTokenFunc: func(ctx context.Context, tokenID string) error {
			revoked = tokenID
			return nil
		},
	}
	app := newTestApp(testDeps{auth: auth})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", RefreshRequest{RefreshToken: "good"}, "")
	if resp.StatusCode != fiber.StatusOK || body["access_token"] != "new-access" {
		t.Fatalf("unexpected refresh response %d %v", resp.StatusCode, body)
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", RefreshRequest{RefreshToken: "bad"}, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401 on bad refresh token, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/refresh", RefreshRequest{}, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 on empty refresh token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/logout", nil, "token")
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if revoked != "jti-1" {
		t.Errorf("expected jti-1 revoked, got %q", revoked)
	}
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	app := newTestApp(testDeps{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/admin/catalog/reload", nil, "token")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for a regular user, got %d", resp.StatusCode)
	}
}

func TestAdmin_StatusUpdate(t *testing.T) {
	catalog := mocks.NewMockStationCatalog(testStations()...)
	var applied domain.ChargerStatusUpdate
	catalog.ApplyStatusUpdateFunc = func(ctx context.Context, update domain.ChargerStatusUpdate) error {
		if update.StationID == "missing" {
			return domain.NewNotFoundError("station", update.StationID)
		}
		applied = update
		return nil
	}
	auth := &mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Principal, error) {
			return &domain.Principal{UserID: "ops", Role: domain.UserRoleAdmin}, nil
		},
	}
	app := newTestApp(testDeps{catalog: catalog, auth: auth})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/admin/stations/status", domain.ChargerStatusUpdate{
		StationID: "st-2", ChargerID: "st-2-1", Status: domain.ChargerStatusAvailable,
	}, "token")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if applied.ChargerID != "st-2-1" || applied.Status != domain.ChargerStatusAvailable {
		t.Errorf("unexpected update %+v", applied)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/stations/status", domain.ChargerStatusUpdate{
		StationID: "missing", ChargerID: "x", Status: domain.ChargerStatusAvailable,
	}, "token")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/admin/catalog/reload", nil, "token")
	if resp.StatusCode != fiber.StatusOK || body["stations"].(float64) != 2 {
		t.Errorf("unexpected reload response %d %v", resp.StatusCode, body)
	}
}
