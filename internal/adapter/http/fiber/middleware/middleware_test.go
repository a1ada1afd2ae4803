package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/mocks"
	"github.com/seu-repo/sigec-route/internal/service/trip"
	"github.com/seu-repo/sigec-route/pkg/config"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("lat", "bad"), fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.NewNotFoundError("station", "x")), fiber.StatusNotFound},
		{domain.ErrForbidden, fiber.StatusForbidden},
		{trip.ErrStorageDisabled, fiber.StatusServiceUnavailable},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	auth := &mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Principal, error) {
			if token != "valid" {
				return nil, errors.New("invalid")
			}
			return &domain.Principal{UserID: "u-1", Role: domain.UserRoleAdmin, TokenID: "jti"}, nil
		},
	}

	app := fiber.New()
	app.Get("/me", AuthRequired(auth), func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(p.UserID + ":" + c.Locals("user_id").(string))
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"invalid token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "Bearer valid", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		MinRequests:      3,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.3,
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Use(CircuitBreaker(cfg, zap.NewNop()))
	app.Get("/fail", func(c *fiber.Ctx) error { return errors.New("database down") })
	app.Get("/bad", func(c *fiber.Ctx) error { return domain.NewValidationError("q", "bad") })

	// client errors never trip the breaker
	for i := 0; i < 5; i++ {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/bad", nil))
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	}

	for i := 0; i < 3; i++ {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("request %d: expected 500, got %d", i, resp.StatusCode)
		}
	}

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503 once open, got %d", resp.StatusCode)
	}
}

func TestNewCORS(t *testing.T) {
	app := fiber.New()
	app.Use(NewCORS(config.CORSConfig{
		AllowedOrigins: []string{"https://maps.example.com"},
		Credentials:    true,
	}))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://maps.example.com" {
		t.Errorf("unexpected allow origin %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected credentials to be allowed, got %q", got)
	}
}

func TestNewCORS_WildcardDropsCredentials(t *testing.T) {
	// fiber panics on credentials with a wildcard origin
	app := fiber.New()
	app.Use(NewCORS(config.CORSConfig{Credentials: true}))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "https://any.example.com")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
