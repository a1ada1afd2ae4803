package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/sigec-route/pkg/config"
)

const (
	defaultCORSMethods = "GET,POST,DELETE,OPTIONS"
	defaultCORSHeaders = "Origin,Content-Type,Accept,Authorization"
	defaultCORSMaxAge  = 3600
)

// NewCORS creates a CORS middleware from application config. Credentials
// are dropped when every origin is allowed since browsers reject that pair.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	origins := joinOr(cfg.AllowedOrigins, "*")
	credentials := cfg.Credentials && origins != "*"

	maxAge := defaultCORSMaxAge
	if cfg.MaxAge > 0 {
		maxAge = cfg.MaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     origins,
		AllowMethods:     joinOr(cfg.AllowedMethods, defaultCORSMethods),
		AllowHeaders:     joinOr(cfg.AllowedHeaders, defaultCORSHeaders),
		ExposeHeaders:    strings.Join(cfg.ExposeHeaders, ","),
		AllowCredentials: credentials,
		MaxAge:           maxAge,
	})
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ",")
}
