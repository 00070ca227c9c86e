package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/sigec-booking/pkg/config"
)

// The booking API only reads and posts; the request id is exposed so
// browser clients can quote it in support requests.
const (
	defaultCORSMethods = "GET,POST,OPTIONS"
	defaultCORSHeaders = "Origin,Content-Type,Accept,Authorization,X-Request-ID"
	defaultCORSExpose  = "X-Request-ID"
	defaultCORSMaxAge  = 3600
)

// NewCORS creates a CORS middleware from application config. Unset lists
// fall back to the defaults above.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	origins := joinOr(cfg.AllowedOrigins, "*")
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}

	// fiber refuses credentials with a wildcard origin
	credentials := cfg.Credentials && origins != "*"

	return fibercors.New(fibercors.Config{
		AllowOrigins:     origins,
		AllowMethods:     joinOr(cfg.AllowedMethods, defaultCORSMethods),
		AllowHeaders:     joinOr(cfg.AllowedHeaders, defaultCORSHeaders),
		ExposeHeaders:    joinOr(cfg.ExposeHeaders, defaultCORSExpose),
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
