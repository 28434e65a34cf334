package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/wavechat-backend/internal/httpx"
)

// AllowedOrigins parses ALLOWED_ORIGINS. Empty means any origin, which
// suits local development where the frontend is served from the same app.
func AllowedOrigins() []string {
	return SplitCSV(strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")))
}

// OriginAllowed rejects cross-origin browser requests whose Origin header
// is not in the allow list. Requests without an Origin header pass.
func OriginAllowed(allowed []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := strings.TrimSpace(c.Get("Origin"))
		if origin == "" || len(allowed) == 0 {
			return c.Next()
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return c.Next()
			}
		}
		return httpx.Forbidden(c, "forbidden_origin", "Origin not allowed")
	}
}

func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
