package middleware

import (
	"strings"

	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// OriginAllowed rejects browser requests from origins outside allowedOrigins
// (comma separated). An empty list allows everything.
func OriginAllowed(allowedOrigins string) fiber.Handler {
	allowed := splitOrigins(allowedOrigins)
	return func(c *fiber.Ctx) error {
		origin := strings.TrimSpace(c.Get(fiber.HeaderOrigin))
		if origin == "" || len(allowed) == 0 {
			return c.Next()
		}
		if !originAllowed(origin, allowed) {
			return httpx.Forbidden(c, "forbidden_origin", "Origin not allowed")
		}
		return c.Next()
	}
}

func splitOrigins(s string) []string {
	out := make([]string, 0)
	for _, o := range validation.SplitCSV(s) {
		out = append(out, strings.TrimRight(o, "/"))
	}
	return out
}

func originAllowed(origin string, allowed []string) bool {
	origin = strings.TrimRight(origin, "/")
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}
