package middleware

import (
	"net/http"

	"github.com/km-arc/armature/framework/dispatch"
)

// cors stamps allow headers for permitted origins and answers preflight
// requests without running the rest of the chain. An empty origin list
// (or a "*" entry) allows every origin.
func cors(origins []string) dispatch.Middleware {
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}

	return func(c *dispatch.Context, next dispatch.Next) error {
		origin := c.Header("Origin")
		if origin != "" && (allowAll || originAllowed(origins, origin)) {
			h := c.Response().Raw().Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "3600")
			h.Add("Vary", "Origin")
		}

		if c.Method() == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next()
	}
}

func originAllowed(origins []string, origin string) bool {
	for _, allowed := range origins {
		if allowed == origin {
			return true
		}
	}
	return false
}
