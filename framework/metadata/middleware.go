package metadata

import (
	"time"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/httpkit/validation"
)

// ── Middleware descriptors ────────────────────────────────────────────────────

// MiddlewareKind names a built-in middleware behavior.
type MiddlewareKind string

const (
	MwAuth      MiddlewareKind = "auth"
	MwValidate  MiddlewareKind = "validate"
	MwRateLimit MiddlewareKind = "rate_limit"
	MwCORS      MiddlewareKind = "cors"
	MwLogging   MiddlewareKind = "logging"
	MwCache     MiddlewareKind = "cache"
	MwCustom    MiddlewareKind = "custom"
)

// Middleware describes one middleware attachment declaratively. The
// middleware builder turns descriptors into executable chain entries; the
// descriptor itself stays inert data so route tables can be inspected and
// compared in tests.
//
// Only the fields matching Kind are meaningful.
type Middleware struct {
	Kind MiddlewareKind

	// Roles restricts Auth to principals holding at least one of the
	// listed roles. Empty means any authenticated principal.
	Roles []string

	// Rules is the validation schema for Validate.
	Rules validation.Rules

	// RPS and Burst shape RateLimit.
	RPS   float64
	Burst int

	// Origins is the CORS allow-list. Empty allows any origin.
	Origins []string

	// TTL bounds Cache entries.
	TTL time.Duration

	// Fn is the Custom middleware function.
	Fn dispatch.Middleware

	// Name labels Custom middleware in logs.
	Name string
}

// Auth requires an authenticated principal, optionally holding one of the
// given roles.
func Auth(roles ...string) Middleware {
	return Middleware{Kind: MwAuth, Roles: roles}
}

// Validate checks the parsed request body against a rule schema and rejects
// the request with a validation error response when it fails.
func Validate(rules validation.Rules) Middleware {
	return Middleware{Kind: MwValidate, Rules: rules}
}

// RateLimit bounds request throughput per client.
func RateLimit(rps float64, burst int) Middleware {
	return Middleware{Kind: MwRateLimit, RPS: rps, Burst: burst}
}

// CORS answers preflight requests and stamps allow headers for the given
// origins. No origins allows all.
func CORS(origins ...string) Middleware {
	return Middleware{Kind: MwCORS, Origins: origins}
}

// Logging logs one structured line per request.
func Logging() Middleware {
	return Middleware{Kind: MwLogging}
}

// Cache replays recent responses for identical GET requests within ttl.
func Cache(ttl time.Duration) Middleware {
	return Middleware{Kind: MwCache, TTL: ttl}
}

// Custom wraps a hand-written middleware function.
func Custom(name string, fn dispatch.Middleware) Middleware {
	return Middleware{Kind: MwCustom, Name: name, Fn: fn}
}
