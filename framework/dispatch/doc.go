// Package dispatch executes the request lifecycle for compiled routes.
//
// Every request moves through a small state machine:
//
//	received → parsing_body → middleware_chain → handler_execution → response_sent
//
// with aborted reachable from any state when the client goes away. Mutating
// methods have their body read exactly once before the chain; a malformed
// body answers 400 without running any middleware.
//
// Middleware receives the shared *Context and a Next continuation:
//
//	func RequireTenant(c *dispatch.Context, next dispatch.Next) error {
//	    if c.Header("X-Tenant") == "" {
//	        return dispatch.ErrForbidden("tenant header required")
//	    }
//	    c.Set("tenant", c.Header("X-Tenant"))
//	    return next()
//	}
//
// A middleware may respond without calling next (short-circuit), and any
// error or panic from any stage is caught exactly once at the dispatcher
// boundary, classified into (status, body) by the ErrorClassifier, and
// written only if nothing was written yet. The context's write gate is a
// single atomic slot, so exactly one response goes out per request even
// under racing completions.
package dispatch
