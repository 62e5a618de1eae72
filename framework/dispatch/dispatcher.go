package dispatch

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/armature/framework/logging"
)

// ── Chain types ───────────────────────────────────────────────────────────────

// Next continues the middleware chain. A middleware that never calls it
// short-circuits the request: everything behind it, the handler included,
// does not run.
type Next func() error

// Middleware is one chain stage. It may call next and let the request
// proceed, respond through the context without calling next, or return an
// error (or panic) and let the boundary classify it.
type Middleware func(c *Context, next Next) error

// HandlerFunc is the route handler at the end of the chain.
type HandlerFunc func(c *Context) error

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher executes the request lifecycle for mounted routes: body
// parsing, the middleware chain, the handler, and the single error
// boundary. One dispatcher serves all routes.
type Dispatcher struct {
	log        *logging.Logger
	classifier ErrorClassifier
}

// New creates a dispatcher. A nil classifier falls back to the
// DefaultClassifier.
func New(log *logging.Logger, classifier ErrorClassifier) *Dispatcher {
	if log == nil {
		log = logging.Default()
	}
	if classifier == nil {
		classifier = DefaultClassifier{}
	}
	return &Dispatcher{log: log, classifier: classifier}
}

// RouteInfo is everything the dispatcher needs to serve one route.
type RouteInfo struct {
	// Name labels the route in logs (usually the handler name).
	Name string

	// ParamNames is the ordered parameter name list from the compiled
	// route pattern. It is zipped with the transport's positional values
	// per request.
	ParamNames []string

	// Chain is the merged middleware chain, outermost first.
	Chain []Middleware

	// Handler runs after the whole chain called through.
	Handler HandlerFunc
}

// Handler builds the http.HandlerFunc serving one route.
func (d *Dispatcher) Handler(route RouteInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r, zipParams(route.ParamNames, positionalParams(r)))
		ctx.routeName = route.Name
		d.serve(ctx, route)
	}
}

// serve walks one request through the lifecycle.
func (d *Dispatcher) serve(ctx *Context, route RouteInfo) {
	start := time.Now()

	// Read the body exactly once, before any middleware runs. A malformed
	// body rejects the request without entering the chain.
	if isMutating(ctx.Method()) {
		if err := ctx.parseBody(); err != nil {
			d.respondError(ctx, err)
			return
		}
	}

	ctx.advance(StateMiddlewareChain)
	err := d.run(ctx, route)

	switch {
	case err != nil:
		d.respondError(ctx, err)
	case !ctx.Wrote() && !ctx.Aborted():
		// Chain completed without responding; close the request cleanly.
		_ = ctx.NoContent(http.StatusNoContent)
	}

	d.log.WithFields(logging.Fields{
		"request_id": ctx.RequestID,
		"method":     ctx.Method(),
		"path":       ctx.Path(),
		"route":      route.Name,
		"state":      ctx.State().String(),
		"duration":   time.Since(start).String(),
	}).Debug("request finished")
}

// run executes the chain and handler, converting any panic into an error
// so the boundary above catches every failure exactly once.
func (d *Dispatcher) run(ctx *Context, route RouteInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	var step func(i int) error
	step = func(i int) error {
		if i == len(route.Chain) {
			ctx.advance(StateHandlerExecution)
			return route.Handler(ctx)
		}
		return route.Chain[i](ctx, func() error { return step(i + 1) })
	}
	return step(0)
}

// respondError classifies err once and writes the response if nothing was
// written yet.
func (d *Dispatcher) respondError(ctx *Context, err error) {
	status, body := d.classifier.Classify(ctx, err)

	entry := d.log.WithFields(logging.Fields{
		"request_id": ctx.RequestID,
		"method":     ctx.Method(),
		"path":       ctx.Path(),
		"status":     status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}

	_ = ctx.JSON(status, body)
}

// ── Param plumbing ────────────────────────────────────────────────────────────

// positionalParams returns the transport's positional parameter values for
// the matched route, in pattern order.
func positionalParams(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	return rctx.URLParams.Values
}

// zipParams pairs the compiled parameter names with the positional values.
// Extra values are ignored; missing values leave the name unset.
func zipParams(names []string, values []string) map[string]string {
	params := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			params[name] = values[i]
		}
	}
	return params
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
