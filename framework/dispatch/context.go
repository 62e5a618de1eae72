package dispatch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/km-arc/armature/framework/httpkit"
)

// ── Principal ─────────────────────────────────────────────────────────────────

// Principal is the authenticated caller attached to a request context by
// the auth middleware.
type Principal struct {
	Subject string
	Name    string
	Roles   []string
	Claims  map[string]any
}

// HasRole reports whether the principal holds the role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ── Context ───────────────────────────────────────────────────────────────────

// Context carries one request through the middleware chain and handler. A
// fresh Context is built per request and never pooled or reused.
//
// Writes go through a single atomic gate: the first JSON/Text/NoContent
// call wins, every later attempt is discarded, and nothing is written once
// the request is aborted. The gate holds under racing completions.
type Context struct {
	req *httpkit.Request
	res *httpkit.Response
	ww  middleware.WrapResponseWriter

	// RequestID is a per-request UUID, also stamped on error responses.
	RequestID string

	state atomic.Int32

	params map[string]string

	rawBody []byte
	body    map[string]any

	valuesMu sync.RWMutex
	values   map[string]any

	principalMu sync.RWMutex
	principal   *Principal

	routeName string
}

// NewContext builds the per-request context. params maps the compiled
// parameter names onto the transport's positional values.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	if params == nil {
		params = map[string]string{}
	}
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	return &Context{
		req:       httpkit.NewRequest(r),
		res:       httpkit.NewResponse(ww),
		ww:        ww,
		RequestID: uuid.NewString(),
		params:    params,
		values:    make(map[string]any),
	}
}

// ── Raw access ────────────────────────────────────────────────────────────────

// Request returns the wrapped request.
func (c *Context) Request() *httpkit.Request { return c.req }

// Response returns the wrapped response writer.
func (c *Context) Response() *httpkit.Response { return c.res }

// Raw returns the underlying *http.Request.
func (c *Context) Raw() *http.Request { return c.req.Raw() }

// Method returns the HTTP method.
func (c *Context) Method() string { return c.req.Method() }

// Path returns the URL path.
func (c *Context) Path() string { return c.req.Path() }

// Header returns a request header value.
func (c *Context) Header(key string) string { return c.req.Header(key) }

// Query returns a query-string value with an optional fallback.
func (c *Context) Query(key string, fallback ...string) string {
	return c.req.Query(key, fallback...)
}

// RouteName returns the name of the matched handler, for logs.
func (c *Context) RouteName() string { return c.routeName }

// ── Path params ───────────────────────────────────────────────────────────────

// Param returns a named path parameter ("" when absent).
func (c *Context) Param(name string) string { return c.params[name] }

// Params returns a copy of all path parameters.
func (c *Context) Params() map[string]string {
	out := make(map[string]string, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

// ── Body ──────────────────────────────────────────────────────────────────────

// parseBody reads the body exactly once and parses it according to the
// content type. Mutating methods call it before the middleware chain; an
// empty body is fine, a malformed one is a *BodyParseError.
func (c *Context) parseBody() error {
	if !c.advance(StateParsingBody) {
		return nil
	}

	r := c.req.Raw()
	ct := c.req.ContentType()

	switch {
	case strings.Contains(ct, "application/json"), ct == "":
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return &BodyParseError{Cause: err}
		}
		r.Body.Close()
		c.rawBody = raw
		if len(raw) == 0 {
			return nil
		}
		var parsed map[string]any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return &BodyParseError{Cause: err}
		}
		c.body = parsed
	default:
		// Form-encoded bodies parse through the request wrapper
		if err := r.ParseForm(); err != nil {
			return &BodyParseError{Cause: err}
		}
		parsed := make(map[string]any, len(r.PostForm))
		for k, vals := range r.PostForm {
			if len(vals) > 0 {
				parsed[k] = vals[0]
			}
		}
		c.body = parsed
	}
	return nil
}

// Body returns the parsed body fields. Nil when the request had no body or
// a non-mutating method.
func (c *Context) Body() map[string]any { return c.body }

// BindBody unmarshals the raw JSON body into v. Form bodies bind through
// Request().Bind instead.
func (c *Context) BindBody(v any) error {
	if len(c.rawBody) == 0 {
		return &BodyParseError{Cause: errEmptyBody}
	}
	if err := json.Unmarshal(c.rawBody, v); err != nil {
		return &BodyParseError{Cause: err}
	}
	return nil
}

// BodyStrings flattens the parsed body into the string map the validation
// engine consumes. Requests without a parsed body fall back to query and
// form input.
func (c *Context) BodyStrings() map[string]string {
	if c.body == nil {
		return c.req.All()
	}
	out := make(map[string]string, len(c.body))
	for k, v := range c.body {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		case float64:
			out[k] = trimFloat(t)
		case bool:
			if t {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// ── Values bag ────────────────────────────────────────────────────────────────

// Set stores a request-scoped value for later chain stages.
func (c *Context) Set(key string, value any) {
	c.valuesMu.Lock()
	c.values[key] = value
	c.valuesMu.Unlock()
}

// Get fetches a request-scoped value.
func (c *Context) Get(key string) (any, bool) {
	c.valuesMu.RLock()
	v, ok := c.values[key]
	c.valuesMu.RUnlock()
	return v, ok
}

// ── Principal ─────────────────────────────────────────────────────────────────

// SetPrincipal attaches the authenticated caller.
func (c *Context) SetPrincipal(p *Principal) {
	c.principalMu.Lock()
	c.principal = p
	c.principalMu.Unlock()
}

// Principal returns the authenticated caller, or nil.
func (c *Context) Principal() *Principal {
	c.principalMu.RLock()
	defer c.principalMu.RUnlock()
	return c.principal
}

// ── State machine ─────────────────────────────────────────────────────────────

// State returns the request's current lifecycle state.
func (c *Context) State() State { return State(c.state.Load()) }

// advance moves the state forward. It fails when the request already
// reached a terminal state or the target is behind the current state.
func (c *Context) advance(s State) bool {
	for {
		cur := State(c.state.Load())
		if cur.terminal() || s <= cur {
			return false
		}
		if c.state.CompareAndSwap(int32(cur), int32(s)) {
			return true
		}
	}
}

// Abort marks the request aborted. Later writes are silently discarded; a
// response already sent stays sent.
func (c *Context) Abort() {
	for {
		cur := State(c.state.Load())
		if cur.terminal() {
			return
		}
		if c.state.CompareAndSwap(int32(cur), int32(StateAborted)) {
			return
		}
	}
}

// Aborted reports whether the request was aborted.
func (c *Context) Aborted() bool { return c.State() == StateAborted }

// Wrote reports whether a response has been sent.
func (c *Context) Wrote() bool { return c.State() == StateResponseSent }

// beginWrite claims the single write slot. Exactly one caller wins over
// the request's lifetime; an aborted or cancelled request admits none.
func (c *Context) beginWrite() bool {
	if c.req.Raw().Context().Err() != nil {
		c.Abort()
		return false
	}
	for {
		cur := State(c.state.Load())
		if cur.terminal() {
			return false
		}
		if c.state.CompareAndSwap(int32(cur), int32(StateResponseSent)) {
			return true
		}
	}
}

// ── Response writers ──────────────────────────────────────────────────────────

// JSON writes a JSON response. The first writer wins; later calls and
// writes after abort are no-ops.
func (c *Context) JSON(status int, v any) error {
	if !c.beginWrite() {
		return nil
	}
	c.res.JSON(status, v)
	return nil
}

// Text writes a plain-text response under the same write-once gate.
func (c *Context) Text(status int, body string) error {
	if !c.beginWrite() {
		return nil
	}
	w := c.res.Raw()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
	return nil
}

// NoContent writes an empty response with the given status.
func (c *Context) NoContent(status int) error {
	if !c.beginWrite() {
		return nil
	}
	c.res.Raw().WriteHeader(status)
	return nil
}

// Blob writes a raw body with the given content type under the same
// write-once gate. The response cache replays stored replies with it.
func (c *Context) Blob(status int, contentType string, body []byte) error {
	if !c.beginWrite() {
		return nil
	}
	w := c.res.Raw()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}

// Status returns the HTTP status written so far, 0 before any write.
func (c *Context) Status() int { return c.ww.Status() }

// TeeBody mirrors every subsequent body write into w. The response
// cache captures replies as they stream out.
func (c *Context) TeeBody(w io.Writer) { c.ww.Tee(w) }

var errEmptyBody = fmt.Errorf("empty request body")

// trimFloat renders JSON numbers without a trailing ".0" for integral
// values, matching how form input would have arrived.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
