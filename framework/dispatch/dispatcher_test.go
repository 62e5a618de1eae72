package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/logging"
)

func newDispatcher() *dispatch.Dispatcher {
	return dispatch.New(logging.Discard(), nil)
}

func serve(t *testing.T, route dispatch.RouteInfo, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	newDispatcher().Handler(route)(rec, req)
	return rec
}

func okHandler(calls *int) dispatch.HandlerFunc {
	return func(c *dispatch.Context) error {
		*calls++
		return c.JSON(http.StatusOK, map[string]any{"ok": true})
	}
}

// ── Chain semantics ───────────────────────────────────────────────────────────

func TestChain_AllMiddlewareCallNext_HandlerRuns(t *testing.T) {
	var order []string
	mw := func(name string) dispatch.Middleware {
		return func(c *dispatch.Context, next dispatch.Next) error {
			order = append(order, name)
			return next()
		}
	}

	handlerCalls := 0
	rec := serve(t, dispatch.RouteInfo{
		Chain:   []dispatch.Middleware{mw("first"), mw("second")},
		Handler: okHandler(&handlerCalls),
	}, httptest.NewRequest("GET", "/things", nil))

	if handlerCalls != 1 {
		t.Errorf("handler ran %d times, want 1", handlerCalls)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("middleware order: %v", order)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestChain_MiddlewareSkipsNext_HandlerNeverRuns(t *testing.T) {
	shortCircuit := func(c *dispatch.Context, next dispatch.Next) error {
		return c.JSON(http.StatusTeapot, map[string]any{"stopped": true})
	}

	handlerCalls := 0
	rec := serve(t, dispatch.RouteInfo{
		Chain:   []dispatch.Middleware{shortCircuit},
		Handler: okHandler(&handlerCalls),
	}, httptest.NewRequest("GET", "/things", nil))

	if handlerCalls != 0 {
		t.Errorf("handler ran %d times, want 0 after short-circuit", handlerCalls)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want 418", rec.Code)
	}
}

func TestChain_MiddlewareError_RemainderAndHandlerSkipped(t *testing.T) {
	ran := map[string]int{}
	counting := func(name string) dispatch.Middleware {
		return func(c *dispatch.Context, next dispatch.Next) error {
			ran[name]++
			return next()
		}
	}
	failing := func(c *dispatch.Context, next dispatch.Next) error {
		return dispatch.ErrForbidden("nope")
	}

	handlerCalls := 0
	rec := serve(t, dispatch.RouteInfo{
		Chain:   []dispatch.Middleware{counting("before"), failing, counting("after")},
		Handler: okHandler(&handlerCalls),
	}, httptest.NewRequest("GET", "/things", nil))

	if ran["before"] != 1 {
		t.Errorf("middleware before the failure should run once, ran %d", ran["before"])
	}
	if ran["after"] != 0 {
		t.Errorf("middleware after the failure ran %d times, want 0", ran["after"])
	}
	if handlerCalls != 0 {
		t.Errorf("handler ran %d times, want 0", handlerCalls)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}

	// Exactly one well-formed JSON response
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a single JSON document: %v", err)
	}
}

func TestChain_HandlerError_ClassifiedOnce(t *testing.T) {
	rec := serve(t, dispatch.RouteInfo{
		Handler: func(c *dispatch.Context) error {
			return dispatch.ErrNotFound("no such user")
		},
	}, httptest.NewRequest("GET", "/users/9", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
	var body struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body: %v", err)
	}
	if body.Error.Code != "not_found" {
		t.Errorf("code: got %q", body.Error.Code)
	}
	if body.Error.RequestID == "" {
		t.Error("error responses should carry the request id")
	}
}

func TestChain_HandlerPanic_Becomes500(t *testing.T) {
	rec := serve(t, dispatch.RouteInfo{
		Handler: func(c *dispatch.Context) error {
			panic("something broke")
		},
	}, httptest.NewRequest("GET", "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "something broke") {
		t.Error("panic details must not leak into the response body")
	}
}

func TestChain_ErrorAfterResponse_DoesNotRewrite(t *testing.T) {
	rec := serve(t, dispatch.RouteInfo{
		Handler: func(c *dispatch.Context) error {
			_ = c.JSON(http.StatusOK, map[string]any{"ok": true})
			return dispatch.ErrNotFound("too late")
		},
	}, httptest.NewRequest("GET", "/things", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("first write should win: got %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "not_found") {
		t.Error("classified error must not overwrite an already-sent response")
	}
}

func TestChain_NoResponse_Returns204(t *testing.T) {
	rec := serve(t, dispatch.RouteInfo{
		Handler: func(c *dispatch.Context) error { return nil },
	}, httptest.NewRequest("GET", "/silent", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204 for a silent handler", rec.Code)
	}
}

// ── Body phase ────────────────────────────────────────────────────────────────

func TestBody_MalformedJSON_400BeforeChain(t *testing.T) {
	chainRan := 0
	spy := func(c *dispatch.Context, next dispatch.Next) error {
		chainRan++
		return next()
	}

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")

	handlerCalls := 0
	rec := serve(t, dispatch.RouteInfo{
		Chain:   []dispatch.Middleware{spy},
		Handler: okHandler(&handlerCalls),
	}, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if chainRan != 0 {
		t.Errorf("middleware ran %d times, want 0 for a malformed body", chainRan)
	}
	if handlerCalls != 0 {
		t.Errorf("handler ran %d times, want 0", handlerCalls)
	}
}

func TestBody_EmptyBodyOnPost_IsFine(t *testing.T) {
	handlerCalls := 0
	rec := serve(t, dispatch.RouteInfo{
		Handler: okHandler(&handlerCalls),
	}, httptest.NewRequest("POST", "/users", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200 for an empty body", rec.Code)
	}
	if handlerCalls != 1 {
		t.Errorf("handler should run for empty bodies")
	}
}

func TestBody_ParsedOnceAndVisibleToChain(t *testing.T) {
	var seenByMiddleware, seenByHandler any

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"name":"ada"}`))
	req.Header.Set("Content-Type", "application/json")

	serve(t, dispatch.RouteInfo{
		Chain: []dispatch.Middleware{func(c *dispatch.Context, next dispatch.Next) error {
			seenByMiddleware = c.Body()["name"]
			return next()
		}},
		Handler: func(c *dispatch.Context) error {
			seenByHandler = c.Body()["name"]
			return c.NoContent(http.StatusNoContent)
		},
	}, req)

	if seenByMiddleware != "ada" || seenByHandler != "ada" {
		t.Errorf("parsed body should be shared: middleware=%v handler=%v", seenByMiddleware, seenByHandler)
	}
}

func TestBody_GetRequest_NotParsed(t *testing.T) {
	serve(t, dispatch.RouteInfo{
		Handler: func(c *dispatch.Context) error {
			if c.Body() != nil {
				t.Error("GET requests should not enter the body phase")
			}
			return c.NoContent(http.StatusNoContent)
		},
	}, httptest.NewRequest("GET", "/things", nil))
}

// ── Path params ───────────────────────────────────────────────────────────────

func TestParams_PositionalValuesZippedByName(t *testing.T) {
	req := httptest.NewRequest("GET", "/users/42/orders/7", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	rctx.URLParams.Add("orderID", "7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	serve(t, dispatch.RouteInfo{
		ParamNames: []string{"id", "orderID"},
		Handler: func(c *dispatch.Context) error {
			if c.Param("id") != "42" {
				t.Errorf("id: got %q, want '42'", c.Param("id"))
			}
			if c.Param("orderID") != "7" {
				t.Errorf("orderID: got %q, want '7'", c.Param("orderID"))
			}
			return c.NoContent(http.StatusNoContent)
		},
	}, req)
}

// ── Custom classifier ─────────────────────────────────────────────────────────

type teapotClassifier struct{}

func (teapotClassifier) Classify(c *dispatch.Context, err error) (int, any) {
	return http.StatusTeapot, map[string]string{"classified": err.Error()}
}

func TestClassifier_InjectedCollaboratorDecides(t *testing.T) {
	d := dispatch.New(logging.Discard(), teapotClassifier{})
	rec := httptest.NewRecorder()
	d.Handler(dispatch.RouteInfo{
		Handler: func(c *dispatch.Context) error {
			return dispatch.ErrNotFound("irrelevant")
		},
	})(rec, httptest.NewRequest("GET", "/x", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("custom classifier should pick the status: got %d", rec.Code)
	}
}
