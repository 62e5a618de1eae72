package routing_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/logging"
	"github.com/km-arc/armature/framework/metadata"
	"github.com/km-arc/armature/framework/routing"
)

type widgetController struct {
	prefix string
}

func (wc *widgetController) Show(c *dispatch.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"widget": wc.prefix + c.Param("id")})
}

// customOnly builds middleware from custom descriptors and rejects
// everything else.
func customOnly(desc metadata.Middleware) (dispatch.Middleware, error) {
	if desc.Fn == nil {
		return nil, errors.New("unsupported middleware kind")
	}
	return desc.Fn, nil
}

func mountAll(t *testing.T, decls []*metadata.Declaration, instances map[string]any, build routing.MiddlewareBuilder, global ...metadata.Middleware) (*routing.Router, error) {
	t.Helper()

	routes, err := routing.NewCompiler().Use(global...).Compile(decls)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	r := routing.New()
	d := dispatch.New(logging.Discard(), nil)
	return r, routing.Mount(r, d, routes, instances, build)
}

func TestMount_MethodExpressionBoundToInstance(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("WidgetController", "/widgets").
			Get("/:id", (*widgetController).Show).
			Register(r)
	})

	instances := map[string]any{"WidgetController": &widgetController{prefix: "w-"}}
	r, err := mountAll(t, decls, instances, customOnly)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["widget"] != "w-42" {
		t.Errorf("widget: %q", body["widget"])
	}
}

func TestMount_MiddlewareTiersRunInOrder(t *testing.T) {
	var order []string
	mw := func(name string) metadata.Middleware {
		return metadata.Custom(name, func(c *dispatch.Context, next dispatch.Next) error {
			order = append(order, name)
			return next()
		})
	}

	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("OrderController", "/orders").
			Use(mw("class")).
			Get("/recent", func(c *dispatch.Context) error {
				order = append(order, "handler")
				return c.Text(http.StatusOK, "ok")
			}, mw("method")).
			Register(r)
	})

	r, err := mountAll(t, decls, nil, customOnly, mw("global"))
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/recent", nil))

	want := "global,class,method,handler"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("execution order: %s, want %s", got, want)
	}
}

func TestMount_PlainFuncNeedsNoInstance(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("HealthController", "/").
			Get("health", func(c *dispatch.Context) error {
				return c.Text(http.StatusOK, "up")
			}).
			Register(r)
	})

	r, err := mountAll(t, decls, nil, customOnly)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "up" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMount_MissingInstanceFails(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("WidgetController", "/widgets").
			Get("/:id", (*widgetController).Show).
			Register(r)
	})

	_, err := mountAll(t, decls, nil, customOnly)
	var me *routing.MountError
	if !errors.As(err, &me) {
		t.Fatalf("error: %v", err)
	}
	if me.Controller != "WidgetController" {
		t.Errorf("controller: %q", me.Controller)
	}
}

func TestMount_UnsupportedHandlerShapeFails(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("BadController", "/bad").
			Get("/x", func(s string) int { return 0 }).
			Register(r)
	})

	_, err := mountAll(t, decls, nil, customOnly)
	var me *routing.MountError
	if !errors.As(err, &me) {
		t.Fatalf("error: %v", err)
	}
	if !strings.Contains(me.Reason, "unsupported handler shape") {
		t.Errorf("reason: %q", me.Reason)
	}
}

func TestMount_MiddlewareBuilderErrorFails(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("SecureController", "/secure").
			Get("/x", func(c *dispatch.Context) error { return nil }, metadata.Auth("admin")).
			Register(r)
	})

	_, err := mountAll(t, decls, nil, customOnly)
	var me *routing.MountError
	if !errors.As(err, &me) {
		t.Fatalf("error: %v", err)
	}
}

func TestMount_ParamsReachTheHandler(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("OrderController", "/users").
			Get("/:id/orders/:orderID", func(c *dispatch.Context) error {
				return c.Text(http.StatusOK, c.Param("id")+"/"+c.Param("orderID"))
			}).
			Register(r)
	})

	r, err := mountAll(t, decls, nil, customOnly)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/7/orders/1001", nil))
	if rec.Body.String() != "7/1001" {
		t.Errorf("params: %q", rec.Body.String())
	}
}
