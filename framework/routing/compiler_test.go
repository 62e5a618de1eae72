package routing_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/metadata"
	"github.com/km-arc/armature/framework/routing"
)

func TestJoinPath(t *testing.T) {
	cases := []struct {
		base, sub, want string
	}{
		{"/users", "/:id", "/users/:id"},
		{"/users/", "id", "/users/id"},
		{"users", ":id", "/users/:id"},
		{"/users", "", "/users"},
		{"/users", "/", "/users"},
		{"", "", "/"},
		{"/", "/health", "/health"},
		{"/api/v1/", "/users/:id/", "/api/v1/users/:id"},
	}

	for _, c := range cases {
		if got := routing.JoinPath(c.base, c.sub); got != c.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", c.base, c.sub, got, c.want)
		}
	}
}

func TestExtractParams(t *testing.T) {
	got := routing.ExtractParams("/users/:id/orders/:orderID")
	want := []string{"id", "orderID"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractParams: got %v, want %v", got, want)
	}

	if names := routing.ExtractParams("/health"); names != nil {
		t.Errorf("paramless path: got %v", names)
	}
}

func TestChiPattern(t *testing.T) {
	cases := map[string]string{
		"/users/:id":            "/users/{id}",
		"/users/:id/orders/:oid": "/users/{id}/orders/{oid}",
		"/health":               "/health",
	}
	for in, want := range cases {
		if got := routing.ChiPattern(in); got != want {
			t.Errorf("ChiPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func declare(fn func(r *metadata.Registry)) []*metadata.Declaration {
	r := metadata.NewRegistry()
	fn(r)
	return r.All()
}

func noopHandler(c *dispatch.Context) error { return nil }

func TestCompile_JoinsBaseAndSubPaths(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("UserController", "/users").
			Get("/:id", noopHandler).
			Post("", noopHandler).
			Register(r)
	})

	routes, err := routing.NewCompiler().Compile(decls)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("routes: %d", len(routes))
	}

	if routes[0].FullPath != "/users/:id" || routes[0].Method != "GET" {
		t.Errorf("route 0: %s %s", routes[0].Method, routes[0].FullPath)
	}
	if routes[0].ChiPattern != "/users/{id}" {
		t.Errorf("chi pattern: %s", routes[0].ChiPattern)
	}
	if !reflect.DeepEqual(routes[0].ParamNames, []string{"id"}) {
		t.Errorf("params: %v", routes[0].ParamNames)
	}
	if routes[1].FullPath != "/users" {
		t.Errorf("route 1: %s", routes[1].FullPath)
	}
}

func TestCompile_MiddlewareTierOrder(t *testing.T) {
	mw := func(name string) metadata.Middleware {
		return metadata.Custom(name, func(c *dispatch.Context, next dispatch.Next) error {
			return next()
		})
	}

	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("OrderController", "/orders").
			Use(mw("class-a"), mw("class-b")).
			Get("/:id", noopHandler, mw("method")).
			Register(r)
	})

	routes, err := routing.NewCompiler().
		Use(mw("global")).
		Compile(decls)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	var names []string
	for _, m := range routes[0].Middlewares {
		names = append(names, m.Name)
	}
	want := []string{"global", "class-a", "class-b", "method"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("middleware order: %v, want %v", names, want)
	}
}

func TestCompile_DuplicateRouteConflicts(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Controller("AController", "/things").
			Get("/:id", noopHandler).
			Register(r)
		metadata.Controller("BController", "/things").
			Get("/:id", noopHandler).
			Register(r)
	})

	_, err := routing.NewCompiler().Compile(decls)
	if err == nil {
		t.Fatal("expected a conflict")
	}

	var conflict *routing.RouteConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error type: %T", err)
	}
	if conflict.Method != "GET" || conflict.Path != "/things/:id" {
		t.Errorf("conflict detail: %+v", conflict)
	}
	if conflict.Prior != "AController" || conflict.Controller != "BController" {
		t.Errorf("conflict parties: %+v", conflict)
	}
}

func TestCompile_SkipsRoutelessDeclarations(t *testing.T) {
	decls := declare(func(r *metadata.Registry) {
		metadata.Service("UserService").Provide(struct{}{}).Register(r)
		metadata.Controller("PingController", "/").
			Get("ping", noopHandler).
			Register(r)
	})

	routes, err := routing.NewCompiler().Compile(decls)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(routes) != 1 || routes[0].FullPath != "/ping" {
		t.Fatalf("routes: %+v", routes)
	}
}
