package routing

import (
	"fmt"
	"reflect"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/metadata"
)

// MiddlewareBuilder materializes one middleware descriptor into an
// executable middleware. The kernel injects it so routing stays
// independent of the middleware implementations.
type MiddlewareBuilder func(metadata.Middleware) (dispatch.Middleware, error)

// Mount binds compiled routes onto the router. Controller instances
// are looked up by declaration name; method-expression handlers are
// bound to their instance here, once, rather than per request.
func Mount(r *Router, d *dispatch.Dispatcher, routes []CompiledRoute, instances map[string]any, build MiddlewareBuilder) error {
	for _, rt := range routes {
		handler, err := bindHandler(rt, instances[rt.Controller])
		if err != nil {
			return err
		}

		chain := make([]dispatch.Middleware, 0, len(rt.Middlewares))
		for _, desc := range rt.Middlewares {
			mw, err := build(desc)
			if err != nil {
				return &MountError{Controller: rt.Controller, Route: rt.FullPath, Reason: err.Error()}
			}
			chain = append(chain, mw)
		}

		name := rt.HandlerName
		if name == "" {
			name = rt.Method + " " + rt.FullPath
		}

		r.Method(rt.Method, rt.ChiPattern, d.Handler(dispatch.RouteInfo{
			Name:       name,
			ParamNames: rt.ParamNames,
			Chain:      chain,
			Handler:    handler,
		}))
	}

	return nil
}

var (
	ctxType = reflect.TypeOf((*dispatch.Context)(nil))
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// bindHandler turns a declared route handler into a HandlerFunc.
// Accepted shapes: func(*dispatch.Context) error, and the method
// expression func(T, *dispatch.Context) error, which is closed over
// the controller instance.
func bindHandler(rt CompiledRoute, instance any) (dispatch.HandlerFunc, error) {
	switch h := rt.Handler.(type) {
	case nil:
		return nil, &MountError{Controller: rt.Controller, Route: rt.FullPath, Reason: "route has no handler"}
	case dispatch.HandlerFunc:
		return h, nil
	case func(*dispatch.Context) error:
		return h, nil
	}

	fv := reflect.ValueOf(rt.Handler)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != 2 || ft.In(1) != ctxType ||
		ft.NumOut() != 1 || ft.Out(0) != errType {
		return nil, &MountError{
			Controller: rt.Controller,
			Route:      rt.FullPath,
			Reason:     fmt.Sprintf("unsupported handler shape %T", rt.Handler),
		}
	}

	if instance == nil {
		return nil, &MountError{
			Controller: rt.Controller,
			Route:      rt.FullPath,
			Reason:     "no controller instance to bind the method handler to",
		}
	}

	iv := reflect.ValueOf(instance)
	if !iv.Type().AssignableTo(ft.In(0)) {
		return nil, &MountError{
			Controller: rt.Controller,
			Route:      rt.FullPath,
			Reason:     fmt.Sprintf("controller instance %T does not match handler receiver %v", instance, ft.In(0)),
		}
	}

	return func(c *dispatch.Context) error {
		out := fv.Call([]reflect.Value{iv, reflect.ValueOf(c)})
		if out[0].IsNil() {
			return nil
		}
		return out[0].Interface().(error)
	}, nil
}
