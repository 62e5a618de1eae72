package registrar

import (
	"fmt"
	"reflect"

	"github.com/km-arc/armature/framework/container"
	"github.com/km-arc/armature/framework/metadata"
)

// constructorInfo holds the parsed shape of a component constructor.
type constructorInfo struct {
	fn           reflect.Value
	paramTypes   []reflect.Type
	returnsError bool
}

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// parseConstructor validates a constructor and extracts its parameter
// types. Accepted shapes: func(deps...) T and func(deps...) (T, error),
// where T is any non-error type.
func parseConstructor(component string, constructor any) (*constructorInfo, error) {
	if constructor == nil {
		return nil, &InvalidConstructorError{Component: component, Reason: "constructor is nil"}
	}

	fn := reflect.ValueOf(constructor)
	ft := fn.Type()

	if ft.Kind() != reflect.Func {
		return nil, &InvalidConstructorError{
			Component: component,
			Reason:    fmt.Sprintf("must be a function, got %v", ft.Kind()),
		}
	}
	if ft.IsVariadic() {
		return nil, &InvalidConstructorError{Component: component, Reason: "variadic constructors are not supported"}
	}

	switch ft.NumOut() {
	case 1:
		if ft.Out(0).Implements(errorInterface) {
			return nil, &InvalidConstructorError{Component: component, Reason: "must return a value, not just an error"}
		}
	case 2:
		if !ft.Out(1).Implements(errorInterface) {
			return nil, &InvalidConstructorError{
				Component: component,
				Reason:    fmt.Sprintf("second return value must be error, got %v", ft.Out(1)),
			}
		}
	default:
		return nil, &InvalidConstructorError{
			Component: component,
			Reason:    fmt.Sprintf("must return T or (T, error), got %d return values", ft.NumOut()),
		}
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}

	return &constructorInfo{
		fn:           fn,
		paramTypes:   params,
		returnsError: ft.NumOut() == 2,
	}, nil
}

// invoke calls the constructor with the resolved arguments.
func (info *constructorInfo) invoke(args []reflect.Value) (any, error) {
	results := info.fn.Call(args)

	if info.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// resolveDeps resolves every constructor parameter, failing on the
// first one that no tier can satisfy.
func (r *Registrar) resolveDeps(c *container.Container, decl *metadata.Declaration, info *constructorInfo) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(info.paramTypes))
	for i, pt := range info.paramTypes {
		v, err := r.resolveParam(c, decl, i, pt)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// resolveParam finds a container value for one constructor parameter.
// Identifiers are tried in a defined fallback order: the declaration's
// pinned identifier for this position, then identifiers derived from
// the parameter type, then the alias table, then the reserved
// framework table. The first resolution whose value is assignable to
// the parameter wins.
func (r *Registrar) resolveParam(c *container.Container, decl *metadata.Declaration, i int, pt reflect.Type) (reflect.Value, error) {
	var candidates []string

	if i < len(decl.Dependencies) && decl.Dependencies[i] != "" {
		candidates = append(candidates, decl.Dependencies[i])
	}

	full, short := typeIdentifiers(pt)
	if full != "" {
		candidates = append(candidates, full)
	}
	if short != "" {
		candidates = append(candidates, short)
	}

	for _, name := range []string{full, short} {
		if id, ok := r.aliases[name]; ok && name != "" {
			candidates = append(candidates, id)
		}
	}

	if id, ok := r.reserved[pt.String()]; ok {
		candidates = append(candidates, id)
	}

	var tried []string
	for _, id := range candidates {
		tried = append(tried, id)

		v, err := c.Resolve(id)
		if err != nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.IsValid() && rv.Type().AssignableTo(pt) {
			return rv, nil
		}
	}

	return reflect.Value{}, &DependencyResolutionError{
		Component:  decl.Name,
		Index:      i,
		ParamType:  pt.String(),
		Tried:      tried,
		Registered: c.RegisteredServices(),
	}
}

// typeIdentifiers derives the container identifiers a parameter type
// resolves under: the package-qualified key and the bare type name.
func typeIdentifiers(pt reflect.Type) (full, short string) {
	t := pt
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "", ""
	}
	if t.PkgPath() != "" {
		full = t.PkgPath() + "." + t.Name()
	}
	return full, t.Name()
}
