package registrar

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/km-arc/armature/framework/container"
	"github.com/km-arc/armature/framework/discovery"
	"github.com/km-arc/armature/framework/logging"
	"github.com/km-arc/armature/framework/metadata"
)

// Filter decides whether a loaded component joins the container. A
// false return excludes the component silently.
type Filter func(discovery.Component, *metadata.Declaration) bool

// Hook observes a registration. Hooks cannot alter the outcome; a
// panicking hook is contained and logged.
type Hook func(discovery.Component, *metadata.Declaration)

// Result is the outcome of one registration pass.
type Result struct {
	Registered int
	Failed     int
	Skipped    int
	Errors     []*ComponentError
}

// Err folds the per-component failures into a single error, or nil.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, ce := range r.Errors {
		merr = multierror.Append(merr, ce)
	}
	return merr.ErrorOrNil()
}

// Registrar connects discovery output to the service container: it
// loads each discovered component's declaration, resolves its
// constructor dependencies, and registers it under the declared
// lifetime.
type Registrar struct {
	container *container.Container
	loader    Loader
	log       *logging.Logger

	filters  []Filter
	aliases  map[string]string
	reserved map[string]string
	before   []Hook
	after    []Hook

	continueOnError bool
	skipDuplicates  bool
	strict          bool
}

// defaultReserved maps well-known framework parameter types to the
// identifiers the kernel binds them under.
func defaultReserved() map[string]string {
	return map[string]string{
		"*container.Container":     "container",
		"*logging.Logger":          "logger",
		"*config.Config":           "config",
		"*routing.Router":          "router",
		"*dispatch.Dispatcher":     "dispatcher",
		"dispatch.ErrorClassifier": "errorHandler",
	}
}

// New creates a Registrar over the given container and loader.
func New(c *container.Container, loader Loader) *Registrar {
	return &Registrar{
		container: c,
		loader:    loader,
		log:       logging.Default(),
		aliases:   map[string]string{},
		reserved:  defaultReserved(),
	}
}

// ── Options ──────────────────────────────────────────────────────────────────

// WithLogger sets the pass logger.
func (r *Registrar) WithLogger(log *logging.Logger) *Registrar {
	if log != nil {
		r.log = log
	}
	return r
}

// ContinueOnError makes the pass accumulate component failures instead
// of aborting on the first one.
func (r *Registrar) ContinueOnError() *Registrar {
	r.continueOnError = true
	return r
}

// SkipDuplicates counts and skips components whose identifier is
// already bound. Without it, the last registration wins and the
// override is logged at warn.
func (r *Registrar) SkipDuplicates() *Registrar {
	r.skipDuplicates = true
	return r
}

// Strict turns missing component metadata from a silent skip into a
// component failure.
func (r *Registrar) Strict() *Registrar {
	r.strict = true
	return r
}

// Filters appends caller predicates; all must pass for a component to
// register.
func (r *Registrar) Filters(filters ...Filter) *Registrar {
	r.filters = append(r.filters, filters...)
	return r
}

// Alias maps an implementation type name to the public identifier it
// resolves under, e.g. Alias("PostgresUserRepository", "UserRepository").
func (r *Registrar) Alias(typeName, identifier string) *Registrar {
	r.aliases[typeName] = identifier
	return r
}

// Reserve maps a parameter type string to a framework identifier,
// extending the built-in reserved table.
func (r *Registrar) Reserve(paramType, identifier string) *Registrar {
	r.reserved[paramType] = identifier
	return r
}

// OnBeforeRegister adds a hook fired before each registration.
func (r *Registrar) OnBeforeRegister(h Hook) *Registrar {
	r.before = append(r.before, h)
	return r
}

// OnAfterRegister adds a hook fired after each successful registration.
func (r *Registrar) OnAfterRegister(h Hook) *Registrar {
	r.after = append(r.after, h)
	return r
}

// ── Pass ─────────────────────────────────────────────────────────────────────

type pending struct {
	comp discovery.Component
	decl *metadata.Declaration
}

// Register runs the pass: load each component's declarations, apply
// filters, order by priority, and register through the container.
// Singletons are resolved once during the pass, so their construction
// errors surface here rather than at first request.
//
// Under ContinueOnError failures accumulate in the Result; otherwise
// the first component failure aborts the pass and is returned.
func (r *Registrar) Register(ctx context.Context, components []discovery.Component) (*Result, error) {
	res := &Result{}

	var pendings []pending
	for _, comp := range components {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		decls, err := r.loader.Load(comp)
		if err != nil {
			if _, ok := err.(*ImportError); !ok {
				err = &ImportError{Path: comp.Path, Err: err}
			}
			if r.fail(res, comp, err) {
				return res, err
			}
			continue
		}

		if len(decls) == 0 {
			missing := &MetadataMissingError{Path: comp.Path}
			if r.missingMeta(res, comp, missing) {
				return res, missing
			}
			continue
		}

		for _, decl := range decls {
			if decl == nil || !decl.HasMetadata() {
				missing := &MetadataMissingError{Path: comp.Path}
				if decl != nil {
					missing.Name = decl.Name
				}
				if r.missingMeta(res, comp, missing) {
					return res, missing
				}
				continue
			}

			if !r.allowed(comp, decl) {
				res.Skipped++
				continue
			}

			pendings = append(pendings, pending{comp: comp, decl: decl})
		}
	}

	// Higher priority registers first; the stable sort keeps
	// declaration order within a priority.
	sort.SliceStable(pendings, func(i, j int) bool {
		return pendings[i].decl.Priority > pendings[j].decl.Priority
	})

	for _, p := range pendings {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.registerOne(p, res); err != nil {
			if r.fail(res, p.comp, err) {
				return res, err
			}
		}
	}

	r.log.WithFields(logging.Fields{
		"registered": res.Registered,
		"failed":     res.Failed,
		"skipped":    res.Skipped,
	}).Info("registrar: pass complete")

	return res, nil
}

func (r *Registrar) registerOne(p pending, res *Result) error {
	decl := p.decl

	if r.container.Bound(decl.Name) {
		if r.skipDuplicates {
			res.Skipped++
			r.log.WithFields(logging.Fields{"component": decl.Name}).Debug("registrar: duplicate identifier skipped")
			return nil
		}
		r.log.WithFields(logging.Fields{"component": decl.Name}).Warn("registrar: duplicate identifier, last registration wins")
	}

	// Validate the constructor and its dependencies now so failures
	// surface during the pass, against the container as it currently
	// stands.
	var fact container.Factory
	if decl.Instance == nil {
		info, err := parseConstructor(decl.Name, decl.Constructor)
		if err != nil {
			return err
		}
		if _, err := r.resolveDeps(r.container, decl, info); err != nil {
			return err
		}
		fact = func(c *container.Container) any {
			args, err := r.resolveDeps(c, decl, info)
			if err != nil {
				panic(err)
			}
			inst, err := info.invoke(args)
			if err != nil {
				panic(err)
			}
			return inst
		}
	}

	r.fire(r.before, p)

	if decl.Instance != nil {
		r.container.Instance(decl.Name, decl.Instance)
	} else {
		r.container.Register(decl.Name, fact, decl.Lifetime)
		if decl.Lifetime == container.Singleton {
			// Eager warm-up: the singleton memoizes on the bootstrap
			// goroutine, before any traffic.
			if _, err := r.container.Resolve(decl.Name); err != nil {
				return err
			}
		}
	}

	for _, tag := range decl.Tags {
		r.container.Tag([]string{decl.Name}, tag)
	}

	r.fire(r.after, p)
	res.Registered++

	r.log.WithFields(logging.Fields{
		"component": decl.Name,
		"kind":      decl.Kind,
		"lifetime":  decl.Lifetime,
	}).Debug("registrar: registered")

	return nil
}

// missingMeta handles a component with no usable declaration: a
// failure under Strict, a counted skip otherwise. The returned flag
// tells the caller to abort the pass.
func (r *Registrar) missingMeta(res *Result, comp discovery.Component, missing *MetadataMissingError) bool {
	if r.strict {
		return r.fail(res, comp, missing)
	}
	res.Skipped++
	r.log.WithFields(logging.Fields{"path": comp.Path}).Debug("registrar: no metadata, skipped")
	return false
}

// fail records a component failure; the returned flag tells the caller
// to abort the pass.
func (r *Registrar) fail(res *Result, comp discovery.Component, err error) bool {
	res.Failed++
	res.Errors = append(res.Errors, &ComponentError{Path: comp.Path, Err: err})
	r.log.WithError(err).WithFields(logging.Fields{"path": comp.Path}).Error("registrar: component failed")
	return !r.continueOnError
}

func (r *Registrar) allowed(comp discovery.Component, decl *metadata.Declaration) bool {
	for _, f := range r.filters {
		if !f(comp, decl) {
			return false
		}
	}
	return true
}

// fire runs hooks, containing panics so observers cannot change the
// registration outcome.
func (r *Registrar) fire(hooks []Hook, p pending) {
	for _, h := range hooks {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.log.WithFields(logging.Fields{
						"component": p.decl.Name,
						"panic":     rec,
					}).Warn("registrar: hook panicked")
				}
			}()
			h(p.comp, p.decl)
		}()
	}
}
