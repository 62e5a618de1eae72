// Package registrar turns discovered component files into container
// registrations.
//
// A pass walks the discovery output in order. For each component it:
//
//  1. Loads the declaration through the configured [Loader]. A load
//     failure is an [ImportError]: the component is recorded as failed
//     and, without ContinueOnError, the pass aborts.
//  2. Checks the declaration carries construction metadata. A bare
//     declaration is skipped silently, or fails the component under
//     Strict.
//  3. Applies the caller's [Filter] predicates; any false return
//     excludes the component without comment.
//  4. Resolves every constructor parameter, trying in order: the
//     identifier pinned by the declaration for that position, the
//     parameter's package-qualified type key, its bare type name, the
//     alias table, and the reserved framework table. If nothing
//     resolves, the component fails with a [DependencyResolutionError]
//     listing what was tried and what is currently registered.
//  5. Registers the component under its declared lifetime and tags.
//     Singletons are resolved once immediately, so constructor errors
//     belong to the pass, not to the first request.
//
// Pre- and post-registration hooks observe each registration. They are
// for observability only: a panicking hook is contained and logged.
//
// Usage:
//
//	reg := registrar.New(c, &registrar.RegistryLoader{Registry: decls}).
//		ContinueOnError().
//		Alias("PostgresUserRepository", "UserRepository")
//
//	result, err := reg.Register(ctx, found.Components)
package registrar
