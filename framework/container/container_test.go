package container_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/km-arc/armature/framework/container"
)

type widget struct{ id int }

// ── Lifetimes ─────────────────────────────────────────────────────────────────

func TestSingleton_SameInstanceEveryResolve(t *testing.T) {
	c := container.New()
	calls := 0
	c.Singleton("widget", func(c *container.Container) any {
		calls++
		return &widget{id: calls}
	})

	a, err := c.Resolve("widget")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := c.Resolve("widget")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if a != b {
		t.Error("singleton should return the identical instance on every resolve")
	}
	if calls != 1 {
		t.Errorf("singleton factory ran %d times, want 1", calls)
	}
}

func TestTransient_DistinctInstanceEveryResolve(t *testing.T) {
	c := container.New()
	calls := 0
	c.Bind("widget", func(c *container.Container) any {
		calls++
		return &widget{id: calls}
	})

	a := c.Make("widget")
	b := c.Make("widget")

	if a == b {
		t.Error("transient should build a distinct instance on every resolve")
	}
	if calls != 2 {
		t.Errorf("transient factory ran %d times, want 2", calls)
	}
}

func TestRegister_ExplicitLifetimes(t *testing.T) {
	c := container.New()
	c.Register("s", func(c *container.Container) any { return &widget{} }, container.Singleton)
	c.Register("t", func(c *container.Container) any { return &widget{} }, container.Transient)

	if c.Make("s") != c.Make("s") {
		t.Error("Singleton lifetime should memoize")
	}
	if c.Make("t") == c.Make("t") {
		t.Error("Transient lifetime should not memoize")
	}
}

// ── Missing bindings ──────────────────────────────────────────────────────────

func TestResolve_Unregistered_ServiceNotFound(t *testing.T) {
	c := container.New()
	c.Singleton("known", func(c *container.Container) any { return "here" })

	_, err := c.Resolve("missing")
	if err == nil {
		t.Fatal("resolving an unregistered identifier should fail, not return nil")
	}

	var nf *container.ServiceNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error should be *ServiceNotFoundError, got %T", err)
	}
	if nf.Identifier != "missing" {
		t.Errorf("Identifier: got %q, want 'missing'", nf.Identifier)
	}

	// The error lists what IS registered
	found := false
	for _, id := range nf.Registered {
		if id == "known" {
			found = true
		}
	}
	if !found {
		t.Errorf("Registered should include 'known', got %v", nf.Registered)
	}
	if !strings.Contains(err.Error(), "known") {
		t.Errorf("message should name registered identifiers: %q", err.Error())
	}
}

func TestMake_Unregistered_Panics(t *testing.T) {
	c := container.New()
	defer func() {
		if recover() == nil {
			t.Error("Make on an unregistered identifier should panic")
		}
	}()
	c.Make("missing")
}

// ── Clear / Forget ────────────────────────────────────────────────────────────

func TestClear_PreviousRegistrationsGone(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return "value" })
	if _, err := c.Resolve("svc"); err != nil {
		t.Fatalf("Resolve before Clear: %v", err)
	}

	c.Clear()

	_, err := c.Resolve("svc")
	var nf *container.ServiceNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("after Clear, Resolve should return *ServiceNotFoundError, got %v", err)
	}
}

func TestClear_ContainerStillSelfResolvable(t *testing.T) {
	c := container.New()
	c.Clear()
	if got := c.Make("container"); got != c {
		t.Error("the 'container' identifier should survive Clear")
	}
}

func TestForget_RemovesSingleIdentifier(t *testing.T) {
	c := container.New()
	c.Singleton("a", func(c *container.Container) any { return "a" })
	c.Singleton("b", func(c *container.Container) any { return "b" })

	c.Forget("a")

	if c.Bound("a") {
		t.Error("a should be forgotten")
	}
	if !c.Bound("b") {
		t.Error("b should survive Forget(a)")
	}
}

// ── Cycle detection ───────────────────────────────────────────────────────────

func TestResolve_CircularChain_Detected(t *testing.T) {
	c := container.New()
	c.Singleton("a", func(c *container.Container) any { return c.Make("b") })
	c.Singleton("b", func(c *container.Container) any { return c.Make("c") })
	c.Singleton("c", func(c *container.Container) any { return c.Make("a") })

	_, err := c.Resolve("a")
	if err == nil {
		t.Fatal("circular chain should fail")
	}

	var cycle *container.CircularDependencyError
	if !errors.As(err, &cycle) {
		t.Fatalf("error chain should contain *CircularDependencyError, got %v", err)
	}
	if want := "a -> b -> c -> a"; !strings.Contains(cycle.Error(), want) {
		t.Errorf("cycle path: got %q, want it to contain %q", cycle.Error(), want)
	}
}

func TestResolve_SelfCycle_Detected(t *testing.T) {
	c := container.New()
	c.Bind("selfish", func(c *container.Container) any { return c.Make("selfish") })

	_, err := c.Resolve("selfish")
	var cycle *container.CircularDependencyError
	if !errors.As(err, &cycle) {
		t.Fatalf("self-referential factory should yield CircularDependencyError, got %v", err)
	}
}

// ── Duplicate policy ──────────────────────────────────────────────────────────

func TestRegister_LastWriteWins(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return "first" })
	c.Singleton("svc", func(c *container.Container) any { return "second" })

	if got := c.Make("svc").(string); got != "second" {
		t.Errorf("re-registering should replace: got %q, want 'second'", got)
	}
}

func TestRegister_Rebind_DropsCachedSingleton(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return "first" })
	_ = c.Make("svc") // cache it

	c.Singleton("svc", func(c *container.Container) any { return "second" })

	if got := c.Make("svc").(string); got != "second" {
		t.Errorf("rebinding should drop the stale instance: got %q", got)
	}
}

func TestRegisterStrict_DuplicateRejected(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return "first" })

	err := c.RegisterStrict("svc", func(c *container.Container) any { return "second" }, container.Singleton)

	var dup *container.DuplicateRegistrationError
	if !errors.As(err, &dup) {
		t.Fatalf("want *DuplicateRegistrationError, got %v", err)
	}
	if got := c.Make("svc").(string); got != "first" {
		t.Errorf("strict duplicate must not replace: got %q", got)
	}
}

// ── RegisteredServices ────────────────────────────────────────────────────────

func TestRegisteredServices_SortedAndComplete(t *testing.T) {
	c := container.New()
	c.Singleton("zeta", func(c *container.Container) any { return 1 })
	c.Bind("alpha", func(c *container.Container) any { return 2 })
	c.Instance("mid", 3)

	got := c.RegisteredServices()

	// "container" is self-registered by New
	want := []string{"alpha", "container", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("RegisteredServices: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RegisteredServices: got %v, want %v", got, want)
		}
	}
}

// ── Aliases ───────────────────────────────────────────────────────────────────

func TestAlias_ResolvesThroughCanonicalKey(t *testing.T) {
	c := container.New()
	c.Singleton("UserRepository", func(c *container.Container) any { return &widget{id: 7} })
	c.Alias("UserRepository", "users")

	viaAlias := c.Make("users")
	direct := c.Make("UserRepository")
	if viaAlias != direct {
		t.Error("alias should resolve to the same singleton as the canonical key")
	}
}

// ── Instances and errors inside factories ─────────────────────────────────────

func TestFactoryPanic_SurfacesAsResolutionError(t *testing.T) {
	c := container.New()
	c.Bind("angry", func(c *container.Container) any { panic(errors.New("boom")) })

	_, err := c.Resolve("angry")
	var re *container.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("want *ResolutionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("cause should be preserved: %q", err.Error())
	}
}

func TestNestedMissingDependency_SurfacesThroughChain(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(c *container.Container) any { return c.Make("nowhere") })

	_, err := c.Resolve("svc")
	var nf *container.ServiceNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("nested ServiceNotFoundError should be discoverable via errors.As, got %v", err)
	}
	if nf.Identifier != "nowhere" {
		t.Errorf("inner identifier: got %q, want 'nowhere'", nf.Identifier)
	}
}

// ── Tags / contextual / extenders ─────────────────────────────────────────────

func TestTagged_ResolvesGroup(t *testing.T) {
	c := container.New()
	c.Singleton("CpuProbe", func(c *container.Container) any { return "cpu" })
	c.Singleton("MemProbe", func(c *container.Container) any { return "mem" })
	c.Tag([]string{"CpuProbe", "MemProbe"}, "probes")

	probes := c.Tagged("probes")
	if len(probes) != 2 {
		t.Fatalf("Tagged: got %d values, want 2", len(probes))
	}
}

func TestContextualBinding_AppliesOnlyInsideConcrete(t *testing.T) {
	c := container.New()
	c.Singleton("storage", func(c *container.Container) any { return "disk" })
	c.When("ReportService").Needs("storage").GiveValue("archive")
	c.Bind("ReportService", func(c *container.Container) any {
		return c.Make("storage").(string)
	})

	if got := c.Make("ReportService").(string); got != "archive" {
		t.Errorf("inside ReportService, storage should be contextual: got %q", got)
	}
	if got := c.Make("storage").(string); got != "disk" {
		t.Errorf("outside, storage should be the global binding: got %q", got)
	}
}

func TestExtend_DecoratesResolvedInstance(t *testing.T) {
	c := container.New()
	c.Singleton("greeting", func(c *container.Container) any { return "hello" })
	c.Extend("greeting", func(instance any, c *container.Container) any {
		return instance.(string) + ", world"
	})

	if got := c.Make("greeting").(string); got != "hello, world" {
		t.Errorf("Extend: got %q", got)
	}
}

// ── Generic helpers ───────────────────────────────────────────────────────────

func TestResolveGeneric_TypedResult(t *testing.T) {
	c := container.New()
	c.Singleton("widget", func(c *container.Container) any { return &widget{id: 42} })

	w := container.Resolve[*widget](c, "widget")
	if w.id != 42 {
		t.Errorf("Resolve[*widget]: got id %d, want 42", w.id)
	}
}

func TestMustResolve_MissingReturnsFalse(t *testing.T) {
	c := container.New()
	if _, ok := container.MustResolve[*widget](c, "missing"); ok {
		t.Error("MustResolve on a missing identifier should return ok=false")
	}
}

func TestTypeKey_PackageQualified(t *testing.T) {
	key := container.TypeKey((*widget)(nil))
	if !strings.HasSuffix(key, ".widget") {
		t.Errorf("TypeKey: got %q, want package-qualified widget name", key)
	}
}
