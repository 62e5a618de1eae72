package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	c.When("ReportController").Needs("Storage").Give(func(c *container.Container) any {
//	    return storage.NewArchive()
//	})
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// Needs specifies which identifier the concrete type depends on.
func (b *ContextualBuilder) Needs(identifier string) *ContextualBuilder {
	b.needs = identifier
	return b
}

// Give provides the factory that should be used when the concrete type
// resolves the specified identifier.
func (b *ContextualBuilder) Give(factory Factory) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()

	if _, ok := b.container.contextual[b.concrete]; !ok {
		b.container.contextual[b.concrete] = make(map[string]Factory)
	}
	b.container.contextual[b.concrete][b.needs] = factory
}

// GiveValue is a shorthand for Give when the value is a simple scalar or
// pre-built instance (no factory logic needed).
//
//	c.When("ReportController").Needs("archiveDir").GiveValue("/var/reports")
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(func(_ *Container) any { return value })
}
