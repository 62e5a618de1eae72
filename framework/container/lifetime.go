package container

// Lifetime controls how long a resolved instance lives.
type Lifetime string

const (
	// Transient builds a fresh instance on every resolution.
	Transient Lifetime = "transient"

	// Singleton builds the instance once, on first resolution, and returns
	// the cached value for the rest of the container's lifetime.
	Singleton Lifetime = "singleton"
)

// String returns the lifetime name.
func (l Lifetime) String() string { return string(l) }
