package metadata

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry collects component declarations. The application bootstrap owns
// one and passes it to the declaration functions it runs; its lifecycle is
// explicit, so tests can build and discard registries freely.
type Registry struct {
	mu     sync.RWMutex
	decls  []*Declaration
	byName map[string]*Declaration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Declaration)}
}

// add inserts a declaration. A repeated name replaces the earlier
// declaration in place, keeping its position (last write wins, matching the
// container's duplicate policy).
func (r *Registry) add(d *Declaration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byName[d.Name]; ok {
		for i, existing := range r.decls {
			if existing == prev {
				r.decls[i] = d
				break
			}
		}
	} else {
		r.decls = append(r.decls, d)
	}
	r.byName[d.Name] = d
}

// All returns the declarations in declaration order.
func (r *Registry) All() []*Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Declaration, len(r.decls))
	copy(out, r.decls)
	return out
}

// Lookup finds a declaration by component name.
func (r *Registry) Lookup(name string) (*Declaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the sorted names of all declarations.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of declarations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.decls)
}

// ForFile returns the declarations recorded against a source file. An exact
// path match is preferred; otherwise a declaration matches when its recorded
// file and the given path agree on their trailing path segments, which keeps
// the match stable when build-time and runtime paths differ in their roots.
func (r *Registry) ForFile(path string) []*Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clean := filepath.ToSlash(filepath.Clean(path))
	var exact, suffix []*Declaration
	for _, d := range r.decls {
		src := filepath.ToSlash(filepath.Clean(d.SourceFile))
		switch {
		case src == clean:
			exact = append(exact, d)
		case pathTailMatch(src, clean):
			suffix = append(suffix, d)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return suffix
}

// Clear drops every declaration. For test isolation.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decls = nil
	r.byName = make(map[string]*Declaration)
}

// pathTailMatch reports whether one path is a whole-segment suffix of the
// other.
func pathTailMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if !strings.HasSuffix(longer, shorter) {
		return false
	}
	rest := longer[:len(longer)-len(shorter)]
	return rest == "" || strings.HasSuffix(rest, "/")
}
