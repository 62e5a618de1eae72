package registrar

import (
	"github.com/km-arc/armature/framework/discovery"
	"github.com/km-arc/armature/framework/metadata"
)

// Loader turns a discovered component file into its declarations. One
// file may declare several components. The default implementation reads
// the metadata registry; tests substitute an in-memory loader. Load
// failures are non-fatal per component.
type Loader interface {
	Load(c discovery.Component) ([]*metadata.Declaration, error)
}

// RegistryLoader resolves discovered files against the declarations
// collected in a metadata registry, matching on the source file each
// declaration recorded. A discovered file with no declaration is an
// *ImportError.
type RegistryLoader struct {
	Registry *metadata.Registry
}

func (l *RegistryLoader) Load(c discovery.Component) ([]*metadata.Declaration, error) {
	if decls := l.Registry.ForFile(c.Path); len(decls) > 0 {
		return decls, nil
	}
	return nil, &ImportError{Path: c.Path}
}

// MapLoader serves declarations from a fixed map keyed by the
// discovered file's relative path. Missing keys load as no
// declarations, which the pass treats as missing metadata.
type MapLoader map[string]*metadata.Declaration

func (l MapLoader) Load(c discovery.Component) ([]*metadata.Declaration, error) {
	if d, ok := l[c.RelPath]; ok {
		return []*metadata.Declaration{d}, nil
	}
	return nil, nil
}
