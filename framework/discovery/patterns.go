package discovery

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Category pairs a component category name with the include globs that
// claim files for it. Categories are evaluated in declaration order and
// the first match wins, so narrower categories should come first.
//
// Glob semantics (compiled with '/' as the separator):
//
//	*   matches within one path segment
//	**  spans segments
//	?   matches a single character
//
// Patterns match against the slash-separated path relative to the base
// directory, so "controllers/**" matches only at the top level while
// "**/controllers/**" matches anywhere below it.
type Category struct {
	Name  string
	Globs []string
}

// DefaultCategories returns the built-in category set. Both rooted and
// nested forms are listed because "**/x" does not match a top-level "x".
func DefaultCategories() []Category {
	return []Category{
		{Name: "controllers", Globs: []string{
			"controllers/**", "**/controllers/**",
			"handlers/**", "**/handlers/**",
			"*_controller.go", "**/*_controller.go",
		}},
		{Name: "services", Globs: []string{
			"services/**", "**/services/**",
			"*_service.go", "**/*_service.go",
		}},
		{Name: "repositories", Globs: []string{
			"repositories/**", "**/repositories/**",
			"*_repository.go", "**/*_repository.go",
		}},
		{Name: "middleware", Globs: []string{
			"middleware/**", "**/middleware/**",
			"*_middleware.go", "**/*_middleware.go",
		}},
		{Name: "components", Globs: []string{
			"components/**", "**/components/**",
		}},
	}
}

// DefaultExcludes returns the global exclude globs. An exclude match
// always beats an include match, whichever category claimed the file.
func DefaultExcludes() []string {
	return []string{
		"*_test.go", "**/*_test.go",
		"testdata/**", "**/testdata/**",
		"vendor/**", "**/vendor/**",
		".*", ".*/**", "**/.*", "**/.*/**",
	}
}

// matcher holds the compiled patterns for one discovery pass.
type matcher struct {
	categories []compiledCategory
	excludes   []glob.Glob
}

type compiledCategory struct {
	name  string
	globs []glob.Glob
}

func compileMatcher(categories []Category, excludes []string) (*matcher, error) {
	m := &matcher{}

	for _, c := range categories {
		cc := compiledCategory{name: c.Name}
		for _, p := range c.Globs {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, &ConfigError{
					Reason: fmt.Sprintf("include pattern %q in category %q: %v", p, c.Name, err),
				}
			}
			cc.globs = append(cc.globs, g)
		}
		m.categories = append(m.categories, cc)
	}

	for _, p := range excludes {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, &ConfigError{
				Reason: fmt.Sprintf("exclude pattern %q: %v", p, err),
			}
		}
		m.excludes = append(m.excludes, g)
	}

	return m, nil
}

// Match classifies one relative path. It returns the name of the first
// category (in declaration order) with a matching include glob, unless
// any exclude glob matches, in which case the file is dropped.
func (m *matcher) Match(relPath string) (string, bool) {
	for _, g := range m.excludes {
		if g.Match(relPath) {
			return "", false
		}
	}

	for _, c := range m.categories {
		for _, g := range c.globs {
			if g.Match(relPath) {
				return c.name, true
			}
		}
	}

	return "", false
}
