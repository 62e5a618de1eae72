package discovery

import "github.com/km-arc/armature/framework/logging"

// WithCategories replaces the category set. Declaration order is the
// match order: the first category with a matching include glob claims
// the file.
func (d *Discovery) WithCategories(categories ...Category) *Discovery {
	d.categories = categories
	return d
}

// WithExcludes replaces the global exclude globs. An exclude match
// always wins over any include.
func (d *Discovery) WithExcludes(patterns ...string) *Discovery {
	d.excludes = patterns
	return d
}

// WithExtensions replaces the eligible file extensions. Extensions
// include the dot (".go") and compare case-insensitively.
func (d *Discovery) WithExtensions(exts ...string) *Discovery {
	d.extensions = exts
	return d
}

// WithMaxDepth bounds how deep the walk descends below the base
// directory. A file directly inside the base directory is at depth 1.
func (d *Discovery) WithMaxDepth(depth int) *Discovery {
	if depth > 0 {
		d.maxDepth = depth
	}
	return d
}

// WithBatchSize sets how many matched files the analyzing phase takes
// per batch.
func (d *Discovery) WithBatchSize(n int) *Discovery {
	if n > 0 {
		d.batchSize = n
	}
	return d
}

// WithParallel analyzes batches concurrently with at most n workers.
// n <= 1 keeps the sequential pass and its deterministic result order.
// Values beyond the worker cap are ignored.
func (d *Discovery) WithParallel(n int) *Discovery {
	if n > 0 && n <= maxWorkers {
		d.parallelism = n
	}
	return d
}

// WithLogger sets the logger for pass diagnostics.
func (d *Discovery) WithLogger(log *logging.Logger) *Discovery {
	if log != nil {
		d.log = log
	}
	return d
}

// WithProgress registers a callback observing the pass phases.
func (d *Discovery) WithProgress(fn ProgressFunc) *Discovery {
	d.progress = fn
	return d
}
