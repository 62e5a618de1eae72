// Package discovery finds component files under a base directory by
// matching paths against per-category include globs and a global
// exclude list.
//
// # Overview
//
// A pass runs in two phases:
//
//  1. Scanning: a pure directory traversal. The walk is bounded by a
//     maximum depth, never follows symlinks, prunes hidden directories,
//     and matches every eligible file path against the configured
//     patterns. Exclude globs always win over include globs.
//
//  2. Analyzing: each matched file is stat'ed and turned into a
//     [Component] record, in batches, either sequentially (keeping
//     deterministic walk order) or with bounded parallelism.
//
// Discovery never imports or executes anything it finds. The output is
// a [Result] holding Component records, per-file errors, counts, and
// per-phase durations. A per-file stat failure is recorded and the pass
// continues; a missing base directory is a fatal [ConfigError].
//
// # Glob semantics
//
// Patterns compile with '/' as the separator: `*` matches within one
// path segment, `**` spans segments, `?` matches one character. They
// are matched against the slash-separated path relative to the base
// directory.
//
// # Configuration
//
// Discovery uses a fluent builder. Available methods:
//
//   - [Discovery.WithCategories]: replace the category set (declaration order is match order)
//   - [Discovery.WithExcludes]: replace the global exclude globs
//   - [Discovery.WithExtensions]: replace the eligible file extensions
//   - [Discovery.WithMaxDepth]: bound the walk depth
//   - [Discovery.WithBatchSize]: set the analyzing batch size
//   - [Discovery.WithParallel]: analyze batches concurrently
//   - [Discovery.WithLogger]: set the pass logger
//   - [Discovery.WithProgress]: observe phase progress
//
// # Example
//
//	d := discovery.New("./app").
//		WithMaxDepth(8).
//		WithParallel(4)
//
//	result, err := d.Discover(ctx)
//	if err != nil {
//		return err
//	}
//	for _, c := range result.Components {
//		fmt.Println(c.Category, c.RelPath)
//	}
package discovery
