package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/armature/framework/logging"
)

const (
	defaultMaxDepth  = 32
	defaultBatchSize = 50

	// maxWorkers caps WithParallel; analyzing is stat-bound and gains
	// nothing from more workers than this.
	maxWorkers = 8
)

// Phase names the two reported stages of a discovery pass.
type Phase string

const (
	PhaseScanning  Phase = "scanning"
	PhaseAnalyzing Phase = "analyzing"
)

// Component is one file claimed by a category. Discovery performs no
// imports and takes no side effects: a Component is a filesystem
// observation and nothing more.
type Component struct {
	Path     string // absolute path
	RelPath  string // slash-separated path below the base directory
	Category string // name of the category whose include globs claimed the file
	Name     string // file name without extension
	Size     int64
	ModTime  time.Time
}

// Progress is handed to the WithProgress callback as a pass advances.
// Analyzed counts successfully analyzed files; stat failures land in
// Result.Errors instead.
type Progress struct {
	Phase    Phase
	Scanned  int
	Matched  int
	Analyzed int
}

// ProgressFunc observes a running pass. Under WithParallel it is called
// from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(Progress)

// Result is the outcome of one Discover call.
type Result struct {
	Components []Component
	Errors     []*FileError

	Scanned  int // regular files visited during scanning
	Matched  int // files claimed by a category
	Analyzed int // files analyzed without error

	ScanDuration    time.Duration
	AnalyzeDuration time.Duration
}

// Err folds the per-file errors into a single error, or nil for a
// clean pass.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, fe := range r.Errors {
		merr = multierror.Append(merr, fe)
	}
	return merr.ErrorOrNil()
}

// Discovery walks a base directory for component files. Configure it
// with the With* methods, then call Discover. Patterns compile once on
// first use; configure before the first Discover call.
type Discovery struct {
	baseDir     string
	categories  []Category
	excludes    []string
	extensions  []string
	maxDepth    int
	batchSize   int
	parallelism int
	log         *logging.Logger
	progress    ProgressFunc

	compileOnce sync.Once
	compiled    *matcher
	compileErr  error
}

// New creates a Discovery over baseDir with the default categories,
// default excludes, and the .go extension filter.
func New(baseDir string) *Discovery {
	return &Discovery{
		baseDir:    baseDir,
		categories: DefaultCategories(),
		excludes:   DefaultExcludes(),
		extensions: []string{".go"},
		maxDepth:   defaultMaxDepth,
		batchSize:  defaultBatchSize,
		log:        logging.Default(),
	}
}

// candidate is a scan-phase match awaiting analysis.
type candidate struct {
	path     string
	relPath  string
	category string
}

// Discover runs the two-phase pass: scanning walks the tree and matches
// paths against the configured patterns, analyzing stats each matched
// file and fills in the Component records.
//
// A missing or non-directory base path is a fatal *ConfigError. A
// per-file stat failure is recorded in Result.Errors and the pass
// continues. Context cancellation aborts the pass with ctx.Err().
func (d *Discovery) Discover(ctx context.Context) (*Result, error) {
	info, err := os.Stat(d.baseDir)
	if err != nil {
		reason := err.Error()
		if os.IsNotExist(err) {
			reason = "base directory does not exist"
		}
		return nil, &ConfigError{Dir: d.baseDir, Reason: reason}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Dir: d.baseDir, Reason: "base path is not a directory"}
	}

	m, err := d.matcher()
	if err != nil {
		return nil, err
	}

	res := &Result{}

	scanStart := time.Now()
	d.report(res, PhaseScanning)
	cands, err := d.scan(ctx, m, res)
	if err != nil {
		return nil, err
	}
	res.ScanDuration = time.Since(scanStart)
	d.report(res, PhaseScanning)

	d.log.WithFields(logging.Fields{
		"base":     d.baseDir,
		"scanned":  res.Scanned,
		"matched":  res.Matched,
		"duration": res.ScanDuration,
	}).Debug("discovery: scan complete")

	analyzeStart := time.Now()
	if err := d.analyze(ctx, cands, res); err != nil {
		return nil, err
	}
	res.AnalyzeDuration = time.Since(analyzeStart)
	d.report(res, PhaseAnalyzing)

	d.log.WithFields(logging.Fields{
		"analyzed": res.Analyzed,
		"errors":   len(res.Errors),
		"duration": res.AnalyzeDuration,
	}).Debug("discovery: analyze complete")

	return res, nil
}

func (d *Discovery) matcher() (*matcher, error) {
	d.compileOnce.Do(func() {
		d.compiled, d.compileErr = compileMatcher(d.categories, d.excludes)
	})
	return d.compiled, d.compileErr
}

// scan is the pure traversal phase. It never follows symlinks and
// prunes hidden directories and anything past the depth bound.
func (d *Discovery) scan(ctx context.Context, m *matcher, res *Result) ([]candidate, error) {
	var cands []candidate

	err := filepath.WalkDir(d.baseDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			res.Errors = append(res.Errors, &FileError{Path: path, Err: walkErr})
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(d.baseDir, path)
		if err != nil {
			res.Errors = append(res.Errors, &FileError{Path: path, Err: err})
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			// A directory at the bound can only hold files beyond it.
			if depth(rel) >= d.maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		// WalkDir does not follow symlinks; skipping non-regular
		// entries drops symlinked files as well.
		if !entry.Type().IsRegular() {
			return nil
		}

		res.Scanned++

		if !d.eligibleExt(path) {
			return nil
		}

		category, ok := m.Match(rel)
		if !ok {
			return nil
		}

		res.Matched++
		cands = append(cands, candidate{path: path, relPath: rel, category: category})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cands, nil
}

// analyze stats each matched file, in batches. Sequential mode keeps
// walk order; parallel mode trades ordering for throughput.
func (d *Discovery) analyze(ctx context.Context, cands []candidate, res *Result) error {
	if len(cands) == 0 {
		return nil
	}

	batches := splitBatches(cands, d.batchSize)

	if d.parallelism <= 1 {
		for _, b := range batches {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			comps, errs := analyzeBatch(b)
			res.Components = append(res.Components, comps...)
			res.Errors = append(res.Errors, errs...)
			res.Analyzed += len(comps)
			d.report(res, PhaseAnalyzing)
		}
		return nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)

	for _, b := range batches {
		b := b
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			comps, errs := analyzeBatch(b)

			mu.Lock()
			res.Components = append(res.Components, comps...)
			res.Errors = append(res.Errors, errs...)
			res.Analyzed += len(comps)
			snapshot := Progress{
				Phase:    PhaseAnalyzing,
				Scanned:  res.Scanned,
				Matched:  res.Matched,
				Analyzed: res.Analyzed,
			}
			mu.Unlock()

			if d.progress != nil {
				d.progress(snapshot)
			}
			return nil
		})
	}

	return g.Wait()
}

func analyzeBatch(cands []candidate) ([]Component, []*FileError) {
	var (
		comps []Component
		errs  []*FileError
	)

	for _, c := range cands {
		info, err := os.Lstat(c.path)
		if err != nil {
			errs = append(errs, &FileError{Path: c.path, Err: err})
			continue
		}

		name := filepath.Base(c.path)
		name = strings.TrimSuffix(name, filepath.Ext(name))

		comps = append(comps, Component{
			Path:     c.path,
			RelPath:  c.relPath,
			Category: c.category,
			Name:     name,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	return comps, errs
}

func (d *Discovery) report(res *Result, phase Phase) {
	if d.progress == nil {
		return
	}
	d.progress(Progress{
		Phase:    phase,
		Scanned:  res.Scanned,
		Matched:  res.Matched,
		Analyzed: res.Analyzed,
	})
}

func (d *Discovery) eligibleExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range d.extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// depth counts path segments below the base directory: "a.go" is 1,
// "sub/a.go" is 2.
func depth(rel string) int {
	return strings.Count(rel, "/") + 1
}

func splitBatches(cands []candidate, size int) [][]candidate {
	if size < 1 {
		size = defaultBatchSize
	}

	var out [][]candidate
	for start := 0; start < len(cands); start += size {
		end := min(start+size, len(cands))
		out = append(out, cands[start:end])
	}
	return out
}
