package discovery

import "fmt"

// ConfigError reports a discovery configuration that cannot produce a
// valid pass: a missing base directory, a base path that is not a
// directory, or an include/exclude pattern that fails to compile.
// It is fatal and aborts discovery before any walking happens.
type ConfigError struct {
	Dir    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Dir != "" {
		return fmt.Sprintf("discovery: %s: %s", e.Dir, e.Reason)
	}
	return "discovery: " + e.Reason
}

// FileError records a per-file failure during the analyzing phase.
// It is non-fatal: the file is dropped from the results and the pass
// continues.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("discovery: %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
