package descriptor

import "fmt"

// PathEscapeError reports a manifest whose entry file resolves outside the
// directory that declared it. The descriptor carrying it is discarded.
type PathEscapeError struct {
	Module string
	Path   string
	Dir    string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("module %q: entry path %q escapes module directory %s", e.Module, e.Path, e.Dir)
}

// InvalidVersionError reports a version or dependency range that failed to
// parse. What names the offending field ("version" or "dependency <name>").
type InvalidVersionError struct {
	Module string
	What   string
	Raw    string
	Err    error
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("module %q: invalid %s %q: %v", e.Module, e.What, e.Raw, e.Err)
}

func (e *InvalidVersionError) Unwrap() error { return e.Err }
