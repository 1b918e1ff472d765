package shader

import "io/fs"

// LoaderOption is a functional option for configuring Load.
type LoaderOption func(l *loader)

// WithFS reads candidates from fsys instead of the operating system.
//
// Parameters:
//   - fsys: the file system to search
//
// Returns:
//   - LoaderOption: option function to apply
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *loader) {
		l.fsys = fsys
	}
}
