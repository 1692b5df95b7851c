// Package source caches raw file contents for the rewrite engine.
package source

import (
	"fmt"
	"os"
	"sort"
)

// File is one loaded source file. Data is immutable for the whole run; the
// edit applier works on its own copy.
type File struct {
	Name string
	Data []byte
}

// Loader memoizes whole-file reads keyed by the filename string as reported
// by the parser for cursor extents. Consistency across cursors depends on the
// parser returning stable strings for the same file.
type Loader struct {
	files map[string]*File
}

// NewLoader returns an empty cache.
func NewLoader() *Loader {
	return &Loader{files: make(map[string]*File)}
}

// Load returns the cached file, reading it eagerly and whole on first
// reference. Re-loading a known filename is a no-op.
func (l *Loader) Load(name string) (*File, error) {
	if f, ok := l.files[name]; ok {
		return f, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	f := &File{Name: name, Data: data}
	l.files[name] = f
	return f, nil
}

// Get returns a previously loaded file without touching the disk.
func (l *Loader) Get(name string) (*File, bool) {
	f, ok := l.files[name]
	return f, ok
}

// Add seeds the cache with in-memory contents, bypassing the filesystem.
// Tests use this to run the engine without real files.
func (l *Loader) Add(name string, data []byte) *File {
	f := &File{Name: name, Data: data}
	l.files[name] = f
	return f
}

// Names returns the cached filenames in lexicographic order.
func (l *Loader) Names() []string {
	names := make([]string, 0, len(l.files))
	for name := range l.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
