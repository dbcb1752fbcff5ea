// Package watcher reports changes to individual files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which drops a watch placed on the file itself. FileWatcher
// therefore watches each file's directory and filters events down to the
// files it was asked about. Rapid changes to one file are coalesced into a
// single event after a debounce delay.
package watcher

import (
	"errors"
	"strings"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("file is already being watched")
	ErrNotWatching     = errors.New("file is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
	ErrIsDirectory     = errors.New("path is a directory")
)

// Op is a set of file operations.
type Op uint32

const (
	// OpCreate indicates the file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates the file was written to.
	OpWrite
	// OpRemove indicates the file was removed.
	OpRemove
	// OpRename indicates the file was renamed away.
	OpRename
	// OpChmod indicates the file permissions changed.
	OpChmod
)

var opNames = []struct {
	op   Op
	name string
}{
	{OpCreate, "CREATE"},
	{OpWrite, "WRITE"},
	{OpRemove, "REMOVE"},
	{OpRename, "RENAME"},
	{OpChmod, "CHMOD"},
}

// String returns the operations joined by "|".
func (op Op) String() string {
	var parts []string
	for _, n := range opNames {
		if op.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, "|")
}

// Has returns true if the set includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event is a change to a watched file. Op accumulates every operation seen
// during the debounce window.
type Event struct {
	// Path is the absolute path of the file.
	Path string

	// Op is the set of operations that occurred.
	Op Op

	// Timestamp is when the last operation occurred.
	Timestamp time.Time
}

// Removed reports whether the file is gone at the end of the window.
// A rename or remove followed by a create means the file was replaced.
func (e Event) Removed() bool {
	return (e.Op.Has(OpRemove) || e.Op.Has(OpRename)) && !e.Op.Has(OpCreate)
}

// Config configures a FileWatcher.
type Config struct {
	// Debounce is how long a file must be quiet before its event fires.
	Debounce time.Duration

	// BufferSize is the capacity of the event and error channels.
	BufferSize int
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Debounce:   200 * time.Millisecond,
		BufferSize: 16,
	}
}

// Option configures a FileWatcher.
type Option func(*Config)

// WithDebounce sets the debounce delay. Zero or negative delivers events
// without delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Config) {
		c.Debounce = d
	}
}

// WithBufferSize sets the channel capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) {
		c.BufferSize = n
	}
}
