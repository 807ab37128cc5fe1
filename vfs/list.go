package vfs

import "time"

// EntryInfo describes one directory entry for enumeration.
type EntryInfo struct {
	Name    string
	Dir     bool
	Symlink bool
	Size    int64
	ModTime time.Time
}

// Lister is the optional enumeration side of a backend. Directory listing is
// not part of the core FileSystem contract; tooling that wants it checks for
// this interface with a type assertion.
type Lister interface {
	List(dir *Dir) ([]EntryInfo, error)
}
