// Package aferofs exposes a vfs backend as a read-only afero.Fs so the usual
// afero tooling (afero.Walk and friends) works against any storage backend,
// FAT32 volumes included.
package aferofs

import (
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/fennelos/storage/errtrace"
	"github.com/fennelos/storage/vfs"
)

// These errors may occur while adapting vfs semantics to afero.
var (
	ErrReadDir  = syscall.ENOTSUP
	ErrReadOnly = syscall.EPERM
)

// Fs adapts one vfs backend. It resolves paths inside that backend only;
// mounts and symlink following belong to the vfs core, not to this adapter.
type Fs struct {
	backend vfs.FileSystem
}

// New wraps backend as an afero filesystem.
func New(backend vfs.FileSystem) *Fs {
	return &Fs{backend: backend}
}

// Open opens the named file or directory for reading.
func (fs *Fs) Open(name string) (afero.File, error) {
	segments := splitPath(name)

	if len(segments) == 0 {
		return &File{
			fs:   fs.backend,
			node: fs.backend.Root(),
			info: vfs.EntryInfo{Name: "/", Dir: true},
			root: true,
		}, nil
	}

	dir := fs.backend.Root()
	// Intermediate directories are closed as soon as the next level is open;
	// the backend root is never closed.
	ownsDir := false

	for _, segment := range segments[:len(segments)-1] {
		child, err := fs.backend.Open(dir, segment, vfs.NoCreation, vfs.OpenArgs{})
		if ownsDir {
			fs.backend.Close(dir)
		}
		if err != nil {
			return nil, err
		}

		next, ok := child.(*vfs.Dir)
		if !ok {
			fs.backend.Close(child)
			return nil, errtrace.From(vfs.ErrNotADirectory)
		}
		dir, ownsDir = next, true
	}

	final := segments[len(segments)-1]

	info, err := fs.lookup(dir, final)
	if err != nil {
		if ownsDir {
			fs.backend.Close(dir)
		}
		return nil, err
	}

	node, err := fs.backend.Open(dir, final, vfs.NoCreation, vfs.OpenArgs{})
	if ownsDir {
		fs.backend.Close(dir)
	}
	if err != nil {
		return nil, err
	}

	return &File{fs: fs.backend, node: node, info: info}, nil
}

// lookup finds the directory entry describing name, for Stat purposes.
func (fs *Fs) lookup(dir *vfs.Dir, name string) (vfs.EntryInfo, error) {
	lister, ok := fs.backend.(vfs.Lister)
	if !ok {
		// Backends without enumeration still get a usable, if bare, info.
		return vfs.EntryInfo{Name: name}, nil
	}

	entries, err := lister.List(dir)
	if err != nil {
		return vfs.EntryInfo{}, err
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.Name, name) {
			return entry, nil
		}
	}

	return vfs.EntryInfo{}, errtrace.From(vfs.ErrNoSuchFileOrDir)
}

// OpenFile supports read-only flags; everything else fails on this adapter.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, ErrReadOnly
	}
	return fs.Open(name)
}

// Stat returns file info for the named entry.
func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	file, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return file.Stat()
}

func (fs *Fs) Name() string { return "vfs" }

func (fs *Fs) Create(name string) (afero.File, error) { return nil, ErrReadOnly }

func (fs *Fs) Mkdir(name string, perm os.FileMode) error { return ErrReadOnly }

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error { return ErrReadOnly }

func (fs *Fs) Remove(name string) error { return ErrReadOnly }

func (fs *Fs) RemoveAll(path string) error { return ErrReadOnly }

func (fs *Fs) Rename(oldname, newname string) error { return ErrReadOnly }

func (fs *Fs) Chmod(name string, mode os.FileMode) error { return ErrReadOnly }

func (fs *Fs) Chown(name string, uid, gid int) error { return ErrReadOnly }

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error { return ErrReadOnly }

func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
