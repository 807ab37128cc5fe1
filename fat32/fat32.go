// Package fat32 reads FAT32 volumes from any byte-addressable stream and
// exposes them as a vfs backend: boot-sector and FSInfo validation,
// cluster-chain traversal with a cached FAT window, and directory iteration
// with long-name reconstruction and per-entry corruption recovery.
//
// The driver keeps no locks; like the rest of the storage stack it relies on
// the caller serialising filesystem operations.
package fat32

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fennelos/storage/errtrace"
	"github.com/fennelos/storage/vfs"
)

// openedInfo is the driver-private state of one open node.
type openedInfo struct {
	cluster uint32
	size    uint32
}

// Filesystem is one mounted FAT32 instance.
type Filesystem struct {
	stream blockStream
	config Config
	root   *vfs.Dir
	logger *zap.SugaredLogger

	// opened tracks every node handed out by Open, keyed by the node itself.
	opened map[vfs.Node]openedInfo
}

// Option configures a Filesystem.
type Option func(*Filesystem)

// WithLogger routes driver diagnostics (skipped orphans, wrapped unexpected
// errors) to l instead of discarding them.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(fs *Filesystem) {
		fs.logger = l
	}
}

// New parses and validates the volume on stream and returns a ready
// filesystem instance. The caller owns its lifetime and finishes it with
// Destroy.
func New(stream io.ReadSeeker, opts ...Option) (*Filesystem, error) {
	config, err := ParseConfig(stream)
	if err != nil {
		return nil, err
	}

	fs := &Filesystem{
		stream: stream,
		config: config,
		logger: zap.NewNop().Sugar(),
		opened: make(map[vfs.Node]openedInfo),
	}
	for _, opt := range opts {
		opt(fs)
	}

	fs.root = vfs.NewDir(fs)

	return fs, nil
}

// Config returns the immutable volume configuration.
func (fs *Filesystem) Config() Config { return fs.config }

// Root returns the root directory node of this instance.
func (fs *Filesystem) Root() *vfs.Dir { return fs.root }

// Destroy finishes the instance. All nodes must have been closed before; a
// node still open at destruction is a programming error in the caller and
// trips a panic rather than being cleaned up silently.
func (fs *Filesystem) Destroy() {
	if len(fs.opened) != 0 {
		panic(fmt.Sprintf("fat32: destroy with %d node(s) still open", len(fs.opened)))
	}

	fs.root = nil
	fs.opened = nil
}

// Open looks up name inside dir. Creation flags are accepted but creation is
// not implemented yet, so they behave like a failed lookup. Matching is
// case-insensitive against both the long and the short name.
func (fs *Filesystem) Open(dir *vfs.Dir, name string, flags vfs.OpenFlags, args vfs.OpenArgs) (vfs.Node, error) {
	if flags != vfs.NoCreation {
		// TODO: file/dir/symlink creation needs cluster allocation first.
		return nil, errtrace.From(vfs.ErrNoSuchFileOrDir)
	}

	cluster := fs.config.RootCluster
	if dir != fs.root {
		info, ok := fs.opened[dir]
		if !ok {
			return nil, errtrace.From(vfs.ErrNotOpened)
		}
		cluster = info.cluster
	}

	iterator, err := newEntryIterator(fs.stream, &fs.config, cluster, fs.logger)
	if err != nil {
		return nil, fs.unexpected("building directory iterator", err)
	}

	for {
		entry, err := iterator.Next()
		if err == io.EOF {
			return nil, errtrace.From(vfs.ErrNoSuchFileOrDir)
		}
		if err != nil {
			return nil, fs.unexpected("iterating directory", err)
		}

		if !entry.Matches(name) {
			continue
		}

		var node vfs.Node
		if entry.IsDir() {
			node = vfs.NewDir(fs)
		} else {
			node = vfs.NewFile(fs)
		}

		fs.opened[node] = openedInfo{
			cluster: entry.Header.FirstCluster(),
			size:    entry.Header.FileSize,
		}

		return node, nil
	}
}

// Entries lists dir's entries in on-disk order. Orphaned records are skipped
// the same way Open skips them.
func (fs *Filesystem) Entries(dir *vfs.Dir) ([]Entry, error) {
	cluster := fs.config.RootCluster
	if dir != fs.root {
		info, ok := fs.opened[dir]
		if !ok {
			return nil, errtrace.From(vfs.ErrNotOpened)
		}
		cluster = info.cluster
	}

	iterator, err := newEntryIterator(fs.stream, &fs.config, cluster, fs.logger)
	if err != nil {
		return nil, fs.unexpected("building directory iterator", err)
	}

	var entries []Entry
	for {
		entry, err := iterator.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fs.unexpected("iterating directory", err)
		}
		entries = append(entries, *entry)
	}
}

// List implements vfs.Lister on top of Entries. The "." and ".." entries of
// subdirectories are omitted so enumeration (and tree walks built on it)
// only ever descends.
func (fs *Filesystem) List(dir *vfs.Dir) ([]vfs.EntryInfo, error) {
	entries, err := fs.Entries(dir)
	if err != nil {
		return nil, err
	}

	infos := make([]vfs.EntryInfo, 0, len(entries))
	for i := range entries {
		if entries[i].Name == "." || entries[i].Name == ".." {
			continue
		}
		infos = append(infos, vfs.EntryInfo{
			Name:    entries[i].Name,
			Dir:     entries[i].IsDir(),
			Size:    int64(entries[i].Header.FileSize),
			ModTime: entries[i].ModTime(),
		})
	}

	return infos, nil
}

// Close releases a node returned by Open. Closing twice, or closing a node
// this instance never handed out, does nothing.
func (fs *Filesystem) Close(node vfs.Node) {
	delete(fs.opened, node)
}

// Read clamps the request against the file size. Content reads are not
// implemented yet; the buffer is left untouched.
func (fs *Filesystem) Read(node vfs.Node, p []byte) (int, error) {
	info, ok := fs.opened[node]
	if !ok {
		return 0, errtrace.From(vfs.ErrNotOpened)
	}

	n := len(p)
	if int(info.size) < n {
		n = int(info.size)
	}

	return n, nil
}

// Write clamps the request against the file size. Content writes need
// cluster allocation and are not implemented yet.
func (fs *Filesystem) Write(node vfs.Node, p []byte) (int, error) {
	info, ok := fs.opened[node]
	if !ok {
		return 0, errtrace.From(vfs.ErrNotOpened)
	}

	n := len(p)
	if int(info.size) < n {
		n = int(info.size)
	}

	return n, nil
}

// unexpected logs the underlying cause and folds it into the stable VFS
// error surface. Errors that are already VFS-level pass through unchanged.
func (fs *Filesystem) unexpected(action string, err error) error {
	if errors.Is(err, vfs.ErrNoSuchFileOrDir) || errors.Is(err, vfs.ErrNotOpened) {
		return err
	}
	if errors.Is(err, ErrInvalidName) {
		fs.logger.Warnw("malformed long name during lookup", "error", err)
	} else {
		fs.logger.Errorw("unexpected fat32 error", "action", action, "error", err)
	}

	return errtrace.Mark(err, vfs.ErrUnexpected)
}
