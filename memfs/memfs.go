// Package memfs is an in-memory vfs backend in the spirit of an initrd:
// cheap to build, supports files, directories and symlinks, and implements
// the creation flags the FAT32 driver does not. It is also the reference
// backend for exercising the VFS core in tests.
package memfs

import (
	"io"
	"sort"
	"time"

	"github.com/fennelos/storage/errtrace"
	"github.com/fennelos/storage/vfs"
)

// entry is one object in the tree.
type entry struct {
	name     string
	dir      bool
	symlink  bool
	target   string
	data     []byte
	children map[string]*entry
	modTime  time.Time
}

// openState is the bookkeeping for an open node: the tree entry it refers to,
// a read/write offset and the number of opens still holding the node.
type openState struct {
	entry  *entry
	offset int
	refs   int
}

// Filesystem is one in-memory filesystem instance.
type Filesystem struct {
	root      *vfs.Dir
	rootEntry *entry
	opened    map[vfs.Node]*openState
	nodes     map[*entry]vfs.Node
}

// New returns an empty filesystem with just a root directory.
func New() *Filesystem {
	fs := &Filesystem{
		rootEntry: &entry{dir: true, children: make(map[string]*entry), modTime: time.Now()},
		opened:    make(map[vfs.Node]*openState),
		nodes:     make(map[*entry]vfs.Node),
	}
	fs.root = vfs.NewDir(fs)

	return fs
}

// Root returns the root directory node.
func (fs *Filesystem) Root() *vfs.Dir { return fs.root }

// Open looks name up in dir, creating it according to flags when missing.
func (fs *Filesystem) Open(dir *vfs.Dir, name string, flags vfs.OpenFlags, args vfs.OpenArgs) (vfs.Node, error) {
	parent, err := fs.resolveDir(dir)
	if err != nil {
		return nil, err
	}

	child, ok := parent.children[name]
	if !ok {
		if flags == vfs.NoCreation {
			return nil, errtrace.From(vfs.ErrNoSuchFileOrDir)
		}
		child = fs.create(parent, name, flags, args)
	}

	// An entry already open keeps its node, so mounts placed on an open
	// directory stay visible to later path resolutions.
	if node, ok := fs.nodes[child]; ok {
		fs.opened[node].refs++
		return node, nil
	}

	var node vfs.Node
	switch {
	case child.dir:
		node = vfs.NewDir(fs)
	case child.symlink:
		node = vfs.NewSymlink(fs, child.target)
	default:
		node = vfs.NewFile(fs)
	}

	fs.opened[node] = &openState{entry: child, refs: 1}
	fs.nodes[child] = node

	return node, nil
}

func (fs *Filesystem) create(parent *entry, name string, flags vfs.OpenFlags, args vfs.OpenArgs) *entry {
	child := &entry{name: name, modTime: time.Now()}
	switch flags {
	case vfs.CreateDir:
		child.dir = true
		child.children = make(map[string]*entry)
	case vfs.CreateSymlink:
		child.symlink = true
		child.target = args.SymlinkTarget
	}
	parent.children[name] = child

	return child
}

// Close drops one reference to a node and forgets it when the last open is
// gone. Redundant closes are no-ops.
func (fs *Filesystem) Close(node vfs.Node) {
	state, ok := fs.opened[node]
	if !ok {
		return
	}

	state.refs--
	if state.refs > 0 {
		return
	}

	delete(fs.opened, node)
	delete(fs.nodes, state.entry)
}

// Read copies file content from the node's current offset.
func (fs *Filesystem) Read(node vfs.Node, p []byte) (int, error) {
	state, ok := fs.opened[node]
	if !ok {
		return 0, errtrace.From(vfs.ErrNotOpened)
	}
	if state.entry.dir {
		return 0, errtrace.From(vfs.ErrIsADirectory)
	}

	if state.offset >= len(state.entry.data) {
		return 0, io.EOF
	}

	n := copy(p, state.entry.data[state.offset:])
	state.offset += n

	return n, nil
}

// Write stores file content at the node's current offset, growing the file
// as needed.
func (fs *Filesystem) Write(node vfs.Node, p []byte) (int, error) {
	state, ok := fs.opened[node]
	if !ok {
		return 0, errtrace.From(vfs.ErrNotOpened)
	}
	if state.entry.dir {
		return 0, errtrace.From(vfs.ErrIsADirectory)
	}

	end := state.offset + len(p)
	if end > len(state.entry.data) {
		grown := make([]byte, end)
		copy(grown, state.entry.data)
		state.entry.data = grown
	}

	n := copy(state.entry.data[state.offset:end], p)
	state.offset += n
	state.entry.modTime = time.Now()

	return n, nil
}

// List implements vfs.Lister, in lexical order.
func (fs *Filesystem) List(dir *vfs.Dir) ([]vfs.EntryInfo, error) {
	parent, err := fs.resolveDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(parent.children))
	for name := range parent.children {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]vfs.EntryInfo, 0, len(names))
	for _, name := range names {
		child := parent.children[name]
		infos = append(infos, vfs.EntryInfo{
			Name:    name,
			Dir:     child.dir,
			Symlink: child.symlink,
			Size:    int64(len(child.data)),
			ModTime: child.modTime,
		})
	}

	return infos, nil
}

func (fs *Filesystem) resolveDir(dir *vfs.Dir) (*entry, error) {
	if dir == fs.root {
		return fs.rootEntry, nil
	}

	state, ok := fs.opened[dir]
	if !ok {
		return nil, errtrace.From(vfs.ErrNotOpened)
	}
	if !state.entry.dir {
		return nil, errtrace.From(vfs.ErrNotADirectory)
	}

	return state.entry, nil
}
