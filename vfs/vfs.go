// Package vfs is the backend-agnostic dispatch layer of the storage stack:
// it resolves absolute paths segment by segment against mounted filesystems,
// follows symlinks and mount redirections, and owns the process-wide root.
//
// The package keeps no locks. Like the rest of the storage stack it relies on
// the caller serialising all filesystem operations; see FileSystem.
package vfs

import (
	"strings"

	"github.com/fennelos/storage/errtrace"
)

// maxLinkDepth bounds recursive symlink resolution so a cyclic chain fails
// with ErrLinkLoop instead of exhausting the stack.
const maxLinkDepth = 16

// root is the process-wide root directory. It is set once via SetRoot during
// boot and read on every absolute path resolution.
var root *Dir

// SetRoot establishes the process-wide root. It fails with ErrNotADirectory
// if node is not a directory.
func SetRoot(node Node) error {
	dir, ok := node.(*Dir)
	if !ok {
		return errtrace.From(ErrNotADirectory)
	}

	root = dir
	return nil
}

// Root returns the process-wide root directory, or nil before SetRoot.
func Root() *Dir { return root }

// Mount binds fs's root onto dir so that traversal through dir transparently
// continues inside fs. A directory can carry at most one mount.
func Mount(dir *Dir, fs FileSystem) error {
	if dir.mount != nil {
		return errtrace.From(ErrDirAlreadyMounted)
	}

	dir.mount = fs
	return nil
}

// Umount removes the mount on dir. It cannot fail; unmounting a directory
// without a mount does nothing.
func Umount(dir *Dir) {
	dir.mount = nil
}

// Open resolves an absolute path to a node. Every segment but the last is
// looked up with NoCreation; the final segment is opened with the supplied
// flags and args. With followSymlinks set, a symlink anywhere in the path is
// replaced by the resolution of its target.
//
// The returned node is owned by its backend and must be released with Close.
func Open(path string, followSymlinks bool, flags OpenFlags, args OpenArgs) (Node, error) {
	return open(path, followSymlinks, flags, args, 0)
}

func open(path string, followSymlinks bool, flags OpenFlags, args OpenArgs, depth int) (Node, error) {
	if depth > maxLinkDepth {
		return nil, errtrace.From(ErrLinkLoop)
	}
	if !strings.HasPrefix(path, "/") {
		return nil, errtrace.From(ErrNotAbsolutePath)
	}
	if root == nil {
		return nil, errtrace.From(ErrRootNotSet)
	}

	segments := splitPath(path)

	cur := Node(root)
	// The root is not owned by this resolution and must never be closed here.
	owned := false

	for i, segment := range segments {
		last := i == len(segments)-1

		dir, ok := cur.(*Dir)
		if !ok {
			release(cur, owned)
			return nil, errtrace.From(ErrNotADirectory)
		}

		// Mount redirection: children are looked up in the mounted
		// filesystem's root instead.
		target := dir
		if dir.mount != nil {
			target = dir.mount.Root()
		}

		segFlags, segArgs := NoCreation, OpenArgs{}
		if last {
			segFlags, segArgs = flags, args
		}

		child, err := target.fs.Open(target, segment, segFlags, segArgs)
		if err != nil {
			release(cur, owned)
			return nil, err
		}

		release(cur, owned)
		cur, owned = child, true

		if link, ok := cur.(*Symlink); ok && followSymlinks {
			linkTarget := link.Target()
			release(cur, owned)

			if linkTarget == "" {
				return nil, errtrace.From(ErrNoSymlinkTarget)
			}

			if last {
				return open(linkTarget, followSymlinks, flags, args, depth+1)
			}

			resolved, err := open(linkTarget, followSymlinks, NoCreation, OpenArgs{}, depth+1)
			if err != nil {
				return nil, err
			}
			cur, owned = resolved, true
		}
	}

	return cur, nil
}

// OpenFile resolves path and requires the result to be a regular file.
// Only NoCreation and CreateFile are accepted.
func OpenFile(path string, followSymlinks bool, flags OpenFlags, args OpenArgs) (*File, error) {
	if flags != NoCreation && flags != CreateFile {
		return nil, errtrace.From(ErrInvalidFlags)
	}

	node, err := Open(path, followSymlinks, flags, args)
	if err != nil {
		return nil, err
	}

	file, ok := node.(*File)
	if !ok {
		node.FS().Close(node)
		if _, isDir := node.(*Dir); isDir {
			return nil, errtrace.From(ErrIsADirectory)
		}
		return nil, errtrace.From(ErrIsAFile)
	}

	return file, nil
}

// OpenDir resolves path and requires the result to be a directory.
// Only NoCreation and CreateDir are accepted.
func OpenDir(path string, followSymlinks bool, flags OpenFlags, args OpenArgs) (*Dir, error) {
	if flags != NoCreation && flags != CreateDir {
		return nil, errtrace.From(ErrInvalidFlags)
	}

	node, err := Open(path, followSymlinks, flags, args)
	if err != nil {
		return nil, err
	}

	dir, ok := node.(*Dir)
	if !ok {
		node.FS().Close(node)
		return nil, errtrace.From(ErrIsAFile)
	}

	return dir, nil
}

// OpenSymlink resolves path to the symlink node itself (targets are never
// followed). Only NoCreation and CreateSymlink are accepted.
func OpenSymlink(path string, flags OpenFlags, args OpenArgs) (*Symlink, error) {
	if flags != NoCreation && flags != CreateSymlink {
		return nil, errtrace.From(ErrInvalidFlags)
	}

	node, err := Open(path, false, flags, args)
	if err != nil {
		return nil, err
	}

	link, ok := node.(*Symlink)
	if !ok {
		node.FS().Close(node)
		if _, isDir := node.(*Dir); isDir {
			return nil, errtrace.From(ErrIsADirectory)
		}
		return nil, errtrace.From(ErrIsAFile)
	}

	return link, nil
}

// Read reads from node through its owning filesystem.
func Read(node Node, p []byte) (int, error) {
	return node.FS().Read(node, p)
}

// Write writes to node through its owning filesystem.
func Write(node Node, p []byte) (int, error) {
	return node.FS().Write(node, p)
}

// Close releases node through its owning filesystem.
func Close(node Node) {
	node.FS().Close(node)
}

func release(node Node, owned bool) {
	if owned {
		node.FS().Close(node)
	}
}

func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
