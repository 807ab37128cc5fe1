package vfs

import "errors"

// Errors returned by the VFS layer. Backends translate their internal
// failures into this set so callers only ever match against these.
var (
	ErrNoSuchFileOrDir   = errors.New("vfs: no such file or directory")
	ErrNotADirectory     = errors.New("vfs: not a directory")
	ErrIsADirectory      = errors.New("vfs: is a directory")
	ErrIsAFile           = errors.New("vfs: is a file")
	ErrNotAbsolutePath   = errors.New("vfs: path is not absolute")
	ErrInvalidFlags      = errors.New("vfs: invalid open flags")
	ErrNotOpened         = errors.New("vfs: node is not opened")
	ErrNoSymlinkTarget   = errors.New("vfs: symlink has no target")
	ErrDirAlreadyMounted = errors.New("vfs: directory is already mounted")
	ErrLinkLoop          = errors.New("vfs: too many levels of symbolic links")
	ErrRootNotSet        = errors.New("vfs: root has not been initialised")
	ErrUnexpected        = errors.New("vfs: unexpected error")
)
