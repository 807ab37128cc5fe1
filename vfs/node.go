package vfs

// OpenFlags selects what Open may create when the final path segment does not
// exist yet.
type OpenFlags uint8

const (
	// NoCreation fails with ErrNoSuchFileOrDir when the entry is missing.
	NoCreation OpenFlags = iota
	// CreateFile creates a regular file for the final segment.
	CreateFile
	// CreateDir creates a directory for the final segment.
	CreateDir
	// CreateSymlink creates a symlink for the final segment.
	CreateSymlink
)

// OpenArgs carries flag-specific arguments for Open.
type OpenArgs struct {
	// SymlinkTarget is the absolute path a new symlink points to. Only
	// meaningful together with CreateSymlink.
	SymlinkTarget string
}

// FileSystem is the contract every mountable backend implements. A backend
// owns every Node it hands out from Open until Close is called on it; the VFS
// never allocates or frees backend nodes itself.
//
// No FileSystem implementation in this module synchronises internally. The
// kernel serialises all filesystem calls, and that precondition carries over
// here: callers must not use a FileSystem from multiple goroutines at once.
type FileSystem interface {
	// Open looks up (or, depending on flags, creates) name inside dir and
	// returns a fresh node for it.
	Open(dir *Dir, name string, flags OpenFlags, args OpenArgs) (Node, error)

	// Close releases a node previously returned by Open. Closing a node
	// twice, or a node this filesystem does not track, is a no-op.
	Close(node Node)

	// Read reads from an opened file node.
	Read(node Node, p []byte) (int, error)

	// Write writes to an opened file node.
	Write(node Node, p []byte) (int, error)

	// Root returns the root directory node of this filesystem instance.
	Root() *Dir
}

// Node is the VFS view of an open file, directory or symlink. Exactly three
// implementations exist: *File, *Dir and *Symlink. The kind of a node never
// changes after creation.
type Node interface {
	// FS returns the filesystem that created and owns this node.
	FS() FileSystem

	node()
}

// File is an open regular file.
type File struct {
	fs FileSystem
}

// NewFile returns a file node owned by fs.
func NewFile(fs FileSystem) *File {
	return &File{fs: fs}
}

func (f *File) FS() FileSystem { return f.fs }
func (f *File) node()          {}

// Dir is an open directory. While mount is set, every operation on this
// directory is redirected to the root of the mounted filesystem. The mount
// reference is non-owning; the mounted filesystem's lifetime belongs to
// whoever mounted it.
type Dir struct {
	fs    FileSystem
	mount FileSystem
}

// NewDir returns a directory node owned by fs.
func NewDir(fs FileSystem) *Dir {
	return &Dir{fs: fs}
}

func (d *Dir) FS() FileSystem { return d.fs }
func (d *Dir) node()          {}

// Mounted reports whether another filesystem is mounted on this directory.
func (d *Dir) Mounted() bool { return d.mount != nil }

// Symlink is an open symbolic link holding an absolute target path.
type Symlink struct {
	fs     FileSystem
	target string
}

// NewSymlink returns a symlink node owned by fs pointing at target.
func NewSymlink(fs FileSystem, target string) *Symlink {
	return &Symlink{fs: fs, target: target}
}

func (s *Symlink) FS() FileSystem { return s.fs }
func (s *Symlink) node()          {}

// Target returns the absolute path this symlink points to.
func (s *Symlink) Target() string { return s.target }
