package aferofs

import (
	"io"
	"os"
	"syscall"

	"github.com/spf13/afero"

	"github.com/fennelos/storage/vfs"
)

// File is an open afero handle over a vfs node. Reads are sequential through
// the owning backend; the local offset only drives Readdir batching and Seek
// bookkeeping.
type File struct {
	fs   vfs.FileSystem
	node vfs.Node
	info vfs.EntryInfo
	root bool

	offset  int64
	entries []vfs.EntryInfo
	listed  bool
}

// Close releases the underlying vfs node. The backend root is not closable.
func (f *File) Close() error {
	if !f.root && f.node != nil {
		f.fs.Close(f.node)
	}

	f.node = nil
	f.entries = nil
	f.listed = false
	f.offset = 0

	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if f.node == nil {
		return 0, os.ErrClosed
	}

	n, err = f.fs.Read(f.node, p)
	f.offset += int64(n)

	return n, err
}

// ReadAt is not supported: the backend contract reads sequentially.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return 0, syscall.ENOTSUP
}

// Seek only adjusts the local bookkeeping offset. May return syscall.EINVAL
// for an invalid whence value and afero.ErrOutOfRange for an offset before
// the start of the file.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.info.Size + offset
	default:
		return 0, syscall.EINVAL
	}

	if offset < 0 {
		return 0, afero.ErrOutOfRange
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (int, error) { return 0, ErrReadOnly }

func (f *File) WriteAt(p []byte, off int64) (int, error) { return 0, ErrReadOnly }

func (f *File) WriteString(s string) (int, error) { return 0, ErrReadOnly }

func (f *File) Truncate(size int64) error { return ErrReadOnly }

func (f *File) Sync() error { return nil }

func (f *File) Name() string { return f.info.Name }

// Readdir lists directory content in batches of count, like os.File does.
// May return syscall.ENOTDIR when the handle is not a directory, or
// ErrReadDir when the backend cannot enumerate.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.info.Dir {
		return nil, syscall.ENOTDIR
	}

	dir, ok := f.node.(*vfs.Dir)
	if !ok {
		return nil, syscall.ENOTDIR
	}

	lister, ok := f.fs.(vfs.Lister)
	if !ok {
		return nil, ErrReadDir
	}

	if !f.listed {
		entries, err := lister.List(dir)
		if err != nil {
			return nil, err
		}
		f.entries = entries
		f.listed = true
	}

	// Seek can move the offset anywhere; batching works from the end of the
	// listing at most.
	if f.offset > int64(len(f.entries)) {
		f.offset = int64(len(f.entries))
	}

	var err error
	end := len(f.entries)

	if int64(len(f.entries)) < f.offset+int64(count) {
		count = len(f.entries) - int(f.offset)
		err = io.EOF
	}
	if count >= 0 {
		end = int(f.offset) + count
	}

	batch := f.entries[f.offset:end]

	if count > 0 {
		f.offset += int64(count)
	} else if count < 0 {
		f.offset = int64(end)
	}

	result := make([]os.FileInfo, len(batch))
	for i := range batch {
		result[i] = entryFileInfo{entry: batch[i]}
	}

	return result, err
}

func (f *File) Readdirnames(count int) ([]string, error) {
	entries, err := f.Readdir(count)
	if err != nil && err != io.EOF {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}

	return names, err
}

func (f *File) Stat() (os.FileInfo, error) {
	return entryFileInfo{entry: f.info}, nil
}
