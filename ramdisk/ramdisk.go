// Package ramdisk provides a fixed-size RAM-backed block stream. It
// implements io.ReadWriteSeeker and io.ReaderAt, which makes it a drop-in
// volume for the fat32 driver, the mbr reader and the mkfat maker.
package ramdisk

import (
	"errors"
	"io"
)

var errWhence = errors.New("ramdisk: invalid seek whence")
var errNegative = errors.New("ramdisk: seek before start")

// Disk is a byte-addressable in-memory volume of fixed size.
type Disk struct {
	data []byte
	pos  int64
}

// New returns a zero-filled disk of the given size.
func New(size int64) *Disk {
	return &Disk{data: make([]byte, size)}
}

// FromBytes wraps an existing image. The disk aliases data; it does not copy.
func FromBytes(data []byte) *Disk {
	return &Disk{data: data}
}

// Size returns the disk size in bytes.
func (d *Disk) Size() int64 { return int64(len(d.data)) }

// Bytes returns the backing image.
func (d *Disk) Bytes() []byte { return d.data }

func (d *Disk) Read(p []byte) (int, error) {
	if d.pos >= int64(len(d.data)) {
		return 0, io.EOF
	}

	n := copy(p, d.data[d.pos:])
	d.pos += int64(n)

	return n, nil
}

func (d *Disk) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegative
	}
	if off >= int64(len(d.data)) {
		return 0, io.EOF
	}

	n := copy(p, d.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// Write stores p at the current position. Writing past the end of the disk
// fails with io.ErrShortWrite after the in-bounds prefix is stored; the disk
// never grows.
func (d *Disk) Write(p []byte) (int, error) {
	if d.pos >= int64(len(d.data)) {
		return 0, io.ErrShortWrite
	}

	n := copy(d.data[d.pos:], p)
	d.pos += int64(n)

	if n < len(p) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

func (d *Disk) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += d.pos
	case io.SeekEnd:
		offset += int64(len(d.data))
	default:
		return 0, errWhence
	}

	if offset < 0 {
		return 0, errNegative
	}

	d.pos = offset
	return offset, nil
}
