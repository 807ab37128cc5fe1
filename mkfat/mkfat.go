// Package mkfat writes fresh FAT32 images: boot sector with backup, FSInfo,
// two mirrored FATs and a directory tree with 8.3 and long-name entries. The
// output is the ground truth the fat32 driver is tested against.
package mkfat

import (
	"errors"
	"strings"
	"time"
)

// DefaultSize is the image size produced when Options.Size is zero.
const DefaultSize = 34090496

var (
	// ErrImageFull means the tree does not fit into the data region.
	ErrImageFull = errors.New("mkfat: tree does not fit into image")
	// ErrNotADirectory means a path component is a file.
	ErrNotADirectory = errors.New("mkfat: path component is not a directory")
	// ErrBadPath means a path is empty or not absolute.
	ErrBadPath = errors.New("mkfat: bad path")
	// ErrExists means the path is already taken by an incompatible entry.
	ErrExists = errors.New("mkfat: entry already exists")
)

// Options controls image geometry and metadata. Zero values select the
// defaults of the reference image.
type Options struct {
	Size              int64
	BytesPerSector    int
	SectorsPerCluster int
	ReservedSectors   int
	VolumeLabel       string
	OEMName           string
	// Modified is the timestamp stamped on every entry; fixed by default so
	// images are reproducible.
	Modified time.Time
}

func (o Options) withDefaults() Options {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.BytesPerSector == 0 {
		o.BytesPerSector = 512
	}
	if o.SectorsPerCluster == 0 {
		o.SectorsPerCluster = 1
	}
	if o.ReservedSectors == 0 {
		o.ReservedSectors = 32
	}
	if o.VolumeLabel == "" {
		o.VolumeLabel = "NO NAME"
	}
	if o.OEMName == "" {
		o.OEMName = "fennelos"
	}
	if o.Modified.IsZero() {
		o.Modified = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return o
}

// node is one object of the tree being built.
type node struct {
	name     string
	dir      bool
	data     []byte
	children []*node
	parent   *node

	cluster  uint32
	clusters uint32
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Maker accumulates a directory tree and serialises it into an image.
type Maker struct {
	opts Options
	root *node
}

// New returns a maker for an image with the given options.
func New(opts Options) *Maker {
	return &Maker{
		opts: opts.withDefaults(),
		root: &node{dir: true},
	}
}

// AddDir adds a directory at an absolute path, creating parents as needed.
func (m *Maker) AddDir(path string) error {
	_, err := m.mkdirs(path)
	return err
}

// AddFile adds a file with the given content at an absolute path, creating
// parent directories as needed.
func (m *Maker) AddFile(path string, data []byte) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	parent := m.root
	if len(segments) > 1 {
		parent, err = m.mkdirSegments(segments[:len(segments)-1])
		if err != nil {
			return err
		}
	}

	name := segments[len(segments)-1]
	if existing := parent.child(name); existing != nil {
		return ErrExists
	}

	parent.children = append(parent.children, &node{
		name:   name,
		data:   data,
		parent: parent,
	})

	return nil
}

func (m *Maker) mkdirs(path string) (*node, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	return m.mkdirSegments(segments)
}

func (m *Maker) mkdirSegments(segments []string) (*node, error) {
	cur := m.root
	for _, segment := range segments {
		next := cur.child(segment)
		if next == nil {
			next = &node{name: segment, dir: true, parent: cur}
			cur.children = append(cur.children, next)
		}
		if !next.dir {
			return nil, ErrNotADirectory
		}
		cur = next
	}
	return cur, nil
}

func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, ErrBadPath
	}

	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return nil, ErrBadPath
	}

	return segments, nil
}
