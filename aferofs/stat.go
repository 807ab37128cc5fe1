package aferofs

import (
	"os"
	"time"

	"github.com/fennelos/storage/vfs"
)

type entryFileInfo struct {
	entry vfs.EntryInfo
}

func (e entryFileInfo) Name() string { return e.entry.Name }

func (e entryFileInfo) Size() int64 { return e.entry.Size }

func (e entryFileInfo) Mode() os.FileMode {
	switch {
	case e.entry.Dir:
		return os.ModeDir
	case e.entry.Symlink:
		return os.ModeSymlink
	}
	return 0
}

func (e entryFileInfo) ModTime() time.Time { return e.entry.ModTime }

func (e entryFileInfo) IsDir() bool { return e.entry.Dir }

func (e entryFileInfo) Sys() interface{} { return e.entry }
