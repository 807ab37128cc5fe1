package fat32_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/fennelos/storage/fat32"
	"github.com/fennelos/storage/mkfat"
	"github.com/fennelos/storage/ramdisk"
	"github.com/fennelos/storage/vfs"
)

func buildImage(t *testing.T, size int64, build func(m *mkfat.Maker)) *ramdisk.Disk {
	t.Helper()

	maker := mkfat.New(mkfat.Options{Size: size})
	if build != nil {
		build(maker)
	}

	disk := ramdisk.New(size)
	if err := maker.Write(disk); err != nil {
		t.Fatalf("writing image: %v", err)
	}

	return disk
}

const testImageSize = 8 << 20

func testTree(t *testing.T) *ramdisk.Disk {
	return buildImage(t, testImageSize, func(m *mkfat.Maker) {
		if err := m.AddFile("/boot/kernel.bin", []byte("hello")); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
		if err := m.AddFile("/readme.md", []byte("docs")); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
		if err := m.AddFile("/Some Long Name.txt", []byte("x")); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
	})
}

func TestNew_referenceImage(t *testing.T) {
	disk := buildImage(t, mkfat.DefaultSize, nil)

	fs, err := fat32.New(disk)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fs.Destroy()

	want := fat32.Config{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   32,
		TotalSectors:      66583,
		SectorsPerFAT:     513,
		RootCluster:       2,
		FSInfoSector:      1,
		BackupBootSector:  6,
		HasFSInfo:         true,
		FreeClusters:      65524,
		NextFreeCluster:   2,
		EndMarker:         0x0FFFFFFF,
	}
	if diff := cmp.Diff(want, fs.Config()); diff != "" {
		t.Errorf("Config() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesystem_Open(t *testing.T) {
	fs, err := fat32.New(testTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fs.Destroy()

	boot, err := fs.Open(fs.Root(), "boot", vfs.NoCreation, vfs.OpenArgs{})
	if err != nil {
		t.Fatalf("Open(boot) error = %v", err)
	}
	defer fs.Close(boot)

	bootDir, ok := boot.(*vfs.Dir)
	if !ok {
		t.Fatalf("Open(boot) = %T, want *vfs.Dir", boot)
	}

	tests := []struct {
		name   string
		dir    *vfs.Dir
		lookup string
		isDir  bool
	}{
		{name: "file by long name", dir: bootDir, lookup: "kernel.bin"},
		{name: "file case-insensitive", dir: bootDir, lookup: "KERNEL.BIN"},
		{name: "file by short name", dir: bootDir, lookup: "KERNEL~1.BIN"},
		{name: "long name with spaces", dir: fs.Root(), lookup: "Some Long Name.txt"},
		{name: "short alias of long name", dir: fs.Root(), lookup: "some_l~1.txt"},
		{name: "directory", dir: fs.Root(), lookup: "BOOT", isDir: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := fs.Open(tt.dir, tt.lookup, vfs.NoCreation, vfs.OpenArgs{})
			if err != nil {
				t.Fatalf("Open(%q) error = %v", tt.lookup, err)
			}
			defer fs.Close(node)

			if _, ok := node.(*vfs.Dir); ok != tt.isDir {
				t.Errorf("Open(%q) = %T, want dir %v", tt.lookup, node, tt.isDir)
			}
		})
	}
}

func TestFilesystem_OpenErrors(t *testing.T) {
	fs, err := fat32.New(testTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fs.Destroy()

	t.Run("missing entry", func(t *testing.T) {
		_, err := fs.Open(fs.Root(), "nope", vfs.NoCreation, vfs.OpenArgs{})
		if !errors.Is(err, vfs.ErrNoSuchFileOrDir) {
			t.Errorf("Open() error = %v, want ErrNoSuchFileOrDir", err)
		}
	})

	t.Run("creation is not supported", func(t *testing.T) {
		_, err := fs.Open(fs.Root(), "new.txt", vfs.CreateFile, vfs.OpenArgs{})
		if !errors.Is(err, vfs.ErrNoSuchFileOrDir) {
			t.Errorf("Open() error = %v, want ErrNoSuchFileOrDir", err)
		}
	})

	t.Run("foreign directory node", func(t *testing.T) {
		_, err := fs.Open(vfs.NewDir(fs), "boot", vfs.NoCreation, vfs.OpenArgs{})
		if !errors.Is(err, vfs.ErrNotOpened) {
			t.Errorf("Open() error = %v, want ErrNotOpened", err)
		}
	})
}

func TestFilesystem_ReadWriteClamp(t *testing.T) {
	fs, err := fat32.New(testTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fs.Destroy()

	node, err := fs.Open(fs.Root(), "readme.md", vfs.NoCreation, vfs.OpenArgs{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer fs.Close(node)

	// The file is 4 bytes; requests are clamped to its size.
	if n, err := fs.Read(node, make([]byte, 16)); err != nil || n != 4 {
		t.Errorf("Read() = %d, %v, want 4, nil", n, err)
	}
	if n, err := fs.Write(node, make([]byte, 16)); err != nil || n != 4 {
		t.Errorf("Write() = %d, %v, want 4, nil", n, err)
	}

	if _, err := fs.Read(vfs.NewFile(fs), make([]byte, 1)); !errors.Is(err, vfs.ErrNotOpened) {
		t.Errorf("Read() on foreign node error = %v, want ErrNotOpened", err)
	}
}

func TestFilesystem_List(t *testing.T) {
	fs, err := fat32.New(testTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fs.Destroy()

	infos, err := fs.List(fs.Root())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	byName := make(map[string]vfs.EntryInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}

	boot, ok := byName["boot"]
	if !ok || !boot.Dir {
		t.Errorf("List() boot = %+v, want a directory", boot)
	}
	readme, ok := byName["readme.md"]
	if !ok || readme.Dir || readme.Size != 4 {
		t.Errorf("List() readme.md = %+v, want a 4-byte file", readme)
	}
	if _, ok := byName["Some Long Name.txt"]; !ok {
		t.Error("List() is missing the long-name entry")
	}

	// Images are written with a fixed timestamp by default.
	wantTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if !readme.ModTime.Equal(wantTime) {
		t.Errorf("List() readme.md mod time = %v, want %v", readme.ModTime, wantTime)
	}
}

func TestFilesystem_List_subdirectory(t *testing.T) {
	fs, err := fat32.New(testTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fs.Destroy()

	node, err := fs.Open(fs.Root(), "boot", vfs.NoCreation, vfs.OpenArgs{})
	if err != nil {
		t.Fatalf("Open(boot) error = %v", err)
	}
	defer fs.Close(node)
	boot := node.(*vfs.Dir)

	// The raw record stream carries the dot entries.
	entries, err := fs.Entries(boot)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	names := make([]string, len(entries))
	for i := range entries {
		names[i] = entries[i].Name
	}
	if len(names) != 3 || names[0] != "." || names[1] != ".." || names[2] != "kernel.bin" {
		t.Errorf("Entries() = %v, want [. .. kernel.bin]", names)
	}

	// Enumeration hides them.
	infos, err := fs.List(boot)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "kernel.bin" {
		t.Errorf("List() = %v, want just kernel.bin", infos)
	}
}

func TestFilesystem_CloseIsIdempotent(t *testing.T) {
	fs, err := fat32.New(testTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	node, err := fs.Open(fs.Root(), "readme.md", vfs.NoCreation, vfs.OpenArgs{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	fs.Close(node)
	fs.Close(node)
	fs.Destroy()
}

func TestFilesystem_DestroyPanicsOnOpenNodes(t *testing.T) {
	fs, err := fat32.New(testTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	node, err := fs.Open(fs.Root(), "readme.md", vfs.NoCreation, vfs.OpenArgs{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Destroy() did not panic with an open node")
			}
		}()
		fs.Destroy()
	}()

	fs.Close(node)
	fs.Destroy()
}
