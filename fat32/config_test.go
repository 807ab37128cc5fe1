package fat32

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testBootSector returns a minimal valid boot sector for a 16-sector volume
// with one reserved-sector pair, one FAT sector per copy and the root at
// cluster 2.
func testBootSector() BootSector {
	boot := BootSector{
		JumpBoot:          [3]byte{0xEB, 0x58, 0x90},
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   2,
		FATCount:          2,
		Media:             0xF8,
		TotalSectors32:    16,
		FATSize32:         1,
		RootCluster:       2,
		FSInfoSector:      1,
		BackupBootSector:  0,
		BootSignature:     0x29,
		Signature:         0xAA55,
	}
	copy(boot.FSType[:], "FAT32   ")
	return boot
}

func testFSInfo() FSInfoSector {
	return FSInfoSector{
		LeadSignature:   fsInfoLeadSignature,
		StructSignature: fsInfoStructSignature,
		FreeCount:       10,
		NextFree:        3,
		TrailSignature:  fsInfoTrailSignature,
	}
}

// testImage serialises boot, info and a FAT whose entry 1 is endMarker into a
// 16-sector image.
func testImage(t *testing.T, boot BootSector, info FSInfoSector, endMarker uint32) []byte {
	t.Helper()

	image := make([]byte, 16*512)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &boot); err != nil {
		t.Fatalf("encoding boot sector: %v", err)
	}
	copy(image, buf.Bytes())

	buf.Reset()
	if err := binary.Write(&buf, binary.LittleEndian, &info); err != nil {
		t.Fatalf("encoding FSInfo sector: %v", err)
	}
	copy(image[512:], buf.Bytes())

	binary.LittleEndian.PutUint32(image[2*512:], 0x0FFFFF00|0xF8)
	binary.LittleEndian.PutUint32(image[2*512+4:], endMarker)

	return image
}

func TestParseConfig(t *testing.T) {
	want := Config{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   2,
		TotalSectors:      16,
		SectorsPerFAT:     1,
		RootCluster:       2,
		FSInfoSector:      1,
		HasFSInfo:         true,
		FreeClusters:      10,
		NextFreeCluster:   3,
		EndMarker:         0x0FFFFFF8,
	}

	image := testImage(t, testBootSector(), testFSInfo(), 0x0FFFFFF8)

	got, err := ParseConfig(bytes.NewReader(image))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfig_rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BootSector)
		wantErr error
	}{
		{
			name:    "root cluster below 2",
			mutate:  func(b *BootSector) { b.RootCluster = 1 },
			wantErr: ErrBadRootCluster,
		},
		{
			name:    "one FAT",
			mutate:  func(b *BootSector) { b.FATCount = 1 },
			wantErr: ErrBadFATCount,
		},
		{
			name:    "mirroring disabled",
			mutate:  func(b *BootSector) { b.ExtFlags = 0x0080 },
			wantErr: ErrNotMirror,
		},
		{
			name:    "removable media byte",
			mutate:  func(b *BootSector) { b.Media = 0xF0 },
			wantErr: ErrBadMedia,
		},
		{
			name:    "FAT16 root entry count",
			mutate:  func(b *BootSector) { b.RootEntryCount = 512 },
			wantErr: ErrBadFat32,
		},
		{
			name:    "FAT16 total sectors",
			mutate:  func(b *BootSector) { b.TotalSectors16 = 16 },
			wantErr: ErrBadFat32,
		},
		{
			name:    "FAT16 FAT size",
			mutate:  func(b *BootSector) { b.FATSize16 = 1 },
			wantErr: ErrBadFat32,
		},
		{
			name:    "missing extended boot signature",
			mutate:  func(b *BootSector) { b.BootSignature = 0 },
			wantErr: ErrBadSignature,
		},
		{
			name:    "wrong filesystem type string",
			mutate:  func(b *BootSector) { copy(b.FSType[:], "FAT16   ") },
			wantErr: ErrBadFSType,
		},
		{
			name:    "missing boot magic",
			mutate:  func(b *BootSector) { b.Signature = 0 },
			wantErr: ErrBadMagic,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boot := testBootSector()
			tt.mutate(&boot)
			image := testImage(t, boot, testFSInfo(), 0x0FFFFFF8)

			_, err := ParseConfig(bytes.NewReader(image))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseConfig_shortStream(t *testing.T) {
	_, err := ParseConfig(bytes.NewReader(make([]byte, 100)))
	if !errors.Is(err, ErrBadRead) {
		t.Errorf("ParseConfig() error = %v, want %v", err, ErrBadRead)
	}
}

func TestParseConfig_fsInfoFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BootSector, *FSInfoSector)
	}{
		{
			name: "bad lead signature",
			mutate: func(b *BootSector, i *FSInfoSector) {
				i.LeadSignature = 0xDEADBEEF
			},
		},
		{
			name: "bad struct signature",
			mutate: func(b *BootSector, i *FSInfoSector) {
				i.StructSignature = 0
			},
		},
		{
			name: "bad trail signature",
			mutate: func(b *BootSector, i *FSInfoSector) {
				i.TrailSignature = 0
			},
		},
		{
			name: "free count above data region",
			mutate: func(b *BootSector, i *FSInfoSector) {
				i.FreeCount = 1 << 20
			},
		},
		{
			name: "no FSInfo sector at all",
			mutate: func(b *BootSector, i *FSInfoSector) {
				b.FSInfoSector = 0xFFFF
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boot := testBootSector()
			info := testFSInfo()
			tt.mutate(&boot, &info)
			image := testImage(t, boot, info, 0x0FFFFFF8)

			config, err := ParseConfig(bytes.NewReader(image))
			if err != nil {
				t.Fatalf("ParseConfig() error = %v", err)
			}
			if config.HasFSInfo {
				t.Error("ParseConfig() HasFSInfo = true, want false")
			}
			if config.FreeClusters != hintUnknown || config.NextFreeCluster != hintUnknown {
				t.Errorf("ParseConfig() hints = %d/%d, want unknown",
					config.FreeClusters, config.NextFreeCluster)
			}
		})
	}
}

func TestConfig_UsableClusters(t *testing.T) {
	config := Config{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   2,
		TotalSectors:      16,
		SectorsPerFAT:     1,
	}
	if got := config.UsableClusters(); got != 12 {
		t.Errorf("Config.UsableClusters() = %d, want 12", got)
	}
	if got := config.ClusterSize(); got != 512 {
		t.Errorf("Config.ClusterSize() = %d, want 512", got)
	}
}
