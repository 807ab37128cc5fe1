package fat32

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/fennelos/storage/errtrace"
)

// hintUnknown marks an absent FSInfo free-cluster hint.
const hintUnknown = 0xFFFFFFFF

// Config is the immutable runtime snapshot derived from the boot sector and
// (when present and sane) the FSInfo sector. It is computed once when the
// filesystem is created and never mutated afterwards.
type Config struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	TotalSectors      uint32
	SectorsPerFAT     uint32
	RootCluster       uint32
	FSInfoSector      uint16
	BackupBootSector  uint16

	// HasFSInfo reports whether the FSInfo sector validated; when false the
	// two hints below are hintUnknown.
	HasFSInfo       bool
	FreeClusters    uint32
	NextFreeCluster uint32

	// EndMarker is the chain end value actually used by this image, read
	// from the live FAT rather than assumed. Legitimate images vary between
	// 0x0FFFFFF8 and 0x0FFFFFFF.
	EndMarker uint32
}

// ClusterSize returns the size of one cluster in bytes.
func (c *Config) ClusterSize() uint32 {
	return uint32(c.BytesPerSector) * uint32(c.SectorsPerCluster)
}

// UsableClusters returns the number of clusters in the data region.
func (c *Config) UsableClusters() uint32 {
	dataSectors := c.TotalSectors - uint32(c.ReservedSectors) - 2*c.SectorsPerFAT
	return dataSectors / uint32(c.SectorsPerCluster)
}

// clusterToSector maps a cluster number to its first sector.
func (c *Config) clusterToSector(cluster uint32) uint32 {
	return c.SectorsPerFAT*2 + uint32(c.ReservedSectors) + (cluster-2)*uint32(c.SectorsPerCluster)
}

// fatEntriesPerSector returns how many 32-bit FAT entries one sector holds.
func (c *Config) fatEntriesPerSector() uint32 {
	return uint32(c.BytesPerSector) / 4
}

// ParseConfig reads and validates the boot sector, FSInfo sector and live
// chain end marker of a FAT32 volume. Every malformed boot-sector field is
// rejected with its own sentinel error.
func ParseConfig(stream io.ReadSeeker) (Config, error) {
	var config Config

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return config, errtrace.Mark(err, ErrBadRead)
	}

	raw := make([]byte, bootSectorSize)
	if _, err := io.ReadFull(stream, raw); err != nil {
		return config, errtrace.Mark(err, ErrBadRead)
	}

	if raw[510] != 0x55 || raw[511] != 0xAA {
		return config, errtrace.From(ErrBadMagic)
	}

	var boot BootSector
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &boot); err != nil {
		return config, errtrace.From(err)
	}

	if err := validateBootSector(&boot); err != nil {
		return config, err
	}

	config = Config{
		BytesPerSector:    boot.BytesPerSector,
		SectorsPerCluster: boot.SectorsPerCluster,
		ReservedSectors:   boot.ReservedSectors,
		TotalSectors:      boot.TotalSectors32,
		SectorsPerFAT:     boot.FATSize32,
		RootCluster:       boot.RootCluster,
		FSInfoSector:      boot.FSInfoSector,
		BackupBootSector:  boot.BackupBootSector,
		FreeClusters:      hintUnknown,
		NextFreeCluster:   hintUnknown,
	}

	if err := readFSInfo(stream, &config); err != nil {
		return Config{}, err
	}

	if err := readEndMarker(stream, &config); err != nil {
		return Config{}, err
	}

	return config, nil
}

func validateBootSector(boot *BootSector) error {
	if boot.RootCluster < 2 {
		return errtrace.From(ErrBadRootCluster)
	}
	if boot.FATCount != 2 {
		return errtrace.From(ErrBadFATCount)
	}
	if boot.ExtFlags != 0 {
		return errtrace.From(ErrNotMirror)
	}
	if boot.Media != 0xF8 {
		return errtrace.From(ErrBadMedia)
	}
	// On FAT32 all FAT12/16-only fields must be zero.
	if boot.RootEntryCount != 0 || boot.TotalSectors16 != 0 || boot.FATSize16 != 0 {
		return errtrace.From(ErrBadFat32)
	}
	if boot.BootSignature != 0x29 {
		return errtrace.From(ErrBadSignature)
	}
	if string(boot.FSType[:]) != "FAT32   " {
		return errtrace.From(ErrBadFSType)
	}

	return nil
}

// readFSInfo validates the FSInfo sector and takes over its free-cluster
// hints. A missing or implausible FSInfo is not an error; the hints just stay
// unknown.
func readFSInfo(stream io.ReadSeeker, config *Config) error {
	if config.FSInfoSector == 0 || config.FSInfoSector == 0xFFFF {
		return nil
	}

	offset := int64(config.FSInfoSector) * int64(config.BytesPerSector)
	if _, err := stream.Seek(offset, io.SeekStart); err != nil {
		return errtrace.Mark(err, ErrBadRead)
	}

	raw := make([]byte, bootSectorSize)
	if _, err := io.ReadFull(stream, raw); err != nil {
		return errtrace.Mark(err, ErrBadRead)
	}

	var info FSInfoSector
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &info); err != nil {
		return errtrace.From(err)
	}

	if info.LeadSignature != fsInfoLeadSignature ||
		info.StructSignature != fsInfoStructSignature ||
		info.TrailSignature != fsInfoTrailSignature {
		return nil
	}
	// A free count above the data region size is stale nonsense.
	if info.FreeCount > config.UsableClusters() {
		return nil
	}

	config.HasFSInfo = true
	config.FreeClusters = info.FreeCount
	config.NextFreeCluster = info.NextFree

	return nil
}

// readEndMarker reads FAT[1] and trusts its masked value as the chain end
// marker used by this image.
func readEndMarker(stream io.ReadSeeker, config *Config) error {
	offset := int64(config.ReservedSectors)*int64(config.BytesPerSector) + 4
	if _, err := stream.Seek(offset, io.SeekStart); err != nil {
		return errtrace.Mark(err, ErrBadRead)
	}

	raw := make([]byte, 4)
	if _, err := io.ReadFull(stream, raw); err != nil {
		return errtrace.Mark(err, ErrBadRead)
	}

	config.EndMarker = binary.LittleEndian.Uint32(raw) & clusterMask

	return nil
}
