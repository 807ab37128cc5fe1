// File model.go contains the structs which match the on-disk structures of a
// FAT32 volume. All of them are read with encoding/binary in little endian,
// so field order and width are byte-exact.

package fat32

// Attribute bits of a directory entry.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	// AttrLongName marks a long-name fragment record.
	AttrLongName = 0x0F
)

// Directory record markers.
const (
	// entryEndOfDir as first name byte terminates the directory.
	entryEndOfDir = 0x00
	// entryDeleted as first name byte marks a deleted record.
	entryDeleted = 0xE5
	// entryKanjiE5 as first name byte stands in for a real 0xE5, which
	// cannot be stored directly because of the deleted marker.
	entryKanjiE5 = 0x05
)

// Long-name order byte layout.
const (
	longLastFragment = 0x40
	longOrderMask    = 0x3F
)

const (
	recordSize     = 32
	bootSectorSize = 512

	// clusterMask reduces a raw FAT entry to its 28 significant bits.
	clusterMask = 0x0FFFFFFF
)

// BootSector is the 512-byte sector 0 of a FAT32 volume, including the
// FAT12/16 fields that must be zero on FAT32.
type BootSector struct {
	JumpBoot          [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	FATSize16         uint16
	SectorsPerTrack   uint16
	HeadCount         uint16
	HiddenSectors     uint32
	TotalSectors32    uint32

	// FAT32 extended block.
	FATSize32        uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfoSector     uint16
	BackupBootSector uint16
	Reserved         [12]byte
	DriveNumber      uint8
	Reserved1        uint8
	BootSignature    uint8
	VolumeID         uint32
	VolumeLabel      [11]byte
	FSType           [8]byte

	BootCode  [420]byte
	Signature uint16
}

// FSInfoSector is the 512-byte auxiliary sector caching free-cluster hints.
// The hints are advisory, not authoritative.
type FSInfoSector struct {
	LeadSignature   uint32
	Reserved1       [480]byte
	StructSignature uint32
	FreeCount       uint32
	NextFree        uint32
	Reserved2       [12]byte
	TrailSignature  uint32
}

// FSInfo magic values.
const (
	fsInfoLeadSignature   = 0x41615252
	fsInfoStructSignature = 0x61417272
	fsInfoTrailSignature  = 0xAA550000
)

// EntryHeader is a 32-byte short directory entry.
type EntryHeader struct {
	Name            [8]byte
	Ext             [3]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// FirstCluster combines the split high/low cluster words.
func (h *EntryHeader) FirstCluster() uint32 {
	return uint32(h.FirstClusterHI)<<16 | uint32(h.FirstClusterLO)
}

// IsDir reports whether the entry describes a directory.
func (h *EntryHeader) IsDir() bool {
	return h.Attribute&AttrDirectory != 0
}

// LongEntry is a 32-byte long-name fragment. Fragments precede their short
// entry in reverse order; the fragment closest to the short entry carries the
// start of the name.
type LongEntry struct {
	Order     byte
	Name1     [5]uint16
	Attribute byte
	EntryType byte
	Checksum  byte
	Name2     [6]uint16
	Reserved  uint16
	Name3     [2]uint16
}
