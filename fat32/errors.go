package fat32

import "errors"

// These errors may occur while parsing a volume. The boot-sector errors keep
// one sentinel per rejected field so callers can tell exactly what is wrong
// with an image.
var (
	// ErrBadRead means the stream returned fewer bytes than the on-disk
	// layout requires.
	ErrBadRead = errors.New("fat32: short read from stream")
	// ErrBadMagic means the 0x55,0xAA signature at bytes 510-511 is missing.
	ErrBadMagic = errors.New("fat32: bad boot sector signature")
	// ErrBadRootCluster means the root directory cluster is below 2.
	ErrBadRootCluster = errors.New("fat32: bad root directory cluster")
	// ErrBadFATCount means the volume does not carry exactly two FATs.
	ErrBadFATCount = errors.New("fat32: bad FAT count")
	// ErrNotMirror means FAT mirroring is disabled.
	ErrNotMirror = errors.New("fat32: FATs are not mirrored")
	// ErrBadMedia means the media descriptor is not 0xF8 (fixed disk).
	ErrBadMedia = errors.New("fat32: bad media descriptor")
	// ErrBadFat32 means a FAT12/16-only field is non-zero.
	ErrBadFat32 = errors.New("fat32: volume is not FAT32")
	// ErrBadSignature means the extended boot signature is not 0x29.
	ErrBadSignature = errors.New("fat32: bad extended boot signature")
	// ErrBadFSType means the filesystem-type string is not "FAT32   ".
	ErrBadFSType = errors.New("fat32: bad filesystem type string")
	// ErrInvalidName means a long name holds malformed UTF-16 text. Such a
	// name cannot be matched or returned safely, so lookups fail on it.
	ErrInvalidName = errors.New("fat32: malformed long name text")
)

// Internal iteration outcomes. errOrphan is recoverable (the broken record
// group is skipped); errEndClusterChain is the ordinary end of a directory.
var (
	errOrphan          = errors.New("fat32: orphaned long name entry")
	errEndClusterChain = errors.New("fat32: end of cluster chain")
)
