package fat32

import "io"

// blockStream is the byte-addressable resource the driver parses a volume
// from. It is satisfied by *os.File, *io.SectionReader (a partition-bounded
// view, see the mbr package) and *ramdisk.Disk.
//
// It mainly exists to be able to mock the stream in tests.
// Generated mock using mockgen:
//  mockgen -source=stream.go -destination=stream_mock_test.go -package=fat32
type blockStream interface {
	io.ReadSeeker
}
