// Package mbr reads the legacy MBR partition table and hands out
// partition-bounded streams, so the fat32 driver can parse a partition the
// same way it parses a whole volume.
package mbr

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/fennelos/storage/errtrace"
)

const (
	sectorSize  = 512
	tableOffset = 446
	activeFlag  = 0x80
)

var (
	// ErrBadRead means the first sector could not be read completely.
	ErrBadRead = errors.New("mbr: short read from stream")
	// ErrBadMagic means the 0x55,0xAA boot signature is missing.
	ErrBadMagic = errors.New("mbr: bad boot signature")
	// ErrNoPartition means the requested slot is empty.
	ErrNoPartition = errors.New("mbr: no partition in slot")
	// ErrInactivePartition means the partition's active flag is not set.
	ErrInactivePartition = errors.New("mbr: partition is not active")
)

// Partition is one of the four 16-byte records of the table.
type Partition struct {
	Attributes byte
	CHSStart   [3]byte
	Type       byte
	CHSEnd     [3]byte
	LBAStart   uint32
	Sectors    uint32
}

// Active reports whether the bootable/active flag is set. Only active
// partitions may be opened as streams.
func (p *Partition) Active() bool { return p.Attributes&activeFlag != 0 }

// Empty reports whether the slot holds no partition.
func (p *Partition) Empty() bool { return p.Type == 0 || p.Sectors == 0 }

// Table is a parsed MBR.
type Table struct {
	Partitions [4]Partition
}

// Read parses the partition table from the first sector of r.
func Read(r io.ReaderAt) (*Table, error) {
	sector := make([]byte, sectorSize)
	if _, err := r.ReadAt(sector, 0); err != nil {
		return nil, errtrace.Mark(err, ErrBadRead)
	}

	if sector[510] != 0x55 || sector[511] != 0xAA {
		return nil, errtrace.From(ErrBadMagic)
	}

	table := &Table{}
	for i := range table.Partitions {
		record := sector[tableOffset+i*16 : tableOffset+(i+1)*16]

		p := &table.Partitions[i]
		p.Attributes = record[0]
		copy(p.CHSStart[:], record[1:4])
		p.Type = record[4]
		copy(p.CHSEnd[:], record[5:8])
		p.LBAStart = binary.LittleEndian.Uint32(record[8:12])
		p.Sectors = binary.LittleEndian.Uint32(record[12:16])
	}

	return table, nil
}

// Stream returns a read-only view of partition index, clamped to its LBA
// range. The table has exactly four slots; empty and inactive partitions
// cannot be opened.
func (t *Table) Stream(r io.ReaderAt, index int) (*io.SectionReader, error) {
	if index < 0 || index >= len(t.Partitions) {
		return nil, errtrace.From(ErrNoPartition)
	}

	p := &t.Partitions[index]
	if p.Empty() {
		return nil, errtrace.From(ErrNoPartition)
	}
	if !p.Active() {
		return nil, errtrace.From(ErrInactivePartition)
	}

	offset := int64(p.LBAStart) * sectorSize
	size := int64(p.Sectors) * sectorSize

	return io.NewSectionReader(r, offset, size), nil
}
