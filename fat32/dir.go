package fat32

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/fennelos/storage/errtrace"
)

// Entry is one directory entry with both of its names reconstructed.
type Entry struct {
	// Name is the long name when the entry carries one, else the short name.
	Name string
	// ShortName is the decoded 8.3 name.
	ShortName string
	Header    EntryHeader
}

// IsDir reports whether the entry describes a directory.
func (e *Entry) IsDir() bool { return e.Header.IsDir() }

// Matches reports whether name matches either of the entry's names,
// case-insensitively.
func (e *Entry) Matches(name string) bool {
	return strings.EqualFold(name, e.Name) || strings.EqualFold(name, e.ShortName)
}

// entryIterator walks a directory's byte stream 32 bytes at a time,
// reassembling long names from their reverse-ordered fragments and validating
// them against the short entry they belong to. Malformed groups are skipped
// as orphans so one corrupt record cannot hide the rest of the directory.
type entryIterator struct {
	chain  *chainReader
	logger *zap.SugaredLogger

	block []byte
	index int
	fill  int
}

func newEntryIterator(stream io.ReadSeeker, config *Config, cluster uint32, logger *zap.SugaredLogger) (*entryIterator, error) {
	chain, err := newChainReader(stream, config, cluster)
	if err != nil {
		return nil, err
	}

	return &entryIterator{
		chain:  chain,
		logger: logger,
		block:  make([]byte, config.ClusterSize()),
	}, nil
}

// Next returns the next valid entry, transparently skipping deleted records
// and orphaned long-name groups. It returns io.EOF at the end of the
// directory. I/O and codec errors propagate.
func (it *entryIterator) Next() (*Entry, error) {
	for {
		entry, err := it.next()
		if err == nil {
			return entry, nil
		}
		if errors.Is(err, errOrphan) {
			it.logger.Warnw("skipping orphaned directory entry")
			continue
		}
		if errors.Is(err, errEndClusterChain) {
			return nil, io.EOF
		}
		return nil, err
	}
}

func (it *entryIterator) next() (*Entry, error) {
	for {
		record, err := it.record()
		if err != nil {
			return nil, err
		}

		switch {
		case record[0] == entryEndOfDir:
			return nil, errEndClusterChain
		case record[0] == entryDeleted:
			continue
		}

		if record[11] == AttrLongName {
			return it.assembleLong(record)
		}

		// A plain short entry. Volume-label records are bookkeeping, not
		// directory content.
		header, err := parseShortRecord(record)
		if err != nil {
			return nil, err
		}
		if header.Attribute&AttrVolumeID != 0 {
			continue
		}

		short := decodeShortName(header.Name, header.Ext, header.IsDir())
		return &Entry{Name: short, ShortName: short, Header: header}, nil
	}
}

// assembleLong consumes a long-name group starting at its first on-disk
// fragment (the one with the last-fragment bit) and the short entry that
// follows it. Any inconsistency in the group is an orphan.
func (it *entryIterator) assembleLong(record []byte) (*Entry, error) {
	long, err := parseLongRecord(record)
	if err != nil {
		return nil, err
	}

	if long.Order&longLastFragment == 0 {
		// A stray tail without its head.
		return nil, errtrace.From(errOrphan)
	}

	count := int(long.Order & longOrderMask)
	if count == 0 {
		return nil, errtrace.From(errOrphan)
	}

	// Fragments are stored newest-first: the first one read carries the end
	// of the name and the countdown walks backwards to fragment 1.
	parts := make([]string, count)
	checksum := long.Checksum

	for sequence := count; ; {
		text, err := decodeLongFragment(long)
		if err != nil {
			return nil, err
		}
		parts[sequence-1] = text

		if long.Checksum != checksum {
			return nil, errtrace.From(errOrphan)
		}

		sequence--
		if sequence == 0 {
			break
		}

		record, err = it.record()
		if err != nil {
			return nil, err
		}
		if record[11] != AttrLongName {
			return nil, errtrace.From(errOrphan)
		}
		long, err = parseLongRecord(record)
		if err != nil {
			return nil, err
		}
		if long.Order&longLastFragment != 0 || int(long.Order&longOrderMask) != sequence {
			return nil, errtrace.From(errOrphan)
		}
	}

	// The group must be followed by its short entry.
	record, err = it.record()
	if err != nil {
		return nil, err
	}
	if record[0] == entryEndOfDir || record[0] == entryDeleted || record[11] == AttrLongName {
		return nil, errtrace.From(errOrphan)
	}

	header, err := parseShortRecord(record)
	if err != nil {
		return nil, err
	}
	if Checksum(header.Name, header.Ext) != checksum {
		return nil, errtrace.From(errOrphan)
	}

	return &Entry{
		Name:      strings.Join(parts, ""),
		ShortName: decodeShortName(header.Name, header.Ext, header.IsDir()),
		Header:    header,
	}, nil
}

// record returns the next raw 32-byte record, refilling the block cache from
// the cluster chain when the index runs off the end.
func (it *entryIterator) record() ([]byte, error) {
	if it.index >= it.fill {
		n, err := it.chain.Read(it.block)
		if err == io.EOF {
			return nil, errtrace.From(errEndClusterChain)
		}
		if err != nil {
			return nil, err
		}
		if n < recordSize {
			return nil, errtrace.From(errEndClusterChain)
		}
		it.index = 0
		it.fill = n
	}

	record := it.block[it.index : it.index+recordSize]
	it.index += recordSize

	return record, nil
}

func parseShortRecord(record []byte) (EntryHeader, error) {
	var header EntryHeader
	if err := binary.Read(bytes.NewReader(record), binary.LittleEndian, &header); err != nil {
		return header, errtrace.From(err)
	}
	return header, nil
}

func parseLongRecord(record []byte) (*LongEntry, error) {
	long := &LongEntry{}
	if err := binary.Read(bytes.NewReader(record), binary.LittleEndian, long); err != nil {
		return nil, errtrace.From(err)
	}
	return long, nil
}
