package mkfat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/fennelos/storage/fat32"
)

// shortNameChars are the bytes allowed in an 8.3 name besides letters and
// digits.
const shortNameChars = "$%'-_@~`!(){}^#&"

// encodeDir serialises the record area of dir: dot entries for
// subdirectories, then one optional long-name group plus a short entry per
// child, then the terminating zero record (left implicit in the zero-filled
// cluster tail).
func (m *Maker) encodeDir(dir *node) ([]byte, error) {
	var out []byte

	if dir.parent != nil {
		parentCluster := dir.parent.cluster
		if dir.parent.parent == nil {
			// ".." of a first-level directory points at cluster 0 by
			// convention.
			parentCluster = 0
		}
		out = append(out, encodeDotEntry(".", dir.cluster, m.opts.Modified)...)
		out = append(out, encodeDotEntry("..", parentCluster, m.opts.Modified)...)
	}

	used := make(map[string]bool)
	for _, child := range dir.children {
		base, ext := shortName(child.name, child.dir, used)

		if needsLongName(child.name, base, ext, child.dir) {
			long, err := encodeLongGroup(child.name, fat32.Checksum(base, ext))
			if err != nil {
				return nil, err
			}
			out = append(out, long...)
		}

		out = append(out, encodeShortEntry(child, base, ext, m.opts.Modified)...)
	}

	return out, nil
}

func encodeShortEntry(child *node, base [8]byte, ext [3]byte, modified time.Time) []byte {
	header := fat32.EntryHeader{
		Name:           base,
		Ext:            ext,
		FirstClusterHI: uint16(child.cluster >> 16),
		FirstClusterLO: uint16(child.cluster),
		WriteDate:      encodeDate(modified),
		WriteTime:      encodeTime(modified),
		CreateDate:     encodeDate(modified),
		CreateTime:     encodeTime(modified),
		LastAccessDate: encodeDate(modified),
	}
	if child.dir {
		header.Attribute = fat32.AttrDirectory
	} else {
		header.Attribute = fat32.AttrArchive
		header.FileSize = uint32(len(child.data))
	}

	raw, _ := encodeLE(&header)
	return raw
}

func encodeDotEntry(name string, cluster uint32, modified time.Time) []byte {
	dot := &node{dir: true, cluster: cluster}
	var base [8]byte
	copyPadded(base[:], name)
	return encodeShortEntry(dot, base, [3]byte{' ', ' ', ' '}, modified)
}

// encodeLongGroup emits the long-name fragments for name in on-disk order:
// highest sequence first, each stamped with the short entry's checksum. The
// name is null-terminated and the final fragment padded with 0xFFFF.
func encodeLongGroup(name string, checksum byte) ([]byte, error) {
	units := utf16.Encode([]rune(name))
	units = append(units, 0)
	for len(units)%13 != 0 {
		units = append(units, 0xFFFF)
	}

	count := len(units) / 13
	var out []byte
	for seq := count; seq >= 1; seq-- {
		long := fat32.LongEntry{
			Order:     byte(seq),
			Attribute: fat32.AttrLongName,
			Checksum:  checksum,
		}
		if seq == count {
			long.Order |= 0x40
		}

		chunk := units[(seq-1)*13 : seq*13]
		copy(long.Name1[:], chunk[0:5])
		copy(long.Name2[:], chunk[5:11])
		copy(long.Name3[:], chunk[11:13])

		raw, err := encodeLE(&long)
		if err != nil {
			return nil, err
		}
		out = append(out, raw...)
	}

	return out, nil
}

// needsLongName reports whether the 8.3 form does not reproduce name
// exactly, in which case a long-name group is emitted in front of the short
// entry.
func needsLongName(name string, base [8]byte, ext [3]byte, isDir bool) bool {
	display := strings.TrimRight(string(base[:]), " ")
	extension := strings.TrimRight(string(ext[:]), " ")
	if !isDir && extension != "" {
		display += "." + extension
	}
	return name != display
}

// longRecordCount returns how many fragment records name needs.
func longRecordCount(name string) int {
	units := len(utf16.Encode([]rune(name))) + 1 // terminator
	return (units + 12) / 13
}

// shortName derives a unique 8.3 name within one directory, uppercasing,
// substituting disallowed characters and attaching a ~n tail when the name
// is lossy or collides.
func shortName(name string, isDir bool, used map[string]bool) ([8]byte, [3]byte) {
	base := name
	ext := ""
	if !isDir {
		if i := strings.LastIndex(name, "."); i > 0 {
			base, ext = name[:i], name[i+1:]
		}
	}

	cleanBase, lossyBase := cleanShortPart(base, 8)
	cleanExt, lossyExt := cleanShortPart(ext, 3)
	lossy := lossyBase || lossyExt

	candidate := cleanBase
	for tail := 1; lossy || used[candidate+"."+cleanExt]; tail++ {
		suffix := fmt.Sprintf("~%d", tail)
		keep := 8 - len(suffix)
		if len(cleanBase) < keep {
			keep = len(cleanBase)
		}
		candidate = cleanBase[:keep] + suffix
		lossy = false
	}
	used[candidate+"."+cleanExt] = true

	var base8 [8]byte
	var ext3 [3]byte
	copyPadded(base8[:], candidate)
	copyPadded(ext3[:], cleanExt)

	return base8, ext3
}

// cleanShortPart uppercases and filters one 8.3 component, reporting whether
// information was lost.
func cleanShortPart(part string, max int) (string, bool) {
	lossy := false

	var sb strings.Builder
	for _, r := range part {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r - 'a' + 'A')
			lossy = true
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case strings.ContainsRune(shortNameChars, r):
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
			lossy = true
		}
	}

	s := sb.String()
	if len(s) > max {
		s = s[:max]
		lossy = true
	}

	return s, lossy
}

func encodeDate(t time.Time) uint16 {
	t = t.UTC()
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	return uint16(year)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

func encodeTime(t time.Time) uint16 {
	t = t.UTC()
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}
