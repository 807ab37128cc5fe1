package mkfat

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"github.com/fennelos/storage/fat32"
)

const (
	endMarker   = 0x0FFFFFFF
	mediaFixed  = 0xF8
	recordSize  = 32
	fsInfoAt    = 1
	backupAt    = 6
	rootCluster = 2
)

// geometry is the derived layout of one image.
type geometry struct {
	bytesPerSector    uint32
	sectorsPerCluster uint32
	reservedSectors   uint32
	totalSectors      uint32
	sectorsPerFAT     uint32
	usableClusters    uint32
	clusterSize       uint32
}

func (m *Maker) geometry() geometry {
	g := geometry{
		bytesPerSector:    uint32(m.opts.BytesPerSector),
		sectorsPerCluster: uint32(m.opts.SectorsPerCluster),
		reservedSectors:   uint32(m.opts.ReservedSectors),
	}

	g.totalSectors = uint32(m.opts.Size / int64(g.bytesPerSector))
	entriesPerSector := g.bytesPerSector / 4
	// One spare sector of FAT so the table always covers the data region.
	g.sectorsPerFAT = g.totalSectors/(entriesPerSector+2) + 1
	g.usableClusters = (g.totalSectors - g.reservedSectors - 2*g.sectorsPerFAT) / g.sectorsPerCluster
	g.clusterSize = g.bytesPerSector * g.sectorsPerCluster

	return g
}

func (g *geometry) clusterToSector(cluster uint32) uint32 {
	return g.reservedSectors + 2*g.sectorsPerFAT + (cluster-2)*g.sectorsPerCluster
}

func (g *geometry) clustersFor(size uint32) uint32 {
	return (size + g.clusterSize - 1) / g.clusterSize
}

// Write serialises the image onto w. The stream must be able to hold
// Options.Size bytes; everything not explicitly written stays zero.
func (m *Maker) Write(w io.WriteSeeker) error {
	g := m.geometry()

	allocated, err := m.layout(&g)
	if err != nil {
		return err
	}

	// Mark the end of the image so fixed-size targets are validated and
	// file-backed ones are extended up front.
	if err := writeAt(w, m.opts.Size-1, []byte{0}); err != nil {
		return err
	}

	if err := m.writeBootSector(w, &g, allocated); err != nil {
		return err
	}
	if err := m.writeFATs(w, &g); err != nil {
		return err
	}
	return m.writeData(w, &g, m.root)
}

// layout assigns cluster chains breadth-first, the root directory first.
// It returns the number of clusters taken.
func (m *Maker) layout(g *geometry) (uint32, error) {
	next := uint32(rootCluster)
	alloc := func(clusters uint32) uint32 {
		if clusters == 0 {
			return 0
		}
		first := next
		next += clusters
		return first
	}

	m.root.clusters = g.clustersFor(m.dirSize(m.root))
	m.root.cluster = alloc(m.root.clusters)

	queue := []*node{m.root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		for _, child := range dir.children {
			if child.dir {
				child.clusters = g.clustersFor(m.dirSize(child))
				child.cluster = alloc(child.clusters)
				queue = append(queue, child)
				continue
			}
			child.clusters = g.clustersFor(uint32(len(child.data)))
			child.cluster = alloc(child.clusters)
		}
	}

	allocated := next - rootCluster
	if allocated > g.usableClusters {
		return 0, ErrImageFull
	}

	return allocated, nil
}

// dirSize returns the byte size of a directory's record area including the
// terminating zero record.
func (m *Maker) dirSize(dir *node) uint32 {
	records := 1 // terminator
	if dir.parent != nil {
		records += 2 // "." and ".."
	}

	used := make(map[string]bool)
	for _, child := range dir.children {
		base, ext := shortName(child.name, child.dir, used)
		if needsLongName(child.name, base, ext, child.dir) {
			records += longRecordCount(child.name)
		}
		records++
	}

	return uint32(records * recordSize)
}

func (m *Maker) writeBootSector(w io.WriteSeeker, g *geometry, allocated uint32) error {
	boot := fat32.BootSector{
		JumpBoot:          [3]byte{0xEB, 0x58, 0x90},
		BytesPerSector:    uint16(g.bytesPerSector),
		SectorsPerCluster: uint8(g.sectorsPerCluster),
		ReservedSectors:   uint16(g.reservedSectors),
		FATCount:          2,
		Media:             mediaFixed,
		SectorsPerTrack:   32,
		HeadCount:         64,
		TotalSectors32:    g.totalSectors,
		FATSize32:         g.sectorsPerFAT,
		RootCluster:       rootCluster,
		FSInfoSector:      fsInfoAt,
		BackupBootSector:  backupAt,
		DriveNumber:       0x80,
		BootSignature:     0x29,
		VolumeID:          0x23071997,
		Signature:         0xAA55,
	}
	copyPadded(boot.OEMName[:], m.opts.OEMName)
	copyPadded(boot.VolumeLabel[:], strings11(m.opts.VolumeLabel))
	copyPadded(boot.FSType[:], "FAT32   ")

	info := fat32.FSInfoSector{
		LeadSignature:   0x41615252,
		StructSignature: 0x61417272,
		FreeCount:       g.usableClusters - allocated,
		NextFree:        rootCluster,
		TrailSignature:  0xAA550000,
	}

	bootRaw, err := encodeLE(&boot)
	if err != nil {
		return err
	}
	infoRaw, err := encodeLE(&info)
	if err != nil {
		return err
	}

	sectors := []struct {
		sector uint32
		raw    []byte
	}{
		{0, bootRaw},
		{fsInfoAt, infoRaw},
		{backupAt, bootRaw},
		{backupAt + 1, infoRaw},
	}
	for _, s := range sectors {
		if err := writeAt(w, int64(s.sector)*int64(g.bytesPerSector), s.raw); err != nil {
			return err
		}
	}

	return nil
}

// writeFATs builds the allocation table from the laid-out chains and writes
// both mirrored copies.
func (m *Maker) writeFATs(w io.WriteSeeker, g *geometry) error {
	entries := make([]uint32, g.sectorsPerFAT*(g.bytesPerSector/4))
	entries[0] = 0x0FFFFF00 | mediaFixed
	entries[1] = endMarker

	var chain func(n *node)
	chain = func(n *node) {
		for i := uint32(0); i < n.clusters; i++ {
			index := n.cluster + i
			if i == n.clusters-1 {
				entries[index] = endMarker
			} else {
				entries[index] = index + 1
			}
		}
		for _, child := range n.children {
			chain(child)
		}
	}
	chain(m.root)

	raw := make([]byte, len(entries)*4)
	for i, e := range entries {
		binary.LittleEndian.PutUint32(raw[i*4:], e)
	}

	first := int64(g.reservedSectors) * int64(g.bytesPerSector)
	second := first + int64(g.sectorsPerFAT)*int64(g.bytesPerSector)
	if err := writeAt(w, first, raw); err != nil {
		return err
	}
	return writeAt(w, second, raw)
}

// writeData writes the record area of dir and the content of its files, then
// recurses into subdirectories.
func (m *Maker) writeData(w io.WriteSeeker, g *geometry, dir *node) error {
	records, err := m.encodeDir(dir)
	if err != nil {
		return err
	}

	offset := int64(g.clusterToSector(dir.cluster)) * int64(g.bytesPerSector)
	if err := writeAt(w, offset, records); err != nil {
		return err
	}

	for _, child := range dir.children {
		if child.dir {
			if err := m.writeData(w, g, child); err != nil {
				return err
			}
			continue
		}
		if len(child.data) == 0 {
			continue
		}
		offset := int64(g.clusterToSector(child.cluster)) * int64(g.bytesPerSector)
		if err := writeAt(w, offset, child.data); err != nil {
			return err
		}
	}

	return nil
}

func writeAt(w io.WriteSeeker, offset int64, data []byte) error {
	if _, err := w.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return nil
}

func encodeLE(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func copyPadded(dst []byte, s string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, s)
}

func strings11(label string) string {
	label = strings.ToUpper(label)
	if len(label) > 11 {
		label = label[:11]
	}
	return label
}
