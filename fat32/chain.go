package fat32

import (
	"encoding/binary"
	"io"

	"github.com/fennelos/storage/errtrace"
)

// chainReader follows the FAT linked list of one file or directory and emits
// its data cluster by cluster. The FAT is read through a sliding window of
// one sector, refetched only when the chain leaves the cached sector, so a
// run of adjacent clusters costs a single FAT fetch.
type chainReader struct {
	stream io.ReadSeeker
	config *Config

	current uint32
	// offset is the byte position inside the current cluster; partial
	// cluster reads are supported.
	offset uint32

	window      []uint32
	windowFirst uint32
}

// newChainReader positions a reader at the first cluster of a chain. The
// first FAT window is fetched eagerly so the first Read never misses; an
// already exhausted chain fetches nothing.
func newChainReader(stream io.ReadSeeker, config *Config, start uint32) (*chainReader, error) {
	r := &chainReader{
		stream:  stream,
		config:  config,
		current: start & clusterMask,
		window:  make([]uint32, config.fatEntriesPerSector()),
	}

	if r.exhausted() {
		return r, nil
	}

	if err := r.fetchWindow(r.current); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *chainReader) exhausted() bool {
	return r.current == 0 || r.current >= r.config.EndMarker
}

// Read fills p with up to one cluster's worth of chain data and advances to
// the next cluster when the current one is used up. It returns io.EOF once
// the chain has ended, without touching the stream.
func (r *chainReader) Read(p []byte) (int, error) {
	if r.exhausted() {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	clusterSize := r.config.ClusterSize()

	n := clusterSize - r.offset
	if uint32(len(p)) < n {
		n = uint32(len(p))
	}

	sector := r.config.clusterToSector(r.current)
	pos := int64(sector)*int64(r.config.BytesPerSector) + int64(r.offset)
	if _, err := r.stream.Seek(pos, io.SeekStart); err != nil {
		return 0, errtrace.Mark(err, ErrBadRead)
	}
	if _, err := io.ReadFull(r.stream, p[:n]); err != nil {
		return 0, errtrace.Mark(err, ErrBadRead)
	}

	r.offset += n
	if r.offset == clusterSize {
		next, err := r.lookup(r.current)
		if err != nil {
			return 0, err
		}
		r.current = next
		r.offset = 0
	}

	return int(n), nil
}

// lookup resolves the FAT entry of cluster through the cached window.
func (r *chainReader) lookup(cluster uint32) (uint32, error) {
	perSector := r.config.fatEntriesPerSector()

	if cluster < r.windowFirst || cluster >= r.windowFirst+perSector {
		if err := r.fetchWindow(cluster); err != nil {
			return 0, err
		}
	}

	return r.window[cluster-r.windowFirst] & clusterMask, nil
}

// fetchWindow loads the FAT sector containing the entry of cluster.
func (r *chainReader) fetchWindow(cluster uint32) error {
	perSector := r.config.fatEntriesPerSector()
	fatSector := uint32(r.config.ReservedSectors) + cluster/perSector

	if _, err := r.stream.Seek(int64(fatSector)*int64(r.config.BytesPerSector), io.SeekStart); err != nil {
		return errtrace.Mark(err, ErrBadRead)
	}

	raw := make([]byte, r.config.BytesPerSector)
	if _, err := io.ReadFull(r.stream, raw); err != nil {
		return errtrace.Mark(err, ErrBadRead)
	}

	for i := range r.window {
		r.window[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	r.windowFirst = cluster / perSector * perSector

	return nil
}
