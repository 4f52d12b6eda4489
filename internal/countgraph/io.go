package countgraph

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
)

// ErrBadFormat reports a countgraph file with a bad magic, an unsupported
// version, or a truncated table section.
var ErrBadFormat = errors.New("countgraph: bad file format")

var fileMagic = [4]byte{'C', 'G', 'P', 'H'}

const fileVersion = 1

// Save writes the graph to path. The payload is snappy-framed: a fixed
// header (magic, version, ksize, table count, hash seed) followed by each
// table's size and raw cells.
func (g *Countgraph) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	sw := snappy.NewBufferedWriter(f)
	if err = writeHeader(sw, g); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, t := range g.tables {
		if err = binary.Write(sw, binary.LittleEndian, uint64(len(t))); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if _, err = sw.Write(t); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err = sw.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load reads a graph saved by Save. Missing or unreadable files surface the
// underlying file error; malformed content surfaces ErrBadFormat.
func Load(path string) (*Countgraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sr := bufio.NewReader(snappy.NewReader(f))
	g, ntables, err := readHeader(sr)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	g.htabs = genHashTables(g.seed, ntables)
	g.tables = make([][]uint8, ntables)
	for i := range g.tables {
		var size uint64
		if err := binary.Read(sr, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, ErrBadFormat)
		}
		t := make([]uint8, size)
		if _, err := io.ReadFull(sr, t); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, ErrBadFormat)
		}
		g.tables[i] = t
	}
	return g, nil
}

func writeHeader(w io.Writer, g *Countgraph) error {
	if _, err := w.Write(fileMagic[:]); err != nil {
		return err
	}
	hdr := []any{
		uint8(fileVersion),
		uint32(g.ksize),
		uint32(len(g.tables)),
		g.seed,
	}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) (*Countgraph, int, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != fileMagic {
		return nil, 0, ErrBadFormat
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version != fileVersion {
		return nil, 0, ErrBadFormat
	}
	var ksize, ntables uint32
	var seed int64
	if err := binary.Read(r, binary.LittleEndian, &ksize); err != nil {
		return nil, 0, ErrBadFormat
	}
	if err := binary.Read(r, binary.LittleEndian, &ntables); err != nil {
		return nil, 0, ErrBadFormat
	}
	if err := binary.Read(r, binary.LittleEndian, &seed); err != nil {
		return nil, 0, ErrBadFormat
	}
	if ksize == 0 || ntables == 0 {
		return nil, 0, ErrBadFormat
	}
	return &Countgraph{ksize: int(ksize), seed: seed}, int(ntables), nil
}
