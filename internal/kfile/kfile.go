// Package kfile carries the file-level plumbing around the filter: input
// preflight checks, free-space checks, and output sink construction.
package kfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
	"github.com/rs/zerolog"
	"github.com/shenwei356/xopen"
	"golang.org/x/sys/unix"
)

// Output compression selectors accepted by Create.
const (
	CompressionNone = ""
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// DefaultOutputName is the per-file output path for infile when no merged
// output was requested.
func DefaultOutputName(infile string) string {
	return filepath.Base(infile) + ".abundfilt"
}

// CheckInputFile verifies that path exists and is not empty. With force the
// problems degrade to warnings. The stdin sentinel "-" always passes.
func CheckInputFile(path string, force bool, log zerolog.Logger) error {
	if path == "-" {
		return nil
	}
	st, err := os.Stat(path)
	switch {
	case err != nil:
		if !force {
			return fmt.Errorf("input file %s does not exist", path)
		}
		log.Warn().Str("input", path).Msg("input file does not exist, continuing under --force")
	case st.Size() == 0:
		if !force {
			return fmt.Errorf("input file %s is empty", path)
		}
		log.Warn().Str("input", path).Msg("input file is empty, continuing under --force")
	}
	return nil
}

// CheckSpace verifies that the volume holding dir has at least as many free
// bytes as the summed size of the input files, the same proxy the filter's
// worst case (nothing trimmed, nothing dropped) would need. With force a
// shortfall degrades to a warning.
func CheckSpace(inputs []string, dir string, force bool, log zerolog.Logger) error {
	var need uint64
	for _, in := range inputs {
		if st, err := os.Stat(in); err == nil {
			need += uint64(st.Size())
		}
	}
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("cannot check free space")
		return nil
	}
	free := st.Bavail * uint64(st.Bsize)
	if free >= need {
		return nil
	}
	if force {
		log.Warn().
			Uint64("free", free).Uint64("need", need).
			Msg("low disk space, continuing under --force")
		return nil
	}
	return fmt.Errorf("not enough free space in %s: %d bytes free, %d needed", dir, free, need)
}

// Create opens the output sink at path. compression is one of the
// Compression constants; with CompressionNone the writer is extension
// transparent (".gz" and friends compress accordingly). "-" writes stdout.
// The returned closer flushes everything down to the file.
func Create(path, compression string) (io.WriteCloser, error) {
	if compression == CompressionNone {
		w, err := xopen.Wopen(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		return w, nil
	}

	var base io.WriteCloser
	if path == "-" {
		base = nopCloser{os.Stdout}
	} else {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		base = f
	}

	switch compression {
	case CompressionGzip:
		gw := gzip.NewWriter(base)
		return &stackedWriteCloser{Writer: gw, closers: []io.Closer{gw, base}}, nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(base)
		if err != nil {
			_ = base.Close()
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		return &stackedWriteCloser{Writer: zw, closers: []io.Closer{zw, base}}, nil
	default:
		_ = base.Close()
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
}

// stackedWriteCloser closes a compressor and its underlying file in order,
// keeping the first error.
type stackedWriteCloser struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriteCloser) Close() error {
	var err error
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// nopCloser keeps stdout open across sink closes.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
