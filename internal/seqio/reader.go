// Package seqio reads and writes FASTA/FASTQ sequence records.
package seqio

import (
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Record is a single sequence read. Name is the full header line without the
// '>'/'@' marker; Qual is empty for FASTA input. Records are never modified
// after they leave the reader.
type Record struct {
	Name []byte
	Seq  []byte
	Qual []byte
}

// Len returns the sequence length.
func (r *Record) Len() int { return len(r.Seq) }

// Reader streams records from a FASTA or FASTQ source, in order, in a single
// pass. Format detection and decompression are handled underneath; "-" reads
// stdin.
type Reader struct {
	fx *fastx.Reader
}

// Open opens path for reading.
func Open(path string) (*Reader, error) {
	fx, err := fastx.NewReader(seq.DNAredundant, path, fastx.DefaultIDRegexp)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Reader{fx: fx}, nil
}

// Read returns the next record, or io.EOF at end of stream. The record does
// not alias the parser's reused buffers and stays valid across later reads.
func (r *Reader) Read() (*Record, error) {
	fr, err := r.fx.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	rec := &Record{
		Name: append([]byte(nil), fr.Name...),
		Seq:  append([]byte(nil), fr.Seq.Seq...),
	}
	if len(fr.Seq.Qual) > 0 {
		rec.Qual = append([]byte(nil), fr.Seq.Qual...)
	}
	return rec, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() {
	r.fx.Close()
}
