package seqio

import "io"

// WriteRecord emits r as a 4-line FASTQ record when quality is present,
// otherwise as unwrapped FASTA. The record goes out in a single Write call,
// so a sink never sees a partial record.
func WriteRecord(w io.Writer, r *Record) error {
	marker := byte('>')
	n := 3 + len(r.Name) + len(r.Seq)
	if len(r.Qual) > 0 {
		marker = '@'
		n += 3 + len(r.Qual)
	}
	buf := make([]byte, 0, n)
	buf = append(buf, marker)
	buf = append(buf, r.Name...)
	buf = append(buf, '\n')
	buf = append(buf, r.Seq...)
	buf = append(buf, '\n')
	if len(r.Qual) > 0 {
		buf = append(buf, '+', '\n')
		buf = append(buf, r.Qual...)
		buf = append(buf, '\n')
	}
	_, err := w.Write(buf)
	return err
}
