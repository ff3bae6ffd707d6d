// core/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"mhcbind-core/chunk"
)

// ReadRecords parses all FASTA records from r. The record key is the first
// whitespace-delimited token of the header line; multi-line sequences are
// concatenated.
func ReadRecords(r io.Reader) ([]chunk.Record, error) {
	sc := bufio.NewScanner(r)
	// Allow very long single-line sequences.
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var records []chunk.Record
	var key string
	var seq bytes.Buffer

	flush := func() error {
		if key == "" && seq.Len() == 0 {
			return nil
		}
		if key == "" {
			return fmt.Errorf("fasta: sequence before first header")
		}
		if seq.Len() == 0 {
			return fmt.Errorf("fasta: record %q has no sequence", key)
		}
		records = append(records, chunk.Record{Key: key, Sequence: seq.String()})
		seq.Reset()
		return nil
	}

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			key = headerKey(line[1:])
			if key == "" {
				return nil, fmt.Errorf("fasta: empty header line")
			}
			continue
		}
		seq.Write(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fasta: scan: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("fasta: no records found")
	}
	return records, nil
}

// ReadFile reads every record of one FASTA file; gzip and "-" for stdin are
// handled transparently.
func ReadFile(path string) ([]chunk.Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	records, err := ReadRecords(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func headerKey(b []byte) string {
	if i := bytes.IndexAny(b, " \t"); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimSpace(b))
}
