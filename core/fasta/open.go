// core/fasta/open.go
package fasta

import (
	"compress/gzip"
	"io"
	"os"
	"strings"
)

type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openReader opens path for reading, transparently handling gzip input and
// "-" for stdin. Gzip is detected by magic number (1F 8B) as well as by the
// .gz suffix.
func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	_, _ = fh.Seek(0, io.SeekStart)
	gzipped := (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) ||
		strings.HasSuffix(strings.ToLower(path), ".gz")
	if !gzipped {
		return fh, nil
	}
	zr, err := gzip.NewReader(fh)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	return &multiReadCloser{Reader: zr, closers: []io.Closer{zr, fh}}, nil
}
