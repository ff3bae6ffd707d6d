// core/chunk/fasta.go
package chunk

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxKeyLen is the identifier length several predictors truncate at; keys
// longer than this would break the reverse mapping from output rows.
const maxKeyLen = 15

// Record is one named input sequence.
type Record struct {
	Key      string // caller's identifier, arbitrary
	Sequence string
}

// KeyMap maps the sanitized short key written into a chunk file back to the
// caller's original key.
type KeyMap map[string]string

// Original resolves a short key; unknown keys map to themselves so a parser
// can run without a key map.
func (m KeyMap) Original(short string) string {
	if m == nil {
		return short
	}
	if orig, ok := m[short]; ok {
		return orig
	}
	return short
}

// ShortKey converts an arbitrary record key into a filesystem- and tool-safe
// identifier: non-alphanumeric runes become '_', then the result is truncated
// so that "<truncated>_<index>" never exceeds 15 characters. The index is the
// record's 0-based position across the whole input, which guarantees
// uniqueness regardless of how aggressively the original keys collide after
// sanitization.
func ShortKey(original string, index int) string {
	var b strings.Builder
	for _, r := range original {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	sanitized := b.String()
	suffix := strconv.Itoa(index)
	if max := maxKeyLen - 1 - len(suffix); len(sanitized) > max {
		sanitized = sanitized[:max]
	}
	return sanitized + "_" + suffix
}

// WriteFasta partitions records into FASTA chunk files under dir, each
// holding at most maxPerFile records (maxPerFile <= 0 writes a single file).
// Records are written as ">shortKey\nsequence" with records separated by a
// newline and no newline after the final record of a file; some tools choke
// on a trailing blank line. Returns the chunk paths in order plus the
// combined key map.
func WriteFasta(dir string, records []Record, maxPerFile int) ([]string, KeyMap, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no input records")
	}
	if maxPerFile <= 0 {
		maxPerFile = len(records)
	}

	keyMap := make(KeyMap, len(records))
	var paths []string
	var b strings.Builder

	flush := func() error {
		path := filepath.Join(dir, fmt.Sprintf("input_%d.fasta", len(paths)))
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("write chunk %s: %w", path, err)
		}
		paths = append(paths, path)
		b.Reset()
		return nil
	}

	for i, rec := range records {
		short := ShortKey(rec.Key, i)
		keyMap[short] = rec.Key
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, ">%s\n%s", short, rec.Sequence)
		if (i+1)%maxPerFile == 0 || i == len(records)-1 {
			if err := flush(); err != nil {
				return nil, nil, err
			}
		}
	}
	return paths, keyMap, nil
}
