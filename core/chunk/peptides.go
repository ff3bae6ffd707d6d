// core/chunk/peptides.go
package chunk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WritePeptides writes peptides one per line into files under dir, each file
// holding at most maxPerFile lines (maxPerFile <= 0 means a single file per
// group). When groupByLength is true, peptides are first grouped by length
// and each group gets its own file series; some predictors require all
// peptides in a run to share one length.
func WritePeptides(dir string, peptides []string, maxPerFile int, groupByLength bool) ([]string, error) {
	if len(peptides) == 0 {
		return nil, fmt.Errorf("no input peptides")
	}

	groups := map[string][]string{"": peptides}
	if groupByLength {
		groups = make(map[string][]string)
		for _, p := range peptides {
			k := fmt.Sprintf("len%d", len(p))
			groups[k] = append(groups[k], p)
		}
	}
	labels := make([]string, 0, len(groups))
	for k := range groups {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	var paths []string
	for _, label := range labels {
		group := groups[label]
		limit := maxPerFile
		if limit <= 0 {
			limit = len(group)
		}
		for start := 0; start < len(group); start += limit {
			end := start + limit
			if end > len(group) {
				end = len(group)
			}
			name := fmt.Sprintf("peptides_%d.txt", len(paths))
			if label != "" {
				name = fmt.Sprintf("peptides_%s_%d.txt", label, len(paths))
			}
			path := filepath.Join(dir, name)
			body := strings.Join(group[start:end], "\n") + "\n"
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				return nil, fmt.Errorf("write peptide chunk %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
