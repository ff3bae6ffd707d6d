// internal/alleles/alleles.go
package alleles

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Normalize canonicalizes the allele-name spellings the predictor family
// uses. All of these map to "HLA-A*02:01":
//
//	HLA-A*02:01  HLA-A02:01  HLA-A*0201  HLA-A0201  A*02:01  A0201
//
// and class II underscore forms like DRB1_0101 map to "HLA-DRB1*01:01".
// Spellings the grammar does not cover are returned trimmed and upper-cased;
// full MHC nomenclature is out of scope here and the external tools are the
// final authority on what they accept.
//
// Results are memoized in a process-wide append-only cache: the same raw
// spellings recur for every row of every run, and the cache is safe to share
// across concurrent runs.
func Normalize(raw string) string {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return name
	}

	cacheMu.RLock()
	hit, ok := cache[name]
	cacheMu.RUnlock()
	if ok {
		return hit
	}

	canon := normalize(name)

	cacheMu.Lock()
	cache[name] = canon
	cacheMu.Unlock()
	return canon
}

// Unique normalizes a list of alleles and drops duplicates, preserving a
// deterministic order; homozygous inputs should not run the predictor twice.
func Unique(raws []string) []string {
	seen := make(map[string]struct{}, len(raws))
	var out []string
	for _, raw := range raws {
		a := Normalize(raw)
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

var (
	cacheMu sync.RWMutex
	cache   = map[string]string{}
)

// classI matches gene + 2-digit group + 2-3 digit protein with optional
// separators, e.g. A*02:01, B0702, C*07:02.
var classI = regexp.MustCompile(`^([A-Z])\*?(\d{2}):?(\d{2,3})$`)

// classII matches the II gene families with the same digit layout, e.g.
// DRB1*01:01, DRB1_0101, DQA10501.
var classII = regexp.MustCompile(`^(D[PQR][AB]\d)[*_]?(\d{2}):?(\d{2,3})$`)

func normalize(name string) string {
	trimmed := strings.TrimPrefix(name, "HLA-")
	if m := classI.FindStringSubmatch(trimmed); m != nil {
		return fmt.Sprintf("HLA-%s*%s:%s", m[1], m[2], m[3])
	}
	if m := classII.FindStringSubmatch(trimmed); m != nil {
		return fmt.Sprintf("HLA-%s*%s:%s", m[1], m[2], m[3])
	}
	return name
}
