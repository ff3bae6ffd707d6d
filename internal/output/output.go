// internal/output/output.go
package output

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"mhcbind-core/binding"
)

// WriterFunc renders one run's results to w.
type WriterFunc func(w io.Writer, res *binding.RunResult) error

// writers is the format registry; register in init() from the per-format
// files.
var writers = map[string]WriterFunc{}

func Register(format string, fn WriterFunc) { writers[format] = fn }

// Write dispatches on format name.
func Write(format string, w io.Writer, res *binding.RunResult) error {
	fn, ok := writers[format]
	if !ok {
		return fmt.Errorf("unknown output format %q (known: %s)",
			format, strings.Join(Formats(), ", "))
	}
	return fn(w, res)
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(writers))
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// num renders a float for the tabular formats; absent values (NaN) print as
// an empty field rather than "NaN".
func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%g", v)
}
