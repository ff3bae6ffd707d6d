// internal/output/text.go
package output

import (
	"fmt"
	"io"

	"mhcbind-core/binding"
)

func init() {
	Register("text", WriteText)
	Register("tsv", WriteText)
}

// WriteText prints a header then one TSV line per prediction, in the run
// result's order (ascending affinity).
func WriteText(w io.Writer, res *binding.RunResult) error {
	if _, err := fmt.Fprintln(w, "source\toffset\tpeptide\tallele\taffinity\tscore\tpercentile_rank\tmethod"); err != nil {
		return err
	}
	for _, p := range res.Predictions {
		_, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.SourceKey, p.Offset, p.Peptide, p.Allele,
			num(p.Affinity), num(p.Score), num(p.PercentileRank),
			p.Method,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
