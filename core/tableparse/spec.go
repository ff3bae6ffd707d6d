// core/tableparse/spec.go
package tableparse

import (
	"fmt"
	"strconv"
)

// None marks a column the format does not have.
const None = -1

// Transform rewrites one raw column value before field extraction.
type Transform func(string) (string, error)

// OneBasedOffset converts a 1-based position column to the 0-based
// convention used everywhere in this module. Several predictor versions
// number the first residue 1, the rest number it 0.
func OneBasedOffset(s string) (string, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n - 1), nil
}

// Spec declares how to read one whitespace-delimited output table format.
// The predictor versions emit structurally identical tables that differ only
// in column order and a couple of quirks, so one parser parameterized by a
// Spec value covers the whole family.
type Spec struct {
	// Method is stamped on every record produced with this spec.
	Method string

	// Column indices after token cleanup. Score/Rank/Affinity may be None.
	KeyIndex      int
	OffsetIndex   int
	PeptideIndex  int
	AlleleIndex   int
	ScoreIndex    int
	RankIndex     int
	AffinityIndex int

	// IgnoredTokens maps an optional marker token to the column index at
	// which it may appear (e.g. the "WB"/"SB" binder flag some versions
	// print on binder rows only). When found at its declared index the
	// token is dropped before any field is read, restoring the column
	// alignment of unmarked rows.
	IgnoredTokens map[string]int

	// Transforms maps a raw column index to a rewrite applied during
	// cleanup, before extraction.
	Transforms map[int]Transform
}

// Validate fails fast on a spec that could never produce a record.
func (s Spec) Validate() error {
	for name, idx := range map[string]int{
		"key":     s.KeyIndex,
		"offset":  s.OffsetIndex,
		"peptide": s.PeptideIndex,
		"allele":  s.AlleleIndex,
	} {
		if idx < 0 {
			return fmt.Errorf("tableparse: %s column index is required", name)
		}
	}
	if s.ScoreIndex == None && s.AffinityIndex == None && s.RankIndex == None {
		return fmt.Errorf("tableparse: spec has no numeric result column")
	}
	return nil
}
