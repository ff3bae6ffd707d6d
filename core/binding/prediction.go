// core/binding/prediction.go
package binding

import (
	"encoding/json"
	"fmt"
	"math"
)

// MaxAffinity is the IC50 saturation value (nM) used by the NetMHC family.
// When a predictor reports a broken IC50 but a finite log-scale score s,
// the affinity can be rebuilt as MaxAffinity^(1-s).
const MaxAffinity = 50000.0

// Prediction is one peptide/allele binding prediction, normalized from a
// single row of an external predictor's output table.
type Prediction struct {
	SourceKey      string  `json:"source_key,omitempty"` // caller's identifier for the source sequence ("" for bare peptides)
	Offset         int     `json:"offset"`               // 0-based position of the peptide within its source sequence
	Peptide        string  `json:"peptide"`
	Allele         string  `json:"allele"`
	Affinity       float64 `json:"affinity"`        // IC50 in nM; NaN when the format has no affinity column
	Score          float64 `json:"score"`           // log-scale score, typically 1-log50k(aff); NaN when absent
	PercentileRank float64 `json:"percentile_rank"` // within [0,100]; NaN when absent
	Method         string  `json:"method"`          // predictor that produced the row, e.g. "netMHCpan"
}

// ValidAffinity reports whether x is a usable IC50: finite and >= 0.
func ValidAffinity(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}

// ValidRank reports whether x is a usable percentile rank. NaN is accepted
// because not every predictor emits one.
func ValidRank(x float64) bool {
	if math.IsNaN(x) {
		return true
	}
	return x >= 0 && x <= 100
}

// RecoverAffinity rebuilds an invalid affinity from a finite log-scale score.
// Returns the input unchanged when it is already valid or no recovery is
// possible.
func RecoverAffinity(affinity, score float64) float64 {
	if ValidAffinity(affinity) {
		return affinity
	}
	if !math.IsNaN(score) && !math.IsInf(score, 0) {
		return math.Pow(MaxAffinity, 1-score)
	}
	return affinity
}

// Value is the sort value for a prediction: affinity when present, otherwise
// the log-scale score (elution-style formats have no IC50 column).
func (p Prediction) Value() float64 {
	if !math.IsNaN(p.Affinity) {
		return p.Affinity
	}
	return p.Score
}

// MarshalJSON nulls the absent (NaN) numeric fields; JSON cannot carry NaN.
func (p Prediction) MarshalJSON() ([]byte, error) {
	opt := func(v float64) *float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		SourceKey      string   `json:"source_key,omitempty"`
		Offset         int      `json:"offset"`
		Peptide        string   `json:"peptide"`
		Allele         string   `json:"allele"`
		Affinity       *float64 `json:"affinity"`
		Score          *float64 `json:"score"`
		PercentileRank *float64 `json:"percentile_rank"`
		Method         string   `json:"method"`
	}{
		SourceKey:      p.SourceKey,
		Offset:         p.Offset,
		Peptide:        p.Peptide,
		Allele:         p.Allele,
		Affinity:       opt(p.Affinity),
		Score:          opt(p.Score),
		PercentileRank: opt(p.PercentileRank),
		Method:         p.Method,
	})
}

func (p Prediction) String() string {
	return fmt.Sprintf("Prediction(peptide=%s, allele=%s, affinity=%.4f, rank=%.4f, source=%s, offset=%d, method=%s)",
		p.Peptide, p.Allele, p.Affinity, p.PercentileRank, p.SourceKey, p.Offset, p.Method)
}

// key gives an exact-duplicate identity. NaN fields format identically, so
// two rows differing only in NaN-ness of the same field still compare equal,
// which matches the intent of exact-duplicate removal.
func (p Prediction) key() string {
	return fmt.Sprintf("%s\x00%d\x00%s\x00%s\x00%g\x00%g\x00%g\x00%s",
		p.SourceKey, p.Offset, p.Peptide, p.Allele,
		p.Affinity, p.Score, p.PercentileRank, p.Method)
}

// less orders predictions ascending by Value, with the remaining fields as
// deterministic tie-breakers.
func less(a, b Prediction) bool {
	av, bv := a.Value(), b.Value()
	// NaN sorts last
	switch {
	case math.IsNaN(av) && !math.IsNaN(bv):
		return false
	case !math.IsNaN(av) && math.IsNaN(bv):
		return true
	case av != bv:
		return av < bv
	}
	if a.SourceKey != b.SourceKey {
		return a.SourceKey < b.SourceKey
	}
	if a.Offset != b.Offset {
		return a.Offset < b.Offset
	}
	if a.Peptide != b.Peptide {
		return a.Peptide < b.Peptide
	}
	return a.Allele < b.Allele
}
