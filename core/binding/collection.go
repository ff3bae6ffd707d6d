// core/binding/collection.go
package binding

import (
	"fmt"
	"sort"
)

// Pair is one requested (peptide, allele) combination.
type Pair struct {
	Peptide string
	Allele  string
}

func (p Pair) String() string { return fmt.Sprintf("(%s, %s)", p.Peptide, p.Allele) }

// RunResult is the validated outcome of one prediction run: every surviving
// record, deduplicated and sorted ascending by affinity, plus the originally
// requested peptides and alleles.
type RunResult struct {
	Predictions []Prediction `json:"predictions"`
	Peptides    []string     `json:"peptides"`
	Alleles     []string     `json:"alleles"`
}

// ValidationError reports a mismatch between the observed (peptide, allele)
// set and the expected cross-product. One concrete offending pair is named.
type ValidationError struct {
	Kind     string // "missing" or "unexpected"
	Pair     Pair
	Expected int // size of the expected set
	Observed int // size of the observed set
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s prediction for %s: observed %d of %d expected (peptide, allele) pairs",
		e.Kind, e.Pair, e.Observed, e.Expected)
}

// Aggregate merges per-command prediction slices into one collection, drops
// exact duplicates and sorts ascending by affinity (score where the format
// has no affinity column).
func Aggregate(groups ...[]Prediction) []Prediction {
	seen := make(map[string]struct{})
	var out []Prediction
	for _, g := range groups {
		for _, p := range g {
			k := p.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Validate checks that the observed (peptide, allele) set exactly matches the
// cross-product of peptides x alleles. Partial success is not accepted: any
// missing pair is an error, as is any pair that was never requested.
func Validate(preds []Prediction, peptides, alleles []string) error {
	expected := make(map[Pair]struct{}, len(peptides)*len(alleles))
	for _, pep := range peptides {
		for _, a := range alleles {
			expected[Pair{Peptide: pep, Allele: a}] = struct{}{}
		}
	}
	observed := make(map[Pair]struct{}, len(preds))
	for _, p := range preds {
		observed[Pair{Peptide: p.Peptide, Allele: p.Allele}] = struct{}{}
	}

	// Deterministic iteration so the same failure always names the same pair.
	for _, pep := range peptides {
		for _, a := range alleles {
			pair := Pair{Peptide: pep, Allele: a}
			if _, ok := observed[pair]; !ok {
				return &ValidationError{
					Kind:     "missing",
					Pair:     pair,
					Expected: len(expected),
					Observed: len(observed),
				}
			}
		}
	}
	extras := make([]Pair, 0)
	for pair := range observed {
		if _, ok := expected[pair]; !ok {
			extras = append(extras, pair)
		}
	}
	if len(extras) > 0 {
		sort.Slice(extras, func(i, j int) bool {
			if extras[i].Peptide != extras[j].Peptide {
				return extras[i].Peptide < extras[j].Peptide
			}
			return extras[i].Allele < extras[j].Allele
		})
		return &ValidationError{
			Kind:     "unexpected",
			Pair:     extras[0],
			Expected: len(expected),
			Observed: len(observed),
		}
	}
	return nil
}

// Collect aggregates per-command records and validates them against the
// requested peptides and alleles, returning a RunResult only when the
// observed set is exactly the expected cross-product.
func Collect(groups [][]Prediction, peptides, alleles []string) (*RunResult, error) {
	merged := Aggregate(groups...)
	if err := Validate(merged, peptides, alleles); err != nil {
		return nil, err
	}
	return &RunResult{Predictions: merged, Peptides: peptides, Alleles: alleles}, nil
}
