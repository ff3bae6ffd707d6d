// core/tableparse/parse.go
package tableparse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mhcbind-core/binding"
)

// headerTokens are the first words of the header lines the predictor family
// prints between its dash rules and the data rows.
var headerTokens = []string{
	"pos",
	"Pos",
	"Seq",
	"Number",
	"Protein",
	"Allele",
	"NetMHC",
	"Strong",
}

// CheckError scans raw tool output for an ERROR banner and surfaces the
// offending line. The predictors exit 0 on some failures and only admit the
// problem on stdout.
func CheckError(raw, program string) error {
	upper := strings.ToUpper(raw)
	idx := strings.Index(upper, "ERROR")
	if idx < 0 {
		return nil
	}
	line := raw[idx:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	return fmt.Errorf("%s failed - %s", program, strings.TrimSpace(line))
}

// dataLines yields the whitespace-tokenized data rows of raw output:
// everything before the first rule of three-or-more dashes is banner and
// dropped, as are blank lines, '#' comments, subsequent dash rules and
// header lines starting with a known header token. The dash-rule gate has to
// be re-armed per line rather than per table because several versions
// interleave one sub-table per allele, each with its own banner.
func dataLines(raw string) [][]string {
	var rows [][]string
	seenDash := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "---") {
			seenDash = true
			continue
		}
		if !seenDash || line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if hasHeaderToken(line) {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func hasHeaderToken(line string) bool {
	for _, tok := range headerTokens {
		if strings.HasPrefix(line, tok) {
			return true
		}
	}
	return false
}

// cleanFields drops declared marker tokens found at their expected index and
// applies per-column transforms. Indices refer to the raw token positions;
// a transform error poisons the row (reported via ok=false) so the caller
// can skip it.
func cleanFields(fields []string, spec Spec) (out []string, ok bool) {
	out = make([]string, 0, len(fields))
	for i, field := range fields {
		if at, ignorable := spec.IgnoredTokens[field]; ignorable && at == i {
			continue
		}
		if tf, hasTf := spec.Transforms[i]; hasTf {
			v, err := tf(field)
			if err != nil {
				return nil, false
			}
			field = v
		}
		out = append(out, field)
	}
	return out, true
}

func floatAt(fields []string, idx int) (float64, bool) {
	if idx == None {
		return math.NaN(), true
	}
	if idx >= len(fields) {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Parse reads one tool's raw table output into canonical prediction records.
// keyMap translates the short record keys written into the input chunks back
// to the caller's identifiers (nil means identity), and normalizeAllele
// canonicalizes allele spellings (nil means identity).
//
// Rows that cannot be parsed are skipped silently: the tables are
// semi-structured and the odd stray line is expected, not exceptional. A row
// whose affinity is invalid is first recovered from its log-scale score as
// 50000^(1-score); if still invalid, or if its percentile rank is out of
// range, the row is dropped. The only hard failure is an ERROR banner in the
// output.
func Parse(raw string, spec Spec, keyMap map[string]string, normalizeAllele func(string) string) ([]binding.Prediction, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := CheckError(raw, spec.Method); err != nil {
		return nil, err
	}
	if normalizeAllele == nil {
		normalizeAllele = func(s string) string { return s }
	}

	var preds []binding.Prediction
	for _, fields := range dataLines(raw) {
		fields, ok := cleanFields(fields, spec)
		if !ok {
			continue
		}
		maxIdx := spec.KeyIndex
		for _, idx := range []int{spec.OffsetIndex, spec.PeptideIndex, spec.AlleleIndex} {
			if idx > maxIdx {
				maxIdx = idx
			}
		}
		if maxIdx >= len(fields) {
			continue
		}

		offset, err := strconv.Atoi(fields[spec.OffsetIndex])
		if err != nil {
			continue
		}
		peptide := fields[spec.PeptideIndex]
		allele := fields[spec.AlleleIndex]
		shortKey := fields[spec.KeyIndex]

		score, ok := floatAt(fields, spec.ScoreIndex)
		if !ok {
			continue
		}
		rank, ok := floatAt(fields, spec.RankIndex)
		if !ok {
			continue
		}
		affinity, ok := floatAt(fields, spec.AffinityIndex)
		if !ok {
			continue
		}

		if spec.AffinityIndex != None {
			affinity = binding.RecoverAffinity(affinity, score)
			if !binding.ValidAffinity(affinity) {
				continue
			}
		}
		if !binding.ValidRank(rank) {
			continue
		}

		key := shortKey
		if keyMap != nil {
			if orig, found := keyMap[shortKey]; found {
				key = orig
			}
		}

		preds = append(preds, binding.Prediction{
			SourceKey:      key,
			Offset:         offset,
			Peptide:        peptide,
			Allele:         normalizeAllele(allele),
			Affinity:       affinity,
			Score:          score,
			PercentileRank: rank,
			Method:         spec.Method,
		})
	}
	return preds, nil
}
