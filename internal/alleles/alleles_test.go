package alleles

import (
	"reflect"
	"testing"
)

func TestNormalizeSpellings(t *testing.T) {
	cases := map[string]string{
		"HLA-A*02:01":  "HLA-A*02:01",
		"HLA-A02:01":   "HLA-A*02:01",
		"HLA-A*0201":   "HLA-A*02:01",
		"HLA-A0201":    "HLA-A*02:01",
		"A*02:01":      "HLA-A*02:01",
		"a0201":        "HLA-A*02:01",
		" HLA-B07:02 ": "HLA-B*07:02",
		"HLA-C*07:02":  "HLA-C*07:02",
		"DRB1_0101":    "HLA-DRB1*01:01",
		"DRB1*01:01":   "HLA-DRB1*01:01",
		"HLA-DQA10501": "HLA-DQA1*05:01",
		// outside the grammar: passed through cleaned
		"H-2-KB": "H-2-KB",
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeIsMemoized(t *testing.T) {
	// Same spelling twice must hit the cache and agree.
	a := Normalize("HLA-A*68:02")
	b := Normalize("HLA-A*68:02")
	if a != b {
		t.Errorf("cache returned a different answer: %q vs %q", a, b)
	}
}

func TestUniqueDropsHomozygousDuplicates(t *testing.T) {
	got := Unique([]string{"HLA-A*02:01", "HLA-A0201", "HLA-B*07:02"})
	want := []string{"HLA-A*02:01", "HLA-B*07:02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unique = %v, want %v", got, want)
	}
}
