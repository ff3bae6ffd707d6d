// internal/predictor/presets.go
package predictor

import (
	"fmt"
	"sort"
	"strings"

	"mhcbind-core/tableparse"
	"mhcbind-core/toolspec"
)

// Preset returns the builtin configuration for a known predictor version:
// the program's flag table plus the column layout of its output format. The
// caller may still override Program (for a non-PATH install), ProcessLimit
// and the length defaults before handing the config to New.
func Preset(name string) (Config, error) {
	cfg, ok := presets[strings.ToLower(name)]
	if !ok {
		return Config{}, fmt.Errorf("unknown tool %q (known: %s)",
			name, strings.Join(PresetNames(), ", "))
	}
	return cfg, nil
}

// PresetNames lists the builtin tool names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// classIIAllele rewrites canonical spellings into the form the class II
// predictors want on the command line: HLA-DRB1*01:01 -> DRB1_0101.
func classIIAllele(allele string) string {
	a := strings.TrimPrefix(allele, "HLA-")
	a = strings.ReplaceAll(a, ":", "")
	a = strings.ReplaceAll(a, "*", "_")
	return a
}

var presets = map[string]Config{
	// NetMHC 3.x takes its input as a positional argument and prints a
	// WB/SB bind-level marker that shifts columns on exactly the binder
	// rows. It also misbehaves when several copies share a working
	// directory, hence the serial process limit.
	"netmhc3": {
		Tool: toolspec.Tool{
			Program:              "netMHC",
			AlleleFlag:           "--mhc",
			LengthFlag:           "--peplen",
			ExtraFlags:           []string{"--nodirect"},
			SupportedAllelesFlag: "-A",
		},
		Parse: tableparse.Spec{
			Method:        "netmhc3",
			KeyIndex:      4,
			OffsetIndex:   0,
			PeptideIndex:  1,
			AlleleIndex:   5,
			ScoreIndex:    2,
			AffinityIndex: 3,
			RankIndex:     tableparse.None,
			IgnoredTokens: map[string]int{"WB": 4, "SB": 4},
		},
		ProcessLimit: 1,
	},

	"netmhc4": {
		Tool: toolspec.Tool{
			Program:              "netMHC",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			TempDirFlag:          "-tdir",
			PeptideModeFlags:     []string{"-p"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhc4",
			KeyIndex:      10,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    11,
			AffinityIndex: 12,
			RankIndex:     13,
		},
	},

	"netmhcpan28": {
		Tool: toolspec.Tool{
			Program:              "netMHCpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			TempDirFlag:          "-tdir",
			PeptideModeFlags:     []string{"-p"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhcpan28",
			KeyIndex:      3,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    4,
			AffinityIndex: 5,
			RankIndex:     6,
		},
	},

	"netmhcpan3": {
		Tool: toolspec.Tool{
			Program:              "netMHCpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			PeptideModeFlags:     []string{"-p"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhcpan3",
			KeyIndex:      10,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    11,
			AffinityIndex: 12,
			RankIndex:     13,
			Transforms:    map[int]tableparse.Transform{0: tableparse.OneBasedOffset},
		},
	},

	// NetMHCpan 4.x defaults to elution-likelihood scores; the -BA flag
	// switches it back to binding affinity and changes the table layout.
	"netmhcpan4": {
		Tool: toolspec.Tool{
			Program:              "netMHCpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			PeptideModeFlags:     []string{"-p"},
			ExtraFlags:           []string{"-BA"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhcpan4",
			KeyIndex:      10,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    11,
			AffinityIndex: 12,
			RankIndex:     13,
			Transforms:    map[int]tableparse.Transform{0: tableparse.OneBasedOffset},
		},
	},

	"netmhcpan4-el": {
		Tool: toolspec.Tool{
			Program:              "netMHCpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			PeptideModeFlags:     []string{"-p"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhcpan4-el",
			KeyIndex:      10,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    11,
			AffinityIndex: tableparse.None,
			RankIndex:     12,
			Transforms:    map[int]tableparse.Transform{0: tableparse.OneBasedOffset},
		},
	},

	"netmhcpan41": {
		Tool: toolspec.Tool{
			Program:              "netMHCpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			PeptideModeFlags:     []string{"-p"},
			ExtraFlags:           []string{"-BA"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhcpan41",
			KeyIndex:      10,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    13,
			AffinityIndex: 15,
			RankIndex:     14,
			Transforms:    map[int]tableparse.Transform{0: tableparse.OneBasedOffset},
		},
	},

	"netmhcpan41-el": {
		Tool: toolspec.Tool{
			Program:              "netMHCpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			PeptideModeFlags:     []string{"-p"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhcpan41-el",
			KeyIndex:      10,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    11,
			AffinityIndex: tableparse.None,
			RankIndex:     12,
			Transforms:    map[int]tableparse.Transform{0: tableparse.OneBasedOffset},
		},
	},

	// NetMHCcons cannot list its alleles, so the probe falls back to a
	// bare invocation.
	"netmhccons": {
		Tool: toolspec.Tool{
			Program:     "netMHCcons",
			AlleleFlag:  "-a",
			LengthFlag:  "-length",
			InputFlag:   "-f",
			TempDirFlag: "-tdir",
		},
		Parse: tableparse.Spec{
			Method:        "netmhccons",
			KeyIndex:      3,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    4,
			AffinityIndex: 5,
			RankIndex:     6,
		},
	},

	"netmhciipan": {
		Tool: toolspec.Tool{
			Program:              "netMHCIIpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-length",
			InputFlag:            "-f",
			TempDirFlag:          "-tdir",
			SupportedAllelesFlag: "-list",
			PrepareAllele:        classIIAllele,
		},
		Parse: tableparse.Spec{
			Method:        "netmhciipan",
			KeyIndex:      3,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    7,
			AffinityIndex: 8,
			RankIndex:     9,
		},
		PeptideLengths:   []int{15, 16, 17, 18, 19, 20},
		MinPeptideLength: 9,
	},

	// NetMHCstabpan predicts complex stability, not affinity, so only the
	// score and rank columns are meaningful. It requires all peptides in a
	// run to share one length.
	"netmhcstabpan": {
		Tool: toolspec.Tool{
			Program:              "netMHCstabpan",
			AlleleFlag:           "-a",
			LengthFlag:           "-l",
			InputFlag:            "-f",
			PeptideModeFlags:     []string{"-p"},
			SupportedAllelesFlag: "-listMHC",
		},
		Parse: tableparse.Spec{
			Method:        "netmhcstabpan",
			KeyIndex:      3,
			OffsetIndex:   0,
			PeptideIndex:  2,
			AlleleIndex:   1,
			ScoreIndex:    5,
			AffinityIndex: tableparse.None,
			RankIndex:     6,
			Transforms:    map[int]tableparse.Transform{0: tableparse.OneBasedOffset},
		},
		GroupPeptidesByLength: true,
	},
}
