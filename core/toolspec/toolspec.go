// core/toolspec/toolspec.go
package toolspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Tool declares how one external predictor spells its command line. The
// predictor versions differ only in flag names and a couple of mode quirks,
// so a single value type parameterizes them all; there is no per-tool type.
type Tool struct {
	Program string // executable name or path, argv[0]

	AlleleFlag  string // e.g. "-a" or "--mhc"
	LengthFlag  string // e.g. "-l" or "--peplen"; used only when a length is given
	InputFlag   string // e.g. "-f"; "" appends the input path as a positional argument
	TempDirFlag string // e.g. "-tdir"; "" disables per-command temp dirs

	// PeptideModeFlags switch the tool from FASTA-subsequence input to
	// one-peptide-per-line input. Prepended before all other flags.
	PeptideModeFlags []string

	// ExtraFlags are fixed per-tool arguments, e.g. "--nodirect".
	ExtraFlags []string

	// SupportedAllelesFlag asks the tool to print the alleles it supports
	// (e.g. "-listMHC"). "" means the tool has no such flag and the probe
	// falls back to a bare invocation.
	SupportedAllelesFlag string

	// PrepareAllele rewrites an allele name into the spelling this tool
	// expects. nil applies the family default of stripping "*". The result
	// is not re-validated here.
	PrepareAllele func(string) string
}

// Validate fails fast on a malformed flag table, before any process is
// spawned.
func (t Tool) Validate() error {
	if strings.TrimSpace(t.Program) == "" {
		return fmt.Errorf("toolspec: program name is required")
	}
	if strings.TrimSpace(t.AlleleFlag) == "" {
		return fmt.Errorf("toolspec: allele flag is required for %s", t.Program)
	}
	for _, f := range t.PeptideModeFlags {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("toolspec: empty peptide-mode flag for %s", t.Program)
		}
	}
	for _, f := range t.ExtraFlags {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("toolspec: empty extra flag for %s", t.Program)
		}
	}
	return nil
}

func (t Tool) prepareAllele(allele string) string {
	if t.PrepareAllele != nil {
		return t.PrepareAllele(allele)
	}
	return strings.ReplaceAll(allele, "*", "")
}

// BuildArgs assembles the argv for one invocation of the tool. Pure: it never
// touches the filesystem. length <= 0 omits the length flag (peptide-list
// inputs carry their own lengths); tempDir == "" omits the temp-dir flag.
func (t Tool) BuildArgs(inputPath, allele string, length int, tempDir string, peptideMode bool) []string {
	args := []string{t.Program}
	if peptideMode {
		args = append(args, t.PeptideModeFlags...)
	}
	args = append(args, t.AlleleFlag, t.prepareAllele(allele))
	if length > 0 && t.LengthFlag != "" {
		args = append(args, t.LengthFlag, strconv.Itoa(length))
	}
	if t.TempDirFlag != "" && tempDir != "" {
		args = append(args, t.TempDirFlag, tempDir)
	}
	args = append(args, t.ExtraFlags...)
	if t.InputFlag != "" {
		args = append(args, t.InputFlag, inputPath)
	} else {
		args = append(args, inputPath)
	}
	return args
}
