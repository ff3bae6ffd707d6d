// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"mhcbind/internal/version"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Predictor selection
	Tool    string // builtin tool name, e.g. netmhcpan3
	Program string // override the executable name or path

	// Inputs
	Alleles      []string
	PeptideFiles []string // one peptide per line, "-" for stdin
	SeqFiles     []string // FASTA file(s), "-" for stdin
	Lengths      []int    // subsequence lengths; unused for peptide input

	// Execution
	ProcessLimit int // >0 bound, 0 unlimited, -1 all CPUs
	MaxPerFile   int // records per input chunk
	WorkDir      string

	// IEDB web API instead of a local tool
	IEDB       bool
	IEDBURL    string
	IEDBMethod string

	// Output
	OutputPath string // "-" for stdout
	Format     string // text | tsv | json

	LogLevel string
	Version  bool
}

// Usage writes the top-level help for fs.
func Usage(fs *flag.FlagSet, name string) {
	fmt.Fprintf(fs.Output(),
		`%s: MHC binding prediction via the NetMHC tool family

Version: %s

Usage of %s:
`, name, version.Version, name)
	fs.PrintDefaults()
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool
	var alleles, peptides, seqs stringSlice
	var lengths string

	fs.StringVar(&opt.Tool, "tool", "", "predictor to run, e.g. netmhcpan3 (see --tool list) [*]")
	fs.StringVar(&opt.Program, "program", "", "override the tool's executable name or path")

	fs.Var(&alleles, "alleles", "MHC allele(s), e.g. HLA-A*02:01 (repeatable or comma-separated) [*]")
	fs.Var(&peptides, "peptides", "peptide list file(s), one per line ('-' for stdin)")
	fs.Var(&seqs, "sequences", "protein FASTA file(s) ('-' for stdin)")
	fs.StringVar(&lengths, "lengths", "", "subsequence lengths for FASTA input, e.g. 8,9,10 [tool default]")

	fs.IntVar(&opt.ProcessLimit, "process-limit", -1, "max concurrent tool processes (0 = unlimited, -1 = all CPUs) [-1]")
	fs.IntVar(&opt.MaxPerFile, "max-per-file", 0, "max records per input chunk (0 = tool default) [0]")
	fs.StringVar(&opt.WorkDir, "work-dir", "", "parent directory for scratch files [system temp]")

	fs.BoolVar(&opt.IEDB, "iedb", false, "use the IEDB web API instead of a local tool [false]")
	fs.StringVar(&opt.IEDBURL, "iedb-url", "", "IEDB endpoint URL [class I default]")
	fs.StringVar(&opt.IEDBMethod, "iedb-method", "", "IEDB prediction method [recommended]")

	fs.StringVar(&opt.OutputPath, "output", "-", "output file ('-' for stdout) [-]")
	fs.StringVar(&opt.Format, "format", "text", "output format: text | tsv | json [text]")
	fs.StringVar(&opt.LogLevel, "log-level", "warn", "log level: debug | info | warn | error [warn]")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	opt.Alleles = alleles
	opt.PeptideFiles = peptides
	opt.SeqFiles = seqs

	if lengths != "" {
		ls, err := parseLengths(lengths)
		if err != nil {
			return opt, err
		}
		opt.Lengths = ls
	}

	// Validation
	if opt.Tool == "list" {
		return opt, nil
	}
	if opt.Tool == "" && !opt.IEDB {
		return opt, errors.New("provide --tool (or --tool list) or --iedb")
	}
	if len(opt.Alleles) == 0 {
		return opt, errors.New("at least one --alleles value is required")
	}
	usingPeptides := len(opt.PeptideFiles) > 0
	usingSeqs := len(opt.SeqFiles) > 0
	switch {
	case usingPeptides && usingSeqs:
		return opt, errors.New("--peptides conflicts with --sequences")
	case !usingPeptides && !usingSeqs:
		return opt, errors.New("provide --peptides or --sequences")
	}
	if usingPeptides && len(opt.Lengths) > 0 {
		return opt, errors.New("--lengths applies only to --sequences input")
	}
	if opt.IEDB && usingPeptides {
		return opt, errors.New("--iedb supports --sequences input only")
	}
	if opt.MaxPerFile < 0 {
		return opt, errors.New("--max-per-file must be ≥ 0")
	}
	return opt, nil
}

func parseLengths(s string) ([]int, error) {
	parts := splitCSV(s)
	if len(parts) == 0 {
		return nil, errors.New("--lengths is empty")
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("--lengths: invalid length %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
