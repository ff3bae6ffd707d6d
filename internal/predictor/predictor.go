// internal/predictor/predictor.go
package predictor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mhcbind-core/binding"
	"mhcbind-core/chunk"
	"mhcbind-core/cleanup"
	"mhcbind-core/procpool"
	"mhcbind-core/tableparse"
	"mhcbind-core/toolspec"

	"mhcbind/internal/alleles"
)

const (
	defaultMaxRecordsPerFile = 10000
	defaultMinPeptideLength  = 8
)

var validResidues = map[rune]struct{}{}

func init() {
	for _, r := range "ACDEFGHIKLMNPQRSTVWYX" {
		validResidues[r] = struct{}{}
	}
}

// Config assembles one predictor: the external tool's flag table, the parser
// spec for its output format, and the run policy.
type Config struct {
	Tool  toolspec.Tool
	Parse tableparse.Spec

	// PeptideLengths are the lengths predicted when extracting subsequences
	// from protein sequences. Default [9].
	PeptideLengths []int

	// MaxRecordsPerFile bounds how many records go into one input chunk.
	// Default 10000; <= 0 keeps the default.
	MaxRecordsPerFile int

	// ProcessLimit bounds concurrently running child processes: N > 0 is a
	// hard bound, 0 means unlimited, negative means all logical CPUs.
	ProcessLimit int

	// GroupPeptidesByLength writes one input file series per peptide
	// length; some tools require a uniform length per run.
	GroupPeptidesByLength bool

	// Peptide length bounds the tool can handle. MaxPeptideLength 0 means
	// no upper bound.
	MinPeptideLength int
	MaxPeptideLength int

	// WorkDir is the parent for per-run scratch directories; "" uses the
	// system temp dir.
	WorkDir string

	// SkipProbe disables the availability probe of the external program.
	SkipProbe bool

	Logger zerolog.Logger
}

// Predictor runs one external binding predictor over peptides or protein
// sequences and returns validated, normalized results.
type Predictor struct {
	cfg       Config
	alleles   []string
	supported map[string]struct{} // nil when the tool cannot list its alleles
}

// New validates the configuration, canonicalizes the requested alleles and
// probes the external program once. A program that cannot be run at all is a
// fatal construction error; nothing is retried later.
func New(cfg Config, rawAlleles []string) (*Predictor, error) {
	if err := cfg.Tool.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Parse.Validate(); err != nil {
		return nil, err
	}
	if len(rawAlleles) == 0 {
		return nil, fmt.Errorf("predictor: at least one allele is required")
	}
	if cfg.MaxRecordsPerFile <= 0 {
		cfg.MaxRecordsPerFile = defaultMaxRecordsPerFile
	}
	if cfg.MinPeptideLength <= 0 {
		cfg.MinPeptideLength = defaultMinPeptideLength
	}
	if len(cfg.PeptideLengths) == 0 {
		cfg.PeptideLengths = []int{9}
	}
	for _, l := range cfg.PeptideLengths {
		if l <= 0 {
			return nil, fmt.Errorf("predictor: invalid peptide length %d", l)
		}
	}

	p := &Predictor{cfg: cfg, alleles: alleles.Unique(rawAlleles)}
	if !cfg.SkipProbe {
		if err := p.probe(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Alleles returns the canonicalized, deduplicated allele list predictions
// will be made for.
func (p *Predictor) Alleles() []string { return p.alleles }

// probe checks that the external program can be run at all. When the tool
// can list its supported alleles, the listing doubles as the probe and
// unsupported requests are logged; the tools themselves reject alleles they
// do not know, so this is advisory.
func (p *Predictor) probe() error {
	tool := p.cfg.Tool
	if tool.SupportedAllelesFlag == "" {
		if err := procpool.Run(p.cfg.Logger, tool.Program); err != nil {
			return fmt.Errorf("predictor: failed to run %s: %w", tool.Program, err)
		}
		return nil
	}
	out, err := procpool.Output(tool.Program, tool.SupportedAllelesFlag)
	if err != nil {
		return fmt.Errorf("predictor: failed to run %s %s: %w",
			tool.Program, tool.SupportedAllelesFlag, err)
	}
	p.supported = make(map[string]struct{})
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p.supported[alleles.Normalize(line)] = struct{}{}
	}
	if len(p.supported) == 0 {
		return fmt.Errorf("predictor: %s %s returned an empty allele list",
			tool.Program, tool.SupportedAllelesFlag)
	}
	for _, a := range p.alleles {
		if _, ok := p.supported[a]; !ok {
			p.cfg.Logger.Warn().Str("allele", a).Str("program", tool.Program).
				Msg("allele not in tool's supported list")
		}
	}
	return nil
}

// PredictPeptides runs the tool in peptide-list mode over every
// (chunk, allele) combination and returns the validated results.
func (p *Predictor) PredictPeptides(ctx context.Context, peptides []string) (*binding.RunResult, error) {
	peptides = upperAll(peptides)
	if err := p.checkPeptides(peptides); err != nil {
		return nil, err
	}

	runDir, guard, err := p.scratch()
	if err != nil {
		return nil, err
	}
	defer guard.Close()

	inputs, err := chunk.WritePeptides(runDir, peptides, p.cfg.MaxRecordsPerFile, p.cfg.GroupPeptidesByLength)
	if err != nil {
		return nil, err
	}
	guard.Files(inputs...)
	p.cfg.Logger.Debug().Int("chunks", len(inputs)).Int("peptides", len(peptides)).Msg("wrote peptide input files")

	cmds := p.buildCommands(runDir, guard, inputs, nil)
	preds, err := p.runAndParse(ctx, cmds, nil)
	if err != nil {
		return nil, err
	}
	return binding.Collect(preds, peptides, p.alleles)
}

// PredictSubsequences writes the sequences as FASTA chunks, runs the tool
// once per (chunk, allele, length) and validates that every k-mer of every
// requested length got a prediction for every allele.
func (p *Predictor) PredictSubsequences(ctx context.Context, records []chunk.Record, lengths []int) (*binding.RunResult, error) {
	if len(lengths) == 0 {
		lengths = p.cfg.PeptideLengths
	}
	for i := range records {
		records[i].Sequence = strings.ToUpper(records[i].Sequence)
	}
	expected, err := p.expandSubsequences(records, lengths)
	if err != nil {
		return nil, err
	}

	runDir, guard, err := p.scratch()
	if err != nil {
		return nil, err
	}
	defer guard.Close()

	inputs, keyMap, err := chunk.WriteFasta(runDir, records, p.cfg.MaxRecordsPerFile)
	if err != nil {
		return nil, err
	}
	guard.Files(inputs...)
	p.cfg.Logger.Debug().Int("chunks", len(inputs)).Int("sequences", len(records)).
		Ints("lengths", lengths).Msg("wrote FASTA input files")

	cmds := p.buildCommands(runDir, guard, inputs, lengths)
	preds, err := p.runAndParse(ctx, cmds, keyMap)
	if err != nil {
		return nil, err
	}
	return binding.Collect(preds, expected, p.alleles)
}

// scratch creates the per-run working directory and the guard that tears it
// down. The uuid keeps concurrent runs of the same tool apart.
func (p *Predictor) scratch() (string, *cleanup.Guard, error) {
	base := p.cfg.WorkDir
	if base == "" {
		base = os.TempDir()
	}
	name := fmt.Sprintf("mhcbind_%s_%s",
		sanitizeProgram(p.cfg.Tool.Program), uuid.NewString()[:8])
	runDir := filepath.Join(base, name)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("predictor: create scratch dir: %w", err)
	}
	guard := cleanup.New(p.cfg.Logger)
	guard.Dirs(runDir)
	return runDir, guard, nil
}

// buildCommands produces one invocation per (chunk x allele x length)
// combination. lengths == nil means peptide-list mode, where the input lines
// carry their own lengths. Output files and per-command temp dirs are named
// with the tool and combination indices so cleanup never confuses
// concurrently-running commands.
func (p *Predictor) buildCommands(runDir string, guard *cleanup.Guard, inputs []string, lengths []int) []procpool.Command {
	tool := p.cfg.Tool
	program := sanitizeProgram(tool.Program)
	peptideMode := lengths == nil
	if peptideMode {
		lengths = []int{0}
	}

	var cmds []procpool.Command
	for i, input := range inputs {
		for j, allele := range p.alleles {
			for _, length := range lengths {
				n := len(cmds)
				tempDir := ""
				if tool.TempDirFlag != "" {
					tempDir = filepath.Join(runDir, fmt.Sprintf("tmp_%d_%d_%s", i, j, program))
					if err := os.MkdirAll(tempDir, 0o755); err != nil {
						// The command will fail loudly without it; the
						// guard still owns the parent dir.
						p.cfg.Logger.Warn().Err(err).Str("dir", tempDir).Msg("create command temp dir")
					}
					guard.Dirs(tempDir)
				}
				outputPath := filepath.Join(runDir, fmt.Sprintf("%s_output_%d_%d", program, i, n))
				guard.Files(outputPath)
				cmds = append(cmds, procpool.Command{
					Args:       tool.BuildArgs(input, allele, length, tempDir, peptideMode),
					OutputPath: outputPath,
				})
			}
		}
	}
	return cmds
}

// runAndParse executes the batch under the concurrency bound and parses each
// command's output file exactly once.
func (p *Predictor) runAndParse(ctx context.Context, cmds []procpool.Command, keyMap chunk.KeyMap) ([][]binding.Prediction, error) {
	poolCfg := procpool.Config{Limit: p.cfg.ProcessLimit, Logger: p.cfg.Logger}
	if err := procpool.RunAll(ctx, poolCfg, cmds); err != nil {
		return nil, fmt.Errorf("predictor: %w", err)
	}

	groups := make([][]binding.Prediction, 0, len(cmds))
	for _, cmd := range cmds {
		raw, err := os.ReadFile(cmd.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("predictor: read output of %s: %w", cmd.Args[0], err)
		}
		preds, err := tableparse.Parse(string(raw), p.cfg.Parse, keyMap, alleles.Normalize)
		if err != nil {
			return nil, err
		}
		groups = append(groups, preds)
	}
	if total := countPreds(groups); total == 0 {
		p.cfg.Logger.Warn().Str("program", p.cfg.Tool.Program).Msg("no binding predictions parsed")
	}
	return groups, nil
}

func (p *Predictor) checkPeptides(peptides []string) error {
	if len(peptides) == 0 {
		return fmt.Errorf("predictor: no peptides given")
	}
	for _, pep := range peptides {
		if pep == "" {
			return fmt.Errorf("predictor: empty peptide in input")
		}
		if len(pep) < p.cfg.MinPeptideLength {
			return fmt.Errorf("predictor: peptide %q shorter than minimum length %d",
				pep, p.cfg.MinPeptideLength)
		}
		if p.cfg.MaxPeptideLength > 0 && len(pep) > p.cfg.MaxPeptideLength {
			return fmt.Errorf("predictor: peptide %q longer than maximum length %d",
				pep, p.cfg.MaxPeptideLength)
		}
		for _, r := range pep {
			if _, ok := validResidues[r]; !ok {
				return fmt.Errorf("predictor: peptide %q contains invalid residue %q", pep, r)
			}
		}
	}
	return nil
}

// expandSubsequences computes the unique k-mer set the run is expected to
// produce predictions for. Note that the FASTA record count and the peptide
// count are different things: one record of length L yields L-k+1 peptides
// of length k.
func (p *Predictor) expandSubsequences(records []chunk.Record, lengths []int) ([]string, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("predictor: no input sequences")
	}
	seen := make(map[string]struct{})
	var peptides []string
	for _, rec := range records {
		if rec.Sequence == "" {
			return nil, fmt.Errorf("predictor: empty sequence for key %q", rec.Key)
		}
		for _, k := range lengths {
			for i := 0; i+k <= len(rec.Sequence); i++ {
				pep := rec.Sequence[i : i+k]
				if _, dup := seen[pep]; dup {
					continue
				}
				seen[pep] = struct{}{}
				peptides = append(peptides, pep)
			}
		}
	}
	if len(peptides) == 0 {
		return nil, fmt.Errorf("predictor: no subsequences of lengths %v in input", lengths)
	}
	return peptides, nil
}

func countPreds(groups [][]binding.Prediction) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}

func upperAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}

func sanitizeProgram(program string) string {
	base := filepath.Base(program)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, base)
}
