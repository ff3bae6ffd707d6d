// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"mhcbind-core/fasta"

	"mhcbind/internal/cli"
	"mhcbind/internal/iedb"
	"mhcbind/internal/output"
	"mhcbind/internal/predictor"
	"mhcbind/internal/version"

	"mhcbind-core/binding"
	"mhcbind-core/chunk"
)

// Exit codes: 0 success, 1 prediction failure, 2 usage error, 3 I/O error.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("mhcbind")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			cli.Usage(fs, "mhcbind")
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(stderr)
		cli.Usage(fs, "mhcbind")
		return 2
	}
	if opts.Version {
		_, _ = fmt.Fprintf(outw, "mhcbind version %s\n", version.Version)
		return 0
	}
	if opts.Tool == "list" {
		for _, name := range predictor.PresetNames() {
			_, _ = fmt.Fprintln(outw, name)
		}
		return 0
	}

	log := newLogger(stderr, opts.LogLevel)

	res, err := predict(ctx, opts, log)
	if err != nil {
		log.Error().Err(err).Msg("prediction failed")
		_, _ = fmt.Fprintln(stderr, err)
		if isUsage(err) {
			return 2
		}
		return 1
	}

	w := io.Writer(outw)
	if opts.OutputPath != "-" {
		fh, err := os.Create(opts.OutputPath)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		defer fh.Close()
		bw := bufio.NewWriter(fh)
		defer func() { _ = bw.Flush() }()
		w = bw
	}
	if err := output.Write(opts.Format, w, res); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		if strings.Contains(err.Error(), "unknown output format") {
			return 2
		}
		return 3
	}
	return 0
}

// Run keeps the signature used by older callers and tests.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func predict(ctx context.Context, opts cli.Options, log zerolog.Logger) (*binding.RunResult, error) {
	if opts.IEDB {
		records, err := readSequences(opts.SeqFiles)
		if err != nil {
			return nil, err
		}
		client := iedb.New(iedb.Options{
			BaseURL: opts.IEDBURL,
			Method:  opts.IEDBMethod,
			Logger:  log,
		})
		return client.PredictSubsequences(ctx, records, opts.Alleles, opts.Lengths)
	}

	cfg, err := predictor.Preset(opts.Tool)
	if err != nil {
		return nil, err
	}
	if opts.Program != "" {
		cfg.Tool.Program = opts.Program
	}
	// -1 is the flag default; keep a preset's own serial limit in that case.
	if opts.ProcessLimit != -1 {
		cfg.ProcessLimit = opts.ProcessLimit
	} else if cfg.ProcessLimit == 0 {
		cfg.ProcessLimit = -1
	}
	if opts.MaxPerFile > 0 {
		cfg.MaxRecordsPerFile = opts.MaxPerFile
	}
	if len(opts.Lengths) > 0 {
		cfg.PeptideLengths = opts.Lengths
	}
	cfg.WorkDir = opts.WorkDir
	cfg.Logger = log

	p, err := predictor.New(cfg, opts.Alleles)
	if err != nil {
		return nil, err
	}
	if len(opts.PeptideFiles) > 0 {
		peptides, err := readPeptides(opts.PeptideFiles)
		if err != nil {
			return nil, err
		}
		return p.PredictPeptides(ctx, peptides)
	}
	records, err := readSequences(opts.SeqFiles)
	if err != nil {
		return nil, err
	}
	return p.PredictSubsequences(ctx, records, opts.Lengths)
}

func readSequences(paths []string) ([]chunk.Record, error) {
	var records []chunk.Record
	for _, path := range paths {
		rs, err := fasta.ReadFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}
	return records, nil
}

// readPeptides reads one peptide per line; blank lines and '#' comments are
// skipped.
func readPeptides(paths []string) ([]string, error) {
	var peptides []string
	for _, path := range paths {
		var r io.Reader
		if path == "-" {
			r = os.Stdin
		} else {
			fh, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			defer fh.Close()
			r = fh
		}
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			peptides = append(peptides, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return peptides, nil
}

func newLogger(stderr io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: stderr}).
		Level(lvl).With().Timestamp().Logger()
}

func isUsage(err error) bool {
	return strings.Contains(err.Error(), "unknown tool")
}
