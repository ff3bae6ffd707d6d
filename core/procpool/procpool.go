// core/procpool/procpool.go
package procpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Command is one external-process invocation plus the file its stdout is
// redirected to. The output file is created when the process starts and
// closed when it exits.
type Command struct {
	Args       []string // Args[0] is the program name or path
	OutputPath string
}

// Config controls how a batch of commands is executed.
//
// Limit semantics: a positive N bounds the number of concurrently running
// child processes at N; 0 means no bound (submit everything immediately);
// any negative value means "all available parallelism", i.e. one slot per
// logical CPU.
type Config struct {
	Limit  int
	Stderr io.Writer      // destination for child stderr; nil discards it
	Logger zerolog.Logger // zero value is fine; use zerolog.Nop() to be explicit
}

// ExitError reports a child process that exited non-zero.
type ExitError struct {
	Program string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Program, e.Code)
}

type finished struct {
	program string
	began   time.Time
	err     error
}

// RunAll executes every command as an OS process, stdout redirected to its
// dedicated output file, enforcing the concurrency bound from cfg. It blocks
// until the whole batch is done; there is no partial-result API.
//
// The policy is fail-fast: after the first non-zero exit (or start failure)
// no further processes are launched, but processes already running are waited
// on so none is left behind as a zombie, and the first error is returned
// after the drain. Once a process has started it runs to completion; the
// context only stops new launches.
func RunAll(ctx context.Context, cfg Config, cmds []Command) error {
	if len(cmds) == 0 {
		return nil
	}
	limit := cfg.Limit
	if limit < 0 {
		limit = runtime.NumCPU()
	}
	log := cfg.Logger

	done := make(chan finished, len(cmds))
	inFlight := 0
	var firstErr error

	reap := func(f finished) {
		log.Debug().Str("program", f.program).Dur("elapsed", time.Since(f.began)).Msg("command finished")
		if f.err != nil && firstErr == nil {
			firstErr = f.err
		}
	}

	batchStart := time.Now()
	for _, c := range cmds {
		// Wait for a free slot, reaping whatever exits meanwhile.
		for limit > 0 && inFlight >= limit && firstErr == nil {
			f := <-done
			inFlight--
			reap(f)
		}
		if firstErr != nil || ctx.Err() != nil {
			break
		}
		if err := start(c, cfg, done); err != nil {
			firstErr = err
			break
		}
		inFlight++
	}

	// Drain: block-wait on every remaining child before reporting anything.
	for inFlight > 0 {
		f := <-done
		inFlight--
		reap(f)
	}

	log.Info().Int("commands", len(cmds)).Dur("elapsed", time.Since(batchStart)).Msg("batch complete")
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func start(c Command, cfg Config, done chan<- finished) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("procpool: empty command")
	}
	out, err := os.Create(c.OutputPath)
	if err != nil {
		return fmt.Errorf("procpool: create output for %s: %w", c.Args[0], err)
	}
	cmd := exec.Command(c.Args[0], c.Args[1:]...)
	cmd.Stdout = out
	if cfg.Stderr != nil {
		cmd.Stderr = cfg.Stderr
	}
	cfg.Logger.Debug().Strs("argv", c.Args).Str("stdout", c.OutputPath).Msg("starting command")

	began := time.Now()
	if err := cmd.Start(); err != nil {
		out.Close()
		return fmt.Errorf("procpool: start %s: %w", c.Args[0], err)
	}
	program := c.Args[0]
	go func() {
		werr := cmd.Wait()
		if cerr := out.Close(); cerr != nil && werr == nil {
			werr = cerr
		}
		done <- finished{program: program, began: began, err: wrapExit(program, werr)}
	}()
	return nil
}

func wrapExit(program string, err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Program: program, Code: ee.ExitCode()}
	}
	return fmt.Errorf("procpool: wait %s: %w", program, err)
}

// Run executes a single command to completion, discarding its output, and
// logs how long it took. Used for the initial availability probe of an
// external tool.
func Run(log zerolog.Logger, args ...string) error {
	if len(args) == 0 {
		return fmt.Errorf("procpool: empty command")
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	began := time.Now()
	err := wrapExit(args[0], cmd.Run())
	log.Debug().Str("program", args[0]).Dur("elapsed", time.Since(began)).Err(err).Msg("probe")
	return err
}

// Output executes a single command and returns its stdout, e.g. asking a
// predictor for the alleles it supports.
func Output(args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("procpool: empty command")
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = io.Discard
	out, err := cmd.Output()
	if err != nil {
		return nil, wrapExit(args[0], err)
	}
	return out, nil
}
