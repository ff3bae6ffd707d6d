package cleanup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestCloseRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.fasta")
	if err := os.WriteFile(file, []byte(">x\nAAA"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "tmp_0_0_netMHC")
	if err := os.MkdirAll(filepath.Join(sub, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	g := New(zerolog.Nop())
	g.Files(file)
	g.Dirs(sub)
	g.Close()

	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("file survived cleanup")
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Error("directory survived cleanup")
	}
}

func TestCloseHandlesBeforeRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output.txt")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	g := New(zerolog.Nop())
	g.Handles(fh)
	g.Files(path)
	g.Close()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("open file not removed")
	}
	// The handle was closed by the guard: closing again must fail.
	if err := fh.Close(); err == nil {
		t.Error("handle was not closed by guard")
	}
}

func TestCloseIsIdempotentAndSwallowsFailures(t *testing.T) {
	g := New(zerolog.Nop())
	g.Files("/nonexistent/definitely/missing")
	g.Dirs("/nonexistent/definitely/missing-dir")
	g.Close()
	g.Close() // second call is a no-op, must not panic
}

func TestCloseRunsOnPanicPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	func() {
		defer func() { recover() }()
		g := New(zerolog.Nop())
		defer g.Close()
		g.Files(file)
		panic("parse exploded")
	}()

	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("file survived a panicking scope")
	}
}
