package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunVersion(t *testing.T) {
	var out, errb bytes.Buffer
	code := Run([]string{"--version"}, &out, &errb)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errb.String())
	}
	if !strings.HasPrefix(out.String(), "mhcbind version ") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestRunUsageError(t *testing.T) {
	var out, errb bytes.Buffer
	code := Run([]string{"--tool", "netmhcpan3"}, &out, &errb)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(errb.String(), "allele") {
		t.Errorf("stderr = %q", errb.String())
	}
}

func TestRunToolList(t *testing.T) {
	var out, errb bytes.Buffer
	code := Run([]string{"--tool", "list"}, &out, &errb)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errb.String())
	}
	if !strings.Contains(out.String(), "netmhcpan3\n") {
		t.Errorf("tool list missing netmhcpan3:\n%s", out.String())
	}
}

func TestRunUnknownTool(t *testing.T) {
	var out, errb bytes.Buffer
	code := Run([]string{
		"--tool", "netmhc99",
		"--alleles", "HLA-A*02:01",
		"--peptides", "nope.txt",
	}, &out, &errb)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

// TestRunEndToEnd drives the whole pipeline with a stand-in tool: it answers
// the -listMHC probe and prints a fixed netMHCpan-2.8 style table for the
// actual prediction call.
func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	table := `---
0  HLA-A*02:01  SIINFEKLL  peps  0.5  100.0  1.0
`
	tablePath := filepath.Join(dir, "table.txt")
	if err := os.WriteFile(tablePath, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "-listMHC" ]; then
  printf 'HLA-A*02:01\n'
  exit 0
fi
cat %s
`, tablePath)
	toolPath := filepath.Join(dir, "netMHCpan")
	if err := os.WriteFile(toolPath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	pepPath := filepath.Join(dir, "peptides.txt")
	if err := os.WriteFile(pepPath, []byte("SIINFEKLL\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out.tsv")

	var out, errb bytes.Buffer
	code := Run([]string{
		"--tool", "netmhcpan28",
		"--program", toolPath,
		"--alleles", "HLA-A*02:01",
		"--peptides", pepPath,
		"--work-dir", dir,
		"--output", outPath,
		"--format", "tsv",
	}, &out, &errb)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errb.String())
	}

	body, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "SIINFEKLL\tHLA-A*02:01\t100") {
		t.Errorf("output missing prediction row:\n%s", body)
	}
}
