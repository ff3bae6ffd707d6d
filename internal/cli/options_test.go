package cli

import (
	"errors"
	"flag"
	"reflect"
	"testing"
)

func parse(t *testing.T, argv ...string) (Options, error) {
	t.Helper()
	fs := NewFlagSet("mhcbind")
	return ParseArgs(fs, argv)
}

func TestParseMinimal(t *testing.T) {
	opt, err := parse(t,
		"--tool", "netmhcpan3",
		"--alleles", "HLA-A*02:01,HLA-B*07:02",
		"--peptides", "peps.txt",
	)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opt.Tool != "netmhcpan3" {
		t.Errorf("Tool = %q", opt.Tool)
	}
	if !reflect.DeepEqual(opt.Alleles, []string{"HLA-A*02:01", "HLA-B*07:02"}) {
		t.Errorf("Alleles = %v", opt.Alleles)
	}
	if opt.ProcessLimit != -1 || opt.Format != "text" || opt.OutputPath != "-" {
		t.Errorf("defaults not applied: %+v", opt)
	}
}

func TestParseLengths(t *testing.T) {
	opt, err := parse(t,
		"--tool", "netmhcpan3",
		"--alleles", "HLA-A*02:01",
		"--sequences", "in.fasta",
		"--lengths", "8,9,10",
	)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !reflect.DeepEqual(opt.Lengths, []int{8, 9, 10}) {
		t.Errorf("Lengths = %v", opt.Lengths)
	}

	_, err = parse(t,
		"--tool", "netmhcpan3",
		"--alleles", "HLA-A*02:01",
		"--sequences", "in.fasta",
		"--lengths", "9,zero",
	)
	if err == nil {
		t.Error("non-numeric length accepted")
	}
}

func TestParseValidation(t *testing.T) {
	cases := map[string][]string{
		"no tool":              {"--alleles", "HLA-A*02:01", "--peptides", "p.txt"},
		"no alleles":           {"--tool", "netmhcpan3", "--peptides", "p.txt"},
		"no input":             {"--tool", "netmhcpan3", "--alleles", "HLA-A*02:01"},
		"both inputs":          {"--tool", "netmhcpan3", "--alleles", "HLA-A*02:01", "--peptides", "p.txt", "--sequences", "s.fasta"},
		"lengths for peptides": {"--tool", "netmhcpan3", "--alleles", "HLA-A*02:01", "--peptides", "p.txt", "--lengths", "9"},
		"iedb with peptides":   {"--iedb", "--alleles", "HLA-A*02:01", "--peptides", "p.txt"},
	}
	for name, argv := range cases {
		if _, err := parse(t, argv...); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestParseHelpAndVersion(t *testing.T) {
	if _, err := parse(t, "-h"); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h: err = %v, want flag.ErrHelp", err)
	}
	opt, err := parse(t, "--version")
	if err != nil || !opt.Version {
		t.Errorf("--version: opt=%+v err=%v", opt, err)
	}
}
