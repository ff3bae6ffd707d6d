package toolspec

import (
	"reflect"
	"strings"
	"testing"
)

var netmhc4 = Tool{
	Program:          "netMHC",
	AlleleFlag:       "-a",
	LengthFlag:       "-l",
	InputFlag:        "-f",
	TempDirFlag:      "-tdir",
	PeptideModeFlags: []string{"-p"},
}

func TestBuildArgsFastaMode(t *testing.T) {
	got := netmhc4.BuildArgs("in.fasta", "HLA-A*02:01", 9, "/tmp/work", false)
	want := []string{"netMHC", "-a", "HLA-A02:01", "-l", "9", "-tdir", "/tmp/work", "-f", "in.fasta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("argv = %v, want %v", got, want)
	}
}

func TestBuildArgsPeptideMode(t *testing.T) {
	got := netmhc4.BuildArgs("peps.txt", "HLA-A*02:01", 0, "", true)
	want := []string{"netMHC", "-p", "-a", "HLA-A02:01", "-f", "peps.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("argv = %v, want %v", got, want)
	}
}

func TestBuildArgsPositionalInputAndExtraFlags(t *testing.T) {
	netmhc3 := Tool{
		Program:    "netMHC",
		AlleleFlag: "--mhc",
		LengthFlag: "--peplen",
		ExtraFlags: []string{"--nodirect"},
	}
	got := netmhc3.BuildArgs("in.fasta", "HLA-A0201", 9, "", false)
	want := []string{"netMHC", "--mhc", "HLA-A0201", "--peplen", "9", "--nodirect", "in.fasta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("argv = %v, want %v", got, want)
	}
}

func TestPrepareAlleleHook(t *testing.T) {
	tool := netmhc4
	tool.PrepareAllele = func(a string) string {
		return strings.NewReplacer("HLA-", "", "*", "_", ":", "").Replace(a)
	}
	got := tool.BuildArgs("in", "HLA-DRB1*01:01", 0, "", false)
	if got[2] != "DRB1_0101" {
		t.Errorf("prepared allele = %q, want DRB1_0101", got[2])
	}
}

func TestValidate(t *testing.T) {
	if err := netmhc4.Validate(); err != nil {
		t.Errorf("valid tool rejected: %v", err)
	}
	if err := (Tool{AlleleFlag: "-a"}).Validate(); err == nil {
		t.Error("missing program accepted")
	}
	if err := (Tool{Program: "netMHC"}).Validate(); err == nil {
		t.Error("missing allele flag accepted")
	}
	bad := netmhc4
	bad.ExtraFlags = []string{" "}
	if err := bad.Validate(); err == nil {
		t.Error("blank extra flag accepted")
	}
}
