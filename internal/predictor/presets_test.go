package predictor

import (
	"strings"
	"testing"

	"mhcbind-core/tableparse"
)

func TestPresetUnknown(t *testing.T) {
	_, err := Preset("netmhc99")
	if err == nil {
		t.Fatal("unknown tool name accepted")
	}
	if !strings.Contains(err.Error(), "netmhc4") {
		t.Errorf("error does not list known tools: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, err := Preset(name)
		if err != nil {
			t.Fatalf("Preset(%q): %v", name, err)
		}
		if err := cfg.Tool.Validate(); err != nil {
			t.Errorf("%s: tool: %v", name, err)
		}
		if err := cfg.Parse.Validate(); err != nil {
			t.Errorf("%s: parse spec: %v", name, err)
		}
	}
}

func TestPresetNetMHC3IsSerial(t *testing.T) {
	cfg, err := Preset("netmhc3")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProcessLimit != 1 {
		t.Errorf("netmhc3 process limit = %d, want 1", cfg.ProcessLimit)
	}
	if cfg.Tool.InputFlag != "" {
		t.Errorf("netmhc3 should take its input positionally, got flag %q", cfg.Tool.InputFlag)
	}
}

func TestPresetClassIIAlleleSpelling(t *testing.T) {
	cfg, err := Preset("netmhciipan")
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Tool.PrepareAllele("HLA-DRB1*01:01"); got != "DRB1_0101" {
		t.Errorf("class II allele spelling = %q, want DRB1_0101", got)
	}
}

func TestPresetElutionModesHaveNoAffinityColumn(t *testing.T) {
	for _, name := range []string{"netmhcpan4-el", "netmhcpan41-el", "netmhcstabpan"} {
		cfg, err := Preset(name)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Parse.AffinityIndex != tableparse.None {
			t.Errorf("%s: affinity column declared at %d, want none", name, cfg.Parse.AffinityIndex)
		}
	}
}
