package cli

import "flag"

// NewFlagSet returns a clean FlagSet with ContinueOnError.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {}
	return fs
}

// stringSlice is a repeatable string flag; each occurrence may itself be a
// comma-separated list.
type stringSlice []string

func (s *stringSlice) String() string { return "" }

func (s *stringSlice) Set(v string) error {
	for _, part := range splitCSV(v) {
		*s = append(*s, part)
	}
	return nil
}
