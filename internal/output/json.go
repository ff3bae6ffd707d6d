// internal/output/json.go
package output

import (
	"encoding/json"
	"io"

	"mhcbind-core/binding"
)

func init() {
	Register("json", WriteJSON)
}

// WriteJSON writes the whole run result as one pretty-indented JSON object.
// NaN is not representable in JSON, so absent numeric fields are nulled via
// the Prediction marshaller.
func WriteJSON(w io.Writer, res *binding.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
