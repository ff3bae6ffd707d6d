package iedb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mhcbind-core/chunk"
)

// fakeServer answers like the IEDB class I endpoint: one TSV table per POST,
// covering every 9-mer of the submitted sequences for the requested allele.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		allele := r.Form.Get("allele")
		if r.Form.Get("method") == "" || r.Form.Get("length") == "" {
			http.Error(w, "missing field", http.StatusBadRequest)
			return
		}

		// Parse the submitted FASTA back into per-sequence 9-mers.
		var seqs []string
		for _, block := range strings.Split(r.Form.Get("sequence_text"), ">") {
			lines := strings.SplitN(strings.TrimSpace(block), "\n", 2)
			if len(lines) == 2 {
				seqs = append(seqs, strings.TrimSpace(lines[1]))
			}
		}

		fmt.Fprintln(w, "allele\tseq_num\tstart\tend\tlength\tpeptide\tic50\trank")
		for n, seq := range seqs {
			for i := 0; i+9 <= len(seq); i++ {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t9\t%s\t%.1f\t%.1f\n",
					allele, n+1, i+1, i+9, seq[i:i+9], 100.0*float64(i+1), 1.0)
			}
		}
	}))
}

func TestPredictSubsequences(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Method: "netmhcpan"})
	records := []chunk.Record{
		{Key: "protein-A", Sequence: "SIINFEKLLM"},
		{Key: "protein-B", Sequence: "GILGFVFTL"},
	}
	res, err := c.PredictSubsequences(context.Background(), records,
		[]string{"HLA-A*02:01"}, []int{9})
	if err != nil {
		t.Fatalf("PredictSubsequences: %v", err)
	}
	if len(res.Predictions) != 3 {
		t.Fatalf("prediction count = %d, want 3", len(res.Predictions))
	}
	best := res.Predictions[0]
	if best.Affinity != 100.0 || best.Offset != 0 {
		t.Errorf("best binder = %+v, want offset 0 at 100nM", best)
	}
	if best.SourceKey != "protein-A" && best.SourceKey != "protein-B" {
		t.Errorf("seq_num not mapped to record key: %q", best.SourceKey)
	}
	for _, p := range res.Predictions {
		if p.Allele != "HLA-A*02:01" {
			t.Errorf("allele = %q", p.Allele)
		}
		if p.Method != "iedb-netmhcpan" {
			t.Errorf("method = %q", p.Method)
		}
	}
}

func TestServerErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "allele HLA-A*99:99 is not available", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.PredictSubsequences(context.Background(),
		[]chunk.Record{{Key: "p", Sequence: "SIINFEKLL"}},
		[]string{"HLA-A*99:99"}, []int{9})
	if err == nil {
		t.Fatal("server error not reported")
	}
	if !strings.Contains(err.Error(), "HLA-A*99:99 is not available") {
		t.Errorf("error lacks server message: %v", err)
	}
}

func TestMalformedResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "<html>maintenance</html>")
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.PredictSubsequences(context.Background(),
		[]chunk.Record{{Key: "p", Sequence: "SIINFEKLL"}},
		[]string{"HLA-A*02:01"}, []int{9})
	if err == nil {
		t.Fatal("non-TSV response accepted")
	}
}

func TestMissingPairFailsValidation(t *testing.T) {
	// Server answers with the header only: every expected pair is missing.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "allele\tseq_num\tstart\tend\tlength\tpeptide\tic50\trank")
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.PredictSubsequences(context.Background(),
		[]chunk.Record{{Key: "p", Sequence: "SIINFEKLL"}},
		[]string{"HLA-A*02:01"}, []int{9})
	if err == nil {
		t.Fatal("incomplete cross-product accepted")
	}
	if !strings.Contains(err.Error(), "SIINFEKLL") {
		t.Errorf("error does not name the missing pair: %v", err)
	}
}
