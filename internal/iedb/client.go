// internal/iedb/client.go
//
// Client for the IEDB tools web API, which exposes the same predictor
// family as hosted services. It produces the same normalized records as the
// local command-line path, so callers can switch between them freely.
package iedb

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mhcbind-core/binding"
	"mhcbind-core/chunk"

	"mhcbind/internal/alleles"
)

// DefaultBaseURL is the public class I prediction endpoint.
const DefaultBaseURL = "http://tools-cluster-interface.iedb.org/tools_api/mhci/"

// Options configures a Client; the zero value works against the public
// class I endpoint with the server's recommended method.
type Options struct {
	BaseURL string
	Method  string        // e.g. "recommended", "netmhcpan", "smm"
	Timeout time.Duration // per-request; default 180s, the server is slow

	HTTPClient *http.Client // overrides Timeout when set
	Logger     zerolog.Logger
}

func (o *Options) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Method == "" {
		o.Method = "recommended"
	}
	if o.Timeout <= 0 {
		o.Timeout = 180 * time.Second
	}
}

type Client struct {
	hc      *http.Client
	baseURL string
	method  string
	log     zerolog.Logger
}

func New(opts Options) *Client {
	opts.defaults()
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		hc:      hc,
		baseURL: opts.BaseURL,
		method:  opts.Method,
		log:     opts.Logger,
	}
}

// PredictSubsequences submits the sequences once per (allele, length)
// combination and validates the combined results against the full
// (k-mer x allele) cross-product, exactly like the local predictors.
func (c *Client) PredictSubsequences(ctx context.Context, records []chunk.Record, rawAlleles []string, lengths []int) (*binding.RunResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("iedb: no input sequences")
	}
	if len(rawAlleles) == 0 {
		return nil, fmt.Errorf("iedb: at least one allele is required")
	}
	if len(lengths) == 0 {
		lengths = []int{9}
	}
	for i := range records {
		records[i].Sequence = strings.ToUpper(records[i].Sequence)
	}
	alls := alleles.Unique(rawAlleles)
	expected := expand(records, lengths)
	if len(expected) == 0 {
		return nil, fmt.Errorf("iedb: no subsequences of lengths %v in input", lengths)
	}

	seqText := fastaText(records)
	var groups [][]binding.Prediction
	for _, allele := range alls {
		for _, length := range lengths {
			preds, err := c.request(ctx, seqText, records, allele, length)
			if err != nil {
				return nil, err
			}
			groups = append(groups, preds)
		}
	}
	return binding.Collect(groups, expected, alls)
}

// request performs one form POST and parses the TSV response. The server
// reports sequences by 1-based submission order, which is mapped back to the
// caller's record keys here.
func (c *Client) request(ctx context.Context, seqText string, records []chunk.Record, allele string, length int) ([]binding.Prediction, error) {
	form := url.Values{
		"method":        {c.method},
		"sequence_text": {seqText},
		"allele":        {allele},
		"length":        {strconv.Itoa(length)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("iedb: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	began := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iedb: post %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("iedb: read response: %w", err)
	}
	c.log.Debug().Str("allele", allele).Int("length", length).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(began)).Msg("iedb request")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("iedb: server returned %s: %s",
			resp.Status, snippet(body))
	}
	return parseResponse(string(body), c.method, records)
}

// parseResponse reads the server's tab-separated table. Unlike the
// command-line tools the web API names its columns in a header row, so
// columns are located by name instead of fixed index.
func parseResponse(raw, method string, records []chunk.Record) ([]binding.Prediction, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("iedb: empty response")
	}
	cols := map[string]int{}
	for i, name := range strings.Split(lines[0], "\t") {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"allele", "seq_num", "start", "peptide"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("iedb: unexpected response, missing %q column: %s",
				required, snippet([]byte(raw)))
		}
	}

	field := func(fields []string, name string) (string, bool) {
		idx, ok := cols[name]
		if !ok || idx >= len(fields) {
			return "", false
		}
		return fields[idx], true
	}
	floatField := func(fields []string, name string) float64 {
		s, ok := field(fields, name)
		if !ok {
			return math.NaN()
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return v
	}

	var preds []binding.Prediction
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		seqField, ok := field(fields, "seq_num")
		if !ok {
			continue
		}
		seqNum, err := strconv.Atoi(seqField)
		if err != nil || seqNum < 1 || seqNum > len(records) {
			continue
		}
		startField, _ := field(fields, "start")
		start, err := strconv.Atoi(startField)
		if err != nil || start < 1 {
			continue
		}
		peptide, _ := field(fields, "peptide")
		rawAllele, _ := field(fields, "allele")
		if peptide == "" || rawAllele == "" {
			continue
		}

		affinity := floatField(fields, "ic50")
		rank := floatField(fields, "rank")
		score := floatField(fields, "score")
		if !binding.ValidAffinity(affinity) && math.IsNaN(score) {
			continue
		}
		if !binding.ValidRank(rank) {
			continue
		}

		preds = append(preds, binding.Prediction{
			SourceKey:      records[seqNum-1].Key,
			Offset:         start - 1,
			Peptide:        peptide,
			Allele:         alleles.Normalize(rawAllele),
			Affinity:       affinity,
			Score:          score,
			PercentileRank: rank,
			Method:         "iedb-" + method,
		})
	}
	return preds, nil
}

func fastaText(records []chunk.Record) string {
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, ">%s\n%s", chunk.ShortKey(rec.Key, i), rec.Sequence)
	}
	return b.String()
}

func expand(records []chunk.Record, lengths []int) []string {
	seen := make(map[string]struct{})
	var peptides []string
	for _, rec := range records {
		for _, k := range lengths {
			for i := 0; i+k <= len(rec.Sequence); i++ {
				pep := rec.Sequence[i : i+k]
				if _, dup := seen[pep]; dup {
					continue
				}
				seen[pep] = struct{}{}
				peptides = append(peptides, pep)
			}
		}
	}
	return peptides
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
