package msa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pablo-arantes/af2-conformations/internal/seq"
	"github.com/pablo-arantes/af2-conformations/internal/xfs"
)

// DefaultBaseURL is the public MMseqs2 search API.
const DefaultBaseURL = "https://api.colabfold.com"

// Job status values reported by the search API.
const (
	statusPending     = "PENDING"
	statusRunning     = "RUNNING"
	statusComplete    = "COMPLETE"
	statusError       = "ERROR"
	statusRateLimit   = "RATELIMIT"
	statusMaintenance = "MAINTENANCE"
	statusUnknown     = "UNKNOWN"
)

// hitListFile is the template hit list the search result tarball carries.
const hitListFile = "pdb70.m8"

// Client talks to an MMseqs2-style search API: submit a sequence, poll the
// ticket until the job completes, download the result tarball and optionally
// fetch matched template structures.
type Client struct {
	// BaseURL of the search API.
	BaseURL string

	// HTTPClient used for all requests.
	HTTPClient *http.Client

	// PollInterval between ticket status checks.
	PollInterval time.Duration

	// SubmitRetries bounds resubmissions on rate-limit responses.
	SubmitRetries int

	// MaxTemplates caps how many hits are fetched from the template server.
	MaxTemplates int
}

// NewClient creates a search client with default timeouts. An empty baseURL
// selects the public API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: 5 * time.Minute},
		PollInterval:  5 * time.Second,
		SubmitRetries: 5,
		MaxTemplates:  20,
	}
}

// ticket is the job status response of the search API.
type ticket struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Search submits the sequence, blocks until the remote job finishes and
// extracts the result into dir. When useTemplates is set, matched template
// structures are fetched into dir/templates; a non-empty filter restricts
// the hits to the given specifiers and ErrNoTemplateMatch is returned when
// none survive. The returned bundle is read-only input for every prediction.
func (c *Client) Search(ctx context.Context, jobName, sequence string, filter []Hit, useTemplates bool, dir string) (*Bundle, error) {
	if err := xfs.EnsureDir(dir); err != nil {
		return nil, err
	}

	fasta := seq.Fasta(jobName, sequence)

	tk, err := c.submit(ctx, fasta)
	if err != nil {
		return nil, err
	}

	slog.Info("Search job submitted", "job", jobName, "ticket", tk.ID, "status", tk.Status)

	tk, err = c.waitForJob(ctx, tk)
	if err != nil {
		return nil, err
	}

	if err := c.download(ctx, "/result/download/"+url.PathEscape(tk.ID), dir); err != nil {
		return nil, fmt.Errorf("msa: failed to download search result: %w", err)
	}

	alignment, err := readAlignments(dir)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Alignment: alignment,
		Dir:       dir,
	}

	if !useTemplates {
		return bundle, nil
	}

	hits, err := readHitList(filepath.Join(dir, hitListFile))
	if err != nil {
		return nil, err
	}

	hits = filterHits(hits, filter)
	if len(filter) > 0 && len(hits) == 0 {
		return nil, ErrNoTemplateMatch
	}

	if len(hits) > c.MaxTemplates {
		hits = hits[:c.MaxTemplates]
	}

	if len(hits) > 0 {
		templateDir := filepath.Join(dir, "templates")
		if err := xfs.EnsureDir(templateDir); err != nil {
			return nil, err
		}

		if err := c.download(ctx, "/template/"+url.PathEscape(joinHits(hits)), templateDir); err != nil {
			return nil, fmt.Errorf("msa: failed to download templates: %w", err)
		}

		bundle.TemplateDir = templateDir
		bundle.Hits = hits

		slog.Info("Templates downloaded", "job", jobName, "count", len(hits), "dir", templateDir)
	}

	return bundle, nil
}

// submit posts the query. Rate-limit and maintenance responses are retried
// after a poll interval, bounded by SubmitRetries.
func (c *Client) submit(ctx context.Context, fasta string) (*ticket, error) {
	form := url.Values{
		"q":    {fasta},
		"mode": {"env"},
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/ticket/msa", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("msa: failed to create submit request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		tk, err := c.doTicket(req)
		if err != nil {
			return nil, fmt.Errorf("msa: submit failed: %w", err)
		}

		switch tk.Status {
		case statusRateLimit, statusMaintenance, statusUnknown:
			if attempt >= c.SubmitRetries {
				return nil, fmt.Errorf("msa: submit rejected with status %s after %d attempts", tk.Status, attempt+1)
			}

			slog.Warn("Search API busy, resubmitting", "status", tk.Status, "attempt", attempt+1)
			if err := c.sleep(ctx); err != nil {
				return nil, err
			}
		default:
			return tk, nil
		}
	}
}

// waitForJob polls the ticket until the job completes or fails.
func (c *Client) waitForJob(ctx context.Context, tk *ticket) (*ticket, error) {
	for {
		switch tk.Status {
		case statusComplete:
			return tk, nil
		case statusError:
			return nil, fmt.Errorf("msa: ticket %s: %w", tk.ID, ErrJobFailed)
		case statusPending, statusRunning:
			if err := c.sleep(ctx); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("msa: ticket %s reported unexpected status %s", tk.ID, tk.Status)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/ticket/"+url.PathEscape(tk.ID), http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("msa: failed to create status request: %w", err)
		}

		tk, err = c.doTicket(req)
		if err != nil {
			return nil, fmt.Errorf("msa: status check failed: %w", err)
		}
	}
}

// doTicket executes the request and decodes a ticket response.
func (c *Client) doTicket(req *http.Request) (*ticket, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}

	var tk ticket
	if err := json.NewDecoder(resp.Body).Decode(&tk); err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}

	return &tk, nil
}

// download fetches a tar.gz endpoint and extracts it into dir.
func (c *Client) download(ctx context.Context, path, dir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}

	return xfs.ExtractTarGz(resp.Body, dir)
}

// sleep waits one poll interval or until the context is done.
func (c *Client) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.PollInterval):
		return nil
	}
}

// readAlignments concatenates every a3m file the result tarball carried.
func readAlignments(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.a3m"))
	if err != nil {
		return "", fmt.Errorf("msa: failed to list alignment files: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("msa: search result in %s contains no alignment files", dir)
	}

	var b strings.Builder
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return "", fmt.Errorf("msa: failed to read alignment %s: %w", m, err)
		}

		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
	}

	return b.String(), nil
}

// readHitList parses the tab-separated template hit list. A missing file
// means the search found no templates.
func readHitList(path string) ([]Hit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("msa: failed to read hit list %s: %w", path, err)
	}

	var hits []Hit
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		h, err := ParseHit(fields[1])
		if err != nil {
			continue
		}

		if !seen[h.String()] {
			seen[h.String()] = true
			hits = append(hits, h)
		}
	}

	return hits, nil
}

// joinHits renders the comma-separated id list the template endpoint expects.
func joinHits(hits []Hit) string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.String()
	}

	return strings.Join(ids, ",")
}
