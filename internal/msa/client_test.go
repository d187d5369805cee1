package msa

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testM8 = "query\t1abc_A\t0.92\t120\n" +
	"query\t2xyz_B\t0.81\t118\n" +
	"query\t1abc_A\t0.77\t119\n" + // duplicate, must be collapsed
	"query\t3def_C\t0.70\t101\n"

// targz builds an in-memory tar.gz with the given members.
func targz(t *testing.T, members map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// fakeAPI emulates the MMseqs2 search service.
type fakeAPI struct {
	t              *testing.T
	submits        int
	polls          int
	rateLimitFirst bool
	failJob        bool
	m8             string
	templateIDs    string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ticket/msa", func(w http.ResponseWriter, r *http.Request) {
		f.submits++
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		status := "PENDING"
		if f.rateLimitFirst && f.submits == 1 {
			status = "RATELIMIT"
		}

		json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": status})
	})

	mux.HandleFunc("/ticket/job-1", func(w http.ResponseWriter, r *http.Request) {
		f.polls++

		status := "COMPLETE"
		switch {
		case f.failJob:
			status = "ERROR"
		case f.polls == 1:
			status = "RUNNING"
		}

		json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": status})
	})

	mux.HandleFunc("/result/download/job-1", func(w http.ResponseWriter, r *http.Request) {
		members := map[string]string{
			"uniref.a3m": ">query\nMKTAYIAKQR\n>hit1\nMKTAYLAKQR\n",
		}
		if f.m8 != "" {
			members["pdb70.m8"] = f.m8
		}
		w.Write(targz(f.t, members))
	})

	mux.HandleFunc("/template/", func(w http.ResponseWriter, r *http.Request) {
		f.templateIDs = strings.TrimPrefix(r.URL.Path, "/template/")
		w.Write(targz(f.t, map[string]string{
			"pdb70_cif/templates.cif": "data_templates\n",
		}))
	})

	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) (*Client, func()) {
	t.Helper()

	srv := httptest.NewServer(api.handler())
	c := NewClient(srv.URL)
	c.PollInterval = time.Millisecond
	return c, srv.Close
}

func TestClient_SearchNoTemplates(t *testing.T) {
	api := &fakeAPI{t: t, m8: testM8}
	c, stop := newTestClient(t, api)
	defer stop()

	dir := t.TempDir()
	bundle, err := c.Search(context.Background(), "job", "MKTAYIAKQR", nil, false, dir)
	require.NoError(t, err)

	assert.Contains(t, bundle.Alignment, ">query")
	assert.Equal(t, dir, bundle.Dir)
	assert.Empty(t, bundle.TemplateDir)
	assert.Empty(t, bundle.Hits)

	_, err = os.Stat(filepath.Join(dir, "uniref.a3m"))
	assert.NoError(t, err)
}

func TestClient_SearchAllTemplates(t *testing.T) {
	// An empty specifier list means no filtering: every reported hit is used.
	api := &fakeAPI{t: t, m8: testM8}
	c, stop := newTestClient(t, api)
	defer stop()

	bundle, err := c.Search(context.Background(), "job", "MKTAYIAKQR", nil, true, t.TempDir())
	require.NoError(t, err)

	want := []Hit{
		{PDBID: "1abc", Chain: "A"},
		{PDBID: "2xyz", Chain: "B"},
		{PDBID: "3def", Chain: "C"},
	}
	assert.Equal(t, want, bundle.Hits)
	assert.Equal(t, "1abc_A,2xyz_B,3def_C", api.templateIDs)

	assert.NotEmpty(t, bundle.TemplateDir)
	_, err = os.Stat(filepath.Join(bundle.TemplateDir, "pdb70_cif", "templates.cif"))
	assert.NoError(t, err)
}

func TestClient_SearchFilteredTemplates(t *testing.T) {
	api := &fakeAPI{t: t, m8: testM8}
	c, stop := newTestClient(t, api)
	defer stop()

	filter := []Hit{
		{PDBID: "2xyz", Chain: "B"},
		{PDBID: "9zzz", Chain: "Z"}, // not among the hits
	}

	bundle, err := c.Search(context.Background(), "job", "MKTAYIAKQR", filter, true, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []Hit{{PDBID: "2xyz", Chain: "B"}}, bundle.Hits)
	assert.Equal(t, "2xyz_B", api.templateIDs)
}

func TestClient_SearchNoTemplateMatch(t *testing.T) {
	api := &fakeAPI{t: t, m8: testM8}
	c, stop := newTestClient(t, api)
	defer stop()

	filter := []Hit{{PDBID: "9zzz", Chain: "Z"}}

	_, err := c.Search(context.Background(), "job", "MKTAYIAKQR", filter, true, t.TempDir())
	assert.ErrorIs(t, err, ErrNoTemplateMatch)
}

func TestClient_SearchTemplateCap(t *testing.T) {
	api := &fakeAPI{t: t, m8: testM8}
	c, stop := newTestClient(t, api)
	defer stop()

	c.MaxTemplates = 2

	bundle, err := c.Search(context.Background(), "job", "MKTAYIAKQR", nil, true, t.TempDir())
	require.NoError(t, err)

	assert.Len(t, bundle.Hits, 2)
}

func TestClient_SearchJobFailure(t *testing.T) {
	api := &fakeAPI{t: t, failJob: true}
	c, stop := newTestClient(t, api)
	defer stop()

	_, err := c.Search(context.Background(), "job", "MKTAYIAKQR", nil, false, t.TempDir())
	assert.ErrorIs(t, err, ErrJobFailed)
}

func TestClient_SearchRateLimitResubmit(t *testing.T) {
	api := &fakeAPI{t: t, rateLimitFirst: true}
	c, stop := newTestClient(t, api)
	defer stop()

	_, err := c.Search(context.Background(), "job", "MKTAYIAKQR", nil, false, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, api.submits)
}

func TestParseHit(t *testing.T) {
	h, err := ParseHit("1ABC_A")
	require.NoError(t, err)
	assert.Equal(t, Hit{PDBID: "1abc", Chain: "A"}, h)
	assert.Equal(t, "1abc_A", h.String())

	_, err = ParseHit("1abc")
	assert.Error(t, err)

	_, err = ParseHit("_A")
	assert.Error(t, err)
}
