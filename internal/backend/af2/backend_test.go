package af2

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablo-arantes/af2-conformations/internal/backend"
)

// fakeRunner pretends to be the external runner: it records the arguments
// and writes a PDB file at the requested output path.
type fakeRunner struct {
	args      [][]string
	payload   string
	skipWrite bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	f.args = append(f.args, args)

	if out := argValue(args, "--output"); out != "" && !f.skipWrite {
		if err := os.WriteFile(out, []byte(f.payload), 0o644); err != nil {
			return nil, nil, err
		}
	}

	return []byte("done"), nil, nil
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func newRequest(t *testing.T) *backend.Request {
	t.Helper()

	return &backend.Request{
		Sequence:   "MKTAYIAKQR",
		Alignment:  ">query\nMKTAYIAKQR\n",
		WeightsDir: t.TempDir(),
		OutputPath: filepath.Join(t.TempDir(), "job_64_0.pdb"),
		Parameters: map[string]any{
			"max_msa_clusters": 32,
			"max_extra_msa":    64,
			"num_recycles":     1,
		},
	}
}

func TestBackend_Predict(t *testing.T) {
	runner := &fakeRunner{payload: "MODEL 1\nENDMDL\n"}
	b := NewBackendWithRunner(backend.VariantModel1PTM, "/opt/af2/runner", runner)

	req := newRequest(t)

	res, err := b.Predict(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.OutputPath, res.OutputPath)
	assert.Equal(t, int64(len(runner.payload)), res.OutputBytes)
	assert.Equal(t, backend.VariantModel1PTM, res.Metadata.Variant)

	require.Len(t, runner.args, 1)
	args := runner.args[0]
	assert.Equal(t, "model_1_ptm", argValue(args, "--model"))
	assert.Equal(t, "32", argValue(args, "--max-msa-clusters"))
	assert.Equal(t, "64", argValue(args, "--max-extra-msa"))
	assert.Equal(t, "1", argValue(args, "--num-recycles"))
	assert.NotContains(t, args, "--templates")
	assert.NotContains(t, args, "--seed")
}

func TestBackend_PredictWithTemplates(t *testing.T) {
	runner := &fakeRunner{payload: "MODEL 1\nENDMDL\n"}
	b := NewBackendWithRunner(backend.VariantModel2PTM, "/opt/af2/runner", runner)

	req := newRequest(t)
	req.TemplateDir = t.TempDir()

	_, err := b.Predict(context.Background(), req)
	require.NoError(t, err)

	args := runner.args[0]
	assert.Equal(t, req.TemplateDir, argValue(args, "--templates"))
}

func TestBackend_PredictOverwritesOutput(t *testing.T) {
	runner := &fakeRunner{payload: "MODEL 1\nENDMDL\n"}
	b := NewBackendWithRunner(backend.VariantModel1PTM, "/opt/af2/runner", runner)

	req := newRequest(t)
	require.NoError(t, os.WriteFile(req.OutputPath, []byte("stale previous structure"), 0o644))

	res, err := b.Predict(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(req.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, runner.payload, string(data))
	assert.Equal(t, int64(len(runner.payload)), res.OutputBytes)
}

func TestBackend_PredictNoOutput(t *testing.T) {
	// A runner that exits cleanly without writing the file is an error.
	runner := &fakeRunner{skipWrite: true}
	b := NewBackendWithRunner(backend.VariantModel1PTM, "/opt/af2/runner", runner)

	req := newRequest(t)
	req.OutputPath = filepath.Join(t.TempDir(), "never-written.pdb")

	_, err := b.Predict(context.Background(), req)
	assert.Error(t, err)
}
