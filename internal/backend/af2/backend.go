package af2

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pablo-arantes/af2-conformations/internal/backend"
	"github.com/pablo-arantes/af2-conformations/internal/mapsafe"
)

// defaultTimeout bounds one forward pass including model compilation.
const defaultTimeout = 30 * time.Minute

// Backend implements backend.Backend by invoking an external AlphaFold2
// runner binary. One invocation performs one forward pass and writes one
// PDB file at the requested path.
type Backend struct {
	variant  backend.Variant
	executor *backend.Executor
	tempDir  string
}

// NewBackend creates a backend for the given network variant.
func NewBackend(variant backend.Variant, binPath string) (*Backend, error) {
	executor, err := backend.NewExecutor(binPath, defaultTimeout)
	if err != nil {
		return nil, err
	}

	return &Backend{
		variant:  variant,
		executor: executor,
		tempDir:  os.TempDir(),
	}, nil
}

// NewBackendWithRunner creates a backend with a custom command runner.
func NewBackendWithRunner(variant backend.Variant, binPath string, runner backend.CommandRunner) *Backend {
	return &Backend{
		variant:  variant,
		executor: backend.NewExecutorWithRunner(binPath, defaultTimeout, runner),
		tempDir:  os.TempDir(),
	}
}

// Variant returns the network variant this backend runs.
func (b *Backend) Variant() backend.Variant {
	return b.variant
}

// Predict executes one forward pass.
// The alignment text is handed to the runner through a temporary a3m file;
// the runner's CLI does not read alignments from stdin.
func (b *Backend) Predict(ctx context.Context, req *backend.Request) (*backend.Result, error) {
	msaFile := filepath.Join(b.tempDir, fmt.Sprintf("af2conf_%d.a3m", time.Now().UnixNano()))
	if err := os.WriteFile(msaFile, []byte(req.Alignment), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write alignment file: %w", err)
	}
	defer os.Remove(msaFile)

	args := b.buildArgs(req, msaFile)

	stdout, stderr, err := b.executor.Execute(ctx, args, nil)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w\nstderr: %s", err, stderr)
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("runner produced no output at %s: %w", req.OutputPath, err)
	}

	return &backend.Result{
		OutputPath:  req.OutputPath,
		OutputBytes: info.Size(),
		Metadata: &backend.ResultMetadata{
			Variant:   b.variant,
			Timestamp: time.Now(),
			BackendSpecific: map[string]any{
				"stdout": string(stdout),
				"stderr": string(stderr),
				"args":   strings.Join(args, " "),
			},
		},
	}, nil
}

// buildArgs builds the runner command-line arguments.
func (b *Backend) buildArgs(req *backend.Request, msaFile string) []string {
	args := []string{
		"--model", string(b.variant),
		"--sequence", req.Sequence,
		"--msa", msaFile,
		"--weights", req.WeightsDir,
		"--output", req.OutputPath,
	}

	if req.TemplateDir != "" {
		args = append(args, "--templates", req.TemplateDir)
	}

	p := req.Parameters
	if p == nil {
		p = make(map[string]any)
	}

	if v := mapsafe.Get(p, "max_msa_clusters", 0); v > 0 {
		args = append(args, "--max-msa-clusters", fmt.Sprintf("%d", v))
	}

	if v := mapsafe.Get(p, "max_extra_msa", 0); v > 0 {
		args = append(args, "--max-extra-msa", fmt.Sprintf("%d", v))
	}

	args = append(args, "--num-recycles", fmt.Sprintf("%d", mapsafe.Get(p, "num_recycles", 1)))

	if v := mapsafe.Get(p, "seed", int64(0)); v > 0 {
		args = append(args, "--seed", fmt.Sprintf("%d", v))
	}

	return args
}

// Close cleans up resources. The runner holds no persistent state.
func (b *Backend) Close() error {
	return nil
}
