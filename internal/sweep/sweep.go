package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pablo-arantes/af2-conformations/internal/backend"
)

// Predictor runs a single model invocation and writes one coordinate file.
type Predictor interface {
	Predict(ctx context.Context, variant backend.Variant, outputPath string, maxClusters, maxExtra, numRecycles int) error
}

// Params configures one ensemble sweep.
type Params struct {
	// JobName prefixes every output file.
	JobName string

	// Depths is the list of alignment-subsample depths to visit.
	Depths []int

	// Repetitions is the number of stochastic runs per depth.
	Repetitions int

	// NumRecycles is fixed across the whole sweep.
	NumRecycles int

	// Seed controls the variant selection. Zero means time-seeded.
	Seed int64

	// OutputDir receives the coordinate files.
	OutputDir string
}

// Run summarizes one completed sweep.
type Run struct {
	// ID uniquely identifies this run.
	ID string

	// Outputs lists every coordinate file written, in invocation order.
	Outputs []string
}

// Sweep drives the depth x repetition exploration: for every depth the
// predictor is invoked Repetitions times with the alignment-cluster cap set
// to half the depth, the extra-alignment cap set to the depth, and the
// network variant drawn uniformly at random from the template-capable pair.
// Iterations are strictly sequential and independent; the first failure
// aborts the sweep.
type Sweep struct {
	params Params
	rng    *rand.Rand
}

// New validates the parameters and creates a sweep.
func New(p Params) (*Sweep, error) {
	if p.JobName == "" {
		return nil, fmt.Errorf("sweep: job name is empty")
	}
	if len(p.Depths) == 0 {
		return nil, fmt.Errorf("sweep: no depths configured")
	}
	for _, d := range p.Depths {
		if d < 2 {
			return nil, fmt.Errorf("sweep: depth %d is below the minimum of 2", d)
		}
	}
	if p.Repetitions < 1 {
		return nil, fmt.Errorf("sweep: repetitions must be at least 1, got %d", p.Repetitions)
	}
	if p.NumRecycles < 1 {
		return nil, fmt.Errorf("sweep: num_recycles must be at least 1, got %d", p.NumRecycles)
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Sweep{
		params: p,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Run executes the sweep. Exactly len(Depths) x Repetitions invocations are
// performed; output files are named <job>_<depth>_<rep>.pdb and overwrite
// any previous file of the same name.
func (s *Sweep) Run(ctx context.Context, pred Predictor) (*Run, error) {
	run := &Run{
		ID:      uuid.NewString(),
		Outputs: make([]string, 0, len(s.params.Depths)*s.params.Repetitions),
	}

	variants := backend.TemplateCapable()

	slog.Info("Starting sweep",
		"run_id", run.ID,
		"job", s.params.JobName,
		"depths", s.params.Depths,
		"repetitions", s.params.Repetitions)

	for _, depth := range s.params.Depths {
		for rep := range s.params.Repetitions {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("sweep: canceled at depth %d rep %d: %w", depth, rep, err)
			}

			variant := variants[s.rng.Intn(len(variants))]
			out := filepath.Join(s.params.OutputDir, fmt.Sprintf("%s_%d_%d.pdb", s.params.JobName, depth, rep))

			err := pred.Predict(ctx, variant, out, depth/2, depth, s.params.NumRecycles)
			if err != nil {
				return nil, fmt.Errorf("sweep: depth %d rep %d: %w", depth, rep, err)
			}

			run.Outputs = append(run.Outputs, out)

			slog.Info("Prediction complete",
				"run_id", run.ID,
				"variant", variant,
				"depth", depth,
				"rep", rep,
				"output", out)
		}
	}

	return run, nil
}
