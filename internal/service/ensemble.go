package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pablo-arantes/af2-conformations/internal/archive"
	"github.com/pablo-arantes/af2-conformations/internal/backend"
	"github.com/pablo-arantes/af2-conformations/internal/config"
	"github.com/pablo-arantes/af2-conformations/internal/msa"
	"github.com/pablo-arantes/af2-conformations/internal/seq"
	"github.com/pablo-arantes/af2-conformations/internal/sweep"
	"github.com/pablo-arantes/af2-conformations/internal/weights"
	"github.com/pablo-arantes/af2-conformations/internal/xfs"
)

// Ensemble orchestrates one conformational-ensemble job: fetch the
// alignment bundle once, ensure the pretrained weights are installed, run
// the parameter sweep and bundle the outputs into an archive. Everything is
// sequential and blocking; the alignment bundle is immutable for the whole
// sweep.
type Ensemble struct {
	search   *msa.Client
	weights  *weights.Manager
	backends *backend.Registry
}

// NewEnsemble creates a new Ensemble service.
func NewEnsemble(search *msa.Client, weights *weights.Manager, backends *backend.Registry) *Ensemble {
	return &Ensemble{
		search:   search,
		weights:  weights,
		backends: backends,
	}
}

// Run executes the job described by cfg and returns the sweep summary plus
// the path of the result archive.
func (s *Ensemble) Run(ctx context.Context, cfg *config.Config) (*sweep.Run, string, error) {
	sequence, err := resolveSequence(cfg)
	if err != nil {
		return nil, "", err
	}

	filter, err := parseSpecifiers(cfg.Search.Templates)
	if err != nil {
		return nil, "", err
	}

	outputDir := cfg.Output.Dir
	if outputDir == "" {
		outputDir = config.DefaultOutputPath()
	}

	workdir := filepath.Join(xfs.ExpandTilde(outputDir), cfg.Job.Name)
	if err := xfs.EnsureDir(workdir); err != nil {
		return nil, "", err
	}

	slog.Info("Fetching alignment bundle", "job", cfg.Job.Name, "residues", len(sequence), "workdir", workdir)

	bundle, err := s.search.Search(ctx, cfg.Job.Name, sequence, filter, cfg.Search.UseTemplates, workdir)
	if err != nil {
		return nil, "", err
	}

	set, err := s.weights.Ensure(ctx, cfg)
	if err != nil {
		return nil, "", err
	}

	numRecycles := cfg.Sweep.NumRecycles
	if numRecycles == 0 {
		numRecycles = 1
	}

	sw, err := sweep.New(sweep.Params{
		JobName:     cfg.Job.Name,
		Depths:      cfg.Sweep.Depths,
		Repetitions: cfg.Sweep.Repetitions,
		NumRecycles: numRecycles,
		Seed:        cfg.Sweep.Seed,
		OutputDir:   workdir,
	})
	if err != nil {
		return nil, "", err
	}

	run, err := sw.Run(ctx, &registryPredictor{
		backends: s.backends,
		sequence: sequence,
		bundle:   bundle,
		weights:  set,
	})
	if err != nil {
		return nil, "", err
	}

	archivePath := filepath.Join(workdir, cfg.Job.Name+".result.zip")
	if err := archive.Write(archivePath, run.Outputs); err != nil {
		return nil, "", err
	}

	slog.Info("Job complete", "run_id", run.ID, "structures", len(run.Outputs), "archive", archivePath)

	return run, archivePath, nil
}

// registryPredictor adapts the backend registry to the sweep's Predictor
// interface, binding the immutable per-job inputs.
type registryPredictor struct {
	backends *backend.Registry
	sequence string
	bundle   *msa.Bundle
	weights  *weights.Set
}

func (p *registryPredictor) Predict(ctx context.Context, variant backend.Variant, outputPath string, maxClusters, maxExtra, numRecycles int) error {
	b, ok := p.backends.Get(variant)
	if !ok {
		return fmt.Errorf("service: variant %s: %w", variant, backend.ErrNotFound)
	}

	res, err := b.Predict(ctx, &backend.Request{
		Sequence:    p.sequence,
		Alignment:   p.bundle.Alignment,
		TemplateDir: p.bundle.TemplateDir,
		WeightsDir:  p.weights.Dir,
		OutputPath:  outputPath,
		Parameters: map[string]any{
			"max_msa_clusters": maxClusters,
			"max_extra_msa":    maxExtra,
			"num_recycles":     numRecycles,
		},
	})
	if err != nil {
		return err
	}

	slog.Debug("Structure written", "output", res.OutputPath, "bytes", res.OutputBytes)
	return nil
}

// resolveSequence returns the cleaned, validated query sequence from either
// the inline config field or the referenced FASTA file.
func resolveSequence(cfg *config.Config) (string, error) {
	var (
		sequence string
		err      error
	)

	switch {
	case cfg.Job.Sequence != "":
		sequence = seq.Clean(cfg.Job.Sequence)
	case cfg.Job.FastaPath != "":
		sequence, err = seq.ReadFasta(xfs.ExpandTilde(cfg.Job.FastaPath))
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("service: job %s configures neither a sequence nor a FASTA file", cfg.Job.Name)
	}

	if err := seq.Validate(sequence); err != nil {
		return "", err
	}

	return sequence, nil
}

// parseSpecifiers parses the configured template specifiers.
func parseSpecifiers(specs []string) ([]msa.Hit, error) {
	hits := make([]msa.Hit, 0, len(specs))
	for _, s := range specs {
		h, err := msa.ParseHit(s)
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	return hits, nil
}
