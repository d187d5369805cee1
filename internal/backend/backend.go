package backend

import (
	"context"
	"time"
)

// Variant is a string identifier for a pretrained network variant.
type Variant string

// The two variants known to accept template conditioning. Every sweep
// invocation draws from this pair.
const (
	VariantModel1PTM Variant = "model_1_ptm"
	VariantModel2PTM Variant = "model_2_ptm"
)

// TemplateCapable returns the variants that accept template conditioning.
func TemplateCapable() []Variant {
	return []Variant{VariantModel1PTM, VariantModel2PTM}
}

// Backend defines the core interface for structure-prediction backends.
type Backend interface {
	// Variant returns the network variant this backend runs.
	Variant() Variant

	// Predict executes one forward pass and writes one coordinate file.
	Predict(ctx context.Context, req *Request) (*Result, error)

	// Close cleans up resources.
	Close() error
}

// Request encapsulates all parameters for a single prediction call.
type Request struct {
	// Sequence is the query amino-acid sequence.
	Sequence string

	// Alignment is the multiple-sequence-alignment text (a3m).
	Alignment string

	// TemplateDir holds retrieved template structures. Empty disables
	// template conditioning.
	TemplateDir string

	// WeightsDir is the directory holding the pretrained parameters.
	WeightsDir string

	// OutputPath is where the resulting PDB file is written. An existing
	// file at this path is overwritten.
	OutputPath string

	// Parameters contains the sampling parameters (max_msa_clusters,
	// max_extra_msa, num_recycles, seed).
	Parameters map[string]any
}

// Result contains the outcome of one prediction call.
type Result struct {
	// OutputPath is the coordinate file that was written.
	OutputPath string

	// OutputBytes is the size of the written file.
	OutputBytes int64

	// Metadata contains backend-specific information.
	Metadata *ResultMetadata
}

// ResultMetadata contains metadata about a prediction.
type ResultMetadata struct {
	Variant         Variant        `json:"variant"`
	Timestamp       time.Time      `json:"timestamp"`
	BackendSpecific map[string]any `json:"backend_specific"`
}
