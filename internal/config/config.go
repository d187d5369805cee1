package config

// Config holds the main configuration for one ensemble job.
type Config struct {
	Version string        `json:"version"           yaml:"version"`
	Job     JobConfig     `json:"job"               yaml:"job"`
	Search  SearchConfig  `json:"search,omitempty"  yaml:"search,omitempty"`
	Sweep   SweepConfig   `json:"sweep"             yaml:"sweep"`
	Runner  RunnerConfig  `json:"runner"            yaml:"runner"`
	Weights WeightsConfig `json:"weights,omitempty" yaml:"weights,omitempty"`
	Output  OutputConfig  `json:"output,omitempty"  yaml:"output,omitempty"`
}

// JobConfig identifies the job and its query sequence. Exactly one of
// Sequence and FastaPath should be set.
type JobConfig struct {
	Name      string `json:"name"                 yaml:"name"`
	Sequence  string `json:"sequence,omitempty"   yaml:"sequence,omitempty"`
	FastaPath string `json:"fasta_path,omitempty" yaml:"fasta_path,omitempty"`
}

// SearchConfig holds configuration for the remote sequence search.
type SearchConfig struct {
	Host         string   `json:"host,omitempty"      yaml:"host,omitempty"`
	UseTemplates bool     `json:"use_templates"       yaml:"use_templates"`
	Templates    []string `json:"templates,omitempty" yaml:"templates,omitempty"`
}

// SweepConfig holds the sampling-parameter sweep bounds.
type SweepConfig struct {
	Depths      []int `json:"depths"         yaml:"depths"`
	Repetitions int   `json:"repetitions"    yaml:"repetitions"`
	NumRecycles int   `json:"num_recycles"   yaml:"num_recycles"`
	Seed        int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// RunnerConfig points at the external prediction runner binary.
type RunnerConfig struct {
	BinPath string `json:"bin_path" yaml:"bin_path"`
}

// WeightsConfig holds configuration for the pretrained parameter download.
type WeightsConfig struct {
	Dir        string `json:"dir,omitempty"         yaml:"dir,omitempty"`
	ArchiveURL string `json:"archive_url,omitempty" yaml:"archive_url,omitempty"`
}

// OutputConfig holds configuration for result placement.
type OutputConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}