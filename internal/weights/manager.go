package weights

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pablo-arantes/af2-conformations/internal/config"
	"github.com/pablo-arantes/af2-conformations/internal/envvar"
	"github.com/pablo-arantes/af2-conformations/internal/xfs"
)

const (
	// DefaultArchiveURL is the published pretrained parameter archive.
	DefaultArchiveURL = "https://storage.googleapis.com/alphafold/alphafold_params_2021-07-14.tar"

	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	markerFilename    = ".af2conf-downloaded"
)

// Manager ensures the pretrained parameters are installed before any
// prediction runs. Downloads are deduplicated through a marker file so
// repeat runs skip the fetch.
type Manager struct {
	registry *Registry
	client   *http.Client
	mu       sync.Mutex
}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{
		registry: NewRegistry(),
		client:   &http.Client{Timeout: 30 * time.Minute},
	}
}

// Registry returns the weights registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Ensure makes the configured parameter set available locally, downloading
// and extracting the archive when the marker file is missing or stale.
func (m *Manager) Ensure(ctx context.Context, cfg *config.Config) (*Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	archiveURL := cfg.Weights.ArchiveURL
	if archiveURL == "" {
		archiveURL = DefaultArchiveURL
	}

	dir := resolveWeightsPath(cfg)
	if err := xfs.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("weights: failed to prepare weights directory %s: %w", dir, err)
	}

	name := strings.TrimSuffix(filepath.Base(archiveURL), ".tar")
	set := &Set{Name: name, Dir: dir}

	markerPath := filepath.Join(dir, markerFilename)
	markerContent := fmt.Sprintf("url: %s\n", archiveURL)

	if content, err := os.ReadFile(markerPath); err == nil && string(content) == markerContent {
		slog.Info("Weights already installed (marker match), skipping download", "name", name, "dir", dir)
		m.registry.Put(set)
		return set, nil
	}

	var lastErr error
	for attempt := range defaultMaxRetries {
		if attempt > 0 {
			slog.Info("Retrying weights download", "url", archiveURL, "attempt", attempt+1, "last_error", lastErr)
			time.Sleep(defaultRetryDelay)
		} else {
			slog.Info("Downloading weights", "url", archiveURL, "dir", dir)
		}

		err := m.download(ctx, archiveURL, dir)
		if err == nil {
			if err := os.WriteFile(markerPath, []byte(markerContent), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}

			slog.Info("Weights downloaded successfully", "name", name, "dir", dir, "attempt", attempt+1)
			m.registry.Put(set)
			return set, nil
		}

		lastErr = err
		slog.Error("Failed to download weights", "url", archiveURL, "attempt", attempt+1, "error", err)

		if ctx.Err() != nil {
			return nil, fmt.Errorf("weights: download canceled: %w", err)
		}
	}

	return nil, fmt.Errorf("weights: failed to download %s: %w", archiveURL, lastErr)
}

// download streams the parameter archive and unpacks it into dir.
func (m *Manager) download(ctx context.Context, archiveURL, dir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}

	return xfs.ExtractTar(resp.Body, dir)
}

// resolveWeightsPath returns the weights directory.
// Precedence:
// 1. AF2CONF_WEIGHTS_PATH environment variable.
// 2. Dir field in the config.
// 3. Default weights path.
func resolveWeightsPath(cfg *config.Config) string {
	if p := os.Getenv(envvar.Af2confWeightsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg.Weights.Dir != "" {
		return xfs.ExpandTilde(cfg.Weights.Dir)
	}
	return xfs.ExpandTilde(config.DefaultWeightsPath())
}
