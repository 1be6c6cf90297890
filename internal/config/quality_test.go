package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

func writeQualityFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search_quality.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write quality file: %v", err)
	}
	return path
}

func TestLoadQualityDefaults(t *testing.T) {
	cfg, err := LoadQuality("")
	if err != nil {
		t.Fatalf("LoadQuality() error = %v", err)
	}
	if !cfg.EnableAdaptiveThreshold || !cfg.EnableBM25 || !cfg.EnableMMR {
		t.Fatalf("defaults must enable the full pipeline: %+v", cfg)
	}
	sum := cfg.VectorWeight + cfg.BM25Weight + cfg.GraphWeight
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("default weights sum = %v, want 1.0", sum)
	}
}

func TestLoadQualityNormalizesWeights(t *testing.T) {
	path := writeQualityFile(t, `
vector_weight: 3.0
bm25_weight: 1.0
graph_weight: 1.0
`)

	cfg, err := LoadQuality(path)
	if err != nil {
		t.Fatalf("LoadQuality() error = %v", err)
	}
	if math.Abs(cfg.VectorWeight-0.6) > 1e-9 {
		t.Fatalf("vector weight = %v, want 0.6", cfg.VectorWeight)
	}
	if math.Abs(cfg.BM25Weight-0.2) > 1e-9 {
		t.Fatalf("bm25 weight = %v, want 0.2", cfg.BM25Weight)
	}
	if math.Abs(cfg.GraphWeight-0.2) > 1e-9 {
		t.Fatalf("graph weight = %v, want 0.2", cfg.GraphWeight)
	}
}

func TestLoadQualityOverlaysDefaults(t *testing.T) {
	path := writeQualityFile(t, `
mmr_lambda: 0.4
default_top_k: 25
`)

	cfg, err := LoadQuality(path)
	if err != nil {
		t.Fatalf("LoadQuality() error = %v", err)
	}
	if cfg.MMRLambda != 0.4 {
		t.Fatalf("mmr_lambda = %v, want 0.4", cfg.MMRLambda)
	}
	if cfg.DefaultTopK != 25 {
		t.Fatalf("default_top_k = %d, want 25", cfg.DefaultTopK)
	}
	// Untouched fields keep their defaults.
	if cfg.MinThreshold != 0.25 {
		t.Fatalf("min_threshold = %v, want default 0.25", cfg.MinThreshold)
	}
}

func TestLoadQualityValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"negative weight", "vector_weight: -0.5"},
		{"all weights zero", "vector_weight: 0\nbm25_weight: 0\ngraph_weight: 0"},
		{"lambda out of range", "mmr_lambda: 1.5"},
		{"max below min", "min_threshold: 0.8\nmax_threshold: 0.2"},
		{"zero half life", "half_life_days: 0"},
		{"zero target count", "target_result_count: 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeQualityFile(t, tc.yaml)
			_, err := LoadQuality(path)
			if !domain.IsKind(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected invalid config error, got %v", err)
			}
		})
	}
}

func TestLoadQualityMalformedYAML(t *testing.T) {
	path := writeQualityFile(t, "vector_weight: [not a number")
	_, err := LoadQuality(path)
	if !domain.IsKind(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestLoadQualityMissingFile(t *testing.T) {
	_, err := LoadQuality(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
