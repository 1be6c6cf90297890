package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// SearchQualityConfig holds the retrieval tuning surface. Weights are
// normalized to sum to 1.0 once, at load time, never at query time.
type SearchQualityConfig struct {
	DefaultTopK int `yaml:"default_top_k"`

	EnableAdaptiveThreshold bool    `yaml:"enable_adaptive_threshold"`
	MinThreshold            float64 `yaml:"min_threshold"`
	MaxThreshold            float64 `yaml:"max_threshold"`
	TargetResultCount       int     `yaml:"target_result_count"`

	EnableQueryExpansion bool `yaml:"enable_query_expansion"`
	ExpandAbbreviations  bool `yaml:"expand_abbreviations"`
	ExpandSynonyms       bool `yaml:"expand_synonyms"`
	MaxExpansionTerms    int  `yaml:"max_expansion_terms"`

	EnableBM25   bool    `yaml:"enable_bm25"`
	VectorWeight float64 `yaml:"vector_weight"`
	BM25Weight   float64 `yaml:"bm25_weight"`
	GraphWeight  float64 `yaml:"graph_weight"`

	EnableMMR bool    `yaml:"enable_mmr"`
	MMRLambda float64 `yaml:"mmr_lambda"`

	HalfLifeDays float64 `yaml:"half_life_days"`
	MaxDecay     float64 `yaml:"max_decay"`

	// GraphEntitySubstringBoost controls whether a graph hit also boosts
	// chunks whose text merely contains the entity name. Carried over from
	// the original tuning; switchable because it is noisy on short entity
	// names.
	GraphEntitySubstringBoost bool `yaml:"graph_entity_substring_boost"`
}

func DefaultQuality() SearchQualityConfig {
	return SearchQualityConfig{
		DefaultTopK: 10,

		EnableAdaptiveThreshold: true,
		MinThreshold:            0.25,
		MaxThreshold:            0.85,
		TargetResultCount:       10,

		EnableQueryExpansion: true,
		ExpandAbbreviations:  true,
		ExpandSynonyms:       true,
		MaxExpansionTerms:    5,

		EnableBM25:   true,
		VectorWeight: 0.6,
		BM25Weight:   0.25,
		GraphWeight:  0.15,

		EnableMMR: true,
		MMRLambda: 0.7,

		HalfLifeDays: 365,
		MaxDecay:     0.5,

		GraphEntitySubstringBoost: true,
	}
}

// LoadQuality reads the YAML tuning file when path is non-empty, overlaying
// it on defaults, then validates eagerly. Invalid tuning fails startup.
func LoadQuality(path string) (SearchQualityConfig, error) {
	cfg := DefaultQuality()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read quality config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, domain.WrapError(domain.ErrInvalidConfig, "parse quality config", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	cfg.normalizeWeights()
	return cfg, nil
}

func (c *SearchQualityConfig) validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.VectorWeight < 0 || c.BM25Weight < 0 || c.GraphWeight < 0 {
		return fail("fusion weights must be non-negative")
	}
	if c.VectorWeight+c.BM25Weight+c.GraphWeight <= 0 {
		return fail("fusion weights must not all be zero")
	}
	if c.MinThreshold < 0 || c.MinThreshold > 1 {
		return fail("min_threshold %v outside [0,1]", c.MinThreshold)
	}
	if c.MaxThreshold < c.MinThreshold || c.MaxThreshold > 1 {
		return fail("max_threshold %v outside [min_threshold,1]", c.MaxThreshold)
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		return fail("mmr_lambda %v outside [0,1]", c.MMRLambda)
	}
	if c.TargetResultCount <= 0 {
		return fail("target_result_count must be positive")
	}
	if c.MaxExpansionTerms < 0 {
		return fail("max_expansion_terms must not be negative")
	}
	if c.HalfLifeDays <= 0 {
		return fail("half_life_days must be positive")
	}
	if c.MaxDecay < 0 || c.MaxDecay > 1 {
		return fail("max_decay %v outside [0,1]", c.MaxDecay)
	}
	if c.DefaultTopK <= 0 {
		return fail("default_top_k must be positive")
	}
	return nil
}

func (c *SearchQualityConfig) normalizeWeights() {
	sum := c.VectorWeight + c.BM25Weight + c.GraphWeight
	if math.Abs(sum-1.0) < 1e-9 {
		return
	}
	c.VectorWeight /= sum
	c.BM25Weight /= sum
	c.GraphWeight /= sum
}
