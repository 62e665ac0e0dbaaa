// Package config holds the tunable parameters of a reconciliation run,
// loadable from YAML with compiled-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/relink/pkg/relink/classify"
	"github.com/cognicore/relink/pkg/relink/internalerr"
	"github.com/cognicore/relink/pkg/relink/manufacturer"
	"github.com/cognicore/relink/pkg/relink/match"
	"github.com/cognicore/relink/pkg/relink/prune"
)

// Config is the full run configuration. Zero-valued fields fall back to
// their defaults when loaded through Load or normalized with Normalize.
type Config struct {
	// Currencies maps currency codes to USD multipliers.
	Currencies map[string]float64 `yaml:"currencies"`
	// Aliases folds manufacturer brand variants before prefix matching.
	Aliases map[string]string `yaml:"manufacturer_aliases"`
	// ScoreThreshold is the score a match must exceed.
	ScoreThreshold float64 `yaml:"score_threshold"`
	// SDThreshold gates pruning on relative price spread.
	SDThreshold float64 `yaml:"sd_threshold"`
	// SanityFactor is the prune cutoff in standard deviations below mean.
	SanityFactor float64 `yaml:"sanity_factor"`
	// Workers bounds the scoring/counting pool; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration. The maps are copies, so
// callers can edit a Config without touching the package defaults.
func Default() Config {
	currencies := make(map[string]float64, len(classify.DefaultCurrencyRatios))
	for code, ratio := range classify.DefaultCurrencyRatios {
		currencies[code] = ratio
	}
	aliases := make(map[string]string, len(manufacturer.DefaultAliases))
	for raw, canon := range manufacturer.DefaultAliases {
		aliases[raw] = canon
	}
	return Config{
		Currencies:     currencies,
		Aliases:        aliases,
		ScoreThreshold: match.DefaultScoreThreshold,
		SDThreshold:    prune.DefaultSDThreshold,
		SanityFactor:   prune.DefaultSanityFactor,
	}
}

// Load reads a YAML config file. Fields absent from the file keep their
// defaults; a currency or alias table in the file replaces the default
// table wholesale. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize fills zero-valued fields with their defaults.
func (c *Config) Normalize() {
	def := Default()
	if c.Currencies == nil {
		c.Currencies = def.Currencies
	}
	if c.Aliases == nil {
		c.Aliases = def.Aliases
	}
	if c.ScoreThreshold == 0 {
		c.ScoreThreshold = def.ScoreThreshold
	}
	if c.SDThreshold == 0 {
		c.SDThreshold = def.SDThreshold
	}
	if c.SanityFactor == 0 {
		c.SanityFactor = def.SanityFactor
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if len(c.Currencies) == 0 {
		return fmt.Errorf("no currencies configured: %w", internalerr.ErrInvalidConfig)
	}
	for code, ratio := range c.Currencies {
		if ratio <= 0 {
			return fmt.Errorf("currency %s: ratio must be positive: %w", code, internalerr.ErrInvalidConfig)
		}
	}
	if c.ScoreThreshold <= 0 {
		return fmt.Errorf("score_threshold must be positive: %w", internalerr.ErrInvalidConfig)
	}
	if c.SDThreshold < 0 {
		return fmt.Errorf("sd_threshold must not be negative: %w", internalerr.ErrInvalidConfig)
	}
	if c.SanityFactor <= 0 {
		return fmt.Errorf("sanity_factor must be positive: %w", internalerr.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
