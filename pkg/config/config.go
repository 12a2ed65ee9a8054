// Package config loads the exporter settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kataras/figma-pdf-exporter/pkg/budget"
)

// Config holds the exporter settings. Command line flags override it.
type Config struct {
	QualityScale   float64 `yaml:"quality_scale"`
	Quality        string  `yaml:"quality"`
	ExportType     string  `yaml:"export_type"` // vector | raster
	FallbackScale  float64 `yaml:"fallback_scale"`
	MemoryBudgetMB int     `yaml:"memory_budget_mb"`
	ChunkCeilingMB int     `yaml:"chunk_ceiling_mb"`
	DeepValidation bool    `yaml:"deep_validation"`
	PNGFallback    bool    `yaml:"png_fallback"` // re-request rejected frames as PNG
	JournalPath    string  `yaml:"journal_path"`
	Output         string  `yaml:"output"`
	EventsPath     string  `yaml:"events_path"` // JSON lines log of every notification
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		QualityScale:   budget.DefaultFallbackScale,
		Quality:        "high",
		ExportType:     "vector",
		FallbackScale:  budget.DefaultFallbackScale,
		MemoryBudgetMB: int(budget.SafeMemoryBudget / budget.MB),
		ChunkCeilingMB: int(budget.ChunkCeiling / budget.MB),
		PNGFallback:    true,
		Output:         "frames.pdf",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.QualityScale <= 0 || c.QualityScale > 4 {
		return fmt.Errorf("quality_scale must be in (0, 4], got %g", c.QualityScale)
	}
	if c.FallbackScale <= 0 || c.FallbackScale > 4 {
		return fmt.Errorf("fallback_scale must be in (0, 4], got %g", c.FallbackScale)
	}
	switch c.ExportType {
	case "vector", "raster":
	default:
		return fmt.Errorf("unsupported export_type %q (use vector or raster)", c.ExportType)
	}
	if c.MemoryBudgetMB <= 0 {
		return fmt.Errorf("memory_budget_mb must be > 0")
	}
	if c.ChunkCeilingMB <= 0 {
		return fmt.Errorf("chunk_ceiling_mb must be > 0")
	}
	return nil
}

// MemoryBudget returns the raster memory budget in bytes.
func (c *Config) MemoryBudget() int64 { return int64(c.MemoryBudgetMB) * budget.MB }

// ChunkCeiling returns the hand-off chunk ceiling in bytes.
func (c *Config) ChunkCeiling() int64 { return int64(c.ChunkCeilingMB) * budget.MB }
