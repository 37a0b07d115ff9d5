// Package config holds the tunable analysis parameters and the static
// camera registry. Config files are plain JSON with every field optional;
// the Get* accessors supply defaults so a partial file, or no file at all,
// is always usable.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig is the tuning surface of a session. The schema matches the
// JSON accepted by the session-registration endpoint so the same file works
// for startup configuration and per-session overrides.
type AnalysisConfig struct {
	// Wait filtering
	MinWaitSecFilter *float64 `json:"min_wait_sec_filter,omitempty"`
	MinConfidence    *float64 `json:"min_confidence,omitempty"`

	// Track ledger params
	GraceWindowFrames *int64 `json:"grace_window_frames,omitempty"`

	// Snapshot / sampling params
	SnapshotStride  *int64 `json:"snapshot_stride,omitempty"`
	SampleStride    *int64 `json:"sample_stride,omitempty"`
	MaxSampleFrames *int   `json:"max_sample_frames,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset, so
// every accessor falls through to its default.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. Fields
// omitted from the file keep their defaults, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseAnalysisConfig(data)
}

// ParseAnalysisConfig parses and validates an AnalysisConfig from raw JSON.
func ParseAnalysisConfig(data []byte) (*AnalysisConfig, error) {
	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that any set fields hold usable values.
func (c *AnalysisConfig) Validate() error {
	if c.MinWaitSecFilter != nil && *c.MinWaitSecFilter < 0 {
		return fmt.Errorf("min_wait_sec_filter must be non-negative, got %f", *c.MinWaitSecFilter)
	}
	if c.MinConfidence != nil {
		if *c.MinConfidence < 0 || *c.MinConfidence > 1 {
			return fmt.Errorf("min_confidence must be between 0 and 1, got %f", *c.MinConfidence)
		}
	}
	if c.GraceWindowFrames != nil && *c.GraceWindowFrames < 0 {
		return fmt.Errorf("grace_window_frames must be non-negative, got %d", *c.GraceWindowFrames)
	}
	if c.SnapshotStride != nil && *c.SnapshotStride < 1 {
		return fmt.Errorf("snapshot_stride must be at least 1, got %d", *c.SnapshotStride)
	}
	if c.SampleStride != nil && *c.SampleStride < 1 {
		return fmt.Errorf("sample_stride must be at least 1, got %d", *c.SampleStride)
	}
	if c.MaxSampleFrames != nil && *c.MaxSampleFrames < 0 {
		return fmt.Errorf("max_sample_frames must be non-negative, got %d", *c.MaxSampleFrames)
	}
	return nil
}

// GetMinWaitSecFilter returns the minimum dwell, in seconds, for an
// interval to count as a measured wait. Shorter visits are walk-throughs.
func (c *AnalysisConfig) GetMinWaitSecFilter() float64 {
	if c.MinWaitSecFilter == nil {
		return 1.0
	}
	return *c.MinWaitSecFilter
}

// GetMinConfidence returns the detector confidence below which detections
// are dropped. Zero disables the filter.
func (c *AnalysisConfig) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return 0.4
	}
	return *c.MinConfidence
}

// GetGraceWindowFrames returns how many fully-empty frames a present
// identity survives before its interval closes.
func (c *AnalysisConfig) GetGraceWindowFrames() int64 {
	if c.GraceWindowFrames == nil {
		return 5
	}
	return *c.GraceWindowFrames
}

// GetSnapshotStride returns the frame stride between queue-length
// snapshots.
func (c *AnalysisConfig) GetSnapshotStride() int64 {
	if c.SnapshotStride == nil {
		return 1
	}
	return *c.SnapshotStride
}

// GetSampleStride returns the frame stride between retained annotated
// sample frames.
func (c *AnalysisConfig) GetSampleStride() int64 {
	if c.SampleStride == nil {
		return 30
	}
	return *c.SampleStride
}

// GetMaxSampleFrames returns the cap on retained sample frames. The oldest
// samples are evicted once the cap is reached.
func (c *AnalysisConfig) GetMaxSampleFrames() int {
	if c.MaxSampleFrames == nil {
		return 60
	}
	return *c.MaxSampleFrames
}
