package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyAnalysisConfig()
	assert.Equal(t, 1.0, cfg.GetMinWaitSecFilter())
	assert.Equal(t, 0.4, cfg.GetMinConfidence())
	assert.Equal(t, int64(5), cfg.GetGraceWindowFrames())
	assert.Equal(t, int64(1), cfg.GetSnapshotStride())
	assert.Equal(t, int64(30), cfg.GetSampleStride())
	assert.Equal(t, 60, cfg.GetMaxSampleFrames())
}

func TestLoadPartialConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{"min_wait_sec_filter": 2.5, "grace_window_frames": 10}`)
	cfg, err := LoadAnalysisConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.GetMinWaitSecFilter())
	assert.Equal(t, int64(10), cfg.GetGraceWindowFrames())
	// Unset fields keep defaults.
	assert.Equal(t, int64(30), cfg.GetSampleStride())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{"negative wait filter", `{"min_wait_sec_filter": -1}`, "min_wait_sec_filter"},
		{"confidence above 1", `{"min_confidence": 1.5}`, "min_confidence"},
		{"zero snapshot stride", `{"snapshot_stride": 0}`, "snapshot_stride"},
		{"negative grace window", `{"grace_window_frames": -3}`, "grace_window_frames"},
		{"malformed json", `{"sample_stride": `, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			_, err := LoadAnalysisConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigRejectsNonJSONPath(t *testing.T) {
	t.Parallel()

	_, err := LoadAnalysisConfig("analysis.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json extension")
}

func TestParseCameraRegistry(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{
			"id": "cam-lobby",
			"name": "Lobby",
			"location": "Main entrance",
			"fps": 15,
			"zones": [
				{"id": 0, "name": "register", "polygon": [
					{"x": 0, "y": 0}, {"x": 100, "y": 0}, {"x": 100, "y": 80}, {"x": 0, "y": 80}
				]}
			]
		},
		{"id": "cam-cafe", "name": "Cafe", "fps": 10, "zones": []}
	]`)

	reg, err := ParseCameraRegistry(data)
	require.NoError(t, err)

	cam, ok := reg.Camera("cam-lobby")
	require.True(t, ok)
	assert.Equal(t, "Lobby", cam.Name)
	assert.Len(t, cam.Zones, 1)

	cams := reg.Cameras()
	require.Len(t, cams, 2)
	assert.Equal(t, "cam-cafe", cams[0].ID, "sorted by id")
}

func TestParseCameraRegistryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"missing id", `[{"name": "x", "fps": 10}]`, "missing id"},
		{"duplicate id", `[{"id": "a", "fps": 10}, {"id": "a", "fps": 10}]`, "duplicate camera id"},
		{"zero fps", `[{"id": "a", "fps": 0}]`, "fps must be positive"},
		{"bad zone", `[{"id": "a", "fps": 10, "zones": [{"id": 0, "polygon": [{"x":0,"y":0}]}]}]`, "at least 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCameraRegistry([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
