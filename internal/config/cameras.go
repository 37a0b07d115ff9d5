package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/waitline/waitline/internal/zones"
)

// Camera is a statically configured video source with its preconfigured
// queue zones. Cameras are registry entries only; waitline never connects
// to them, it analyses the detection streams produced downstream of them.
type Camera struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Location string       `json:"location,omitempty"`
	FPS      float64      `json:"fps"`
	Zones    []zones.Zone `json:"zones"`
}

// CameraRegistry is the set of configured cameras, keyed by id.
type CameraRegistry struct {
	cameras map[string]Camera
}

// LoadCameraRegistry reads a camera registry from a JSON file holding an
// array of Camera entries. Every camera's zones are validated up front so a
// session started from a registered camera cannot fail on zone geometry.
func LoadCameraRegistry(path string) (*CameraRegistry, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("camera file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera file: %w", err)
	}
	return ParseCameraRegistry(data)
}

// ParseCameraRegistry builds a registry from raw JSON.
func ParseCameraRegistry(data []byte) (*CameraRegistry, error) {
	var cams []Camera
	if err := json.Unmarshal(data, &cams); err != nil {
		return nil, fmt.Errorf("failed to parse camera JSON: %w", err)
	}

	reg := &CameraRegistry{cameras: make(map[string]Camera, len(cams))}
	for i, cam := range cams {
		if cam.ID == "" {
			return nil, fmt.Errorf("cameras[%d]: missing id", i)
		}
		if _, dup := reg.cameras[cam.ID]; dup {
			return nil, fmt.Errorf("cameras[%d]: duplicate camera id %q", i, cam.ID)
		}
		if cam.FPS <= 0 {
			return nil, fmt.Errorf("camera %q: fps must be positive, got %f", cam.ID, cam.FPS)
		}
		if _, err := zones.NewRegistry(cam.Zones); err != nil {
			return nil, fmt.Errorf("camera %q: %w", cam.ID, err)
		}
		reg.cameras[cam.ID] = cam
	}
	return reg, nil
}

// Camera returns the camera with the given id.
func (r *CameraRegistry) Camera(id string) (Camera, bool) {
	cam, ok := r.cameras[id]
	return cam, ok
}

// Cameras returns all cameras sorted by id.
func (r *CameraRegistry) Cameras() []Camera {
	out := make([]Camera, 0, len(r.cameras))
	for _, cam := range r.cameras {
		out = append(out, cam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
