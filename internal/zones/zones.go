// Package zones defines the named polygonal regions a session measures and
// answers point-membership queries against them.
//
// A Registry is immutable once built: sessions share it concurrently without
// locking, and two sessions built from the same zone definitions observe
// identical membership for every point.
package zones

import (
	"fmt"
	"math"
	"sort"

	"github.com/waitline/waitline/internal/geom"
)

// Zone is a named polygonal region of the image plane.
type Zone struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	Polygon geom.Polygon `json:"polygon"`
}

// ConfigError reports an invalid zone or session configuration. It is
// returned at construction time; once a Registry exists its zones are known
// good.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Registry holds a validated, immutable set of zones.
type Registry struct {
	zones []Zone
	byID  map[int]int // zone id -> index into zones
}

// NewRegistry validates the given zones and returns an immutable registry
// over a copy of them. Each zone needs a non-negative unique id and a
// polygon with at least three vertices and finite coordinates. An empty
// zone set is valid: sessions over it produce empty results.
func NewRegistry(zs []Zone) (*Registry, error) {
	r := &Registry{
		zones: make([]Zone, len(zs)),
		byID:  make(map[int]int, len(zs)),
	}
	copy(r.zones, zs)

	for i, z := range r.zones {
		if z.ID < 0 {
			return nil, &ConfigError{
				Field:  fmt.Sprintf("zones[%d].id", i),
				Reason: fmt.Sprintf("negative zone id %d", z.ID),
			}
		}
		if _, dup := r.byID[z.ID]; dup {
			return nil, &ConfigError{
				Field:  fmt.Sprintf("zones[%d].id", i),
				Reason: fmt.Sprintf("duplicate zone id %d", z.ID),
			}
		}
		if len(z.Polygon) < 3 {
			return nil, &ConfigError{
				Field:  fmt.Sprintf("zones[%d].polygon", i),
				Reason: fmt.Sprintf("polygon has %d vertices, need at least 3", len(z.Polygon)),
			}
		}
		for j, v := range z.Polygon {
			if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
				return nil, &ConfigError{
					Field:  fmt.Sprintf("zones[%d].polygon[%d]", i, j),
					Reason: "non-finite coordinate",
				}
			}
		}
		// Deep-copy the ring so later mutation of the caller's slice
		// cannot reach the registry.
		ring := make(geom.Polygon, len(z.Polygon))
		copy(ring, z.Polygon)
		r.zones[i].Polygon = ring
		r.byID[z.ID] = i
	}
	return r, nil
}

// Len returns the number of zones.
func (r *Registry) Len() int { return len(r.zones) }

// Zones returns the zones in registration order. The slice is a copy.
func (r *Registry) Zones() []Zone {
	out := make([]Zone, len(r.zones))
	copy(out, r.zones)
	return out
}

// Zone returns the zone with the given id.
func (r *Registry) Zone(id int) (Zone, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Zone{}, false
	}
	return r.zones[i], true
}

// IDs returns all zone ids in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ZonesFor returns the ids of every zone containing pt, in ascending id
// order. Overlapping zones each report the point independently; a person
// standing in two zones is counted in both.
func (r *Registry) ZonesFor(pt geom.Point) []int {
	var ids []int
	for _, z := range r.zones {
		if z.Polygon.Contains(pt) {
			ids = append(ids, z.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Contains reports whether the zone with the given id contains pt. Unknown
// ids are outside everything.
func (r *Registry) Contains(id int, pt geom.Point) bool {
	i, ok := r.byID[id]
	if !ok {
		return false
	}
	return r.zones[i].Polygon.Contains(pt)
}
