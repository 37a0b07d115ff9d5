package zones

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waitline/waitline/internal/geom"
)

func square(x, y, size float64) geom.Polygon {
	return geom.Polygon{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func TestNewRegistryValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		zones   []Zone
		wantErr string
	}{
		{
			name:  "empty set is valid",
			zones: nil,
		},
		{
			name: "valid pair",
			zones: []Zone{
				{ID: 0, Name: "register", Polygon: square(0, 0, 10)},
				{ID: 1, Name: "pickup", Polygon: square(20, 0, 10)},
			},
		},
		{
			name: "duplicate id",
			zones: []Zone{
				{ID: 3, Polygon: square(0, 0, 10)},
				{ID: 3, Polygon: square(20, 0, 10)},
			},
			wantErr: "duplicate zone id",
		},
		{
			name:    "negative id",
			zones:   []Zone{{ID: -1, Polygon: square(0, 0, 10)}},
			wantErr: "negative zone id",
		},
		{
			name:    "two vertices",
			zones:   []Zone{{ID: 0, Polygon: geom.Polygon{{X: 0, Y: 0}, {X: 1, Y: 1}}}},
			wantErr: "need at least 3",
		},
		{
			name: "nan vertex",
			zones: []Zone{{ID: 0, Polygon: geom.Polygon{
				{X: 0, Y: 0}, {X: 10, Y: 0}, {X: math.NaN(), Y: 10},
			}}},
			wantErr: "non-finite",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.zones)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, len(tt.zones), r.Len())
				return
			}
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestZonesFor(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry([]Zone{
		{ID: 2, Name: "left", Polygon: square(0, 0, 10)},
		{ID: 1, Name: "wide", Polygon: square(0, 0, 30)},
		{ID: 5, Name: "right", Polygon: square(20, 0, 10)},
	})
	require.NoError(t, err)

	// Overlap reports every containing zone, ids ascending.
	assert.Equal(t, []int{1, 2}, r.ZonesFor(geom.Point{X: 5, Y: 5}))
	assert.Equal(t, []int{1, 5}, r.ZonesFor(geom.Point{X: 25, Y: 5}))
	assert.Nil(t, r.ZonesFor(geom.Point{X: 100, Y: 100}))

	assert.True(t, r.Contains(2, geom.Point{X: 10, Y: 5}), "boundary counts as inside")
	assert.False(t, r.Contains(99, geom.Point{X: 5, Y: 5}), "unknown id is outside")
}

func TestRegistryImmutability(t *testing.T) {
	t.Parallel()

	src := []Zone{{ID: 0, Name: "a", Polygon: square(0, 0, 10)}}
	r, err := NewRegistry(src)
	require.NoError(t, err)

	// Mutating the caller's polygon after construction must not affect
	// membership.
	src[0].Polygon[2] = geom.Point{X: 0.1, Y: 0.1}
	assert.True(t, r.Contains(0, geom.Point{X: 5, Y: 5}))

	got := r.Zones()
	got[0].Name = "mutated"
	z, ok := r.Zone(0)
	require.True(t, ok)
	assert.Equal(t, "a", z.Name)
}

func TestRegistryIDs(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry([]Zone{
		{ID: 7, Polygon: square(0, 0, 1)},
		{ID: 1, Polygon: square(2, 0, 1)},
		{ID: 4, Polygon: square(4, 0, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 7}, r.IDs())
}
