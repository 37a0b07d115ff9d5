package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/waitline/waitline/internal/geom"
)

func TestSquareZoneContainsCenter(t *testing.T) {
	t.Parallel()

	reg := Registry(t, SquareZone(0, "till", 0, 0, 100))
	assert.True(t, reg.Contains(0, geom.Point{X: 50, Y: 50}))
	assert.False(t, reg.Contains(0, geom.Point{X: 150, Y: 50}))
}

func TestPersonAtCentroid(t *testing.T) {
	t.Parallel()

	d := PersonAt(3, 40, 60)
	assert.Equal(t, geom.Point{X: 40, Y: 60}, d.Point())
	assert.True(t, d.Valid())
}
