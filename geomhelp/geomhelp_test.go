package geomhelp

import (
	"math"
	"strings"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestOrientationSum(t *testing.T) {
	var tests = []struct {
		ring orb.Ring
		want float64
	}{
		// clockwise square
		0: {ring: orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}, want: 2},
		// counter-clockwise square
		1: {ring: orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}, want: -2},
		// unclosed triangle, last edge not counted
		2: {ring: orb.Ring{{0, 0}, {1, 0}, {0, 1}}, want: -1},
		// single point
		3: {ring: orb.Ring{{1, 1}}, want: 0},
		// empty
		4: {ring: nil, want: 0},
	}
	for k, test := range tests {
		assert.Equalf(t, test.want, OrientationSum(test.ring), "test: %d", k)
	}
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite([2]float64{1, -1}))
	assert.False(t, IsFinite([2]float64{math.NaN(), 0}))
	assert.False(t, IsFinite([2]float64{0, math.Inf(-1)}))
}

func TestConversions(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, {{0.1, 0.1}, {0.2, 0.1}, {0.2, 0.2}, {0.1, 0.1}}},
		{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
	}
	converted := MultiPolygonToGeomMultiPolygon(mp)
	assert.Equal(t, [2]float64{0.2, 0.1}, converted[0][1][1])
	assert.Equal(t, mp, GeomMultiPolygonToMultiPolygon(converted))
	assert.Equal(t, geom.Polygon{{{0, 0}, {1, 0}}}, RingToGeomPolygon(orb.Ring{{0, 0}, {1, 0}}))
}

func TestWktMustEncode(t *testing.T) {
	polygon := geom.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}
	full := WktMustEncode(polygon, 0)
	assert.True(t, strings.HasPrefix(full, "POLYGON"))

	truncated := WktMustEncode(polygon, 17)
	assert.LessOrEqual(t, len(truncated), 17)
	assert.True(t, strings.HasSuffix(truncated, "..."))

	// rings too short for a polygon are written as lines
	assert.True(t, strings.HasPrefix(WktMustEncode(geom.Polygon{{{0, 0}, {1, 0}}}, 0), "LINESTRING"))
}
