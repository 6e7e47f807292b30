package metric

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/projection"
	"github.com/pdok/comparea/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func polygonFeature(id interface{}, rings ...orb.Ring) *feature.Feature {
	return feature.NewFeature(id, &feature.Polygon{Coordinates: orb.Polygon(rings)})
}

func loadRegions(t *testing.T) *feature.FeatureCollection {
	t.Helper()
	data, err := os.ReadFile("testdata/regions.geojson")
	require.NoError(t, err)
	obj, err := feature.Decode(data)
	require.NoError(t, err)
	return obj.(*feature.FeatureCollection)
}

var (
	equatorCell = orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	lShape      = orb.Ring{{10, 40}, {12, 40}, {12, 41}, {11, 41}, {11, 42}, {10, 42}, {10, 40}}
	meridian    = orb.Ring{{0, 10}, {0, 11}, {0, 12}}
)

func TestArea(t *testing.T) {
	calc := Default()

	area, err := calc.Area(polygonFeature(1, equatorCell))
	require.NoError(t, err)
	assert.InDelta(t, 12308216707.06, area, 1)

	// holes are ignored
	withHole, err := calc.Area(polygonFeature(1, equatorCell, orb.Ring{{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}, {0.2, 0.2}}))
	require.NoError(t, err)
	assert.Equal(t, area, withHole)

	empty, err := calc.Area(polygonFeature(1))
	require.NoError(t, err)
	assert.Equal(t, 0., empty)

	zero, err := calc.Area(polygonFeature(1, meridian))
	require.NoError(t, err)
	assert.Equal(t, 0., zero)
}

// No real country outline ships with the tests, so the equal-area projection is
// checked against analytic cell areas and orb's spherical area instead.
func TestAreaAgainstSphere(t *testing.T) {
	calc := Default()
	regions := loadRegions(t)
	for _, f := range regions.Features[:3] {
		area, err := calc.Area(f)
		require.NoError(t, err)

		sphere := 0.
		require.NoError(t, walk(f, func(ring orb.Ring) error {
			sphere += geo.Area(ring)
			return nil
		}))
		assert.InEpsilon(t, sphere, area, 0.01, "feature %v", f.ID)
	}
}

func TestAreaRotationInvariant(t *testing.T) {
	calc := Default()
	open := lShape[:len(lShape)-1]
	want, err := calc.Area(polygonFeature(1, open))
	require.NoError(t, err)
	for i := 1; i < len(open); i++ {
		rotated := append(append(orb.Ring{}, open[i:]...), open[:i]...)
		got, err := calc.Area(polygonFeature(1, rotated))
		require.NoError(t, err)
		assert.InEpsilon(t, want, got, 1e-12)
	}
	reversed := open.Clone()
	reversed.Reverse()
	got, err := calc.Area(polygonFeature(1, reversed))
	require.NoError(t, err)
	assert.InEpsilon(t, want, got, 1e-12)
}

func TestAreaIsAdditive(t *testing.T) {
	calc := Default()
	regions := loadRegions(t)
	regions.Features = regions.Features[:3]

	total, err := calc.Area(regions)
	require.NoError(t, err)
	sum := 0.
	for _, f := range regions.Features {
		area, err := calc.Area(f)
		require.NoError(t, err)
		assert.Greater(t, area, 0.)
		sum += area
	}
	assert.InEpsilon(t, sum, total, 1e-12)
}

func TestUnsupportedGeometry(t *testing.T) {
	calc := Default()
	regions := loadRegions(t)
	line := regions.Features[3]

	_, err := calc.Area(line)
	var unsupported *feature.UnsupportedGeometryError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "LineString", unsupported.Type)

	_, err = calc.Area(regions)
	require.True(t, errors.As(err, &unsupported))

	_, err = calc.Centroid(feature.NewFeature(1, nil))
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "null", unsupported.Type)

	_, err = calc.Solidity(line)
	assert.True(t, IsGeometryError(err))
}

func TestDegenerateRing(t *testing.T) {
	_, err := Default().Area(polygonFeature(1, orb.Ring{{0, 0}, {1, 1}}))
	var degenerate *shape.DegenerateGeometryError
	require.True(t, errors.As(err, &degenerate))
	assert.True(t, IsGeometryError(err))
}

func TestCentroid(t *testing.T) {
	calc := Default()

	got, err := calc.Centroid(polygonFeature(1, lShape))
	require.NoError(t, err)
	s, err := shape.FromRing(lShape, calc.EqualArea())
	require.NoError(t, err)
	planar := s.Centroid()
	lon, lat := calc.EqualArea().Inverse(planar[0], planar[1])
	assert.InDelta(t, lon, got[0], 1e-9)
	assert.InDelta(t, lat, got[1], 1e-9)
	assert.InDelta(t, 10.836, got[0], 0.001)
	assert.InDelta(t, 40.832, got[1], 0.001)

	// two equal squares, symmetric about 12E
	regions := loadRegions(t)
	got, err = calc.Centroid(regions.Features[1])
	require.NoError(t, err)
	assert.InDelta(t, 12, got[0], 0.01)
	assert.InDelta(t, 40.5, got[1], 0.01)
}

func TestCentroidOfCollectionWeighsByArea(t *testing.T) {
	calc := Default()
	small := polygonFeature("small", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	large := polygonFeature("large", orb.Ring{{10, 0}, {13, 0}, {13, 1}, {10, 1}})
	got, err := calc.Centroid(feature.NewFeatureCollection(small, large))
	require.NoError(t, err)
	// (0.5*1 + 11.5*3) / 4
	assert.InDelta(t, 8.75, got[0], 0.01)
	assert.InDelta(t, 0.5, got[1], 0.01)
}

func TestCentroidOfCollectionWeighsFeatureCentroids(t *testing.T) {
	calc := Default()
	north := polygonFeature("north", orb.Ring{{-120, 60}, {-110, 60}, {-110, 65}, {-120, 65}, {-120, 60}})
	south := polygonFeature("south", orb.Ring{{120, -40}, {130, -40}, {130, -35}, {120, -35}, {120, -40}})

	var sumLon, sumLat, sumArea float64
	for _, f := range []*feature.Feature{north, south} {
		centroid, err := calc.Centroid(f)
		require.NoError(t, err)
		area, err := calc.Area(f)
		require.NoError(t, err)
		sumLon += centroid.Lon() * area
		sumLat += centroid.Lat() * area
		sumArea += area
	}

	got, err := calc.Centroid(feature.NewFeatureCollection(north, south))
	require.NoError(t, err)
	assert.InDelta(t, sumLon/sumArea, got.Lon(), 1e-9)
	assert.InDelta(t, sumLat/sumArea, got.Lat(), 1e-9)
	assert.InDelta(t, 36.393, got.Lon(), 0.01)
	assert.InDelta(t, -0.318, got.Lat(), 0.01)

	// parts of one geometry are weighed the same way
	both := feature.NewFeature("both", &feature.MultiPolygon{Coordinates: orb.MultiPolygon{
		north.Geometry.(*feature.Polygon).Coordinates,
		south.Geometry.(*feature.Polygon).Coordinates,
	}})
	got, err = calc.Centroid(both)
	require.NoError(t, err)
	assert.InDelta(t, sumLon/sumArea, got.Lon(), 1e-9)
	assert.InDelta(t, sumLat/sumArea, got.Lat(), 1e-9)
}

func TestCentroidWithoutArea(t *testing.T) {
	calc := Default()
	tests := map[string]feature.Object{
		"collection of flat features": feature.NewFeatureCollection(
			polygonFeature(1, meridian),
			polygonFeature(2, meridian),
		),
		"empty polygon":             polygonFeature(1),
		"empty collection":          feature.NewFeatureCollection(),
		"empty geometry collection": feature.NewFeature(1, &feature.GeometryCollection{}),
	}
	for name, obj := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := calc.Centroid(obj)
			require.NoError(t, err)
			assert.Equal(t, orb.Point{0, 0}, got)
			assert.False(t, math.IsNaN(got[0]))
		})
	}
}

func TestBBox(t *testing.T) {
	calc := Default()
	regions := loadRegions(t)

	bbox, err := calc.BBox(regions.Features[0])
	require.NoError(t, err)
	assert.Equal(t, &BBox{51, 4, 53, 6}, bbox)

	bbox, err = calc.BBox(regions.Features[2])
	require.NoError(t, err)
	assert.Equal(t, &BBox{-30, -70, -29, -59}, bbox)

	// the line is skipped
	bbox, err = calc.BBox(regions)
	require.NoError(t, err)
	assert.Equal(t, &BBox{-30, -70, 53, 14}, bbox)

	_, err = calc.BBox(regions.Features[3])
	var unsupported *feature.UnsupportedGeometryError
	require.True(t, errors.As(err, &unsupported))

	bbox, err = calc.BBox(feature.NewFeatureCollection(regions.Features[3], polygonFeature(1)))
	require.NoError(t, err)
	assert.Nil(t, bbox)

	_, err = calc.BBox(polygonFeature(1))
	var degenerate *shape.DegenerateGeometryError
	require.True(t, errors.As(err, &degenerate))
}

func TestSolidity(t *testing.T) {
	calc := Default()
	regions := loadRegions(t)

	tests := []struct {
		name  string
		obj   feature.Object
		want  float64
		delta float64
	}{
		// hulls are measured in the stereographic projection, its scale factor makes
		// them slightly smaller than the equal-area area
		{name: "convex", obj: polygonFeature(1, orb.Ring{{5, 52}, {5.1, 52}, {5.1, 52.1}, {5, 52.1}}), want: 1, delta: 1e-3},
		{name: "l-shape", obj: polygonFeature(1, lShape), want: 3 / 3.5, delta: 0.01},
		{name: "islands", obj: regions.Features[1], want: 2. / 4, delta: 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Solidity(tt.obj)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}

	_, err := calc.Solidity(polygonFeature(1, meridian))
	var degenerate *shape.DegenerateGeometryError
	require.True(t, errors.As(err, &degenerate))

	_, err = calc.Solidity(polygonFeature(1))
	require.True(t, errors.As(err, &degenerate))
}

func TestConvexHullPolygon(t *testing.T) {
	calc := Default()
	hull, err := calc.ConvexHullPolygon(polygonFeature(1, lShape))
	require.NoError(t, err)
	require.Len(t, hull, 1)
	ring := hull[0]
	assert.True(t, ring.Closed())
	// the reflex vertex is not on the hull
	assert.Len(t, ring, 6)
	for _, pt := range ring {
		assert.NotEqual(t, orb.Point{11, 41}, pt)
	}
	bound := ring.Bound()
	assert.InDelta(t, 10, bound.Min.Lon(), 1e-9)
	assert.InDelta(t, 42, bound.Max.Lat(), 1e-9)
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := projection.DefaultConfig()
	cfg.Albers.StandardParallel1 = 120
	_, err := New(cfg)
	require.Error(t, err)

	calc, err := New(projection.Config{})
	require.NoError(t, err)
	area, err := calc.Area(polygonFeature(1, equatorCell))
	require.NoError(t, err)
	assert.InDelta(t, 12308216707.06, area, 1)
}

func TestSummarize(t *testing.T) {
	calc := Default()
	regions := loadRegions(t)
	summary, err := calc.Summarize(regions.Features[0])
	require.NoError(t, err)

	area, err := calc.Area(regions.Features[0])
	require.NoError(t, err)
	assert.InDelta(t, area/1e6, summary.AreaKm2, 1e-9)
	k0 := projection.DefaultConfig().Stereographic.ScaleFactor
	assert.InDelta(t, 1/(k0*k0), summary.Solidity, 1e-4)
	assert.Less(t, summary.ConvexAreaKm2, summary.AreaKm2)
	assert.InDelta(t, 5, summary.Centroid.Lon(), 0.01)
	assert.Equal(t, &BBox{51, 4, 53, 6}, summary.BBox)

	_, err = calc.Summarize(regions)
	require.Error(t, err)
}
