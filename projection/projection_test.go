package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlbersForward(t *testing.T) {
	x, y := EqualArea().Forward(10, 45)
	assert.InDelta(t, 791087.850, x, 1e-3)
	assert.InDelta(t, 4789284.564, y, 1e-3)

	x, y = EqualArea().Forward(0, 0)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestRoundTrip(t *testing.T) {
	projections := map[string]Projection{
		"albers":                EqualArea(),
		"stereographic at NL":   LocalStereographic(5.387638889, 52.156160556),
		"stereographic south":   LocalStereographic(-65, -35),
		"stereographic equator": LocalStereographic(100, 0),
	}
	points := [][2]float64{
		{0, 0}, {10, 45}, {-120, -30}, {5.5, 52.1}, {179.5, 60}, {-70, -40}, {101, 1},
	}
	for name, p := range projections {
		t.Run(name, func(t *testing.T) {
			for _, pt := range points {
				x, y := p.Forward(pt[0], pt[1])
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				lon, lat := p.Inverse(x, y)
				assert.InDelta(t, pt[0], lon, 1e-8, "lon of %v", pt)
				assert.InDelta(t, pt[1], lat, 1e-8, "lat of %v", pt)
			}
		})
	}
}

// A band between two parallels has the closed-form ellipsoidal area a²·Δλ·(q₂-q₁)/2.
func TestAlbersPreservesArea(t *testing.T) {
	p := EqualArea()
	const n = 100
	var ring [][2]float64
	for i := 0; i <= n; i++ {
		ring = append(ring, [2]float64{10 + float64(i)/n, 45})
	}
	for i := 0; i <= n; i++ {
		ring = append(ring, [2]float64{11 - float64(i)/n, 46})
	}
	projected := make([][2]float64, len(ring))
	for i, pt := range ring {
		projected[i][0], projected[i][1] = p.Forward(pt[0], pt[1])
	}
	want := semiMajorAxis * semiMajorAxis * toRadians(1) *
		(albersQ(toRadians(46)) - albersQ(toRadians(45))) / 2
	assert.InDelta(t, 8686494956.67, want, 0.01)
	assert.InEpsilon(t, want, shoelace(projected), 1e-8)
}

func TestStereographicCentre(t *testing.T) {
	p := LocalStereographic(5.387638889, 52.156160556)
	x, y := p.Forward(5.387638889, 52.156160556)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, y = p.Forward(6, 53)
	assert.InDelta(t, 41110.315, x, 1e-2)
	assert.InDelta(t, 94068.546, y, 1e-2)

	lon, lat := p.Inverse(0, 0)
	assert.InDelta(t, 5.387638889, lon, 1e-9)
	assert.InDelta(t, 52.156160556, lat, 1e-9)
}

// Close to its centre the stereographic scale is k0, so areas are k0² times the true area.
func TestStereographicLocalScale(t *testing.T) {
	square := [][2]float64{{9.99, 44.99}, {10.01, 44.99}, {10.01, 45.01}, {9.99, 45.01}}
	stereo, albers := LocalStereographic(10, 45), EqualArea()
	projectedStereo := make([][2]float64, len(square))
	projectedAlbers := make([][2]float64, len(square))
	for i, pt := range square {
		projectedStereo[i][0], projectedStereo[i][1] = stereo.Forward(pt[0], pt[1])
		projectedAlbers[i][0], projectedAlbers[i][1] = albers.Forward(pt[0], pt[1])
	}
	k0 := DefaultConfig().Stereographic.ScaleFactor
	assert.InEpsilon(t, k0*k0*shoelace(projectedAlbers), shoelace(projectedStereo), 1e-5)
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 37.0, cfg.Albers.StandardParallel1)
	assert.Equal(t, 41.0, cfg.Albers.StandardParallel2)
	assert.Equal(t, 0.9999079, cfg.Stereographic.ScaleFactor)
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr bool
	}{
		{name: "defaults"},
		{name: "single parallel", modify: func(cfg *Config) { cfg.Albers.StandardParallel2 = 37 }},
		{name: "southern cone", modify: func(cfg *Config) {
			cfg.Albers.StandardParallel1 = -20
			cfg.Albers.StandardParallel2 = -40
		}},
		{name: "parallel out of range", modify: func(cfg *Config) { cfg.Albers.StandardParallel1 = 91 }, wantErr: true},
		{name: "symmetric parallels", modify: func(cfg *Config) { cfg.Albers.StandardParallel1 = -41 }, wantErr: true},
		{name: "meridian out of range", modify: func(cfg *Config) { cfg.Albers.CentralMeridian = 200 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.modify != nil {
				tt.modify(&cfg)
			}
			p, err := cfg.EqualArea()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			lon, lat := p.Inverse(p.Forward(12, -33))
			assert.InDelta(t, 12, lon, 1e-9)
			assert.InDelta(t, -33, lat, 1e-9)
		})
	}

	_, err := cfg.LocalStereographic(0, 95)
	require.Error(t, err)
	cfg.Stereographic.ScaleFactor = -1
	_, err = cfg.LocalStereographic(0, 0)
	require.Error(t, err)
}

func TestAdjustLongitude(t *testing.T) {
	assert.InDelta(t, -math.Pi/2, adjustLongitude(3*math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi/2, adjustLongitude(-3*math.Pi/2), 1e-12)
	assert.Equal(t, 1.0, adjustLongitude(1))
}

func shoelace(pts [][2]float64) float64 {
	sum := 0.
	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[0]*p1[1] - p1[0]*p0[1]
		p0 = p1
	}
	return math.Abs(sum / 2)
}
