package projection

import (
	"fmt"
	"math"
)

// Albers is the ellipsoidal Albers Equal-Area Conic projection (Snyder, Map
// Projections: A Working Manual, p. 101). Areas measured in its plane equal
// areas on the ellipsoid.
type Albers struct {
	lon0 float64
	n    float64
	c    float64
	rho0 float64
	// q at the poles, the upper bound of |q|
	qPole float64
}

// NewAlbers builds an Albers projection from cfg. The standard parallels may not be
// symmetric about the equator.
func NewAlbers(cfg AlbersConfig) (*Albers, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	phi1 := toRadians(cfg.StandardParallel1)
	phi2 := toRadians(cfg.StandardParallel2)
	phi0 := toRadians(cfg.LatitudeOfOrigin)

	m1, m2 := albersM(phi1), albersM(phi2)
	q1, q2 := albersQ(phi1), albersQ(phi2)

	var n float64
	if math.Abs(phi1-phi2) < epsilon {
		n = math.Sin(phi1)
	} else {
		n = (m1*m1 - m2*m2) / (q2 - q1)
	}
	if math.Abs(n) < epsilon {
		return nil, fmt.Errorf("standard parallels %v and %v are symmetric about the equator",
			cfg.StandardParallel1, cfg.StandardParallel2)
	}
	c := m1*m1 + n*q1
	p := &Albers{
		lon0:  toRadians(cfg.CentralMeridian),
		n:     n,
		c:     c,
		qPole: albersQ(math.Pi / 2),
	}
	p.rho0 = p.rho(albersQ(phi0))
	return p, nil
}

func (p *Albers) Forward(lon, lat float64) (x, y float64) {
	rho := p.rho(albersQ(toRadians(lat)))
	theta := p.n * adjustLongitude(toRadians(lon)-p.lon0)
	return rho * math.Sin(theta), p.rho0 - rho*math.Cos(theta)
}

func (p *Albers) Inverse(x, y float64) (lon, lat float64) {
	dy := p.rho0 - y
	rho := math.Hypot(x, dy)
	if p.n < 0 {
		rho, x, dy = -rho, -x, -dy
	}
	theta := math.Atan2(x, dy)
	r := rho * p.n / semiMajorAxis
	q := (p.c - r*r) / p.n
	lam := adjustLongitude(theta/p.n + p.lon0)
	return toDegrees(lam), toDegrees(p.latitude(q))
}

func (p *Albers) rho(q float64) float64 {
	return semiMajorAxis * math.Sqrt(math.Max(p.c-p.n*q, 0)) / p.n
}

// latitude inverts albersQ by Newton iteration.
func (p *Albers) latitude(q float64) float64 {
	if math.Abs(q) >= p.qPole-epsilon {
		return math.Copysign(math.Pi/2, q)
	}
	phi := math.Asin(q / 2)
	for i := 0; i < maxIterations; i++ {
		sinPhi, cosPhi := math.Sincos(phi)
		esSin2 := 1 - eccentricitySq*sinPhi*sinPhi
		dphi := esSin2 * esSin2 / (2 * cosPhi) *
			(q/(1-eccentricitySq) - sinPhi/esSin2 +
				1/(2*eccentricity)*math.Log((1-eccentricity*sinPhi)/(1+eccentricity*sinPhi)))
		phi += dphi
		if math.Abs(dphi) < 1e-14 {
			break
		}
	}
	return phi
}

func albersM(phi float64) float64 {
	sinPhi, cosPhi := math.Sincos(phi)
	return cosPhi / math.Sqrt(1-eccentricitySq*sinPhi*sinPhi)
}

func albersQ(phi float64) float64 {
	sinPhi := math.Sin(phi)
	esin := eccentricity * sinPhi
	return (1 - eccentricitySq) * (sinPhi/(1-esin*esin) -
		1/(2*eccentricity)*math.Log((1-esin)/(1+esin)))
}
