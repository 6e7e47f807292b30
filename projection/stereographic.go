package projection

import "math"

// Stereographic is the oblique stereographic projection on the Gauss conformal
// sphere (the "double" stereographic, PROJ's sterea). The centre maps to (0, 0).
type Stereographic struct {
	lon0 float64
	k0   float64

	// Gauss sphere
	c      float64
	k      float64
	ratexp float64
	chi0   float64

	sinChi0 float64
	cosChi0 float64
	r2      float64
}

// NewStereographic builds a stereographic projection centred on (lon, lat).
func NewStereographic(lon, lat float64, cfg StereographicConfig) (*Stereographic, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(center{Lon: lon, Lat: lat}); err != nil {
		return nil, err
	}
	phi0 := toRadians(lat)
	sinPhi0, cosPhi0 := math.Sincos(phi0)
	cos2 := cosPhi0 * cosPhi0

	rc := math.Sqrt(1-eccentricitySq) / (1 - eccentricitySq*sinPhi0*sinPhi0)
	c := math.Sqrt(1 + eccentricitySq*cos2*cos2/(1-eccentricitySq))
	chi0 := math.Asin(sinPhi0 / c)
	ratexp := 0.5 * c * eccentricity
	k := math.Tan(0.5*chi0+math.Pi/4) /
		(math.Pow(math.Tan(0.5*phi0+math.Pi/4), c) * srat(eccentricity*sinPhi0, ratexp))

	return &Stereographic{
		lon0:    toRadians(lon),
		k0:      cfg.ScaleFactor,
		c:       c,
		k:       k,
		ratexp:  ratexp,
		chi0:    chi0,
		sinChi0: math.Sin(chi0),
		cosChi0: math.Cos(chi0),
		r2:      2 * rc,
	}, nil
}

type center struct {
	Lon float64 `validate:"gte=-180,lte=180"`
	Lat float64 `validate:"gte=-90,lte=90"`
}

func (p *Stereographic) Forward(lon, lat float64) (x, y float64) {
	phi := toRadians(lat)
	lam := adjustLongitude(toRadians(lon) - p.lon0)

	chi := 2*math.Atan(p.k*math.Pow(math.Tan(0.5*phi+math.Pi/4), p.c)*
		srat(eccentricity*math.Sin(phi), p.ratexp)) - math.Pi/2
	lam *= p.c

	sinChi, cosChi := math.Sincos(chi)
	sinLam, cosLam := math.Sincos(lam)
	scale := semiMajorAxis * p.k0 * p.r2 / (1 + p.sinChi0*sinChi + p.cosChi0*cosChi*cosLam)
	return scale * cosChi * sinLam, scale * (p.cosChi0*sinChi - p.sinChi0*cosChi*cosLam)
}

func (p *Stereographic) Inverse(x, y float64) (lon, lat float64) {
	x /= semiMajorAxis * p.k0
	y /= semiMajorAxis * p.k0

	chi, lam := p.chi0, 0.0
	if rho := math.Hypot(x, y); rho != 0 {
		cc := 2 * math.Atan2(rho, p.r2)
		sinC, cosC := math.Sincos(cc)
		chi = math.Asin(cosC*p.sinChi0 + y*sinC*p.cosChi0/rho)
		lam = math.Atan2(x*sinC, rho*p.cosChi0*cosC-y*p.sinChi0*sinC)
	}

	lam /= p.c
	num := math.Pow(math.Tan(0.5*chi+math.Pi/4)/p.k, 1/p.c)
	phi := chi
	for i := 0; i < maxIterations; i++ {
		next := 2*math.Atan(num*srat(eccentricity*math.Sin(phi), -0.5*eccentricity)) - math.Pi/2
		done := math.Abs(next-phi) < 1e-14
		phi = next
		if done {
			break
		}
	}
	return toDegrees(adjustLongitude(lam + p.lon0)), toDegrees(phi)
}

func srat(esinp, exp float64) float64 {
	return math.Pow((1-esinp)/(1+esinp), exp)
}
