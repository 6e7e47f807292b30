package projection

import (
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the parameters of the projections used by the metrics.
type Config struct {
	Albers        AlbersConfig        `yaml:"albers" json:"albers"`
	Stereographic StereographicConfig `yaml:"stereographic" json:"stereographic"`
}

// AlbersConfig parameterises the equal-area projection.
// The defaults match PROJ's "+proj=aea +lat_1=37 +lat_2=41".
type AlbersConfig struct {
	StandardParallel1 float64 `yaml:"standardParallel1" json:"standardParallel1" default:"37" validate:"gte=-90,lte=90"`
	StandardParallel2 float64 `yaml:"standardParallel2" json:"standardParallel2" default:"41" validate:"gte=-90,lte=90"`
	LatitudeOfOrigin  float64 `yaml:"latitudeOfOrigin" json:"latitudeOfOrigin" validate:"gte=-90,lte=90"`
	CentralMeridian   float64 `yaml:"centralMeridian" json:"centralMeridian" validate:"gte=-180,lte=180"`
}

// StereographicConfig parameterises the local projections used for convex hulls.
type StereographicConfig struct {
	ScaleFactor float64 `yaml:"scaleFactor" json:"scaleFactor" default:"0.9999079" validate:"gt=0,lte=1"`
}

// DefaultConfig returns a Config with every parameter at its default.
func DefaultConfig() Config {
	var cfg Config
	_ = cfg.SetDefaults()
	return cfg
}

// SetDefaults fills the zero-valued parameters with their defaults.
func (cfg *Config) SetDefaults() error {
	return defaults.Set(cfg)
}

func (cfg *Config) Validate() error {
	return validate.Struct(cfg)
}

// EqualArea builds the configured equal-area projection.
func (cfg *Config) EqualArea() (*Albers, error) {
	return NewAlbers(cfg.Albers)
}

// LocalStereographic builds the configured stereographic projection centred on (lon, lat).
func (cfg *Config) LocalStereographic(lon, lat float64) (*Stereographic, error) {
	return NewStereographic(lon, lat, cfg.Stereographic)
}

// EqualArea returns the default equal-area projection.
func EqualArea() *Albers {
	cfg := DefaultConfig()
	p, err := cfg.EqualArea()
	if err != nil {
		panic(err)
	}
	return p
}

// LocalStereographic returns the default stereographic projection centred on (lon, lat).
// It panics if the centre is not a valid lon/lat.
func LocalStereographic(lon, lat float64) *Stereographic {
	cfg := DefaultConfig()
	p, err := cfg.LocalStereographic(lon, lat)
	if err != nil {
		panic(err)
	}
	return p
}
