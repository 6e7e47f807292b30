package feature

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/perimeterx/marshmallow"
)

const (
	TypePolygon            = "Polygon"
	TypeMultiPolygon       = "MultiPolygon"
	TypeGeometryCollection = "GeometryCollection"
)

// Geometry is one of *Polygon, *MultiPolygon, *GeometryCollection or *Unsupported.
type Geometry interface {
	GeometryType() string
	isGeometry()
}

// Polygon holds its rings in lon/lat. Ring 0 is the outer boundary.
type Polygon struct {
	Coordinates orb.Polygon
	Foreign     map[string]interface{}
}

// MultiPolygon holds its parts, each a list of rings in lon/lat.
type MultiPolygon struct {
	Coordinates orb.MultiPolygon
	Foreign     map[string]interface{}
}

type GeometryCollection struct {
	Geometries []Geometry
	Foreign    map[string]interface{}
}

// Unsupported is any other geometry. It is carried through decoding and encoding
// untouched, the metrics reject it with an UnsupportedGeometryError.
type Unsupported struct {
	Type string
	Raw  map[string]interface{}
}

func (*Polygon) GeometryType() string            { return TypePolygon }
func (*MultiPolygon) GeometryType() string       { return TypeMultiPolygon }
func (*GeometryCollection) GeometryType() string { return TypeGeometryCollection }
func (u *Unsupported) GeometryType() string      { return u.Type }

func (*Polygon) isGeometry()            {}
func (*MultiPolygon) isGeometry()       {}
func (*GeometryCollection) isGeometry() {}
func (*Unsupported) isGeometry()        {}

// UnsupportedGeometryError is returned for geometry types other than
// Polygon, MultiPolygon and GeometryCollection.
type UnsupportedGeometryError struct {
	Type string
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("unsupported geometry: %s", e.Type)
}

// NewUnsupportedGeometryError names g's type, or "null" when g is nil.
func NewUnsupportedGeometryError(g Geometry) *UnsupportedGeometryError {
	if g == nil {
		return &UnsupportedGeometryError{Type: "null"}
	}
	return &UnsupportedGeometryError{Type: g.GeometryType()}
}

type geometryHeader struct {
	Type string `json:"type"`
}

func geometryFromJSONMap(data interface{}) (Geometry, error) {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf(`geometry is not an object but a %T`, data)
	}
	var header geometryHeader
	specials, err := marshmallow.UnmarshalFromJSONMap(dataMap, &header, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return nil, err
	}

	switch header.Type {
	case TypePolygon:
		rings, err := ringsFromJSON(specials["coordinates"])
		if err != nil {
			return nil, fmt.Errorf(`Polygon: %w`, err)
		}
		delete(specials, "coordinates")
		return &Polygon{Coordinates: rings, Foreign: nilIfEmpty(specials)}, nil
	case TypeMultiPolygon:
		rawParts, ok := specials["coordinates"].([]interface{})
		if !ok && specials["coordinates"] != nil {
			return nil, fmt.Errorf(`MultiPolygon: "coordinates" should be an array`)
		}
		parts := make(orb.MultiPolygon, 0, len(rawParts))
		for i, rawPart := range rawParts {
			rings, err := ringsFromJSON(rawPart)
			if err != nil {
				return nil, fmt.Errorf(`MultiPolygon part %d: %w`, i, err)
			}
			parts = append(parts, rings)
		}
		delete(specials, "coordinates")
		return &MultiPolygon{Coordinates: parts, Foreign: nilIfEmpty(specials)}, nil
	case TypeGeometryCollection:
		rawGeometries, ok := specials["geometries"].([]interface{})
		if !ok && specials["geometries"] != nil {
			return nil, fmt.Errorf(`GeometryCollection: "geometries" should be an array`)
		}
		geometries := make([]Geometry, 0, len(rawGeometries))
		for i, rawGeometry := range rawGeometries {
			g, err := geometryFromJSONMap(rawGeometry)
			if err != nil {
				return nil, fmt.Errorf(`GeometryCollection member %d: %w`, i, err)
			}
			geometries = append(geometries, g)
		}
		delete(specials, "geometries")
		return &GeometryCollection{Geometries: geometries, Foreign: nilIfEmpty(specials)}, nil
	case "":
		return nil, fmt.Errorf(`geometry is missing key "type"`)
	default:
		return &Unsupported{Type: header.Type, Raw: dataMap}, nil
	}
}

func ringsFromJSON(data interface{}) (orb.Polygon, error) {
	if data == nil {
		return orb.Polygon{}, nil
	}
	rawRings, ok := data.([]interface{})
	if !ok {
		return nil, fmt.Errorf(`rings should be an array, not a %T`, data)
	}
	rings := make(orb.Polygon, 0, len(rawRings))
	for i, rawRing := range rawRings {
		rawPositions, ok := rawRing.([]interface{})
		if !ok {
			return nil, fmt.Errorf(`ring %d should be an array, not a %T`, i, rawRing)
		}
		ring := make(orb.Ring, 0, len(rawPositions))
		for j, rawPosition := range rawPositions {
			pt, err := positionFromJSON(rawPosition)
			if err != nil {
				return nil, fmt.Errorf(`ring %d position %d: %w`, i, j, err)
			}
			ring = append(ring, pt)
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

// positionFromJSON reads [lon, lat, ...]. Extra ordinates (altitude) are dropped.
func positionFromJSON(data interface{}) (orb.Point, error) {
	ords, ok := data.([]interface{})
	if !ok || len(ords) < 2 {
		return orb.Point{}, fmt.Errorf(`position should be an array of at least 2 numbers, got %v`, data)
	}
	lon, okLon := ords[0].(float64)
	lat, okLat := ords[1].(float64)
	if !okLon || !okLat {
		return orb.Point{}, fmt.Errorf(`position should hold numbers, got %v`, data)
	}
	return orb.Point{lon, lat}, nil
}

func (p *Polygon) MarshalJSON() ([]byte, error) {
	return marshalGeometry(TypePolygon, "coordinates", nonNilPolygon(p.Coordinates), p.Foreign)
}

func (mp *MultiPolygon) MarshalJSON() ([]byte, error) {
	parts := make(orb.MultiPolygon, 0, len(mp.Coordinates))
	for _, part := range mp.Coordinates {
		parts = append(parts, nonNilPolygon(part))
	}
	return marshalGeometry(TypeMultiPolygon, "coordinates", parts, mp.Foreign)
}

func (gc *GeometryCollection) MarshalJSON() ([]byte, error) {
	geometries := gc.Geometries
	if geometries == nil {
		geometries = []Geometry{}
	}
	return marshalGeometry(TypeGeometryCollection, "geometries", geometries, gc.Foreign)
}

func (u *Unsupported) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Raw)
}

func marshalGeometry(geometryType, key string, value interface{}, foreign map[string]interface{}) ([]byte, error) {
	om := newOrderedObject()
	om.Set("type", geometryType)
	om.Set(key, value)
	setForeign(om, foreign)
	return json.Marshal(om)
}

func nonNilPolygon(p orb.Polygon) orb.Polygon {
	rings := make(orb.Polygon, 0, len(p))
	for _, ring := range p {
		if ring == nil {
			ring = orb.Ring{}
		}
		rings = append(rings, ring)
	}
	return rings
}

func nilIfEmpty(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	return m
}
