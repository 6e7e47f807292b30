package feature

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Clone returns a deep copy of obj that shares no memory with it.
func Clone(obj Object) Object {
	switch o := obj.(type) {
	case *Feature:
		return CloneFeature(o)
	case *FeatureCollection:
		return CloneFeatureCollection(o)
	case nil:
		return nil
	default:
		panic(fmt.Errorf(`unknown object type %T`, obj))
	}
}

func CloneFeature(f *Feature) *Feature {
	if f == nil {
		return nil
	}
	return &Feature{
		Type:       f.Type,
		ID:         cloneJSONValue(f.ID),
		Properties: cloneJSONObject(f.Properties),
		Geometry:   CloneGeometry(f.Geometry),
		Foreign:    cloneJSONObject(f.Foreign),
	}
}

func CloneFeatureCollection(fc *FeatureCollection) *FeatureCollection {
	if fc == nil {
		return nil
	}
	var features []*Feature
	if fc.Features != nil {
		features = make([]*Feature, len(fc.Features))
		for i := range fc.Features {
			features[i] = CloneFeature(fc.Features[i])
		}
	}
	return &FeatureCollection{
		Type:     fc.Type,
		Features: features,
		Foreign:  cloneJSONObject(fc.Foreign),
	}
}

func CloneGeometry(g Geometry) Geometry {
	switch g := g.(type) {
	case *Polygon:
		return &Polygon{Coordinates: g.Coordinates.Clone(), Foreign: cloneJSONObject(g.Foreign)}
	case *MultiPolygon:
		return &MultiPolygon{Coordinates: g.Coordinates.Clone(), Foreign: cloneJSONObject(g.Foreign)}
	case *GeometryCollection:
		var geometries []Geometry
		if g.Geometries != nil {
			geometries = make([]Geometry, len(g.Geometries))
			for i := range g.Geometries {
				geometries[i] = CloneGeometry(g.Geometries[i])
			}
		}
		return &GeometryCollection{Geometries: geometries, Foreign: cloneJSONObject(g.Foreign)}
	case *Unsupported:
		return &Unsupported{Type: g.Type, Raw: cloneJSONObject(g.Raw)}
	default:
		return nil
	}
}

func cloneJSONObject(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = cloneJSONValue(v)
	}
	return c
}

func cloneJSONValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		return cloneJSONObject(v)
	case []interface{}:
		c := make([]interface{}, len(v))
		for i := range v {
			c[i] = cloneJSONValue(v[i])
		}
		return c
	default:
		// strings, numbers, bools and nil are immutable
		return v
	}
}

func newOrderedObject() *orderedmap.OrderedMap[string, interface{}] {
	return orderedmap.New[string, interface{}]()
}
