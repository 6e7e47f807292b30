// Package feature models the GeoJSON objects the metrics work on:
// Features, FeatureCollections and the polygonal geometries inside them.
//
// Members that are not part of the model (foreign members) are kept
// and written back out, so decoding and encoding a file is lossless for
// everything but whitespace and key order.
package feature

import (
	"encoding/json"
	"fmt"

	"github.com/pdok/comparea/mapslicehelp"
	"github.com/perimeterx/marshmallow"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

// Object is either a *Feature or a *FeatureCollection.
type Object interface {
	ObjectType() string
	isObject()
}

// Feature is a GeoJSON Feature.
type Feature struct {
	Type       string                 `json:"type"`
	ID         interface{}            `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"-"`
	// Foreign holds members other than type, id, properties and geometry.
	Foreign map[string]interface{} `json:"-"`
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string                 `json:"type"`
	Features []*Feature             `json:"-"`
	Foreign  map[string]interface{} `json:"-"`
}

// NewFeature returns a Feature with the type tag set and empty properties.
func NewFeature(id interface{}, geometry Geometry) *Feature {
	return &Feature{
		Type:       TypeFeature,
		ID:         id,
		Properties: make(map[string]interface{}),
		Geometry:   geometry,
	}
}

// NewFeatureCollection returns a FeatureCollection holding features.
func NewFeatureCollection(features ...*Feature) *FeatureCollection {
	return &FeatureCollection{
		Type:     TypeFeatureCollection,
		Features: features,
	}
}

func (f *Feature) ObjectType() string { return f.Type }
func (f *Feature) isObject()          {}

func (fc *FeatureCollection) ObjectType() string { return fc.Type }
func (fc *FeatureCollection) isObject()          {}

// Decode parses a GeoJSON Feature or FeatureCollection, dispatching on its type member.
func Decode(data []byte) (Object, error) {
	var dataMap map[string]interface{}
	if err := json.Unmarshal(data, &dataMap); err != nil {
		return nil, err
	}
	return DecodeFromMap(dataMap)
}

// DecodeFromMap is Decode for JSON that has already been unmarshalled into a map.
func DecodeFromMap(dataMap map[string]interface{}) (Object, error) {
	switch t := dataMap["type"]; t {
	case TypeFeatureCollection:
		var fc FeatureCollection
		if err := fc.UnmarshalJSONFromMap(dataMap); err != nil {
			return nil, err
		}
		return &fc, nil
	case TypeFeature:
		var f Feature
		if err := f.UnmarshalJSONFromMap(dataMap); err != nil {
			return nil, err
		}
		return &f, nil
	case nil:
		return nil, fmt.Errorf(`missing key "type"`)
	default:
		return nil, fmt.Errorf(`expected a Feature or FeatureCollection, got type=%v`, t)
	}
}

func (f *Feature) UnmarshalJSON(data []byte) error {
	return unmarshalJSONMapUsingUnmarshalJSONFromMap(f, data)
}

func (f *Feature) UnmarshalJSONFromMap(data interface{}) error {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf(`feature is not an object but a %T`, data)
	}

	specials, err := marshmallow.UnmarshalFromJSONMap(dataMap, f, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	if rawGeometry, ok := specials["geometry"]; ok {
		delete(specials, "geometry")
		if rawGeometry != nil {
			f.Geometry, err = geometryFromJSONMap(rawGeometry)
			if err != nil {
				return fmt.Errorf(`feature %v: %w`, f.ID, err)
			}
		}
	}
	if len(specials) > 0 {
		f.Foreign = specials
	}
	return nil
}

func (f *Feature) MarshalJSON() ([]byte, error) {
	om := newOrderedObject()
	om.Set("type", f.Type)
	if f.ID != nil {
		om.Set("id", f.ID)
	}
	om.Set("properties", f.Properties)
	if f.Geometry != nil {
		om.Set("geometry", f.Geometry)
	} else {
		om.Set("geometry", nil)
	}
	setForeign(om, f.Foreign)
	return json.Marshal(om)
}

func (fc *FeatureCollection) UnmarshalJSON(data []byte) error {
	return unmarshalJSONMapUsingUnmarshalJSONFromMap(fc, data)
}

func (fc *FeatureCollection) UnmarshalJSONFromMap(data interface{}) error {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf(`feature collection is not an object but a %T`, data)
	}

	specials, err := marshmallow.UnmarshalFromJSONMap(dataMap, fc, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	if rawFeatures, ok := specials["features"]; ok {
		delete(specials, "features")
		rawFeaturesList, ok := rawFeatures.([]interface{})
		if rawFeatures != nil && !ok {
			return fmt.Errorf(`"features" should be an array`)
		}
		fc.Features = make([]*Feature, 0, len(rawFeaturesList))
		for i, rawFeature := range rawFeaturesList {
			var f Feature
			if err := f.UnmarshalJSONFromMap(rawFeature); err != nil {
				return fmt.Errorf(`(feature %d) %w`, i, err)
			}
			fc.Features = append(fc.Features, &f)
		}
	}
	if len(specials) > 0 {
		fc.Foreign = specials
	}
	return nil
}

func (fc *FeatureCollection) MarshalJSON() ([]byte, error) {
	om := newOrderedObject()
	om.Set("type", fc.Type)
	features := fc.Features
	if features == nil {
		features = []*Feature{}
	}
	om.Set("features", features)
	setForeign(om, fc.Foreign)
	return json.Marshal(om)
}

func setForeign(om *orderedmap.OrderedMap[string, interface{}], foreign map[string]interface{}) {
	for _, k := range mapslicehelp.SortedKeys(foreign) {
		if _, present := om.Get(k); present {
			continue
		}
		om.Set(k, foreign[k])
	}
}

func unmarshalJSONMapUsingUnmarshalJSONFromMap(target marshmallow.UnmarshalerFromJSONMap, data []byte) error {
	var dataMap map[string]interface{}
	err := json.Unmarshal(data, &dataMap)
	if err != nil {
		return err
	}
	return target.UnmarshalJSONFromMap(dataMap)
}
