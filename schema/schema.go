// Package schema checks that features carry the members and properties the
// comparison data set requires of them.
package schema

import (
	"fmt"

	"github.com/pdok/comparea/feature"
)

const (
	PropertyName                = "name"
	PropertyPopulation          = "population"
	PropertyPopulationYear      = "population_year"
	PropertyPopulationSource    = "population_source"
	PropertyPopulationSourceURL = "population_source_url"
	PropertyAreaKm2             = "area_km2"
	PropertyDescription         = "description"
)

// RequiredProperties lists the properties every feature must have, in the order they are checked.
var RequiredProperties = []string{
	PropertyName,
	PropertyPopulation,
	PropertyPopulationYear,
	PropertyAreaKm2,
	PropertyDescription,
}

// Error describes the first problem found in a feature or collection.
type Error struct {
	// Field is the member or property at fault.
	Field string
	// Index is the position of the feature in its collection, or -1.
	Index  int
	Reason string
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("(feature %d) %s", e.Index, e.Reason)
	}
	return e.Reason
}

// CheckFeature returns a *Error when f lacks type, properties or id, is not
// of type Feature, or misses one of the RequiredProperties.
func CheckFeature(f *feature.Feature) error {
	if err := checkFeature(f); err != nil {
		return err
	}
	return nil
}

func checkFeature(f *feature.Feature) *Error {
	if f == nil {
		return &Error{Field: "type", Index: -1, Reason: `feature is missing "type" field`}
	}
	switch {
	case f.Type == "":
		return &Error{Field: "type", Index: -1, Reason: `feature is missing "type" field`}
	case f.Properties == nil:
		return &Error{Field: "properties", Index: -1, Reason: `feature is missing "properties" field`}
	case f.ID == nil:
		return &Error{Field: "id", Index: -1, Reason: `feature is missing "id" field`}
	case f.Type != feature.TypeFeature:
		return &Error{Field: "type", Index: -1, Reason: fmt.Sprintf("expected type=%s, got type=%s", feature.TypeFeature, f.Type)}
	}
	for _, prop := range RequiredProperties {
		if _, ok := f.Properties[prop]; !ok {
			return &Error{Field: prop, Index: -1, Reason: fmt.Sprintf("feature is missing %s property", prop)}
		}
	}
	return nil
}

// CheckFeatureCollection checks the collection itself and then every feature in it.
// Errors about a feature carry its index.
func CheckFeatureCollection(fc *feature.FeatureCollection) error {
	switch {
	case fc == nil || fc.Type == "":
		return &Error{Field: "type", Index: -1, Reason: `feature collection needs a "type" field`}
	case fc.Type != feature.TypeFeatureCollection:
		return &Error{Field: "type", Index: -1, Reason: fmt.Sprintf("expected type=%s, got type=%s", feature.TypeFeatureCollection, fc.Type)}
	case len(fc.Features) == 0:
		return &Error{Field: "features", Index: -1, Reason: "feature collection is missing features"}
	}
	for i, f := range fc.Features {
		if err := checkFeature(f); err != nil {
			err.Index = i
			return err
		}
	}
	return nil
}

// Check dispatches to CheckFeature or CheckFeatureCollection.
func Check(obj feature.Object) error {
	switch o := obj.(type) {
	case *feature.Feature:
		return CheckFeature(o)
	case *feature.FeatureCollection:
		return CheckFeatureCollection(o)
	default:
		return &Error{Field: "type", Index: -1, Reason: fmt.Sprintf("expected a Feature or FeatureCollection, got %T", obj)}
	}
}
