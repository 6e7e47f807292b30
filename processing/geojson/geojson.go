// Package geojson reads and writes GeoJSON files for the processing pipeline.
package geojson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/mapslicehelp"
)

// ReadFile decodes the Feature or FeatureCollection in the file at path.
func ReadFile(path string) (feature.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	obj, err := feature.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

// WriteFile encodes obj as indented JSON into the file at path, or to stdout when path is "-".
func WriteFile(path string, obj feature.Object) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Source streams the features of a decoded object. A single Feature is a stream of one.
type Source struct {
	features []*feature.Feature
}

func NewSource(obj feature.Object) *Source {
	switch o := obj.(type) {
	case *feature.FeatureCollection:
		return &Source{features: o.Features}
	case *feature.Feature:
		return &Source{features: []*feature.Feature{o}}
	default:
		return &Source{}
	}
}

func (s *Source) Features() []*feature.Feature {
	return s.features
}

func (s *Source) ReadFeatures(features chan<- *feature.Feature) {
	for _, f := range s.features {
		features <- f
	}
	close(features)
}

// Target writes the features it receives as one FeatureCollection.
type Target struct {
	w       *bufio.Writer
	closer  io.Closer
	foreign map[string]interface{}
}

// NewTarget writes to w. Foreign members are added to the collection after its features.
func NewTarget(w io.Writer, foreign map[string]interface{}) *Target {
	t := &Target{w: bufio.NewWriter(w), foreign: foreign}
	if c, ok := w.(io.Closer); ok && w != os.Stdout {
		t.closer = c
	}
	return t
}

// Create opens the file at path for a Target, "-" writes to stdout.
func Create(path string, foreign map[string]interface{}) (*Target, error) {
	if path == "-" {
		return NewTarget(os.Stdout, foreign), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewTarget(f, foreign), nil
}

func (t *Target) WriteFeatures(features <-chan *feature.Feature) error {
	if _, err := t.w.WriteString(`{"type":"FeatureCollection","features":[`); err != nil {
		return err
	}
	first := true
	for f := range features {
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if !first {
			if err := t.w.WriteByte(','); err != nil {
				return err
			}
		}
		first = false
		if _, err := t.w.WriteString("\n"); err != nil {
			return err
		}
		if _, err := t.w.Write(data); err != nil {
			return err
		}
	}
	if _, err := t.w.WriteString("\n]"); err != nil {
		return err
	}
	for _, k := range mapslicehelp.SortedKeys(t.foreign) {
		if k == "type" || k == "features" {
			continue
		}
		key, _ := json.Marshal(k)
		value, err := json.Marshal(t.foreign[k])
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(t.w, ",%s:%s", key, value); err != nil {
			return err
		}
	}
	if _, err := t.w.WriteString("}\n"); err != nil {
		return err
	}
	return t.w.Flush()
}

func (t *Target) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
