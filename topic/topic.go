// Package topic reads the metadata of a region (population, description) from
// knowledge-base topics and copies it into feature properties.
//
// A topic is a JSON document whose "property" member maps predicate paths such as
// "/location/statistical_region/population" to a list of values. Topics are
// fetched from a topic service and kept in a file cache.
package topic

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/pdok/comparea/schema"
)

const (
	PathPopulation  = "/location/statistical_region/population"
	PathArea        = "/location/location/area"
	PathDescription = "/common/topic/description"
	PathAlias       = "/common/topic/alias"
	PathWebsite     = "/common/topic/official_website"

	PathDatedNumber = "/measurement_unit/dated_integer/number"
	PathDatedYear   = "/measurement_unit/dated_integer/year"
	PathDatedSource = "/measurement_unit/dated_integer/source"
)

// KeepPaths are the predicate paths that survive pruning of the cache.
var KeepPaths = []string{PathPopulation, PathArea, PathDescription}

type Topic struct {
	ID       string               `json:"id,omitempty"`
	Property map[string]*Property `json:"property,omitempty"`
	Error    interface{}          `json:"error,omitempty"`
}

type Property struct {
	ValueType string  `json:"valuetype,omitempty"`
	Values    []Value `json:"values"`
	Count     float64 `json:"count,omitempty"`
}

// Value is one value of a property. Compound values (a population at a date) carry
// their parts in Property.
type Value struct {
	Text     string               `json:"text,omitempty"`
	Lang     string               `json:"lang,omitempty"`
	ID       string               `json:"id,omitempty"`
	Value    interface{}          `json:"value,omitempty"`
	Property map[string]*Property `json:"property,omitempty"`
}

// first returns the first value of path in props.
func first(props map[string]*Property, path string) (Value, bool) {
	p, ok := props[path]
	if !ok || p == nil || len(p.Values) == 0 {
		return Value{}, false
	}
	return p.Values[0], true
}

func (v Value) get() interface{} {
	if v.Value != nil {
		return v.Value
	}
	return v.Text
}

// GetValue returns the first value of the property at path, or false when the topic doesn't have it.
func GetValue(t *Topic, path string) (interface{}, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := first(t.Property, path)
	if !ok {
		return nil, false
	}
	return v.get(), true
}

// Aliases returns the alternative names of the topic.
func Aliases(t *Topic) []string {
	p, ok := t.Property[PathAlias]
	if !ok || p == nil {
		return nil
	}
	aliases := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		aliases = append(aliases, v.Text)
	}
	return aliases
}

type Population struct {
	Number    int64
	Year      string
	Source    string
	SourceURL string
}

// ExtractPopulation picks the most recent dated population from a population property.
// Values without a number are ignored.
func ExtractPopulation(p *Property) (Population, bool) {
	var best Population
	found := false
	if p == nil {
		return best, false
	}
	for _, v := range p.Values {
		number, ok := first(v.Property, PathDatedNumber)
		if !ok {
			continue
		}
		n, ok := toInt64(number.get())
		if !ok {
			continue
		}
		pop := Population{Number: n}
		if year, ok := first(v.Property, PathDatedYear); ok {
			pop.Year = year.Text
		}
		if source, ok := first(v.Property, PathDatedSource); ok {
			pop.Source = source.Text
			if website, ok := first(source.Property, PathWebsite); ok {
				pop.SourceURL = website.Text
			}
		}
		if !found || pop.Year > best.Year {
			best = pop
			found = true
		}
	}
	return best, found
}

// YearNumber returns the year of the count as a number, or false for a missing or odd date.
func (p Population) YearNumber() (int, bool) {
	if len(p.Year) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(p.Year[:4])
	return year, err == nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// TrimDescription shortens text to at most maxLen characters, cutting after the last
// complete sentence that fits. Text without such a sentence is cut at maxLen with an ellipsis.
func TrimDescription(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) <= maxLen {
		return text
	}
	end := -1
	for i := strings.Index(text, ". "); i >= 0; {
		if len([]rune(text[:i+1])) > maxLen {
			break
		}
		end = i + 1
		next := strings.Index(text[i+1:], ". ")
		if next < 0 {
			break
		}
		i += 1 + next
	}
	if end < 0 {
		return truncate.StringWithTail(text, uint(maxLen), "…")
	}
	return text[:end]
}

// Apply copies the population and description of t into props. Properties the topic
// has no value for are set to nil, so the feature still has every required property.
func Apply(props map[string]interface{}, t *Topic, descriptionLength int) {
	props[schema.PropertyPopulation] = nil
	props[schema.PropertyPopulationYear] = nil
	if t != nil {
		if pop, ok := ExtractPopulation(t.Property[PathPopulation]); ok {
			props[schema.PropertyPopulation] = pop.Number
			if year, ok := pop.YearNumber(); ok {
				props[schema.PropertyPopulationYear] = year
			}
			props[schema.PropertyPopulationSource] = pop.Source
			props[schema.PropertyPopulationSourceURL] = pop.SourceURL
		}
	}
	description := ""
	if d, ok := GetValue(t, PathDescription); ok {
		if s, ok := d.(string); ok {
			description = TrimDescription(s, descriptionLength)
		}
	}
	props[schema.PropertyDescription] = description
}
