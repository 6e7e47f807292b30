package processing

import (
	"github.com/pdok/comparea/feature"
)

type Source interface {
	ReadFeatures(chan<- *feature.Feature)
}

// FallibleSource is a Source that can stop reading early. Err reports why, once
// ReadFeatures has returned.
type FallibleSource interface {
	Source
	Err() error
}

type Target interface {
	WriteFeatures(<-chan *feature.Feature) error
}
