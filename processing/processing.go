// Package processing takes care of the logistics around reading from a Source and
// writing to Targets. Not the processing operation(s) itself.
package processing

import (
	"errors"
	"sync"

	"github.com/pdok/comparea/feature"
	"github.com/rs/zerolog/log"
)

// ProcessFunc processes a single feature. Returning nil drops the feature,
// returning an error drops it and counts it as failed.
type ProcessFunc func(f *feature.Feature) (*feature.Feature, error)

// Stats counts the features that went through ProcessFeatures.
type Stats struct {
	Total         uint64
	Polygons      uint64
	MultiPolygons uint64
	Collections   uint64
	Unsupported   uint64
	Failed        uint64
	Kept          uint64
}

// readFeaturesFromSource reads the features from the given source
func readFeaturesFromSource(source Source, features chan<- *feature.Feature) {
	source.ReadFeatures(features)
}

// processFeatures processes the features with the given function
func processFeatures(featuresIn <-chan *feature.Feature, featuresOut chan<- *feature.Feature, f ProcessFunc) Stats {
	var stats Stats
	for {
		in, hasMore := <-featuresIn
		if !hasMore {
			break
		}
		stats.Total++
		switch in.Geometry.(type) {
		case *feature.Polygon:
			stats.Polygons++
		case *feature.MultiPolygon:
			stats.MultiPolygons++
		case *feature.GeometryCollection:
			stats.Collections++
		default:
			stats.Unsupported++
		}
		out, err := f(in)
		if err != nil {
			stats.Failed++
			log.Warn().Err(err).Interface("id", in.ID).Msg("skipping feature")
			continue
		}
		if out == nil {
			continue
		}
		stats.Kept++
		featuresOut <- out
	}
	close(featuresOut)

	log.Info().
		Uint64("total", stats.Total).
		Uint64("polygons", stats.Polygons).
		Uint64("multipolygons", stats.MultiPolygons).
		Uint64("collections", stats.Collections).
		Uint64("unsupported", stats.Unsupported).
		Uint64("failed", stats.Failed).
		Uint64("kept", stats.Kept).
		Msg("processed features")
	return stats
}

// writeFeaturesToTargets hands every processed feature to each of the targets.
// The targets must not modify the features, they are shared.
func writeFeaturesToTargets(features <-chan *feature.Feature, targets []Target) error {
	targetChannels := make([]chan *feature.Feature, len(targets))
	errs := make([]error, len(targets))
	wg := sync.WaitGroup{}

	// create a channel and start a goroutine per target
	for i, target := range targets {
		targetChannel := make(chan *feature.Feature)
		targetChannels[i] = targetChannel
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()
			errs[i] = target.WriteFeatures(targetChannel)
			// keep draining so the other targets don't block
			for range targetChannel {
			}
		}(i, target)
	}

	for f := range features {
		for _, channel := range targetChannels {
			channel <- f
		}
	}

	// close the channels, the targets will do their last writing
	for _, targetChannel := range targetChannels {
		close(targetChannel)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// ProcessFeatures applies the processing function to every feature of source and
// writes the results to all targets. When source is a FallibleSource, its error is
// returned along with those of the targets.
func ProcessFeatures(source Source, targets []Target, f ProcessFunc) (Stats, error) {
	featuresBefore := make(chan *feature.Feature)
	featuresAfter := make(chan *feature.Feature)

	var stats Stats
	var err error
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		err = writeFeaturesToTargets(featuresAfter, targets)
	}()
	go func() {
		defer wg.Done()
		stats = processFeatures(featuresBefore, featuresAfter, f)
	}()
	go readFeaturesFromSource(source, featuresBefore)

	wg.Wait()
	if fallible, ok := source.(FallibleSource); ok {
		if readErr := fallible.Err(); readErr != nil {
			return stats, errors.Join(readErr, err)
		}
	}
	return stats, err
}
