package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/metric"
	"github.com/pdok/comparea/normalize"
	"github.com/pdok/comparea/processing"
	"github.com/pdok/comparea/processing/geojson"
	"github.com/pdok/comparea/processing/gpkg"
	"github.com/pdok/comparea/rank"
	"github.com/pdok/comparea/schema"
	"github.com/pdok/comparea/sieve"
	"github.com/pdok/comparea/topic"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func readArg(c *cli.Context, i int) (feature.Object, error) {
	path := c.Args().Get(i)
	if path == "" {
		return nil, fmt.Errorf("missing argument %d, usage: %s %s", i+1, c.Command.Name, c.Command.ArgsUsage)
	}
	if strings.EqualFold(filepath.Ext(path), ".gpkg") {
		return readGeopackage(path)
	}
	return geojson.ReadFile(path)
}

// readGeopackage reads the features of every feature table into one collection.
func readGeopackage(path string) (feature.Object, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error opening source GeoPackage: %w", err)
	}
	source, err := gpkg.OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer source.Close()
	tables, err := source.Tables()
	if err != nil {
		return nil, err
	}
	var features []*feature.Feature
	for _, table := range tables {
		log.Debug().Str("table", table.Name).Msg("reading")
		source.Table = table
		if _, err := processing.ProcessFeatures(source, []processing.Target{collector{&features}}, processing.Keep); err != nil {
			return nil, err
		}
	}
	return feature.NewFeatureCollection(features...), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stats(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	calc, err := calculatorFrom(c)
	if err != nil {
		return err
	}
	out := orderedmap.New[string, interface{}]()
	if fc, ok := obj.(*feature.FeatureCollection); ok {
		features := make([]interface{}, 0, len(fc.Features))
		for i, f := range fc.Features {
			entry := orderedmap.New[string, interface{}]()
			entry.Set("id", f.ID)
			summary, err := calc.Summarize(f)
			if err != nil {
				log.Warn().Err(err).Int("feature", i).Interface("id", f.ID).Msg("no metrics")
				entry.Set("error", err.Error())
			} else {
				entry.Set("metrics", summary)
			}
			features = append(features, entry)
		}
		out.Set("features", features)
	}
	total, err := calc.Summarize(obj)
	switch {
	case metric.IsGeometryError(err):
		out.Set("error", err.Error())
	case err != nil:
		return err
	default:
		out.Set("total", total)
	}
	return printJSON(out)
}

func validate(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	if err := schema.Check(obj); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	log.Info().Str("file", c.Args().First()).Msg("valid")
	return nil
}

func normalizeCmd(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	clockwise, err := normalize.Clockwise(obj)
	if err != nil {
		return err
	}
	return geojson.WriteFile(c.String(OUTPUT), clockwise)
}

func subset(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	lng, err := parseRange(c.String(LONGITUDES))
	if err != nil {
		return err
	}
	lat, err := parseRange(c.String(LATITUDES))
	if err != nil {
		return err
	}
	calc, err := calculatorFrom(c)
	if err != nil {
		return err
	}
	subset, err := normalize.Subset(obj, lng, lat, calc.EqualArea())
	if err != nil {
		return err
	}
	return geojson.WriteFile(c.String(OUTPUT), subset)
}

func add(c *cli.Context) error {
	base, err := readArg(c, 0)
	if err != nil {
		return err
	}
	extra, err := readArg(c, 1)
	if err != nil {
		return err
	}
	combined := base
	switch e := extra.(type) {
	case *feature.Feature:
		if combined, err = normalize.AddFeature(combined, e); err != nil {
			return err
		}
	case *feature.FeatureCollection:
		for _, f := range e.Features {
			if combined, err = normalize.AddFeature(combined, f); err != nil {
				return err
			}
		}
	}
	return geojson.WriteFile(c.String(OUTPUT), combined)
}

func hull(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	calc, err := calculatorFrom(c)
	if err != nil {
		return err
	}
	hullOf := func(f *feature.Feature) (*feature.Feature, error) {
		polygon, err := calc.ConvexHullPolygon(f)
		if err != nil {
			return nil, err
		}
		out := feature.NewFeature(f.ID, &feature.Polygon{Coordinates: polygon})
		if name, ok := f.Properties[schema.PropertyName]; ok {
			out.Properties[schema.PropertyName] = name
		}
		return out, nil
	}
	target, err := geojson.Create(c.String(OUTPUT), nil)
	if err != nil {
		return err
	}
	defer target.Close()
	_, err = processing.ProcessFeatures(geojson.NewSource(obj), []processing.Target{target}, hullOf)
	return err
}

func rankCmd(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	fc, ok := obj.(*feature.FeatureCollection)
	if !ok {
		fc = feature.NewFeatureCollection(obj.(*feature.Feature))
	}
	calc, err := calculatorFrom(c)
	if err != nil {
		return err
	}
	if property := c.String(GROUPBY); property != "" {
		groups, err := rank.GroupBy(fc, calc, property)
		if err != nil {
			return err
		}
		if group, area, ties := rank.Largest(groups); ties > 0 {
			log.Info().Str("group", group).Float64("area_km2", area).Uint("ties", ties).Msg("largest")
		}
		return printJSON(groups)
	}
	entries, err := rank.ByArea(fc, calc)
	if err != nil {
		return err
	}
	return printJSON(entries)
}

func compare(c *cli.Context) error {
	a, err := readArg(c, 0)
	if err != nil {
		return err
	}
	b, err := readArg(c, 1)
	if err != nil {
		return err
	}
	calc, err := calculatorFrom(c)
	if err != nil {
		return err
	}
	comparison, err := rank.Compare(a, b, calc)
	if err != nil {
		return err
	}
	log.Info().Str("bigger", comparison.Bigger()).Float64("ratio", comparison.AreaRatio).Msg("compared")
	return printJSON(comparison)
}

func annotate(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	calc, err := calculatorFrom(c)
	if err != nil {
		return err
	}
	process := processing.Annotate(calc)
	if minArea := c.Float64(MINAREA); minArea > 0 {
		process = processing.Chain(sieve.Sieve(calc.EqualArea(), minArea), process)
	}
	if c.Bool(TOPICS) {
		cfg := topicConfig(c)
		cache, err := topic.NewCache(cfg.CacheDir)
		if err != nil {
			return err
		}
		client, err := topic.NewClient(cfg, cache)
		if err != nil {
			return err
		}
		process = processing.Chain(process, describe(c.Context, client, cfg.DescriptionLength))
	}
	var foreign map[string]interface{}
	if fc, ok := obj.(*feature.FeatureCollection); ok {
		foreign = fc.Foreign
	}
	target, err := geojson.Create(c.String(OUTPUT), foreign)
	if err != nil {
		return err
	}
	defer target.Close()
	_, err = processing.ProcessFeatures(geojson.NewSource(obj), []processing.Target{target}, process)
	return err
}

func export(c *cli.Context) error {
	obj, err := readArg(c, 0)
	if err != nil {
		return err
	}
	targetPath := c.String(TARGET)
	if c.Bool(OVERWRITE) {
		if err := removeIfExists(targetPath); err != nil {
			return err
		}
	}
	pagesize := c.Int(PAGESIZE)
	if pagesize <= 0 {
		pagesize = configFrom(c).PageSize
	}

	source := geojson.NewSource(obj)
	features := source.Features()
	minArea := c.Float64(MINAREA)
	if c.Bool(ANNOTATE) || minArea > 0 {
		calc, err := calculatorFrom(c)
		if err != nil {
			return err
		}
		var steps []processing.ProcessFunc
		if minArea > 0 {
			steps = append(steps, sieve.Sieve(calc.EqualArea(), minArea))
		}
		if c.Bool(ANNOTATE) {
			steps = append(steps, processing.Annotate(calc))
		}
		// process first, the columns follow the processed properties
		features = nil
		if _, err = processing.ProcessFeatures(source, []processing.Target{collector{&features}}, processing.Chain(steps...)); err != nil {
			return err
		}
		source = geojson.NewSource(feature.NewFeatureCollection(features...))
	}

	table := gpkg.TableForFeatures(c.String(TABLE), features)
	target, err := gpkg.CreateTarget(targetPath, table, pagesize)
	if err != nil {
		return err
	}
	defer target.Close()

	log.Info().Str("target", targetPath).Str("table", table.Name).Msg("=== start export ===")
	_, err = processing.ProcessFeatures(source, []processing.Target{target}, processing.Keep)
	if err != nil {
		return err
	}
	log.Info().Str("target", targetPath).Msg("=== done export ===")
	return nil
}

func pruneCache(c *cli.Context) error {
	cache, err := topic.NewCache(topicConfig(c).CacheDir)
	if err != nil {
		return err
	}
	_, err = cache.Prune(topic.KeepPaths)
	return err
}

func topicConfig(c *cli.Context) topic.Config {
	cfg := configFrom(c).Topic
	if key := c.String(APIKEY); key != "" {
		cfg.APIKey = key
	}
	if dir := c.String(CACHEDIR); dir != "" {
		cfg.CacheDir = dir
	}
	return cfg
}

// describe fills population and description from the topic named by the wikipedia
// property of a feature, or else by its name.
func describe(ctx context.Context, client *topic.Client, descriptionLength int) processing.ProcessFunc {
	return func(f *feature.Feature) (*feature.Feature, error) {
		title, _ := f.Properties[schema.PropertyName].(string)
		if wikiURL, ok := f.Properties["wikipedia"].(string); ok {
			if t, ok := topic.WikiURLToTitle(wikiURL); ok {
				title = t
			}
		}
		var t *topic.Topic
		if title != "" {
			var err error
			if t, err = client.Fetch(ctx, title); err != nil {
				log.Warn().Err(err).Str("title", title).Msg("no topic")
			}
		}
		out := feature.CloneFeature(f)
		topic.Apply(out.Properties, t, descriptionLength)
		return out, nil
	}
}

type collector struct {
	features *[]*feature.Feature
}

func (c collector) WriteFeatures(features <-chan *feature.Feature) error {
	for f := range features {
		*c.features = append(*c.features, f)
	}
	return nil
}
