package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"github.com/pdok/comparea/config"
	"github.com/pdok/comparea/metric"
	"github.com/pdok/comparea/normalize"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const CONFIG string = `config`
const LOGLEVEL string = `logLevel`
const LOGJSON string = `logJson`
const OUTPUT string = `output`
const TARGET string = `targetGpkg`
const TABLE string = `table`
const OVERWRITE string = `overwrite`
const PAGESIZE string = `pagesize`
const LONGITUDES string = `lng`
const LATITUDES string = `lat`
const GROUPBY string = `groupBy`
const ANNOTATE string = `annotate`
const TOPICS string = `topics`
const MINAREA string = `minAreaKm2`
const APIKEY string = `topicApiKey`
const CACHEDIR string = `topicCacheDir`

const configKey = "config"

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "comparea"
	app.Usage = "Area, centroid, convex hull and solidity of GeoJSON regions"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     CONFIG,
			Aliases:  []string{"c"},
			Usage:    "YAML configuration file with projection and topic settings",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(CONFIG)},
		},
		&cli.StringFlag{
			Name:     LOGLEVEL,
			Usage:    "Log level: trace, debug, info, warn or error",
			Value:    "info",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(LOGLEVEL)},
		},
		&cli.BoolFlag{
			Name:     LOGJSON,
			Usage:    "Log as JSON instead of human readable lines",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(LOGJSON)},
		},
	}

	app.Before = func(c *cli.Context) error {
		// a missing .env is fine, everything can be set in the environment itself
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := setupLogging(c.String(LOGLEVEL), c.Bool(LOGJSON)); err != nil {
			return err
		}
		cfg := config.Default()
		if path := c.String(CONFIG); path != "" {
			var err error
			if cfg, err = config.Load(path); err != nil {
				return err
			}
			log.Debug().Str("path", path).Msg("loaded configuration")
		}
		c.App.Metadata = map[string]interface{}{configKey: cfg}
		return nil
	}

	outputFlag := &cli.StringFlag{
		Name:    OUTPUT,
		Aliases: []string{"o"},
		Usage:   "Output GeoJSON file, - for stdout",
		Value:   "-",
		EnvVars: []string{strcase.ToScreamingSnake(OUTPUT)},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "stats",
			Usage:     "Print area, centroid, bounding box and solidity of every feature",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Action:    stats,
		},
		{
			Name:      "validate",
			Usage:     "Check that a Feature or FeatureCollection has the required members and properties",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Action:    validate,
		},
		{
			Name:      "normalize",
			Usage:     "Make every ring clockwise",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Flags:     []cli.Flag{outputFlag},
			Action:    normalizeCmd,
		},
		{
			Name:      "subset",
			Usage:     "Keep only the rings whose centroid lies in the given ranges",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Flags: []cli.Flag{
				outputFlag,
				&cli.StringFlag{
					Name:    LONGITUDES,
					Usage:   `Open longitude range "min,max"`,
					Value:   normalize.AllLongitudes.String(),
					EnvVars: []string{strcase.ToScreamingSnake(LONGITUDES)},
				},
				&cli.StringFlag{
					Name:    LATITUDES,
					Usage:   `Open latitude range "min,max"`,
					Value:   normalize.AllLatitudes.String(),
					EnvVars: []string{strcase.ToScreamingSnake(LATITUDES)},
				},
			},
			Action: subset,
		},
		{
			Name:      "add",
			Usage:     "Add the features of the second file to the first",
			ArgsUsage: "<base.geojson> <extra.geojson>",
			Flags:     []cli.Flag{outputFlag},
			Action:    add,
		},
		{
			Name:      "hull",
			Usage:     "Write the convex hull of every feature",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Flags:     []cli.Flag{outputFlag},
			Action:    hull,
		},
		{
			Name:      "rank",
			Usage:     "Rank the features of a collection by area",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    GROUPBY,
					Usage:   "Sum the areas per value of this property instead",
					EnvVars: []string{strcase.ToScreamingSnake(GROUPBY)},
				},
			},
			Action: rankCmd,
		},
		{
			Name:      "compare",
			Usage:     "Compare the size and position of two regions",
			ArgsUsage: "<a.geojson> <b.geojson>",
			Action:    compare,
		},
		{
			Name:      "annotate",
			Usage:     "Add area_km2, solidity, centroid and bbox properties, and optionally population and description",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Flags: []cli.Flag{
				outputFlag,
				&cli.BoolFlag{
					Name:    TOPICS,
					Usage:   "Fetch population and description from the topic service",
					EnvVars: []string{strcase.ToScreamingSnake(TOPICS)},
				},
				topicAPIKeyFlag(),
				topicCacheDirFlag(),
				minAreaFlag(),
			},
			Action: annotate,
		},
		{
			Name:      "export",
			Usage:     "Write the features to a GeoPackage table",
			ArgsUsage: "<file.geojson|file.gpkg>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     TARGET,
					Aliases:  []string{"t"},
					Usage:    "Target GPKG",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(TARGET)},
				},
				&cli.StringFlag{
					Name:    TABLE,
					Usage:   "Name of the table to create",
					Value:   "regions",
					EnvVars: []string{strcase.ToScreamingSnake(TABLE)},
				},
				&cli.BoolFlag{
					Name:    OVERWRITE,
					Aliases: []string{"w"},
					Usage:   "Overwrite the target GPKG if it exists",
					EnvVars: []string{strcase.ToScreamingSnake(OVERWRITE)},
				},
				&cli.IntFlag{
					Name:    PAGESIZE,
					Aliases: []string{"p"},
					Usage:   "Page Size, how many features are written per transaction to the target GPKG. Defaults to the configured page size",
					EnvVars: []string{strcase.ToScreamingSnake(PAGESIZE)},
				},
				&cli.BoolFlag{
					Name:    ANNOTATE,
					Aliases: []string{"a"},
					Usage:   "Add the metrics as columns",
					EnvVars: []string{strcase.ToScreamingSnake(ANNOTATE)},
				},
				minAreaFlag(),
			},
			Action: export,
		},
		{
			Name:   "prune-cache",
			Usage:  "Strip cached topics down to the properties that are used",
			Flags:  []cli.Flag{topicCacheDirFlag()},
			Action: pruneCache,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Msg("comparea failed")
	}
}

func minAreaFlag() cli.Flag {
	return &cli.Float64Flag{
		Name:    MINAREA,
		Usage:   "Drop polygons and holes of at most this many square kilometres first",
		EnvVars: []string{strcase.ToScreamingSnake(MINAREA)},
	}
}

func topicAPIKeyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    APIKEY,
		Usage:   "Key for the topic service",
		EnvVars: []string{strcase.ToScreamingSnake(APIKEY)},
	}
}

func topicCacheDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    CACHEDIR,
		Usage:   "Directory of the topic cache. Defaults to the configured directory",
		EnvVars: []string{strcase.ToScreamingSnake(CACHEDIR)},
	}
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}

func calculatorFrom(c *cli.Context) (*metric.Calculator, error) {
	return metric.New(configFrom(c).Projection)
}

// parseRange reads an open range written as "min,max", optionally in parentheses.
func parseRange(s string) (normalize.Range, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != 2 {
		return normalize.Range{}, fmt.Errorf("range should be min,max, got %q", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return normalize.Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return normalize.Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	if lo > hi {
		return normalize.Range{}, fmt.Errorf("range %q: min is larger than max", s)
	}
	return normalize.Range{Min: lo, Max: hi}, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	var pathError *os.PathError
	if err != nil && !(errors.As(err, &pathError) && errors.Is(pathError.Err, syscall.ENOENT)) {
		return fmt.Errorf("could not remove target file: %w", err)
	}
	return nil
}
