// Package gpkg reads features from and writes features to GeoPackages.
package gpkg

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/geomhelp"
	"github.com/pdok/comparea/mapslicehelp"
	"github.com/rs/zerolog/log"
)

const (
	idColumn       = "feature_id"
	geometryColumn = "geom"
)

// WGS84 is the only spatial reference system features are written in, lon/lat in degrees.
var WGS84 = gpkg.SpatialReferenceSystem{
	Name:                   "WGS 84 geodetic",
	ID:                     4326,
	Organization:           "EPSG",
	OrganizationCoordsysID: 4326,
	Definition:             `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`,
	Description:            "longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid",
}

type Column struct {
	Name  string
	CType string
	pk    bool
}

type Table struct {
	Name     string
	Columns  []Column
	gcolumn  string
	gtype    gpkg.GeometryType
	srs      gpkg.SpatialReferenceSystem
	idColumn string
}

var geometryTypeNames = map[gpkg.GeometryType]string{
	gpkg.Geometry:           "GEOMETRY",
	gpkg.Point:              "POINT",
	gpkg.Linestring:         "LINESTRING",
	gpkg.Polygon:            "POLYGON",
	gpkg.MultiPoint:         "MULTIPOINT",
	gpkg.MultiLinestring:    "MULTILINESTRING",
	gpkg.MultiPolygon:       "MULTIPOLYGON",
	gpkg.GeometryCollection: "GEOMETRYCOLLECTION",
}

// geometryTypeFromString returns the numeric value of a geometry string
func geometryTypeFromString(geometrytype string) gpkg.GeometryType {
	for gtype, name := range geometryTypeNames {
		if name == strings.ToUpper(geometrytype) {
			return gtype
		}
	}
	return gpkg.Geometry
}

// TableForFeatures describes a table that holds features: their id, a column per
// property and the geometry. Column types follow the property values, properties
// with mixed or structured values are stored as JSON text.
func TableForFeatures(name string, features []*feature.Feature) Table {
	types := make(map[string]string)
	var names []string
	gtype := gpkg.Geometry
	gtypeSet := false
	for _, f := range features {
		for _, k := range mapslicehelp.SortedKeys(f.Properties) {
			ctype := columnType(f.Properties[k])
			prev, seen := types[k]
			switch {
			case !seen:
				names = append(names, k)
				types[k] = ctype
			case prev == "":
				types[k] = ctype
			case ctype != "" && ctype != prev:
				types[k] = "TEXT"
			}
		}
		ft := featureGeometryType(f.Geometry)
		if !gtypeSet {
			gtype, gtypeSet = ft, true
		} else if gtype != ft {
			gtype = gpkg.Geometry
		}
	}

	t := Table{
		Name:     name,
		gcolumn:  geometryColumn,
		gtype:    gtype,
		srs:      WGS84,
		idColumn: idColumn,
	}
	t.Columns = append(t.Columns, Column{Name: "fid", CType: "INTEGER", pk: true}, Column{Name: idColumn, CType: "TEXT"})
	for _, n := range names {
		if n == idColumn || n == geometryColumn || n == "fid" {
			log.Warn().Str("property", n).Msg("property name clashes with a column, skipping")
			continue
		}
		ctype := types[n]
		if ctype == "" {
			ctype = "TEXT"
		}
		t.Columns = append(t.Columns, Column{Name: n, CType: ctype})
	}
	t.Columns = append(t.Columns, Column{Name: geometryColumn, CType: geometryTypeNames[gtype]})
	return t
}

func columnType(v interface{}) string {
	switch v.(type) {
	case nil:
		return ""
	case string:
		return "TEXT"
	case bool:
		return "BOOLEAN"
	case int, int32, int64:
		return "INTEGER"
	case float64, float32:
		return "REAL"
	default:
		return "TEXT"
	}
}

func featureGeometryType(g feature.Geometry) gpkg.GeometryType {
	switch g.(type) {
	case *feature.Polygon:
		return gpkg.Polygon
	case *feature.MultiPolygon:
		return gpkg.MultiPolygon
	case *feature.GeometryCollection:
		return gpkg.GeometryCollection
	default:
		return gpkg.Geometry
	}
}

// toGeom converts a feature geometry to its go-spatial counterpart.
func toGeom(g feature.Geometry) (geom.Geometry, error) {
	switch g := g.(type) {
	case *feature.Polygon:
		return geomhelp.PolygonToGeomPolygon(g.Coordinates), nil
	case *feature.MultiPolygon:
		return geomhelp.MultiPolygonToGeomMultiPolygon(g.Coordinates), nil
	case *feature.GeometryCollection:
		collection := make(geom.Collection, 0, len(g.Geometries))
		for _, member := range g.Geometries {
			converted, err := toGeom(member)
			if err != nil {
				return nil, err
			}
			collection = append(collection, converted)
		}
		return collection, nil
	default:
		return nil, feature.NewUnsupportedGeometryError(g)
	}
}

// fromGeom converts a decoded go-spatial geometry to a feature geometry.
func fromGeom(g geom.Geometry) feature.Geometry {
	switch g := g.(type) {
	case nil:
		return nil
	case geom.Polygon:
		return &feature.Polygon{Coordinates: geomhelp.GeomPolygonToPolygon(g)}
	case geom.MultiPolygon:
		return &feature.MultiPolygon{Coordinates: geomhelp.GeomMultiPolygonToMultiPolygon(g)}
	case geom.Collection:
		gc := &feature.GeometryCollection{Geometries: make([]feature.Geometry, 0, len(g))}
		for _, member := range g {
			gc.Geometries = append(gc.Geometries, fromGeom(member))
		}
		return gc
	case geom.Point:
		return &feature.Unsupported{Type: "Point", Raw: map[string]interface{}{"type": "Point", "coordinates": g.XY()}}
	case geom.LineString:
		return &feature.Unsupported{Type: "LineString", Raw: map[string]interface{}{"type": "LineString", "coordinates": g.Vertices()}}
	default:
		name := fmt.Sprintf("%T", g)
		return &feature.Unsupported{Type: name, Raw: map[string]interface{}{"type": name}}
	}
}

// columnValue makes a property value fit for a column of ctype.
func columnValue(v interface{}, ctype string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if ctype == "TEXT" {
		if s, ok := v.(string); ok {
			return s, nil
		}
		data, err := json.Marshal(v)
		return string(data), err
	}
	return v, nil
}

type SourceGeopackage struct {
	Table  Table
	handle *gpkg.Handle
	err    error
}

// OpenSource opens a GeoPackage to read features from. Set Table before reading.
func OpenSource(file string) (*SourceGeopackage, error) {
	handle, err := gpkg.Open(file)
	if err != nil {
		return nil, fmt.Errorf("error opening GeoPackage %s: %w", file, err)
	}
	return &SourceGeopackage{handle: handle}, nil
}

func (source *SourceGeopackage) Close() error {
	return source.handle.Close()
}

// Err returns the error that stopped the last ReadFeatures, if any.
func (source *SourceGeopackage) Err() error {
	return source.err
}

// ReadFeatures reads the features of source.Table. The primary key becomes the feature
// id, unless the table has a feature_id column. Reading stops at the first error,
// which is kept for Err.
func (source *SourceGeopackage) ReadFeatures(features chan<- *feature.Feature) {
	defer close(features)
	source.err = nil

	rows, err := source.handle.Query(source.Table.selectSQL())
	if err != nil {
		source.err = fmt.Errorf("error querying features of table %s: %w", source.Table.Name, err)
		return
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		source.err = fmt.Errorf("error reading the columns of table %s: %w", source.Table.Name, err)
		return
	}
	pkColumn := ""
	for _, c := range source.Table.Columns {
		if c.pk {
			pkColumn = c.Name
		}
	}

	for rows.Next() {
		vals := make([]interface{}, len(cols))
		valPtrs := make([]interface{}, len(cols))
		for i := 0; i < len(cols); i++ {
			valPtrs[i] = &vals[i]
		}
		if err = rows.Scan(valPtrs...); err != nil {
			source.err = fmt.Errorf("error reading row values of table %s: %w", source.Table.Name, err)
			return
		}

		f := feature.NewFeature(nil, nil)
		for i, colName := range cols {
			switch colName {
			case source.Table.gcolumn:
				raw, ok := vals[i].([]byte)
				if !ok {
					continue
				}
				sb, err := gpkg.DecodeGeometry(raw)
				if err != nil {
					source.err = fmt.Errorf("error decoding the geometry of table %s: %w", source.Table.Name, err)
					return
				}
				f.Geometry = fromGeom(sb.Geometry)
			case source.Table.idColumn:
				if f.ID, err = propertyValue(vals[i]); err != nil {
					source.err = fmt.Errorf("column %s: %w", colName, err)
					return
				}
			default:
				v, err := propertyValue(vals[i])
				if err != nil {
					source.err = fmt.Errorf("column %s: %w", colName, err)
					return
				}
				if colName == pkColumn {
					if f.ID == nil {
						f.ID = v
					}
					continue
				}
				f.Properties[colName] = v
			}
		}
		features <- f
	}
	if err = rows.Err(); err != nil {
		source.err = fmt.Errorf("error reading rows of table %s: %w", source.Table.Name, err)
	}
}

func propertyValue(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case []uint8:
		return string(v), nil
	case int64, float64, string, bool, nil:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return nil, fmt.Errorf("unexpected type for sqlite column data: %T", v)
	}
}

// Tables lists the feature tables of the GeoPackage.
func (source *SourceGeopackage) Tables() ([]Table, error) {
	query := `SELECT table_name, column_name, geometry_type_name, srs_id FROM gpkg_geometry_columns;`
	rows, err := source.handle.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		var gtype string
		var srsID int
		if err := rows.Scan(&t.Name, &t.gcolumn, &gtype, &srsID); err != nil {
			return nil, fmt.Errorf("error reading the source table information: %w", err)
		}
		t.gtype = geometryTypeFromString(gtype)
		tables = append(tables, t)
		if srsID != int(WGS84.ID) {
			log.Warn().Str("table", t.Name).Int("srs", srsID).Msg("table is not in lon/lat, metrics will be wrong")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range tables {
		if tables[i].Columns, err = getTableColumns(source.handle, tables[i].Name); err != nil {
			return nil, err
		}
		for _, c := range tables[i].Columns {
			if c.Name == idColumn {
				tables[i].idColumn = idColumn
			}
		}
	}
	return tables, nil
}

type TargetGeopackage struct {
	Table    Table
	pagesize int
	handle   *gpkg.Handle
	ext      *geom.Extent
}

// CreateTarget opens (or creates) a GeoPackage and creates table in it.
func CreateTarget(file string, table Table, pagesize int) (*TargetGeopackage, error) {
	handle, err := gpkg.Open(file)
	if err != nil {
		return nil, fmt.Errorf("error opening GeoPackage %s: %w", file, err)
	}
	target := &TargetGeopackage{Table: table, pagesize: pagesize, handle: handle}
	if err := handle.UpdateSRS(table.srs); err != nil {
		handle.Close()
		return nil, err
	}
	if err := buildTable(handle, table); err != nil {
		handle.Close()
		return nil, err
	}
	return target, nil
}

func (target *TargetGeopackage) Close() error {
	return target.handle.Close()
}

func (target *TargetGeopackage) WriteFeatures(features <-chan *feature.Feature) error {
	var page []*feature.Feature
	for f := range features {
		page = append(page, f)
		if len(page)%target.pagesize == 0 {
			if err := target.writeFeatures(page); err != nil {
				return err
			}
			page = nil
		}
	}
	return target.writeFeatures(page)
}

func (target *TargetGeopackage) writeFeatures(features []*feature.Feature) error {
	if len(features) == 0 {
		return nil
	}
	tx, err := target.handle.Begin()
	if err != nil {
		return fmt.Errorf("could not start a transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(target.Table.insertSQL())
	if err != nil {
		return fmt.Errorf("could not prepare a statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range features {
		g, err := toGeom(f.Geometry)
		if err != nil {
			return fmt.Errorf("feature %v: %w", f.ID, err)
		}
		sb, err := gpkg.NewBinary(int32(target.Table.srs.ID), g)
		if err != nil {
			return fmt.Errorf("could not create a binary geometry for feature %v: %w", f.ID, err)
		}

		data := []interface{}{fmt.Sprint(f.ID)}
		for _, c := range target.Table.Columns {
			if c.pk || c.Name == target.Table.idColumn || c.Name == target.Table.gcolumn {
				continue
			}
			v, err := columnValue(f.Properties[c.Name], c.CType)
			if err != nil {
				return fmt.Errorf("feature %v, property %s: %w", f.ID, c.Name, err)
			}
			data = append(data, v)
		}
		data = append(data, sb)

		if _, err = stmt.Exec(data...); err != nil {
			return fmt.Errorf("could not insert feature %v: %w", f.ID, err)
		}

		if target.ext == nil {
			target.ext, err = geom.NewExtentFromGeometry(g)
			if err != nil {
				target.ext = nil
				log.Warn().Err(err).Interface("id", f.ID).Msg("failed to create new extent")
			}
		} else if err := target.ext.AddGeometry(g); err != nil {
			log.Warn().Err(err).Interface("id", f.ID).Msg("failed to extend extent")
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if target.ext == nil {
		return nil
	}
	return target.handle.UpdateGeometryExtent(target.Table.Name, target.ext)
}

// createSQL creates a CREATE statement on the given table and column information
// used for creating feature tables in the target Geopackage
func (t Table) createSQL() string {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v"`, t.Name)
	var columnparts []string
	for _, column := range t.Columns {
		columnpart := quote(column.Name) + ` ` + column.CType
		if column.pk {
			columnpart = columnpart + ` PRIMARY KEY AUTOINCREMENT NOT NULL`
		}
		columnparts = append(columnparts, columnpart)
	}
	return create + `(` + strings.Join(columnparts, `, `) + `);`
}

// selectSQL build a SELECT statement based on the table and columns
// used for reading the source features
func (t Table) selectSQL() string {
	var csql []string
	for _, c := range t.Columns {
		csql = append(csql, quote(c.Name))
	}
	return `SELECT ` + strings.Join(csql, `,`) + ` FROM "` + t.Name + `";`
}

// insertSQL used for writing the features. The primary key is left to sqlite,
// the geometry goes last.
func (t Table) insertSQL() string {
	csql := []string{quote(t.idColumn)}
	vsql := []string{`?`}
	for _, c := range t.Columns {
		if c.pk || c.Name == t.idColumn || c.Name == t.gcolumn {
			continue
		}
		csql = append(csql, quote(c.Name))
		vsql = append(vsql, `?`)
	}
	csql = append(csql, quote(t.gcolumn))
	vsql = append(vsql, `?`)
	return `INSERT INTO "` + t.Name + `"(` + strings.Join(csql, `,`) + `) VALUES(` + strings.Join(vsql, `,`) + `)`
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// getTableColumns collects the column information of a given table
func getTableColumns(h *gpkg.Handle, table string) ([]Column, error) {
	rows, err := h.Query(fmt.Sprintf(`PRAGMA table_info('%v');`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			cid, notnull, pk int
			dfltValue        *string
			c                Column
		)
		if err := rows.Scan(&cid, &c.Name, &c.CType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("error getting the column information: %w", err)
		}
		c.pk = pk == 1
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// buildTable creates a given destination table with the necessary gpkg_ information
func buildTable(h *gpkg.Handle, t Table) error {
	if _, err := h.Exec(t.createSQL()); err != nil {
		return fmt.Errorf("error building table in target GeoPackage: %w", err)
	}

	err := h.AddGeometryTable(gpkg.TableDescription{
		Name:          t.Name,
		ShortName:     t.Name,
		Description:   t.Name,
		GeometryField: t.gcolumn,
		GeometryType:  t.gtype,
		SRS:           int32(t.srs.ID),
		Z:             gpkg.Prohibited,
		M:             gpkg.Prohibited,
	})
	if err != nil {
		return fmt.Errorf("error adding geometry table in target GeoPackage: %w", err)
	}
	return nil
}
