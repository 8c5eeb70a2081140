package shape

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONSource reads records from a GeoJSON FeatureCollection of
// LineString and MultiLineString features in planar coordinates.
// Each MultiLineString part becomes its own record.
type GeoJSONSource struct {
	Path   string
	Fields FieldNames
}

// Records implements Source.
func (s GeoJSONSource) Records(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseGeoJSON(data, s.Fields)
}

// ParseGeoJSON converts a FeatureCollection into records. Features with
// non-line geometries are skipped. Records are not validated here.
func ParseGeoJSON(data []byte, fields FieldNames) ([]Record, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	var records []Record
	for _, f := range fc.Features {
		var parts []orb.LineString
		switch g := f.Geometry.(type) {
		case orb.LineString:
			parts = []orb.LineString{g}
		case orb.MultiLineString:
			parts = g
		default:
			continue
		}

		attrs := make(map[string]string, len(f.Properties))
		for k, v := range f.Properties {
			attrs[k] = fmt.Sprint(v)
		}
		dir := DirectionCode(strings.ToUpper(strings.TrimSpace(f.Properties.MustString(fields.Direction, ""))))
		name := f.Properties.MustString(fields.RoadName, "")

		for _, ls := range parts {
			records = append(records, Record{
				ID:         len(records),
				Geometry:   ls,
				Direction:  dir,
				RoadName:   name,
				Attributes: attrs,
			})
		}
	}
	return records, nil
}
