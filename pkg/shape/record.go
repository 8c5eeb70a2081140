package shape

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/geo"
)

// DirectionCode says which way traffic may travel along a geometry,
// relative to its stored point order.
type DirectionCode string

const (
	Forward DirectionCode = "F"
	Reverse DirectionCode = "R"
	Both    DirectionCode = "B"
)

// AllowsForward reports whether travel from the first to the last point is permitted.
func (d DirectionCode) AllowsForward() bool { return d == Forward || d == Both }

// AllowsReverse reports whether travel from the last to the first point is permitted.
func (d DirectionCode) AllowsReverse() bool { return d == Reverse || d == Both }

// Record is a road geometry with the attributes navigation needs.
// ID is the record's position in the ingested sequence.
type Record struct {
	ID         int               `validate:"gte=0"`
	Geometry   orb.LineString    `validate:"min=2,nondegenerate"`
	Direction  DirectionCode     `validate:"oneof=F R B"`
	RoadName   string            `validate:"required"`
	Attributes map[string]string `validate:"-"`
}

// FieldNames names the attributes that carry the direction code and road
// name in a source's attribute table.
type FieldNames struct {
	Direction string `yaml:"directionField"`
	RoadName  string `yaml:"roadNameField"`
}

// DefaultFieldNames matches the Vicmap transport road centerline schema.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		Direction: "DIR_CODE",
		RoadName:  "EZIRDNMLBL",
	}
}

// Source produces an ordered sequence of records.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// Geometries returns the geometry of every record, in order.
func Geometries(records []Record) []orb.LineString {
	out := make([]orb.LineString, len(records))
	for i := range records {
		out[i] = records[i].Geometry
	}
	return out
}

// Matching returns the records whose attribute key equals value.
func Matching(records []Record, key, value string) []Record {
	var out []Record
	for _, r := range records {
		if r.Attributes[key] == value {
			out = append(out, r)
		}
	}
	return out
}

// Within returns the records whose geometry bounds lie inside bb, lower
// bound inclusive and upper bound exclusive.
func Within(records []Record, bb orb.Bound) []Record {
	ids := geo.ClippedIDs(Geometries(records), bb)
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = records[id]
	}
	return out
}

// Extent returns the bounds covering every record geometry. It is the zero
// bound for no records.
func Extent(records []Record) orb.Bound {
	if len(records) == 0 {
		return orb.Bound{}
	}
	b := geo.BoundingBox(records[0].Geometry)
	for _, r := range records[1:] {
		b = b.Union(geo.BoundingBox(r.Geometry))
	}
	return b
}
