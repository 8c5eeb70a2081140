// Package osm reads road centerlines from OpenStreetMap PBF extracts.
package osm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/azybler/roadnav/pkg/shape"
)

var (
	errMissingCoord = errors.New("missing node coordinate")
	errCollapsed    = errors.New("piece collapses to a single point")
)

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !carHighways[hw] {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	// Skip restricted access.
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}

	return true
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	// Default: bidirectional.
	forward = true
	backward = true

	hw := tags.Find("highway")

	// Implied oneway for motorways and roundabouts.
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	// Explicit oneway tag overrides.
	oneway := tags.Find("oneway")
	switch oneway {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent, skip entirely.
		forward = false
		backward = false
	}

	return forward, backward
}

// directionCode maps direction flags onto a record direction code.
func directionCode(forward, backward bool) shape.DirectionCode {
	switch {
	case forward && backward:
		return shape.Both
	case forward:
		return shape.Forward
	default:
		return shape.Reverse
	}
}

// roadName picks the display name of a way: name, then ref, then the
// highway class.
func roadName(tags osm.Tags) string {
	if n := tags.Find("name"); n != "" {
		return n
	}
	if r := tags.Find("ref"); r != "" {
		return r
	}
	return "unnamed " + tags.Find("highway")
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	ID        osm.WayID
	NodeIDs   []osm.NodeID
	Direction shape.DirectionCode
	RoadName  string
	Highway   string
}

// Options configures the PBF reader.
type Options struct {
	// Bound, in WGS84 lon/lat, drops pieces with a terminal outside it.
	// A zero bound keeps everything.
	Bound orb.Bound
	// Geographic keeps lon/lat coordinates instead of projecting to
	// Web Mercator metres.
	Geographic bool
}

// PBFSource reads car-accessible ways from an OSM PBF file.
type PBFSource struct {
	Path    string
	Options Options
}

// Records implements shape.Source.
func (s PBFSource) Records(ctx context.Context) ([]shape.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(ctx, f, s.Options)
}

// Parse reads an OSM PBF stream and returns one record per way piece
// between intersections. The reader is consumed twice (seeks back to start
// for the second pass), so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opt Options) ([]shape.Record, error) {
	// Pass 1: Scan ways to collect referenced node IDs and way info.
	ways, referenced, err := scanWays(ctx, rs)
	if err != nil {
		return nil, err
	}
	log.Printf("Pass 1 complete: %d ways, %d referenced nodes", len(ways), len(referenced))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}
	coords, err := scanNodes(ctx, rs, referenced)
	if err != nil {
		return nil, err
	}
	log.Printf("Pass 2 complete: %d node coordinates collected", len(coords))

	records := buildRecords(ways, coords, opt)
	log.Printf("Built %d records", len(records))
	return records, nil
}

func scanWays(ctx context.Context, rs io.Reader) ([]wayInfo, map[osm.NodeID]struct{}, error) {
	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
			continue
		}
		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := w.Nodes.NodeIDs()
		for _, id := range nodeIDs {
			referenced[id] = struct{}{}
		}
		ways = append(ways, wayInfo{
			ID:        w.ID,
			NodeIDs:   nodeIDs,
			Direction: directionCode(fwd, bwd),
			RoadName:  roadName(w.Tags),
			Highway:   w.Tags.Find("highway"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	return ways, referenced, nil
}

func scanNodes(ctx context.Context, rs io.Reader, referenced map[osm.NodeID]struct{}) (map[osm.NodeID]orb.Point, error) {
	coords := make(map[osm.NodeID]orb.Point, len(referenced))

	scanner := osmpbf.New(ctx, rs, 1)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		coords[n.ID] = n.Point()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	return coords, nil
}

// buildRecords turns ways into records. Ways are split at every node shared
// with another way (or revisited by the same way), so intersections become
// geometry terminals.
func buildRecords(ways []wayInfo, coords map[osm.NodeID]orb.Point, opt Options) []shape.Record {
	uses := make(map[osm.NodeID]int)
	for _, w := range ways {
		for _, id := range w.NodeIDs {
			uses[id]++
		}
	}

	useBound := !opt.Bound.IsZero()
	var records []shape.Record
	var missing, collapsed, outside int

	for _, w := range ways {
		for _, piece := range splitWay(w.NodeIDs, uses) {
			ls, err := pieceGeometry(piece, coords)
			switch {
			case errors.Is(err, errMissingCoord):
				missing++
				continue
			case errors.Is(err, errCollapsed):
				collapsed++
				continue
			}
			if useBound && (!opt.Bound.Contains(ls[0]) || !opt.Bound.Contains(ls[len(ls)-1])) {
				outside++
				continue
			}
			if !opt.Geographic {
				ls = project.LineString(ls, project.WGS84.ToMercator)
			}
			records = append(records, shape.Record{
				ID:        len(records),
				Geometry:  ls,
				Direction: w.Direction,
				RoadName:  w.RoadName,
				Attributes: map[string]string{
					"osm_way_id": strconv.FormatInt(int64(w.ID), 10),
					"highway":    w.Highway,
				},
			})
		}
	}

	if missing > 0 {
		log.Printf("Warning: skipped %d pieces due to missing node coordinates", missing)
	}
	if collapsed > 0 {
		log.Printf("Skipped %d pieces whose nodes share one location", collapsed)
	}
	if outside > 0 {
		log.Printf("Filtered %d pieces outside bounding box", outside)
	}
	return records
}

// splitWay cuts nodeIDs at every interior node used more than once.
func splitWay(nodeIDs []osm.NodeID, uses map[osm.NodeID]int) [][]osm.NodeID {
	var pieces [][]osm.NodeID
	start := 0
	for i := 1; i < len(nodeIDs); i++ {
		if i == len(nodeIDs)-1 || uses[nodeIDs[i]] > 1 {
			pieces = append(pieces, nodeIDs[start:i+1])
			start = i
		}
	}
	return pieces
}

// pieceGeometry resolves node coordinates. Consecutive duplicate points are
// dropped. It fails with errMissingCoord when a node has no coordinate and
// errCollapsed when fewer than two distinct points remain.
func pieceGeometry(piece []osm.NodeID, coords map[osm.NodeID]orb.Point) (orb.LineString, error) {
	ls := make(orb.LineString, 0, len(piece))
	for _, id := range piece {
		p, ok := coords[id]
		if !ok {
			return nil, errMissingCoord
		}
		if len(ls) > 0 && ls[len(ls)-1] == p {
			continue
		}
		ls = append(ls, p)
	}
	if len(ls) < 2 {
		return nil, errCollapsed
	}
	return ls, nil
}
