package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/config"
	"github.com/azybler/roadnav/pkg/graph"
	osmsource "github.com/azybler/roadnav/pkg/osm"
	"github.com/azybler/roadnav/pkg/shape"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	input := flag.String("input", "", "Path to .geojson or .osm.pbf file")
	output := flag.String("output", "", "Output binary graph file path (default from config)")
	directed := flag.Bool("directed", true, "Build a directed graph from direction codes")
	largest := flag.Bool("largest", false, "Keep only the largest connected component")
	match := flag.String("match", "", "Keep only records whose attribute matches KEY=VALUE")
	bbox := flag.String("bbox", "", "Bounding box filter: minX,minY,maxX,maxY (lon/lat for OSM input)")
	geographic := flag.Bool("geographic", false, "Keep OSM lon/lat instead of projecting to Web Mercator")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.geojson|file.osm.pbf> [--config config.yml] [--output graph.bin] [--directed=false] [--largest] [--match KEY=VALUE] [--bbox minX,minY,maxX,maxY]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if setFlags["output"] {
		cfg.Graph.Path = *output
	}
	if setFlags["directed"] {
		cfg.Graph.Directed = *directed
	}

	start := time.Now()

	var bound *orb.Bound
	if *bbox != "" {
		b, err := parseBound(*bbox)
		if err != nil {
			log.Fatalf("Invalid bbox format (expected minX,minY,maxX,maxY): %v", err)
		}
		bound = &b
		log.Printf("Using bounding box filter: x [%.4f, %.4f), y [%.4f, %.4f)", b.Min[0], b.Max[0], b.Min[1], b.Max[1])
	}

	// Step 1: Read records.
	src, err := newSource(*input, cfg, bound, *geographic)
	if err != nil {
		log.Fatalf("Invalid input: %v", err)
	}
	log.Printf("Reading records from %s...", *input)
	records, err := src.Records(context.Background())
	if err != nil {
		log.Fatalf("Failed to read records: %v", err)
	}
	if _, ok := src.(shape.GeoJSONSource); ok && bound != nil {
		records = shape.Within(records, *bound)
		log.Printf("Kept %d records inside bounding box", len(records))
	}
	if *match != "" {
		key, value, ok := strings.Cut(*match, "=")
		if !ok {
			log.Fatalf("Invalid match format (expected KEY=VALUE): %q", *match)
		}
		records = shape.Matching(records, key, value)
		log.Printf("Kept %d records matching %s", len(records), *match)
	}

	// Step 2: Validate.
	if err := shape.NewValidator().Ingest(records); err != nil {
		log.Fatalf("Failed to ingest records: %v", err)
	}
	extent := shape.Extent(records)
	log.Printf("Ingested %d records, extent [%.4f, %.4f] x [%.4f, %.4f]",
		len(records), extent.Min[0], extent.Max[0], extent.Min[1], extent.Max[1])

	// Step 3: Build graph.
	log.Printf("Building graph (directed=%v)...", cfg.Graph.Directed)
	opts := graph.Options{Directed: cfg.Graph.Directed}
	g := graph.Build(records, opts)
	comps := graph.Components(g)
	log.Printf("Graph: %d nodes, %d edges, %d components", g.NumNodes(), g.NumEdges(), len(comps))

	// Step 4: Optionally extract the largest connected component.
	if *largest && len(comps) > 1 {
		log.Println("Extracting largest connected component...")
		kept := graph.RecordsInComponent(g, comps[0])
		log.Printf("Largest component: %d nodes (%.1f%%), %d records",
			len(comps[0]), float64(len(comps[0]))/float64(g.NumNodes())*100, len(kept))
		g = graph.Build(kept, opts)
		log.Printf("Filtered graph: %d nodes, %d edges", g.NumNodes(), g.NumEdges())
	}

	// Step 5: Serialize to binary.
	log.Printf("Writing binary to %s...", cfg.Graph.Path)
	if err := graph.WriteBinary(cfg.Graph.Path, g); err != nil {
		log.Fatalf("Failed to write binary: %v", err)
	}

	sizeMB, err := fileSizeMB(cfg.Graph.Path)
	if err != nil {
		log.Fatalf("Failed to stat output: %v", err)
	}
	elapsed := time.Since(start)
	log.Printf("Done in %s. Output: %s (%.1f MB)", elapsed.Round(time.Millisecond), cfg.Graph.Path, sizeMB)
}

// parseBound reads "minX,minY,maxX,maxY".
func parseBound(s string) (orb.Bound, error) {
	var minX, minY, maxX, maxY float64
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &minX, &minY, &maxX, &maxY); err != nil {
		return orb.Bound{}, err
	}
	if minX > maxX || minY > maxY {
		return orb.Bound{}, fmt.Errorf("min exceeds max in %q", s)
	}
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}, nil
}

func fileSizeMB(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.Size()) / (1024 * 1024), nil
}

// newSource picks a record source from the input file extension. For OSM
// input the bound is applied while parsing, in lon/lat.
func newSource(input string, cfg config.AppConfig, bound *orb.Bound, geographic bool) (shape.Source, error) {
	switch {
	case strings.HasSuffix(input, ".osm.pbf"), strings.HasSuffix(input, ".pbf"):
		opts := osmsource.Options{Geographic: geographic}
		if bound != nil {
			opts.Bound = *bound
		}
		return osmsource.PBFSource{Path: input, Options: opts}, nil
	case strings.HasSuffix(input, ".geojson"), strings.HasSuffix(input, ".json"):
		return shape.GeoJSONSource{Path: input, Fields: cfg.Source.FieldNames()}, nil
	}
	return nil, fmt.Errorf("unsupported input %q", input)
}
