package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/azybler/roadnav/pkg/api"
	"github.com/azybler/roadnav/pkg/config"
	"github.com/azybler/roadnav/pkg/graph"
	"github.com/azybler/roadnav/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	graphPath := flag.String("graph", "graph.bin", "Path to preprocessed graph binary")
	port := flag.Int("port", 8080, "HTTP port")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	maxSnap := flag.Float64("max-snap", routing.DefaultMaxSnapDistance, "Maximum snapping distance (0 = unlimited)")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "graph":
			cfg.Graph.Path = *graphPath
		case "port":
			cfg.Server.Port = *port
		case "cors-origin":
			cfg.Server.CORSOrigin = *corsOrigin
		case "max-snap":
			cfg.Routing.MaxSnapDistance = *maxSnap
		}
	})
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	start := time.Now()

	// Load graph.
	log.Printf("Loading graph from %s...", cfg.Graph.Path)
	g, err := graph.ReadBinary(cfg.Graph.Path)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	comps := graph.Components(g)
	log.Printf("Loaded: %d nodes, %d edges, directed=%v, %d components",
		g.NumNodes(), g.NumEdges(), g.Directed(), len(comps))

	// Build routing engine.
	engine, err := routing.NewEngine(g, cfg.Routing.MaxSnapDistance)
	if err != nil {
		log.Fatalf("Failed to build routing engine: %v", err)
	}

	loadTime := time.Since(start)
	log.Printf("Ready in %s", loadTime.Round(time.Millisecond))

	// Setup HTTP server.
	srvCfg := api.ServerConfigFrom(cfg.Server)

	stats := api.StatsResponse{
		NumNodes:      g.NumNodes(),
		NumEdges:      g.NumEdges(),
		Directed:      g.Directed(),
		NumComponents: len(comps),
	}

	handlers := api.NewHandlers(engine, stats, cfg.Routing.Consolidate)
	srv := api.NewServer(srvCfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
