package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	nodesPath := flag.String("nodes", "", "node file to build from at startup (text \"id x y\" or GeoJSON)")
	configPath := flag.String("config", "", "YAML build configuration")
	dbPath := flag.String("db", "", "SQLite database for build history (disabled when empty)")
	graphFile := flag.String("graph", "proximity_graph.json", "JSON snapshot loaded at startup and written on saveToFile")
	watch := flag.Bool("watch", false, "rebuild when the -nodes file changes")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("========================================")
	log.Println("🚀 Proximity Graph Server")
	log.Println("========================================")

	cfg := DefaultBuildConfig()
	if *configPath != "" {
		loaded, err := LoadBuildConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	log.Printf("   Wedge half-angle: %.3f°, ratio limit: %.2f, minimum length: %.2f\n",
		cfg.AngleDegrees, cfg.LengthRatioLimit, cfg.MinimumLength)

	var store *Store
	if *dbPath != "" {
		var err error
		store, err = NewStore(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()
		log.Printf("Database opened: %s", *dbPath)
	}

	server := NewServer(cfg, store, *graphFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case *nodesPath != "":
		rebuildFromFile(ctx, server, *nodesPath, cfg)
		if *watch {
			watcher := NewNodeFileWatcher(*nodesPath, func() {
				rebuildFromFile(ctx, server, *nodesPath, cfg)
			})
			go func() {
				if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("Watcher stopped: %v", err)
				}
			}()
		}
	default:
		log.Println("Checking for existing graph file...")
		if graph, err := LoadProximityGraph(*graphFile); err == nil {
			server.SetGraph(graph, "")
			log.Printf("✅ Loaded existing graph from file\n")
		} else {
			log.Println("ℹ️  No existing graph found (this is normal on first run)")
			log.Println("   Call /buildGraph to create a new graph")
		}
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Router(os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", *addr)
		log.Println("Endpoints:")
		log.Println("  POST /buildGraph         - Build a proximity graph from nodes")
		log.Println("  GET  /edges              - Edge list as node ID pairs")
		log.Println("  GET  /graphLines         - Edges as line strings")
		log.Println("  GET  /graph.geojson      - Nodes and edges as GeoJSON")
		log.Println("  GET  /graph.svg          - Rendered graph")
		log.Println("  POST /route              - Shortest path between two nodes")
		log.Println("  GET  /builds[/{id}]      - Stored build history")
		log.Println("  GET  /health             - Check server status")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// rebuildFromFile loads nodes and swaps in a new graph; failures keep the old one
func rebuildFromFile(ctx context.Context, server *Server, path string, cfg BuildConfig) {
	nodes, err := LoadNodesFromFile(path)
	if err != nil {
		log.Printf("❌ Failed to load nodes: %v\n", err)
		return
	}

	graph, buildID, err := server.Rebuild(ctx, nodes, cfg)
	if err != nil {
		log.Printf("❌ Build failed: %v\n", err)
		return
	}

	log.Printf("✅ Graph ready: %d nodes, %d edges (build %q)\n", len(graph.Nodes), graph.NumEdges, buildID)
}
