package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Server holds the current graph and serves it over HTTP
type Server struct {
	mu       sync.RWMutex
	graph    *ProximityGraph
	buildID  string
	defaults BuildConfig

	store     *Store // optional build history
	graphFile string // optional JSON snapshot written on saveToFile
}

// NewServer creates a server with no graph; store may be nil
func NewServer(defaults BuildConfig, store *Store, graphFile string) *Server {
	return &Server{defaults: defaults, store: store, graphFile: graphFile}
}

// Graph returns the current graph, or nil before the first build
func (s *Server) Graph() *ProximityGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// SetGraph replaces the current graph
func (s *Server) SetGraph(graph *ProximityGraph, buildID string) {
	s.mu.Lock()
	s.graph = graph
	s.buildID = buildID
	s.mu.Unlock()
}

// Rebuild builds a graph from nodes, records it in the store and makes it current
func (s *Server) Rebuild(ctx context.Context, nodes []Node, cfg BuildConfig) (*ProximityGraph, string, error) {
	graph, err := NewProximityGraph(nodes, cfg)
	if err != nil {
		return nil, "", err
	}

	buildID := ""
	if s.store != nil {
		if buildID, err = s.store.SaveBuild(ctx, graph); err != nil {
			log.Printf("⚠️  Failed to store build: %v\n", err)
		}
	}

	s.SetGraph(graph, buildID)
	return graph, buildID, nil
}

// Router wires the endpoints with access logging to logWriter
func (s *Server) Router(logWriter io.Writer) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/buildGraph", s.buildGraphHandler).Methods(http.MethodPost)
	router.HandleFunc("/edges", s.edgesHandler).Methods(http.MethodGet)
	router.HandleFunc("/graphLines", s.graphLinesHandler).Methods(http.MethodGet)
	router.HandleFunc("/graph.geojson", s.geoJSONHandler).Methods(http.MethodGet)
	router.HandleFunc("/graph.svg", s.svgHandler).Methods(http.MethodGet)
	router.HandleFunc("/route", s.routeHandler).Methods(http.MethodPost)
	router.HandleFunc("/builds", s.listBuildsHandler).Methods(http.MethodGet)
	router.HandleFunc("/builds/{id}", s.getBuildHandler).Methods(http.MethodGet)
	router.HandleFunc("/builds/{id}/edges", s.getBuildEdgesHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	return handlers.CombinedLoggingHandler(logWriter, cors(router))
}

type buildGraphRequest struct {
	Nodes      []Node      `json:"nodes"`
	Config     BuildConfig `json:"config"`
	SaveToFile bool        `json:"saveToFile"`      // Whether to save to disk
	Force      bool        `json:"force,omitempty"` // Set to true to replace an existing graph
}

type buildGraphResponse struct {
	Success  bool       `json:"success"`
	BuildID  string     `json:"buildId,omitempty"`
	NumNodes int        `json:"numNodes"`
	NumEdges int        `json:"numEdges"`
	Stats    BuildStats `json:"stats"`
	Edges    []EdgePair `json:"edges"`
}

// POST /buildGraph - Build a proximity graph from a node list
func (s *Server) buildGraphHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("🕸️  Build graph request received")

	// config fields left out of the body keep the server defaults
	req := buildGraphRequest{Config: s.defaults}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if s.Graph() != nil && !req.Force {
		log.Println("⚠️  Graph already exists")
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   "graph already exists",
			"message": "Graph is already built. Set 'force: true' to rebuild.",
		})
		return
	}

	graph, buildID, err := s.Rebuild(r.Context(), req.Nodes, req.Config)
	if err != nil {
		log.Printf("❌ Build failed: %v\n", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	if req.SaveToFile && s.graphFile != "" {
		if err := SaveProximityGraph(graph, s.graphFile); err != nil {
			log.Printf("⚠️  Failed to save graph: %v\n", err)
		}
	}

	log.Println("========================================")

	writeJSON(w, http.StatusOK, buildGraphResponse{
		Success:  true,
		BuildID:  buildID,
		NumNodes: len(graph.Nodes),
		NumEdges: graph.NumEdges,
		Stats:    graph.Stats,
		Edges:    graph.EdgeList(),
	})
}

// GET /edges - Edge list as pairs of node IDs
func (s *Server) edgesHandler(w http.ResponseWriter, r *http.Request) {
	graph := s.requireGraph(w)
	if graph == nil {
		return
	}

	edges := graph.EdgeList()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"edges":    edges,
		"numEdges": len(edges),
	})
}

// GET /graphLines - Graph edges as line strings for visualization
func (s *Server) graphLinesHandler(w http.ResponseWriter, r *http.Request) {
	graph := s.requireGraph(w)
	if graph == nil {
		return
	}

	lines := graph.GetGraphAsLineStrings()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"lines":    lines,
		"numNodes": len(graph.Nodes),
		"numEdges": len(lines),
	})
}

// GET /graph.geojson - Nodes and edges as a GeoJSON FeatureCollection
func (s *Server) geoJSONHandler(w http.ResponseWriter, r *http.Request) {
	graph := s.requireGraph(w)
	if graph == nil {
		return
	}

	data, err := ToGeoJSON(graph.NodeSet(), graph.EdgeList())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// GET /graph.svg - Rendered graph; ?labels=1 prints node IDs
func (s *Server) svgHandler(w http.ResponseWriter, r *http.Request) {
	graph := s.requireGraph(w)
	if graph == nil {
		return
	}

	var buf bytes.Buffer
	RenderSVG(&buf, graph, r.URL.Query().Get("labels") == "1")

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

type routeRequest struct {
	StartID *int   `json:"startId,omitempty"`
	EndID   *int   `json:"endId,omitempty"`
	Start   *Point `json:"start,omitempty"` // snapped to the nearest node when startId is absent
	End     *Point `json:"end,omitempty"`
}

type routeResponse struct {
	Route
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// POST /route - Shortest path over the graph between two nodes
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("📍 Route request received")

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	graph := s.requireGraph(w)
	if graph == nil {
		return
	}

	startID, ok := resolveEndpoint(graph, req.StartID, req.Start)
	if !ok {
		writeError(w, http.StatusBadRequest, "start requires startId or start point")
		return
	}
	endID, ok := resolveEndpoint(graph, req.EndID, req.End)
	if !ok {
		writeError(w, http.StatusBadRequest, "end requires endId or end point")
		return
	}

	route, found := AStarPathOnGraph(graph.ConvertToGraph(), startID, endID)

	response := routeResponse{Route: route, Success: found}
	if !found {
		log.Printf("❌ No path between %d and %d\n", startID, endID)
		response.Message = "No path found on graph"
	} else {
		log.Printf("✅ Path found with %d waypoints, length %.3f\n", len(route.Path), route.Length)
	}

	writeJSON(w, http.StatusOK, response)
}

func resolveEndpoint(graph *ProximityGraph, id *int, point *Point) (int, bool) {
	if id != nil {
		return *id, true
	}
	if point != nil {
		nearest, _, ok := graph.FindNearestNode(*point)
		return nearest, ok
	}
	return 0, false
}

// GET /builds - Stored build history
func (s *Server) listBuildsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	builds, err := s.store.ListBuilds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"builds":  builds,
	})
}

// GET /builds/{id} - One stored build
func (s *Server) getBuildHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	graph, err := s.store.LoadBuild(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, graph)
}

// GET /builds/{id}/edges - Edge list of one stored build
func (s *Server) getBuildEdgesHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := s.store.LoadBuild(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	edges, err := s.store.LoadEdges(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"edges":    edges,
		"numEdges": len(edges),
	})
}

// GET /health - Health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	hasGraph := s.graph != nil
	numNodes, numEdges := 0, 0
	if s.graph != nil {
		numNodes = len(s.graph.Nodes)
		numEdges = s.graph.NumEdges
	}
	buildID := s.buildID
	s.mu.RUnlock()

	status := "ready"
	if !hasGraph {
		status = "waiting for graph"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"hasGraph": hasGraph,
		"numNodes": numNodes,
		"numEdges": numEdges,
		"buildId":  buildID,
		"hasStore": s.store != nil,
	})
}

func (s *Server) requireGraph(w http.ResponseWriter) *ProximityGraph {
	graph := s.Graph()
	if graph == nil {
		writeError(w, http.StatusBadRequest, "Graph not built. Call /buildGraph first")
	}
	return graph
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "No build store configured (start with -db)")
		return false
	}
	return true
}

// statusFor maps builder and store errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidConfiguration), errors.Is(err, ErrDegenerateVector):
		return http.StatusBadRequest
	case errors.Is(err, ErrBuildNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
