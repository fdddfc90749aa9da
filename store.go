package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrBuildNotFound is returned when a build id is unknown to the store
var ErrBuildNotFound = errors.New("build not found")

// Store keeps a history of built graphs in SQLite
type Store struct {
	db *sql.DB
}

// BuildSummary describes a stored build without its nodes and edges
type BuildSummary struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	Config    BuildConfig `json:"config"`
	NumNodes  int         `json:"numNodes"`
	NumEdges  int         `json:"numEdges"`
}

// NewStore opens (or creates) the database at dbPath
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serialises writes
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL, -- unix nanoseconds
		config JSON NOT NULL,
		stats JSON NOT NULL,
		min_x REAL, min_y REAL, max_x REAL, max_y REAL,
		num_nodes INTEGER NOT NULL,
		num_edges INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS build_nodes (
		build_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		node_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		PRIMARY KEY (build_id, idx),
		FOREIGN KEY (build_id) REFERENCES builds(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS build_edges (
		build_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		PRIMARY KEY (build_id, seq),
		FOREIGN KEY (build_id) REFERENCES builds(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveBuild stores graph and returns its new build id
func (s *Store) SaveBuild(ctx context.Context, graph *ProximityGraph) (string, error) {
	id := uuid.NewString()

	config, err := json.Marshal(graph.Config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	stats, err := json.Marshal(graph.Stats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	box := graph.BoundingBox
	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, created_at, config, stats, min_x, min_y, max_x, max_y, num_nodes, num_edges)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, graph.BuiltAt.UnixNano(), string(config), string(stats),
		box.MinX, box.MinY, box.MaxX, box.MaxY, len(graph.Nodes), graph.NumEdges)
	if err != nil {
		return "", fmt.Errorf("failed to insert build: %w", err)
	}

	for i, n := range graph.Nodes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO build_nodes (build_id, idx, node_id, x, y) VALUES (?, ?, ?, ?, ?)
		`, id, i, n.ID, n.Point.X, n.Point.Y)
		if err != nil {
			return "", fmt.Errorf("failed to insert node %d: %w", n.ID, err)
		}
	}

	for seq, e := range graph.EdgeList() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO build_edges (build_id, seq, from_id, to_id) VALUES (?, ?, ?, ?)
		`, id, seq, e[0], e[1])
		if err != nil {
			return "", fmt.Errorf("failed to insert edge %d-%d: %w", e[0], e[1], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit build: %w", err)
	}

	return id, nil
}

// ListBuilds returns every stored build, newest first
func (s *Store) ListBuilds(ctx context.Context) ([]BuildSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, config, num_nodes, num_edges
		FROM builds
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	builds := make([]BuildSummary, 0)
	for rows.Next() {
		var (
			b         BuildSummary
			createdAt int64
			config    []byte
		)
		if err := rows.Scan(&b.ID, &createdAt, &config, &b.NumNodes, &b.NumEdges); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		b.CreatedAt = time.Unix(0, createdAt).UTC()
		if err := json.Unmarshal(config, &b.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config of %s: %w", b.ID, err)
		}
		builds = append(builds, b)
	}

	return builds, rows.Err()
}

// LoadBuild reassembles a stored build into a ProximityGraph
func (s *Store) LoadBuild(ctx context.Context, id string) (*ProximityGraph, error) {
	graph := &ProximityGraph{}

	var (
		createdAt     int64
		config, stats []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at, config, stats, min_x, min_y, max_x, max_y, num_edges
		FROM builds WHERE id = ?
	`, id).Scan(&createdAt, &config, &stats,
		&graph.BoundingBox.MinX, &graph.BoundingBox.MinY,
		&graph.BoundingBox.MaxX, &graph.BoundingBox.MaxY, &graph.NumEdges)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s: %w", id, ErrBuildNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query build %s: %w", id, err)
	}
	graph.BuiltAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal(config, &graph.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := json.Unmarshal(stats, &graph.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, x, y FROM build_nodes WHERE build_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	position := make(map[int]int)
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Point.X, &n.Point.Y); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n.Edges = make([]int, 0)
		position[n.ID] = len(graph.Nodes)
		graph.Nodes = append(graph.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edges, err := s.LoadEdges(ctx, id)
	if err != nil {
		return nil, err
	}

	adjacency := make([][]int, len(graph.Nodes))
	for _, e := range edges {
		i, j := position[e[0]], position[e[1]]
		adjacency[i] = append(adjacency[i], j)
		adjacency[j] = append(adjacency[j], i)
	}
	for i, neighbors := range adjacency {
		sort.Ints(neighbors)
		for _, j := range neighbors {
			graph.Nodes[i].Edges = append(graph.Nodes[i].Edges, graph.Nodes[j].ID)
		}
	}

	return graph, nil
}

// LoadEdges returns the stored edge list of a build in export order
func (s *Store) LoadEdges(ctx context.Context, id string) ([]EdgePair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id FROM build_edges WHERE build_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	edges := make([]EdgePair, 0)
	for rows.Next() {
		var e EdgePair
		if err := rows.Scan(&e[0], &e[1]); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}
