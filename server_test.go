package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ServerSuite struct {
	suite.Suite
	server    *Server
	store     *Store
	graphFile string
	ts        *httptest.Server
}

func (s *ServerSuite) SetupTest() {
	store, err := NewStore(":memory:")
	s.Require().NoError(err)

	s.store = store
	s.graphFile = filepath.Join(s.T().TempDir(), "graph.json")
	s.server = NewServer(DefaultBuildConfig(), store, s.graphFile)
	s.ts = httptest.NewServer(s.server.Router(io.Discard))
}

func (s *ServerSuite) TearDownTest() {
	s.ts.Close()
	s.store.Close()
}

func (s *ServerSuite) do(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func (s *ServerSuite) buildTriangle(extra map[string]interface{}) (*http.Response, map[string]interface{}) {
	body := map[string]interface{}{"nodes": triangleNodes()}
	for k, v := range extra {
		body[k] = v
	}
	return s.do(http.MethodPost, "/buildGraph", body)
}

func (s *ServerSuite) TestHealthBeforeBuild() {
	resp, body := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(false, body["hasGraph"])
	s.Equal(true, body["hasStore"])
	s.Equal("waiting for graph", body["status"])
}

func (s *ServerSuite) TestEndpointsNeedAGraph() {
	for _, path := range []string{"/edges", "/graphLines", "/graph.geojson", "/graph.svg"} {
		resp, body := s.do(http.MethodGet, path, nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode, path)
		s.Equal(false, body["success"], path)
	}
}

func (s *ServerSuite) TestBuildGraph() {
	resp, body := s.buildTriangle(map[string]interface{}{"saveToFile": true})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.Equal(true, body["success"])
	s.Equal(3.0, body["numNodes"])
	s.Equal(3.0, body["numEdges"])
	s.NotEmpty(body["buildId"])
	s.Equal([]interface{}{
		[]interface{}{10.0, 20.0},
		[]interface{}{10.0, 30.0},
		[]interface{}{20.0, 30.0},
	}, body["edges"])

	s.FileExists(s.graphFile)
	s.Require().NotNil(s.server.Graph())
	s.Equal(DefaultAngleDegrees, s.server.Graph().Config.AngleDegrees)

	_, edges := s.do(http.MethodGet, "/edges", nil)
	s.Equal(body["edges"], edges["edges"])

	_, lines := s.do(http.MethodGet, "/graphLines", nil)
	s.Len(lines["lines"], 3)
}

func (s *ServerSuite) TestBuildGraphConflictAndForce() {
	resp, _ := s.buildTriangle(nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, body := s.buildTriangle(nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal(false, body["success"])

	resp, body = s.buildTriangle(map[string]interface{}{
		"force":  true,
		"config": map[string]interface{}{"angleDegrees": 10},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["success"])

	cfg := s.server.Graph().Config
	s.Equal(10.0, cfg.AngleDegrees)
	s.Equal(DefaultLengthRatioLimit, cfg.LengthRatioLimit, "missing keys keep the defaults")
}

func (s *ServerSuite) TestBuildGraphRejectsBadInput() {
	resp, body := s.buildTriangle(map[string]interface{}{
		"config": map[string]interface{}{"angleDegrees": 90},
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(body["error"], "angleDegrees")

	resp, body = s.do(http.MethodPost, "/buildGraph", map[string]interface{}{
		"nodes": []Node{
			{ID: 1, Position: Point{X: 0, Y: 0}},
			{ID: 2, Position: Point{X: 1, Y: 1}},
			{ID: 3, Position: Point{X: 1, Y: 1}},
		},
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(body["error"], "nodes 2 and 3")

	req, err := http.NewRequest(http.MethodPost, s.ts.URL+"/buildGraph", strings.NewReader("{"))
	s.Require().NoError(err)
	raw, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	raw.Body.Close()
	s.Equal(http.StatusBadRequest, raw.StatusCode)

	s.Nil(s.server.Graph())
}

func (s *ServerSuite) TestGeoJSONAndSVG() {
	s.buildTriangle(nil)

	resp, err := http.Get(s.ts.URL + "/graph.geojson")
	s.Require().NoError(err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Require().NoError(err)
	s.Equal("application/geo+json", resp.Header.Get("Content-Type"))
	s.Contains(string(data), "FeatureCollection")

	resp, err = http.Get(s.ts.URL + "/graph.svg?labels=1")
	s.Require().NoError(err)
	data, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Require().NoError(err)
	s.Equal("image/svg+xml", resp.Header.Get("Content-Type"))
	s.Equal(3, strings.Count(string(data), "<line"))
	s.Equal(3, strings.Count(string(data), "<text"))
}

func (s *ServerSuite) TestRoute() {
	s.buildTriangle(nil)

	resp, body := s.do(http.MethodPost, "/route", map[string]interface{}{"startId": 20, "endId": 30})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["success"])
	s.Equal([]interface{}{20.0, 30.0}, body["nodeIds"])

	// points snap to the nearest node
	_, body = s.do(http.MethodPost, "/route", map[string]interface{}{
		"start": Point{X: -1, Y: -1},
		"end":   Point{X: 0.1, Y: 2},
	})
	s.Equal(true, body["success"])
	s.Equal([]interface{}{10.0, 30.0}, body["nodeIds"])

	_, body = s.do(http.MethodPost, "/route", map[string]interface{}{"startId": 10, "endId": 99})
	s.Equal(false, body["success"])
	s.NotEmpty(body["message"])

	resp, _ = s.do(http.MethodPost, "/route", map[string]interface{}{"startId": 10})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *ServerSuite) TestBuildHistory() {
	_, built := s.buildTriangle(nil)
	id := built["buildId"].(string)

	resp, body := s.do(http.MethodGet, "/builds", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Require().Len(body["builds"], 1)
	s.Equal(id, body["builds"].([]interface{})[0].(map[string]interface{})["id"])

	resp, body = s.do(http.MethodGet, "/builds/"+id, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Len(body["nodes"], 3)
	s.Equal(3.0, body["numEdges"])

	resp, body = s.do(http.MethodGet, "/builds/"+id+"/edges", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(built["edges"], body["edges"])

	resp, _ = s.do(http.MethodGet, "/builds/unknown", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/builds/unknown/edges", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *ServerSuite) TestBuildHistoryWithoutStore() {
	ts := httptest.NewServer(NewServer(DefaultBuildConfig(), nil, "").Router(io.Discard))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/builds")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *ServerSuite) TestRebuildFromFile() {
	path := filepath.Join(s.T().TempDir(), "nodes.txt")
	s.Require().NoError(os.WriteFile(path, []byte("1 0 0\n2 5 0\n3 0 5\n"), 0644))

	rebuildFromFile(context.Background(), s.server, path, DefaultBuildConfig())
	s.Require().NotNil(s.server.Graph())
	s.Equal(3, s.server.Graph().NumEdges)

	// a broken file keeps the previous graph
	previous := s.server.Graph()
	s.Require().NoError(os.WriteFile(path, []byte("garbage\n"), 0644))
	rebuildFromFile(context.Background(), s.server, path, DefaultBuildConfig())
	s.Same(previous, s.server.Graph())
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}
