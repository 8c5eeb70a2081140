package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/roadnav/pkg/config"
	"github.com/azybler/roadnav/pkg/graph"
	"github.com/azybler/roadnav/pkg/navigation"
	"github.com/azybler/roadnav/pkg/routing"
	"github.com/azybler/roadnav/pkg/shape"
)

// mockRouter implements routing.Router for testing.
type mockRouter struct {
	result *routing.RouteResult
	err    error
}

func (m *mockRouter) Route(ctx context.Context, start, end orb.Point) (*routing.RouteResult, error) {
	return m.result, m.err
}

const validBody = `{"start":{"x":0,"y":0},"end":{"x":200,"y":0}}`

func postRoute(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleRoute(w, req)
	return w
}

func sampleResult() *routing.RouteResult {
	raw := []navigation.Instruction{
		{Kind: navigation.Depart, Value: 1.5707963267948966, RoadName: "MAIN ROAD"},
		{Kind: navigation.Continue, Value: 100, RoadName: "MAIN ROAD"},
		{Kind: navigation.Pivot, Value: 0, RoadName: "MAIN ROAD"},
		{Kind: navigation.Continue, Value: 100, RoadName: "MAIN ROAD"},
		{Kind: navigation.Arrive, Value: 1.5707963267948966, RoadName: "MAIN ROAD"},
	}
	consolidated := navigation.Consolidate(raw)
	return &routing.RouteResult{
		Start:               routing.SnapResult{Node: 0, Position: orb.Point{0, 0}},
		End:                 routing.SnapResult{Node: 2, Position: orb.Point{200, 0}, Dist: 1.5},
		Nodes:               []graph.NodeID{0, 1, 2},
		Instructions:        raw,
		Consolidated:        consolidated,
		Summary:             navigation.Summarize(raw),
		ConsolidatedSummary: navigation.Summarize(consolidated),
	}
}

func TestHandleRoute_Success(t *testing.T) {
	h := NewHandlers(&mockRouter{result: sampleResult()}, StatsResponse{}, true)

	w := postRoute(h, validBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Consolidated)
	require.Len(t, resp.Instructions, 3)
	assert.Equal(t, "depart", resp.Instructions[0].Kind)
	assert.Equal(t, "Continue 200 m on MAIN ROAD", resp.Instructions[1].Text)
	assert.Equal(t, "MAIN ROAD", resp.Instructions[2].Road)
	assert.Equal(t, 200.0, resp.Summary.TotalDistance)
	assert.Equal(t, 0, resp.Summary.TurnCount)
	assert.Equal(t, []uint32{0, 1, 2}, resp.Nodes)
	assert.Equal(t, PointJSON{X: 200, Y: 0}, resp.End.Position)
	assert.Equal(t, 1.5, resp.End.Distance)
}

func TestHandleRoute_RawOverride(t *testing.T) {
	h := NewHandlers(&mockRouter{result: sampleResult()}, StatsResponse{}, true)

	w := postRoute(h, `{"start":{"x":0,"y":0},"end":{"x":200,"y":0},"consolidate":false}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Consolidated)
	assert.Len(t, resp.Instructions, 5)
	assert.Equal(t, "Go straight onto MAIN ROAD", resp.Instructions[2].Text)
	assert.Equal(t, 1, resp.Summary.TurnCount)
}

func TestHandleRoute_BadRequests(t *testing.T) {
	h := NewHandlers(&mockRouter{}, StatsResponse{}, true)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    string
	}{
		{"invalid json", "application/json", "not json", "invalid_request"},
		{"missing content type", "", validBody, "invalid_request"},
		{"body too large", "application/json", `{"start":{"x":` + strings.Repeat("1", 2048) + `}}`, "invalid_request"},
		{"non numeric", "application/json", `{"start":{"x":"a","y":0},"end":{"x":0,"y":0}}`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.HandleRoute(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestHandleRoute_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{routing.ErrPointTooFar, http.StatusUnprocessableEntity, "point_too_far_from_road"},
		{fmt.Errorf("%w: %w", routing.ErrNoRoute, graph.ErrNoPath), http.StatusNotFound, "no_route_found"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "request_timeout"},
		{context.Canceled, http.StatusServiceUnavailable, "request_timeout"},
		{graph.ErrEmptyGraph, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			h := NewHandlers(&mockRouter{err: tt.err}, StatsResponse{}, true)
			w := postRoute(h, validBody)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(&mockRouter{}, StatsResponse{}, true)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleStats(t *testing.T) {
	stats := StatsResponse{NumNodes: 500, NumEdges: 900, Directed: true, NumComponents: 3}
	h := NewHandlers(&mockRouter{}, stats, true)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, stats, resp)
}

// blockingRouter holds every request until release is closed.
type blockingRouter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRouter) Route(ctx context.Context, start, end orb.Point) (*routing.RouteResult, error) {
	b.started <- struct{}{}
	<-b.release
	return sampleResult(), nil
}

func TestServer_MiddlewareAndLimiter(t *testing.T) {
	br := &blockingRouter{started: make(chan struct{}, 1), release: make(chan struct{})}
	cfg := DefaultConfig(":0")
	cfg.MaxConcurrent = 1
	cfg.CORSOrigin = "https://example.org"
	srv := NewServer(cfg, NewHandlers(br, StatsResponse{}, true))

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(validBody))
		req.Header.Set("Content-Type", "application/json")
		srv.Handler.ServeHTTP(first, req)
		close(done)
	}()

	select {
	case <-br.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never reached the router")
	}

	second := httptest.NewRecorder()
	srv.Handler.ServeHTTP(second, httptest.NewRequest("GET", "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	close(br.release)
	<-done
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "nosniff", first.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "https://example.org", first.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := NewServer(DefaultConfig(":0"), NewHandlers(&mockRouter{}, StatsResponse{}, true))
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/route", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_EndToEnd(t *testing.T) {
	records := []shape.Record{
		{Geometry: orb.LineString{{0, 0}, {100, 0}}, Direction: shape.Both, RoadName: "MAIN ROAD"},
		{Geometry: orb.LineString{{100, 0}, {100, 100}}, Direction: shape.Both, RoadName: "SIDE STREET"},
	}
	require.NoError(t, shape.NewValidator().Ingest(records))
	g := graph.Build(records, graph.Options{Directed: true})
	eng, err := routing.NewEngine(g, 10)
	require.NoError(t, err)

	srv := NewServer(DefaultConfig(":0"), NewHandlers(eng, StatsResponse{}, true))

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(`{"start":{"x":1,"y":1},"end":{"x":100,"y":99}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	texts := make([]string, len(resp.Instructions))
	for i, in := range resp.Instructions {
		texts[i] = in.Text
	}
	assert.Equal(t, []string{
		"Depart heading east on MAIN ROAD",
		"Continue 100 m on MAIN ROAD",
		"Turn left onto SIDE STREET",
		"Continue 100 m on SIDE STREET",
		"Arrive heading north on SIDE STREET",
	}, texts)

	far := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(`{"start":{"x":500,"y":500},"end":{"x":0,"y":0}}`))
	far.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, far)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServerConfigFrom(t *testing.T) {
	app := config.Default().Server
	app.Port = 9090
	app.CORSOrigin = "https://example.org"
	app.ReadTimeoutMS = 1500
	app.WriteTimeoutMS = 2500
	app.RequestTimeoutMS = 750

	cfg := ServerConfigFrom(app)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://example.org", cfg.CORSOrigin)
	assert.Equal(t, 1500*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 2500*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, app.MaxConcurrent, cfg.MaxConcurrent)

	srv := NewServer(cfg, NewHandlers(&mockRouter{}, StatsResponse{}, true))
	assert.Equal(t, 1500*time.Millisecond, srv.ReadTimeout)
	assert.Equal(t, 2500*time.Millisecond, srv.WriteTimeout)

	// Zero values fall back to the defaults.
	zero := ServerConfigFrom(config.ServerConfig{Port: 8080})
	def := DefaultConfig(":8080")
	assert.Equal(t, def.ReadTimeout, zero.ReadTimeout)
	assert.Equal(t, def.RequestTimeout, zero.RequestTimeout)
}
