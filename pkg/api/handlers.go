package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"mime"
	"net/http"

	"github.com/paulmach/orb"

	"github.com/azybler/roadnav/pkg/navigation"
	"github.com/azybler/roadnav/pkg/routing"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router      routing.Router
	stats       StatsResponse
	consolidate bool
}

// NewHandlers creates handlers with the given router. consolidate is the
// default for requests that do not choose.
func NewHandlers(router routing.Router, stats StatsResponse, consolidate bool) *Handlers {
	return &Handlers{
		router:      router,
		stats:       stats,
		consolidate: consolidate,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Validate coordinates.
	if err := validatePoint(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validatePoint(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	// Route.
	result, err := h.router.Route(r.Context(), orb.Point{req.Start.X, req.Start.Y}, orb.Point{req.End.X, req.End.Y})
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrPointTooFar):
			writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
		case errors.Is(err, routing.ErrNoRoute):
			writeError(w, http.StatusNotFound, "no_route_found", "")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			log.Printf("route error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	consolidate := h.consolidate
	if req.Consolidate != nil {
		consolidate = *req.Consolidate
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildRouteResponse(result, consolidate))
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stats)
}

func buildRouteResponse(result *routing.RouteResult, consolidate bool) RouteResponse {
	steps, sum := result.Instructions, result.Summary
	if consolidate {
		steps, sum = result.Consolidated, result.ConsolidatedSummary
	}

	resp := RouteResponse{
		Start:        snapJSON(result.Start),
		End:          snapJSON(result.End),
		Consolidated: consolidate,
		Instructions: make([]InstructionJSON, len(steps)),
		Summary: SummaryJSON{
			Origin:        sum.Origin,
			Destination:   sum.Destination,
			TotalDistance: sum.TotalDistance,
			TurnCount:     sum.TurnCount,
		},
		Nodes: make([]uint32, len(result.Nodes)),
	}
	for i, s := range steps {
		resp.Instructions[i] = instructionJSON(s)
	}
	for i, n := range result.Nodes {
		resp.Nodes[i] = uint32(n)
	}
	return resp
}

func instructionJSON(s navigation.Instruction) InstructionJSON {
	return InstructionJSON{Kind: s.Kind.String(), Value: s.Value, Road: s.RoadName, Text: s.Text()}
}

func snapJSON(s routing.SnapResult) SnapJSON {
	return SnapJSON{
		Node:     uint32(s.Node),
		Position: PointJSON{X: s.Position[0], Y: s.Position[1]},
		Distance: s.Dist,
	}
}

func validatePoint(p PointJSON) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
