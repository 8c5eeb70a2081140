package api

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start PointJSON `json:"start"`
	End   PointJSON `json:"end"`
	// Consolidate overrides the server default when set.
	Consolidate *bool `json:"consolidate,omitempty"`
}

// PointJSON represents a planar coordinate pair in JSON.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Start        SnapJSON          `json:"start"`
	End          SnapJSON          `json:"end"`
	Consolidated bool              `json:"consolidated"`
	Instructions []InstructionJSON `json:"instructions"`
	Summary      SummaryJSON       `json:"summary"`
	Nodes        []uint32          `json:"nodes"`
}

// SnapJSON describes where a query point was snapped.
type SnapJSON struct {
	Node     uint32    `json:"node"`
	Position PointJSON `json:"position"`
	Distance float64   `json:"distance"`
}

// InstructionJSON represents one navigation instruction.
type InstructionJSON struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Road  string  `json:"road"`
	Text  string  `json:"text"`
}

// SummaryJSON represents a route summary.
type SummaryJSON struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	TotalDistance float64 `json:"total_distance"`
	TurnCount     int     `json:"turn_count"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes      int  `json:"num_nodes"`
	NumEdges      int  `json:"num_edges"`
	Directed      bool `json:"directed"`
	NumComponents int  `json:"num_components"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
