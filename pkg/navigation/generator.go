package navigation

import (
	"fmt"

	"github.com/azybler/roadnav/pkg/geo"
	"github.com/azybler/roadnav/pkg/graph"
)

// Summary describes a route as a whole.
type Summary struct {
	Origin        string
	Destination   string
	TotalDistance float64
	TurnCount     int
}

// Instructions walks a path and returns
// [depart, continue_0, pivot_1, continue_1, ..., continue_{n-2}, arrive].
// Directions follow each geometry in travel order as resolved by the graph,
// so the stored point order of a geometry does not matter.
func Instructions(p *graph.Path) ([]Instruction, error) {
	if p.Len() < 2 {
		return nil, fmt.Errorf("path has %d nodes, need at least 2", p.Len())
	}

	steps := make([]Instruction, 0, 2*p.Len())

	dep, err := departInstruction(p)
	if err != nil {
		return nil, err
	}
	steps = append(steps, dep, continueInstruction(p, 0))

	for i := 1; i < p.Len()-1; i++ {
		piv, err := pivotInstruction(p, i)
		if err != nil {
			return nil, err
		}
		steps = append(steps, piv, continueInstruction(p, i))
	}

	arr, err := arriveInstruction(p)
	if err != nil {
		return nil, err
	}
	return append(steps, arr), nil
}

func departInstruction(p *graph.Path) (Instruction, error) {
	r := p.Record(0)
	dir, err := geo.HeadDirection(p.Geometry(0))
	if err != nil {
		return Instruction{}, fmt.Errorf("depart on record %d: %w", r.ID, err)
	}
	return Instruction{Kind: Depart, Value: geo.AngleFromNorth(dir), RoadName: r.RoadName}, nil
}

func continueInstruction(p *graph.Path, i int) Instruction {
	r := p.Record(i)
	return Instruction{Kind: Continue, Value: geo.Length(r.Geometry), RoadName: r.RoadName}
}

func pivotInstruction(p *graph.Path, i int) (Instruction, error) {
	in, _, out := p.PivotAttr(i)
	inDir, err := geo.TailDirection(p.Geometry(i - 1))
	if err != nil {
		return Instruction{}, fmt.Errorf("pivot %d on record %d: %w", i, in.ID, err)
	}
	outDir, err := geo.HeadDirection(p.Geometry(i))
	if err != nil {
		return Instruction{}, fmt.Errorf("pivot %d on record %d: %w", i, out.ID, err)
	}
	return Instruction{Kind: Pivot, Value: geo.SignedAngle(outDir, inDir), RoadName: out.RoadName}, nil
}

func arriveInstruction(p *graph.Path) (Instruction, error) {
	r := p.Record(-1)
	dir, err := geo.TailDirection(p.Geometry(-1))
	if err != nil {
		return Instruction{}, fmt.Errorf("arrive on record %d: %w", r.ID, err)
	}
	return Instruction{Kind: Arrive, Value: geo.AngleFromNorth(dir), RoadName: r.RoadName}, nil
}

// isContinuation reports whether a pivot goes straight on along the road
// the route was already on.
func isContinuation(pivot Instruction, prevRoadName string) bool {
	return Sector(pivot.Value, DefaultSectors) == 0 && pivot.RoadName == prevRoadName
}

// Consolidate drops every straight-ahead pivot that stays on the same road
// and folds the following continue distance into the preceding one.
// The input is not modified.
func Consolidate(steps []Instruction) []Instruction {
	out := make([]Instruction, 0, len(steps))
	for i := 0; i < len(steps); i++ {
		s := steps[i]
		mergeable := s.Kind == Pivot && i > 0 && i+1 < len(steps) &&
			steps[i+1].Kind == Continue &&
			len(out) > 0 && out[len(out)-1].Kind == Continue
		if mergeable && isContinuation(s, steps[i-1].RoadName) {
			out[len(out)-1].Value += steps[i+1].Value
			i++ // skip the merged continue
			continue
		}
		out = append(out, s)
	}
	return out
}

// Summarize describes a list of instructions, raw or consolidated.
// TotalDistance sums the continue distances and TurnCount counts pivots
// present in steps.
func Summarize(steps []Instruction) Summary {
	if len(steps) == 0 {
		return Summary{}
	}
	sum := Summary{
		Origin:      steps[0].RoadName,
		Destination: steps[len(steps)-1].RoadName,
	}
	for _, s := range steps {
		switch s.Kind {
		case Continue:
			sum.TotalDistance += s.Value
		case Pivot:
			sum.TurnCount++
		}
	}
	return sum
}
