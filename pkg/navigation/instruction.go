// Package navigation turns a path through a navigation graph into
// turn-by-turn instructions.
package navigation

import (
	"errors"
	"fmt"
	"math"
)

// Kind identifies the type of an instruction.
type Kind int

const (
	Depart Kind = iota
	Continue
	Pivot
	Arrive
)

func (k Kind) String() string {
	switch k {
	case Depart:
		return "depart"
	case Continue:
		return "continue"
	case Pivot:
		return "pivot"
	case Arrive:
		return "arrive"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DefaultSectors is the number of sectors a full turn is split into.
const DefaultSectors = 8

var (
	compassSectorCW  = [...]string{"north", "north east", "east", "south east", "south"}
	compassSectorCCW = [...]string{"north", "north west", "west", "south west", "south"}
	turnSectorCW     = [...]string{"go straight", "slight right", "turn right", "hard right", "right u-turn"}
	turnSectorCCW    = [...]string{"go straight", "slight left", "turn left", "hard left", "left u-turn"}
)

// ErrNonPositiveDistance is returned by SignificantDistance for d <= 0.
var ErrNonPositiveDistance = errors.New("distance must be positive")

// Instruction is one step of a route. Value holds a signed angle in
// radians for Depart, Pivot and Arrive, and a distance for Continue.
type Instruction struct {
	Kind     Kind
	Value    float64
	RoadName string
}

// Text renders the instruction as an English sentence.
func (in Instruction) Text() string {
	switch in.Kind {
	case Depart:
		return fmt.Sprintf("Depart heading %s on %s", CompassDescription(in.Value), in.RoadName)
	case Continue:
		d, err := SignificantDistance(in.Value)
		if err != nil {
			d = in.Value
		}
		return fmt.Sprintf("Continue %s on %s", formatDistance(d), in.RoadName)
	case Pivot:
		return fmt.Sprintf("%s onto %s", capitalize(TurnDescription(in.Value)), in.RoadName)
	case Arrive:
		return fmt.Sprintf("Arrive heading %s on %s", CompassDescription(in.Value), in.RoadName)
	}
	return in.Kind.String()
}

// Sector buckets an angle in [-π, π] into 0 (straight ahead) through
// sectors/2 (reversed), using half-sector boundaries either side of zero.
func Sector(angle float64, sectors int) int {
	hsa := math.Pi / float64(sectors)
	s := int((math.Abs(angle) + hsa) / (2 * hsa))
	return min(s, sectors/2)
}

// CompassDescription names the compass heading of an angle from north.
func CompassDescription(angle float64) string {
	desc := compassSectorCW
	if angle < 0 {
		desc = compassSectorCCW
	}
	return desc[Sector(angle, DefaultSectors)]
}

// TurnDescription names the turn of a signed turn angle. Positive angles
// turn right.
func TurnDescription(angle float64) string {
	desc := turnSectorCW
	if angle < 0 {
		desc = turnSectorCCW
	}
	return desc[Sector(angle, DefaultSectors)]
}

// SignificantDistance rounds d to two significant figures, never below 1.
func SignificantDistance(d float64) (float64, error) {
	if !(d > 0) {
		return 0, ErrNonPositiveDistance
	}
	logSig := int(math.Log10(d)) // truncates toward zero
	sigDen := math.Pow(10, float64(logSig-1))
	sig := math.RoundToEven(d/sigDen) * sigDen
	return math.Max(sig, 1), nil
}

func formatDistance(d float64) string {
	if d >= 1000 {
		return fmt.Sprintf("%.3g km", d/1000)
	}
	return fmt.Sprintf("%.0f m", d)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
