package geo

import (
	"math"
	"time"
)

// Default check-in policy values.
const (
	DefaultOpensBefore  = 15 * time.Minute
	DefaultClosesAfter  = 30 * time.Minute
	DefaultRadiusMeters = 500
)

// Outcome tags a check-in Decision.
type Outcome int

const (
	Accepted Outcome = iota
	TooEarly
	TooLate
	TooFar
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case TooEarly:
		return "too_early"
	case TooLate:
		return "too_late"
	case TooFar:
		return "too_far"
	default:
		return "unknown"
	}
}

// Decision is the result of Policy.Evaluate. The window bounds are always set;
// the distance fields are set once the attempt got past the time window.
type Decision struct {
	Outcome           Outcome
	WindowOpensAt     time.Time
	WindowClosesAt    time.Time
	DistanceMeters    float64
	MaxDistanceMeters int
}

// RoundedDistance returns the measured distance rounded to whole metres.
func (d Decision) RoundedDistance() int {
	return int(math.Round(d.DistanceMeters))
}

// Policy describes where and when a check-in is admitted relative to an event's start.
type Policy struct {
	OpensBefore  time.Duration
	ClosesAfter  time.Duration
	RadiusMeters int
}

// DefaultPolicy opens check-in 15 minutes before the start, closes it 30 minutes
// after, and admits attempts within 500 metres of the start point.
func DefaultPolicy() Policy {
	return Policy{
		OpensBefore:  DefaultOpensBefore,
		ClosesAfter:  DefaultClosesAfter,
		RadiusMeters: DefaultRadiusMeters,
	}
}

// Evaluate decides whether a check-in at candidate, made at now, is admitted for an
// event starting at start from location. The window is checked before the distance.
// Both window edges and the radius itself are inclusive.
func (p Policy) Evaluate(start time.Time, location Point, now time.Time, candidate Point) Decision {
	d := Decision{
		WindowOpensAt:  start.Add(-p.OpensBefore),
		WindowClosesAt: start.Add(p.ClosesAfter),
	}
	if now.Before(d.WindowOpensAt) {
		d.Outcome = TooEarly
		return d
	}
	if now.After(d.WindowClosesAt) {
		d.Outcome = TooLate
		return d
	}
	return p.judgeDistance(d, DistanceMeters(location, candidate))
}

func (p Policy) judgeDistance(d Decision, meters float64) Decision {
	d.DistanceMeters = meters
	d.MaxDistanceMeters = p.RadiusMeters
	if meters > float64(p.RadiusMeters) {
		d.Outcome = TooFar
		return d
	}
	d.Outcome = Accepted
	return d
}
