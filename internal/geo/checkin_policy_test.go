package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Evaluate_Window(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	loc := Point{Longitude: 30.3351, Latitude: 59.9343}
	p := DefaultPolicy()

	tests := []struct {
		name string
		now  time.Time
		want Outcome
	}{
		{"15:01 before start", start.Add(-15*time.Minute - time.Second), TooEarly},
		{"exactly 15:00 before start", start.Add(-15 * time.Minute), Accepted},
		{"14:59 before start", start.Add(-15*time.Minute + time.Second), Accepted},
		{"at start", start, Accepted},
		{"exactly 30:00 after start", start.Add(30 * time.Minute), Accepted},
		{"30:01 after start", start.Add(30*time.Minute + time.Second), TooLate},
		{"next day", start.Add(24 * time.Hour), TooLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Evaluate(start, loc, tt.now, loc)
			require.Equal(t, tt.want, d.Outcome, d.Outcome.String())
			assert.Equal(t, start.Add(-15*time.Minute), d.WindowOpensAt)
			assert.Equal(t, start.Add(30*time.Minute), d.WindowClosesAt)
		})
	}
}

func TestPolicy_Evaluate_WindowCheckedBeforeDistance(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	loc := Point{Longitude: 30.3351, Latitude: 59.9343}
	far := northOf(loc, 10000)

	d := DefaultPolicy().Evaluate(start, loc, start.Add(-time.Hour), far)
	require.Equal(t, TooEarly, d.Outcome)
	assert.Zero(t, d.DistanceMeters)
}

func TestPolicy_JudgeDistanceBoundary(t *testing.T) {
	p := DefaultPolicy()

	accepted := p.judgeDistance(Decision{}, 500)
	require.Equal(t, Accepted, accepted.Outcome)

	rejected := p.judgeDistance(Decision{}, 501)
	require.Equal(t, TooFar, rejected.Outcome)
	assert.Equal(t, 501, rejected.RoundedDistance())
	assert.Equal(t, 500, rejected.MaxDistanceMeters)
}

func TestPolicy_Evaluate_Distance(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	loc := Point{Longitude: 30.3351, Latitude: 59.9343}
	p := DefaultPolicy()

	near := p.Evaluate(start, loc, start, northOf(loc, 499))
	require.Equal(t, Accepted, near.Outcome)
	assert.InDelta(t, 499, near.DistanceMeters, 1e-6)

	far := p.Evaluate(start, loc, start, northOf(loc, 502))
	require.Equal(t, TooFar, far.Outcome)
	assert.Equal(t, 502, far.RoundedDistance())
	assert.Equal(t, 500, far.MaxDistanceMeters)
}

func TestPolicy_Evaluate_CustomRadius(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	loc := Point{Longitude: 0, Latitude: 0}
	p := Policy{OpensBefore: time.Minute, ClosesAfter: time.Minute, RadiusMeters: 100}

	d := p.Evaluate(start, loc, start, northOf(loc, 150))
	require.Equal(t, TooFar, d.Outcome)
	assert.Equal(t, 100, d.MaxDistanceMeters)
}
