// Package trajectory implements piecewise-linear interpolation over a
// sorted list of timestamped Cartesian waypoints.
package trajectory

import (
	"errors"
	"sort"

	"github.com/renan028/arm-3dof-control/internal/kinematics"
)

// ErrNoWaypoints is returned by New when given an empty waypoint list; a
// Trajectory with no waypoints cannot be sampled.
var ErrNoWaypoints = errors.New("trajectory: no waypoints")

// Waypoint is a single timestamped Cartesian target.
type Waypoint struct {
	X, Y, Z float64
	T       float64
}

// Trajectory samples a piecewise-linear path through its waypoints.
type Trajectory struct {
	waypoints []Waypoint
	times     []float64
	x         kinematics.Vector3
	v         kinematics.Vector3
}

// New builds a Trajectory from a sorted (by T) waypoint list.
func New(waypoints []Waypoint) (*Trajectory, error) {
	if len(waypoints) == 0 {
		return nil, ErrNoWaypoints
	}
	times := make([]float64, len(waypoints))
	for i, w := range waypoints {
		times[i] = w.T
	}
	return &Trajectory{waypoints: waypoints, times: times}, nil
}

// X returns the position computed by the most recent Update.
func (tr *Trajectory) X() kinematics.Vector3 { return tr.x }

// V returns the velocity computed by the most recent Update.
func (tr *Trajectory) V() kinematics.Vector3 { return tr.v }

// Update samples the trajectory at time t, returning false (and leaving
// X/V unchanged) if t exceeds the last waypoint's timestamp.
func (tr *Trajectory) Update(t float64) bool {
	i := sort.Search(len(tr.times), func(i int) bool { return tr.times[i] >= t })
	if i == len(tr.times) {
		return false
	}

	xf := kinematics.Vector3{tr.waypoints[i].X, tr.waypoints[i].Y, tr.waypoints[i].Z}
	tf := tr.times[i]

	var x0 kinematics.Vector3
	t0 := 0.0
	if i > 0 {
		prev := tr.waypoints[i-1]
		x0 = kinematics.Vector3{prev.X, prev.Y, prev.Z}
		t0 = tr.times[i-1]
	}

	if tf == t0 {
		tr.v = kinematics.Vector3{}
		tr.x = xf
		return true
	}

	tr.v = xf.Sub(x0).Scale(1 / (tf - t0))
	tr.x = x0.Add(tr.v.Scale(t - t0))
	return true
}
