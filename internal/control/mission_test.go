package control_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/renan028/arm-3dof-control/internal/control"
	"github.com/renan028/arm-3dof-control/internal/kinematics"
	"github.com/renan028/arm-3dof-control/internal/plant"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWaypointFile writes lines to a temp file and returns its path.
func writeWaypointFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waypoints.in")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

// e4Waypoints is the literal waypoint list from the trajectory scenario: a
// square excursion in y/z starting and ending at (20,0,0).
var e4Waypoints = "20 0 0 0\n17 0 0 1.5\n15 1.5 1.5 3.5\n15 -1.5 1.5 5\n15 -1.5 -1.5 7\n15 1.5 -1.5 9\n20 0 0 10\n"

// checkpoint is a waypoint time/target pair the mission is expected to pass
// through (within the strategy's tolerance) once the trajectory reaches it.
type checkpoint struct {
	t      float64
	target kinematics.Vector3
}

var e4Checkpoints = []checkpoint{
	{1.5, kinematics.Vector3{17, 0, 0}},
	{3.5, kinematics.Vector3{15, 1.5, 1.5}},
	{5, kinematics.Vector3{15, -1.5, 1.5}},
	{7, kinematics.Vector3{15, -1.5, -1.5}},
	{9, kinematics.Vector3{15, 1.5, -1.5}},
	{10, kinematics.Vector3{20, 0, 0}},
}

// sample is one recorded diagnostic row: mission-elapsed time and the
// end-effector position the plant reported at that instant.
type sample struct {
	t   float64
	pos kinematics.Vector3
}

// recordingSink implements sink.Sink by appending every Save call, so a
// test can inspect the full position trace after the mission finishes
// instead of racing real wall-clock sleeps against the running goroutines.
type recordingSink struct {
	mu      sync.Mutex
	samples []sample
}

func (r *recordingSink) Save(pos, _, _ kinematics.Vector3, t float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, sample{t: t, pos: pos})
	return nil
}

func (r *recordingSink) Close() error { return nil }

// nearest returns the recorded position whose timestamp is closest to t.
func (r *recordingSink) nearest(t float64) (kinematics.Vector3, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.samples) == 0 {
		return kinematics.Vector3{}, false
	}
	best := r.samples[0]
	bestDiff := absFloat(best.t - t)
	for _, s := range r.samples[1:] {
		if d := absFloat(s.t - t); d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best.pos, true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// runMission wires a real Controller and a real Plant over real Channels,
// runs them concurrently for the full mission duration, and returns the
// recorded position trace.
func runMission(t *testing.T, strategy control.Strategy) *recordingSink {
	t.Helper()

	waypoints, err := control.LoadWaypoints(writeWaypointFile(t, e4Waypoints))
	require.NoError(t, err)

	robotCfg := kinematics.DefaultConfig()

	ctrlCfg := control.DefaultConfig()
	ctrlCfg.Strategy = strategy
	controller := control.New(waypoints, robotCfg, ctrlCfg, zerolog.Nop())

	rec := &recordingSink{}
	plantCfg := plant.DefaultConfig()
	robotSystem := plant.New(robotCfg, plantCfg, rec, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 11500*time.Millisecond)
	defer cancel()

	robotSystem.Start(ctx, controller.Channel)
	controller.Start(ctx, robotSystem.Channel)

	<-ctx.Done()
	controller.Stop()
	robotSystem.Stop()

	return rec
}

// TestMissionTracksWaypoints drives the coupled Controller+Plant loop over
// the full E4 waypoint list for the 11s mission duration and checks that
// the plant's reported end-effector position tracks each waypoint target
// within the documented tolerance for each control strategy: 0.1 for
// feedforward, 0.01 for analytical (the latter is tighter because it snaps
// via inverse kinematics every step).
func TestMissionTracksWaypoints(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real-time 11s mission integration test in short mode")
	}

	tests := []struct {
		name     string
		strategy control.Strategy
		tol      float64
	}{
		{"feedforward", control.StrategyFeedforward, 0.1},
		{"analytical", control.StrategyAnalytical, 0.01},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := runMission(t, tc.strategy)

			for _, cp := range e4Checkpoints {
				got, ok := rec.nearest(cp.t)
				require.True(t, ok, "no samples recorded")
				for i := range cp.target {
					assert.InDelta(t, cp.target[i], got[i], tc.tol,
						"axis %d at t=%.1f (strategy=%s)", i, cp.t, tc.name)
				}
			}
		})
	}
}
