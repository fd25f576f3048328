// Package sink implements the Plant's optional diagnostic recorder: one
// CSV row per loop iteration, fixed 3-decimal precision.
package sink

import (
	"github.com/renan028/arm-3dof-control/internal/kinematics"
)

// Sink is invoked once per Plant loop iteration with the current
// end-effector position, current command, current joint triple, and
// elapsed mission time.
type Sink interface {
	Save(pos, cmd, joints kinematics.Vector3, t float64) error
	Close() error
}
