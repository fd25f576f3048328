// Package control implements the Controller: waypoint loading, trajectory
// tracking, and the two velocity-control laws (feedforward
// damped-least-squares with null-space bias, and analytical
// finite-difference), run as a goroutine exchanging frames with a Plant
// over a pair of channels.
package control

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/renan028/arm-3dof-control/internal/channel"
	"github.com/renan028/arm-3dof-control/internal/codec"
	"github.com/renan028/arm-3dof-control/internal/kinematics"
	"github.com/renan028/arm-3dof-control/internal/trajectory"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Strategy selects the velocity-control law.
type Strategy int

const (
	StrategyFeedforward Strategy = iota
	StrategyAnalytical
)

// MinPeriod is the documented floor for the Controller's loop period.
const MinPeriod = 20 * time.Millisecond

// Config carries the Controller's tunables, normally sourced from the
// configuration document.
type Config struct {
	Strategy Strategy
	Period   time.Duration

	// NullSpaceBias is q-dot-0 in the feedforward law's null-space term,
	// documented default (5,5,5).
	NullSpaceBias kinematics.Vector3
	// DampingScale is the alpha-scale constant applied to the
	// singularity bias, documented default 0.01.
	DampingScale float64
	// SingularityThreshold is the determinant floor below which the
	// damping bias engages, documented default 1e-3.
	SingularityThreshold float64
}

// DefaultConfig returns the documented defaults: feedforward strategy,
// 20ms period, null-space bias (5,5,5), damping scale 0.01.
func DefaultConfig() Config {
	return Config{
		Strategy:             StrategyFeedforward,
		Period:               MinPeriod,
		NullSpaceBias:        kinematics.Vector3{5, 5, 5},
		DampingScale:         0.01,
		SingularityThreshold: 1e-3,
	}
}

// LoadWaypoints reads a whitespace-delimited "x y z t" waypoint file,
// terminating ingestion (not the program) at the first line that fails
// to parse as four floats.
func LoadWaypoints(path string) ([]trajectory.Waypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("control: open waypoints: %w", err)
	}
	defer f.Close()

	var out []trajectory.Waypoint
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 4 {
			break
		}
		vals := make([]float64, 4)
		ok := true
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			break
		}
		out = append(out, trajectory.Waypoint{X: vals[0], Y: vals[1], Z: vals[2], T: vals[3]})
	}
	return out, nil
}

// Controller owns a Trajectory, a query-only RobotModel, the selected
// control law, and the outbound Channel it writes commands to.
type Controller struct {
	cfg    Config
	model  *kinematics.Model
	traj   *trajectory.Trajectory
	signal kinematics.Vector3
	mu     sync.Mutex

	Channel *channel.Channel

	log zerolog.Logger

	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New constructs a Controller from loaded waypoints (possibly empty:
// fewer than one waypoint means the control law always returns zero and
// the Plant loop is otherwise unaffected), a kinematics model
// configuration, a control configuration, and a logger.
func New(waypoints []trajectory.Waypoint, modelCfg kinematics.Config, cfg Config, log zerolog.Logger) *Controller {
	c := &Controller{
		cfg:     cfg,
		model:   kinematics.New(modelCfg),
		Channel: channel.New(),
		log:     log,
	}
	if len(waypoints) > 0 {
		traj, err := trajectory.New(waypoints)
		if err == nil {
			c.traj = traj
		}
	}
	return c
}

// HasTrajectory reports whether the controller has a usable trajectory.
func (c *Controller) HasTrajectory() bool { return c.traj != nil }

// ControlSignal returns the most recently computed velocity command.
func (c *Controller) ControlSignal() kinematics.Vector3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signal
}

// ComputeVelocityControl updates and returns the cached control signal
// for joint vector q at mission-relative time t, per the configured
// strategy.
func (c *Controller) ComputeVelocityControl(q kinematics.Vector3, t float64) kinematics.Vector3 {
	var u kinematics.Vector3
	switch c.cfg.Strategy {
	case StrategyAnalytical:
		u = c.analyticalControl(q, t)
	default:
		u = c.feedforwardControl(q, t)
	}
	c.mu.Lock()
	c.signal = u
	c.mu.Unlock()
	return u
}

func (c *Controller) feedforwardControl(q kinematics.Vector3, t float64) kinematics.Vector3 {
	if c.traj == nil || !c.traj.Update(t) {
		return kinematics.Vector3{}
	}
	x := c.model.ForwardAt(q)
	xd := c.traj.X()
	vd := c.traj.V()

	dx := xd.Sub(x)
	v := vd.Add(dx)

	j := kinematics.JacobianAt(q)
	var jjt mat.Dense
	jjt.Mul(j, j.T())
	w := mat.Det(&jjt)

	alpha := 0.0
	if w < c.cfg.SingularityThreshold {
		ratio := 1 - w/c.cfg.SingularityThreshold
		alpha = c.cfg.DampingScale * ratio * ratio
	}

	// L = alpha*I, per the DLS formula J+ = J^T (JJ^T+L)^-1.
	var jjtPlusL mat.Dense
	jjtPlusL.CloneFrom(&jjt)
	for i := 0; i < 3; i++ {
		jjtPlusL.Set(i, i, jjt.At(i, i)+alpha)
	}

	var inv mat.Dense
	var jPlus mat.Dense
	if err := inv.Inverse(&jjtPlusL); err != nil {
		return kinematics.Vector3{}
	}
	jPlus.Mul(j.T(), &inv)

	vVec := mat.NewVecDense(3, v[:])
	var task mat.VecDense
	task.MulVec(&jPlus, vVec)

	var jPlusJ mat.Dense
	jPlusJ.Mul(&jPlus, j)
	var ident mat.Dense
	ident.CloneFrom(eye3())
	var nullProj mat.Dense
	nullProj.Sub(&ident, &jPlusJ)

	biasVec := mat.NewVecDense(3, c.cfg.NullSpaceBias[:])
	var nullTerm mat.VecDense
	nullTerm.MulVec(&nullProj, biasVec)

	return kinematics.Vector3{
		task.AtVec(0) + nullTerm.AtVec(0),
		task.AtVec(1) + nullTerm.AtVec(1),
		task.AtVec(2) + nullTerm.AtVec(2),
	}
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func (c *Controller) analyticalControl(q kinematics.Vector3, t float64) kinematics.Vector3 {
	if c.traj == nil || !c.traj.Update(t) {
		return kinematics.Vector3{}
	}
	xd := c.traj.X()
	qd := c.model.Inverse(xd)
	dt := c.cfg.Period.Seconds()
	return qd.Sub(q).Scale(1 / dt)
}

// Start spawns the control goroutine: it writes commands on its own
// Channel and reads joint state from plantChannel, the Plant's Channel.
func (c *Controller) Start(ctx context.Context, plantChannel *channel.Channel) {
	ctx, cancel := context.WithCancel(ctx)
	c.stop = cancel
	c.wg.Add(1)
	go c.run(ctx, plantChannel)
}

// Stop signals the control goroutine to exit and joins it.
func (c *Controller) Stop() {
	if c.stop != nil {
		c.stop()
	}
	c.wg.Wait()
}

func (c *Controller) run(ctx context.Context, plantChannel *channel.Channel) {
	defer c.wg.Done()
	defer c.Channel.Close()

	c.Channel.Open()
	c.log.Info().Msg("controller loop starting, waiting for plant")

	for !plantChannel.IsOpen() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Millisecond):
		}
	}

	start := time.Now()
	c.log.Info().Msg("controller loop running")

	for plantChannel.IsOpen() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		q := codec.Unpack3(plantChannel.Receive())
		elapsed := time.Since(start).Seconds()

		u := c.ComputeVelocityControl(q, elapsed)
		frame := codec.Pack3(u)
		c.Channel.Send(frame[:])

		c.log.Debug().Float64("t", elapsed).Interface("q", q).Interface("u", u).Msg("iteration")

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.Period):
		}
	}
}
