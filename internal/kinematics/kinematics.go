// Package kinematics implements the forward and inverse kinematics, the
// Jacobian, and the joint-state integration for the 3-DOF R-RR ("elbow")
// manipulator: link 1 (alpha=pi/2, a=10), link 2 (alpha=0, a=5), link 3
// (alpha=0, a=5), offsets d=0 throughout.
package kinematics

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/renan028/arm-3dof-control/internal/angle"
	"gonum.org/v1/gonum/mat"
)

// Vector3 is a Cartesian position, velocity, or joint triple.
type Vector3 [3]float64

// Sub returns a-b componentwise.
func (a Vector3) Sub(b Vector3) Vector3 {
	return Vector3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Add returns a+b componentwise.
func (a Vector3) Add(b Vector3) Vector3 {
	return Vector3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Scale returns a scaled by k.
func (a Vector3) Scale(k float64) Vector3 {
	return Vector3{a[0] * k, a[1] * k, a[2] * k}
}

// Norm returns the Euclidean length of a.
func (a Vector3) Norm() float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

// dhLink holds the constant DH parameters for one link of this arm; theta
// is supplied per-call from the joint value.
type dhLink struct {
	alpha, a, d float64
}

var dhTable = [3]dhLink{
	{alpha: math.Pi / 2, a: 10, d: 0},
	{alpha: 0, a: 5, d: 0},
	{alpha: 0, a: 5, d: 0},
}

// FKKind selects the forward-kinematics implementation.
type FKKind int

const (
	FKFast FKKind = iota
	FKGeneric
)

// IKKind selects the inverse-kinematics implementation.
type IKKind int

const (
	IKAnalytical IKKind = iota
	IKTranspose
	IKDamped
)

// Joints holds the three bounded joint angles of the arm.
type Joints struct {
	Q1, Q2, Q3 angle.Angle
}

// Vector3 returns the current joint values as a plain triple.
func (j Joints) Vector3() Vector3 {
	return Vector3{j.Q1.Value(), j.Q2.Value(), j.Q3.Value()}
}

// DefaultJoints returns joints at zero with the arm's documented mechanical
// bounds: q1 in [-pi,pi], q2 in [-pi/2,pi/2], q3 in [-pi,pi].
func DefaultJoints() Joints {
	return Joints{
		Q1: angle.New(0, -math.Pi, math.Pi),
		Q2: angle.New(0, -math.Pi/2, math.Pi/2),
		Q3: angle.New(0, -math.Pi, math.Pi),
	}
}

// Config carries the tunables a RobotModel is constructed with: joint
// bounds and the selected FK/IK strategies, normally sourced from the
// configuration document (internal/config).
type Config struct {
	JointsMin, JointsMax Vector3
	FK                   FKKind
	IK                   IKKind
}

// DefaultConfig returns the documented default strategy selection and
// bounds.
func DefaultConfig() Config {
	return Config{
		JointsMin: Vector3{-math.Pi, -math.Pi / 2, -math.Pi},
		JointsMax: Vector3{math.Pi, math.Pi / 2, math.Pi},
		FK:        FKFast,
		IK:        IKAnalytical,
	}
}

// Model is the RobotModel: joint storage plus the selectable FK/IK
// strategies. A Model used by the Controller is never integrated (queried
// only); a Model used by the Plant is the sole owner of its Joints and is
// advanced by Update.
type Model struct {
	joints Joints
	fk     FKKind
	ik     IKKind
}

// New constructs a Model at the zero joint configuration with cfg's bounds
// and strategy selection.
func New(cfg Config) *Model {
	return &Model{
		joints: Joints{
			Q1: angle.New(0, cfg.JointsMin[0], cfg.JointsMax[0]),
			Q2: angle.New(0, cfg.JointsMin[1], cfg.JointsMax[1]),
			Q3: angle.New(0, cfg.JointsMin[2], cfg.JointsMax[2]),
		},
		fk: cfg.FK,
		ik: cfg.IK,
	}
}

// SetFK selects the forward-kinematics variant.
func (m *Model) SetFK(kind FKKind) { m.fk = kind }

// SetIK selects the inverse-kinematics variant.
func (m *Model) SetIK(kind IKKind) { m.ik = kind }

// Joints returns the current joint triple.
func (m *Model) Joints() Vector3 { return m.joints.Vector3() }

// Forward dispatches to the selected forward-kinematics variant using the
// model's own stored joints.
func (m *Model) Forward() Vector3 {
	return m.ForwardAt(m.joints.Vector3())
}

// ForwardAt computes forward kinematics for an arbitrary joint vector
// without touching the model's stored state, per the selected strategy.
func (m *Model) ForwardAt(q Vector3) Vector3 {
	if m.fk == FKGeneric {
		return forwardGeneric(q)
	}
	return forwardFast(q)
}

// forwardFast is the closed-form solution for this arm's geometry. The
// trig runs in float32 (github.com/chewxy/math32), matching the precision
// the arm's encoders can actually deliver; the result widens to float64
// only at the boundary, where it feeds gonum's float64 linear algebra.
func forwardFast(q Vector3) Vector3 {
	q0, q1, q2 := float32(q[0]), float32(q[1]), float32(q[2])
	s1, c1 := math32.Sin(q0), math32.Cos(q0)
	c2 := math32.Cos(q1)
	s2 := math32.Sin(q1)
	c23 := math32.Cos(q1 + q2)
	s23 := math32.Sin(q1 + q2)
	x := 5 * c1 * (2 + c2 + c23)
	y := 5 * s1 * (2 + c2 + c23)
	z := 5 * (s2 + s23)
	return Vector3{float64(x), float64(y), float64(z)}
}

// dhTransform builds the 4x4 homogeneous transform for one DH row: rotate
// theta about Z, translate a along X, rotate alpha about X, translate d
// along Z.
func dhTransform(theta float64, l dhLink) *mat.Dense {
	ct, st := math.Cos(theta), math.Sin(theta)
	ca, sa := math.Cos(l.alpha), math.Sin(l.alpha)
	return mat.NewDense(4, 4, []float64{
		ct, -st * ca, st * sa, l.a * ct,
		st, ct * ca, -ct * sa, l.a * st,
		0, sa, ca, l.d,
		0, 0, 0, 1,
	})
}

// forwardGeneric chains the three DH homogeneous transforms and extracts
// the translational part.
func forwardGeneric(q Vector3) Vector3 {
	t1 := dhTransform(q[0], dhTable[0])
	t2 := dhTransform(q[1], dhTable[1])
	t3 := dhTransform(q[2], dhTable[2])

	var t12, t123 mat.Dense
	t12.Mul(t1, t2)
	t123.Mul(&t12, t3)

	return Vector3{t123.At(0, 3), t123.At(1, 3), t123.At(2, 3)}
}

// Jacobian returns the 3x3 derivative of end-effector position with
// respect to (q1,q2,q3) at the model's stored joints.
func (m *Model) Jacobian() *mat.Dense {
	return JacobianAt(m.joints.Vector3())
}

// JacobianAt computes the Jacobian for an arbitrary joint vector, with
// the trig again in float32 before widening for gonum.
func JacobianAt(q Vector3) *mat.Dense {
	q0, q1, q2 := float32(q[0]), float32(q[1]), float32(q[2])
	s1, c1 := math32.Sin(q0), math32.Cos(q0)
	s2, c2 := math32.Sin(q1), math32.Cos(q1)
	s23 := math32.Sin(q1 + q2)
	c23 := math32.Cos(q1 + q2)

	return mat.NewDense(3, 3, []float64{
		float64(-5 * s1 * (c23 + c2 + 2)), float64(-5 * c1 * (s23 + s2)), float64(-5 * c1 * s23),
		float64(5 * c1 * (c23 + c2 + 2)), float64(-5 * s1 * (s23 + s2)), float64(-5 * s1 * s23),
		0, float64(5 * (c23 + c2)), float64(5 * c23),
	})
}

// clampUnit32 clamps v into [-1,1], absorbing the rounding noise that
// would otherwise push an acos/asin argument out of its domain.
func clampUnit32(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// analyticalIK is the closed-form inverse kinematics for this arm.
func analyticalIK(x, y, z float64) Vector3 {
	xf, yf, zf := float32(x), float32(y), float32(z)
	q1 := math32.Atan2(yf, xf)
	c1 := math32.Cos(q1)

	var q2, q3 float32
	if c1*c1 <= 1e-5 {
		q3 = math32.Acos(clampUnit32(0.5 * (2 + zf*zf/25)))
		cq3 := math32.Cos(q3)
		sq3 := math32.Sin(q3)
		q2 = math32.Asin(clampUnit32((zf*(1+cq3)/5 + 2*sq3) / (2 + 2*cq3)))
	} else {
		q3 = math32.Acos(clampUnit32(0.5 * (2 + (xf*xf+zf*zf*c1*c1)/(25*c1*c1) - 4*xf/(5*c1))))
		cq3 := math32.Cos(q3)
		sq3 := math32.Sin(q3)
		q2 = math32.Asin(clampUnit32((zf*(1+cq3)/5 - xf*sq3/(5*c1) + 2*sq3) / (2 + 2*cq3)))
	}
	return Vector3{float64(q1), float64(q2), float64(q3)}
}

// Inverse dispatches to the selected inverse-kinematics variant, returning
// a best-effort joint vector: IK never fails, only converges or runs out
// of iterations.
func (m *Model) Inverse(target Vector3) Vector3 {
	switch m.ik {
	case IKTranspose:
		return transposeIK(target, m.joints)
	case IKDamped:
		return dampedIK(target, m.joints)
	default:
		return analyticalIK(target[0], target[1], target[2])
	}
}

const (
	ikMaxIterations = 100000
	ikEpsilon       = 1e-3
	ikStep          = 0.01
	dampedLambdaSq  = 0.1
)

// writeVec3 advances j's three Angles in place by delta, each passing
// through its own wraparound normalization and mechanical clamp, and
// returns the resulting (post-normalization) joint vector.
func writeVec3(j *Joints, delta Vector3) Vector3 {
	j.Q1.Write(j.Q1.Value() + delta[0])
	j.Q2.Write(j.Q2.Value() + delta[1])
	j.Q3.Write(j.Q3.Value() + delta[2])
	return j.Vector3()
}

// transposeIK is the Jacobian-transpose gradient-descent solver. Start q0
// is q<-q0 (default (0,0,0)); each update normalizes through q0's bounded
// Angles.
func transposeIK(target Vector3, q0 Joints) Vector3 {
	joints := q0
	q := joints.Vector3()
	for i := 0; i < ikMaxIterations; i++ {
		p := forwardFast(q)
		e := target.Sub(p)
		if e.Norm() <= ikEpsilon {
			break
		}
		j := JacobianAt(q)
		var jt mat.Dense
		jt.CloneFrom(j.T())
		eVec := mat.NewVecDense(3, e[:])
		var dq mat.VecDense
		dq.MulVec(&jt, eVec)
		q = writeVec3(&joints, Vector3{
			ikStep * dq.AtVec(0),
			ikStep * dq.AtVec(1),
			ikStep * dq.AtVec(2),
		})
	}
	return q
}

// dampedIK is the damped-least-squares iterative solver:
// q <- q + J^T * (J*J^T + lambda^2*I)^-1 * e, normalized through q0's
// bounded Angles each step.
func dampedIK(target Vector3, q0 Joints) Vector3 {
	joints := q0
	q := joints.Vector3()
	for i := 0; i < ikMaxIterations; i++ {
		p := forwardFast(q)
		e := target.Sub(p)
		if e.Norm() <= ikEpsilon {
			break
		}
		j := JacobianAt(q)
		var jjt mat.Dense
		jjt.Mul(j, j.T())
		for k := 0; k < 3; k++ {
			jjt.Set(k, k, jjt.At(k, k)+dampedLambdaSq)
		}
		var inv mat.Dense
		if err := inv.Inverse(&jjt); err != nil {
			break
		}
		var jtInv mat.Dense
		jtInv.Mul(j.T(), &inv)
		eVec := mat.NewVecDense(3, e[:])
		var dq mat.VecDense
		dq.MulVec(&jtInv, eVec)
		q = writeVec3(&joints, Vector3{dq.AtVec(0), dq.AtVec(1), dq.AtVec(2)})
	}
	return q
}

// Update integrates velocity command u over dt, each joint i advanced by
// its own u[i], passing through Angle normalization and clamping. This is
// the plant-side mutator; a Controller's model is never updated.
func (m *Model) Update(u Vector3, dt float64) {
	m.joints.Q1.Write(m.joints.Q1.Value() + u[0]*dt)
	m.joints.Q2.Write(m.joints.Q2.Value() + u[1]*dt)
	m.joints.Q3.Write(m.joints.Q3.Value() + u[2]*dt)
}
