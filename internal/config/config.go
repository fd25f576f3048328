// Package config loads the YAML configuration document and projects it
// into the core's three configuration structs. A missing file or a
// recognized key with the wrong shape is rejected at startup with a
// descriptive, wrapped sentinel error; the core is never constructed on a
// failed load.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/renan028/arm-3dof-control/internal/control"
	"github.com/renan028/arm-3dof-control/internal/kinematics"
	"github.com/renan028/arm-3dof-control/internal/plant"
	"gopkg.in/yaml.v3"
)

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// ErrConfigMissing is wrapped when the document cannot be read.
var ErrConfigMissing = errors.New("config: missing or unreadable")

// ErrConfigMalformed is wrapped when the document cannot be parsed, or a
// recognized key carries the wrong shape.
var ErrConfigMalformed = errors.New("config: malformed")

// robotSection mirrors the document's "robot:" keys.
type robotSection struct {
	IK         string     `yaml:"ik"`
	FK         string     `yaml:"fk"`
	JointsMin  [3]float64 `yaml:"joints_min"`
	JointsMax  [3]float64 `yaml:"joints_max"`
	haveBounds bool
}

// robotSystemSection mirrors the document's "robot_system:" keys.
type robotSystemSection struct {
	Frequency         int  `yaml:"frequency"`
	SaveOutput        bool `yaml:"save_output"`
	EncoderResolution int  `yaml:"encoder_resolution"`
}

// controlSection mirrors the document's "control:" keys.
type controlSection struct {
	Frequency int    `yaml:"frequency"`
	Type      string `yaml:"type"`
}

// Document is the parsed configuration, ready to project into the core's
// config structs.
type Document struct {
	Robot       robotSection       `yaml:"robot"`
	RobotSystem robotSystemSection `yaml:"robot_system"`
	Control     controlSection     `yaml:"control"`
}

// Load reads and parses path. Unrecognized keys are ignored; a missing
// file is ErrConfigMissing, an unparsable document is ErrConfigMalformed.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigMissing, path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigMalformed, path, err)
	}

	doc.Robot.haveBounds = doc.Robot.JointsMin != [3]float64{} || doc.Robot.JointsMax != [3]float64{}

	if err := validateEnum(doc.Robot.IK, "", "analytical", "transpose", "damped"); err != nil {
		return nil, fmt.Errorf("%w: robot.ik: %v", ErrConfigMalformed, err)
	}
	if err := validateEnum(doc.Robot.FK, "", "fast", "generic"); err != nil {
		return nil, fmt.Errorf("%w: robot.fk: %v", ErrConfigMalformed, err)
	}
	if err := validateEnum(doc.Control.Type, "", "feedforward", "analytical"); err != nil {
		return nil, fmt.Errorf("%w: control.type: %v", ErrConfigMalformed, err)
	}

	return &doc, nil
}

func validateEnum(v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("unrecognized value %q", v)
}

// RobotConfig projects the robot section into kinematics.Config, applying
// documented defaults (fk=fast, ik=analytical, default joint bounds) for
// absent keys.
func (d *Document) RobotConfig() kinematics.Config {
	cfg := kinematics.DefaultConfig()
	if d.Robot.haveBounds {
		cfg.JointsMin = kinematics.Vector3(d.Robot.JointsMin)
		cfg.JointsMax = kinematics.Vector3(d.Robot.JointsMax)
	}
	switch d.Robot.FK {
	case "generic":
		cfg.FK = kinematics.FKGeneric
	default:
		cfg.FK = kinematics.FKFast
	}
	switch d.Robot.IK {
	case "transpose":
		cfg.IK = kinematics.IKTranspose
	case "damped":
		cfg.IK = kinematics.IKDamped
	default:
		cfg.IK = kinematics.IKAnalytical
	}
	return cfg
}

// SystemConfig projects the robot_system section into plant.Config,
// applying the documented 1ms period floor and 4096-count default encoder
// resolution.
func (d *Document) SystemConfig() plant.Config {
	cfg := plant.DefaultConfig()
	if d.RobotSystem.Frequency > 0 {
		period := time.Duration(float64(time.Second) / float64(d.RobotSystem.Frequency))
		cfg.Period = maxDuration(plant.MinPeriod, period)
	}
	cfg.SaveOutput = d.RobotSystem.SaveOutput
	if d.RobotSystem.EncoderResolution > 0 {
		cfg.EncoderResolution = d.RobotSystem.EncoderResolution
	}
	return cfg
}

// ControlConfig projects the control section into control.Config,
// applying the documented 20ms period floor and feedforward default
// strategy.
func (d *Document) ControlConfig() control.Config {
	cfg := control.DefaultConfig()
	if d.Control.Frequency > 0 {
		period := time.Duration(float64(time.Second) / float64(d.Control.Frequency))
		cfg.Period = maxDuration(control.MinPeriod, period)
	}
	switch d.Control.Type {
	case "analytical":
		cfg.Strategy = control.StrategyAnalytical
	default:
		cfg.Strategy = control.StrategyFeedforward
	}
	return cfg
}
