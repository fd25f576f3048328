package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/renan028/arm-3dof-control/internal/control"
	"github.com/renan028/arm-3dof-control/internal/kinematics"
	"github.com/renan028/arm-3dof-control/internal/plant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigMissing)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "robot: [this is not a mapping\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigMalformed)
}

func TestLoadRejectsUnknownEnum(t *testing.T) {
	path := writeConfig(t, "robot:\n  ik: quantum\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigMalformed)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "unrelated_key: 1\n")
	doc, err := Load(path)
	require.NoError(t, err)

	robotCfg := doc.RobotConfig()
	assert.Equal(t, kinematics.FKFast, robotCfg.FK)
	assert.Equal(t, kinematics.IKAnalytical, robotCfg.IK)

	sysCfg := doc.SystemConfig()
	assert.Equal(t, plant.DefaultConfig(), sysCfg)

	ctrlCfg := doc.ControlConfig()
	assert.Equal(t, control.StrategyFeedforward, ctrlCfg.Strategy)
}

func TestLoadFullDocument(t *testing.T) {
	path := writeConfig(t, `
robot:
  ik: damped
  fk: generic
  joints_min: [-3.0, -1.0, -3.0]
  joints_max: [3.0, 1.0, 3.0]
robot_system:
  frequency: 500
  save_output: true
  encoder_resolution: 2048
control:
  frequency: 100
  type: analytical
`)
	doc, err := Load(path)
	require.NoError(t, err)

	robotCfg := doc.RobotConfig()
	assert.Equal(t, kinematics.IKDamped, robotCfg.IK)
	assert.Equal(t, kinematics.FKGeneric, robotCfg.FK)
	assert.Equal(t, kinematics.Vector3{-3, -1, -3}, robotCfg.JointsMin)

	sysCfg := doc.SystemConfig()
	assert.Equal(t, 2048, sysCfg.EncoderResolution)
	assert.True(t, sysCfg.SaveOutput)

	ctrlCfg := doc.ControlConfig()
	assert.Equal(t, control.StrategyAnalytical, ctrlCfg.Strategy)
}
