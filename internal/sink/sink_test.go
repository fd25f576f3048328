package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/renan028/arm-3dof-control/internal/kinematics"
	"github.com/stretchr/testify/require"
)

func TestCSVSinkWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	s, err := NewCSV(path)
	require.NoError(t, err)

	err = s.Save(kinematics.Vector3{1, 2, 3}, kinematics.Vector3{0.1, 0.2, 0.3}, kinematics.Vector3{0.4, 0.5, 0.6}, 0.125)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "t,x,y,z,ux,uy,uz,t1,t2,t3\n0.125,1.000,2.000,3.000,0.100,0.200,0.300,0.400,0.500,0.600\n"
	require.Equal(t, want, string(b))
}
