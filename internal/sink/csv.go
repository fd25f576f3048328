package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/renan028/arm-3dof-control/internal/kinematics"
)

// header is written exactly once.
var header = []string{"t", "x", "y", "z", "ux", "uy", "uz", "t1", "t2", "t3"}

// CSVSink writes one row per Save call to a file, fixed to 3 fractional
// digits, via the standard library's encoding/csv.
type CSVSink struct {
	f *os.File
	w *csv.Writer
}

// NewCSV opens path, truncating any existing file, and writes the header
// row immediately.
func NewCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: write header: %w", err)
	}
	w.Flush()
	return &CSVSink{f: f, w: w}, nil
}

// Save writes one fixed-3-decimal row: t,x,y,z,ux,uy,uz,t1,t2,t3.
func (s *CSVSink) Save(pos, cmd, joints kinematics.Vector3, t float64) error {
	row := []string{
		fmt.Sprintf("%.3f", t),
		fmt.Sprintf("%.3f", pos[0]),
		fmt.Sprintf("%.3f", pos[1]),
		fmt.Sprintf("%.3f", pos[2]),
		fmt.Sprintf("%.3f", cmd[0]),
		fmt.Sprintf("%.3f", cmd[1]),
		fmt.Sprintf("%.3f", cmd[2]),
		fmt.Sprintf("%.3f", joints[0]),
		fmt.Sprintf("%.3f", joints[1]),
		fmt.Sprintf("%.3f", joints[2]),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("sink: write row: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	return s.f.Close()
}
