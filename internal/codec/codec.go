// Package codec packs and unpacks the 12-byte wire frame exchanged between
// Controller and Plant, and implements the encoder quantization model.
// Framing goes through encoding/binary plus math.Float32bits and
// math.Float32frombits rather than any unsafe pointer reinterpretation.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/renan028/arm-3dof-control/internal/kinematics"
)

// FrameSize is the fixed wire size of a packed Vector3: three IEEE-754
// binary32 values, little-endian.
const FrameSize = 12

// Pack3 encodes v as 12 little-endian bytes, three consecutive binary32
// values.
func Pack3(v kinematics.Vector3) [FrameSize]byte {
	var out [FrameSize]byte
	for i := 0; i < 3; i++ {
		bits := math.Float32bits(float32(v[i]))
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], bits)
	}
	return out
}

// Unpack3 decodes b into a Vector3. An empty b returns the zero vector,
// the startup sentinel a Channel exposes before its first write.
func Unpack3(b []byte) kinematics.Vector3 {
	if len(b) == 0 {
		return kinematics.Vector3{}
	}
	var v kinematics.Vector3
	for i := 0; i < 3; i++ {
		bits := binary.LittleEndian.Uint32(b[i*4 : i*4+4])
		v[i] = float64(math.Float32frombits(bits))
	}
	return v
}

// DefaultEncoderResolution is the encoder's default counts-per-revolution,
// 4096 counts per 2*pi.
const DefaultEncoderResolution = 4096

// Quantize simulates the encoder's finite resolution on a single joint
// value in [-pi, pi]: n = trunc(N*(q+pi)/(2*pi)), q' = 2*pi*n/N - pi.
func Quantize(q float64, resolution int) float64 {
	n := int(float64(resolution) * (q + math.Pi) / (2 * math.Pi))
	return 2*math.Pi*float64(n)/float64(resolution) - math.Pi
}

// Quantize3 applies Quantize to every component of v.
func Quantize3(v kinematics.Vector3, resolution int) kinematics.Vector3 {
	return kinematics.Vector3{
		Quantize(v[0], resolution),
		Quantize(v[1], resolution),
		Quantize(v[2], resolution),
	}
}
