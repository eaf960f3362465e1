package projection

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Common errors
var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrInvalidDimension  = errors.New("matrix dimension must be positive")
	ErrMalformedBlob     = errors.New("malformed matrix blob")
)

// Matrix is a dense D×D projection matrix stored row-major. It is the sole
// trainable parameter of the system: a query embedding is right-multiplied by
// the matrix before being compared with passage embeddings.
type Matrix struct {
	dim int
	w   []float64
}

// NewMatrix creates a zero-valued dim×dim matrix.
func NewMatrix(dim int) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	return &Matrix{
		dim: dim,
		w:   make([]float64, dim*dim),
	}, nil
}

// Identity creates a dim×dim identity matrix. Scoring with the identity
// matrix is exactly the baseline dot product. Panics if dim <= 0.
func Identity(dim int) *Matrix {
	m, err := NewMatrix(dim)
	if err != nil {
		panic(fmt.Sprintf("projection: %v", err))
	}
	for i := 0; i < dim; i++ {
		m.w[i*dim+i] = 1
	}
	return m
}

// Random creates an identity matrix perturbed with small Gaussian noise,
// deterministic for a given seed. Useful to break symmetry when the identity
// initialization stalls. Panics if dim <= 0.
func Random(dim int, seed int64) *Matrix {
	m := Identity(dim)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // determinism, not crypto
	for i := range m.w {
		m.w[i] += rng.NormFloat64() * 0.01
	}
	return m
}

// Dim returns the matrix dimension D.
func (m *Matrix) Dim() int {
	return m.dim
}

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.w[i*m.dim+j]
}

// Set assigns the entry at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.w[i*m.dim+j] = v
}

// Weights exposes the row-major backing slice. The trainer mutates entries
// through this slice during optimizer steps; other callers must treat it as
// read-only.
func (m *Matrix) Weights() []float64 {
	return m.w
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	w := make([]float64, len(m.w))
	copy(w, m.w)
	return &Matrix{dim: m.dim, w: w}
}

// IsFinite reports whether every entry is finite (no NaN or Inf). This is the
// post-epoch invariant the trainer enforces.
func (m *Matrix) IsFinite() bool {
	for _, v := range m.w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Bytes serializes the matrix as a little-endian blob: a uint32 dimension
// header followed by dim*dim float64 entries in row-major order.
func (m *Matrix) Bytes() []byte {
	blob := make([]byte, 4+len(m.w)*8)
	binary.LittleEndian.PutUint32(blob, uint32(m.dim))
	for i, v := range m.w {
		binary.LittleEndian.PutUint64(blob[4+i*8:], math.Float64bits(v))
	}
	return blob
}

// FromBytes deserializes a matrix produced by Bytes.
func FromBytes(blob []byte) (*Matrix, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("%w: blob too short", ErrMalformedBlob)
	}
	dim := int(binary.LittleEndian.Uint32(blob))
	if dim <= 0 || len(blob) != 4+dim*dim*8 {
		return nil, fmt.Errorf("%w: dim %d with %d payload bytes", ErrMalformedBlob, dim, len(blob)-4)
	}
	w := make([]float64, dim*dim)
	for i := range w {
		w[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[4+i*8:]))
	}
	return &Matrix{dim: dim, w: w}, nil
}
