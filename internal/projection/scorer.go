package projection

import "fmt"

// Baseline computes the symmetric dot-product similarity of two embeddings.
// Returns 0 for mismatched lengths, matching the tolerance of cosine-style
// scorers elsewhere in the codebase.
func Baseline(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// ProjectQuery computes the row vector q·P. The result can be reused across
// an entire corpus scan so the projection is applied once per query.
func ProjectQuery(q []float32, m *Matrix) ([]float64, error) {
	if len(q) != m.dim {
		return nil, fmt.Errorf("%w: query dim %d, matrix dim %d", ErrDimensionMismatch, len(q), m.dim)
	}
	out := make([]float64, m.dim)
	for j := 0; j < m.dim; j++ {
		var sum float64
		for i := 0; i < m.dim; i++ {
			sum += float64(q[i]) * m.w[i*m.dim+j]
		}
		out[j] = sum
	}
	return out, nil
}

// DotProjected computes the dot product of an already-projected query vector
// with a passage embedding. Returns 0 for mismatched lengths.
func DotProjected(projected []float64, passage []float32) float64 {
	if len(projected) != len(passage) {
		return 0
	}
	var sum float64
	for i := range projected {
		sum += projected[i] * float64(passage[i])
	}
	return sum
}

// Projected computes the bilinear similarity qᵀ·P·p. Unlike Baseline it is
// asymmetric in query and passage unless P is symmetric. When P is the
// identity matrix it equals Baseline exactly.
func Projected(q, p []float32, m *Matrix) (float64, error) {
	if len(p) != m.dim {
		return 0, fmt.Errorf("%w: passage dim %d, matrix dim %d", ErrDimensionMismatch, len(p), m.dim)
	}
	projected, err := ProjectQuery(q, m)
	if err != nil {
		return 0, err
	}
	return DotProjected(projected, p), nil
}
