package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix(t *testing.T) {
	tests := []struct {
		name    string
		dim     int
		wantErr bool
	}{
		{name: "valid dimension", dim: 4, wantErr: false},
		{name: "dimension one", dim: 1, wantErr: false},
		{name: "zero dimension", dim: 0, wantErr: true},
		{name: "negative dimension", dim: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatrix(tt.dim)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDimension)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dim, m.Dim())
			for i := 0; i < tt.dim; i++ {
				for j := 0; j < tt.dim; j++ {
					assert.Zero(t, m.At(i, j))
				}
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	m := Identity(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.Equal(t, want, m.At(i, j))
		}
	}
}

func TestRandomDeterministic(t *testing.T) {
	a := Random(4, 7)
	b := Random(4, 7)
	c := Random(4, 8)

	assert.Equal(t, a.Weights(), b.Weights(), "same seed must reproduce the same matrix")
	assert.NotEqual(t, a.Weights(), c.Weights(), "different seeds should differ")
	assert.True(t, a.IsFinite())
}

func TestCloneIsIndependent(t *testing.T) {
	m := Identity(2)
	c := m.Clone()
	c.Set(0, 1, 5)

	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Equal(t, 5.0, c.At(0, 1))
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{name: "finite", value: 1.5, want: true},
		{name: "nan", value: math.NaN(), want: false},
		{name: "positive inf", value: math.Inf(1), want: false},
		{name: "negative inf", value: math.Inf(-1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Identity(2)
			m.Set(1, 0, tt.value)
			assert.Equal(t, tt.want, m.IsFinite())
		})
	}
}

func TestBytesRoundTrip(t *testing.T) {
	m := Random(3, 99)
	m.Set(2, 1, -0.125)

	got, err := FromBytes(m.Bytes())
	require.NoError(t, err)
	assert.Equal(t, m.Dim(), got.Dim())
	assert.Equal(t, m.Weights(), got.Weights())
}

func TestFromBytesMalformed(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{name: "empty", blob: nil},
		{name: "short header", blob: []byte{1, 0}},
		{name: "truncated payload", blob: append([]byte{2, 0, 0, 0}, make([]byte, 8)...)},
		{name: "zero dimension", blob: []byte{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.blob)
			assert.ErrorIs(t, err, ErrMalformedBlob)
		})
	}
}
