package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: -1.0,
		},
		{
			name:     "zero norm",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "length mismatch",
			a:        []float32{1, 2},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "both empty",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.5, -1.25, 3.0, 0.01}
	b := []float32{2.0, 0.75, -0.5, 1.5}

	assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	vec := []float32{0.0, 1.5, -2.25, 3.14159, -0.0001}

	decoded := decodeVector(encodeVector(vec))
	assert.Equal(t, vec, decoded)
}

func TestDecodeVector_Empty(t *testing.T) {
	assert.Empty(t, decodeVector(nil))
	assert.Empty(t, decodeVector([]byte{}))
}

func TestDecodeVector_TruncatedTail(t *testing.T) {
	// 6 bytes is one full float32 plus two stray bytes.
	data := encodeVector([]float32{1.0})
	data = append(data, 0xAB, 0xCD)

	assert.Equal(t, []float32{1.0}, decodeVector(data))
}
