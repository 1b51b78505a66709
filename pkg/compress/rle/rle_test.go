package rle

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Tokens(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"all zero", []int{0, 0, 0, 0}, []int{4}},
		{"all literal", []int{3, -1, 7}, []int{-3, 3, -1, 7}},
		{"mixed", []int{5, 0, 0, -2, 4, 0}, []int{-1, 5, 2, -2, -2, 4, 1}},
		{"leading zeros", []int{0, 9}, []int{1, -1, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.in)
			assert.Equal(t, tt.want, got)
			back, err := Decode(got)
			require.NoError(t, err)
			assert.Equal(t, tt.in, back)
		})
	}
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		in := make([]int, 1+rng.Intn(64))
		for j := range in {
			if rng.Intn(3) > 0 {
				in[j] = rng.Intn(41) - 20
			}
		}
		back, err := Decode(Encode(in))
		require.NoError(t, err)
		if diff := cmp.Diff(in, back); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		tokens []int
	}{
		{"empty", nil},
		{"zero token", []int{0}},
		{"zero literal", []int{-2, 4, 0}},
		{"exhausted", []int{-3, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.tokens)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestScan_Order(t *testing.T) {
	// 0 1 2
	// 3 4 5
	// 6 7 8
	m := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, []int{0, 1, 3, 2, 4, 6, 5, 7, 8}, Scan(m, 3))
}

func TestScan_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, n := range []int{1, 2, 4, 8, 16} {
		m := make([]int, n*n)
		for i := range m {
			m[i] = rng.Intn(2001) - 1000
		}
		back, gotN, err := Unscan(Scan(m, n))
		require.NoError(t, err)
		assert.Equal(t, n, gotN)
		if diff := cmp.Diff(m, back); diff != "" {
			t.Errorf("n=%d mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestUnscan_NotSquare(t *testing.T) {
	_, _, err := Unscan(make([]int, 5))
	assert.ErrorIs(t, err, ErrMalformed)
	_, _, err = Unscan(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}
