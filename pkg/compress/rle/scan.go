package rle

import (
	"fmt"
	"math"
)

// Order lists the row-major indices of an n x n matrix in anti-diagonal order:
// diagonal d=0..2n-2, and within it row 0.. with col d..0.
func Order(n int) []int {
	idx := make([]int, 0, n*n)
	for d := 0; d <= 2*n-2; d++ {
		for r := 0; r <= d; r++ {
			c := d - r
			if r < n && c < n {
				idx = append(idx, r*n+c)
			}
		}
	}
	return idx
}

// Scan serialises a row-major n x n matrix.
func Scan(m []int, n int) []int {
	if len(m) != n*n {
		panic(fmt.Sprintf("rle: scan of %d values as %dx%d", len(m), n, n))
	}
	out := make([]int, len(m))
	for i, k := range Order(n) {
		out[i] = m[k]
	}
	return out
}

// Unscan restores a row-major matrix and reports its side length.
func Unscan(seq []int) ([]int, int, error) {
	n := int(math.Sqrt(float64(len(seq))))
	for n*n < len(seq) {
		n++
	}
	if n == 0 || n*n != len(seq) {
		return nil, 0, fmt.Errorf("%w: %d coefficients is not a square block", ErrMalformed, len(seq))
	}
	m := make([]int, len(seq))
	for i, k := range Order(n) {
		m[k] = seq[i]
	}
	return m, n, nil
}
