// Package dct implements the orthonormal N x N DCT-II used for residual blocks
// together with its three-region quantiser.
package dct

import (
	"math"
	"sync"

	"github.com/jpfielding/blockcodec.go/pkg/plane"
)

// Transformer owns the per-size basis matrices. The zero value is not usable;
// call New.
type Transformer struct {
	// NoTransform passes samples straight through as coefficients.
	NoTransform bool
	// NoQuantize forces every quantiser step to 1.
	NoQuantize bool

	mu    sync.Mutex
	bases map[int][]float64
}

func New(noTransform, noQuantize bool) *Transformer {
	return &Transformer{
		NoTransform: noTransform,
		NoQuantize:  noQuantize,
		bases:       map[int][]float64{},
	}
}

// Basis returns the row-major n x n basis C, computing it once per size.
func (t *Transformer) Basis(n int) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.bases[n]; ok {
		return c
	}
	c := make([]float64, n*n)
	a0, a := 1/math.Sqrt(float64(n)), math.Sqrt(2/float64(n))
	for j := 0; j < n; j++ {
		c[j] = a0
	}
	for i := 1; i < n; i++ {
		for j := 0; j < n; j++ {
			c[i*n+j] = a * math.Cos(math.Pi*float64(2*j+1)*float64(i)/float64(2*n))
		}
	}
	t.bases[n] = c
	return c
}

// Forward computes C * B * Ct for a square block.
func (t *Transformer) Forward(b *plane.Plane) []float64 {
	n := b.Width
	if b.Height != n {
		panic("dct: forward transform of non-square block")
	}
	m := make([]float64, n*n)
	for i, v := range b.Pix {
		m[i] = float64(v)
	}
	if t.NoTransform {
		return m
	}
	c := t.Basis(n)
	return mul(c, mul(m, c, n, false, true), n, false, false)
}

// Inverse computes Ct * X * C, clamps to [0,255] and rounds to samples.
func (t *Transformer) Inverse(coefs []float64, n int) *plane.Plane {
	m := coefs
	if !t.NoTransform {
		c := t.Basis(n)
		m = mul(c, mul(coefs, c, n, false, false), n, true, false)
	}
	out := plane.New(n, n)
	for i, v := range m {
		out.Pix[i] = byte(math.Round(math.Min(255, math.Max(0, v))))
	}
	return out
}

// Step is the quantiser step for coefficient (i, j) of an n x n block:
// 2^qp above the anti-diagonal, 2^(qp+1) on it, 2^(qp+2) below it.
func (t *Transformer) Step(i, j, n, qp int) float64 {
	if t.NoQuantize {
		return 1
	}
	switch d := i + j; {
	case d < n-1:
		return math.Ldexp(1, qp)
	case d == n-1:
		return math.Ldexp(1, qp+1)
	default:
		return math.Ldexp(1, qp+2)
	}
}

// Quantize divides by the region step and rounds half away from zero.
func (t *Transformer) Quantize(coefs []float64, n, qp int) []int {
	q := make([]int, len(coefs))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			q[i*n+j] = int(math.Round(coefs[i*n+j] / t.Step(i, j, n, qp)))
		}
	}
	return q
}

// Rescale multiplies quantised levels back by their region step.
func (t *Transformer) Rescale(q []int, n, qp int) []float64 {
	coefs := make([]float64, len(q))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			coefs[i*n+j] = float64(q[i*n+j]) * t.Step(i, j, n, qp)
		}
	}
	return coefs
}

// mul returns op(a) * op(b) for n x n row-major matrices, where op transposes
// when the matching flag is set.
func mul(a, b []float64, n int, ta, tb bool) []float64 {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k < n; k++ {
				av := a[i*n+k]
				if ta {
					av = a[k*n+i]
				}
				bv := b[k*n+j]
				if tb {
					bv = b[j*n+k]
				}
				s += av * bv
			}
			out[i*n+j] = s
		}
	}
	return out
}
