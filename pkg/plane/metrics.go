package plane

import (
	"math"
)

// SSIM stabilisers for 8-bit samples.
const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

func (p *Plane) Sum() uint64 {
	var s uint64
	for _, v := range p.Pix {
		s += uint64(v)
	}
	return s
}

func (p *Plane) Mean() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	return float64(p.Sum()) / float64(len(p.Pix))
}

func (p *Plane) Variance() float64 { return Covariance(p, p) }

// Covariance is the population covariance of two equally sized planes.
func Covariance(a, b *Plane) float64 {
	mustMatch("covariance", a, b)
	if len(a.Pix) == 0 {
		return 0
	}
	ma, mb := a.Mean(), b.Mean()
	var acc float64
	for i := range a.Pix {
		acc += (float64(a.Pix[i]) - ma) * (float64(b.Pix[i]) - mb)
	}
	return acc / float64(len(a.Pix))
}

// SAD is the sum of absolute sample differences.
func SAD(a, b *Plane) int {
	mustMatch("sad", a, b)
	s := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		s += d
	}
	return s
}

// SADWithin sums |s-b| over samples within x of b and charges x for every other sample.
func (p *Plane) SADWithin(b, x byte) int {
	if x == 0 {
		panic("plane: sad within zero")
	}
	lo, hi := int(b)-int(x), int(b)+int(x)
	c := 0
	for _, s := range p.Pix {
		v := int(s)
		if v >= lo && v <= hi {
			d := v - int(b)
			if d < 0 {
				d = -d
			}
			c += d
		} else {
			c += int(x)
		}
	}
	return c
}

// MSE is the mean squared sample difference.
func MSE(a, b *Plane) float64 {
	mustMatch("mse", a, b)
	if len(a.Pix) == 0 {
		return 0
	}
	var acc float64
	for i := range a.Pix {
		d := float64(a.Pix[i]) - float64(b.Pix[i])
		acc += d * d
	}
	return acc / float64(len(a.Pix))
}

// PSNR in dB; identical planes yield +Inf.
func PSNR(a, b *Plane) float64 {
	mse := MSE(a, b)
	if mse == 0 {
		return math.Inf(1)
	}
	return 20*math.Log10(255) - 10*math.Log10(mse)
}

// SSIM over a single window spanning the whole plane.
func SSIM(a, b *Plane) float64 {
	ma, mb := a.Mean(), b.Mean()
	va, vb := a.Variance(), b.Variance()
	cov := Covariance(a, b)
	return ((2*ma*mb + ssimC1) * (2*cov + ssimC2)) /
		((ma*ma + mb*mb + ssimC1) * (va + vb + ssimC2))
}
