package residual

import (
	"math"

	"github.com/jpfielding/blockcodec.go/pkg/compress/golomb"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
)

// Estimation selects how the rate term of a candidate's cost is priced.
type Estimation int

const (
	// EstimateNone prices candidates by SAD alone.
	EstimateNone Estimation = iota
	// EstimateModel guesses the byte count from SAD and qp.
	EstimateModel
	// EstimateMeasured codes the residual and counts the bytes.
	EstimateMeasured
)

// Side information charged when a block's signalled value changes.
const (
	MVChangeBytes   = 12
	ModeChangeBytes = 4
)

type CostModel struct {
	Estimation Estimation
	C1, C2     float64
}

// DefaultCostModel is SAD-only with the stock constants.
func DefaultCostModel() CostModel { return CostModel{Estimation: EstimateNone, C1: 900, C2: 900} }

func lambda(c float64, qp int) float64 {
	return c * math.Pow(2, (float64(qp)-12)/3)
}

// Estimate returns SAD(cur, pred) plus the rate term. extra is the side
// information charge for this candidate.
func (c *Coder) Estimate(cur, pred *plane.Plane, qp, extra int) int {
	sad := plane.SAD(cur, pred)
	switch c.Cost.Estimation {
	case EstimateModel:
		est := int(float64(sad)*math.Ldexp(1, -qp)) + extra
		return sad + int(lambda(c.Cost.C1, qp)*float64(est))
	case EstimateMeasured:
		// sized without touching the stream or the debug sink
		bytes := golomb.EncodedLen(c.Encode(cur, pred, qp).Tokens()) + extra
		return sad + int(lambda(c.Cost.C2, qp)*float64(bytes))
	default:
		return sad
	}
}
