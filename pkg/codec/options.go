// Package codec drives picture-at-a-time encoding and decoding over a pair of
// streams: side information (picture tags, motion vectors, intra modes) and
// residual coefficients.
package codec

import (
	"errors"
	"fmt"

	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/predict"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// ErrOptions signals an option combination the codec cannot run with.
var ErrOptions = errors.New("codec: invalid options")

// maxQP keeps 2^(qp+2) well inside float64 integer precision.
const maxQP = 50

// Options is everything a session needs to know before the first picture.
type Options struct {
	Frames      int `json:"num_frames"`
	Width       int `json:"frame_width"`
	Height      int `json:"frame_height"`
	BlockSize   int `json:"block_size"`
	SearchRange int `json:"search_range"`
	QP          int `json:"qp"`

	RefFrames int  `json:"nRefFrames"`
	IPeriod   int  `json:"I_Period"`
	FastME    bool `json:"FastFME"`
	Split     bool `json:"VBSEnable"`
	Windowed  bool `json:"HwModeEnable"`

	Estimation residual.Estimation `json:"rdo_estimation"`
	C1         float64             `json:"rdo_estimation_c1"`
	C2         float64             `json:"rdo_estimation_c2"`

	ColourBlocks  bool `json:"debug_colour_blocks"`
	DebugEstimate bool `json:"debug_res_est"`
	DumpDebug     bool `json:"dump_debug_files"`
	NoTransform   bool `json:"disable_transform"`
	NoQuantize    bool `json:"disable_quantization"`
}

// Defaults fills the optional settings with their stock values.
func Defaults() Options {
	return Options{RefFrames: 1, IPeriod: 1, C1: 900, C2: 900}
}

// Validate rejects options that would break a picture or block invariant.
func (o Options) Validate() error {
	var errs []error
	bad := func(name string, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrOptions, name, fmt.Sprintf(format, args...)))
	}
	if o.BlockSize < 2 || o.BlockSize%2 != 0 {
		bad("block_size", "must be even and at least 2, got %d", o.BlockSize)
	}
	if o.Width <= 0 || o.Width%2 != 0 {
		bad("frame_width", "must be positive and even, got %d", o.Width)
	}
	if o.Height <= 0 || o.Height%2 != 0 {
		bad("frame_height", "must be positive and even, got %d", o.Height)
	}
	if o.QP < 0 || o.QP > maxQP {
		bad("qp", "must be in [0,%d], got %d", maxQP, o.QP)
	}
	if o.SearchRange < 0 {
		bad("search_range", "must not be negative, got %d", o.SearchRange)
	}
	if o.RefFrames < 1 {
		bad("nRefFrames", "must be at least 1, got %d", o.RefFrames)
	}
	if o.IPeriod < 1 {
		bad("I_Period", "must be at least 1, got %d", o.IPeriod)
	}
	if o.Estimation < residual.EstimateNone || o.Estimation > residual.EstimateMeasured {
		bad("rdo_estimation", "must be 0, 1 or 2, got %d", o.Estimation)
	}
	return errors.Join(errs...)
}

// Strategy maps the search switches onto a motion search. The windowed model
// wins over the fast pattern.
func (o Options) Strategy() predict.Strategy {
	switch {
	case o.Windowed:
		return predict.Windowed
	case o.FastME:
		return predict.Fast
	}
	return predict.Exhaustive
}

// CostModel is the rate model selected by the options.
func (o Options) CostModel() residual.CostModel {
	return residual.CostModel{Estimation: o.Estimation, C1: o.C1, C2: o.C2}
}

// Padded is the coded picture size: each dimension rounded up to a block.
func (o Options) Padded() (int, int) {
	return o.Width + picture.PadAmount(o.Width, o.BlockSize), o.Height + picture.PadAmount(o.Height, o.BlockSize)
}

// Grid is the block walk over the coded picture.
func (o Options) Grid() picture.Grid {
	w, h := o.Padded()
	return picture.Grid{Width: w, Height: h, Block: o.BlockSize}
}

// IsIntra reports whether picture n of the sequence is intra coded.
func (o Options) IsIntra(n int) bool { return n%o.IPeriod == 0 }
