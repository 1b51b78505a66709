package config

import (
	"github.com/jpfielding/blockcodec.go/pkg/codec"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// Purpose selects which options must be present.
type Purpose int

const (
	ForEncode Purpose = iota
	ForDecode
)

// Options builds validated codec options from the store. Every missing or
// malformed option is reported, by name, in one error.
func (s *Store) Options(p Purpose) (codec.Options, error) {
	s.Require("frame_width", "frame_height", "block_size", "qp")
	if p == ForEncode {
		s.Require("num_frames", "search_range")
	}
	d := codec.Defaults()
	o := codec.Options{
		Frames:      s.Uint("num_frames", 0),
		Width:       s.Uint("frame_width", 0),
		Height:      s.Uint("frame_height", 0),
		BlockSize:   s.Uint("block_size", 0),
		SearchRange: s.Uint("search_range", 0),
		QP:          s.Uint("qp", 0),

		RefFrames: s.Uint("nRefFrames", d.RefFrames),
		IPeriod:   s.Uint("I_Period", d.IPeriod),
		FastME:    s.Bool("FastFME", false),
		Split:     s.Bool("VBSEnable", false),
		Windowed:  s.Bool("HwModeEnable", false),

		Estimation: residual.Estimation(s.Uint("rdo_estimation", int(d.Estimation))),
		C1:         s.Float("rdo_estimation_c1", d.C1),
		C2:         s.Float("rdo_estimation_c2", d.C2),

		ColourBlocks:  s.Bool("debug_colour_blocks", false),
		DebugEstimate: s.Bool("debug_res_est", false),
		DumpDebug:     s.Bool("dump_debug_files", false),
		NoTransform:   s.Bool("disable_transform", false),
		NoQuantize:    s.Bool("disable_quantization", false),
	}
	if err := s.Err(); err != nil {
		return o, err
	}
	return o, o.Validate()
}

// Load reads path, applies overrides and builds the options.
func Load(path string, overrides []string, p Purpose) (codec.Options, error) {
	s, err := ReadFile(path)
	if err != nil {
		return codec.Options{}, err
	}
	if err := s.Override(overrides); err != nil {
		return codec.Options{}, err
	}
	return s.Options(p)
}
