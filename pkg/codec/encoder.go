package codec

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/blockcodec.go/pkg/compress/golomb"
	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/predict"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// Encoder codes a sequence of pictures onto a side-information stream and a
// residual stream. It is not safe for concurrent use.
type Encoder struct {
	session
	side, res *golomb.Writer
	debug     *Debug
}

func NewEncoder(opts Options, side, res io.Writer) (*Encoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{
		session: newSession(opts),
		side:    golomb.NewWriter(side),
		res:     golomb.NewWriter(res),
	}, nil
}

// WithDebug dumps prediction and residual pictures plus block parameters.
func (e *Encoder) WithDebug(d *Debug) *Encoder {
	e.debug = d
	return e
}

// WithEstimateSink records estimated cost, bytes and SAD for every written residual.
func (e *Encoder) WithEstimateSink(s *residual.EstimateSink) *Encoder {
	e.coder.Sink = s
	return e
}

// Written is the byte total across both streams.
func (e *Encoder) Written() int64 { return e.side.Written() + e.res.Written() }

// Encode codes one raw picture and returns its local reconstruction, which is
// exactly what a decoder will produce.
func (e *Encoder) Encode(ctx context.Context, src *picture.Picture) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.Width() != e.opts.Width || src.Height() != e.opts.Height {
		return nil, fmt.Errorf("%w: picture %dx%d, configured %dx%d",
			ErrOptions, src.Width(), src.Height(), e.opts.Width, e.opts.Height)
	}
	pic := src.PadToBlock(e.opts.BlockSize)
	g := e.opts.Grid()
	canvas := plane.Filled(g.Width, g.Height, picture.Gray)

	kind := Inter
	if e.opts.IsIntra(e.count) {
		kind = Intra
		e.refs.reset()
	}

	var blocks []predict.Block
	switch kind {
	case Intra:
		p := &predict.Intra{Coder: e.coder, Split: e.opts.Split}
		last := predict.InitialMode
		for c := (picture.Coord{}); !g.Done(c); c = g.Next(c, g.Block) {
			var bs []predict.Block
			bs, last = p.Code(pic.Y, canvas, g, c, e.opts.QP, last)
			blocks = append(blocks, bs...)
		}
	case Inter:
		p := &predict.Inter{
			Coder:    e.coder,
			Refs:     e.refs.luma(),
			Range:    e.opts.SearchRange,
			Strategy: e.opts.Strategy(),
			Split:    e.opts.Split,
		}
		var last predict.MV
		for c := (picture.Coord{}); !g.Done(c); c = g.Next(c, g.Block) {
			if c.Col == 0 {
				last = predict.MV{}
			}
			var bs []predict.Block
			bs, last = p.Code(pic.Y, canvas, g, c, e.opts.QP, last)
			blocks = append(blocks, bs...)
		}
	}

	n, err := FromBlocks(kind, blocks).Write(e.side, e.res, e.coder)
	if err != nil {
		return nil, fmt.Errorf("picture %d: %w", e.count, err)
	}
	if e.debug != nil {
		if err := e.debug.Dump(g, kind, blocks, e.coder, e.opts.ColourBlocks); err != nil {
			return nil, fmt.Errorf("picture %d debug: %w", e.count, err)
		}
	}
	res := &Result{Index: e.count, Kind: kind, Blocks: blocks, Source: pic, Bytes: n}
	res.Recon = e.finishPicture(kind, canvas, blocks)
	slog.DebugContext(ctx, "encoded picture",
		"index", res.Index, "kind", kind.String(), "blocks", len(blocks), "bytes", n)
	return res, nil
}
