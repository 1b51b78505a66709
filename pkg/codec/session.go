package codec

import (
	"github.com/jpfielding/blockcodec.go/pkg/compress/dct"
	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/predict"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// window is the bounded list of reference pictures, most recent first.
type window struct {
	size int
	pics []*picture.Picture
}

func (w *window) push(p *picture.Picture) {
	w.pics = append([]*picture.Picture{p}, w.pics...)
	if len(w.pics) > w.size {
		w.pics = w.pics[:w.size]
	}
}

func (w *window) reset() { w.pics = nil }

func (w *window) luma() []*plane.Plane {
	out := make([]*plane.Plane, len(w.pics))
	for i, p := range w.pics {
		out[i] = p.Y
	}
	return out
}

// session is the state encoder and decoder share: the options, the transform
// with its basis cache, and the reference window.
type session struct {
	opts  Options
	coder *residual.Coder
	refs  window
	count int
}

func newSession(opts Options) session {
	return session{
		opts:  opts,
		coder: residual.NewCoder(dct.New(opts.NoTransform, opts.NoQuantize), opts.CostModel()),
		refs:  window{size: opts.RefFrames},
	}
}

// Result describes one coded picture.
type Result struct {
	Index  int
	Kind   Kind
	Blocks []predict.Block
	Recon  *picture.Picture
	// Source is the padded input picture; encoder only.
	Source *picture.Picture
	Bytes  int
}

// source maps a block to its debug palette entry.
func source(k Kind, b predict.Block) int {
	if k == Inter {
		return b.MV.Ref + 1
	}
	if b.Mode == predict.Above {
		return picture.SourceAbove
	}
	return picture.SourceLeft
}

func placed(k Kind, blocks []predict.Block) []picture.Placed {
	out := make([]picture.Placed, len(blocks))
	for i, b := range blocks {
		out[i] = picture.Placed{Coord: b.Coord, Size: b.Size, Source: source(k, b)}
	}
	return out
}

// finishPicture wraps the reconstructed luma and updates the reference window.
func (s *session) finishPicture(k Kind, canvas *plane.Plane, blocks []predict.Block) *picture.Picture {
	recon := picture.Compose(canvas, placed(k, blocks), s.opts.ColourBlocks)
	s.refs.push(recon)
	s.count++
	return recon
}
