package codec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/predict"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

func baseOptions() Options {
	o := Defaults()
	o.Frames = 5
	o.Width, o.Height = 30, 24
	o.BlockSize = 8
	o.SearchRange = 4
	o.QP = 3
	o.RefFrames = 2
	o.IPeriod = 3
	return o
}

// sequence pans a textured scene two columns per picture.
func sequence(n, w, h int) []*picture.Picture {
	rng := rand.New(rand.NewSource(42))
	scene := plane.New(w+2*n, h)
	for r := 0; r < scene.Height; r++ {
		for c := 0; c < scene.Width; c++ {
			scene.Set(r, c, byte(int(128+60*math.Sin(float64(r)/3)*math.Cos(float64(c)/4))+rng.Intn(9)-4))
		}
	}
	out := make([]*picture.Picture, n)
	for k := range out {
		p := picture.FromLuma(scene.Block(0, 2*k, h, w))
		for i := range p.U.Pix {
			p.U.Pix[i] = byte(rng.Intn(256))
		}
		out[k] = p
	}
	return out
}

func encodeAll(t *testing.T, o Options, pics []*picture.Picture) ([]*Result, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var side, res bytes.Buffer
	enc, err := NewEncoder(o, &side, &res)
	require.NoError(t, err)
	var out []*Result
	for _, p := range pics {
		r, err := enc.Encode(context.Background(), p)
		require.NoError(t, err)
		out = append(out, r)
	}
	assert.Equal(t, int64(side.Len()+res.Len()), enc.Written())
	return out, &side, &res
}

func decodeAll(t *testing.T, o Options, side, res io.Reader) []*Result {
	t.Helper()
	dec, err := NewDecoder(o, side, res)
	require.NoError(t, err)
	var out []*Result
	for {
		r, err := dec.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		out = append(out, r)
	}
	assert.Equal(t, len(out), dec.Count())
	return out
}

func TestRoundTrip_DecoderMatchesEncoder(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
	}{
		{"all intra", func(o *Options) { o.IPeriod = 1; o.RefFrames = 1 }},
		{"exhaustive", func(o *Options) {}},
		{"fast", func(o *Options) { o.FastME = true }},
		{"windowed", func(o *Options) { o.Windowed = true; o.SearchRange = 6 }},
		{"split", func(o *Options) { o.Split = true }},
		{"split intra qp0", func(o *Options) { o.Split = true; o.IPeriod = 1; o.QP = 0 }},
		{"model rdo", func(o *Options) { o.Estimation = residual.EstimateModel; o.Split = true }},
		{"measured rdo", func(o *Options) { o.Estimation = residual.EstimateMeasured; o.FastME = true }},
		{"colour blocks", func(o *Options) { o.ColourBlocks = true; o.Split = true }},
		{"no transform", func(o *Options) { o.NoTransform = true; o.NoQuantize = true }},
		{"block 4 single ref", func(o *Options) { o.BlockSize = 4; o.RefFrames = 1; o.IPeriod = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := baseOptions()
			tt.mod(&o)
			pics := sequence(o.Frames, o.Width, o.Height)
			enc, side, res := encodeAll(t, o, pics)
			dec := decodeAll(t, o, side, res)
			require.Len(t, dec, len(enc))
			for i := range enc {
				assert.Equal(t, enc[i].Kind, dec[i].Kind, "picture %d", i)
				assert.Equal(t, o.IsIntra(i), enc[i].Kind == Intra)
				require.Equal(t, enc[i].Recon.Bytes(), dec[i].Recon.Bytes(), "picture %d", i)
				assert.Greater(t, plane.PSNR(enc[i].Source.Y, enc[i].Recon.Y), 20.0, "picture %d", i)
			}
		})
	}
}

func TestRoundTrip_LosslessWithoutTransform(t *testing.T) {
	o := baseOptions()
	o.NoTransform, o.NoQuantize = true, true
	o.Split = true
	pics := sequence(o.Frames, o.Width, o.Height)
	enc, side, res := encodeAll(t, o, pics)
	dec := decodeAll(t, o, side, res)
	for i := range dec {
		assert.Equal(t, enc[i].Source.Y.Pix, dec[i].Recon.Y.Pix, "picture %d", i)
	}
}

func TestSolidGray_IsPerfect(t *testing.T) {
	o := baseOptions()
	o.Frames, o.Width, o.Height, o.BlockSize = 3, 16, 16, 8
	o.QP, o.IPeriod, o.RefFrames = 0, 1, 1
	var pics []*picture.Picture
	for i := 0; i < o.Frames; i++ {
		pics = append(pics, picture.New(16, 16))
	}
	enc, side, res := encodeAll(t, o, pics)
	for _, r := range enc {
		for _, b := range r.Blocks {
			assert.Zero(t, b.Unit.SAD, "block at %v", b.Coord)
		}
	}
	dec := decodeAll(t, o, side, res)
	require.Len(t, dec, 3)
	for i, r := range dec {
		assert.True(t, math.IsInf(plane.PSNR(pics[i].Y, r.Recon.Y), 1), "picture %d", i)
		assert.Equal(t, pics[i].Bytes(), r.Recon.Bytes())
	}
}

func TestEncoder_ReferenceWindow(t *testing.T) {
	o := baseOptions()
	o.IPeriod, o.RefFrames = 10, 2
	var side, res bytes.Buffer
	enc, err := NewEncoder(o, &side, &res)
	require.NoError(t, err)
	for i, p := range sequence(4, o.Width, o.Height) {
		r, err := enc.Encode(context.Background(), p)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(enc.refs.pics), 2)
		assert.Same(t, r.Recon, enc.refs.pics[0], "picture %d is the newest reference", i)
		for _, b := range r.Blocks {
			assert.Less(t, b.MV.Ref, max(1, min(i, 2)))
		}
	}
}

func TestDecoder_StreamMismatch(t *testing.T) {
	o := baseOptions()
	_, side, res := encodeAll(t, o, sequence(2, o.Width, o.Height))

	dec, err := NewDecoder(o, bytes.NewReader(nil), res)
	require.NoError(t, err)
	_, err = dec.Next(context.Background())
	assert.ErrorIs(t, err, ErrStreamMismatch)

	dec, err = NewDecoder(o, side, bytes.NewReader(nil))
	require.NoError(t, err)
	_, err = dec.Next(context.Background())
	assert.ErrorIs(t, err, ErrStreamMismatch)
}

func TestDecoder_Corrupt(t *testing.T) {
	o := baseOptions()
	_, side, res := encodeAll(t, o, sequence(1, o.Width, o.Height))

	bad := append([]byte{7}, side.Bytes()[1:]...)
	dec, err := NewDecoder(o, bytes.NewReader(bad), bytes.NewReader(res.Bytes()))
	require.NoError(t, err)
	_, err = dec.Next(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)

	// inter tag on the first picture has nothing to predict from
	bad = append([]byte{byte(Inter)}, side.Bytes()[1:]...)
	dec, err = NewDecoder(o, bytes.NewReader(bad), bytes.NewReader(res.Bytes()))
	require.NoError(t, err)
	_, err = dec.Next(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOptions_Validate(t *testing.T) {
	o := baseOptions()
	require.NoError(t, o.Validate())

	o.BlockSize = 7
	o.Width = 31
	o.IPeriod = 0
	err := o.Validate()
	require.ErrorIs(t, err, ErrOptions)
	for _, name := range []string{"block_size", "frame_width", "I_Period"} {
		assert.Contains(t, err.Error(), name)
	}

	assert.Equal(t, predict.Windowed, Options{Windowed: true, FastME: true}.Strategy())
	assert.Equal(t, predict.Fast, Options{FastME: true}.Strategy())
	w, h := baseOptions().Padded()
	assert.Equal(t, 32, w)
	assert.Equal(t, 24, h)
}

func TestEncoder_RejectsWrongSize(t *testing.T) {
	enc, err := NewEncoder(baseOptions(), io.Discard, io.Discard)
	require.NoError(t, err)
	_, err = enc.Encode(context.Background(), picture.New(16, 16))
	assert.ErrorIs(t, err, ErrOptions)
}

func TestDebugDump(t *testing.T) {
	o := baseOptions()
	o.Frames = 2
	var pred, resid, params bytes.Buffer
	enc, err := NewEncoder(o, io.Discard, io.Discard)
	require.NoError(t, err)
	enc.WithDebug(&Debug{Pred: &pred, Resid: &resid, Params: &params})

	var sink bytes.Buffer
	es := residual.NewEstimateSink(&sink)
	enc.WithEstimateSink(es)
	for _, p := range sequence(2, o.Width, o.Height) {
		_, err := enc.Encode(context.Background(), p)
		require.NoError(t, err)
	}
	require.NoError(t, es.Flush())

	w, h := o.Padded()
	assert.Equal(t, 2*picture.Size(w, h), pred.Len())
	assert.Equal(t, 2*picture.Size(w, h), resid.Len())
	lines := strings.Split(strings.TrimSpace(params.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "I (left)") || strings.HasPrefix(lines[0], "I (above)"))
	assert.Equal(t, 2, strings.Count(lines[1], "||"))
	assert.Equal(t, 2*o.Grid().Blocks(), es.Rows())
}
