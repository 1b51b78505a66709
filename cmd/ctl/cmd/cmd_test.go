package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/blockcodec.go/pkg/codec"
	"github.com/jpfielding/blockcodec.go/pkg/picture"
)

func writeVideo(t *testing.T, path string, w, h, n int) {
	t.Helper()
	var b []byte
	for k := 0; k < n; k++ {
		for i := 0; i < picture.Size(w, h); i++ {
			b = append(b, byte((i*7+k*3)%251))
		}
	}
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func testOptions() codec.Options {
	o := codec.Defaults()
	o.Frames, o.Width, o.Height = 3, 16, 16
	o.BlockSize, o.SearchRange, o.QP = 4, 2, 2
	o.IPeriod = 2
	return o
}

func TestEncodeDecode_MatchesReconstruction(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(fmt.Sprintf("zstd=%v", compress), func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "in.yuv")
			writeVideo(t, in, 16, 16, 3)
			files := encodeFiles{
				In:       in,
				Side:     filepath.Join(dir, "side.bin"),
				Res:      filepath.Join(dir, "res.bin"),
				Recon:    filepath.Join(dir, "recon.yuv"),
				DebugDir: dir,
				Compress: compress,
			}
			opts := testOptions()
			require.NoError(t, encode(context.Background(), opts, files))

			out := filepath.Join(dir, "out.yuv")
			require.NoError(t, decode(context.Background(), opts, files.Side, files.Res, out, dir, false))

			recon, err := os.ReadFile(files.Recon)
			require.NoError(t, err)
			decoded, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Len(t, decoded, 3*picture.Size(16, 16))
			assert.True(t, bytes.Equal(recon, decoded))
		})
	}
}

func TestEncode_RejectsPartialPicture(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yuv")
	writeVideo(t, in, 16, 16, 2)
	f, err := os.OpenFile(in, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = encode(context.Background(), testOptions(), encodeFiles{
		In: in, Side: filepath.Join(dir, "s"), Res: filepath.Join(dir, "r"), DebugDir: dir,
	})
	require.ErrorIs(t, err, codec.ErrOptions)
	assert.Contains(t, err.Error(), "3 past 2 whole pictures")
}

func TestEncode_ShortInputEncodesWhatExists(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yuv")
	writeVideo(t, in, 16, 16, 2)
	files := encodeFiles{
		In: in, Side: filepath.Join(dir, "s"), Res: filepath.Join(dir, "r"),
		Recon: filepath.Join(dir, "recon.yuv"), DebugDir: dir,
	}
	require.NoError(t, encode(context.Background(), testOptions(), files))
	recon, err := os.ReadFile(files.Recon)
	require.NoError(t, err)
	assert.Len(t, recon, 2*picture.Size(16, 16))

	// decoding against num_frames=3 finds only two pictures
	err = decode(context.Background(), testOptions(), files.Side, files.Res, filepath.Join(dir, "out.yuv"), dir, false)
	require.ErrorIs(t, err, ErrFrameCount)
}

func TestEncode_DebugFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yuv")
	writeVideo(t, in, 16, 16, 3)
	opts := testOptions()
	opts.DumpDebug = true
	opts.DebugEstimate = true
	opts.Estimation = 2
	require.NoError(t, encode(context.Background(), opts, encodeFiles{
		In: in, Side: filepath.Join(dir, "s"), Res: filepath.Join(dir, "r"), DebugDir: dir,
	}))

	for _, name := range []string{"out_ref.yuv", "out_res.yuv"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, b, name)
	}
	mvs, err := os.ReadFile(filepath.Join(dir, "out_mvs.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(mvs)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "I "))
	assert.True(t, strings.HasPrefix(lines[1], "P "))

	est, err := os.ReadFile(filepath.Join(dir, "res_est.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(est), "estimate,bytes,sad\n"))
	assert.Contains(t, string(est), "total_bytes,")
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yuv")
	writeVideo(t, a, 8, 8, 2)
	t.Run("identical", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, compare(&out, a, a, compareOptions{Width: 8, Height: 8, Format: "text"}))
		assert.Contains(t, out.String(), "0\tsad=0\tmse=0.000\tpsnr=+Inf")
		assert.NotContains(t, out.String(), "mean psnr")
	})
	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, compare(&out, a, a, compareOptions{Width: 8, Height: 8, Format: "json"}))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], `"picture":1`)
		assert.Contains(t, lines[1], `"psnr":-1`)
	})
}

func TestCompare_RoundAndClip(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.y"), filepath.Join(dir, "b.y")
	flat := bytes.Repeat([]byte{100}, 64)
	require.NoError(t, os.WriteFile(a, flat, 0o644))
	other := bytes.Clone(flat)
	other[5], other[20] = 200, 103
	require.NoError(t, os.WriteFile(b, other, 0o644))

	tests := []struct {
		name string
		opts compareOptions
		want string
	}{
		{"plain", compareOptions{}, "0\tsad=103\t"},
		{"clip", compareOptions{Clip: 10}, "\tclipped_sad=13\n"},
		{"round", compareOptions{Round: 8}, "0\tsad=96\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.opts
			o.Width, o.Height, o.LumaOnly, o.Format = 8, 8, true, "text"
			var out bytes.Buffer
			require.NoError(t, compare(&out, a, b, o))
			assert.Contains(t, out.String(), tt.want)
		})
	}
	t.Run("flags", func(t *testing.T) {
		root := NewRoot(context.Background(), "test")
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"compare", a, b, "--width", "8", "--height", "8", "--luma-only", "--clip", "10", "-f", "json"})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), `"clipped_sad":13`)
	})
}

func TestRoot_EncodeDecodeThroughFlags(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yuv")
	writeVideo(t, in, 16, 16, 2)
	cfg := filepath.Join(dir, "enc.cfg")
	require.NoError(t, os.WriteFile(cfg, []byte(
		"num_frames=2\nframe_width=16\nframe_height=16\nblock_size=4\nsearch_range=2\nqp=3\n"), 0o644))
	side, res := filepath.Join(dir, "side.bin"), filepath.Join(dir, "res.bin")

	root := NewRoot(context.Background(), "test")
	root.SetArgs([]string{"encode", "-c", cfg, "--set", "FastFME=1", "-i", in,
		"--side", side, "--res", res, "--recon", "", "--debug-dir", dir})
	require.NoError(t, root.Execute())

	out := filepath.Join(dir, "out.yuv")
	root = NewRoot(context.Background(), "test")
	root.SetArgs([]string{"decode", "-c", cfg, "--side", side, "--res", res, "-o", out, "--debug-dir", dir})
	require.NoError(t, root.Execute())
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, b, 2*picture.Size(16, 16))
}

func TestRoot_LogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "ctl.log")
	root := NewRoot(context.Background(), "test")
	root.SetArgs([]string{"version", "--log-level", "bogus", "--log-file", logPath})
	require.NoError(t, root.Execute())

	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Invalid log level")

	// the default logger no longer points at the closed file
	slog.Warn("after close")
	b, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "after close")
}
