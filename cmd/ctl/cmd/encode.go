package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jpfielding/blockcodec.go/pkg/codec"
	"github.com/jpfielding/blockcodec.go/pkg/config"
	"github.com/jpfielding/blockcodec.go/pkg/logging"
	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
	"github.com/jpfielding/blockcodec.go/pkg/stream"
	"github.com/jpfielding/blockcodec.go/pkg/util"
	"github.com/spf13/cobra"
)

func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode raw planar video into side and residual streams",
		Long:  "Encodes num_frames pictures of raw 4:2:0 planar video, writing a side-information stream, a residual stream and the local reconstruction.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd, config.ForEncode)
			if err != nil {
				return err
			}
			in, _ := cmd.Flags().GetString("in")
			sidePath, _ := cmd.Flags().GetString("side")
			resPath, _ := cmd.Flags().GetString("res")
			reconPath, _ := cmd.Flags().GetString("recon")
			debugDir, _ := cmd.Flags().GetString("debug-dir")
			compress, _ := cmd.Flags().GetBool("zstd")
			lumaOnly, _ := cmd.Flags().GetBool("luma-only")

			ctx := logging.AppendCtx(ctx, slog.String("options", util.HashUUID(opts)))
			return encode(ctx, opts, encodeFiles{
				In: in, Side: sidePath, Res: resPath, Recon: reconPath, DebugDir: debugDir,
				Compress: compress, LumaOnly: lumaOnly,
			})
		},
	}
	addOptionFlags(cmd)
	f := cmd.Flags()
	f.StringP("in", "i", "", "raw planar input video")
	f.String("recon", "out_recon.yuv", "local reconstruction output, empty to skip")
	f.Bool("zstd", false, "zstd-compress both streams")
	f.Bool("luma-only", false, "input holds only luma samples")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

type encodeFiles struct {
	In, Side, Res, Recon, DebugDir string
	Compress, LumaOnly             bool
}

// inputPictures checks the raw input holds whole pictures and returns how many.
func inputPictures(path string, frameSize int) (int, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	n := int(fi.Size() / int64(frameSize))
	if extra := fi.Size() % int64(frameSize); extra != 0 {
		return n, fmt.Errorf("%w: %s is %d bytes, %d past %d whole pictures of %d bytes",
			codec.ErrOptions, path, fi.Size(), extra, n, frameSize)
	}
	return n, nil
}

func encode(ctx context.Context, opts codec.Options, files encodeFiles) (err error) {
	src, err := os.Open(files.In)
	if err != nil {
		return err
	}
	defer src.Close()
	pr := picture.NewReader(bufio.NewReader(src), opts.Width, opts.Height)
	pr.LumaOnly = files.LumaOnly

	avail, err := inputPictures(files.In, pr.FrameSize())
	if err != nil {
		return err
	}
	frames := opts.Frames
	if frames > avail {
		slog.WarnContext(ctx, "input is shorter than num_frames", "num_frames", opts.Frames, "available", avail)
		frames = avail
	}

	side, err := stream.Create(files.Side, files.Compress)
	if err != nil {
		return err
	}
	res, err := stream.Create(files.Res, files.Compress)
	if err != nil {
		side.Close()
		return err
	}
	defer closeAll(&err, side, res)

	enc, err := codec.NewEncoder(opts, side, res)
	if err != nil {
		return err
	}

	var recon io.Writer
	if files.Recon != "" {
		f, cerr := os.Create(files.Recon)
		if cerr != nil {
			return cerr
		}
		defer closeAll(&err, f)
		w := bufio.NewWriter(f)
		defer func() {
			if ferr := w.Flush(); err == nil {
				err = ferr
			}
		}()
		recon = w
	}

	var debug *codec.Debug
	if opts.DumpDebug {
		d, closers, derr := openDebug(files.DebugDir, "out")
		if derr != nil {
			return derr
		}
		defer closeAll(&err, closers...)
		debug = d
		enc.WithDebug(debug)
	}
	var sink *residual.EstimateSink
	if opts.DebugEstimate {
		f, cerr := os.Create(filepath.Join(files.DebugDir, "res_est.csv"))
		if cerr != nil {
			return cerr
		}
		defer closeAll(&err, f)
		sink = residual.NewEstimateSink(f)
		enc.WithEstimateSink(sink)
	}

	start := time.Now()
	var psnrSum float64
	var finite int
	for i := 0; i < frames; i++ {
		pic, err := pr.Next()
		if err != nil {
			return fmt.Errorf("read picture %d: %w", i, err)
		}
		t0 := time.Now()
		r, err := enc.Encode(ctx, pic)
		if err != nil {
			return err
		}
		psnr := plane.PSNR(r.Source.Y, r.Recon.Y)
		if !math.IsInf(psnr, 1) {
			psnrSum += psnr
			finite++
		}
		slog.InfoContext(ctx, "encoded",
			"picture", r.Index,
			"kind", r.Kind.String(),
			"blocks", len(r.Blocks),
			"bytes", r.Bytes,
			"psnr", psnr,
			"ssim", plane.SSIM(r.Source.Y, r.Recon.Y),
			"elapsed", time.Since(t0))
		if recon != nil {
			if _, err := r.Recon.WriteRaw(recon, files.LumaOnly); err != nil {
				return fmt.Errorf("write reconstruction: %w", err)
			}
		}
	}

	avg := math.Inf(1)
	if finite > 0 {
		avg = psnrSum / float64(finite)
	}
	slog.InfoContext(ctx, "encode complete",
		"pictures", frames,
		"bytes", enc.Written(),
		"avg_psnr", avg,
		"lossless", frames-finite,
		"elapsed", time.Since(start))
	if sink != nil {
		sink.Note("total_bytes", enc.Written())
		sink.Note("avg_psnr", avg)
		sink.Note("elapsed", time.Since(start))
		if err := sink.Flush(); err != nil {
			return fmt.Errorf("estimate sink: %w", err)
		}
	}
	return nil
}

// openDebug creates the prediction, residual and parameter dumps under dir.
func openDebug(dir, prefix string) (*codec.Debug, []io.Closer, error) {
	var closers []io.Closer
	create := func(name string) (*os.File, error) {
		f, err := os.Create(filepath.Join(dir, prefix+name))
		if err == nil {
			closers = append(closers, f)
		}
		return f, err
	}
	fail := func(err error) (*codec.Debug, []io.Closer, error) {
		for _, c := range closers {
			c.Close()
		}
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}
	pred, err := create("_ref.yuv")
	if err != nil {
		return fail(err)
	}
	resid, err := create("_res.yuv")
	if err != nil {
		return fail(err)
	}
	params, err := create("_mvs.txt")
	if err != nil {
		return fail(err)
	}
	return &codec.Debug{Pred: pred, Resid: resid, Params: params}, closers, nil
}
