package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jpfielding/blockcodec.go/pkg/codec"
	"github.com/jpfielding/blockcodec.go/pkg/config"
	"github.com/jpfielding/blockcodec.go/pkg/stream"
	"github.com/jpfielding/blockcodec.go/pkg/util"
	"github.com/spf13/cobra"
)

// ErrFrameCount signals a decode that produced a different picture count than configured.
var ErrFrameCount = errors.New("decoded picture count differs from num_frames")

func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode side and residual streams into raw planar video",
		Long:  "Decodes every picture held by a side-information stream and a residual stream. Either stream may be zstd compressed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd, config.ForDecode)
			if err != nil {
				return err
			}
			sidePath, _ := cmd.Flags().GetString("side")
			resPath, _ := cmd.Flags().GetString("res")
			out, _ := cmd.Flags().GetString("out")
			debugDir, _ := cmd.Flags().GetString("debug-dir")
			lumaOnly, _ := cmd.Flags().GetBool("luma-only")
			return decode(ctx, opts, sidePath, resPath, out, debugDir, lumaOnly)
		},
	}
	addOptionFlags(cmd)
	f := cmd.Flags()
	f.StringP("out", "o", "out_decoded.yuv", "raw planar output video")
	f.Bool("luma-only", false, "write only luma samples")
	return cmd
}

func decode(ctx context.Context, opts codec.Options, sidePath, resPath, out, debugDir string, lumaOnly bool) (err error) {
	side, err := stream.Open(sidePath)
	if err != nil {
		return err
	}
	res, err := stream.Open(resPath)
	if err != nil {
		side.Close()
		return err
	}
	defer closeAll(&err, side, res)

	dec, err := codec.NewDecoder(opts, side, res)
	if err != nil {
		return err
	}
	if opts.DumpDebug {
		d, closers, derr := openDebug(debugDir, "dec")
		if derr != nil {
			return derr
		}
		defer closeAll(&err, closers...)
		dec.WithDebug(d)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer closeAll(&err, f)
	w := bufio.NewWriter(f)

	start := time.Now()
	for {
		r, err := dec.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			w.Flush()
			return err
		}
		slog.DebugContext(ctx, "decoded",
			"picture", r.Index,
			"kind", r.Kind.String(),
			"blocks", len(r.Blocks),
			"md5", util.Md5ThenHex(r.Recon.Y.Pix))
		if _, err := r.Recon.WriteRaw(w, lumaOnly); err != nil {
			return fmt.Errorf("write picture %d: %w", r.Index, err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "decode complete", "pictures", dec.Count(), "out", out, "elapsed", time.Since(start))
	if opts.Frames > 0 && dec.Count() != opts.Frames {
		slog.WarnContext(ctx, "picture count mismatch", "decoded", dec.Count(), "num_frames", opts.Frames)
		return fmt.Errorf("%w: decoded %d, expected %d", ErrFrameCount, dec.Count(), opts.Frames)
	}
	return nil
}
