package codec

import (
	"fmt"
	"io"

	"github.com/jpfielding/blockcodec.go/pkg/picture"
	"github.com/jpfielding/blockcodec.go/pkg/plane"
	"github.com/jpfielding/blockcodec.go/pkg/predict"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// Debug receives per-picture diagnostics. Any writer may be nil.
type Debug struct {
	// Pred gets the raw picture made of every block's prediction.
	Pred io.Writer
	// Resid gets the raw picture of offset spatial residuals (0x80 is zero).
	Resid io.Writer
	// Params gets one text line of vectors or modes per picture, "||" between block rows.
	Params io.Writer
}

// Dump writes the diagnostics for one picture.
func (d *Debug) Dump(g picture.Grid, k Kind, blocks []predict.Block, c *residual.Coder, palette bool) error {
	if d.Pred != nil {
		preds := make([]*plane.Plane, len(blocks))
		for i, b := range blocks {
			preds[i] = b.Pred
		}
		pic := picture.Compose(picture.Tile(g, preds), placed(k, blocks), palette)
		if _, err := pic.WriteRaw(d.Pred, false); err != nil {
			return fmt.Errorf("prediction picture: %w", err)
		}
	}
	if d.Resid != nil {
		res := make([]*plane.Plane, len(blocks))
		for i, b := range blocks {
			res[i] = c.Spatial(b.Unit)
		}
		if _, err := picture.FromLuma(picture.Tile(g, res)).WriteRaw(d.Resid, true); err != nil {
			return fmt.Errorf("residual picture: %w", err)
		}
	}
	if d.Params != nil {
		if err := d.params(g, k, blocks); err != nil {
			return fmt.Errorf("block parameters: %w", err)
		}
	}
	return nil
}

func (d *Debug) params(g picture.Grid, k Kind, blocks []predict.Block) error {
	line := k.String() + " "
	for i, b := range blocks {
		if k == Inter {
			line += b.MV.String()
		} else {
			line += fmt.Sprintf("(%s)", b.Mode)
		}
		if next := g.Next(b.Coord, b.Size); next.Col == 0 && i < len(blocks)-1 {
			line += "||"
		}
	}
	_, err := fmt.Fprintln(d.Params, line)
	return err
}
