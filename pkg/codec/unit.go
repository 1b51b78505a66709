package codec

import (
	"errors"
	"fmt"

	"github.com/jpfielding/blockcodec.go/pkg/compress/golomb"
	"github.com/jpfielding/blockcodec.go/pkg/compress/rle"
	"github.com/jpfielding/blockcodec.go/pkg/predict"
	"github.com/jpfielding/blockcodec.go/pkg/residual"
)

// ErrCorrupt signals a bitstream that does not describe a valid picture.
var ErrCorrupt = errors.New("codec: corrupt bitstream")

// Kind is the picture type tag written ahead of each picture's side information.
type Kind byte

const (
	Inter Kind = 0
	Intra Kind = 1
)

func (k Kind) String() string {
	switch k {
	case Inter:
		return "P"
	case Intra:
		return "I"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Entry is one block's prediction parameter and residual. MV is meaningful
// for Inter units and Mode for Intra units.
type Entry struct {
	MV   predict.MV
	Mode predict.Mode
	Unit *residual.Unit
}

// CodingUnit is the full set of block decisions for one picture, in coding order.
type CodingUnit struct {
	Kind    Kind
	Entries []Entry
}

// FromBlocks collects encoder decisions into a coding unit.
func FromBlocks(k Kind, blocks []predict.Block) *CodingUnit {
	cu := &CodingUnit{Kind: k, Entries: make([]Entry, len(blocks))}
	for i, b := range blocks {
		cu.Entries[i] = Entry{MV: b.MV, Mode: b.Mode, Unit: b.Unit}
	}
	return cu
}

// SideInfo is the differential, run-length coded parameter sequence.
func (cu *CodingUnit) SideInfo() []int {
	var deltas []int
	switch cu.Kind {
	case Inter:
		mvs := make([]predict.MV, len(cu.Entries))
		for i, e := range cu.Entries {
			mvs[i] = e.MV
		}
		deltas = predict.MVDeltas(mvs)
	default:
		modes := make([]predict.Mode, len(cu.Entries))
		for i, e := range cu.Entries {
			modes[i] = e.Mode
		}
		deltas = predict.ModeDeltas(modes)
	}
	return rle.Encode(deltas)
}

// Write emits the tag and side information to side and every residual unit
// to res. It returns the total bytes written.
func (cu *CodingUnit) Write(side, res *golomb.Writer, c *residual.Coder) (int, error) {
	if err := side.WriteByte(byte(cu.Kind)); err != nil {
		return 0, fmt.Errorf("write picture tag: %w", err)
	}
	total := 1
	for i, e := range cu.Entries {
		n, err := c.Write(res, e.Unit)
		total += n
		if err != nil {
			return total, fmt.Errorf("block %d: %w", i, err)
		}
	}
	n, err := side.WriteInts(cu.SideInfo())
	total += n
	if err != nil {
		return total, fmt.Errorf("write side information: %w", err)
	}
	return total, nil
}

// ReadCodingUnit reads one picture's tag, side information and residuals.
func ReadCodingUnit(side, res *golomb.Reader, blockSize, qp int) (*CodingUnit, error) {
	tag, err := side.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read picture tag: %w", err)
	}
	cu := &CodingUnit{Kind: Kind(tag)}
	if cu.Kind != Inter && cu.Kind != Intra {
		return nil, fmt.Errorf("%w: picture tag %d", ErrCorrupt, tag)
	}
	tokens, err := side.ReadInts()
	if err != nil {
		return nil, fmt.Errorf("read side information: %w", err)
	}
	deltas, err := rle.Decode(tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: side information: %w", ErrCorrupt, err)
	}
	if cu.Kind == Inter {
		mvs, err := predict.MVsFromDeltas(deltas)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		cu.Entries = make([]Entry, len(mvs))
		for i, mv := range mvs {
			cu.Entries[i].MV = mv
		}
	} else {
		modes, err := predict.ModesFromDeltas(deltas)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		cu.Entries = make([]Entry, len(modes))
		for i, m := range modes {
			cu.Entries[i].Mode = m
		}
	}
	for i := range cu.Entries {
		u, err := residual.Read(res, blockSize, qp)
		if err != nil {
			return nil, fmt.Errorf("%w: residual %d of %d: %w", ErrCorrupt, i, len(cu.Entries), err)
		}
		cu.Entries[i].Unit = u
	}
	return cu, nil
}
