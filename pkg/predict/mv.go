// Package predict makes the per-block prediction decisions: motion search over
// reference pictures, intra Above/Left selection, and quad-split choice.
package predict

import (
	"errors"
	"fmt"
)

// ErrSideInfo signals a side-information sequence of the wrong shape.
var ErrSideInfo = errors.New("predict: malformed side information")

// MV displaces a block by (DX, DY) samples into reference Ref.
type MV struct {
	DX, DY int
	Ref    int
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// L1 is |DX|+|DY|.
func (m MV) L1() int { return abs(m.DX) + abs(m.DY) }

func (m MV) String() string { return fmt.Sprintf("(dx=%d,dy=%d,if=%d)", m.DX, m.DY, m.Ref) }

// MVDeltas codes each vector as (last - cur) per field, starting from zero.
func MVDeltas(mvs []MV) []int {
	out := make([]int, 0, 3*len(mvs))
	var last MV
	for _, m := range mvs {
		out = append(out, last.DX-m.DX, last.DY-m.DY, last.Ref-m.Ref)
		last = m
	}
	return out
}

// MVsFromDeltas inverts MVDeltas.
func MVsFromDeltas(d []int) ([]MV, error) {
	if len(d)%3 != 0 {
		return nil, fmt.Errorf("%w: %d motion vector deltas", ErrSideInfo, len(d))
	}
	out := make([]MV, 0, len(d)/3)
	var last MV
	for i := 0; i < len(d); i += 3 {
		m := MV{DX: last.DX - d[i], DY: last.DY - d[i+1], Ref: last.Ref - d[i+2]}
		out = append(out, m)
		last = m
	}
	return out, nil
}

// Mode is the intra prediction direction.
type Mode int

const (
	Above Mode = 0
	Left  Mode = 1
)

// InitialMode seeds the mode context at the start of every intra picture.
const InitialMode = Left

func (m Mode) String() string {
	switch m {
	case Above:
		return "above"
	case Left:
		return "left"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ModeDeltas codes each mode as (last - cur), starting from InitialMode.
func ModeDeltas(modes []Mode) []int {
	out := make([]int, len(modes))
	last := InitialMode
	for i, m := range modes {
		out[i] = int(last - m)
		last = m
	}
	return out
}

// ModesFromDeltas inverts ModeDeltas and rejects unknown modes.
func ModesFromDeltas(d []int) ([]Mode, error) {
	out := make([]Mode, len(d))
	last := InitialMode
	for i, v := range d {
		m := last - Mode(v)
		if m != Above && m != Left {
			return nil, fmt.Errorf("%w: intra mode %d at block %d", ErrSideInfo, int(m), i)
		}
		out[i] = m
		last = m
	}
	return out, nil
}
