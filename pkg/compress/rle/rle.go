// Package rle run-length codes signed coefficient sequences.
//
// A run of zeros becomes one non-negative token holding the run length. A run
// of non-zero values becomes a negative token (minus the run length) followed
// by the literals themselves.
package rle

import (
	"errors"
	"fmt"
)

// ErrMalformed signals a token sequence Encode could not have produced.
var ErrMalformed = errors.New("rle: malformed token sequence")

// Encode tokenises vals.
func Encode(vals []int) []int {
	if len(vals) == 0 {
		return nil
	}
	out := make([]int, 0, len(vals)+2)
	i := 0
	for i < len(vals) {
		if vals[i] == 0 {
			n := 1
			for i+n < len(vals) && vals[i+n] == 0 {
				n++
			}
			out = append(out, n)
			i += n
			continue
		}
		n := 1
		for i+n < len(vals) && vals[i+n] != 0 {
			n++
		}
		out = append(out, -n)
		out = append(out, vals[i:i+n]...)
		i += n
	}
	return out
}

// Decode expands tokens back into the original sequence.
func Decode(tokens []int) ([]int, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	out := make([]int, 0, len(tokens)*2)
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		i++
		switch {
		case tok > 0:
			for ; tok > 0; tok-- {
				out = append(out, 0)
			}
		case tok < 0:
			n := -tok
			if i+n > len(tokens) {
				return nil, fmt.Errorf("%w: literal run of %d at token %d exceeds input", ErrMalformed, n, i-1)
			}
			for _, v := range tokens[i : i+n] {
				if v == 0 {
					return nil, fmt.Errorf("%w: zero literal in run at token %d", ErrMalformed, i-1)
				}
			}
			out = append(out, tokens[i:i+n]...)
			i += n
		default:
			return nil, fmt.Errorf("%w: zero-length run at token %d", ErrMalformed, i-1)
		}
	}
	return out, nil
}
