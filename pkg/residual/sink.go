package residual

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// EstimateSink records estimated cost, written bytes and SAD per written unit
// so the rate model can be fitted offline.
type EstimateSink struct {
	w    *csv.Writer
	rows int
	err  error
}

func NewEstimateSink(w io.Writer) *EstimateSink {
	s := &EstimateSink{w: csv.NewWriter(w)}
	s.write("estimate", "bytes", "sad")
	return s
}

func (s *EstimateSink) write(rec ...string) {
	if s.err == nil {
		s.err = s.w.Write(rec)
	}
}

func (s *EstimateSink) Row(est, bytes, sad int) {
	s.rows++
	s.write(strconv.Itoa(est), strconv.Itoa(bytes), strconv.Itoa(sad))
}

// Note appends a free-form key/value row, used for run summaries.
func (s *EstimateSink) Note(key string, val any) {
	s.write(key, fmt.Sprint(val))
}

func (s *EstimateSink) Rows() int { return s.rows }

// Flush pushes buffered rows and reports the first write error.
func (s *EstimateSink) Flush() error {
	s.w.Flush()
	if s.err != nil {
		return s.err
	}
	return s.w.Error()
}
