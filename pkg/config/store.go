// Package config reads the flat key=value option files that drive a coding run.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrMissingOption = errors.New("config: missing option")
	ErrInvalidOption = errors.New("config: invalid option")
)

// Store is a parsed option file. Later keys overwrite earlier ones.
type Store struct {
	values map[string]string
	errs   []error
}

func NewStore() *Store { return &Store{values: map[string]string{}} }

// Parse reads key=value lines; '#' comments and lines without '=' are skipped.
func Parse(r io.Reader) (*Store, error) {
	s := NewStore()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		s.Set(k, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}
	return s, nil
}

// ReadFile parses the option file at path.
func ReadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open options: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (s *Store) Set(key, val string) {
	s.values[strings.TrimSpace(key)] = strings.TrimSpace(val)
}

// Override applies "key=value" pairs, typically from the command line.
func (s *Store) Override(pairs []string) error {
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: override %q is not key=value", ErrInvalidOption, p)
		}
		s.Set(k, v)
	}
	return nil
}

func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Keys lists the stored keys in order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) fail(err error) { s.errs = append(s.errs, err) }

// Err joins every lookup failure recorded so far.
func (s *Store) Err() error { return errors.Join(s.errs...) }

// Require records a missing-option error if key is absent.
func (s *Store) Require(keys ...string) {
	for _, k := range keys {
		if !s.Has(k) {
			s.fail(fmt.Errorf("%w: %s", ErrMissingOption, k))
		}
	}
}

func (s *Store) String(key, def string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

func (s *Store) Int(key string, def int) int {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.fail(fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidOption, key, v))
		return def
	}
	return n
}

// Uint is Int restricted to values >= 0.
func (s *Store) Uint(key string, def int) int {
	n := s.Int(key, def)
	if n < 0 {
		s.fail(fmt.Errorf("%w: %s=%d must not be negative", ErrInvalidOption, key, n))
		return def
	}
	return n
}

func (s *Store) Float(key string, def float64) float64 {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.fail(fmt.Errorf("%w: %s=%q is not a number", ErrInvalidOption, key, v))
		return def
	}
	return f
}

// Bool accepts ON/1/TRUE and OFF/0/FALSE in any case.
func (s *Store) Bool(key string, def bool) bool {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	switch strings.ToUpper(v) {
	case "ON", "1", "TRUE":
		return true
	case "OFF", "0", "FALSE":
		return false
	}
	s.fail(fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidOption, key, v))
	return def
}
