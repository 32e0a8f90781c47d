package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio packs numerator and denominator so Set and Allow never race on a
// half-updated pair.
type ratio struct {
	num, den int
}

// ratioSampler passes num out of every den events in a fixed cycle.
// A zero ratio disables sampling and lets everything through.
type ratioSampler struct {
	ratio   atomic.Pointer[ratio]
	counter atomic.Uint64
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set configures the sampling ratio and restarts the cycle.
func (s *ratioSampler) Set(numerator, denominator int) {
	r := &ratio{}
	if numerator > 0 && denominator > 0 {
		r.num, r.den = min(numerator, denominator), denominator
	}
	s.ratio.Store(r)
	s.counter.Store(0)
}

// Allow reports whether the current event should pass sampling.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == nil || r.den == 0 {
		return true
	}
	pos := (s.counter.Add(1) - 1) % uint64(r.den)
	return pos < uint64(r.num)
}

// parseRatioSpec accepts "n/d", "d" (meaning 1/d) and the words "all" and
// "off". Anything unparsable yields 0/0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	switch spec {
	case "", "off", "all":
		return 0, 0
	}
	if numStr, denStr, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(numStr))
		den, err2 := strconv.Atoi(strings.TrimSpace(denStr))
		if err1 == nil && err2 == nil {
			return num, den
		}
		return 0, 0
	}
	if v, err := strconv.Atoi(spec); err == nil && v > 0 {
		return 1, v
	}
	return 0, 0
}
