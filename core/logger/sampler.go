package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets num out of every den events through. A zero ratio allows all.
type ratioSampler struct {
	ratio atomic.Uint64 // num<<32 | den
	seen  atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

func (s *ratioSampler) Set(num, den int) {
	var packed uint64
	if num > 0 && den > 0 {
		num = min(num, den)
		packed = uint64(num)<<32 | uint64(uint32(den))
	}
	s.ratio.Store(packed)
	s.seen.Store(0)
}

func (s *ratioSampler) Allow() bool {
	packed := s.ratio.Load()
	if packed == 0 {
		return true
	}
	num, den := packed>>32, packed&0xffffffff
	return (s.seen.Add(1)-1)%den < num
}

// parseRatioSpec accepts "num/den" or a bare "den" meaning 1/den.
// Invalid or non-positive input yields 0, 0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if a, b, ok := strings.Cut(spec, "/"); ok {
		num, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, 0
		}
		den, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return 0, 0
		}
		return num, den
	}
	den, err := strconv.Atoi(spec)
	if err != nil || den <= 0 {
		return 0, 0
	}
	return 1, den
}
