package readyset

import "math/bits"

// bitSet is a fixed 64-bit readiness mask. Callers bound the index by the
// capacity of the set they model, never by the word size.
type bitSet uint64

func (s *bitSet) set(i uint32) {
	*s |= 1 << i
}

func (s *bitSet) clear(i uint32) {
	*s &^= 1 << i
}

func (s bitSet) has(i uint32) bool {
	return s&(1<<i) != 0
}

func (s bitSet) empty() bool {
	return s == 0
}

// lowest returns the smallest set index below limit.
func (s bitSet) lowest(limit uint32) (uint32, bool) {
	masked := uint64(s) & (1<<limit - 1)
	if masked == 0 {
		return 0, false
	}
	return uint32(bits.TrailingZeros64(masked)), true
}

func (s bitSet) count() int {
	return bits.OnesCount64(uint64(s))
}
