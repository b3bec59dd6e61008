package runtime

import "math/bits"

// Mask is a fixed size bitset indexed by sub-register.
type Mask []uint64

func NewMask(n int) Mask {
	return make(Mask, (n+63)/64)
}

func (m Mask) Set(i int) {
	m[i/64] |= 1 << uint(i%64)
}

func (m Mask) Clear(i int) {
	m[i/64] &^= 1 << uint(i%64)
}

func (m Mask) Test(i int) bool {
	return m[i/64]&(1<<uint(i%64)) != 0
}

func (m Mask) Any() bool {
	for _, w := range m {
		if w != 0 {
			return true
		}
	}
	return false
}

func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

func (m Mask) Reset() {
	for i := range m {
		m[i] = 0
	}
}
