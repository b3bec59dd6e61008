package runtime

import "sync"

// StringHandle addresses one interned string inside a Strings arena.
type StringHandle struct {
	Offset uint32
	Length uint16
}

func (h StringHandle) IsZero() bool {
	return h.Offset == 0 && h.Length == 0
}

// Strings is a bounded arena of names. Handles stay valid for the lifetime
// of the arena; lookups validate bounds instead of trusting the handle.
type Strings struct {
	mu       sync.RWMutex
	buf      []byte
	capacity int
	index    map[string]StringHandle
}

func NewStrings(capacity int) *Strings {
	if capacity <= 0 {
		capacity = DefaultArenaCapacity
	}
	return &Strings{
		buf:      make([]byte, 0, 1024),
		capacity: capacity,
		index:    make(map[string]StringHandle),
	}
}

// Intern stores s once and returns its handle.
func (s *Strings) Intern(str string) (StringHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.index[str]; ok {
		return h, nil
	}
	if len(str) > maxStringLength || len(s.buf)+len(str) > s.capacity {
		return StringHandle{}, ErrArenaFull
	}
	h := StringHandle{Offset: uint32(len(s.buf)), Length: uint16(len(str))}
	s.buf = append(s.buf, str...)
	s.index[str] = h
	return h, nil
}

// Bytes returns the stored bytes for h. The slice must not be modified.
func (s *Strings) Bytes(h StringHandle) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	end := int(h.Offset) + int(h.Length)
	if end > len(s.buf) {
		return nil, ErrInvalidHandle
	}
	return s.buf[h.Offset:end:end], nil
}

func (s *Strings) Lookup(h StringHandle) (string, bool) {
	b, err := s.Bytes(h)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Len is the number of bytes in use.
func (s *Strings) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}
