package binutil

import "strconv"

// ParseUint16 decodes a big-endian word.
func ParseUint16(buf []byte) uint16 {
	return uint16(buf[0])<<8 + uint16(buf[1])
}

// ParseUint16LittleEndian decodes a little-endian word.
func ParseUint16LittleEndian(buf []byte) uint16 {
	return uint16(buf[1])<<8 + uint16(buf[0])
}

// WriteUint16 encodes a big-endian word.
func WriteUint16(buf []byte, value uint16) {
	buf[0] = byte(value >> 8)
	buf[1] = byte(value)
}

// WriteUint16LittleEndian encodes a little-endian word.
func WriteUint16LittleEndian(buf []byte, value uint16) {
	buf[1] = byte(value >> 8)
	buf[0] = byte(value)
}

// BytesToWords turns big-endian register data into words.
func BytesToWords(buf []byte) []uint16 {
	words := make([]uint16, len(buf)/2)
	for i := range words {
		words[i] = ParseUint16(buf[i*2:])
	}
	return words
}

// WordsToBytes is the inverse of BytesToWords.
func WordsToBytes(words []uint16) []byte {
	buf := make([]byte, len(words)*2)
	for i, w := range words {
		WriteUint16(buf[i*2:], w)
	}
	return buf
}

// UnpackBits expands count coil bits, least significant bit first, into
// one word per coil holding 0 or 1.
func UnpackBits(buf []byte, count int) []uint16 {
	if count > len(buf)<<3 {
		count = len(buf) << 3
	}
	words := make([]uint16, count)
	for i := 0; i < count; i++ {
		if buf[i>>3]&(1<<(i&0x07)) > 0 {
			words[i] = 1
		}
	}
	return words
}

// PackBits is the inverse of UnpackBits.
func PackBits(words []uint16) []byte {
	length := len(words)
	ln := length >> 3
	if length&0x07 > 0 {
		ln++
	}
	b := make([]byte, ln)
	for i := 0; i < length; i++ {
		if words[i] > 0 {
			b[i>>3] |= 1 << (i & 0x07)
		}
	}
	return b
}

// Dup returns a copy of buf.
func Dup(buf []byte) []byte {
	b := make([]byte, len(buf))
	copy(b, buf)
	return b
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n with a binary unit, e.g. "1.50GB".
func FormatBytes(n uint64) string {
	f := float64(n)
	i := 0
	for f >= 1024 && i < len(byteUnits)-1 {
		f /= 1024
		i++
	}
	return strconv.FormatFloat(f, 'f', 2, 64) + byteUnits[i]
}
