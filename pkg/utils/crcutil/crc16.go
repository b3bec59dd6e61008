package crcutil

var crcTable = makeTable()

func makeTable() [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

// CheckCrc16sum computes the Modbus RTU CRC of data. The low byte goes on the
// wire first.
func CheckCrc16sum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc>>8 ^ crcTable[byte(crc)^b]
	}
	return crc
}

// Append adds the CRC of frame to its end.
func Append(frame []byte) []byte {
	crc := CheckCrc16sum(frame)
	return append(frame, byte(crc), byte(crc>>8))
}

// Valid reports whether the last two bytes of frame are its CRC.
func Valid(frame []byte) bool {
	if len(frame) < 3 {
		return false
	}
	n := len(frame) - 2
	crc := CheckCrc16sum(frame[:n])
	return frame[n] == byte(crc) && frame[n+1] == byte(crc>>8)
}
