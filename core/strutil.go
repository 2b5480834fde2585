package core

// Itoa formats n in decimal without pulling in fmt
func Itoa(n int) string {
	if n < 0 {
		return "-" + formatUint(uint64(-n))
	}
	return formatUint(uint64(n))
}

func utoa(n uint32) string {
	return formatUint(uint64(n))
}

func formatUint(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

const hexDigits = "0123456789ABCDEF"

// Hex8 renders a byte as 0xNN
func Hex8(b uint8) string {
	return string([]byte{'0', 'x', hexDigits[b>>4], hexDigits[b&0x0F]})
}

// Hex16 renders a 16-bit value as 0xNNNN
func Hex16(v uint16) string {
	return string([]byte{'0', 'x',
		hexDigits[(v>>12)&0x0F], hexDigits[(v>>8)&0x0F],
		hexDigits[(v>>4)&0x0F], hexDigits[v&0x0F]})
}
