package partition

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber reads a partition table number: hex (0x...), decimal, or
// decimal/hex with a K or M multiplier.
func ParseNumber(s string) (uint32, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	mult := uint64(1)
	switch last := s[len(s)-1]; last {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	v *= mult
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("number %q overflows 32 bits", s)
	}
	return uint32(v), nil
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
