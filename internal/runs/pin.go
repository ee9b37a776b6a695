package runs

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
)

const pinSpace = 10000

var pinRe = regexp.MustCompile(`^[0-9]{4}$`)

// GeneratePIN returns a uniformly random 4-digit decimal string, "0000" through "9999".
func GeneratePIN() (string, error) {
	// rejection sampling keeps the distribution uniform over the pin space
	limit := uint32((1 << 32) / pinSpace * pinSpace)
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("generating pin: %w", err)
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < limit {
			return fmt.Sprintf("%04d", v%pinSpace), nil
		}
	}
}

// ValidPIN reports whether the value is exactly 4 decimal digits.
func ValidPIN(pin string) bool {
	return pinRe.MatchString(pin)
}
