package secret

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

// DefaultLength is the grant secret size in bytes.
const DefaultLength = 32

// Generate returns length cryptographically secure random bytes. The
// secret is never derived from identity or lesson identifiers; a
// deterministic scheme would be predictable across grant recreation.
func Generate(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("secret length must be positive, got %d", length)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	return buf, nil
}

// Split divides a secret into the disclosed partial and the withheld
// remainder. The partial is the leading floor(len(secret)*fraction) bytes.
// Split is a pure function: the same (secret, fraction) always yields the
// same result. Fraction must be in (0, 1); both halves are non-empty for
// any secret of at least 2 bytes.
func Split(s []byte, fraction float64) (partial, remainder []byte, err error) {
	if len(s) == 0 {
		return nil, nil, fmt.Errorf("secret is empty")
	}
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("fraction must be in (0, 1), got %g", fraction)
	}

	n := int(float64(len(s)) * fraction)
	if n == 0 {
		n = 1
	}
	if n >= len(s) {
		n = len(s) - 1
	}

	return s[:n], s[n:], nil
}

// Equal compares two byte slices in constant time. Used for proof
// verification so a mismatch reveals nothing through timing.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
