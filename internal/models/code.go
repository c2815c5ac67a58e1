package models

import (
	"math/rand"
	"regexp"
)

// Session codes are 4 characters from a restricted alphabet (no I/O/0/1 to
// keep codes unambiguous when read aloud). The code doubles as the lock name,
// so malformed codes must be rejected before touching the lock manager.
const (
	SessionCodeLength   = 4
	SessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var sessionCodePattern = regexp.MustCompile(`^[` + SessionCodeAlphabet + `]{4}$`)

// ValidateSessionCode reports whether the code has the fixed length and
// restricted alphabet of a session code.
func ValidateSessionCode(code string) bool {
	return sessionCodePattern.MatchString(code)
}

// NewSessionCode generates a random session code. Uniqueness is enforced by
// the sessions table; callers retry on collision.
func NewSessionCode(rng *rand.Rand) string {
	buf := make([]byte, SessionCodeLength)
	for i := range buf {
		buf[i] = SessionCodeAlphabet[rng.Intn(len(SessionCodeAlphabet))]
	}
	return string(buf)
}
