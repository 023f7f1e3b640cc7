package booking

import (
	"github.com/lithammer/shortuuid/v3"
)

const (
	numberPrefix = "LDG-"
	numberLength = 8
	// No 0/O or 1/I so numbers survive being read over the phone.
	numberAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
)

// NewNumber returns a booking number like LDG-7KQ2MZ4B. The tail of a
// shortuuid is folded onto numberAlphabet.
func NewNumber() string {
	id := shortuuid.New()
	tail := id[len(id)-numberLength:]
	out := make([]byte, numberLength)
	for i := 0; i < numberLength; i++ {
		out[i] = numberAlphabet[int(tail[i])%len(numberAlphabet)]
	}
	return numberPrefix + string(out)
}

// LooksLikeNumber is a cheap shape check before hitting the database.
func LooksLikeNumber(value string) bool {
	if len(value) != len(numberPrefix)+numberLength || value[:len(numberPrefix)] != numberPrefix {
		return false
	}
	for _, r := range value[len(numberPrefix):] {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
