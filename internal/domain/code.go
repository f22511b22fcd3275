package domain

import "strings"

const (
	// CodeAlphabet leaves out I, O, 0 and 1.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLen      = 6
)

// NewRoomCode returns a random shareable room code.
func NewRoomCode(src Source) string {
	var b strings.Builder
	b.Grow(CodeLen)
	for range CodeLen {
		b.WriteByte(CodeAlphabet[src.IntN(len(CodeAlphabet))])
	}
	return b.String()
}

// NormalizeCode canonicalises user-typed codes before lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code could have been produced by NewRoomCode.
func ValidCode(code string) bool {
	if len(code) != CodeLen {
		return false
	}
	for i := range len(code) {
		if !strings.ContainsRune(CodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
