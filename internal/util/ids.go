package util

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewID returns a 21 character nanoid. URL safe characters only so ids can be
// used in route params and object keys without escaping.
func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, 21)
}

// NewPrefixedID returns prefix + "_" + nanoid, e.g. "snap_Xk3...".
func NewPrefixedID(prefix string) (string, error) {
	id, err := NewID()
	if err != nil {
		return "", err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return id, nil
	}
	return prefix + "_" + id, nil
}

// IsID reports whether s looks like an id produced by NewID.
func IsID(s string) bool {
	if len(s) != 21 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(idAlphabet, r) {
			return false
		}
	}
	return true
}
