package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// DigestLength is the length of a stored password digest (SHA-256, lowercase hex).
const DigestLength = sha256.Size * 2

var tempPasswordCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// ErrInvalidHash signals a stored value that is not a SHA-256 hex digest.
var ErrInvalidHash = fmt.Errorf("invalid sha-256 password digest")

// HashPassword returns the lowercase hex SHA-256 digest stored in the users tab.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyPassword returns true when the password hashes to the stored digest.
// Stored digests written by hand in upper case are accepted.
func VerifyPassword(password, stored string) (bool, error) {
	stored = strings.ToLower(strings.TrimSpace(stored))
	if !IsDigest(stored) {
		return false, ErrInvalidHash
	}
	want, err := hex.DecodeString(stored)
	if err != nil {
		return false, ErrInvalidHash
	}
	got := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(want, got[:]) == 1, nil
}

// IsDigest reports whether value looks like a lowercase SHA-256 hex digest.
func IsDigest(value string) bool {
	if len(value) != DigestLength {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// GenerateTempPassword produces a random string suitable for temporary credentials.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	result := make([]rune, length)
	for i := 0; i < length; i++ {
		idx, err := randInt(rand.Reader, len(tempPasswordCharset))
		if err != nil {
			return "", err
		}
		result[i] = tempPasswordCharset[idx]
	}
	return string(result), nil
}

// randInt draws uniformly from [0, max).
func randInt(src io.Reader, max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("invalid max %d", max)
	}
	n, err := rand.Int(src, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
