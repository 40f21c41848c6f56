// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidOwnerKey = errors.New("invalid owner key")
	ErrMissingOwner    = errors.New("owner identity required")
)

const (
	sessionCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	SessionCodeLength = 6
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateParticipantIdentifier creates the opaque token handed to a joining participant
func GenerateParticipantIdentifier() (string, error) {
	return GenerateID(8)
}

// GenerateSessionCode creates a random 6-character code from A-Z and 0-9.
// Uniqueness is checked by the caller against existing sessions.
func GenerateSessionCode() (string, error) {
	max := big.NewInt(int64(len(sessionCodeChars)))
	code := make([]byte, SessionCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate session code: %w", err)
		}
		code[i] = sessionCodeChars[n.Int64()]
	}
	return string(code), nil
}

// IsSessionCode reports whether s has the shape of a session code
func IsSessionCode(s string) bool {
	if len(s) != SessionCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(sessionCodeChars, rune(s[i])) {
			return false
		}
	}
	return true
}

// GenerateOwnerKey creates an HMAC-based key proving a presenter identity.
// The upstream login service hands it out; the server only verifies it.
func GenerateOwnerKey(ownerID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ownerID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateOwnerKey checks if the provided key was issued for ownerID
func ValidateOwnerKey(ownerID, ownerKey, salt string) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	expected := GenerateOwnerKey(ownerID, salt)
	if !hmac.Equal([]byte(ownerKey), []byte(expected)) {
		return ErrInvalidOwnerKey
	}
	return nil
}

// NewConnectionID returns a unique id for one transport connection
func NewConnectionID() string {
	return uuid.NewString()
}
