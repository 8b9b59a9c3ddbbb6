// Package idgen mints short, human-shareable identifiers for Tables and
// Columns. Page identity is never generated here: a Page's identity is its
// content fingerprint (see internal/pagestore), computed from its bytes, not
// assigned by this package.
package idgen

import (
	"encoding/base32"
	"encoding/hex"

	"github.com/google/uuid"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz156789"

var customEncoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// NewTableID mints a fresh Table identifier.
func NewTableID() string {
	return EncodeUUIDToBase32(uuid.New())
}

// NewColumnID mints a fresh Column identifier.
func NewColumnID() string {
	return EncodeUUIDToBase32(uuid.New())
}

// NewTaskID mints a fresh Task Runner task identifier.
func NewTaskID() string {
	return EncodeUUIDToBase32(uuid.New())
}

// EncodeToBase32 encodes raw bytes using the package's compact alphabet.
func EncodeToBase32(data []byte) string {
	return customEncoding.EncodeToString(data)
}

// EncodeUUIDToBase32 encodes a uuid using the package's compact alphabet.
func EncodeUUIDToBase32(id uuid.UUID) string {
	return EncodeToBase32(id[:])
}

// DecodeFromBase32 reverses EncodeToBase32.
func DecodeFromBase32(s string) ([]byte, error) {
	return customEncoding.DecodeString(s)
}

// DecodeBase32ToUUID reverses EncodeUUIDToBase32.
func DecodeBase32ToUUID(s string) (uuid.UUID, error) {
	data, err := DecodeFromBase32(s)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(data)
}

// FingerprintHex renders a 32-byte content fingerprint as the 64-char hex
// string used throughout the on-disk file layout (spec §6: sha256sum attrs).
func FingerprintHex(fingerprint [32]byte) string {
	return hex.EncodeToString(fingerprint[:])
}
