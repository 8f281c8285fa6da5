package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// RefreshFingerprint derives the opaque value stored on a session to identify
// its currently valid refresh token. The raw token never touches the store;
// the pepper keeps database dumps useless for forging lookups.
func RefreshFingerprint(token, pepper string) string {
	sum := sha256.Sum256([]byte(pepper + ":" + token))
	return hex.EncodeToString(sum[:])
}
