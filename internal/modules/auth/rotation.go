package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// refreshSecretSize gives 256 bits of entropy per refresh secret.
const refreshSecretSize = 32

// newRefreshSecret generates the opaque client-held secret and the hash
// stored server-side. The secret never gets persisted.
func newRefreshSecret() (secret, tokenHash string, err error) {
	raw := make([]byte, refreshSecretSize)
	if _, err = rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("read random bytes: %w", err)
	}
	secret = base64.RawURLEncoding.EncodeToString(raw)
	return secret, hashRefreshSecret(secret), nil
}

// hashRefreshSecret derives the storage key for a presented secret.
func hashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
