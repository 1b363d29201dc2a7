// Package signature provides helper functions for deriving account identities
// from a private key seed and for producing and checking the keyed-hash tags
// that authorize transfers.
//
// The scheme is symmetric: the tag is an HMAC keyed by the public key, and the
// public key travels with every signed transaction. Anyone who has seen one
// transaction from an account can produce tags for that account. This is the
// ledger's documented trust model, not an oversight.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SeedLength is the number of random bytes used to mint a new private key.
const SeedLength = 32

// ZeroHash represents a hash code of zeros. It is the previous hash of the
// genesis block.
var ZeroHash = strings.Repeat("0", sha256.Size*2)

// Hash returns the lowercase hex encoded SHA-256 digest of the data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DeriveIdentity derives the public key and the address for the specified
// private key seed. The public key is the hash of the seed and the address is
// the hash of the hex text of the public key.
func DeriveIdentity(seed []byte) (publicKey string, address string) {
	publicKey = Hash(seed)
	return publicKey, AddressFromPublicKey(publicKey)
}

// DeriveIdentityHex is DeriveIdentity for a hex encoded private key.
func DeriveIdentityHex(privateKey string) (publicKey string, address string, err error) {
	seed, err := hex.DecodeString(privateKey)
	if err != nil {
		return "", "", fmt.Errorf("decoding private key: %w", err)
	}

	publicKey, address = DeriveIdentity(seed)
	return publicKey, address, nil
}

// AddressFromPublicKey returns the address owned by the public key.
func AddressFromPublicKey(publicKey string) string {
	return Hash([]byte(publicKey))
}

// Sign produces the hex encoded HMAC-SHA256 tag of the message keyed with the
// raw bytes of the hex encoded public key.
func Sign(publicKey string, message []byte) (string, error) {
	key, err := hex.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("decoding public key: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(message)

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether tag is the tag Sign produces for the public key and
// message. The comparison runs in constant time.
func Verify(publicKey string, message []byte, tag string) bool {
	expected, err := Sign(publicKey, message)
	if err != nil {
		return false
	}

	return hmac.Equal([]byte(expected), []byte(tag))
}
