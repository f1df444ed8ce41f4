package hashing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hasher produces keyed BLAKE2b fingerprints of identifiers (client
// addresses, email addresses) so in-memory indexes and logs never hold the
// raw values. Fingerprints are stable for the lifetime of the Hasher.
type Hasher struct {
	pepper []byte
}

// NewHasher keys the hasher with pepper. An empty pepper is replaced with
// 32 random bytes, which is enough for process-local state.
func NewHasher(pepper string) (*Hasher, error) {
	key := []byte(pepper)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate pepper: %w", err)
		}
	}
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Hasher{pepper: key}, nil
}

// Fingerprint hashes the parts joined by a separator that cannot appear in
// an email address or IP literal.
func (h *Hasher) Fingerprint(parts ...string) string {
	mac, err := blake2b.New256(h.pepper)
	if err != nil {
		// key length is bounded in NewHasher
		panic(err)
	}
	_, _ = mac.Write([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(mac.Sum(nil))
}
