package rdf

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm selects the digest function used by the canonicalization hashes.
type HashAlgorithm string

const (
	// HashSHA1 is the 20-byte digest used by URGNA2012.
	HashSHA1 HashAlgorithm = "sha1"
	// HashSHA256 is the 32-byte digest used by URDNA2015.
	HashSHA256 HashAlgorithm = "sha256"
	// HashSHA384 is a 48-byte digest accepted as an override.
	HashSHA384 HashAlgorithm = "sha384"
	// HashBLAKE2b256 is a 32-byte BLAKE2b digest accepted as an override.
	HashBLAKE2b256 HashAlgorithm = "blake2b-256"
)

// Size returns the digest width in bytes, or 0 for an unknown algorithm.
func (a HashAlgorithm) Size() int {
	switch a {
	case HashSHA1:
		return sha1.Size
	case HashSHA256, HashBLAKE2b256:
		return 32
	case HashSHA384:
		return sha512.Size384
	default:
		return 0
	}
}

func (a HashAlgorithm) newHash() (hash.Hash, error) {
	switch a {
	case HashSHA1:
		return sha1.New(), nil
	case HashSHA256:
		return sha256.New(), nil
	case HashSHA384:
		return sha512.New384(), nil
	case HashBLAKE2b256:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashAlgorithm, string(a))
	}
}

// Hasher is a streaming digest producing a lower-case hex string. Every Hasher owns
// its hash state.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a Hasher for alg.
func NewHasher(alg HashAlgorithm) (*Hasher, error) {
	h, err := alg.newHash()
	if err != nil {
		return nil, err
	}
	return &Hasher{h: h}, nil
}

// Update appends s to the digest input.
func (h *Hasher) Update(s string) {
	// hash.Hash.Write never returns an error.
	_, _ = h.h.Write([]byte(s))
}

// Sum returns the hex digest of everything written so far.
func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// HashString digests a single string.
func HashString(alg HashAlgorithm, s string) (string, error) {
	h, err := NewHasher(alg)
	if err != nil {
		return "", err
	}
	h.Update(s)
	return h.Sum(), nil
}
