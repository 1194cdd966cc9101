// Package hashing provides one-way salted password hashing. The interface is
// kept minimal so the implementation can be swapped (e.g. to argon2) without
// touching callers.
package hashing

import "golang.org/x/crypto/bcrypt"

// Hasher derives and verifies salted one-way password hashes.
type Hasher interface {
	// Hash derives a salted hash from the plaintext. A fresh random salt is
	// used on every call, so hashing the same plaintext twice yields
	// different outputs.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches the stored hash. A mismatch
	// is not an error, only false.
	Verify(plaintext, hash string) bool
}

// BcryptHasher implements Hasher on bcrypt with a tunable work factor.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a BcryptHasher with the given cost. A cost of zero
// falls back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{Cost: cost}
}

func (b *BcryptHasher) Hash(plaintext string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
