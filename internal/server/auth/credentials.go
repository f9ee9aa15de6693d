package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a plaintext password against a stored one-way hash.
type Verifier interface {
	Verify(plaintext, hash string) bool
}

// BcryptVerifier verifies bcrypt hashes.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashPassword returns the bcrypt hash of plaintext at the default cost.
func HashPassword(plaintext []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(plaintext, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// DummyHash is a valid bcrypt hash that no real password matches. Verifying
// against it when an email is unknown keeps the login cost the same as for a
// wrong password.
func DummyHash() string {
	dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("modelkeeper:no-such-account"), bcrypt.DefaultCost)
		if err != nil {
			panic(err)
		}
		dummyHash = string(h)
	})
	return dummyHash
}
