// Package crypto implements the link's password-derived authenticated
// encryption and the AUTH-mode proof-of-knowledge token.
//
// AES-GCM is used the same way ipoluianov/xchg's EncryptAESGCM/DecryptAESGCM
// use it: crypto/aes + crypto/cipher, no third-party AEAD package. Key
// derivation uses golang.org/x/crypto/pbkdf2, already part of the retrieval
// pack's dependency surface.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2Iterations is the fixed iteration count both sides must agree on.
	PBKDF2Iterations = 100000
	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32
	// SaltSize is the random salt carried at the front of every cipher-blob.
	SaltSize = 16
	// NonceSize is the GCM nonce carried after the salt.
	NonceSize = 12
	// TagSize is the GCM authentication tag appended by Seal.
	TagSize = 16
	// TokenSize is the length of an AUTH-mode token.
	TokenSize = 4

	// MinBlobSize is salt+nonce+tag with zero-length plaintext.
	MinBlobSize = SaltSize + NonceSize + TagSize
)

// ErrAuthFailure covers a rejected GCM tag, a wrong password, and an empty
// password or secret (spec.md §9(c): empty passwords are rejected as
// AuthFailure rather than silently deriving a key from an empty string).
var ErrAuthFailure = fmt.Errorf("authentication failure")

// DeriveKey derives a 32-byte AES-256 key from password and salt via
// PBKDF2-HMAC-SHA256 with PBKDF2Iterations rounds.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// Encrypt returns salt ‖ nonce ‖ ciphertext ‖ tag: a fresh random salt and
// nonce, a key derived from password, and the AES-256-GCM sealed plaintext.
func Encrypt(password string, plaintext []byte) ([]byte, error) {
	if password == "" {
		return nil, ErrAuthFailure
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: generate salt: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: generate nonce: %w", err)
	}

	gcm, err := newGCM(DeriveKey(password, salt))
	if err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil) // ciphertext ‖ tag
	blob := make([]byte, 0, SaltSize+NonceSize+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return blob, nil
}

// Decrypt splits blob into salt/nonce/ciphertext/tag, derives the key from
// password, and verifies-and-decrypts. It fails with ErrAuthFailure if the
// tag is invalid, the password is wrong, or blob is too short to contain a
// valid cipher-blob (len(blob) < MinBlobSize).
func Decrypt(password string, blob []byte) ([]byte, error) {
	if password == "" {
		return nil, ErrAuthFailure
	}
	if len(blob) < MinBlobSize {
		return nil, fmt.Errorf("%w: blob shorter than %d bytes", ErrAuthFailure, MinBlobSize)
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize : SaltSize+NonceSize]
	sealed := blob[SaltSize+NonceSize:]

	gcm, err := newGCM(DeriveKey(password, salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	return gcm, nil
}

// AuthToken returns the first TokenSize bytes of SHA-256(secret), the
// AUTH-mode proof-of-knowledge. An empty secret fails with ErrAuthFailure,
// per spec.md §9(c).
func AuthToken(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrAuthFailure
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:TokenSize], nil
}

// AuthVerify reports whether received (a TokenSize-byte token) matches
// AuthToken(expectedSecret), in constant time.
func AuthVerify(received []byte, expectedSecret string) bool {
	expected, err := AuthToken(expectedSecret)
	if err != nil {
		return false
	}
	if len(received) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(received, expected) == 1
}
