// Package storage implements the encrypted .svtk container: Argon2id
// key derivation, AES-256-GCM authenticated encryption, the framed
// binary file format and the save/load orchestration.
package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	"svtk/internal/domain"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// SaltSize is the Argon2 salt length in bytes.
	SaltSize = 16
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
)

// KDFParams are the Argon2id parameters carried in the file header so
// they can be upgraded in future versions without breaking old files.
type KDFParams struct {
	// MemoryCost in KiB.
	MemoryCost uint32
	// TimeCost is the number of iterations.
	TimeCost uint32
	// Parallelism is the degree of parallelism.
	Parallelism uint32
}

// DefaultKDFParams returns the parameters used for new saves:
// 64 MB memory, 3 iterations, 4 lanes.
func DefaultKDFParams() KDFParams {
	return KDFParams{MemoryCost: 65536, TimeCost: 3, Parallelism: 4}
}

// DeriveKey derives a 256-bit key from a password with Argon2id.
// Deterministic for a given (password, salt, params) triple.
func DeriveKey(password string, salt [SaltSize]byte, params KDFParams) ([]byte, error) {
	if params.TimeCost == 0 {
		return nil, &domain.EncryptionError{Reason: "invalid Argon2 params: time cost must be at least 1"}
	}
	if params.MemoryCost < 8*params.Parallelism {
		return nil, &domain.EncryptionError{Reason: fmt.Sprintf(
			"invalid Argon2 params: memory cost %d KiB too low for parallelism %d",
			params.MemoryCost, params.Parallelism)}
	}
	if params.Parallelism == 0 || params.Parallelism > 255 {
		return nil, &domain.EncryptionError{Reason: fmt.Sprintf(
			"invalid Argon2 params: parallelism %d out of range", params.Parallelism)}
	}
	key := argon2.IDKey([]byte(password), salt[:], params.TimeCost, params.MemoryCost, uint8(params.Parallelism), KeySize)
	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM. The returned ciphertext has
// the 16-byte authentication tag appended; no separate HMAC is needed.
func Encrypt(plaintext, key []byte, nonce [NonceSize]byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce[:], plaintext, nil), nil
}

// Decrypt opens ciphertext and verifies its authentication tag. Any
// failure (wrong password, tampering, truncation) surfaces as the one
// indistinguishable ErrDecryption.
func Decrypt(ciphertext, key []byte, nonce [NonceSize]byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, domain.ErrDecryption
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &domain.EncryptionError{Reason: fmt.Sprintf("failed to create cipher: %v", err)}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &domain.EncryptionError{Reason: fmt.Sprintf("failed to create GCM: %v", err)}
	}
	return gcm, nil
}

// GenerateSalt returns a fresh random salt. Never reused across saves.
func GenerateSalt() ([SaltSize]byte, error) {
	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, &domain.EncryptionError{Reason: fmt.Sprintf("failed to generate random salt: %v", err)}
	}
	return salt, nil
}

// GenerateNonce returns a fresh random nonce. A (key, nonce) pair is
// never reused because both salt and nonce are regenerated per save.
func GenerateNonce() ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, &domain.EncryptionError{Reason: fmt.Sprintf("failed to generate random nonce: %v", err)}
	}
	return nonce, nil
}
