package storage

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"svtk/internal/domain"
)

// SaveToBytes serializes and encrypts a portfolio into portable,
// platform-independent container bytes.
//
// Flow: Portfolio -> msgpack -> AES-256-GCM(Argon2id(password)) -> SVTK frame.
// Salt and nonce are freshly generated on every call, so two saves of
// the same portfolio never produce the same bytes.
func SaveToBytes(portfolio *domain.Portfolio, password string) ([]byte, error) {
	plaintext, err := msgpack.Marshal(portfolio)
	if err != nil {
		return nil, &domain.SerializationError{Reason: fmt.Sprintf("failed to serialize portfolio: %v", err)}
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}

	params := DefaultKDFParams()
	key, err := DeriveKey(password, salt, params)
	if err != nil {
		return nil, err
	}

	ciphertext, err := Encrypt(plaintext, key, nonce)
	if err != nil {
		return nil, err
	}

	return WriteFile(CurrentVersion, params, salt, nonce, ciphertext), nil
}

// LoadFromBytes parses, decrypts and deserializes a portfolio from
// container bytes.
//
// Flow: SVTK frame -> Argon2id(password, header salt/params) ->
// AES-256-GCM open -> msgpack -> Portfolio.
func LoadFromBytes(data []byte, password string) (*domain.Portfolio, error) {
	header, ciphertext, err := ReadFile(data)
	if err != nil {
		return nil, err
	}

	key, err := DeriveKey(password, header.Salt, header.KDFParams)
	if err != nil {
		return nil, err
	}

	plaintext, err := Decrypt(ciphertext, key, header.Nonce)
	if err != nil {
		return nil, err
	}

	var portfolio domain.Portfolio
	if err := msgpack.Unmarshal(plaintext, &portfolio); err != nil {
		return nil, &domain.DeserializationError{Reason: fmt.Sprintf("failed to deserialize portfolio: %v", err)}
	}
	portfolio.Normalize()
	return &portfolio, nil
}

// SaveToFile writes the encrypted container to disk. Thin wrapper, the
// engine itself only deals in byte buffers.
func SaveToFile(portfolio *domain.Portfolio, path, password string) error {
	data, err := SaveToBytes(portfolio, password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &domain.FileIOError{Reason: err.Error()}
	}
	return nil
}

// LoadFromFile reads an encrypted container from disk.
func LoadFromFile(path, password string) (*domain.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.FileIOError{Reason: err.Error()}
	}
	return LoadFromBytes(data, password)
}
