package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltSize      = 16
	argonTime     = 1
	argonMemoryKB = 64 * 1024
	argonThreads  = 4
)

var ErrBadPassphrase = errors.New("credential cache could not be decrypted")

// sealedBlob is the encrypted form of a credential inside the cache record
type sealedBlob struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, chacha20poly1305.KeySize)
}

func seal(passphrase string, plaintext []byte) (*sealedBlob, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &sealedBlob{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func open(passphrase string, blob *sealedBlob) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, blob.Salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(blob.Nonce) != aead.NonceSize() {
		return nil, ErrBadPassphrase
	}

	plaintext, err := aead.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return plaintext, nil
}
