// Package crypto seals snapshot bodies at rest with XChaCha20-Poly1305 and
// manages the key files that hold store keys.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// errOpen hides AEAD detail; a wrong key and tampered data look the same.
var errOpen = errors.New("sealed data could not be authenticated")

// Box seals and opens byte slices with a single store key.
type Box struct {
	aead cipher.AEAD
}

// NewBox creates a Box for a KeySize-byte key.
func NewBox(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Seal returns nonce || ciphertext. ad is authenticated but not stored.
func (b *Box) Seal(plaintext, ad []byte) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize(), b.aead.NonceSize()+len(plaintext)+b.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return b.aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Open reverses Seal. It fails if the key is wrong or the data was altered.
func (b *Box) Open(sealed, ad []byte) ([]byte, error) {
	ns := b.aead.NonceSize()
	if len(sealed) < ns+b.aead.Overhead() {
		return nil, errOpen
	}
	plaintext, err := b.aead.Open(nil, sealed[:ns], sealed[ns:], ad)
	if err != nil {
		return nil, errOpen
	}
	return plaintext, nil
}
