// Package cryptobox encrypts secrets at rest with AES-256-GCM.
//
// Sealed values are base64(nonce || tag || ciphertext) with a 12 byte nonce
// and a 16 byte tag. No additional data is authenticated.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	minSealedSize = NonceSize + TagSize
)

var (
	ErrKeyConfigurationInvalid = errors.New("cryptobox: encryption key must be hex encoding at least 32 bytes")
	ErrMalformedCiphertext     = errors.New("cryptobox: malformed ciphertext")
	ErrAuthenticationFailure   = errors.New("cryptobox: ciphertext failed authentication")
)

type Box struct {
	aead cipher.AEAD
}

// New builds a Box from a hex master key. Only the first 32 decoded bytes
// are used.
func New(hexKey string) (*Box, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(raw) < KeySize {
		return nil, ErrKeyConfigurationInvalid
	}

	block, err := aes.NewCipher(raw[:KeySize])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyConfigurationInvalid, err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyConfigurationInvalid, err)
	}

	return &Box{aead: aead}, nil
}

// GenerateKey returns a fresh random master key in hex.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

func (b *Box) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	// Seal appends ciphertext||tag; the stored layout puts the tag first.
	sealed := b.aead.Seal(nil, nonce, plaintext, nil)
	ctLen := len(sealed) - TagSize

	out := make([]byte, 0, NonceSize+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed[ctLen:]...)
	out = append(out, sealed[:ctLen]...)

	return base64.StdEncoding.EncodeToString(out), nil
}

func (b *Box) EncryptString(plaintext string) (string, error) {
	return b.Encrypt([]byte(plaintext))
}

func (b *Box) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedCiphertext
	}
	if len(raw) < minSealedSize {
		return nil, ErrMalformedCiphertext
	}

	nonce := raw[:NonceSize]
	tag := raw[NonceSize:minSealedSize]
	ct := raw[minSealedSize:]

	sealed := make([]byte, 0, len(ct)+TagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func (b *Box) DecryptString(encoded string) (string, error) {
	plaintext, err := b.Decrypt(encoded)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
