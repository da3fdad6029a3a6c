// Package crypt seals small payloads at rest: MessagePack plaintext encrypted
// with AES-256-GCM-SIV, the 12-byte random nonce appended to the ciphertext.
package crypt

import (
	"crypto/rand"
	"errors"
	"fmt"

	siv "github.com/secure-io/siv-go"
	"github.com/vmihailenco/msgpack/v5"
)

// NonceSize is the AES-GCM-SIV nonce length appended to every sealed blob.
const NonceSize = 12

// KeySize is the required AES-256 key length.
const KeySize = 32

var (
	// ErrCiphertextTooShort is returned when a blob cannot even contain a nonce.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	// ErrInvalidKey is returned for keys that are not 32 bytes.
	ErrInvalidKey = errors.New("key must be 32 bytes")
)

// Seal encodes v as MessagePack and encrypts it. The output layout is
// ciphertext || nonce[12].
func Seal(v interface{}, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	plaintext, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	aead, err := siv.NewGCM(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	out := aead.Seal(nil, nonce, plaintext, nil)
	out = append(out, nonce...)

	return out, nil
}

// Open decrypts a sealed blob and decodes the MessagePack plaintext into v.
func Open(data []byte, key []byte, v interface{}) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}
	if len(data) < NonceSize {
		return ErrCiphertextTooShort
	}

	ciphertext, nonce := data[:len(data)-NonceSize], data[len(data)-NonceSize:]

	aead, err := siv.NewGCM(key)
	if err != nil {
		return fmt.Errorf("cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	if err := msgpack.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}
