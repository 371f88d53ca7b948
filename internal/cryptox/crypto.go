// Package cryptox seals attachment payloads before they enter the upload
// queue. The queue itself is encryption-agnostic: it stores and ships
// whatever bytes it is given.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

var ErrInvalidPayload = errors.New("sealed payload too short")

// DeriveKey stretches a passphrase into a 256-bit AES key using argon2id.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Seal encrypts plaintext with a key derived from the passphrase and a
// fresh random salt. The output is salt || nonce || ciphertext, so the
// payload is self-contained and can be opened with the passphrase alone.
func Seal(plaintext []byte, passphrase []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal.
func Open(sealed []byte, passphrase []byte) ([]byte, error) {
	if len(sealed) < saltSize {
		return nil, ErrInvalidPayload
	}
	salt, rest := sealed[:saltSize], sealed[saltSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	if len(rest) < gcm.NonceSize() {
		return nil, ErrInvalidPayload
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting payload: %w", err)
	}
	return plaintext, nil
}

func newGCM(passphrase []byte, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return gcm, nil
}
