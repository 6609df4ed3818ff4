package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"custody-wallet/pkg/apperror"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for deriving the vault key from the operator secret.
// Derivation is deliberately expensive; it runs once at construction and the
// derived key is cached for the process lifetime.
const (
	vaultArgon2Time    = 3
	vaultArgon2Memory  = 64 * 1024 // 64MB
	vaultArgon2Threads = 4
	vaultArgon2KeyLen  = 32

	vaultMinSecretLen = 32
)

// vaultSalt is a fixed application salt; the operator secret is the only
// moving part of the derivation.
var vaultSalt = []byte("custody-wallet/key-vault/v1")

// placeholderSecret ships in the example configuration and must be replaced.
const placeholderSecret = "replace-with-a-high-entropy-operator-secret-32ch"

// KeyVault encrypts wallet private keys at rest with AES-256-GCM under a key
// derived once from the operator secret.
//
// Blob layout: base64(nonce || tag || ciphertext).
type KeyVault struct {
	key []byte
}

// NewKeyVault validates the operator secret and derives the encryption key.
// A missing, short, or placeholder secret is a configuration error and the
// process must not serve traffic.
func NewKeyVault(secret string) (*KeyVault, error) {
	if secret == "" {
		return nil, apperror.Configuration("vault secret is not set")
	}
	if len(secret) < vaultMinSecretLen {
		return nil, apperror.Configuration(fmt.Sprintf("vault secret must be at least %d characters", vaultMinSecretLen))
	}
	if secret == placeholderSecret {
		return nil, apperror.Configuration("vault secret is still the shipped placeholder")
	}

	key := argon2.IDKey([]byte(secret), vaultSalt, vaultArgon2Time, vaultArgon2Memory, vaultArgon2Threads, vaultArgon2KeyLen)
	return &KeyVault{key: key}, nil
}

// Encrypt seals plaintext with a fresh random nonce.
func (v *KeyVault) Encrypt(plaintext []byte) (string, error) {
	aesGCM, err := v.cipher()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	// Seal returns ciphertext || tag; the stored blob is nonce || tag || ciphertext.
	sealed := aesGCM.Seal(nil, nonce, plaintext, nil)
	tagAt := len(sealed) - aesGCM.Overhead()
	ciphertext, tag := sealed[:tagAt], sealed[tagAt:]

	blob := make([]byte, 0, len(nonce)+len(tag)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a stored blob. Any tampering or corruption fails the
// authentication tag and surfaces as an integrity error, never as garbage
// plaintext.
func (v *KeyVault) Decrypt(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, apperror.Integrity(fmt.Errorf("decoding blob: %w", err))
	}

	aesGCM, err := v.cipher()
	if err != nil {
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	tagSize := aesGCM.Overhead()
	if len(raw) < nonceSize+tagSize {
		return nil, apperror.Integrity(fmt.Errorf("blob too short: %d bytes", len(raw)))
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ciphertext := raw[nonceSize+tagSize:]

	// GCM expects ciphertext || tag.
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, apperror.Integrity(err)
	}
	return plaintext, nil
}

func (v *KeyVault) cipher() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aesGCM, nil
}
