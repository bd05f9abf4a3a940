package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// tokenVersion is the version byte for the sealed blob format.
	tokenVersion = 0x01

	// nonceSize is the AES-GCM nonce size (12 bytes is standard)
	nonceSize = 12

	// keySize is the required key size for AES-256
	keySize = 32
)

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrInvalidBlobSize is returned when the sealed blob is too small.
	ErrInvalidBlobSize = errors.New("sealed token is too small")

	// ErrUnsupportedVersion is returned when the blob version is not supported.
	ErrUnsupportedVersion = errors.New("unsupported sealed token version")

	// ErrDecryptionFailed is returned when decryption fails (wrong key, wrong credential or corrupted data).
	ErrDecryptionFailed = errors.New("failed to open sealed token")
)

// TokenEncryptor seals destination integration tokens with AES-256-GCM.
// The credential id is bound as associated data, so a blob only opens for the row it was sealed for.
// The sealed format is: version(1) || nonce(12) || ciphertext(N)
type TokenEncryptor struct {
	gcm cipher.AEAD
}

// NewTokenEncryptor creates a new encryptor with the given 32-byte key.
func NewTokenEncryptor(key []byte) (*TokenEncryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &TokenEncryptor{gcm: gcm}, nil
}

// NewTokenEncryptorFromHex creates an encryptor from a 64-character hex key
func NewTokenEncryptorFromHex(hexKey string) (*TokenEncryptor, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	return NewTokenEncryptor(key)
}

// Seal encrypts token for the given credential
func (e *TokenEncryptor) Seal(credentialID, token string) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := e.gcm.Seal(nil, nonce, []byte(token), []byte(credentialID))

	blob := make([]byte, 1+nonceSize+len(ciphertext))
	blob[0] = tokenVersion
	copy(blob[1:1+nonceSize], nonce)
	copy(blob[1+nonceSize:], ciphertext)

	return blob, nil
}

// Open decrypts a blob sealed for credentialID
func (e *TokenEncryptor) Open(credentialID string, blob []byte) (string, error) {
	if len(blob) < 1+nonceSize+e.gcm.Overhead() {
		return "", ErrInvalidBlobSize
	}

	if blob[0] != tokenVersion {
		return "", fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, blob[0])
	}

	nonce := blob[1 : 1+nonceSize]
	plaintext, err := e.gcm.Open(nil, nonce, blob[1+nonceSize:], []byte(credentialID))
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
