package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// envelopeVersion prefixes every ciphertext and is bound to it as AEAD
// associated data.
const envelopeVersion = "mv1"

var (
	// ErrDecryptionFailed covers both a wrong key and a corrupted ciphertext.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrInvalidKey is returned when the key is not KeySize bytes long.
	ErrInvalidKey = errors.New("invalid encryption key")
)

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt serializes v to JSON and seals it with AES-256-GCM under key.
//
// The result has the form "mv1.<base64(nonce || ciphertext)>" and is safe to
// store as plain text. A fresh random nonce is used for every call, so two
// encryptions of the same value differ.
func Encrypt(v any, key []byte) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	return seal(plaintext, key)
}

func seal(plaintext, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, []byte(envelopeVersion))
	return envelopeVersion + "." + base64.StdEncoding.EncodeToString(sealed), nil
}

func open(ciphertext string, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	encoded, ok := strings.CutPrefix(ciphertext, envelopeVersion+".")
	if !ok {
		return nil, fmt.Errorf("%w: unknown envelope format", ErrDecryptionFailed)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: bad encoding", ErrDecryptionFailed)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: truncated", ErrDecryptionFailed)
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, []byte(envelopeVersion))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(bytes.TrimSpace(plaintext)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecryptionFailed)
	}
	return plaintext, nil
}

// Decrypt opens a ciphertext produced by Encrypt and unmarshals the JSON
// payload into v.
//
// Every failure to recover the value (wrong key, tampered or truncated data,
// empty or unparsable payload) is reported as ErrDecryptionFailed; a wrong
// key and a corrupted record are deliberately indistinguishable.
func Decrypt(ciphertext string, key []byte, v any) error {
	plaintext, err := open(ciphertext, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return nil
}

// ValidateKey reports whether key opens ciphertext.
func ValidateKey(ciphertext string, key []byte) bool {
	var probe json.RawMessage
	return Decrypt(ciphertext, key, &probe) == nil
}

// ReEncrypt decrypts ciphertext with oldKey and encrypts the same payload
// with newKey. The payload is carried over byte for byte.
func ReEncrypt(ciphertext string, oldKey, newKey []byte) (string, error) {
	var payload json.RawMessage
	if err := Decrypt(ciphertext, oldKey, &payload); err != nil {
		return "", err
	}
	return seal(payload, newKey)
}

// IsEnvelope reports whether s has the shape of an envelope produced by
// Encrypt. It does not authenticate anything.
func IsEnvelope(s string) bool {
	encoded, ok := strings.CutPrefix(s, envelopeVersion+".")
	return ok && encoded != ""
}
