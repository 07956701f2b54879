// Package cryptox holds the client-side cryptography of MaunaVault: password
// based key derivation, the authenticated envelope format used for the
// encrypted user record, and the credential derivation used against the
// auth backend.
//
// Nothing in this package talks to the network or persists key material.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Supported key derivation algorithms.
const (
	KDFPBKDF2SHA256 = "pbkdf2-sha256"
	KDFArgon2id     = "argon2id"
)

const (
	// KeySize is the length of derived keys (AES-256).
	KeySize = 32
	// SaltSize is the number of random bytes in a salt (128 bits).
	SaltSize = 16

	MinPBKDF2Iterations     = 100_000
	DefaultPBKDF2Iterations = 310_000
	MaxPBKDF2Iterations     = 10_000_000

	// Upper bounds for argon2id; the memory cost is in KiB (1 GiB).
	MaxArgon2Time    = 10
	MaxArgon2Memory  = 1 << 20
	MaxArgon2Threads = 16

	authCredentialIterations = 100_000
	authCredentialDomain     = "maunavault/auth/v1:"
)

var (
	ErrInvalidSalt      = errors.New("invalid salt")
	ErrInvalidKDFParams = errors.New("invalid kdf parameters")
)

// KDFParams describes how a key is derived from a password. The encoded form
// (String) is stored next to the salt so any client can re-derive the key.
type KDFParams struct {
	Algorithm string
	// Iterations is the PBKDF2 iteration count or the argon2 time cost.
	Iterations uint32
	// Memory is the argon2 memory cost in KiB. Unused for PBKDF2.
	Memory uint32
	// Threads is the argon2 parallelism. Unused for PBKDF2.
	Threads uint8
}

// DefaultKDFParams returns PBKDF2-HMAC-SHA256 with DefaultPBKDF2Iterations.
func DefaultKDFParams() KDFParams {
	return KDFParams{Algorithm: KDFPBKDF2SHA256, Iterations: DefaultPBKDF2Iterations}
}

// PBKDF2Params returns PBKDF2-HMAC-SHA256 parameters with the given iteration count.
func PBKDF2Params(iterations uint32) KDFParams {
	return KDFParams{Algorithm: KDFPBKDF2SHA256, Iterations: iterations}
}

// Argon2idParams returns the argon2id profile (t=1, m=64MiB, p=4).
func Argon2idParams() KDFParams {
	return KDFParams{Algorithm: KDFArgon2id, Iterations: 1, Memory: 64 * 1024, Threads: 4}
}

// Validate rejects unknown algorithms and parameters outside the accepted
// range.
func (p KDFParams) Validate() error {
	switch p.Algorithm {
	case KDFPBKDF2SHA256:
		if p.Iterations < MinPBKDF2Iterations || p.Iterations > MaxPBKDF2Iterations {
			return fmt.Errorf("%w: pbkdf2 iterations must be in [%d, %d], got %d",
				ErrInvalidKDFParams, MinPBKDF2Iterations, MaxPBKDF2Iterations, p.Iterations)
		}
	case KDFArgon2id:
		if p.Iterations == 0 || p.Iterations > MaxArgon2Time ||
			p.Threads == 0 || p.Threads > MaxArgon2Threads ||
			p.Memory < 8*uint32(p.Threads) || p.Memory > MaxArgon2Memory {
			return fmt.Errorf("%w: argon2id t=%d m=%d p=%d", ErrInvalidKDFParams, p.Iterations, p.Memory, p.Threads)
		}
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidKDFParams, p.Algorithm)
	}
	return nil
}

// String encodes the parameters, e.g. "pbkdf2-sha256$i=310000" or
// "argon2id$t=1,m=65536,p=4".
func (p KDFParams) String() string {
	switch p.Algorithm {
	case KDFArgon2id:
		return fmt.Sprintf("%s$t=%d,m=%d,p=%d", p.Algorithm, p.Iterations, p.Memory, p.Threads)
	default:
		return fmt.Sprintf("%s$i=%d", p.Algorithm, p.Iterations)
	}
}

// ParseKDFParams decodes the output of KDFParams.String and validates it.
func ParseKDFParams(s string) (KDFParams, error) {
	alg, rest, ok := strings.Cut(s, "$")
	if !ok {
		return KDFParams{}, fmt.Errorf("%w: %q", ErrInvalidKDFParams, s)
	}

	p := KDFParams{Algorithm: alg}
	for _, kv := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return KDFParams{}, fmt.Errorf("%w: %q", ErrInvalidKDFParams, s)
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return KDFParams{}, fmt.Errorf("%w: %q", ErrInvalidKDFParams, s)
		}
		switch k {
		case "i", "t":
			p.Iterations = uint32(n)
		case "m":
			p.Memory = uint32(n)
		case "p":
			if n > 255 {
				return KDFParams{}, fmt.Errorf("%w: %q", ErrInvalidKDFParams, s)
			}
			p.Threads = uint8(n)
		default:
			return KDFParams{}, fmt.Errorf("%w: unknown field %q", ErrInvalidKDFParams, k)
		}
	}

	if err := p.Validate(); err != nil {
		return KDFParams{}, err
	}
	return p, nil
}

// GenerateSalt returns SaltSize random bytes, base64 encoded. Salts are not
// secret and are stored in the clear next to the ciphertext.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("salt generation: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DeriveKey derives a KeySize-byte key from password and the encoded salt.
// The result is deterministic for the same inputs. Callers should wipe the
// returned slice once it is no longer needed.
func DeriveKey(password []byte, salt string, p KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil || len(rawSalt) == 0 {
		return nil, ErrInvalidSalt
	}

	switch p.Algorithm {
	case KDFArgon2id:
		return argon2.IDKey(password, rawSalt, p.Iterations, p.Memory, p.Threads, KeySize), nil
	default:
		return pbkdf2.Key(password, rawSalt, int(p.Iterations), KeySize, sha256.New), nil
	}
}

// AuthCredential derives the credential presented to the auth backend in
// place of the raw password. It is bound to the normalized email and uses a
// separate domain string, so it reveals nothing about the data key.
func AuthCredential(password []byte, email string) string {
	salt := []byte(authCredentialDomain + strings.ToLower(strings.TrimSpace(email)))
	return hex.EncodeToString(pbkdf2.Key(password, salt, authCredentialIterations, KeySize, sha256.New))
}
