// Package cryptox implements one-way password hashing.
//
// Every hash is self-describing: bcrypt hashes use the modular crypt format
// ($2a$<cost>$<salt+hash>) and argon2id hashes use the PHC string format
// ($argon2id$v=19$m=<KiB>,t=<iterations>,p=<threads>$<salt>$<hash>). Verify
// reads algorithm, parameters and salt back from the encoding, so a hash
// produced under one configuration still verifies after the configuration
// changes.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm selects the hash used for new passwords.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// MaxPasswordBytes is the longest password accepted for hashing. bcrypt
// ignores input past 72 bytes, and the cap bounds hashing work per request.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for inputs over MaxPasswordBytes.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params are used for new argon2id hashes unless overridden.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// Upper bounds accepted when decoding a stored argon2id hash. A corrupted or
// hostile hash must not make Verify allocate gigabytes.
const (
	maxArgon2Memory = 1024 * 1024
	maxArgon2Time   = 16
	maxArgon2KeyLen = 1024
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher struct {
	algorithm  Algorithm
	bcryptCost int
	argon2     Argon2Params
}

// Option customizes a PasswordHasher.
type Option func(*PasswordHasher)

// WithAlgorithm selects the algorithm for new hashes.
func WithAlgorithm(a Algorithm) Option {
	return func(h *PasswordHasher) { h.algorithm = a }
}

// WithBcryptCost sets the bcrypt cost factor. Out-of-range values are
// clamped by bcrypt itself to DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(h *PasswordHasher) { h.bcryptCost = cost }
}

// WithArgon2Params sets argon2id parameters for new hashes.
func WithArgon2Params(p Argon2Params) Option {
	return func(h *PasswordHasher) { h.argon2 = p }
}

// NewPasswordHasher returns a bcrypt hasher with bcrypt.DefaultCost unless
// options say otherwise.
func NewPasswordHasher(opts ...Option) *PasswordHasher {
	h := &PasswordHasher{
		algorithm:  AlgorithmBcrypt,
		bcryptCost: bcrypt.DefaultCost,
		argon2:     DefaultArgon2Params,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ParseAlgorithm validates an algorithm name coming from configuration.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case AlgorithmBcrypt, AlgorithmArgon2id:
		return a, nil
	default:
		return "", fmt.Errorf("unknown password hash algorithm %q", name)
	}
}

// Hash returns a salted, self-describing hash of password. Each call draws a
// fresh salt, so hashing the same password twice yields different encodings.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	switch h.algorithm {
	case AlgorithmArgon2id:
		return h.hashArgon2id(password)
	default:
		b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	}
}

// Verify reports whether password matches encoded. Mismatches, unknown
// formats, corrupted hashes and passwords over MaxPasswordBytes all yield
// false. bcrypt compares only the first 72 bytes, so longer input is refused
// before it can match a hash of its prefix.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	if len(password) > MaxPasswordBytes {
		return false
	}

	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(password, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	default:
		return false
	}
}

func (h *PasswordHasher) hashArgon2id(password string) (string, error) {
	p := h.argon2

	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(password, encoded string) bool {
	p, salt, key, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func decodeArgon2id(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("malformed argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("argon2 params: %w", err)
	}
	if p.Memory == 0 || p.Memory > maxArgon2Memory || p.Time == 0 || p.Time > maxArgon2Time || p.Threads == 0 {
		return p, nil, nil, errors.New("argon2 params out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errors.New("malformed argon2 salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgon2KeyLen {
		return p, nil, nil, errors.New("malformed argon2 key")
	}
	p.KeyLen = uint32(len(key))
	p.SaltLen = uint32(len(salt))

	return p, salt, key, nil
}
