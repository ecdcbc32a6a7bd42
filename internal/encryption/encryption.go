// Package encryption implements the AES-256-GCM envelope used to wrap session
// tokens and sensitive request fields.
//
// A sealed blob is base64(salt || iv || tag || ciphertext). The per-message key
// is derived from the long-term key and the salt with PBKDF2-SHA256.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/pbkdf2"
)

const (
	KeyLength  = 32
	saltLength = 32
	ivLength   = 16
	tagLength  = 16

	// DefaultIterations is the PBKDF2 iteration count shared with the web client.
	DefaultIterations = 100000
)

var associatedData = []byte("FTIP-Alumni-Club")

var (
	ErrInvalidKey        = errors.New("encryption key must decode to 32 bytes")
	ErrMalformedCipher   = errors.New("malformed ciphertext")
	ErrDecryptionFailure = errors.New("decryption failed")
)

// Cipher seals and opens strings with a long-term 256-bit key.
type Cipher struct {
	key        []byte
	iterations int
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithIterations overrides the PBKDF2 iteration count.
func WithIterations(n int) Option {
	return func(c *Cipher) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// New creates a Cipher from a base64-encoded 32-byte key.
func New(encodedKey string, opts ...Option) (*Cipher, error) {
	key, err := DecodeKey(encodedKey)
	if err != nil {
		return nil, err
	}
	c := &Cipher{key: key, iterations: DefaultIterations}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DecodeKey decodes encodedKey and checks its length.
func DecodeKey(encodedKey string) ([]byte, error) {
	if encodedKey == "" {
		return nil, ErrInvalidKey
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != KeyLength {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// ValidateKey reports whether encodedKey is usable by New.
func ValidateKey(encodedKey string) bool {
	_, err := DecodeKey(encodedKey)
	return err == nil
}

// GenerateKey returns a fresh random key in the encoding New expects.
func GenerateKey() (string, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under a freshly salted derived key.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	// Seal appends the tag after the ciphertext; the wire layout puts it first.
	sealed := aead.Seal(nil, iv, []byte(plaintext), associatedData)
	ciphertext, tag := sealed[:len(sealed)-tagLength], sealed[len(sealed)-tagLength:]

	out := make([]byte, 0, saltLength+ivLength+tagLength+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a blob produced by Encrypt. Any tampering fails the tag check.
func (c *Cipher) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCipher, err)
	}
	if len(raw) < saltLength+ivLength+tagLength {
		return "", ErrMalformedCipher
	}

	salt := raw[:saltLength]
	iv := raw[saltLength : saltLength+ivLength]
	tag := raw[saltLength+ivLength : saltLength+ivLength+tagLength]
	ciphertext := raw[saltLength+ivLength+tagLength:]

	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, associatedData)
	if err != nil {
		return "", ErrDecryptionFailure
	}
	return string(plaintext), nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	derived := pbkdf2.Key(c.key, salt, c.iterations, KeyLength, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to create block cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	return aead, nil
}

// minCandidateLength is the length a value must exceed before DecryptField
// treats it as possibly sealed.
const minCandidateLength = 100

var base64Alphabet = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// LooksEncrypted applies the length and alphabet heuristic. It is a transport
// convenience, not a format check.
func LooksEncrypted(value string) bool {
	return len(value) > minCandidateLength && base64Alphabet.MatchString(value)
}

// DecryptField returns the plaintext of value when it looks sealed and opens
// cleanly, and value unchanged otherwise.
func (c *Cipher) DecryptField(value string) string {
	if !LooksEncrypted(value) {
		return value
	}
	plaintext, err := c.Decrypt(value)
	if err != nil {
		return value
	}
	return plaintext
}

// SensitiveFields lists the request fields the web client may send sealed.
var SensitiveFields = []string{
	"email",
	"name",
	"fullName",
	"city",
	"jobTitle",
	"companyName",
	"linkedInUrl",
	"contactInfo",
	"website",
	"token",
	"googleId",
	"password",
}

// DecryptFields applies DecryptField to the string values of fields in obj.
// obj is modified in place.
func (c *Cipher) DecryptFields(obj map[string]any, fields []string) {
	for _, field := range fields {
		if s, ok := obj[field].(string); ok && s != "" {
			obj[field] = c.DecryptField(s)
		}
	}
}
