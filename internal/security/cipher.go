// Package security provides the symmetric cipher used to protect stored
// credentials at rest.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
)

// IVSize is the AES block size; every record carries a fresh random IV of this length.
const IVSize = aes.BlockSize

// tagSize is the length of the HMAC-SHA256 integrity tag appended to the ciphertext.
const tagSize = sha256.Size

var (
	// ErrDecryption is returned when ciphertext, IV, tag, or padding is malformed.
	// It signals tampering or corruption and must never be treated as an empty value.
	ErrDecryption = errors.New("decryption failed")
	// ErrMissingSecret is returned by NewCipher when the configured secret is empty.
	ErrMissingSecret = errors.New("encryption secret is not set")
)

// macLabel domain-separates the MAC key from the encryption key.
const macLabel = "credential-integrity-v1"

// Cipher encrypts and decrypts small sensitive values with AES-256-CBC and an
// HMAC-SHA256 tag (encrypt-then-MAC). The keys are derived once from the
// configured secret, so ciphertext written by one process is decryptable by
// any other process configured with the same secret. A Cipher is immutable
// after construction and safe for concurrent use.
type Cipher struct {
	encKey []byte
	macKey []byte
}

// NewCipher derives the encryption and MAC keys from secret.
// The encryption key is the SHA-256 digest of the secret; the MAC key is an
// HMAC of a fixed label under that digest. Returns ErrMissingSecret for an
// empty secret.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	encKey := sha256.Sum256([]byte(secret))
	mac := hmac.New(sha256.New, encKey[:])
	mac.Write([]byte(macLabel))
	return &Cipher{encKey: encKey[:], macKey: mac.Sum(nil)}, nil
}

// Encrypt encrypts plaintext with a fresh random 16-byte IV and returns the
// hex-encoded ciphertext (with the integrity tag appended) and the hex-encoded IV.
// The IV is not secret and must be stored alongside the ciphertext.
func (c *Cipher) Encrypt(plaintext string) (ciphertextHex, ivHex string, err error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", err
	}

	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return "", "", err
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(iv)
	mac.Write(ct)
	ct = mac.Sum(ct)

	return hex.EncodeToString(ct), hex.EncodeToString(iv), nil
}

// Decrypt verifies the integrity tag and decrypts the hex-encoded ciphertext
// using the stored IV. Any malformed input — bad hex, wrong IV length,
// truncated ciphertext, tag mismatch, or invalid padding — yields ErrDecryption.
func (c *Cipher) Decrypt(ciphertextHex, ivHex string) (string, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != IVSize {
		return "", ErrDecryption
	}
	raw, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", ErrDecryption
	}
	if len(raw) < tagSize+aes.BlockSize {
		return "", ErrDecryption
	}
	ct, tag := raw[:len(raw)-tagSize], raw[len(raw)-tagSize:]
	if len(ct)%aes.BlockSize != 0 {
		return "", ErrDecryption
	}

	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(iv)
	mac.Write(ct)
	if subtle.ConstantTimeCompare(mac.Sum(nil), tag) != 1 {
		return "", ErrDecryption
	}

	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return "", err
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	pt, err = pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return "", ErrDecryption
	}
	return string(pt), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, ErrDecryption
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, ErrDecryption
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrDecryption
		}
	}
	return b[:len(b)-n], nil
}
