package cryptostage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// cbcHKDFInfo and cbcHMACInfo label the two HKDF-Expand outputs derived from
// the task's 32-byte master key, keeping the AES and HMAC subkeys
// cryptographically independent (RFC 5869 "info" context separation).
var (
	cbcHKDFInfo = []byte("syncengine cryptostage aes-256-cbc enc")
	cbcHMACInfo = []byte("syncengine cryptostage aes-256-cbc hmac")
)

// CBCCipher implements AES-256-CBC+HMAC-SHA256. Both primitives are standard
// library constructions (crypto/aes, crypto/cipher, crypto/hmac,
// crypto/sha256); golang.org/x/crypto/hkdf derives the two independent
// 32-byte subkeys from the task's single 32-byte master key so the cipher
// gets a true AES-256 key rather than a naive half-length split.
type CBCCipher struct {
	encKey  []byte // 32-byte AES-256 key, HKDF-derived
	hmacKey []byte // 32-byte HMAC-SHA256 key, HKDF-derived, independent of encKey
}

// NewCBCCipher derives an AES-256 encryption key and a separate HMAC-SHA256
// key from the 32-byte master key via HKDF (spec §6 wire table:
// "AES-256-CBC + HMAC-SHA256 | Key 32").
func NewCBCCipher(key []byte) (*CBCCipher, error) {
	lengths, err := lengthsFor(AlgorithmAES256CBCHMACSHA256)
	if err != nil {
		return nil, err
	}

	if len(key) != lengths.KeyLen {
		return nil, fmt.Errorf("cryptostage: cbc: want %d-byte key, got %d", lengths.KeyLen, len(key))
	}

	encKey, err := hkdfExpand(key, cbcHKDFInfo, 32)
	if err != nil {
		return nil, fmt.Errorf("cryptostage: cbc: derive enc key: %w", err)
	}

	hmacKey, err := hkdfExpand(key, cbcHMACInfo, 32)
	if err != nil {
		return nil, fmt.Errorf("cryptostage: cbc: derive hmac key: %w", err)
	}

	return &CBCCipher{encKey: encKey, hmacKey: hmacKey}, nil
}

func hkdfExpand(masterKey, info []byte, size int) ([]byte, error) {
	out := make([]byte, size)

	r := hkdf.New(sha256.New, masterKey, nil, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *CBCCipher) Lengths() Lengths {
	l, _ := lengthsFor(AlgorithmAES256CBCHMACSHA256)
	return l
}

// Seal encrypts plaintext under CBC with PKCS#7 padding, using iv as the
// initialization vector, and returns iv ‖ ciphertext. The caller persists the
// HMAC tag separately via Tag (spec §4.6's sidecar metadata object).
func (c *CBCCipher) Seal(iv, plaintext, aad []byte) []byte {
	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		panic(err) // key length validated in NewCBCCipher
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))

	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)

	return append(append([]byte{}, iv...), ciphertext...)
}

// Tag computes the HMAC-SHA-256 sidecar tag over aad ‖ sealed, where sealed
// is the iv‖ciphertext value Seal returned.
func (c *CBCCipher) Tag(aad, sealed []byte) []byte {
	mac := hmac.New(sha256.New, c.hmacKey)
	mac.Write(aad)
	mac.Write(sealed)

	return mac.Sum(nil)
}

// ErrIntegrityCheckFailed is returned when a decrypt/verify fails
// authentication, per spec §4.6: "never silently tolerated."
var ErrIntegrityCheckFailed = errors.New("cryptostage: integrity check failed")

// Open verifies tag against sealed (iv‖ciphertext), then decrypts and
// removes PKCS#7 padding.
func (c *CBCCipher) Open(sealed, tag, aad []byte) ([]byte, error) {
	expected := c.Tag(aad, sealed)
	if !hmac.Equal(expected, tag) {
		return nil, ErrIntegrityCheckFailed
	}

	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return nil, fmt.Errorf("cryptostage: cbc: %w", err)
	}

	blockSize := block.BlockSize()
	if len(sealed) < blockSize || (len(sealed)-blockSize)%blockSize != 0 {
		return nil, fmt.Errorf("cryptostage: cbc: %w", ErrIntegrityCheckFailed)
	}

	iv, ciphertext := sealed[:blockSize], sealed[blockSize:]

	padded := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, blockSize)
	if err != nil {
		return nil, fmt.Errorf("cryptostage: cbc: %w", ErrIntegrityCheckFailed)
	}

	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)

	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("cryptostage: invalid padded length")
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("cryptostage: invalid padding")
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("cryptostage: invalid padding")
		}
	}

	return data[:len(data)-padLen], nil
}
