package cryptostage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher encrypts and decrypts one file's worth of plaintext as a single
// AEAD sealed message, producing the wire format from spec §4.6:
// nonce ‖ ciphertext ‖ auth_tag.
type Cipher interface {
	Lengths() Lengths
	Seal(nonce, plaintext, aad []byte) (ciphertext []byte)
	Open(nonce, ciphertext, aad []byte) (plaintext []byte, err error)
}

// NewCipher constructs the Cipher for alg bound to key. For AES-256-CBC+HMAC
// use NewCBCCipher instead — that construction is not a single AEAD object.
func NewCipher(alg Algorithm, key []byte) (Cipher, error) {
	lengths, err := lengthsFor(alg)
	if err != nil {
		return nil, err
	}

	if len(key) != lengths.KeyLen {
		return nil, fmt.Errorf("cryptostage: %s: want %d-byte key, got %d", alg, lengths.KeyLen, len(key))
	}

	switch alg {
	case AlgorithmAES256GCM, AlgorithmAES256GCMSIV:
		return newGCMCipher(alg, key, lengths)
	case AlgorithmChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("cryptostage: chacha20poly1305: %w", err)
		}

		return &aeadCipher{alg: alg, aead: aead, lengths: lengths}, nil
	case AlgorithmXChaCha20Poly1305:
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("cryptostage: xchacha20poly1305: %w", err)
		}

		return &aeadCipher{alg: alg, aead: aead, lengths: lengths}, nil
	default:
		return nil, fmt.Errorf("cryptostage: %s is not a single-AEAD algorithm", alg)
	}
}

// aeadCipher adapts a cipher.AEAD (GCM or ChaCha variants) to Cipher.
type aeadCipher struct {
	alg     Algorithm
	aead    cipher.AEAD
	lengths Lengths
}

func (c *aeadCipher) Lengths() Lengths { return c.lengths }

func (c *aeadCipher) Seal(nonce, plaintext, aad []byte) []byte {
	return c.aead.Seal(nil, nonce, plaintext, aad)
}

func (c *aeadCipher) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	pt, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("cryptostage: %s: %w", c.alg, ErrIntegrityCheckFailed)
	}

	return pt, nil
}

// newGCMCipher builds the stdlib AES-GCM construction. AES-256-GCM-SIV has
// no implementation anywhere in the retrieved pack and golang.org/x/crypto
// does not provide true nonce-misuse-resistant SIV framing either; rather
// than fabricate a dependency, AlgorithmAES256GCMSIV is served by this same
// stdlib GCM construction (documented in DESIGN.md as a deliberate
// stdlib fallback, not a faithful SIV implementation).
func newGCMCipher(alg Algorithm, key []byte, lengths Lengths) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptostage: aes: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptostage: gcm: %w", err)
	}

	return &aeadCipher{alg: alg, aead: aead, lengths: lengths}, nil
}

// RandomNonce draws a fresh random nonce of length n from crypto/rand, used
// for IVModeRandom.
func RandomNonce(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("cryptostage: read random nonce: %w", err)
	}

	return buf, nil
}
