package cryptostage

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"sync/atomic"
)

// Binding is the per-task encryption configuration (spec §3 Task attribute
// "encryption binding").
type Binding struct {
	Algorithm Algorithm
	KeyID     string
	IVMode    IVMode
}

// Stage wraps the upload/download pipeline with encryption, consulting a
// KeyStore for key material by key_id. One Stage is shared by every file a
// task encrypts, so IVModeCounter can share a monotonic counter across
// files.
type Stage struct {
	keys    *KeyStore
	counter atomic.Uint64
}

// NewStage returns a Stage backed by keys.
func NewStage(keys *KeyStore) *Stage {
	return &Stage{keys: keys}
}

// EncryptFile reads plaintext from r in full, encrypts it under binding, and
// returns the wire-format payload: nonce ‖ ciphertext ‖ auth_tag (spec §4.6).
// For AES-256-CBC+HMAC the returned sidecar tag must be persisted alongside
// the payload by the caller (the CBC tag is not embedded in the payload).
func (s *Stage) EncryptFile(path string, r io.Reader, binding Binding) (payload, sidecarTag []byte, err error) {
	key, err := s.keys.Get(binding.KeyID)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("cryptostage: read plaintext for %s: %w", path, err)
	}

	fileHash := contentHash(plaintext)

	if binding.Algorithm == AlgorithmAES256CBCHMACSHA256 {
		return s.encryptCBC(path, fileHash, plaintext, key, binding)
	}

	return s.encryptAEAD(path, fileHash, plaintext, key, binding)
}

// contentHash returns the sha256 of plaintext, fed into IVModeDerived so
// re-encrypting the same path with different content (an Update) never
// reuses a nonce under the same key (spec §4.6).
func contentHash(plaintext []byte) []byte {
	sum := sha256.Sum256(plaintext)
	return sum[:]
}

func (s *Stage) encryptAEAD(path string, fileHash, plaintext, key []byte, binding Binding) ([]byte, []byte, error) {
	c, err := NewCipher(binding.Algorithm, key)
	if err != nil {
		return nil, nil, err
	}

	nonce, err := s.nonceFor(path, fileHash, binding, c.Lengths().NonceLen)
	if err != nil {
		return nil, nil, err
	}

	ciphertext := c.Seal(nonce, plaintext, nil)

	return append(append([]byte{}, nonce...), ciphertext...), nil, nil
}

func (s *Stage) encryptCBC(path string, fileHash, plaintext, key []byte, binding Binding) ([]byte, []byte, error) {
	c, err := NewCBCCipher(key)
	if err != nil {
		return nil, nil, err
	}

	iv, err := s.nonceFor(path, fileHash, binding, c.Lengths().NonceLen)
	if err != nil {
		return nil, nil, err
	}

	sealed := c.Seal(iv, plaintext, nil)
	tag := c.Tag(nil, sealed)

	return sealed, tag, nil
}

// DecryptFile reverses EncryptFile. sidecarTag is only required for
// AES-256-CBC+HMAC; pass nil for single-AEAD algorithms.
func (s *Stage) DecryptFile(path string, payload, sidecarTag []byte, binding Binding) ([]byte, error) {
	key, err := s.keys.Get(binding.KeyID)
	if err != nil {
		return nil, err
	}

	if binding.Algorithm == AlgorithmAES256CBCHMACSHA256 {
		c, err := NewCBCCipher(key)
		if err != nil {
			return nil, err
		}

		return c.Open(payload, sidecarTag, nil)
	}

	c, err := NewCipher(binding.Algorithm, key)
	if err != nil {
		return nil, err
	}

	nonceLen := c.Lengths().NonceLen
	if len(payload) < nonceLen {
		return nil, fmt.Errorf("cryptostage: %s: %w", path, ErrIntegrityCheckFailed)
	}

	nonce, ciphertext := payload[:nonceLen], payload[nonceLen:]

	return c.Open(nonce, ciphertext, nil)
}

// nonceFor produces the nonce/IV for path under binding.IVMode, drawing
// fresh randomness for IVModeRandom, sharing the Stage's counter for
// IVModeCounter, and passing fileHash through for IVModeDerived so the
// derived nonce covers path ‖ file-hash rather than the path alone.
func (s *Stage) nonceFor(path string, fileHash []byte, binding Binding, nonceLen int) ([]byte, error) {
	var random []byte

	if binding.IVMode == IVModeRandom {
		r, err := RandomNonce(nonceLen)
		if err != nil {
			return nil, err
		}

		random = r
	}

	src := NewNonceSource(binding.IVMode, nonceLen, bytes.Repeat([]byte{0}, nonceLen), &s.counter)

	return src.Nonce(path, fileHash, 0, random)
}
