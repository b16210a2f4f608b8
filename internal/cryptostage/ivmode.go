package cryptostage

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// NonceSource produces the nonce for one file encryption, per the IV mode
// bound to a task.
type NonceSource struct {
	mode    IVMode
	nonceLen int
	fixed   []byte
	counter *atomic.Uint64
}

// NewNonceSource builds a NonceSource for mode. fixed is only consulted for
// IVModeFixed; counter is shared across files encrypted under the same task
// when mode is IVModeCounter.
func NewNonceSource(mode IVMode, nonceLen int, fixed []byte, counter *atomic.Uint64) *NonceSource {
	return &NonceSource{mode: mode, nonceLen: nonceLen, fixed: fixed, counter: counter}
}

// Nonce computes the nonce for path at chunkOffset (0 for whole-file AEAD),
// given randomBytes freshly drawn from crypto/rand for IVModeRandom and
// fileHash for IVModeDerived (may be empty if unknown — Derived then hashes
// the path alone).
func (s *NonceSource) Nonce(path string, fileHash []byte, chunkOffset int64, randomBytes []byte) ([]byte, error) {
	switch s.mode {
	case IVModeRandom:
		if len(randomBytes) != s.nonceLen {
			return nil, fmt.Errorf("cryptostage: random nonce: want %d bytes, got %d", s.nonceLen, len(randomBytes))
		}

		return randomBytes, nil

	case IVModeDerived:
		h := sha256.New()
		h.Write([]byte(path))
		h.Write(fileHash)

		return h.Sum(nil)[:s.nonceLen], nil

	case IVModeCounter:
		if s.counter == nil {
			return nil, fmt.Errorf("cryptostage: counter nonce: no counter configured")
		}

		n := s.counter.Add(1)

		return counterNonce(n, s.nonceLen), nil

	case IVModeFileOffset:
		return counterNonce(uint64(chunkOffset), s.nonceLen), nil

	case IVModeFixed:
		if len(s.fixed) != s.nonceLen {
			return nil, fmt.Errorf("cryptostage: fixed nonce: want %d bytes, got %d", s.nonceLen, len(s.fixed))
		}

		return s.fixed, nil

	default:
		return nil, fmt.Errorf("cryptostage: unknown iv mode %q", s.mode)
	}
}

// counterNonce packs a monotonic counter into the low bytes of a nonceLen
// buffer, big-endian, zero-padded.
func counterNonce(n uint64, nonceLen int) []byte {
	buf := make([]byte, nonceLen)

	if nonceLen >= 8 {
		binary.BigEndian.PutUint64(buf[nonceLen-8:], n)
	} else {
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], n)
		copy(buf, tmp[8-nonceLen:])
	}

	return buf
}
