package cryptostage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, alg Algorithm, ivMode IVMode) {
	t.Helper()

	keys := NewKeyStore()
	key := bytes.Repeat([]byte{0x42}, keySize)
	keys.Put("k1", key)

	stage := NewStage(keys)
	binding := Binding{Algorithm: alg, KeyID: "k1", IVMode: ivMode}

	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	payload, tag, err := stage.EncryptFile("a/b.txt", bytes.NewReader(plaintext), binding)
	require.NoError(t, err)

	recovered, err := stage.DecryptFile("a/b.txt", payload, tag, binding)
	require.NoError(t, err)
	require.Equal(t, plaintext, recovered)
}

func TestStageRoundTrip_AES256GCM(t *testing.T) {
	roundTrip(t, AlgorithmAES256GCM, IVModeRandom)
}

func TestStageRoundTrip_AES256GCMSIV(t *testing.T) {
	roundTrip(t, AlgorithmAES256GCMSIV, IVModeRandom)
}

func TestStageRoundTrip_ChaCha20Poly1305(t *testing.T) {
	roundTrip(t, AlgorithmChaCha20Poly1305, IVModeRandom)
}

func TestStageRoundTrip_XChaCha20Poly1305(t *testing.T) {
	roundTrip(t, AlgorithmXChaCha20Poly1305, IVModeRandom)
}

func TestStageRoundTrip_AES256CBCHMAC(t *testing.T) {
	roundTrip(t, AlgorithmAES256CBCHMACSHA256, IVModeRandom)
}

func TestStageRoundTrip_DerivedIVMode(t *testing.T) {
	roundTrip(t, AlgorithmAES256GCM, IVModeDerived)
}

func TestStageRoundTrip_CounterIVMode(t *testing.T) {
	roundTrip(t, AlgorithmChaCha20Poly1305, IVModeCounter)
}

// TestStageDerivedIVMode_DiffersByContent guards against nonce reuse: two
// encryptions of the same path under IVModeDerived must produce different
// nonces when the content differs (an Update), since the nonce is derived
// from path ‖ file-hash, not the path alone.
func TestStageDerivedIVMode_DiffersByContent(t *testing.T) {
	keys := NewKeyStore()
	key := bytes.Repeat([]byte{0x42}, keySize)
	keys.Put("k1", key)

	stage := NewStage(keys)
	binding := Binding{Algorithm: AlgorithmAES256GCM, KeyID: "k1", IVMode: IVModeDerived}

	nonceLen := func(payload []byte) []byte {
		c, err := NewCipher(binding.Algorithm, key)
		require.NoError(t, err)
		return payload[:c.Lengths().NonceLen]
	}

	payload1, _, err := stage.EncryptFile("a/b.txt", bytes.NewReader([]byte("version one")), binding)
	require.NoError(t, err)

	payload2, _, err := stage.EncryptFile("a/b.txt", bytes.NewReader([]byte("version two")), binding)
	require.NoError(t, err)

	require.NotEqual(t, nonceLen(payload1), nonceLen(payload2))
}

// TestStageDerivedIVMode_SameContentSameNonce confirms the derived nonce is
// a deterministic function of path+content, not freshly randomized.
func TestStageDerivedIVMode_SameContentSameNonce(t *testing.T) {
	keys := NewKeyStore()
	key := bytes.Repeat([]byte{0x42}, keySize)
	keys.Put("k1", key)

	stage := NewStage(keys)
	binding := Binding{Algorithm: AlgorithmAES256GCM, KeyID: "k1", IVMode: IVModeDerived}

	c, err := NewCipher(binding.Algorithm, key)
	require.NoError(t, err)
	nonceLen := c.Lengths().NonceLen

	payload1, _, err := stage.EncryptFile("a/b.txt", bytes.NewReader([]byte("same content")), binding)
	require.NoError(t, err)

	payload2, _, err := stage.EncryptFile("a/b.txt", bytes.NewReader([]byte("same content")), binding)
	require.NoError(t, err)

	require.Equal(t, payload1[:nonceLen], payload2[:nonceLen])
}

func TestStageDecrypt_TamperedCiphertext_IntegrityCheckFailed(t *testing.T) {
	keys := NewKeyStore()
	key := bytes.Repeat([]byte{0x42}, keySize)
	keys.Put("k1", key)

	stage := NewStage(keys)
	binding := Binding{Algorithm: AlgorithmAES256GCM, KeyID: "k1", IVMode: IVModeRandom}

	payload, _, err := stage.EncryptFile("a.txt", bytes.NewReader([]byte("secret")), binding)
	require.NoError(t, err)

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = stage.DecryptFile("a.txt", tampered, nil, binding)
	require.ErrorIs(t, err, ErrIntegrityCheckFailed)
}

func TestStageDecrypt_TamperedCBCTag_IntegrityCheckFailed(t *testing.T) {
	keys := NewKeyStore()
	key := bytes.Repeat([]byte{0x42}, keySize)
	keys.Put("k1", key)

	stage := NewStage(keys)
	binding := Binding{Algorithm: AlgorithmAES256CBCHMACSHA256, KeyID: "k1", IVMode: IVModeRandom}

	payload, tag, err := stage.EncryptFile("a.txt", bytes.NewReader([]byte("secret")), binding)
	require.NoError(t, err)

	tamperedTag := append([]byte(nil), tag...)
	tamperedTag[0] ^= 0xFF

	_, err = stage.DecryptFile("a.txt", payload, tamperedTag, binding)
	require.ErrorIs(t, err, ErrIntegrityCheckFailed)
}
