package keyfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sectoken/tkeyfile/pkcs11session"
	"github.com/stretchr/testify/require"
)

// openTestManager opens the PKCS#11 module named by
// TKEYFILE_TEST_PKCS11_MODULE. It skips the calling test when the
// variable is unset, the way dsa_test.go in the reference crypto11
// fork requires a real or simulated token via ConfigureFromFile
// ("config") rather than mocking the C ABI.
func openTestManager(t *testing.T) (*pkcs11session.Manager, pkcs11session.SlotId, string) {
	t.Helper()
	modulePath := os.Getenv("TKEYFILE_TEST_PKCS11_MODULE")
	if modulePath == "" {
		t.Skip("TKEYFILE_TEST_PKCS11_MODULE not set; skipping hardware/SoftHSM-backed test")
	}
	pin := os.Getenv("TKEYFILE_TEST_PKCS11_PIN")
	slotEnv := os.Getenv("TKEYFILE_TEST_PKCS11_SLOT")
	keyID := os.Getenv("TKEYFILE_TEST_PKCS11_KEY_ID")
	require.NotEmpty(t, keyID, "TKEYFILE_TEST_PKCS11_KEY_ID must name an RSA key on the test token")

	mgr, err := pkcs11session.Open(modulePath, pkcs11session.PinCallbackFunc(func(string) (string, error) {
		return pin, nil
	}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	var slot pkcs11session.SlotId
	if slotEnv != "" {
		slots, err := mgr.GetTokenSlots()
		require.NoError(t, err)
		require.NotEmpty(t, slots)
		slot = slots[0]
	}
	return mgr, slot, keyID
}

// Property 3: token round-trip. RevealRedkey(CreateBluekey(P, desc,
// plain), desc) == plain.
func TestBluekeyRedkeyRoundTrip(t *testing.T) {
	mgr, slot, keyID := openTestManager(t)
	tokenDescriptor := FormatTokenKeyDescriptor(slot, keyID)

	key, err := resolveTokenKey(mgr, tokenDescriptor)
	require.NoError(t, err)

	dir := t.TempDir()
	bluekeyPath := filepath.Join(dir, "bluekey.bin")
	redkeyPath := filepath.Join(dir, "redkey.bin")

	plaintext := make([]byte, key.MaxDecryptBufferSize+64)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	require.NoError(t, CreateBluekey(mgr, bluekeyPath, tokenDescriptor, plaintext))
	require.NoError(t, RevealRedkey(mgr, redkeyPath, bluekeyPath, tokenDescriptor))

	got, err := os.ReadFile(redkeyPath)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

// Property 4: mount pool equality against a hand-assembled plaintext
// keyfile of the same effective bytes.
func TestApplyMountEqualsPlainPoolForSameBytes(t *testing.T) {
	mgr, slot, keyID := openTestManager(t)
	tokenDescriptor := FormatTokenKeyDescriptor(slot, keyID)

	key, err := resolveTokenKey(mgr, tokenDescriptor)
	require.NoError(t, err)

	dir := t.TempDir()
	// Long enough that the plain keyfile alone reaches MinProcessedLength
	// whatever the key's modulus size.
	tail := bytes.Repeat([]byte("trailing-bytes-after-the-encrypted-head"), 10)

	plainHead := make([]byte, key.MaxDecryptBufferSize)
	for i := range plainHead {
		plainHead[i] = byte(i % 251)
	}
	ciphertext, err := mgr.GetEncryptedData(key, plainHead)
	require.NoError(t, err)

	encryptedKeyfile := filepath.Join(dir, "encrypted.key")
	require.NoError(t, os.WriteFile(encryptedKeyfile, append(append([]byte{}, ciphertext...), tail...), 0600))

	plainKeyfile := filepath.Join(dir, "plain.key")
	require.NoError(t, os.WriteFile(plainKeyfile, append(append([]byte{}, plainHead...), tail...), 0600))

	mountPool := NewPool(64)
	require.NoError(t, Apply(mgr, mountPool, encryptedKeyfile, tokenDescriptor))

	plainPool := NewPool(64)
	require.NoError(t, Apply(mgr, plainPool, plainKeyfile, ""))

	require.Equal(t, plainPool.Bytes(), mountPool.Bytes())
}
