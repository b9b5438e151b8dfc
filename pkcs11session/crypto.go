package pkcs11session

import (
	"github.com/miekg/pkcs11"
)

var rsaPkcsMechanism = []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil)}

// GetDecryptedData RSA-PKCS-decrypts in using key, logging in first if
// required. The returned slice is sized to the token's actual reported
// output length (Open Question (b) in the design notes), never the
// pre-allocated maxDecryptBufferSize.
func (m *Manager) GetDecryptedData(key TokenKey, in []byte) ([]byte, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if err := m.LoginUserIfRequired(key.SlotId); err != nil {
		return nil, err
	}
	s := m.sessions[key.SlotId]

	if err := m.ctx.DecryptInit(s.handle, rsaPkcsMechanism, key.Handle); err != nil {
		return nil, newPkcs11Error("decrypt init", err)
	}
	out, err := m.ctx.Decrypt(s.handle, in)
	if err != nil {
		return nil, newPkcs11Error("decrypt", err)
	}
	return out, nil
}

// GetEncryptedData RSA-PKCS-encrypts in using key, logging in first if
// required. The output buffer is sized from the token's own advertised
// maxEncryptBufferSize / returned length rather than reused from the
// input length (Open Question (c)).
func (m *Manager) GetEncryptedData(key TokenKey, in []byte) ([]byte, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if err := m.LoginUserIfRequired(key.SlotId); err != nil {
		return nil, err
	}
	s := m.sessions[key.SlotId]

	if err := m.ctx.EncryptInit(s.handle, rsaPkcsMechanism, key.Handle); err != nil {
		return nil, newPkcs11Error("encrypt init", err)
	}
	out, err := m.ctx.Encrypt(s.handle, in)
	if err != nil {
		return nil, newPkcs11Error("encrypt", err)
	}
	return out, nil
}
