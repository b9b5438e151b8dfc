package pkcs11session

import (
	"github.com/miekg/pkcs11"
)

// CreateKeyfile stores data as a new CKO_DATA object labeled label on
// slot, and verifies the stored value round-trips at full length
// before returning. DATA_LEN_RANGE and SESSION_READ_ONLY are remapped
// to DEVICE_MEMORY and TOKEN_WRITE_PROTECTED respectively, matching
// the status codes a caller actually cares about.
func (m *Manager) CreateKeyfile(slot SlotId, label string, data []byte) (TokenKeyfile, error) {
	if err := m.checkOpen(); err != nil {
		return TokenKeyfile{}, err
	}
	if err := m.LoginUserIfRequired(slot); err != nil {
		return TokenKeyfile{}, err
	}
	s := m.sessions[slot]

	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, uint(pkcs11.CKO_DATA)),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
		pkcs11.NewAttribute(pkcs11.CKA_VALUE, data),
	}

	handle, err := m.ctx.CreateObject(s.handle, template)
	if err != nil {
		switch {
		case isRV(err, pkcs11.CKR_DATA_LEN_RANGE):
			return TokenKeyfile{}, &Pkcs11Error{Code: pkcs11.CKR_DEVICE_MEMORY, Subject: "create keyfile"}
		case isRV(err, pkcs11.CKR_SESSION_READ_ONLY):
			return TokenKeyfile{}, &Pkcs11Error{Code: pkcs11.CKR_TOKEN_WRITE_PROTECTED, Subject: "create keyfile"}
		default:
			return TokenKeyfile{}, newPkcs11Error("create keyfile", err)
		}
	}

	stored, err := m.getAttribute(slot, handle, pkcs11.CKA_VALUE)
	if err != nil {
		return TokenKeyfile{}, err
	}
	if len(stored) != len(data) {
		_ = m.ctx.DestroyObject(s.handle, handle)
		return TokenKeyfile{}, &Pkcs11Error{Code: pkcs11.CKR_DEVICE_MEMORY, Subject: "create keyfile: truncated on read-back"}
	}

	token, err := m.GetTokenInfo(slot)
	if err != nil {
		return TokenKeyfile{}, err
	}
	return TokenKeyfile{SlotId: slot, Handle: handle, Id: label, Token: token}, nil
}

// DeleteKeyfile destroys the token object backing kf.
func (m *Manager) DeleteKeyfile(kf TokenKeyfile) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	if err := m.LoginUserIfRequired(kf.SlotId); err != nil {
		return err
	}
	s := m.sessions[kf.SlotId]
	if err := m.ctx.DestroyObject(s.handle, kf.Handle); err != nil {
		return newPkcs11Error("destroy object", err)
	}
	return nil
}
