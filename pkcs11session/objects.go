package pkcs11session

import (
	"github.com/miekg/pkcs11"
)

// getObjects enumerates every object of the given class visible on the
// session cached for slot. C_FindObjectsInit is paired with
// C_FindObjectsFinal on every exit path via defer.
func (m *Manager) getObjects(slot SlotId, class objectClass) ([]pkcs11.ObjectHandle, error) {
	s, ok := m.sessions[slot]
	if !ok {
		return nil, ErrParameterIncorrect
	}

	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, uint(class)),
	}
	if err := m.ctx.FindObjectsInit(s.handle, template); err != nil {
		return nil, newPkcs11Error("find objects init", err)
	}
	defer m.ctx.FindObjectsFinal(s.handle)

	var handles []pkcs11.ObjectHandle
	for {
		batch, _, err := m.ctx.FindObjects(s.handle, 1)
		if err != nil {
			return nil, newPkcs11Error("find objects", err)
		}
		if len(batch) == 0 {
			break
		}
		handles = append(handles, batch...)
	}
	return handles, nil
}

// getAttribute performs the standard PKCS#11 two-phase attribute read:
// a length probe followed by a value fetch. An attribute of length 0
// yields an empty, non-nil slice without a second round trip.
func (m *Manager) getAttribute(slot SlotId, handle pkcs11.ObjectHandle, attrType uint) ([]byte, error) {
	s, ok := m.sessions[slot]
	if !ok {
		return nil, ErrParameterIncorrect
	}

	probe, err := m.ctx.GetAttributeValue(s.handle, handle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(attrType, nil),
	})
	if err != nil {
		return nil, newPkcs11Error("get attribute value", err)
	}
	if len(probe) == 0 || len(probe[0].Value) == 0 {
		return []byte{}, nil
	}
	return probe[0].Value, nil
}

// getAttributeBool reads a fixed-width CK_BBOOL attribute, defaulting
// to false when the attribute is absent or empty.
func (m *Manager) getAttributeBool(slot SlotId, handle pkcs11.ObjectHandle, attrType uint) (bool, error) {
	v, err := m.getAttribute(slot, handle, attrType)
	if err != nil {
		return false, err
	}
	if len(v) == 0 {
		return false, nil
	}
	return v[0] != 0, nil
}

// enumerateMatching walks every present token (or just slotFilter, if
// non-nil), logging in and skipping tokens that abort or report
// TOKEN_NOT_RECOGNIZED, and invokes visit once per object of class
// that survives the CKA_PRIVATE and CKA_LABEL filters described in
// §4.1's keyfile/key enumeration rule. It returns true if any slot was
// unrecognized, for the caller to fold into ErrTokenNotRecognized when
// nothing else matched.
func (m *Manager) enumerateMatching(slotFilter *SlotId, id string, class objectClass, visit func(TokenInfo, pkcs11.ObjectHandle, string) (stop bool, err error)) (anyUnrecognized bool, err error) {
	var slots []SlotId
	if slotFilter != nil {
		slots = []SlotId{*slotFilter}
	} else {
		slots, err = m.GetTokenSlots()
		if err != nil {
			return false, err
		}
	}

	notRecognized := func(err error) bool {
		pe, ok := err.(*Pkcs11Error)
		return ok && pe.Code == pkcs11.CKR_TOKEN_NOT_RECOGNIZED
	}

	for _, slot := range slots {
		loginErr := m.LoginUserIfRequired(slot)
		if loginErr == ErrUserAbort {
			continue
		}
		if notRecognized(loginErr) {
			anyUnrecognized = true
			continue
		}
		if loginErr != nil {
			return anyUnrecognized, loginErr
		}

		token, err := m.GetTokenInfo(slot)
		if notRecognized(err) {
			anyUnrecognized = true
			continue
		}
		if err != nil {
			return anyUnrecognized, err
		}

		handles, err := m.getObjects(slot, class)
		if err != nil {
			return anyUnrecognized, err
		}

		for _, h := range handles {
			private, err := m.getAttributeBool(slot, h, pkcs11.CKA_PRIVATE)
			if err != nil {
				return anyUnrecognized, err
			}
			if !private {
				continue
			}

			labelBytes, err := m.getAttribute(slot, h, pkcs11.CKA_LABEL)
			if err != nil {
				return anyUnrecognized, err
			}
			label := string(labelBytes)
			if label == "" {
				continue
			}
			if id != "" && label != id {
				continue
			}

			stop, err := visit(token, h, label)
			if err != nil {
				return anyUnrecognized, err
			}
			if stop {
				break
			}
		}
	}
	return anyUnrecognized, nil
}

// GetAvailableKeyfiles enumerates CKO_DATA objects, optionally
// restricted to slot and/or matching id exactly.
func (m *Manager) GetAvailableKeyfiles(slot *SlotId, id string) ([]TokenKeyfile, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	var results []TokenKeyfile
	unrecognized, err := m.enumerateMatching(slot, id, classData, func(token TokenInfo, h pkcs11.ObjectHandle, label string) (bool, error) {
		results = append(results, TokenKeyfile{
			SlotId: token.SlotId,
			Handle: h,
			Id:     label,
			Token:  token,
		})
		return id != "", nil
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && unrecognized {
		return nil, ErrTokenNotRecognized
	}
	return results, nil
}

// GetAvailableKeys enumerates CKO_PRIVATE_KEY RSA objects, optionally
// restricted to slot and/or matching id exactly, additionally reading
// CKA_MODULUS_BITS to populate the buffer-size fields.
func (m *Manager) GetAvailableKeys(slot *SlotId, id string) ([]TokenKey, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	var results []TokenKey
	unrecognized, err := m.enumerateMatching(slot, id, classPrivateKey, func(token TokenInfo, h pkcs11.ObjectHandle, label string) (bool, error) {
		bitsRaw, err := m.getAttribute(token.SlotId, h, pkcs11.CKA_MODULUS_BITS)
		if err != nil {
			return false, err
		}
		bits := decodeCKULong(bitsRaw)
		maxEncrypt, maxDecrypt := modulusBitsToBufferSizes(bits)
		results = append(results, TokenKey{
			SlotId:               token.SlotId,
			Handle:               h,
			Id:                   label,
			Token:                token,
			MaxEncryptBufferSize: maxEncrypt,
			MaxDecryptBufferSize: maxDecrypt,
		})
		return id != "", nil
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && unrecognized {
		return nil, ErrTokenNotRecognized
	}
	return results, nil
}

// GetKeyfileData reads the CKA_VALUE of a TokenKeyfile.
func (m *Manager) GetKeyfileData(kf TokenKeyfile) ([]byte, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if err := m.LoginUserIfRequired(kf.SlotId); err != nil {
		return nil, err
	}
	return m.getAttribute(kf.SlotId, kf.Handle, pkcs11.CKA_VALUE)
}

// decodeCKULong decodes a CK_ULONG-shaped attribute value (native byte
// order, as returned by the miekg/pkcs11 binding) into an int.
func decodeCKULong(b []byte) int {
	var v uint64
	for i, byteVal := range b {
		v |= uint64(byteVal) << (8 * uint(i))
	}
	return int(v)
}
