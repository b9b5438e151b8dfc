package pkcs11session

import (
	"fmt"

	"github.com/miekg/pkcs11"
)

// LoginUserIfRequired ensures the cached session for slot is
// authenticated as CKU_USER, opening a session first if none is
// cached. It re-validates a cached session's login state against the
// token (recovering from a stale handle by reopening), then loops
// through the PIN callback until login succeeds, the user aborts, or
// an unrecoverable error occurs.
func (m *Manager) LoginUserIfRequired(slot SlotId) error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	s, ok := m.sessions[slot]
	if !ok {
		if err := m.openSession(slot); err != nil {
			return err
		}
		s = m.sessions[slot]
	} else {
		info, err := m.ctx.GetSessionInfo(s.handle)
		if err != nil {
			// Stale handle: drop and reopen.
			delete(m.sessions, slot)
			if err := m.openSession(slot); err != nil {
				return err
			}
			s = m.sessions[slot]
		} else {
			s.userLoggedIn = info.State == pkcs11.CKS_RO_USER_FUNCTIONS ||
				info.State == pkcs11.CKS_RW_USER_FUNCTIONS
		}
	}

	for {
		token, err := m.GetTokenInfo(slot)
		if err != nil {
			return err
		}
		if s.userLoggedIn || !token.LoginRequired {
			return nil
		}

		var loginErr error
		if token.ProtectedAuthPath {
			loginErr = m.ctx.Login(s.handle, pkcs11.CKU_USER, "")
		} else {
			seed := token.Label
			if seed == "" {
				seed = fmt.Sprintf("#%d", slot)
			}
			if m.pin == nil {
				return ErrParameterIncorrect
			}
			pin, err := m.pin.GetPIN(seed)
			if err != nil {
				return err
			}
			pinBytes := []byte(pin)
			loginErr = m.ctx.Login(s.handle, pkcs11.CKU_USER, pin)
			zero(pinBytes)
			pin = ""
		}

		switch {
		case loginErr == nil:
			s.userLoggedIn = true
			return nil
		case isRV(loginErr, pkcs11.CKR_USER_ALREADY_LOGGED_IN):
			s.userLoggedIn = true
			return nil
		case isRV(loginErr, pkcs11.CKR_PIN_INCORRECT) && !token.ProtectedAuthPath:
			m.warn.Warn(newPkcs11Error("login", loginErr))
			continue
		default:
			return newPkcs11Error("login", loginErr)
		}
	}
}
