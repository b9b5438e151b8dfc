package pkcs11session

import (
	"strings"
	"sync"

	"github.com/miekg/pkcs11"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// refCount tracks how many live Managers have loaded a given PKCS#11
// library path, so the underlying shared library is only initialized
// once and only finalized when the last Manager closes. It must not be
// read or modified without holding refCountMutex. Mirrors the pattern
// thales-e-security/crypto11's Configure/Close use for the same reason:
// a vendor PKCS#11 library is frequently a process-wide resource even
// though this package's own session cache is not.
var refCount = map[string]int{}
var refCountMutex sync.Mutex

// Manager owns one loaded PKCS#11 library, a cache of at most one open
// session per slot, and the PIN/warning callbacks used to authenticate.
// It is a plain value: construct with Open, and pass it by reference
// into keyfile operations rather than reaching for a package-level
// instance. A Manager's methods are not safe for concurrent use.
type Manager struct {
	libraryPath string
	ctx         *pkcs11.Ctx

	sessions map[SlotId]*session

	pin  PinCallback
	warn WarningCallback

	log *logrus.Entry

	closed bool
}

// Open loads the PKCS#11 shared library at libraryPath, resolves its
// function list, and calls C_Initialize. pin and warn may be nil; nil
// warn is equivalent to NoWarnings, nil pin means the manager will
// error rather than prompt when a PIN is actually needed.
func Open(libraryPath string, pin PinCallback, warn WarningCallback) (*Manager, error) {
	if warn == nil {
		warn = NoWarnings
	}

	ctx := pkcs11.New(libraryPath)
	if ctx == nil {
		return nil, errors.Errorf("pkcs11session: could not load library %q", libraryPath)
	}

	refCountMutex.Lock()
	defer refCountMutex.Unlock()

	existing := refCount[libraryPath]
	if existing == 0 {
		if err := ctx.Initialize(); err != nil {
			ctx.Destroy()
			return nil, newPkcs11Error("initialize", err)
		}
	}
	refCount[libraryPath] = existing + 1

	m := &Manager{
		libraryPath: libraryPath,
		ctx:         ctx,
		sessions:    make(map[SlotId]*session),
		pin:         pin,
		warn:        warn,
		log:         logrus.WithField("component", "pkcs11session"),
	}
	m.log.WithField("library", libraryPath).Debug("opened PKCS#11 library")
	return m, nil
}

// Close calls CloseAllSessions, then C_Finalize and unloads the library
// if this was the last Manager using it. A closed Manager must not be
// reused; re-initialize by calling Open again.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.CloseAllSessions()

	refCountMutex.Lock()
	defer refCountMutex.Unlock()

	count := refCount[m.libraryPath]
	if count <= 1 {
		delete(refCount, m.libraryPath)
		if err := m.ctx.Finalize(); err != nil {
			m.ctx.Destroy()
			return newPkcs11Error("finalize", err)
		}
	} else {
		refCount[m.libraryPath] = count - 1
	}
	m.ctx.Destroy()
	return nil
}

func (m *Manager) checkOpen() error {
	if m == nil || m.ctx == nil || m.closed {
		return ErrLibraryNotInitialized
	}
	return nil
}

// GetTokenSlots returns the slots reporting a present token.
func (m *Manager) GetTokenSlots() ([]SlotId, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := m.ctx.GetSlotList(true)
	if err != nil {
		return nil, newPkcs11Error("get slot list", err)
	}
	slots := make([]SlotId, 0, len(raw))
	for _, s := range raw {
		info, err := m.ctx.GetSlotInfo(s)
		if err != nil {
			return nil, newPkcs11Error("get slot info", err)
		}
		if info.Flags&pkcs11.CKF_TOKEN_PRESENT != 0 {
			slots = append(slots, SlotId(s))
		}
	}
	return slots, nil
}

// GetTokenInfo reads a fresh snapshot of a token's identity and flags.
func (m *Manager) GetTokenInfo(slot SlotId) (TokenInfo, error) {
	if err := m.checkOpen(); err != nil {
		return TokenInfo{}, err
	}
	raw, err := m.ctx.GetTokenInfo(uint(slot))
	if err != nil {
		return TokenInfo{}, newPkcs11Error("get token info", err)
	}
	return TokenInfo{
		SlotId:            slot,
		Label:             strings.TrimRight(raw.Label, " "),
		LoginRequired:     raw.Flags&pkcs11.CKF_LOGIN_REQUIRED != 0,
		ProtectedAuthPath: raw.Flags&pkcs11.CKF_PROTECTED_AUTHENTICATION_PATH != 0,
		WriteProtected:    raw.Flags&pkcs11.CKF_WRITE_PROTECTED != 0,
	}, nil
}

// Tokens enumerates TokenInfo across every present slot.
func (m *Manager) Tokens() ([]TokenInfo, error) {
	slots, err := m.GetTokenSlots()
	if err != nil {
		return nil, err
	}
	tokens := make([]TokenInfo, 0, len(slots))
	for _, slot := range slots {
		info, err := m.GetTokenInfo(slot)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, info)
	}
	return tokens, nil
}

// OpenSession opens and caches a session for slot, or returns
// immediately if one is already cached. A read-write session is
// requested unless the token reports write protection.
func (m *Manager) OpenSession(slot SlotId) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	if _, ok := m.sessions[slot]; ok {
		return nil
	}
	return m.openSession(slot)
}

func (m *Manager) openSession(slot SlotId) error {
	info, err := m.GetTokenInfo(slot)
	if err != nil {
		return err
	}
	flags := uint(pkcs11.CKF_SERIAL_SESSION)
	if !info.WriteProtected {
		flags |= pkcs11.CKF_RW_SESSION
	}
	handle, err := m.ctx.OpenSession(uint(slot), flags)
	if err != nil {
		return newPkcs11Error("open session", err)
	}
	m.sessions[slot] = &session{handle: handle}
	return nil
}

// CloseSession closes and evicts the cached session for slot. It is an
// error to call this when no session is cached.
func (m *Manager) CloseSession(slot SlotId) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	s, ok := m.sessions[slot]
	if !ok {
		return ErrParameterIncorrect
	}
	delete(m.sessions, slot)
	if err := m.ctx.CloseSession(s.handle); err != nil {
		return newPkcs11Error("close session", err)
	}
	return nil
}

// CloseAllSessions closes every cached session on a best-effort basis,
// logging but not propagating individual failures.
func (m *Manager) CloseAllSessions() {
	for slot, s := range m.sessions {
		if err := m.ctx.CloseSession(s.handle); err != nil {
			m.log.WithError(err).WithField("slot", slot).Warn("failed to close session")
		}
	}
	m.sessions = make(map[SlotId]*session)
}
