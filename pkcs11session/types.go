// Package pkcs11session loads a PKCS#11 vendor library, discovers token
// slots and manages the login state of one cached session per slot. It
// exposes typed operations over token data objects (keyfiles) and RSA
// private keys (decrypt/encrypt, create, destroy) on top of
// github.com/miekg/pkcs11.
//
// A Manager is a plain value owned by the caller; it is not a package
// singleton. Its methods are not safe to call concurrently from multiple
// goroutines against the same slot, mirroring the PKCS#11 session
// handle's own concurrency requirements.
package pkcs11session

import (
	"github.com/miekg/pkcs11"
)

// SlotId identifies a token slot reported by the PKCS#11 library.
type SlotId uint

// TokenInfo is an immutable snapshot of a token's identity and
// capability flags, re-read on every enumeration.
type TokenInfo struct {
	SlotId SlotId
	Label  string

	LoginRequired     bool
	ProtectedAuthPath bool
	WriteProtected    bool
}

// session caches a single open handle and its last-known login state
// for one slot.
type session struct {
	handle       pkcs11.SessionHandle
	userLoggedIn bool
}

// TokenKeyfile represents a CKO_DATA object with CKA_PRIVATE=true,
// holding an opaque blob contributed to the password pool.
type TokenKeyfile struct {
	SlotId SlotId
	Handle pkcs11.ObjectHandle
	Id     string
	Token  TokenInfo
}

// TokenKey represents a CKO_PRIVATE_KEY RSA object usable for
// CKM_RSA_PKCS decrypt/encrypt.
type TokenKey struct {
	SlotId SlotId
	Handle pkcs11.ObjectHandle
	Id     string
	Token  TokenInfo

	// MaxEncryptBufferSize is modulusBits/8.
	MaxEncryptBufferSize int
	// MaxDecryptBufferSize is modulusBits/8 - 11 (PKCS#1 v1.5 overhead).
	MaxDecryptBufferSize int
}

// objectClass selects which CKO_* class getObjects enumerates.
type objectClass uint

const (
	classData       objectClass = objectClass(pkcs11.CKO_DATA)
	classPrivateKey objectClass = objectClass(pkcs11.CKO_PRIVATE_KEY)
)

func modulusBitsToBufferSizes(modulusBits int) (maxEncrypt, maxDecrypt int) {
	maxEncrypt = modulusBits / 8
	maxDecrypt = maxEncrypt - 11
	return
}
