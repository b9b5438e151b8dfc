package keyfile

import "github.com/sectoken/tkeyfile/pkcs11session"

// These alias the shared error kinds from pkcs11session so callers
// working only with this package's stream-assembly and pool-mixing
// API don't need a second import to test for them with errors.Is.
var (
	ErrInvalidKeyfilePath  = pkcs11session.ErrInvalidKeyfilePath
	ErrKeyfileNotFound     = pkcs11session.ErrKeyfileNotFound
	ErrMultipleKeysMatched = pkcs11session.ErrMultipleKeysMatched
	ErrInsufficientData    = pkcs11session.ErrInsufficientData
	ErrParameterIncorrect  = pkcs11session.ErrParameterIncorrect
	ErrKeyfilePathEmpty    = pkcs11session.ErrKeyfilePathEmpty
)
