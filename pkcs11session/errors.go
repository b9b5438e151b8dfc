package pkcs11session

import (
	"fmt"

	"github.com/miekg/pkcs11"
	"github.com/pkg/errors"
)

// Sentinel errors for the error kinds named by this subsystem. Use
// errors.Is to test for them; they may arrive wrapped by
// github.com/pkg/errors.
var (
	ErrLibraryNotInitialized = errors.New("pkcs11session: library not initialized")
	ErrInvalidKeyfilePath    = errors.New("pkcs11session: invalid keyfile path")
	ErrKeyfileNotFound       = errors.New("pkcs11session: keyfile not found")
	ErrMultipleKeysMatched   = errors.New("pkcs11session: multiple keys matched")
	ErrTokenNotRecognized    = errors.New("pkcs11session: token not recognized")
	ErrInsufficientData      = errors.New("pkcs11session: insufficient data")
	ErrParameterIncorrect    = errors.New("pkcs11session: parameter incorrect")
	ErrKeyfilePathEmpty      = errors.New("pkcs11session: keyfile path empty")
	ErrUserAbort             = errors.New("pkcs11session: user abort")
)

// Pkcs11Error wraps a PKCS#11 return code that was not remapped to one
// of the sentinel errors above. Subject, if set, is the higher-level
// operation that triggered it (e.g. "login", "decrypt").
type Pkcs11Error struct {
	Code    pkcs11.Error
	Subject string
}

func (e *Pkcs11Error) Error() string {
	name := ckrName(e.Code)
	if e.Subject == "" {
		return name
	}
	return fmt.Sprintf("%s: %s", e.Subject, name)
}

// newPkcs11Error builds a Pkcs11Error from a raw pkcs11 package error.
func newPkcs11Error(subject string, err error) error {
	if err == nil {
		return nil
	}
	if rv, ok := err.(pkcs11.Error); ok {
		return &Pkcs11Error{Code: rv, Subject: subject}
	}
	return errors.WithMessage(err, subject)
}

// isRV reports whether err is a pkcs11.Error carrying the given code.
func isRV(err error, rv pkcs11.Error) bool {
	e, ok := err.(pkcs11.Error)
	return ok && e == rv
}

// ckrName renders a PKCS#11 return code as its symbolic constant name,
// falling back to a hex literal for codes this table does not carry.
// The set below covers the subset of the standard error space this
// subsystem's call surface can plausibly return.
func ckrName(code pkcs11.Error) string {
	if name, ok := ckrNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint(code))
}

var ckrNames = map[pkcs11.Error]string{
	pkcs11.CKR_OK:                          "CKR_OK",
	pkcs11.CKR_CANCEL:                      "CKR_CANCEL",
	pkcs11.CKR_HOST_MEMORY:                 "CKR_HOST_MEMORY",
	pkcs11.CKR_SLOT_ID_INVALID:             "CKR_SLOT_ID_INVALID",
	pkcs11.CKR_GENERAL_ERROR:               "CKR_GENERAL_ERROR",
	pkcs11.CKR_FUNCTION_FAILED:             "CKR_FUNCTION_FAILED",
	pkcs11.CKR_ARGUMENTS_BAD:               "CKR_ARGUMENTS_BAD",
	pkcs11.CKR_ATTRIBUTE_READ_ONLY:         "CKR_ATTRIBUTE_READ_ONLY",
	pkcs11.CKR_ATTRIBUTE_SENSITIVE:         "CKR_ATTRIBUTE_SENSITIVE",
	pkcs11.CKR_ATTRIBUTE_TYPE_INVALID:      "CKR_ATTRIBUTE_TYPE_INVALID",
	pkcs11.CKR_ATTRIBUTE_VALUE_INVALID:     "CKR_ATTRIBUTE_VALUE_INVALID",
	pkcs11.CKR_DATA_INVALID:                "CKR_DATA_INVALID",
	pkcs11.CKR_DATA_LEN_RANGE:              "CKR_DATA_LEN_RANGE",
	pkcs11.CKR_DEVICE_ERROR:                "CKR_DEVICE_ERROR",
	pkcs11.CKR_DEVICE_MEMORY:               "CKR_DEVICE_MEMORY",
	pkcs11.CKR_DEVICE_REMOVED:              "CKR_DEVICE_REMOVED",
	pkcs11.CKR_ENCRYPTED_DATA_INVALID:      "CKR_ENCRYPTED_DATA_INVALID",
	pkcs11.CKR_ENCRYPTED_DATA_LEN_RANGE:    "CKR_ENCRYPTED_DATA_LEN_RANGE",
	pkcs11.CKR_FUNCTION_CANCELED:           "CKR_FUNCTION_CANCELED",
	pkcs11.CKR_KEY_HANDLE_INVALID:          "CKR_KEY_HANDLE_INVALID",
	pkcs11.CKR_KEY_SIZE_RANGE:              "CKR_KEY_SIZE_RANGE",
	pkcs11.CKR_KEY_TYPE_INCONSISTENT:       "CKR_KEY_TYPE_INCONSISTENT",
	pkcs11.CKR_MECHANISM_INVALID:           "CKR_MECHANISM_INVALID",
	pkcs11.CKR_MECHANISM_PARAM_INVALID:     "CKR_MECHANISM_PARAM_INVALID",
	pkcs11.CKR_OBJECT_HANDLE_INVALID:       "CKR_OBJECT_HANDLE_INVALID",
	pkcs11.CKR_OPERATION_ACTIVE:            "CKR_OPERATION_ACTIVE",
	pkcs11.CKR_OPERATION_NOT_INITIALIZED:   "CKR_OPERATION_NOT_INITIALIZED",
	pkcs11.CKR_PIN_INCORRECT:               "CKR_PIN_INCORRECT",
	pkcs11.CKR_PIN_INVALID:                 "CKR_PIN_INVALID",
	pkcs11.CKR_PIN_LEN_RANGE:               "CKR_PIN_LEN_RANGE",
	pkcs11.CKR_PIN_EXPIRED:                 "CKR_PIN_EXPIRED",
	pkcs11.CKR_PIN_LOCKED:                  "CKR_PIN_LOCKED",
	pkcs11.CKR_SESSION_CLOSED:              "CKR_SESSION_CLOSED",
	pkcs11.CKR_SESSION_COUNT:               "CKR_SESSION_COUNT",
	pkcs11.CKR_SESSION_HANDLE_INVALID:      "CKR_SESSION_HANDLE_INVALID",
	pkcs11.CKR_SESSION_READ_ONLY:           "CKR_SESSION_READ_ONLY",
	pkcs11.CKR_SESSION_EXISTS:              "CKR_SESSION_EXISTS",
	pkcs11.CKR_SESSION_READ_ONLY_EXISTS:    "CKR_SESSION_READ_ONLY_EXISTS",
	pkcs11.CKR_SESSION_READ_WRITE_SO_EXISTS: "CKR_SESSION_READ_WRITE_SO_EXISTS",
	pkcs11.CKR_SIGNATURE_INVALID:           "CKR_SIGNATURE_INVALID",
	pkcs11.CKR_SIGNATURE_LEN_RANGE:         "CKR_SIGNATURE_LEN_RANGE",
	pkcs11.CKR_TEMPLATE_INCOMPLETE:         "CKR_TEMPLATE_INCOMPLETE",
	pkcs11.CKR_TEMPLATE_INCONSISTENT:       "CKR_TEMPLATE_INCONSISTENT",
	pkcs11.CKR_TOKEN_NOT_PRESENT:           "CKR_TOKEN_NOT_PRESENT",
	pkcs11.CKR_TOKEN_NOT_RECOGNIZED:        "CKR_TOKEN_NOT_RECOGNIZED",
	pkcs11.CKR_TOKEN_WRITE_PROTECTED:       "CKR_TOKEN_WRITE_PROTECTED",
	pkcs11.CKR_USER_ALREADY_LOGGED_IN:      "CKR_USER_ALREADY_LOGGED_IN",
	pkcs11.CKR_USER_NOT_LOGGED_IN:          "CKR_USER_NOT_LOGGED_IN",
	pkcs11.CKR_USER_PIN_NOT_INITIALIZED:    "CKR_USER_PIN_NOT_INITIALIZED",
	pkcs11.CKR_USER_TYPE_INVALID:           "CKR_USER_TYPE_INVALID",
	pkcs11.CKR_USER_ANOTHER_ALREADY_LOGGED_IN: "CKR_USER_ANOTHER_ALREADY_LOGGED_IN",
	pkcs11.CKR_USER_TOO_MANY_TYPES:         "CKR_USER_TOO_MANY_TYPES",
	pkcs11.CKR_BUFFER_TOO_SMALL:            "CKR_BUFFER_TOO_SMALL",
	pkcs11.CKR_CRYPTOKI_NOT_INITIALIZED:    "CKR_CRYPTOKI_NOT_INITIALIZED",
	pkcs11.CKR_CRYPTOKI_ALREADY_INITIALIZED: "CKR_CRYPTOKI_ALREADY_INITIALIZED",
}

// zero overwrites b in place. Used on the byte copy of a PIN once the
// login attempt that needed it is done.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
