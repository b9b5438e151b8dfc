package pkcs11session

import (
	"testing"

	"github.com/miekg/pkcs11"
	"github.com/stretchr/testify/require"
)

func TestCkrNameKnownCode(t *testing.T) {
	require.Equal(t, "CKR_PIN_INCORRECT", ckrName(pkcs11.CKR_PIN_INCORRECT))
	require.Equal(t, "CKR_USER_ALREADY_LOGGED_IN", ckrName(pkcs11.CKR_USER_ALREADY_LOGGED_IN))
}

func TestCkrNameUnknownCodeFallsBackToHex(t *testing.T) {
	require.Equal(t, "0xDEADBEEF", ckrName(pkcs11.Error(0xDEADBEEF)))
}

func TestPkcs11ErrorMessage(t *testing.T) {
	err := &Pkcs11Error{Code: pkcs11.CKR_PIN_INCORRECT, Subject: "login"}
	require.Equal(t, "login: CKR_PIN_INCORRECT", err.Error())

	bare := &Pkcs11Error{Code: pkcs11.CKR_PIN_INCORRECT}
	require.Equal(t, "CKR_PIN_INCORRECT", bare.Error())
}

func TestZeroOverwritesBuffer(t *testing.T) {
	b := []byte("secret-pin")
	zero(b)
	for _, c := range b {
		require.Equal(t, byte(0), c)
	}
}
