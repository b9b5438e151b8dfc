package keyfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sectoken/tkeyfile/pkcs11session"
)

const tokenURLPrefix = "token://slot/"
const tokenURLFileSep = "/file/"

// IsTokenURL reports whether descriptor has the token:// form.
func IsTokenURL(descriptor string) bool {
	return strings.HasPrefix(descriptor, tokenURLPrefix)
}

// FormatTokenURL renders the token:// URL for a keyfile.
func FormatTokenURL(slot pkcs11session.SlotId, id string) string {
	return fmt.Sprintf("%s%d%s%s", tokenURLPrefix, slot, tokenURLFileSep, id)
}

// ParseTokenURL parses "token://slot/{decimal}/file/{id}". The id may
// contain spaces and further slashes; only the first "/file/" after
// the slot number delimits it.
func ParseTokenURL(descriptor string) (pkcs11session.SlotId, string, error) {
	if !strings.HasPrefix(descriptor, tokenURLPrefix) {
		return 0, "", pkcs11session.ErrInvalidKeyfilePath
	}
	rest := descriptor[len(tokenURLPrefix):]
	sep := strings.Index(rest, tokenURLFileSep)
	if sep < 0 {
		return 0, "", pkcs11session.ErrInvalidKeyfilePath
	}
	slotStr, id := rest[:sep], rest[sep+len(tokenURLFileSep):]
	slot, err := strconv.ParseUint(slotStr, 10, 64)
	if err != nil {
		return 0, "", pkcs11session.ErrInvalidKeyfilePath
	}
	if id == "" {
		return 0, "", pkcs11session.ErrInvalidKeyfilePath
	}
	return pkcs11session.SlotId(slot), id, nil
}

// FormatTokenKeyDescriptor renders the "{slot}:{id}" key descriptor.
func FormatTokenKeyDescriptor(slot pkcs11session.SlotId, id string) string {
	return fmt.Sprintf("%d:%s", slot, id)
}

// ParseTokenKeyDescriptor parses "{slot}:{id}"; the first colon
// separates slot from id, and the remainder (including further
// colons) is the id.
func ParseTokenKeyDescriptor(descriptor string) (pkcs11session.SlotId, string, error) {
	idx := strings.Index(descriptor, ":")
	if idx < 0 {
		return 0, "", pkcs11session.ErrInvalidKeyfilePath
	}
	slotStr, id := descriptor[:idx], descriptor[idx+1:]
	slot, err := strconv.ParseUint(slotStr, 10, 64)
	if err != nil {
		return 0, "", pkcs11session.ErrInvalidKeyfilePath
	}
	if id == "" {
		return 0, "", pkcs11session.ErrInvalidKeyfilePath
	}
	return pkcs11session.SlotId(slot), id, nil
}
