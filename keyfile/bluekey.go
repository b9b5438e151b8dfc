package keyfile

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sectoken/tkeyfile/pkcs11session"
)

// CreateBluekey resolves tokenDescriptor, requires plaintext to be at
// least key.MaxDecryptBufferSize bytes, RSA-encrypts the leading
// segment and writes ciphertext‖tail to outputPath.
func CreateBluekey(mgr *pkcs11session.Manager, outputPath string, tokenDescriptor string, plaintext []byte) error {
	key, err := resolveTokenKey(mgr, tokenDescriptor)
	if err != nil {
		return err
	}

	inputBufferSize := key.MaxDecryptBufferSize
	if len(plaintext) < inputBufferSize {
		return ErrInsufficientData
	}
	head, tail := plaintext[:inputBufferSize], plaintext[inputBufferSize:]

	ciphertext, err := mgr.GetEncryptedData(key, head)
	if err != nil {
		return err
	}

	out := make([]byte, 0, len(ciphertext)+len(tail))
	out = append(out, ciphertext...)
	out = append(out, tail...)
	return errors.WithStack(os.WriteFile(outputPath, out, 0600))
}

// RevealRedkey runs the Mount-mode stream assembly over keyfilePath
// with tokenDescriptor and copies its bytes verbatim to outputPath.
// If keyfilePath was produced by CreateBluekey against the same key,
// the output equals the original plaintext.
func RevealRedkey(mgr *pkcs11session.Manager, outputPath string, keyfilePath string, tokenDescriptor string) error {
	stream, err := PrepareStream(mgr, keyfilePath, tokenDescriptor, Mount, "")
	if err != nil {
		return err
	}
	defer stream.Close()

	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return errors.WithStack(err)
	}
	defer out.Close()

	if _, err := io.Copy(out, stream); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
