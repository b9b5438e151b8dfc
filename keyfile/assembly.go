package keyfile

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sectoken/tkeyfile/pkcs11session"
)

// MinProcessedLength is the minimum number of bytes a pool-mixing pass
// must consume from one keyfile's stream, else InsufficientData.
const MinProcessedLength = 320

// resolveTokenKey resolves a "{slot}:{id}" descriptor to exactly one
// TokenKey.
func resolveTokenKey(mgr *pkcs11session.Manager, tokenDescriptor string) (pkcs11session.TokenKey, error) {
	slot, id, err := ParseTokenKeyDescriptor(tokenDescriptor)
	if err != nil {
		return pkcs11session.TokenKey{}, err
	}
	keys, err := mgr.GetAvailableKeys(&slot, id)
	if err != nil {
		return pkcs11session.TokenKey{}, err
	}
	switch len(keys) {
	case 0:
		return pkcs11session.TokenKey{}, ErrKeyfileNotFound
	case 1:
		return keys[0], nil
	default:
		return pkcs11session.TokenKey{}, ErrMultipleKeysMatched
	}
}

// PrepareStream builds the lazy byte stream for one keyfile descriptor
// per §4.3: a token:// URL resolves directly to token-held data; a
// plain filesystem path with no token descriptor streams the file
// as-is; a file keyfile paired with a token descriptor interprets
// (Mount) or produces (Create) an encrypted leading segment of
// inputBufferSize bytes via the resolved RSA key. sideFilePath is only
// consulted in Create mode: when non-empty, the reassembled
// ciphertext-plus-tail is written there (typically back over
// descriptor itself to "bluekey" the file in place).
func PrepareStream(mgr *pkcs11session.Manager, descriptor string, tokenDescriptor string, mode Mode, sideFilePath string) (Stream, error) {
	if IsTokenURL(descriptor) {
		return prepareTokenURLStream(mgr, descriptor)
	}
	if tokenDescriptor == "" {
		fs, err := OpenFileStream(descriptor)
		if err != nil {
			return nil, err
		}
		return NewPipelineStream(fs), nil
	}

	key, err := resolveTokenKey(mgr, tokenDescriptor)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(descriptor)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	switch mode {
	case Mount:
		return prepareMountStream(mgr, key, f)
	case Create:
		return prepareCreateStream(mgr, key, f, sideFilePath)
	default:
		f.Close()
		return nil, ErrParameterIncorrect
	}
}

func prepareTokenURLStream(mgr *pkcs11session.Manager, descriptor string) (Stream, error) {
	slot, id, err := ParseTokenURL(descriptor)
	if err != nil {
		return nil, err
	}
	matches, err := mgr.GetAvailableKeyfiles(&slot, id)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, ErrKeyfileNotFound
	case 1:
		// exactly one, fall through
	default:
		return nil, ErrMultipleKeysMatched
	}

	data, err := mgr.GetKeyfileData(matches[0])
	if err != nil {
		return nil, err
	}
	if len(data) < MinProcessedLength {
		return nil, ErrInsufficientData
	}
	return NewMemoryStream(data), nil
}

// stageHead reads from f until staged holds exactly n bytes, returning
// the staged head and whatever extra bytes were already read past it
// in the chunk that crossed the boundary (the "remainder"). Returns
// ErrInsufficientData if f is exhausted before n bytes are staged.
func stageHead(f *os.File, n int) (head []byte, remainder []byte, err error) {
	head = make([]byte, 0, n)
	buf := make([]byte, FileOptimalReadSize)
	for len(head) < n {
		read, rerr := f.Read(buf)
		if read > 0 {
			need := n - len(head)
			if read <= need {
				head = append(head, buf[:read]...)
			} else {
				head = append(head, buf[:need]...)
				remainder = append(remainder, buf[need:read]...)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, nil, errors.WithStack(rerr)
		}
	}
	if len(head) < n {
		return nil, nil, ErrInsufficientData
	}
	return head, remainder, nil
}

func prepareMountStream(mgr *pkcs11session.Manager, key pkcs11session.TokenKey, f *os.File) (Stream, error) {
	inputBufferSize := key.MaxEncryptBufferSize

	staging, remainder, err := stageHead(f, inputBufferSize)
	if err != nil {
		f.Close()
		return nil, err
	}

	plaintext, err := mgr.GetDecryptedData(key, staging)
	if err != nil {
		f.Close()
		return nil, err
	}

	return NewPipelineStream(
		NewMemoryStream(plaintext),
		NewMemoryStream(remainder),
		NewFileStream(f),
	), nil
}

func prepareCreateStream(mgr *pkcs11session.Manager, key pkcs11session.TokenKey, f *os.File, sideFilePath string) (Stream, error) {
	inputBufferSize := key.MaxDecryptBufferSize

	head, remainder, err := stageHead(f, inputBufferSize)
	if err != nil {
		f.Close()
		return nil, err
	}

	ciphertext, err := mgr.GetEncryptedData(key, head)
	if err != nil {
		f.Close()
		return nil, err
	}

	if sideFilePath != "" {
		tail, err := io.ReadAll(f)
		if err != nil {
			f.Close()
			return nil, errors.WithStack(err)
		}
		out := append(append([]byte{}, ciphertext...), remainder...)
		out = append(out, tail...)
		if err := os.WriteFile(sideFilePath, out, 0600); err != nil {
			f.Close()
			return nil, errors.WithStack(err)
		}
		// The side file now holds the encrypted head followed by the
		// plaintext remainder and tail. f was consumed fully by
		// ReadAll above, so the returned plaintext stream is rebuilt
		// purely from memory.
		f.Close()
		return NewPipelineStream(
			NewMemoryStream(head),
			NewMemoryStream(remainder),
			NewMemoryStream(tail),
		), nil
	}

	return NewPipelineStream(
		NewMemoryStream(head),
		NewMemoryStream(remainder),
		NewFileStream(f),
	), nil
}
