package keyfile

import (
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
	"github.com/sectoken/tkeyfile/pkcs11session"
)

// Pool size and processed-length bounds. hash/crc32 is the one
// deliberately stdlib-only primitive in this module: CRC32 here is a
// fixed diffusion constant named by the algorithm itself, not a
// pluggable concern any ecosystem library in the example pack
// supplies an alternative for.
const (
	// PoolMaxLegacySize is used when the password is short enough
	// that the legacy (PKCS5) pool size applies.
	PoolMaxLegacySize = 64
	// PoolMaxSize is the pool size for longer passwords.
	PoolMaxSize = 64
	// MaxProcessedLength hard-caps how many bytes of a single keyfile
	// are folded into the pool.
	MaxProcessedLength = 1024 * 1024
)

// crc32Accumulator reproduces the running, resettable CRC32 state the
// mixing rule depends on: the raw (pre-complement) IEEE CRC state,
// complemented on read so that crc32Accumulator.step after n bytes
// equals crc32.ChecksumIEEE of those n bytes.
type crc32Accumulator struct {
	raw uint32
}

func newCRC32Accumulator() *crc32Accumulator {
	return &crc32Accumulator{raw: 0xFFFFFFFF}
}

func (c *crc32Accumulator) reset() {
	c.raw = 0xFFFFFFFF
}

func (c *crc32Accumulator) step(b byte) uint32 {
	c.raw = crc32.IEEETable[byte(c.raw)^b] ^ (c.raw >> 8)
	return c.raw ^ 0xFFFFFFFF
}

// Pool is the fixed-size byte buffer that accumulates keyfile
// contributions before handing off to a caller's key-derivation
// function. Its contents are opaque to this package beyond the mixing
// rule itself.
type Pool struct {
	buf []byte
	pos int
}

// NewPool allocates a zero-filled pool of the given size.
func NewPool(size int) *Pool {
	return &Pool{buf: make([]byte, size)}
}

// Bytes returns the pool's current contents. The returned slice
// aliases the pool's internal buffer.
func (p *Pool) Bytes() []byte { return p.buf }

// CopyPrefix overwrites the pool's low prefix with b; used to seed the
// pool with the existing password before any keyfile is mixed in.
func (p *Pool) CopyPrefix(b []byte) {
	copy(p.buf, b)
}

// Mix drains r, folding each byte into the pool via the CRC32
// diffusion rule: the running CRC32 (reset at the start of this call)
// is computed after each byte and its four bytes, most-significant
// first, are added modulo 256 into four consecutive (wrapping) pool
// positions, advancing the write position by four bytes each time.
// Consumption stops at MaxProcessedLength bytes. It is an error for
// fewer than MinProcessedLength bytes to have been consumed once r is
// drained.
func (p *Pool) Mix(r io.Reader) error {
	acc := newCRC32Accumulator()

	size := len(p.buf)
	total := 0
	chunk := make([]byte, FileOptimalReadSize)

capped:
	for {
		n, err := r.Read(chunk)
		for i := 0; i < n; i++ {
			crc := acc.step(chunk[i])
			p.buf[p.pos] += byte(crc >> 24)
			p.buf[(p.pos+1)%size] += byte(crc >> 16)
			p.buf[(p.pos+2)%size] += byte(crc >> 8)
			p.buf[(p.pos+3)%size] += byte(crc)
			p.pos = (p.pos + 4) % size
			total++
			if total >= MaxProcessedLength {
				break capped
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WithStack(err)
		}
		if n == 0 {
			break
		}
	}

	if total < MinProcessedLength {
		return ErrInsufficientData
	}
	return nil
}

// ApplyListToPassword expands list (see ExpandList), seeds a new pool
// with password, mixes each expanded keyfile's stream into it in
// order, and returns the resulting password bytes. An empty expanded
// list returns a copy of password unchanged. tokenDescriptor, when
// non-empty, is used for every file keyfile that needs token-backed
// decryption during stream assembly (mode is always Mount here: list
// mixing never persists a side-effect ciphertext).
func ApplyListToPassword(mgr *pkcs11session.Manager, list []string, password []byte, tokenDescriptor string) ([]byte, error) {
	expanded, _, err := ExpandList(list)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		out := make([]byte, len(password))
		copy(out, password)
		return out, nil
	}

	size := PoolMaxLegacySize
	if len(password) > PoolMaxLegacySize {
		size = PoolMaxSize
	}
	pool := NewPool(size)
	pool.CopyPrefix(password)

	for _, kf := range expanded {
		if err := Apply(mgr, pool, kf, tokenDescriptor); err != nil {
			return nil, err
		}
	}

	return pool.Bytes(), nil
}

// Apply builds the stream for one expanded keyfile descriptor and
// mixes it into pool. descriptor must not be a directory (callers
// should have run it through ExpandList already); a directory here is
// a caller error.
func Apply(mgr *pkcs11session.Manager, pool *Pool, descriptor string, tokenDescriptor string) error {
	stream, err := PrepareStream(mgr, descriptor, tokenDescriptor, Mount, "")
	if err != nil {
		return err
	}
	defer stream.Close()
	return pool.Mix(stream)
}
