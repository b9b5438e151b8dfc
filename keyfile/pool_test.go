package keyfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// S1: pool size 64, zeroed, password "x" (1 byte): after the copy step
// and before any keyfile, pool[0] = 0x78, pool[1..63] = 0.
func TestPoolSeedScenarioS1(t *testing.T) {
	pool := NewPool(64)
	pool.CopyPrefix([]byte("x"))

	require.Equal(t, byte(0x78), pool.Bytes()[0])
	for i := 1; i < 64; i++ {
		require.Equal(t, byte(0), pool.Bytes()[i], "pool[%d]", i)
	}
}

// S2: pool size 64 zeroed, password empty, keyfile of one byte 0x00:
// pool[0..3] = D2,02,EF,8D, rest zero; mixing then fails with
// InsufficientData since total < MinProcessedLength.
func TestPoolSingleByteKeyfileScenarioS2(t *testing.T) {
	pool := NewPool(64)
	err := pool.Mix(bytes.NewReader([]byte{0x00}))
	require.ErrorIs(t, err, ErrInsufficientData)

	want := []byte{0xD2, 0x02, 0xEF, 0x8D}
	require.Equal(t, want, pool.Bytes()[:4])
	for i := 4; i < 64; i++ {
		require.Equal(t, byte(0), pool.Bytes()[i], "pool[%d]", i)
	}
}

// S3: pool size 8, a keyfile of 3 zero bytes wraps the pool position
// back to the start and accumulates via modulo-256 addition.
func TestPoolWrapScenarioS3(t *testing.T) {
	pool := NewPool(8)
	err := pool.Mix(bytes.NewReader([]byte{0x00, 0x00, 0x00}))
	require.ErrorIs(t, err, ErrInsufficientData)

	want := []byte{0xD1, 0x43, 0xC8, 0x9F, 0x41, 0xD9, 0x12, 0xFF}
	require.Equal(t, want, pool.Bytes())
}

// Property 5: a keyfile of MinProcessedLength-1 bytes fails, one of
// exactly MinProcessedLength bytes succeeds.
func TestInsufficientDataBoundary(t *testing.T) {
	short := bytes.Repeat([]byte{0xAA}, MinProcessedLength-1)
	pool := NewPool(64)
	require.ErrorIs(t, pool.Mix(bytes.NewReader(short)), ErrInsufficientData)

	exact := bytes.Repeat([]byte{0xAA}, MinProcessedLength)
	pool2 := NewPool(64)
	require.NoError(t, pool2.Mix(bytes.NewReader(exact)))
}

// Property 6: a keyfile at or beyond MaxProcessedLength is consumed up
// to exactly MaxProcessedLength bytes.
func TestCapScenario(t *testing.T) {
	atCap := bytes.Repeat([]byte{0x5A}, MaxProcessedLength)
	overCap := bytes.Repeat([]byte{0x5A}, MaxProcessedLength+37)

	poolAtCap := NewPool(64)
	require.NoError(t, poolAtCap.Mix(bytes.NewReader(atCap)))

	poolOverCap := NewPool(64)
	require.NoError(t, poolOverCap.Mix(bytes.NewReader(overCap)))

	require.Equal(t, poolAtCap.Bytes(), poolOverCap.Bytes())
}

// Property 1: determinism across repeated runs with identical input.
func TestMixDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte{0x01, 0x02, 0x03}, 200)

	p1 := NewPool(64)
	require.NoError(t, p1.Mix(bytes.NewReader(data)))

	p2 := NewPool(64)
	require.NoError(t, p2.Mix(bytes.NewReader(data)))

	require.Equal(t, p1.Bytes(), p2.Bytes())
}

// Property 2: order sensitivity across two keyfiles mixed in sequence.
func TestApplyListOrderSensitive(t *testing.T) {
	a := bytes.Repeat([]byte{0x11}, 400)
	b := bytes.Repeat([]byte{0x22}, 400)

	forward := NewPool(64)
	require.NoError(t, forward.Mix(bytes.NewReader(a)))
	require.NoError(t, forward.Mix(bytes.NewReader(b)))

	backward := NewPool(64)
	require.NoError(t, backward.Mix(bytes.NewReader(b)))
	require.NoError(t, backward.Mix(bytes.NewReader(a)))

	require.NotEqual(t, forward.Bytes(), backward.Bytes())
}
