package keyfile

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s Stream, chunk int) [][]byte {
	t.Helper()
	var reads [][]byte
	buf := make([]byte, chunk)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			got := make([]byte, n)
			copy(got, buf[:n])
			reads = append(reads, got)
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	return reads
}

func TestMemoryStreamYieldsBufferOnce(t *testing.T) {
	s := NewMemoryStream([]byte{0x01, 0x02, 0x03})
	reads := readAll(t, s, 10)
	require.Equal(t, [][]byte{{0x01, 0x02, 0x03}}, reads)
}

func TestPipelineStreamEmpty(t *testing.T) {
	s := NewPipelineStream()
	reads := readAll(t, s, 10)
	require.Empty(t, reads)
}

func TestPipelineStreamZeroLengthStreams(t *testing.T) {
	s := NewPipelineStream(NewMemoryStream(nil), NewMemoryStream(nil))
	reads := readAll(t, s, 10)
	require.Empty(t, reads)
}

func TestPipelineStreamMultipleZeroLengthStreamsBetweenData(t *testing.T) {
	s := NewPipelineStream(
		NewMemoryStream([]byte{0x01, 0x02}),
		NewMemoryStream(nil),
		NewMemoryStream(nil),
		NewMemoryStream([]byte{0x03}),
	)
	reads := readAll(t, s, 10)
	require.Equal(t, [][]byte{{0x01, 0x02}, {0x03}}, reads)
}

func TestPipelineStreamLastZeroLengthStream(t *testing.T) {
	s := NewPipelineStream(
		NewMemoryStream([]byte{0x01, 0x02}),
		NewMemoryStream(nil),
	)
	reads := readAll(t, s, 10)
	require.Equal(t, [][]byte{{0x01, 0x02}}, reads)
}

// S6: sub-streams [0x01,0x02], [], [0x03] read in chunks of 10 yield
// {0x01,0x02} then {0x03} then end-of-stream.
func TestPipelineStreamConcatenationScenarioS6(t *testing.T) {
	s := NewPipelineStream(
		NewMemoryStream([]byte{0x01, 0x02}),
		NewMemoryStream(nil),
		NewMemoryStream([]byte{0x03}),
	)
	buf := make([]byte, 10)

	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, buf[:n])

	n, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x03}, buf[:n])

	n, err = s.Read(buf)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 0, n)
}

func TestPipelineStreamReadWholeSubstreamAtOnce(t *testing.T) {
	s := NewPipelineStream(NewMemoryStream([]byte{1, 2, 3, 4, 5}))
	reads := readAll(t, s, 100)
	require.Equal(t, [][]byte{{1, 2, 3, 4, 5}}, reads)
}

func TestPipelineStreamReadSubstreamByParts(t *testing.T) {
	s := NewPipelineStream(NewMemoryStream([]byte{1, 2, 3, 4, 5}))
	reads := readAll(t, s, 2)
	require.Equal(t, [][]byte{{1, 2}, {3, 4}, {5}}, reads)
}
