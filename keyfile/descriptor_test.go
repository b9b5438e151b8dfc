package keyfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S4: token URL parsing.
func TestParseTokenURLScenarioS4(t *testing.T) {
	slot, id, err := ParseTokenURL("token://slot/3/file/KEY MAN key")
	require.NoError(t, err)
	require.EqualValues(t, 3, slot)
	require.Equal(t, "KEY MAN key", id)

	_, _, err = ParseTokenURL("token://slot/abc/file/x")
	require.ErrorIs(t, err, ErrInvalidKeyfilePath)
}

func TestParseTokenURLRoundTrip(t *testing.T) {
	url := FormatTokenURL(7, "my label")
	slot, id, err := ParseTokenURL(url)
	require.NoError(t, err)
	require.EqualValues(t, 7, slot)
	require.Equal(t, "my label", id)
}

// S5: descriptor parsing.
func TestParseTokenKeyDescriptorScenarioS5(t *testing.T) {
	slot, id, err := ParseTokenKeyDescriptor("5:Alice:Primary")
	require.NoError(t, err)
	require.EqualValues(t, 5, slot)
	require.Equal(t, "Alice:Primary", id)

	_, _, err = ParseTokenKeyDescriptor("no-colon")
	require.ErrorIs(t, err, ErrInvalidKeyfilePath)
}

func TestIsTokenURL(t *testing.T) {
	require.True(t, IsTokenURL("token://slot/1/file/x"))
	require.False(t, IsTokenURL("/home/user/keyfile.bin"))
}
