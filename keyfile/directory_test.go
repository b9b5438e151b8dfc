package keyfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

// Property 8: a directory keyfile is equivalent to its ordered list of
// non-hidden immediate files.
func TestExpandListDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.key", "b")
	writeFile(t, dir, "a.key", "a")
	writeFile(t, dir, ".hidden", "h")

	expanded, hadHiddenSkip, err := ExpandList([]string{dir})
	require.NoError(t, err)
	require.True(t, hadHiddenSkip)
	require.Equal(t, []string{
		filepath.Join(dir, "a.key"),
		filepath.Join(dir, "b.key"),
	}, expanded)
}

// Property 8: an empty directory raises KeyfilePathEmpty.
func TestExpandListEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	_, _, err := ExpandList([]string{dir})
	require.ErrorIs(t, err, ErrKeyfilePathEmpty)
}

func TestExpandListPassesThroughFilesAndTokenURLs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyfile.bin")
	writeFile(t, dir, "keyfile.bin", "data")

	expanded, hadHiddenSkip, err := ExpandList([]string{path, "token://slot/1/file/x"})
	require.NoError(t, err)
	require.False(t, hadHiddenSkip)
	require.Equal(t, []string{path, "token://slot/1/file/x"}, expanded)
}
