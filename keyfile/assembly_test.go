package keyfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrepareStreamPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "k.key")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0600))

	s, err := PrepareStream(nil, path, "", Mount, "")
	require.NoError(t, err)
	defer s.Close()

	got := readAll(t, s, 1024)
	require.Equal(t, [][]byte{[]byte("hello world")}, got)
}

func TestPrepareStreamPlainFileMissing(t *testing.T) {
	_, err := PrepareStream(nil, "/no/such/file", "", Mount, "")
	require.Error(t, err)
}

func TestStageHeadInsufficientData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.key")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, _, err = stageHead(f, 100)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestStageHeadExactAndRemainder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exact.key")
	require.NoError(t, os.WriteFile(path, []byte("0123456789tail"), 0600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	head, remainder, err := stageHead(f, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789"), head)
	require.Equal(t, []byte("tail"), remainder)
}
