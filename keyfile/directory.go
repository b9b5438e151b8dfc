package keyfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sectoken/tkeyfile/pkcs11session"
)

// ExpandList replaces every directory descriptor in paths with its
// ordered immediate files, skipping dotfile names on POSIX targets.
// Plain file paths and token:// URLs pass through unchanged. An
// expanded directory that contributes zero files is an error. The
// second return value reports whether any hidden entry was skipped.
func ExpandList(paths []string) ([]string, bool, error) {
	var expanded []string
	var hadHiddenSkip bool

	for _, p := range paths {
		if IsTokenURL(p) {
			expanded = append(expanded, p)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, false, err
		}
		if !info.IsDir() {
			expanded = append(expanded, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, false, err
		}

		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if runtime.GOOS != "windows" && strings.HasPrefix(e.Name(), ".") {
				hadHiddenSkip = true
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
		sort.Strings(files)

		if len(files) == 0 {
			return nil, false, pkcs11session.ErrKeyfilePathEmpty
		}
		expanded = append(expanded, files...)
	}

	return expanded, hadHiddenSkip, nil
}
