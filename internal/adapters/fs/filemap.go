package fs

import (
	"os"
	"strings"
)

// fileMap maps lower-cased file names to their on-disk names.
type fileMap map[string]string

// readFileMap lists the regular files in dir.
func readFileMap(dir string) (fileMap, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	m := make(fileMap, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		m[strings.ToLower(e.Name())] = e.Name()
	}
	return m, nil
}

// lookup returns the on-disk name for name, if present.
func (m fileMap) lookup(name string) (string, bool) {
	actual, ok := m[strings.ToLower(name)]
	return actual, ok
}

// nameFor returns the existing on-disk name for name, or name itself.
func (m fileMap) nameFor(name string) string {
	if actual, ok := m.lookup(name); ok {
		return actual
	}
	return name
}
