package utils

import (
	"bufio"
	"strings"

	"github.com/spf13/afero"
)

// Exclusions holds the library sections left out of the digest.
// Entries match either a section id or a section title (case-insensitive).
type Exclusions struct {
	entries map[string]struct{}
}

// NewExclusions builds an exclusion set from ids and titles
func NewExclusions(entries ...string) *Exclusions {
	e := &Exclusions{entries: make(map[string]struct{})}
	for _, entry := range entries {
		e.Add(entry)
	}
	return e
}

// LoadExclusions reads one library id or title per line from a file.
// A missing file yields the given base entries only.
func LoadExclusions(fs afero.Fs, path string, base ...string) (*Exclusions, error) {
	e := NewExclusions(base...)

	if exists, err := afero.Exists(fs, path); err != nil {
		return nil, err
	} else if !exists {
		return e, nil
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			e.Add(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return e, nil
}

// Add registers an id or title
func (e *Exclusions) Add(entry string) {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if entry != "" {
		e.entries[entry] = struct{}{}
	}
}

// Len returns the number of entries
func (e *Exclusions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.entries)
}

// IsExcluded reports whether a library, identified by id or title, is excluded
func (e *Exclusions) IsExcluded(sectionID, sectionTitle string) bool {
	if e == nil || len(e.entries) == 0 {
		return false
	}
	for _, key := range []string{sectionID, sectionTitle} {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, ok := e.entries[key]; ok {
			return true
		}
	}
	return false
}
