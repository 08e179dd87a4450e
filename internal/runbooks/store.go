// Package runbooks serves static runbook documents from a local directory.
package runbooks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrAccessDenied is returned when an identifier resolves outside the
// runbook root. Callers should show AccessDeniedMessage, never the path.
var ErrAccessDenied = errors.New("access denied")

// AccessDeniedMessage is the user-facing text for ErrAccessDenied.
const AccessDeniedMessage = "Error: Access denied."

// NotFoundError reports an identifier that matched no file.
type NotFoundError struct {
	Identifier string
	Available  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("I couldn't find a runbook named '%s'. Available files: %s",
		e.Identifier, strings.Join(e.Available, ", "))
}

// lookupExtensions are tried in order after an exact filename miss.
var lookupExtensions = []string{".md", ".txt", ".json", ".yaml", ".yml"}

// FileStore reads runbooks from a root directory. It is safe for
// concurrent use; every Get hits the filesystem.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving runbooks dir %s: %w", dir, err)
	}
	return &FileStore{root: abs}, nil
}

// Root returns the absolute runbook directory.
func (s *FileStore) Root() string {
	return s.root
}

// Get returns the text of the runbook named by identifier. Catalogue ids
// are mapped to their file names first; then the lookup tries the exact
// name, the name with each known extension, and finally a case-insensitive
// substring match in either direction against the directory listing.
func (s *FileStore) Get(identifier string) (string, error) {
	name := Resolve(identifier)

	if name != "" {
		candidates := []string{name}
		for _, ext := range lookupExtensions {
			candidates = append(candidates, name+ext)
		}
		for _, c := range candidates {
			path, err := s.confine(c)
			if err != nil {
				return "", err
			}
			if content, ok, err := readRegular(path); ok || err != nil {
				return content, err
			}
		}
	}

	files, err := s.List()
	if err != nil {
		return "", err
	}
	if name != "" {
		lower := strings.ToLower(name)
		for _, f := range files {
			fl := strings.ToLower(f)
			if strings.Contains(fl, lower) || strings.Contains(lower, fl) {
				content, _, err := readRegular(filepath.Join(s.root, f))
				return content, err
			}
		}
	}
	return "", &NotFoundError{Identifier: identifier, Available: files}
}

// List returns the regular files in the runbook root, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing runbooks: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// confine joins name onto the root and rejects anything that is not
// strictly below it, including through symlinks.
func (s *FileStore) confine(name string) (string, error) {
	path := filepath.Join(s.root, name)
	if !within(s.root, path) {
		return "", ErrAccessDenied
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		root, rerr := filepath.EvalSymlinks(s.root)
		if rerr != nil {
			root = s.root
		}
		if !within(root, real) {
			return "", ErrAccessDenied
		}
	}
	return path, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// readRegular reads path if it is a regular file. ok is false when the
// file does not exist or is not a regular file.
func readRegular(path string) (content string, ok bool, err error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", true, fmt.Errorf("reading runbook: %w", err)
	}
	return string(data), true, nil
}
