package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator cleans user-supplied paths for the session database, the
// search index and the log file.
type PathValidator struct {
	// AllowedBaseDirs restricts paths to these trees. Empty allows any.
	AllowedBaseDirs []string
	MaxPathLength   int
}

// AppDirs are the directories aihub writes to by default.
func AppDirs() []string {
	homeDir, _ := os.UserHomeDir()
	return []string{
		filepath.Join(homeDir, ".aihub"),
		filepath.Join(homeDir, ".config", "aihub"),
		os.TempDir(),
	}
}

// NewPathValidator confines paths to baseDirs.
func NewPathValidator(baseDirs ...string) *PathValidator {
	return &PathValidator{AllowedBaseDirs: baseDirs, MaxPathLength: 4096}
}

// Clean expands ~, makes path absolute and rejects traversal, control
// characters and paths outside the allowed trees.
func (v *PathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	for _, r := range path {
		if r == 0 {
			return "", fmt.Errorf("path contains null bytes")
		}
		if r < 32 && r != '\t' {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("invalid tilde usage")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	if err := v.within(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (v *PathValidator) within(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}

// File validates a file path and creates its parent directory.
func (v *PathValidator) File(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("creating parent directory: %w", err)
	}
	return clean, nil
}

// Dir validates a directory path. When create is set a missing directory is
// created.
func (v *PathValidator) Dir(path string, create bool) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(clean)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("path exists but is not a directory: %s", clean)
		}
	case os.IsNotExist(err):
		if create {
			if err := os.MkdirAll(clean, 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
		}
	default:
		return "", fmt.Errorf("checking directory: %w", err)
	}
	return clean, nil
}
