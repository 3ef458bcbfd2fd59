// Package security confines every workbook path to the configured
// files directory. Tool inputs name workbooks by relative filename;
// this package turns those names into canonical absolute paths and
// rejects anything that would escape the root.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager resolves workbook filenames against a single canonical root
// directory and validates extensions before any file is touched.
type Manager struct {
	base string
	exts map[string]struct{}
}

// ErrNotAllowed indicates the requested path escapes the files directory.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrUnsupportedExtension indicates the requested file extension is not supported.
var ErrUnsupportedExtension = errors.New("security: unsupported file extension")

// ErrNotFound indicates the requested file does not exist or is not accessible.
var ErrNotFound = errors.New("security: file not found")

// NewManager canonicalizes the files directory (absolute + EvalSymlinks)
// and creates it when missing, so a fresh install starts working without
// manual setup. Only .xlsx and .xlsm workbooks are ever resolved.
func NewManager(filesDir string) (*Manager, error) {
	d := strings.TrimSpace(filesDir)
	if d == "" {
		return nil, errors.New("security: files directory required")
	}
	abs, err := filepath.Abs(d)
	if err != nil {
		return nil, fmt.Errorf("security: resolve abs for %q: %w", d, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("security: create files dir %q: %w", abs, err)
	}
	// EvalSymlinks so that a symlinked root cannot be used to escape later.
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("security: eval symlinks for %q: %w", abs, err)
	}
	return &Manager{
		base: filepath.Clean(real),
		exts: map[string]struct{}{".xlsx": {}, ".xlsm": {}},
	}, nil
}

// BaseDir returns the canonical files directory.
func (m *Manager) BaseDir() string { return m.base }

// Resolve maps a workbook filename onto its absolute path under the
// files directory. The file need not exist: this is the entry point for
// create and write targets. Absolute inputs and traversal out of the
// root are rejected.
func (m *Manager) Resolve(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", ErrNotAllowed
	}
	ext := strings.ToLower(filepath.Ext(n))
	if _, ok := m.exts[ext]; !ok {
		return "", ErrUnsupportedExtension
	}
	if filepath.IsAbs(n) {
		return "", ErrNotAllowed
	}
	joined := filepath.Join(m.base, n)
	rel, err := filepath.Rel(m.base, joined)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrNotAllowed
	}
	return joined, nil
}

// ResolveExisting is Resolve plus an existence check and a post-symlink
// containment check, so a symlink planted inside the root cannot point
// a read or edit at a file outside it.
func (m *Manager) ResolveExisting(name string) (string, error) {
	p, err := m.Resolve(name)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: eval symlinks: %w", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotAllowed
	}
	rel, err := filepath.Rel(m.base, real)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrNotAllowed
	}
	return real, nil
}
