package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "excel_files"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManager_CreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet", "there")
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	info, err := os.Stat(m.BaseDir())
	if err != nil || !info.IsDir() {
		t.Fatalf("base dir not created: %v", err)
	}
	if !filepath.IsAbs(m.BaseDir()) {
		t.Fatalf("base dir not absolute: %q", m.BaseDir())
	}
}

func TestNewManager_EmptyDir(t *testing.T) {
	if _, err := NewManager("   "); err == nil {
		t.Fatal("expected error for empty files dir")
	}
}

func TestResolve_WithinRoot(t *testing.T) {
	m := newTestManager(t)
	cases := []string{"book.xlsx", "macros.xlsm", "sub/dir/book.xlsx"}
	for _, name := range cases {
		got, err := m.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if !filepath.IsAbs(got) {
			t.Fatalf("expected absolute path, got %q", got)
		}
		rel, err := filepath.Rel(m.BaseDir(), got)
		if err != nil || rel == "." || filepath.IsAbs(rel) {
			t.Fatalf("Resolve(%q) escaped base: %q", name, got)
		}
	}
}

func TestResolve_Denies(t *testing.T) {
	m := newTestManager(t)
	cases := []struct {
		name string
		want error
	}{
		{"", ErrNotAllowed},
		{"../escape.xlsx", ErrNotAllowed},
		{"sub/../../escape.xlsx", ErrNotAllowed},
		{"/abs/path.xlsx", ErrNotAllowed},
		{"notes.txt", ErrUnsupportedExtension},
		{"book.csv", ErrUnsupportedExtension},
		{"book", ErrUnsupportedExtension},
	}
	for _, tc := range cases {
		if _, err := m.Resolve(tc.name); !errors.Is(err, tc.want) {
			t.Errorf("Resolve(%q) err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestResolveExisting_MissingFile(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ResolveExisting("absent.xlsx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveExisting_Found(t *testing.T) {
	m := newTestManager(t)
	p := filepath.Join(m.BaseDir(), "ok.xlsx")
	if err := os.WriteFile(p, []byte("test"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := m.ResolveExisting("ok.xlsx")
	if err != nil {
		t.Fatalf("resolve existing: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path, got %q", got)
	}
}

func TestResolveExisting_SymlinkEscapeDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	m := newTestManager(t)
	outside := filepath.Join(t.TempDir(), "target.xlsx")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	link := filepath.Join(m.BaseDir(), "link.xlsx")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if _, err := m.ResolveExisting("link.xlsx"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
}
