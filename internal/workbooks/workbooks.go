// Package workbooks owns workbook lifecycle: creation, discovery, and
// per-call open/close around every operation. No workbook stays open
// between tool calls; each View or Update resolves the filename, opens
// the file, runs the callback, and closes it again. Updates save before
// closing, so a successful mutating call is always persisted.
package workbooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/security"
	"github.com/sheetkit/excel-mcp-server/internal/sheets"
	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

// WorkbookGate coordinates capacity for concurrently open workbooks
// (backed by runtime.Controller).
type WorkbookGate interface {
	AcquireWorkbook(ctx context.Context) error
	ReleaseWorkbook()
}

// Store resolves workbook names and opens files for the duration of a
// single callback. It holds no handles between calls.
type Store struct {
	paths *security.Manager
	gate  WorkbookGate
}

// NewStore constructs a Store. Gate can be nil for tests.
func NewStore(paths *security.Manager, gate WorkbookGate) *Store {
	return &Store{paths: paths, gate: gate}
}

// Info describes a workbook on disk.
type Info struct {
	Name      string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Modified  time.Time `json:"modified"`
	Sheets    []string  `json:"sheets"`
	// UsedRanges maps sheet name to its populated extent, anchored at
	// A1. Only set when requested; empty sheets are omitted.
	UsedRanges map[string]string `json:"used_ranges,omitempty"`
}

// Create writes a fresh workbook with a single sheet. It fails when
// the target already exists and creates parent directories as needed.
func (s *Store) Create(ctx context.Context, name, sheetName string) error {
	p, err := s.paths.Resolve(name)
	if err != nil {
		return resolveError(name, err)
	}
	if _, err := os.Stat(p); err == nil {
		return xlerr.Workbookf("workbook %q already exists", name)
	}
	if err := s.acquire(ctx); err != nil {
		return busyError(err)
	}
	defer s.release()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if sheetName != "" && sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return xlerr.Wrapf(xlerr.KindSheet, err, "invalid sheet name %q", sheetName)
		}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to create directory for %q", name)
	}
	if err := f.SaveAs(p); err != nil {
		return xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to create workbook %q", name)
	}
	return nil
}

// View opens a workbook read-only for the duration of fn. Changes made
// by fn are discarded.
func (s *Store) View(ctx context.Context, name string, fn func(f *excelize.File) error) error {
	p, err := s.paths.ResolveExisting(name)
	if err != nil {
		return resolveError(name, err)
	}
	if err := s.acquire(ctx); err != nil {
		return busyError(err)
	}
	defer s.release()

	f, err := excelize.OpenFile(p)
	if err != nil {
		return xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to open workbook %q", name)
	}
	defer func() { _ = f.Close() }()
	return fn(f)
}

// Update opens a workbook, runs fn, and saves back to the same path
// when fn succeeds. A failing fn leaves the file untouched.
func (s *Store) Update(ctx context.Context, name string, fn func(f *excelize.File) error) error {
	p, err := s.paths.ResolveExisting(name)
	if err != nil {
		return resolveError(name, err)
	}
	if err := s.acquire(ctx); err != nil {
		return busyError(err)
	}
	defer s.release()

	f, err := excelize.OpenFile(p)
	if err != nil {
		return xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to open workbook %q", name)
	}
	defer func() { _ = f.Close() }()
	if err := fn(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to save workbook %q", name)
	}
	return nil
}

// GetInfo reports filename, size, modification time, and the ordered
// sheet list. With includeRanges it also reports each sheet's used
// range, anchored at A1.
func (s *Store) GetInfo(ctx context.Context, name string, includeRanges bool) (*Info, error) {
	p, err := s.paths.ResolveExisting(name)
	if err != nil {
		return nil, resolveError(name, err)
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to stat workbook %q", name)
	}
	info := &Info{
		Name:      filepath.Base(p),
		SizeBytes: st.Size(),
		Modified:  st.ModTime(),
	}
	err = s.View(ctx, name, func(f *excelize.File) error {
		info.Sheets = f.GetSheetList()
		if !includeRanges {
			return nil
		}
		info.UsedRanges = make(map[string]string, len(info.Sheets))
		for _, sheet := range info.Sheets {
			r, ok, err := sheets.UsedRange(f, sheet)
			if err != nil {
				return err
			}
			if ok {
				// Always anchored at the sheet origin.
				info.UsedRanges[sheet] = "A1:" + r.End.Name()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// List returns the workbook filenames in the files directory, sorted.
// The directory is created when missing; an empty directory yields an
// empty list, never an error.
func (s *Store) List(ctx context.Context) ([]string, error) {
	base := s.paths.BaseDir()
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to create files directory")
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to list files directory")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".xlsx" || ext == ".xlsm" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) acquire(ctx context.Context) error {
	if s.gate == nil {
		return nil
	}
	return s.gate.AcquireWorkbook(ctx)
}

func (s *Store) release() {
	if s.gate == nil {
		return
	}
	s.gate.ReleaseWorkbook()
}

// resolveError maps security sentinels onto the tool-facing taxonomy.
func resolveError(name string, err error) error {
	switch {
	case errors.Is(err, security.ErrNotFound):
		return xlerr.Workbookf("workbook %q not found", name)
	case errors.Is(err, security.ErrUnsupportedExtension):
		return xlerr.Validationf("filename must be an Excel file (.xlsx or .xlsm): %q", name)
	case errors.Is(err, security.ErrNotAllowed):
		return xlerr.Validationf("invalid workbook filename %q", name)
	default:
		return xlerr.Wrapf(xlerr.KindWorkbook, err, "failed to resolve workbook %q", name)
	}
}

func busyError(err error) error {
	return xlerr.Wrapf(xlerr.KindWorkbook, err, "too many open workbooks; please retry shortly")
}
