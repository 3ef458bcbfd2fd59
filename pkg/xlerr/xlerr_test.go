package xlerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString_IncludesKindPrefix(t *testing.T) {
	err := Sheetf("sheet %q not found", "Data")
	want := `SHEET: sheet "Data" not found`
	if err.Error() != want {
		t.Fatalf("Error()=%q want %q", err.Error(), want)
	}
}

func TestMessage_OmitsKindPrefix(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{Workbookf("workbook already exists"), "workbook already exists"},
		{Rangef("invalid range: B2:A1"), "invalid range: B2:A1"},
		{fmt.Errorf("wrapped: %w", Dataf("data must be a non-empty list")), "data must be a non-empty list"},
		{errors.New("plain failure"), "plain failure"},
		{nil, ""},
	}
	for i, tc := range cases {
		if got := Message(tc.err); got != tc.want {
			t.Fatalf("case %d: Message=%q want %q", i, got, tc.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{Validationf("bad input"), KindValidation},
		{Sheetf("missing"), KindSheet},
		{fmt.Errorf("tool failed: %w", Rangef("out of bounds")), KindRange},
		{errors.New("anything"), KindInternal},
	}
	for i, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("case %d: KindOf=%q want %q", i, got, tc.want)
		}
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := Wrapf(KindWorkbook, cause, "failed to open workbook")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if KindOf(err) != KindWorkbook {
		t.Fatalf("KindOf=%q want %q", KindOf(err), KindWorkbook)
	}
	if Message(err) != "failed to open workbook" {
		t.Fatalf("Message=%q", Message(err))
	}
}
