package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Unit represents the counting unit used by cursors.
type Unit string

const (
	UnitRows  Unit = "rows"
	UnitCells Unit = "cells"
)

// Cursor is the opaque pagination token (pre-encoding) with short field
// names to minimize payload size. It is serialized to minified JSON and
// encoded with URL-safe base64.
//
// Cursors are stateless: they name the workbook by filename rather than
// by any server-side handle, so a resume works across server restarts
// and after unrelated edits. A cursor pointing past the current data
// simply yields an empty page.
//
// Fields:
//   - v:   version of the cursor schema
//   - p:   workbook filename (relative to the configured folder)
//   - s:   sheet name
//   - r:   normalized A1 range the read was issued against
//   - u:   unit: "rows" or "cells"
//   - off: offset in unit from the start of the range
//   - ps:  page size in the chosen unit
//   - iat: issued-at timestamp (unix seconds)
type Cursor struct {
	V   int    `json:"v"`
	P   string `json:"p"`
	S   string `json:"s"`
	R   string `json:"r"`
	U   Unit   `json:"u"`
	Off int    `json:"off"`
	Ps  int    `json:"ps"`
	Iat int64  `json:"iat"`
}

// EncodeCursor serializes and encodes the cursor as URL-safe base64 (without padding).
func EncodeCursor(c Cursor) (string, error) {
	if err := validate(&c); err != nil {
		return "", err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	return s, nil
}

// DecodeCursor decodes a URL-safe base64 token and parses the JSON cursor.
func DecodeCursor(token string) (*Cursor, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, errors.New("cursor: empty token")
	}
	data, err := base64.RawURLEncoding.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("cursor: invalid base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cursor: invalid json: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate performs structural checks and defaulting.
func validate(c *Cursor) error {
	if c.V <= 0 {
		c.V = 1
	}
	if c.Iat == 0 {
		c.Iat = time.Now().Unix()
	}
	if strings.TrimSpace(c.P) == "" {
		return errors.New("cursor: p (workbook filename) required")
	}
	if strings.TrimSpace(c.S) == "" {
		return errors.New("cursor: s (sheet) required")
	}
	if strings.TrimSpace(c.R) == "" {
		return errors.New("cursor: r (range) required")
	}
	switch c.U {
	case UnitRows, UnitCells:
		// ok
	default:
		return fmt.Errorf("cursor: invalid unit %q", string(c.U))
	}
	if c.Off < 0 {
		return errors.New("cursor: off must be >= 0")
	}
	if c.Ps <= 0 {
		return errors.New("cursor: ps must be > 0")
	}
	return nil
}
