package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("profile not found")
	ErrInvalidPath    = errors.New("invalid profile path")
	ErrInvalidProfile = errors.New("profile must be a JSON object")
)

// Store persists raw profile documents under provider/model/file.json names.
// Documents are stored as given so unknown fields survive a round trip.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, raw []byte) error
}

// Pretty validates that raw is a single JSON object and re-indents it with
// two spaces and a trailing newline. Key order is preserved.
func Pretty(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, ErrInvalidProfile
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
