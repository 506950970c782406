// Package unpack turns uploaded slicer files into text for fact extraction,
// mesh geometry and a preview thumbnail.
package unpack

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/doferlabs/printcost/internal/mesh"
)

// Kind is the declared or sniffed container format.
type Kind string

const (
	KindGCode Kind = "gcode"
	Kind3MF   Kind = "3mf"
	KindSTL   Kind = "stl"
)

// Kinds lists the accepted formats.
func Kinds() []Kind { return []Kind{KindGCode, Kind3MF, KindSTL} }

var ErrUnsupportedKind = errors.New("unsupported file kind")

// ParseKind accepts "gcode", "3mf" or "stl", case-insensitively, with or
// without a leading dot.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); k {
	case KindGCode, Kind3MF, KindSTL:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// KindFromFileName sniffs the kind from the file extension. Bambu's
// ".gcode.3mf" exports are 3MF containers.
func KindFromFileName(name string) (Kind, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gcode.3mf"), path.Ext(lower) == ".3mf":
		return Kind3MF, nil
	case path.Ext(lower) == ".gcode":
		return KindGCode, nil
	case path.Ext(lower) == ".stl":
		return KindSTL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

const (
	gcodeLimit = 50 << 20
	mfLimit    = 50 << 20
	stlLimit   = 100 << 20
)

// SizeLimit returns the upload cap for kind in bytes.
func SizeLimit(kind Kind) int64 {
	switch kind {
	case KindGCode:
		return gcodeLimit
	case Kind3MF:
		return mfLimit
	case KindSTL:
		return stlLimit
	}
	return 0
}

// TooLargeError reports an upload over its size cap.
type TooLargeError struct {
	Kind  Kind
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("archivo demasiado grande: el máximo para %s es %s", e.Kind, humanize.IBytes(uint64(e.Limit)))
}

// Read reads r fully, failing with *TooLargeError past limit bytes. A limit
// of zero or less uses SizeLimit(kind).
func Read(r io.Reader, kind Kind, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = SizeLimit(kind)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s upload: %w", kind, err)
	}
	if int64(len(data)) > limit {
		return nil, &TooLargeError{Kind: kind, Limit: limit}
	}
	return data, nil
}

// Result is the unpacked content of one file. Text is empty for STL.
// MeshErr records why a 3MF model could not be decoded; it never fails the
// unpack.
type Result struct {
	Kind      Kind
	Text      string
	Mesh      *mesh.Geometry
	MeshErr   error
	Thumbnail []byte
}

// Unpack decodes data as kind. Malformed input fails with
// *ContainerParseError.
func Unpack(data []byte, kind Kind) (*Result, error) {
	if len(data) == 0 {
		return nil, parseError(kind, errEmpty)
	}
	switch kind {
	case KindGCode:
		return unpackGCode(data)
	case Kind3MF:
		return unpack3MF(data)
	case KindSTL:
		return unpackSTL(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}
