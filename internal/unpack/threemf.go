package unpack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// maxEntrySize caps a single decompressed archive entry.
const maxEntrySize = 256 << 20

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

func isMetadataEntry(lower string) bool {
	return strings.Contains(lower, "metadata") ||
		strings.Contains(lower, "config") ||
		strings.HasSuffix(lower, ".xml")
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(b) > maxEntrySize {
		return nil, fmt.Errorf("read %s: entry larger than %d bytes", f.Name, maxEntrySize)
	}
	return b, nil
}

// unpack3MF scans entries in archive order. An embedded .gcode entry wins
// over metadata and ends the scan. Metadata entries that are not text are
// skipped. The model mesh is decoded separately and
// only best-effort.
func unpack3MF(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, parseError(Kind3MF, err)
	}

	res := &Result{Kind: Kind3MF}
	var (
		meta      strings.Builder
		thumbSize uint64
		gcode     bool
	)

scan:
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		lower := strings.ToLower(f.Name)

		switch {
		case imageExts[path.Ext(lower)]:
			if f.UncompressedSize64 <= thumbSize {
				continue
			}
			img, err := readEntry(f)
			if err != nil {
				continue
			}
			res.Thumbnail, thumbSize = img, f.UncompressedSize64

		case path.Ext(lower) == ".gcode":
			b, err := readEntry(f)
			if err != nil {
				return nil, parseError(Kind3MF, err)
			}
			text, err := decodeText(b)
			if err != nil {
				return nil, parseError(Kind3MF, fmt.Errorf("%s: %w", f.Name, err))
			}
			res.Text, gcode = text, true
			if res.Thumbnail == nil {
				res.Thumbnail = gcodeThumbnail(text)
			}
			break scan

		case isMetadataEntry(lower):
			b, err := readEntry(f)
			if err != nil {
				return nil, parseError(Kind3MF, err)
			}
			text, err := decodeText(b)
			if err != nil {
				continue
			}
			meta.WriteString(text)
			meta.WriteByte('\n')
		}
	}

	if !gcode {
		res.Text = meta.String()
	}
	res.Mesh, res.MeshErr = decodeModel(data)
	return res, nil
}
