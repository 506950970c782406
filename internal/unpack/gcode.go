package unpack

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"regexp"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// binarySniffLen is how much of a text file is checked for NUL bytes.
const binarySniffLen = 8 << 10

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data[:min(len(data), binarySniffLen)], 0) >= 0 {
		return "", errBinary
	}
	if !utf8.Valid(data) {
		return "", errNotUTF8
	}
	return string(data), nil
}

func unpackGCode(data []byte) (*Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, parseError(KindGCode, err)
	}
	return &Result{Kind: KindGCode, Text: text, Thumbnail: gcodeThumbnail(text)}, nil
}

var (
	thumbBeginRe = regexp.MustCompile(`^;\s*thumbnail(?:_PNG|_JPG|_QOI)?\s+begin\b`)
	thumbEndRe   = regexp.MustCompile(`^;\s*thumbnail(?:_PNG|_JPG|_QOI)?\s+end\b`)
)

// gcodeThumbnail decodes the base64 preview blocks slicers write into the
// header and returns the largest. Blocks that fail to decode are skipped.
// Scanning stops at the first G-code command.
func gcodeThumbnail(text string) []byte {
	var (
		best    []byte
		current strings.Builder
		inBlock bool
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ";") {
			break
		}
		switch {
		case thumbBeginRe.MatchString(line):
			inBlock = true
			current.Reset()
		case thumbEndRe.MatchString(line):
			if inBlock {
				if img, err := base64.StdEncoding.DecodeString(current.String()); err == nil && len(img) > len(best) {
					best = img
				}
			}
			inBlock = false
		case inBlock:
			current.WriteString(strings.TrimSpace(strings.TrimPrefix(line, ";")))
		}
	}
	return best
}
