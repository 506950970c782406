package unpack

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/doferlabs/printcost/internal/mesh"
)

const (
	stlHeaderSize = 80
	stlRecordSize = 50
)

func unpackSTL(data []byte) (*Result, error) {
	g, err := parseSTL(data)
	if err != nil {
		return nil, parseError(KindSTL, err)
	}
	return &Result{Kind: KindSTL, Mesh: g}, nil
}

// parseSTL reads binary STL, falling back to ASCII when the file starts
// with "solid" and its size does not fit the binary layout. Binary exports
// often start with "solid" too.
func parseSTL(data []byte) (*mesh.Geometry, error) {
	if !binarySizeMatches(data) && bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(data)
	}
	return parseBinarySTL(data)
}

func binarySizeMatches(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	n := uint64(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	return uint64(len(data)) == stlHeaderSize+4+n*stlRecordSize
}

func parseBinarySTL(data []byte) (*mesh.Geometry, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", errTruncated, len(data))
	}
	n := uint64(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	if n == 0 {
		return nil, errNoMesh
	}
	body := data[stlHeaderSize+4:]
	if uint64(len(body)) < n*stlRecordSize {
		return nil, fmt.Errorf("%w: header declares %d triangles, file holds %d", errTruncated, n, len(body)/stlRecordSize)
	}

	tris := make([]mesh.Triangle, 0, n)
	for i := uint64(0); i < n; i++ {
		rec := body[i*stlRecordSize:]
		// Skip the 12-byte normal.
		var v [3]mesh.Vec3
		for j := range v {
			off := 12 + 12*j
			v[j] = mesh.Vec3{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+8:]))),
			}
			if !finite(v[j]) {
				return nil, fmt.Errorf("triangle %d has a non-finite vertex", i)
			}
		}
		tris = append(tris, mesh.Triangle{A: v[0], B: v[1], C: v[2]})
	}
	return mesh.New(tris), nil
}

func parseASCIISTL(data []byte) (*mesh.Geometry, error) {
	var (
		tris  []mesh.Triangle
		verts []mesh.Vec3
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for lineNo := 1; sc.Scan(); lineNo++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			var c [3]float64
			for i := range c {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				c[i] = f
			}
			v := mesh.Vec3{X: c[0], Y: c[1], Z: c[2]}
			if !finite(v) {
				return nil, fmt.Errorf("line %d: non-finite vertex", lineNo)
			}
			verts = append(verts, v)
		case "endfacet":
			if len(verts) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices, want 3", lineNo, len(verts))
			}
			tris = append(tris, mesh.Triangle{A: verts[0], B: verts[1], C: verts[2]})
			verts = verts[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ascii stl: %w", err)
	}
	if len(tris) == 0 {
		return nil, errNoMesh
	}
	return mesh.New(tris), nil
}

func finite(v mesh.Vec3) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
