package unpack

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

type entry struct {
	name string
	body []byte
}

func buildZip(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write(e.body); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

var cubeVertices = [8][3]float32{
	{0, 0, 0}, {10, 0, 0}, {10, 10, 0}, {0, 10, 0},
	{0, 0, 10}, {10, 0, 10}, {10, 10, 10}, {0, 10, 10},
}

var cubeFaces = [12][3]int{
	{0, 2, 1}, {0, 3, 2},
	{4, 5, 6}, {4, 6, 7},
	{0, 1, 5}, {0, 5, 4},
	{3, 6, 2}, {3, 7, 6},
	{0, 4, 7}, {0, 7, 3},
	{1, 2, 6}, {1, 6, 5},
}

func binaryCube(t *testing.T, header string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var h [80]byte
	copy(h[:], header)
	buf.Write(h[:])
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(cubeFaces))); err != nil {
		t.Fatalf("write count: %v", err)
	}
	for _, f := range cubeFaces {
		rec := struct {
			Normal [3]float32
			V      [3][3]float32
			Attr   uint16
		}{V: [3][3]float32{cubeVertices[f[0]], cubeVertices[f[1]], cubeVertices[f[2]]}}
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			t.Fatalf("write record: %v", err)
		}
	}
	return buf.Bytes()
}

func asciiCube() []byte {
	var b strings.Builder
	b.WriteString("solid cube\n")
	for _, f := range cubeFaces {
		b.WriteString("  facet normal 0 0 0\n    outer loop\n")
		for _, i := range f {
			v := cubeVertices[i]
			fmt.Fprintf(&b, "      vertex %g %g %g\n", v[0], v[1], v[2])
		}
		b.WriteString("    endloop\n  endfacet\n")
	}
	b.WriteString("endsolid cube\n")
	return []byte(b.String())
}

func cubeModelXML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<model unit="millimeter" xml:lang="en-US" xmlns="http://schemas.microsoft.com/3dmanufacturing/core/2015/02">
 <resources>
  <object id="1" type="model">
   <mesh>
    <vertices>
`)
	for _, v := range cubeVertices {
		fmt.Fprintf(&b, "     <vertex x=\"%g\" y=\"%g\" z=\"%g\"/>\n", v[0], v[1], v[2])
	}
	b.WriteString("    </vertices>\n    <triangles>\n")
	for _, f := range cubeFaces {
		fmt.Fprintf(&b, "     <triangle v1=\"%d\" v2=\"%d\" v3=\"%d\"/>\n", f[0], f[1], f[2])
	}
	b.WriteString(`    </triangles>
   </mesh>
  </object>
 </resources>
 <build>
  <item objectid="1"/>
 </build>
</model>
`)
	return b.String()
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
 <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
 <Default Extension="model" ContentType="application/vnd.ms-package.3dmanufacturing-3dmodel+xml"/>
</Types>
`

const rootRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
 <Relationship Target="/3D/3dmodel.model" Id="rel0" Type="http://schemas.microsoft.com/3dmanufacturing/2013/01/3dmodel"/>
</Relationships>
`

func assertParseError(t *testing.T, err error, kind Kind) *ContainerParseError {
	t.Helper()
	var perr *ContainerParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ContainerParseError, got %v", err)
	}
	if perr.Kind != kind {
		t.Fatalf("error kind = %s, want %s", perr.Kind, kind)
	}
	return perr
}

func TestKindFromFileName(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"benchy.gcode", KindGCode},
		{"BENCHY.GCODE", KindGCode},
		{"plate.3mf", Kind3MF},
		{"plate_1.gcode.3mf", Kind3MF},
		{"part.STL", KindSTL},
	}
	for _, tt := range tests {
		got, err := KindFromFileName(tt.name)
		if err != nil || got != tt.want {
			t.Fatalf("KindFromFileName(%q) = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}

	if _, err := KindFromFileName("photo.png"); !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" .STL "); err != nil || k != KindSTL {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("obj"); !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestUnpack_Empty(t *testing.T) {
	for _, k := range Kinds() {
		_, err := Unpack(nil, k)
		perr := assertParseError(t, err, k)
		if !errors.Is(perr, errEmpty) {
			t.Fatalf("expected errEmpty, got %v", perr.Cause)
		}
	}
}

func TestUnpack_GCodeText(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, "; generated by test\nG28\n"...)

	res, err := Unpack(data, KindGCode)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Text != "; generated by test\nG28\n" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Mesh != nil || res.Thumbnail != nil {
		t.Fatalf("expected text only, got %+v", res)
	}
}

func TestUnpack_GCodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"nul bytes", []byte("G28\x00\x00\x01"), errBinary},
		{"invalid utf-8", []byte{'G', '2', '8', 0xff, 0xfe}, errNotUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unpack(tt.data, KindGCode)
			perr := assertParseError(t, err, KindGCode)
			if !errors.Is(perr, tt.want) {
				t.Fatalf("cause = %v, want %v", perr.Cause, tt.want)
			}
		})
	}
}

func thumbnailBlock(tag string, img []byte) string {
	enc := base64.StdEncoding.EncodeToString(img)
	var b strings.Builder
	fmt.Fprintf(&b, "; %s begin 16x16 %d\n", tag, len(enc))
	for len(enc) > 0 {
		n := min(len(enc), 78)
		fmt.Fprintf(&b, "; %s\n", enc[:n])
		enc = enc[n:]
	}
	fmt.Fprintf(&b, "; %s end\n", tag)
	return b.String()
}

func TestUnpack_GCodeThumbnailKeepsLargest(t *testing.T) {
	small := bytes.Repeat([]byte{1}, 40)
	large := bytes.Repeat([]byte{2}, 400)
	text := "; generated by test\n" +
		thumbnailBlock("thumbnail", small) +
		"; thumbnail_PNG begin 32x32 10\n; !!!not-base64!!!\n; thumbnail_PNG end\n" +
		thumbnailBlock("thumbnail_PNG", large) +
		"G28\n" +
		thumbnailBlock("thumbnail", bytes.Repeat([]byte{3}, 4000))

	res, err := Unpack([]byte(text), KindGCode)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !bytes.Equal(res.Thumbnail, large) {
		t.Fatalf("expected the 400 byte header thumbnail, got %d bytes", len(res.Thumbnail))
	}
}

func TestUnpack_3MFEmbeddedGCodeWins(t *testing.T) {
	gcode := "; filament used [g] = 12.5\n; estimated printing time = 1h 0m\n"
	data := buildZip(t,
		entry{"Metadata/plate_1.png", []byte("small-png")},
		entry{"Metadata/model_settings.config", []byte("<config/>")},
		entry{"Metadata/plate_1.gcode", []byte(gcode)},
		entry{"Metadata/late.config", []byte("late")},
		entry{"Metadata/plate_1_big.png", bytes.Repeat([]byte("x"), 1000)},
	)

	res, err := Unpack(data, Kind3MF)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Text != gcode {
		t.Fatalf("expected embedded G-code text, got %q", res.Text)
	}
	if string(res.Thumbnail) != "small-png" {
		t.Fatalf("entries after the G-code must not be scanned, got %d byte thumbnail", len(res.Thumbnail))
	}
	if res.Mesh != nil || res.MeshErr == nil {
		t.Fatalf("expected a best-effort mesh failure, got mesh=%v err=%v", res.Mesh, res.MeshErr)
	}
}

func TestUnpack_3MFMetadataFallback(t *testing.T) {
	data := buildZip(t,
		entry{"Metadata/Slic3r_PE.config", []byte("; filament used [g] = 12")},
		entry{"3D/3dmodel.model", []byte("<model/>")},
		entry{"notes.txt", []byte("ignored")},
		entry{"Metadata/thumbnail.png", []byte("tiny")},
		entry{"Metadata/preview.PNG", []byte("much larger preview")},
		entry{"[Content_Types].xml", []byte("<Types/>")},
	)

	res, err := Unpack(data, Kind3MF)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if want := "; filament used [g] = 12\n<Types/>\n"; res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
	if string(res.Thumbnail) != "much larger preview" {
		t.Fatalf("expected largest image, got %q", res.Thumbnail)
	}
	if res.MeshErr == nil {
		t.Fatalf("expected mesh error for a model without a valid package")
	}
}

func TestUnpack_3MFSkipsBinaryMetadata(t *testing.T) {
	data := buildZip(t,
		entry{"Metadata/cache.config", []byte{0x00, 0x01, 'w', 'e', 'i', 'g', 'h', 't', 0x00}},
		entry{"Metadata/latin1.config", []byte{'d', 'i', 's', 'e', 0xF1, 'o'}},
		entry{"Metadata/project_settings.config", []byte(`"filament_weight": "12.5"`)},
	)

	res, err := Unpack(data, Kind3MF)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if want := "\"filament_weight\": \"12.5\"\n"; res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
}

func TestUnpack_3MFCorruptArchive(t *testing.T) {
	_, err := Unpack([]byte("definitely not a zip archive"), Kind3MF)
	assertParseError(t, err, Kind3MF)
}

func TestUnpack_3MFModelMesh(t *testing.T) {
	data := buildZip(t,
		entry{"[Content_Types].xml", []byte(contentTypes)},
		entry{"_rels/.rels", []byte(rootRels)},
		entry{"3D/3dmodel.model", []byte(cubeModelXML())},
	)

	res, err := Unpack(data, Kind3MF)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Mesh == nil {
		t.Skipf("3mf model not decoded: %v", res.MeshErr)
	}
	nearlyEqual(t, "volume", res.Mesh.Volume(), 1000)
	if res.Mesh.TriangleCount() != 12 {
		t.Fatalf("expected 12 triangles, got %d", res.Mesh.TriangleCount())
	}
}

func TestUnpack_BinarySTL(t *testing.T) {
	for _, header := range []string{"binary cube", "solid cube exported as binary"} {
		res, err := Unpack(binaryCube(t, header), KindSTL)
		if err != nil {
			t.Fatalf("header %q: unexpected err: %v", header, err)
		}
		if res.Text != "" {
			t.Fatalf("STL has no text, got %q", res.Text)
		}
		nearlyEqual(t, "volume", res.Mesh.Volume(), 1000)
		dims := res.Mesh.Dimensions()
		nearlyEqual(t, "x", dims.X, 10)
		nearlyEqual(t, "y", dims.Y, 10)
		nearlyEqual(t, "z", dims.Z, 10)
	}
}

func TestUnpack_ASCIISTL(t *testing.T) {
	res, err := Unpack(asciiCube(), KindSTL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Mesh.TriangleCount() != 12 {
		t.Fatalf("expected 12 triangles, got %d", res.Mesh.TriangleCount())
	}
	nearlyEqual(t, "volume", res.Mesh.Volume(), 1000)
}

func TestUnpack_MalformedSTL(t *testing.T) {
	full := binaryCube(t, "cube")

	tests := []struct {
		name string
		data []byte
	}{
		{"short header", full[:40]},
		{"truncated records", full[:len(full)-60]},
		{"zero triangles", full[:84]},
		{"ascii without facets", []byte("solid empty\nendsolid empty\n")},
		{"ascii bad vertex", []byte("solid x\nfacet normal 0 0 0\nouter loop\nvertex 1 two 3\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			if tt.name == "zero triangles" {
				data = append([]byte(nil), data...)
				binary.LittleEndian.PutUint32(data[80:], 0)
			}
			_, err := Unpack(data, KindSTL)
			assertParseError(t, err, KindSTL)
		})
	}
}

func TestRead_EnforcesLimit(t *testing.T) {
	data, err := Read(strings.NewReader("0123456789"), KindGCode, 10)
	if err != nil || len(data) != 10 {
		t.Fatalf("Read at limit = %d bytes, %v", len(data), err)
	}

	_, err = Read(strings.NewReader("0123456789A"), KindGCode, 10)
	var tooLarge *TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected *TooLargeError, got %v", err)
	}
	if tooLarge.Limit != 10 {
		t.Fatalf("limit = %d, want 10", tooLarge.Limit)
	}
}

func TestSizeLimit(t *testing.T) {
	if SizeLimit(KindGCode) != 50<<20 || SizeLimit(Kind3MF) != 50<<20 || SizeLimit(KindSTL) != 100<<20 {
		t.Fatalf("unexpected size limits")
	}
	if SizeLimit(Kind("obj")) != 0 {
		t.Fatalf("unknown kind must have no limit")
	}
}
