package assets

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
)

type plyFormat int

const (
	plyASCII plyFormat = iota
	plyBinaryLE
)

type plyProperty struct {
	name     string
	typ      string
	countTyp string // non-empty for list properties
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// plySizes maps PLY scalar types to their byte size.
var plySizes = map[string]int{
	"char": 1, "uchar": 1, "int8": 1, "uint8": 1,
	"short": 2, "ushort": 2, "int16": 2, "uint16": 2,
	"int": 4, "uint": 4, "int32": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

// LoadPLY reads a triangle mesh from an ascii or binary little-endian PLY
// file.
func LoadPLY(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: open %s: %w", path, err)
	}
	defer f.Close()
	m, err := ReadPLY(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", path, err)
	}
	return m, nil
}

// ReadPLY parses a PLY stream. Vertices may carry normals (nx ny nz) and
// one texture channel (s t or u v); polygons are fan-triangulated.
func ReadPLY(r *bufio.Reader) (*mesh.Mesh, error) {
	format, elems, err := readPLYHeader(r)
	if err != nil {
		return nil, err
	}

	var body plyReader
	if format == plyASCII {
		sc := bufio.NewScanner(r)
		sc.Split(bufio.ScanWords)
		body = &plyASCIIReader{sc: sc}
	} else {
		body = &plyBinaryReader{r: r}
	}

	var (
		verts   [][]float64
		vprops  []plyProperty
		polys   [][]uint32
		triangN int
	)
	for _, e := range elems {
		for i := 0; i < e.count; i++ {
			row := make([]float64, 0, len(e.props))
			for _, p := range e.props {
				if p.countTyp == "" {
					v, err := body.scalar(p.typ)
					if err != nil {
						return nil, fmt.Errorf("element %s %d: %w", e.name, i, err)
					}
					row = append(row, v)
					continue
				}
				n, err := body.scalar(p.countTyp)
				if err != nil {
					return nil, fmt.Errorf("element %s %d: %w", e.name, i, err)
				}
				idx := make([]uint32, int(n))
				for k := range idx {
					v, err := body.scalar(p.typ)
					if err != nil {
						return nil, fmt.Errorf("element %s %d: %w", e.name, i, err)
					}
					idx[k] = uint32(v)
				}
				if e.name == "face" && (p.name == "vertex_indices" || p.name == "vertex_index") {
					if len(idx) >= 3 {
						polys = append(polys, idx)
						triangN += len(idx) - 2
					}
				}
			}
			if e.name == "vertex" {
				verts = append(verts, row)
				vprops = e.props
			}
		}
	}
	if len(verts) == 0 || triangN == 0 {
		return nil, fmt.Errorf("no triangles")
	}
	return plyMesh(verts, vprops, polys, triangN), nil
}

func plyMesh(verts [][]float64, props []plyProperty, polys [][]uint32, triangN int) *mesh.Mesh {
	col := map[string]int{}
	for i, p := range props {
		if p.countTyp == "" {
			col[p.name] = i
		}
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := col[n]; !ok {
				return false
			}
		}
		return true
	}
	uName, vName := "s", "t"
	if !has(uName, vName) {
		uName, vName = "u", "v"
	}
	withUV := has(uName, vName)
	withNormals := has("nx", "ny", "nz")

	texCh := 0
	if withUV {
		texCh = 1
	}
	m := mesh.New(0, len(verts), triangN, texCh, 0)
	for i, row := range verts {
		m.SetVertex(i, mathutil.Vec3{row[col["x"]], row[col["y"]], row[col["z"]]})
		if withNormals {
			m.SetNormal(i, mathutil.Vec3{row[col["nx"]], row[col["ny"]], row[col["nz"]]})
		}
		if withUV {
			m.SetTexCoord(0, i, mathutil.Vec2{row[col[uName]], row[col[vName]]})
		}
	}
	f := 0
	for _, p := range polys {
		for k := 1; k+1 < len(p); k++ {
			m.SetFace(f, [3]uint32{p[0], p[k], p[k+1]})
			f++
		}
	}
	return m
}

func readPLYHeader(r *bufio.Reader) (plyFormat, []plyElement, error) {
	var (
		format plyFormat
		elems  []plyElement
		first  = true
	)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, nil, fmt.Errorf("header: %w", err)
		}
		fields := strings.Fields(line)
		if first {
			if len(fields) != 1 || fields[0] != "ply" {
				return 0, nil, fmt.Errorf("not a PLY file")
			}
			first = false
			continue
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return 0, nil, fmt.Errorf("header: bad format line")
			}
			switch fields[1] {
			case "ascii":
				format = plyASCII
			case "binary_little_endian":
				format = plyBinaryLE
			default:
				return 0, nil, fmt.Errorf("header: unsupported format %s", fields[1])
			}
		case "element":
			if len(fields) != 3 {
				return 0, nil, fmt.Errorf("header: bad element line")
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return 0, nil, fmt.Errorf("header: bad element count %q", fields[2])
			}
			elems = append(elems, plyElement{name: fields[1], count: n})
		case "property":
			if len(elems) == 0 {
				return 0, nil, fmt.Errorf("header: property outside element")
			}
			e := &elems[len(elems)-1]
			var p plyProperty
			switch {
			case len(fields) == 5 && fields[1] == "list":
				p = plyProperty{name: fields[4], typ: fields[3], countTyp: fields[2]}
			case len(fields) == 3:
				p = plyProperty{name: fields[2], typ: fields[1]}
			default:
				return 0, nil, fmt.Errorf("header: bad property line")
			}
			if plySizes[p.typ] == 0 || (p.countTyp != "" && plySizes[p.countTyp] == 0) {
				return 0, nil, fmt.Errorf("header: unknown type in %q", strings.TrimSpace(line))
			}
			e.props = append(e.props, p)
		case "end_header":
			return format, elems, nil
		}
	}
}

type plyReader interface {
	scalar(typ string) (float64, error)
}

type plyASCIIReader struct {
	sc *bufio.Scanner
}

func (a *plyASCIIReader) scalar(string) (float64, error) {
	if !a.sc.Scan() {
		if err := a.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.sc.Text(), 64)
}

type plyBinaryReader struct {
	r   io.Reader
	buf [8]byte
}

func (b *plyBinaryReader) scalar(typ string) (float64, error) {
	n := plySizes[typ]
	if _, err := io.ReadFull(b.r, b.buf[:n]); err != nil {
		return 0, err
	}
	le := binary.LittleEndian
	switch typ {
	case "char", "int8":
		return float64(int8(b.buf[0])), nil
	case "uchar", "uint8":
		return float64(b.buf[0]), nil
	case "short", "int16":
		return float64(int16(le.Uint16(b.buf[:]))), nil
	case "ushort", "uint16":
		return float64(le.Uint16(b.buf[:])), nil
	case "int", "int32":
		return float64(int32(le.Uint32(b.buf[:]))), nil
	case "uint", "uint32":
		return float64(le.Uint32(b.buf[:])), nil
	case "float", "float32":
		return float64(math.Float32frombits(le.Uint32(b.buf[:]))), nil
	default:
		return math.Float64frombits(le.Uint64(b.buf[:])), nil
	}
}
