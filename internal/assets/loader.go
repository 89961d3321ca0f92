// Package assets turns JSON scene descriptions, PLY meshes and measured IOR
// data into a renderable scene.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bdpt-renderer/internal/accel"
	"bdpt-renderer/internal/background"
	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/log"
	"bdpt-renderer/internal/material"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/scene"
	"bdpt-renderer/internal/texture"
)

var logger = log.New("assets")

// ErrUnsupportedMesh is returned for meshes no reader understands.
var ErrUnsupportedMesh = errors.New("assets: unsupported mesh")

// Priority decides which block of a material carrying both an Open and a
// PBR description is instantiated.
type Priority string

const (
	PriorityOpen Priority = "om"
	PriorityPBR  Priority = "pbr"
)

// ParsePriority validates a priority name.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityOpen, PriorityPBR:
		return p, nil
	}
	return "", fmt.Errorf("assets: unknown material priority %q (om|pbr)", s)
}

// Options steer how an asset becomes a scene.
type Options struct {
	// UseLights loads the described lights; otherwise the HDR background is
	// used instead.
	UseLights bool
	Priority  Priority
	// IORDir resolves Open material IOR files; empty means the scene's dir.
	IORDir string
	// TextureDirs are searched by name for textures not found by path.
	TextureDirs []string
	HDRPath     string
	HDRScale    float64
}

type placement struct {
	node, mesh int
	world      mathutil.Mat4
}

type iorResult struct {
	table *material.IORTable
	err   error
}

// Asset is a loaded description with its meshes, textures and IOR tables
// resolved. Node transforms are flattened into world placements.
type Asset struct {
	Doc      *Document
	Dir      string
	Meshes   []*mesh.Mesh
	Textures []*texture.Bitmap

	placements []placement
	nodeWorld  map[int]mathutil.Mat4
	iors       map[string]iorResult
}

// Load reads the scene description at path and every resource it names.
func Load(path string, opts Options) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", path, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("assets: parse %s: %w", path, err)
	}
	return FromDocument(doc, filepath.Dir(path), opts)
}

// FromDocument resolves doc's resources relative to dir.
func FromDocument(doc *Document, dir string, opts Options) (*Asset, error) {
	a := &Asset{
		Doc:       doc,
		Dir:       dir,
		Meshes:    make([]*mesh.Mesh, len(doc.Meshes)),
		Textures:  make([]*texture.Bitmap, len(doc.Textures)),
		nodeWorld: map[int]mathutil.Mat4{},
		iors:      map[string]iorResult{},
	}

	for i := range doc.Meshes {
		m, err := a.buildMesh(&doc.Meshes[i])
		if err != nil {
			return nil, fmt.Errorf("assets: mesh %d: %w", i, err)
		}
		a.Meshes[i] = m
	}

	cache := texture.NewCache(texture.BuildIndex(opts.TextureDirs...))
	for i, t := range doc.Textures {
		bmp, err := cache.Resolve(a.resolve(t.URI))
		if err != nil {
			logger.Warningf("texture %d: %v", i, err)
			continue
		}
		a.Textures[i] = bmp
	}

	iorDir := opts.IORDir
	if iorDir == "" {
		iorDir = dir
	}
	for _, md := range doc.Materials {
		if md.Open == nil || md.Open.IOR == "" {
			continue
		}
		p := md.Open.IOR
		if !filepath.IsAbs(p) {
			p = filepath.Join(iorDir, p)
		}
		if _, done := a.iors[md.Open.IOR]; !done {
			t, err := material.LoadIOR(p)
			a.iors[md.Open.IOR] = iorResult{table: t, err: err}
		}
	}

	a.placeNodes()
	return a, nil
}

func (a *Asset) resolve(uri string) string {
	if filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(a.Dir, uri)
}

func (a *Asset) buildMesh(d *MeshDesc) (*mesh.Mesh, error) {
	switch {
	case d.Shape != "":
		return shape(d)
	case d.URI != "":
		if strings.ToLower(filepath.Ext(d.URI)) != ".ply" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMesh, d.URI)
		}
		return LoadPLY(a.resolve(d.URI))
	case len(d.Positions) > 0:
		return inlineMesh(d)
	}
	return nil, fmt.Errorf("%w: %q has no geometry", ErrUnsupportedMesh, d.Name)
}

func shape(d *MeshDesc) (*mesh.Mesh, error) {
	size := d.Size
	switch d.Shape {
	case "sphere":
		if size <= 0 {
			size = 1
		}
		segments, rings := d.Segments, d.Rings
		if segments <= 0 {
			segments = DefaultSegments
		}
		if rings <= 0 {
			rings = DefaultRings
		}
		return UVSphere(size, segments, rings), nil
	case "quad":
		if size <= 0 {
			size = 2
		}
		return Quad(size), nil
	case "cube":
		if size <= 0 {
			size = 1
		}
		return Cube(size), nil
	}
	return nil, fmt.Errorf("%w: shape %q", ErrUnsupportedMesh, d.Shape)
}

func inlineMesh(d *MeshDesc) (*mesh.Mesh, error) {
	vertN := len(d.Positions) / 3
	idx := d.Indices
	if len(idx) == 0 {
		idx = make([]uint32, vertN/3*3)
		for i := range idx {
			idx[i] = uint32(i)
		}
	}
	texCh := min(len(d.TexCoords), mesh.MaxTexChannels)
	m := mesh.New(0, vertN, len(idx)/3, texCh, 0)
	if !m.SetVertices(d.Positions, 3) || !m.SetFaces(idx) {
		return nil, fmt.Errorf("%w: %q has malformed arrays", ErrUnsupportedMesh, d.Name)
	}
	if len(d.Normals) == 3*vertN {
		m.SetNormals(d.Normals, 3)
	}
	if len(d.Tangents) == 4*vertN {
		m.SetTangents(d.Tangents, 4)
	}
	for ch := 0; ch < texCh; ch++ {
		if len(d.TexCoords[ch]) == 2*vertN {
			m.SetTexCoords(ch, d.TexCoords[ch], 2)
		}
	}
	return m, nil
}

// placeNodes walks the hierarchy from the roots accumulating parent × local.
func (a *Asset) placeNodes() {
	roots := a.Doc.Scene
	if len(roots) == 0 {
		child := make([]bool, len(a.Doc.Nodes))
		for _, n := range a.Doc.Nodes {
			for _, c := range n.Children {
				child[c] = true
			}
		}
		for i := range a.Doc.Nodes {
			if !child[i] {
				roots = append(roots, i)
			}
		}
	}
	onPath := make([]bool, len(a.Doc.Nodes))
	var visit func(i int, parent mathutil.Mat4)
	visit = func(i int, parent mathutil.Mat4) {
		if i < 0 || i >= len(a.Doc.Nodes) || onPath[i] {
			return
		}
		n := &a.Doc.Nodes[i]
		world := mathutil.Mat4Mul(parent, n.local())
		if _, seen := a.nodeWorld[i]; !seen {
			a.nodeWorld[i] = world
		}
		if n.Mesh != nil {
			a.placements = append(a.placements, placement{node: i, mesh: *n.Mesh, world: world})
		}
		onPath[i] = true
		for _, c := range n.Children {
			visit(c, world)
		}
		onPath[i] = false
	}
	for _, r := range roots {
		visit(r, mathutil.Mat4Identity())
	}
}

// InstanceCount is the number of mesh placements.
func (a *Asset) InstanceCount() int { return len(a.placements) }

// Bounds is the world bounding box of every placed mesh.
func (a *Asset) Bounds() accel.AABB {
	box := accel.EmptyAABB()
	local := make([]accel.AABB, len(a.Meshes))
	for i, m := range a.Meshes {
		local[i] = accel.EmptyAABB()
		for v := 0; v < m.VertexCount(); v++ {
			local[i] = local[i].Extend(m.Vertex(v))
		}
	}
	for _, p := range a.placements {
		box = box.Union(local[p.mesh].Transform(p.world))
	}
	return box
}

// Material instantiates material i of the description with scene id id.
// Open and PBR blocks are tried in priority order; an Open block whose IOR
// data cannot be loaded falls through to the next candidate. A nil result
// means the material is unresolvable.
func (a *Asset) Material(i, id int, pri Priority) material.Material {
	if i < 0 || i >= len(a.Doc.Materials) {
		return nil
	}
	d := &a.Doc.Materials[i]
	kinds := []material.Kind{material.KindOpen, material.KindPBR}
	if pri == PriorityPBR {
		kinds[0], kinds[1] = kinds[1], kinds[0]
	}
	for _, k := range kinds {
		switch {
		case k == material.KindOpen && d.Open != nil:
			r, ok := a.iors[d.Open.IOR]
			if !ok {
				r.err = fmt.Errorf("no IOR file named")
			}
			if r.err != nil {
				logger.Warningf("material %d %q: %v", i, d.Name, r.err)
				continue
			}
			return material.NewOpen(id, r.table, orDefault(d.Open.Temperature, material.DefaultTemperature))
		case k == material.KindPBR && d.PBR != nil:
			return material.NewPBR(id, d.PBR.params())
		}
	}
	if d.Diffuse != nil {
		return d.Diffuse.material(id)
	}
	return nil
}

// Scene fills a new, uncommitted scene. Every placement is pre-multiplied
// by root. Only materials referenced by meshes are instantiated, numbered
// in order of first use.
func (a *Asset) Scene(root mathutil.Mat4, opts Options) *scene.Scene {
	used := map[int]int{}
	var order []int
	for _, d := range a.Doc.Meshes {
		if d.Material == nil || *d.Material < 0 || *d.Material >= len(a.Doc.Materials) {
			continue
		}
		if _, ok := used[*d.Material]; !ok {
			used[*d.Material] = len(order)
			order = append(order, *d.Material)
		}
	}

	lightN := 0
	if opts.UseLights {
		lightN = len(a.Doc.Lights)
	}
	s := scene.New()
	s.Allocate(len(a.Meshes), len(a.placements), len(order), len(a.Textures), lightN)

	for i, t := range a.Textures {
		s.SetTexture(i, t)
	}
	for id, i := range order {
		if m := a.Material(i, id, opts.Priority); m != nil {
			s.SetMaterial(id, m)
		}
	}
	for i, m := range a.Meshes {
		m.MaterialID = -1
		if d := a.Doc.Meshes[i].Material; d != nil {
			if id, ok := used[*d]; ok {
				m.MaterialID = id
			}
		}
		s.SetMesh(i, m)
	}
	for k, p := range a.placements {
		s.SetInstance(k, p.mesh, mathutil.Mat4Mul(root, p.world))
	}

	if opts.UseLights {
		for i, l := range a.Doc.Lights {
			tm := root
			if l.Node != nil {
				if w, ok := a.nodeWorld[*l.Node]; ok {
					tm = mathutil.Mat4Mul(root, w)
				}
			}
			pos := tm.MulPoint(mathutil.Vec3(l.Position))
			s.SetLight(i, light.NewPoint(pos, l.intensity(), l.Range))
		}
	} else if opts.HDRPath != "" {
		hdr, err := background.LoadHDR(opts.HDRPath, opts.HDRScale)
		if err != nil {
			logger.Warningf("%v; using a constant background", err)
			s.SetBackground(background.NewConstant(background.DefaultRadiance))
		} else {
			s.SetBackground(hdr)
		}
	}
	return s
}
