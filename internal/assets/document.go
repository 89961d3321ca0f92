package assets

import (
	"encoding/json"
	"fmt"

	"bdpt-renderer/internal/material"
	"bdpt-renderer/internal/mathutil"
)

// Document is the JSON scene description.
type Document struct {
	Textures  []TextureDesc  `json:"textures"`
	Materials []MaterialDesc `json:"materials"`
	Meshes    []MeshDesc     `json:"meshes"`
	Nodes     []NodeDesc     `json:"nodes"`
	// Scene lists the root nodes; when empty every parentless node is a root.
	Scene  []int       `json:"scene"`
	Lights []LightDesc `json:"lights"`
	Camera *CameraDesc `json:"camera"`
}

type TextureDesc struct {
	URI string `json:"uri"`
}

// TextureRefDesc is a glTF-style texture binding.
type TextureRefDesc struct {
	Index     int              `json:"index"`
	TexCoord  int              `json:"texCoord"`
	Scale     *float64         `json:"scale"`
	Strength  *float64         `json:"strength"`
	Transform *UVTransformDesc `json:"transform"`
}

// UVTransformDesc follows KHR_texture_transform.
type UVTransformDesc struct {
	Offset   [2]float64  `json:"offset"`
	Rotation float64     `json:"rotation"`
	Scale    *[2]float64 `json:"scale"`
}

type PBRDesc struct {
	BaseColorFactor          *[4]float64     `json:"baseColorFactor"`
	BaseColorTexture         *TextureRefDesc `json:"baseColorTexture"`
	MetallicFactor           *float64        `json:"metallicFactor"`
	RoughnessFactor          *float64        `json:"roughnessFactor"`
	MetallicRoughnessTexture *TextureRefDesc `json:"metallicRoughnessTexture"`
	NormalTexture            *TextureRefDesc `json:"normalTexture"`
	OcclusionTexture         *TextureRefDesc `json:"occlusionTexture"`
	EmissiveFactor           *[3]float64     `json:"emissiveFactor"`
	EmissiveTexture          *TextureRefDesc `json:"emissiveTexture"`
	AlphaMode                string          `json:"alphaMode"`
	AlphaCutoff              *float64        `json:"alphaCutoff"`
	DoubleSided              bool            `json:"doubleSided"`
	IOR                      *float64        `json:"ior"`
}

// OpenDesc names a measured IOR file, resolved against the IOR directory.
type OpenDesc struct {
	IOR         string   `json:"ior"`
	Temperature *float64 `json:"temperature"`
}

type DiffuseDesc struct {
	Color   *[4]float64     `json:"color"`
	Texture *TextureRefDesc `json:"texture"`
}

type MaterialDesc struct {
	Name    string       `json:"name"`
	PBR     *PBRDesc     `json:"pbr"`
	Open    *OpenDesc    `json:"open"`
	Diffuse *DiffuseDesc `json:"diffuse"`
}

// MeshDesc is a mesh given by file, by shape name or by inline arrays.
type MeshDesc struct {
	Name     string  `json:"name"`
	URI      string  `json:"uri"`
	Shape    string  `json:"shape"`
	Size     float64 `json:"size"`
	Segments int     `json:"segments"`
	Rings    int     `json:"rings"`
	Material *int    `json:"material"`

	Positions []float32   `json:"positions"`
	Normals   []float32   `json:"normals"`
	Tangents  []float32   `json:"tangents"`
	TexCoords [][]float32 `json:"texcoords"`
	Indices   []uint32    `json:"indices"`
}

// NodeDesc places a mesh. Matrix is column-major as in glTF and wins over
// translation, rotation and scale.
type NodeDesc struct {
	Name        string       `json:"name"`
	Mesh        *int         `json:"mesh"`
	Translation *[3]float64  `json:"translation"`
	Rotation    *[4]float64  `json:"rotation"`
	Scale       *[3]float64  `json:"scale"`
	Matrix      *[16]float64 `json:"matrix"`
	Children    []int        `json:"children"`
}

// LightDesc is a point light. With Node set, Position is relative to the
// node's world transform.
type LightDesc struct {
	Node      *int        `json:"node"`
	Position  [3]float64  `json:"position"`
	Color     *[3]float64 `json:"color"`
	Intensity *float64    `json:"intensity"`
	Range     float64     `json:"range"`
}

type CameraDesc struct {
	Position *[3]float64 `json:"position"`
	Target   *[3]float64 `json:"target"`
	Up       *[3]float64 `json:"up"`
	YFoV     float64     `json:"yfov"`
}

// ParseDocument decodes a JSON scene description.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for i, n := range doc.Nodes {
		if n.Mesh != nil && (*n.Mesh < 0 || *n.Mesh >= len(doc.Meshes)) {
			return nil, fmt.Errorf("node %d: mesh %d out of range", i, *n.Mesh)
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(doc.Nodes) || c == i {
				return nil, fmt.Errorf("node %d: bad child %d", i, c)
			}
		}
	}
	return &doc, nil
}

func vec3(a *[3]float64, def mathutil.Vec3) mathutil.Vec3 {
	if a == nil {
		return def
	}
	return mathutil.Vec3(*a)
}

func orDefault(f *float64, def float64) float64 {
	if f == nil {
		return def
	}
	return *f
}

// textureRef converts a binding; nil yields an unbound reference.
func (d *TextureRefDesc) textureRef() material.TextureRef {
	if d == nil {
		return material.NoTexture()
	}
	ref := material.TextureRef{Index: d.Index, TexCoord: d.TexCoord, Transform: mathutil.Mat3Identity()}
	if t := d.Transform; t != nil {
		scale := mathutil.Vec2{1, 1}
		if t.Scale != nil {
			scale = mathutil.Vec2(*t.Scale)
		}
		ref.Transform = material.UVTransform(mathutil.Vec2(t.Offset), t.Rotation, scale)
	}
	return ref
}

// params overlays the record on the glTF defaults.
func (d *PBRDesc) params() material.PBRParams {
	p := material.DefaultPBRParams()
	if d.BaseColorFactor != nil {
		p.BaseColorFactor = mathutil.Vec4(*d.BaseColorFactor)
	}
	p.BaseColorTexture = d.BaseColorTexture.textureRef()
	p.MetallicFactor = orDefault(d.MetallicFactor, p.MetallicFactor)
	p.RoughnessFactor = orDefault(d.RoughnessFactor, p.RoughnessFactor)
	p.MetallicRoughnessTexture = d.MetallicRoughnessTexture.textureRef()
	p.NormalTexture = d.NormalTexture.textureRef()
	if d.NormalTexture != nil {
		p.NormalScale = orDefault(d.NormalTexture.Scale, p.NormalScale)
	}
	p.OcclusionTexture = d.OcclusionTexture.textureRef()
	if d.OcclusionTexture != nil {
		p.OcclusionStrength = orDefault(d.OcclusionTexture.Strength, p.OcclusionStrength)
	}
	p.EmissiveFactor = vec3(d.EmissiveFactor, p.EmissiveFactor)
	p.EmissiveTexture = d.EmissiveTexture.textureRef()
	p.AlphaMode = material.ParseAlphaMode(d.AlphaMode)
	p.AlphaCutoff = orDefault(d.AlphaCutoff, p.AlphaCutoff)
	p.DoubleSided = d.DoubleSided
	p.IOR = orDefault(d.IOR, p.IOR)
	return p
}

func (d *DiffuseDesc) material(id int) *material.Diffuse {
	color := mathutil.Vec4{1, 1, 1, 1}
	if d.Color != nil {
		color = mathutil.Vec4(*d.Color)
	}
	m := material.NewDiffuse(id, color)
	if d.Texture != nil {
		m.ColorMap = d.Texture.Index
		m.ColorChannel = d.Texture.TexCoord
	}
	return m
}

// intensity is color × intensity, both defaulting to one.
func (l *LightDesc) intensity() mathutil.Vec3 {
	return vec3(l.Color, mathutil.Vec3{1, 1, 1}).Scale(orDefault(l.Intensity, 1))
}

// local returns the node's own transform.
func (n *NodeDesc) local() mathutil.Mat4 {
	if n.Matrix != nil {
		return mathutil.Mat4(*n.Matrix).Transpose()
	}
	q := mathutil.QuatIdentity()
	if n.Rotation != nil {
		q = mathutil.Quat(*n.Rotation).Normalize()
	}
	return mathutil.FromTRS(vec3(n.Translation, mathutil.Vec3{}), q, vec3(n.Scale, mathutil.Vec3{1, 1, 1}))
}
