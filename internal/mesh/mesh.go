// Package mesh holds triangle geometry in an interleaved float32 vertex
// buffer, scene instances and the surface points produced at intersections.
package mesh

import (
	"bdpt-renderer/internal/mathutil"
)

// MaxTexChannels is the number of texture-coordinate channels a mesh can carry.
const MaxTexChannels = 8

// Interleaved vertex layout: position, normal, tangent (xyz + handedness),
// then two floats per texture channel.
const (
	vertexOffs  = 0
	normalOffs  = 3
	tangentOffs = 6
	texOffs     = 10
)

// Mesh is one triangle mesh. Setters silently ignore out-of-range indices.
type Mesh struct {
	ID         int
	MaterialID int

	vertN, faceN int
	texChN       int
	stride       int

	vert  []float32
	faces []uint32

	texMap     [MaxTexChannels]int // scene channel → local slot, -1 when absent
	texFilled  int
	texDef     [MaxTexChannels]bool
	vertexDef  bool
	normalDef  bool
	tangentDef bool
}

// New allocates a mesh with zeroed buffers.
func New(id, vertN, faceN, texChannels, materialID int) *Mesh {
	if vertN < 0 {
		vertN = 0
	}
	if faceN < 0 {
		faceN = 0
	}
	texChannels = min(max(texChannels, 0), MaxTexChannels)
	m := &Mesh{
		ID:         id,
		MaterialID: materialID,
		vertN:      vertN,
		faceN:      faceN,
		texChN:     texChannels,
		stride:     texOffs + 2*texChannels,
	}
	m.vert = make([]float32, vertN*m.stride)
	m.faces = make([]uint32, faceN*3)
	for i := range m.texMap {
		m.texMap[i] = -1
	}
	return m
}

func (m *Mesh) VertexCount() int { return m.vertN }
func (m *Mesh) FaceCount() int   { return m.faceN }

// TexChannels is the number of texture channels allocated.
func (m *Mesh) TexChannels() int { return m.texChN }

// Stride is the number of floats per vertex.
func (m *Mesh) Stride() int { return m.stride }

// HasTexChannel reports whether scene texture channel ch was provided.
func (m *Mesh) HasTexChannel(ch int) bool {
	return ch >= 0 && ch < MaxTexChannels && m.texMap[ch] >= 0 && m.texDef[m.texMap[ch]]
}

func (m *Mesh) at(i, offs int) []float32 {
	return m.vert[i*m.stride+offs:]
}

func put3(dst []float32, v mathutil.Vec3) {
	dst[0], dst[1], dst[2] = float32(v[0]), float32(v[1]), float32(v[2])
}

func get3(src []float32) mathutil.Vec3 {
	return mathutil.Vec3{float64(src[0]), float64(src[1]), float64(src[2])}
}

// SetVertex stores the position of vertex i.
func (m *Mesh) SetVertex(i int, v mathutil.Vec3) bool {
	if i < 0 || i >= m.vertN {
		return false
	}
	m.vertexDef = true
	put3(m.at(i, vertexOffs), v)
	return true
}

// SetNormal stores the normal of vertex i.
func (m *Mesh) SetNormal(i int, n mathutil.Vec3) bool {
	if i < 0 || i >= m.vertN {
		return false
	}
	m.normalDef = true
	put3(m.at(i, normalOffs), n)
	return true
}

// SetTangent stores the tangent of vertex i; t[3] carries the handedness.
func (m *Mesh) SetTangent(i int, t mathutil.Vec4) bool {
	if i < 0 || i >= m.vertN {
		return false
	}
	m.tangentDef = true
	d := m.at(i, tangentOffs)
	d[0], d[1], d[2], d[3] = float32(t[0]), float32(t[1]), float32(t[2]), float32(t[3])
	return true
}

// slot maps a scene texture channel to a local slot, claiming one on first use.
func (m *Mesh) slot(ch int) int {
	if ch < 0 || ch >= MaxTexChannels {
		return -1
	}
	if m.texMap[ch] == -1 {
		if m.texFilled >= m.texChN {
			return -1
		}
		m.texMap[ch] = m.texFilled
		m.texFilled++
	}
	return m.texMap[ch]
}

// SetTexCoord stores texture coordinate tc of vertex i in channel ch.
func (m *Mesh) SetTexCoord(ch, i int, tc mathutil.Vec2) bool {
	if i < 0 || i >= m.vertN {
		return false
	}
	s := m.slot(ch)
	if s < 0 {
		return false
	}
	m.texDef[s] = true
	d := m.at(i, texOffs+2*s)
	d[0], d[1] = float32(tc[0]), float32(tc[1])
	return true
}

// SetFace stores the vertex indices of face i.
func (m *Mesh) SetFace(i int, f [3]uint32) bool {
	if i < 0 || i >= m.faceN {
		return false
	}
	copy(m.faces[i*3:i*3+3], f[:])
	return true
}

// strided copies n components per vertex from src (stride floats apart)
// into the interleaved buffer at offs.
func (m *Mesh) strided(src []float32, stride, n, offs int) bool {
	if stride < n || m.vertN == 0 || len(src) < (m.vertN-1)*stride+n {
		return false
	}
	for i := 0; i < m.vertN; i++ {
		copy(m.vert[i*m.stride+offs:i*m.stride+offs+n], src[i*stride:i*stride+n])
	}
	return true
}

// SetVertices copies all positions from a strided buffer.
func (m *Mesh) SetVertices(v []float32, stride int) bool {
	ok := m.strided(v, stride, 3, vertexOffs)
	m.vertexDef = m.vertexDef || ok
	return ok
}

// SetNormals copies all normals from a strided buffer.
func (m *Mesh) SetNormals(n []float32, stride int) bool {
	ok := m.strided(n, stride, 3, normalOffs)
	m.normalDef = m.normalDef || ok
	return ok
}

// SetTangents copies all tangents (4 floats) from a strided buffer.
func (m *Mesh) SetTangents(t []float32, stride int) bool {
	ok := m.strided(t, stride, 4, tangentOffs)
	m.tangentDef = m.tangentDef || ok
	return ok
}

// SetTexCoords copies channel ch from a strided buffer.
func (m *Mesh) SetTexCoords(ch int, tc []float32, stride int) bool {
	if stride < 2 || m.vertN == 0 || len(tc) < (m.vertN-1)*stride+2 {
		return false
	}
	s := m.slot(ch)
	if s < 0 {
		return false
	}
	m.texDef[s] = true
	return m.strided(tc, stride, 2, texOffs+2*s)
}

// SetFaces copies faceN index triplets.
func (m *Mesh) SetFaces(f []uint32) bool {
	if len(f) < m.faceN*3 {
		return false
	}
	copy(m.faces, f[:m.faceN*3])
	return true
}

// Vertex returns the object-space position of vertex i.
func (m *Mesh) Vertex(i int) mathutil.Vec3 { return get3(m.at(i, vertexOffs)) }

// Normal returns the object-space normal of vertex i.
func (m *Mesh) Normal(i int) mathutil.Vec3 { return get3(m.at(i, normalOffs)) }

// Tangent returns the tangent of vertex i with its handedness in [3].
func (m *Mesh) Tangent(i int) mathutil.Vec4 {
	d := m.at(i, tangentOffs)
	return mathutil.Vec4{float64(d[0]), float64(d[1]), float64(d[2]), float64(d[3])}
}

// Face returns the vertex indices of face i.
func (m *Mesh) Face(i int) [3]uint32 {
	return [3]uint32{m.faces[i*3], m.faces[i*3+1], m.faces[i*3+2]}
}

// Triangle returns the object-space corners of face i.
func (m *Mesh) Triangle(i int) (p0, p1, p2 mathutil.Vec3) {
	f := m.Face(i)
	return m.Vertex(int(f[0])), m.Vertex(int(f[1])), m.Vertex(int(f[2]))
}

// Valid reports whether the mesh has vertices, faces, positions and only
// in-range face indices.
func (m *Mesh) Valid() bool {
	if m.vertN <= 0 || m.faceN <= 0 || len(m.vert) == 0 || !m.vertexDef {
		return false
	}
	for _, idx := range m.faces {
		if int(idx) >= m.vertN {
			return false
		}
	}
	return true
}

// TexCoord interpolates channel ch of face at the barycentric coordinates bary.
func (m *Mesh) TexCoord(bary mathutil.Vec3, face, ch int) (mathutil.Vec2, bool) {
	if face < 0 || face >= m.faceN || ch < 0 || ch >= MaxTexChannels || m.texMap[ch] < 0 {
		return mathutil.Vec2{}, false
	}
	offs := texOffs + 2*m.texMap[ch]
	f := m.Face(face)
	var tc mathutil.Vec2
	for k := 0; k < 3; k++ {
		uv := m.at(int(f[k]), offs)
		tc[0] += float64(uv[0]) * bary[k]
		tc[1] += float64(uv[1]) * bary[k]
	}
	return tc, true
}

// Commit validates the mesh and generates missing normals and tangents.
// Tangents follow the UV gradient of normalTexCh when that channel exists.
func (m *Mesh) Commit(normalTexCh int) bool {
	if !m.Valid() {
		return false
	}
	if !m.normalDef {
		m.computeNormals()
	}
	if !m.tangentDef {
		if m.HasTexChannel(normalTexCh) {
			m.computeTangentsFromUV(m.texMap[normalTexCh])
		} else {
			m.computeAxisTangents()
		}
	}
	return true
}
