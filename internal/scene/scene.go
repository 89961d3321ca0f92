// Package scene aggregates meshes, instances, materials, textures and
// lights into an immutable, traceable scene.
package scene

import (
	"errors"
	"fmt"

	"bdpt-renderer/internal/accel"
	"bdpt-renderer/internal/background"
	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/material"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/sampler"
	"bdpt-renderer/internal/texture"
)

var (
	// ErrNothingToRender is returned by Commit when no instance is valid.
	ErrNothingToRender = errors.New("scene: nothing to render")
	// ErrNotCommitted is returned when a scene is traced before Commit.
	ErrNotCommitted = errors.New("scene: not committed")
)

// Scene owns flat, index-addressed arrays of every entity. Setters may only
// be called before Commit; afterwards the scene is read-only and may be
// shared by any number of goroutines.
type Scene struct {
	meshes     []*mesh.Mesh
	instances  []mesh.Instance
	materials  []material.Material // last slot is the missing material
	textures   []*texture.Bitmap
	lights     []light.Light
	background background.Background

	falseColor material.Subject

	committed  bool
	commitLog  []string
	tracer     *accel.Scene
	lightDist  *distribution
	primOffset []int
}

// New returns an empty scene.
func New() *Scene {
	s := &Scene{}
	s.Allocate(0, 0, 0, 0, 0)
	return s
}

// Allocate resets the scene and sizes every array. The material table gets
// one extra slot holding the missing material.
func (s *Scene) Allocate(meshN, instanceN, materialN, textureN, lightN int) {
	*s = Scene{
		meshes:    make([]*mesh.Mesh, max(meshN, 0)),
		instances: make([]mesh.Instance, max(instanceN, 0)),
		materials: make([]material.Material, max(materialN, 0)+1),
		textures:  make([]*texture.Bitmap, max(textureN, 0)),
		lights:    make([]light.Light, max(lightN, 0)),
	}
	for i := range s.instances {
		s.instances[i] = mesh.Instance{ID: i, MeshID: -1}
	}
	s.materials[len(s.materials)-1] = material.NewMissing(len(s.materials) - 1)
}

// SetMesh binds mesh i. Out-of-range indices are ignored.
func (s *Scene) SetMesh(i int, m *mesh.Mesh) bool {
	if s.committed || m == nil || i < 0 || i >= len(s.meshes) {
		return false
	}
	m.ID = i
	s.meshes[i] = m
	return true
}

// SetInstance places mesh meshID with transform tm.
func (s *Scene) SetInstance(i, meshID int, tm mathutil.Mat4) bool {
	if s.committed || i < 0 || i >= len(s.instances) {
		return false
	}
	s.instances[i] = mesh.NewInstance(i, meshID, tm)
	return true
}

// SetMaterial binds material i. The missing-material slot cannot be replaced.
func (s *Scene) SetMaterial(i int, m material.Material) bool {
	if s.committed || i < 0 || i >= len(s.materials)-1 {
		return false
	}
	s.materials[i] = m
	return true
}

// SetTexture binds texture i.
func (s *Scene) SetTexture(i int, b *texture.Bitmap) bool {
	if s.committed || i < 0 || i >= len(s.textures) {
		return false
	}
	s.textures[i] = b
	return true
}

// SetLight binds light i.
func (s *Scene) SetLight(i int, l light.Light) bool {
	if s.committed || i < 0 || i >= len(s.lights) {
		return false
	}
	s.lights[i] = l
	return true
}

// SetBackground sets the radiance of escaping camera rays; nil disables it.
func (s *Scene) SetBackground(bg background.Background) {
	if !s.committed {
		s.background = bg
	}
}

// SetFalseColor makes every material paint subject instead of scattering.
func (s *Scene) SetFalseColor(subject material.Subject) {
	if !s.committed {
		s.falseColor = subject
	}
}

// Commit resolves materials, generates missing normals and tangents,
// validates instances, binds textures, builds the light distribution and
// the acceleration structure. It returns human-readable notes about
// recoverable problems. Calling Commit again returns the same notes.
func (s *Scene) Commit() ([]string, error) {
	if s.committed {
		return append([]string(nil), s.commitLog...), nil
	}
	var notes []string
	missing := len(s.materials) - 1

	for i, m := range s.meshes {
		if m == nil {
			notes = append(notes, fmt.Sprintf("%d mesh is undefined", i))
			continue
		}
		normCh := -1
		if m.MaterialID >= 0 && m.MaterialID < missing {
			if mat := s.materials[m.MaterialID]; mat != nil {
				normCh = mat.NormalTextureChannel()
			} else {
				notes = append(notes, fmt.Sprintf("%d mesh refers to undefined material %d", i, m.MaterialID))
				m.MaterialID = missing
			}
		} else {
			m.MaterialID = missing
		}
		if !m.Commit(normCh) {
			notes = append(notes, fmt.Sprintf("%d mesh is inconsistent", i))
		}
	}

	invalid := 0
	for i := range s.instances {
		inst := &s.instances[i]
		if inst.MeshID < 0 || inst.MeshID >= len(s.meshes) || s.meshes[inst.MeshID] == nil || !s.meshes[inst.MeshID].Valid() {
			inst.MeshID = -1
			inst.Valid = false
			invalid++
		}
	}
	if invalid > 0 {
		notes = append(notes, fmt.Sprintf("%d from %d instances are invalid", invalid, len(s.instances)))
	}
	if invalid == len(s.instances) {
		return notes, ErrNothingToRender
	}

	var painter material.Painter
	if s.falseColor != "" {
		p, err := material.NewPainter(s.falseColor, s.counts())
		if err != nil {
			return notes, fmt.Errorf("scene: commit: %w", err)
		}
		painter = p
	}
	for _, mat := range s.materials {
		if mat == nil {
			continue
		}
		mat.SetTextures(s.textures)
		if painter != nil {
			mat.SetPainter(painter)
		}
	}

	weights := make([]float64, 0, len(s.lights))
	for _, l := range s.lights {
		if l != nil {
			weights = append(weights, l.Power())
		}
	}
	s.lights = compactLights(s.lights)
	s.lightDist = newDistribution(weights)

	s.primOffset = make([]int, len(s.meshes))
	geoms := make([]accel.Geometry, len(s.meshes))
	total := 0
	for i, m := range s.meshes {
		s.primOffset[i] = total
		if m != nil && m.Valid() {
			geoms[i] = m
			total += m.FaceCount()
		}
	}
	refs := make([]accel.InstanceRef, 0, len(s.instances))
	for _, inst := range s.instances {
		if inst.Valid {
			refs = append(refs, accel.InstanceRef{ID: inst.ID, GeometryID: inst.MeshID, Transform: inst.Transform})
		}
	}
	tracer, err := accel.Build(geoms, refs)
	if err != nil {
		notes = append(notes, "can not create acceleration structure")
		return notes, fmt.Errorf("scene: commit: %w", err)
	}
	s.tracer = tracer
	s.committed = true
	s.commitLog = notes
	return append([]string(nil), notes...), nil
}

func compactLights(ls []light.Light) []light.Light {
	out := ls[:0]
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (s *Scene) counts() material.Counts {
	c := material.Counts{Geometries: len(s.meshes), Materials: len(s.materials) - 1}
	for _, m := range s.meshes {
		if m != nil {
			c.Primitives += m.FaceCount()
		}
	}
	return c
}

// Committed reports whether Commit has succeeded.
func (s *Scene) Committed() bool { return s.committed }

func (s *Scene) MeshCount() int     { return len(s.meshes) }
func (s *Scene) InstanceCount() int { return len(s.instances) }
func (s *Scene) TextureCount() int  { return len(s.textures) }
func (s *Scene) LightCount() int    { return len(s.lights) }

// MaterialCount excludes the missing-material slot.
func (s *Scene) MaterialCount() int { return len(s.materials) - 1 }

// Mesh returns mesh i or nil.
func (s *Scene) Mesh(i int) *mesh.Mesh {
	if i < 0 || i >= len(s.meshes) {
		return nil
	}
	return s.meshes[i]
}

// Instance returns instance i.
func (s *Scene) Instance(i int) (mesh.Instance, bool) {
	if i < 0 || i >= len(s.instances) {
		return mesh.Instance{}, false
	}
	return s.instances[i], true
}

// Material returns material i; unresolved ids yield the missing material.
func (s *Scene) Material(i int) material.Material {
	if i < 0 || i >= len(s.materials) || s.materials[i] == nil {
		return s.materials[len(s.materials)-1]
	}
	return s.materials[i]
}

// Texture returns texture i or nil.
func (s *Scene) Texture(i int) *texture.Bitmap {
	if i < 0 || i >= len(s.textures) {
		return nil
	}
	return s.textures[i]
}

// Light returns light i or nil.
func (s *Scene) Light(i int) light.Light {
	if i < 0 || i >= len(s.lights) {
		return nil
	}
	return s.lights[i]
}

// Background returns the scene background, possibly nil.
func (s *Scene) Background() background.Background { return s.background }

// Bounds returns the world bounding box of the valid instances.
func (s *Scene) Bounds() accel.AABB {
	if s.tracer == nil {
		return accel.EmptyAABB()
	}
	return s.tracer.Bounds()
}

// SampleLight picks a light proportionally to its power and returns it with
// its selection probability. It returns nil without lights.
func (s *Scene) SampleLight(smp *sampler.Sampler) (light.Light, float64) {
	if s.lightDist == nil || s.lightDist.count() == 0 {
		return nil, 0
	}
	id := s.lightDist.random(smp.Rand())
	if id < 0 {
		return nil, 0
	}
	return s.lights[id], s.lightDist.pdf(id)
}
