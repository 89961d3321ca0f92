package mesh

import "bdpt-renderer/internal/mathutil"

// Instance places a mesh in the world.
type Instance struct {
	ID        int
	MeshID    int
	Transform mathutil.Mat4
	// NormalMatrix is inverse(transpose(upper 3x3 of Transform)).
	NormalMatrix mathutil.Mat3
	Valid        bool
}

// NewInstance derives the normal matrix from tm.
func NewInstance(id, meshID int, tm mathutil.Mat4) Instance {
	return Instance{
		ID:           id,
		MeshID:       meshID,
		Transform:    tm,
		NormalMatrix: tm.Upper3().NormalMatrix(),
		Valid:        true,
	}
}
