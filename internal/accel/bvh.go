package accel

import (
	"sort"

	"bdpt-renderer/internal/mathutil"
)

// Leaf threshold: ranges of this many primitives or fewer become leaves.
const leafThreshold = 4

// node is one entry of a flattened BVH. Interior nodes keep their first
// child right after themselves and the second at secondChild.
type node struct {
	bounds      AABB
	start       int // first index into bvh.prims (leaves only)
	count       int // 0 for interior nodes
	secondChild int
}

// bvh is a flattened median-split hierarchy over abstract primitives.
type bvh struct {
	nodes []node
	prims []int
}

func buildBVH(bounds []AABB) *bvh {
	b := &bvh{prims: make([]int, len(bounds))}
	if len(bounds) == 0 {
		return b
	}
	centers := make([]mathutil.Vec3, len(bounds))
	for i := range bounds {
		b.prims[i] = i
		centers[i] = bounds[i].Center()
	}
	b.nodes = make([]node, 0, 2*len(bounds)/leafThreshold+1)
	b.build(bounds, centers, 0, len(bounds))
	return b
}

func (b *bvh) build(bounds []AABB, centers []mathutil.Vec3, lo, hi int) int {
	box := EmptyAABB()
	cbox := EmptyAABB()
	for _, p := range b.prims[lo:hi] {
		box = box.Union(bounds[p])
		cbox = cbox.Extend(centers[p])
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{bounds: box})
	if hi-lo <= leafThreshold {
		b.nodes[idx].start = lo
		b.nodes[idx].count = hi - lo
		return idx
	}

	axis := cbox.LongestAxis()
	part := b.prims[lo:hi]
	sort.Slice(part, func(i, j int) bool {
		return centers[part[i]][axis] < centers[part[j]][axis]
	})
	mid := lo + (hi-lo)/2

	b.build(bounds, centers, lo, mid)
	second := b.build(bounds, centers, mid, hi)
	b.nodes[idx].secondChild = second
	return idx
}

// traverse visits every leaf primitive whose node boxes the ray overlaps.
// visit returns the new closest distance when it records a hit. Median
// splits keep the depth logarithmic, so a fixed stack suffices.
func (b *bvh) traverse(org, dir mathutil.Vec3, tmin, tmax float64, visit func(prim int, tmax float64) (float64, bool)) {
	if len(b.nodes) == 0 {
		return
	}
	inv := mathutil.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	var stack [64]int
	sp := 1
	for sp > 0 {
		sp--
		cur := stack[sp]
		n := &b.nodes[cur]
		if !n.bounds.hit(org, inv, tmin, tmax) {
			continue
		}
		if n.count > 0 {
			for _, p := range b.prims[n.start : n.start+n.count] {
				if t, ok := visit(p, tmax); ok {
					tmax = t
				}
			}
			continue
		}
		stack[sp] = n.secondChild
		stack[sp+1] = cur + 1
		sp += 2
	}
}
