package shape

import (
	"github.com/chewxy/math32"
	"github.com/raydex/raydex/types"
)

// A triangle mesh. Vertices are shared between triangles through the index
// triples; texcoords are optional and, when present, parallel the vertex
// array.
type Mesh struct {
	RefCounted

	vertices  []types.Vec3
	triangles [][3]uint32
	texcoords []types.Vec2

	bbox types.AABB
}

func NewMesh(vertices []types.Vec3, triangles [][3]uint32, texcoords []types.Vec2) *Mesh {
	m := &Mesh{
		vertices:  vertices,
		triangles: triangles,
		texcoords: texcoords,
		bbox:      types.EmptyAABB(),
	}
	for _, v := range vertices {
		m.bbox.ExpandPoint(v)
	}
	return m
}

func (m *Mesh) TriangleCount() int {
	return len(m.triangles)
}

// Vertex index triple for triangle i.
func (m *Mesh) TriangleIndices(i int) [3]uint32 {
	return m.triangles[i]
}

// Vertex positions for triangle i.
func (m *Mesh) Triangle(i int) (v0, v1, v2 types.Vec3) {
	tri := m.triangles[i]
	return m.vertices[tri[0]], m.vertices[tri[1]], m.vertices[tri[2]]
}

func (m *Mesh) VertexPositions() []types.Vec3 {
	return m.vertices
}

// Per-vertex texture coordinates, or nil when the mesh carries none.
func (m *Mesh) Texcoords() []types.Vec2 {
	return m.texcoords
}

func (m *Mesh) TriangleBBox(i int) types.AABB {
	v0, v1, v2 := m.Triangle(i)
	box := types.EmptyAABB()
	box.ExpandPoint(v0)
	box.ExpandPoint(v1)
	box.ExpandPoint(v2)
	return box
}

func (m *Mesh) BBox() types.AABB {
	return m.bbox
}

// Brute-force ray test over all triangles. The index never takes this path
// for meshes (they go through the accelerator table); it exists for
// reference checks and for using meshes outside an index.
func (m *Mesh) Intersect(r *types.Ray, mint, maxt float32) (HitTemp, bool) {
	var best HitTemp
	found := false
	closest := maxt
	for i := range m.triangles {
		v0, v1, v2 := m.Triangle(i)
		if u, v, t, ok := IntersectTriangle(r, v0, v1, v2, mint, closest); ok {
			best = HitTemp{T: t, U: u, V: v, Prim: uint32(i)}
			closest = t
			found = true
		}
	}
	return best, found
}

func (m *Mesh) FillIntersection(r *types.Ray, tmp HitTemp, n *types.Vec3, uv *types.Vec2) {
	v0, v1, v2 := m.Triangle(int(tmp.Prim))
	*n = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	if m.texcoords != nil {
		tri := m.triangles[tmp.Prim]
		t0 := m.texcoords[tri[0]]
		t1 := m.texcoords[tri[1]]
		t2 := m.texcoords[tri[2]]
		w := 1 - tmp.U - tmp.V
		*uv = t0.Mul(w).Add(t1.Mul(tmp.U)).Add(t2.Mul(tmp.V))
	} else {
		*uv = types.Vec2{}
	}
}

// Möller–Trumbore ray/triangle test. Returns barycentric u/v and the
// parametric hit distance.
func IntersectTriangle(r *types.Ray, v0, v1, v2 types.Vec3, mint, maxt float32) (u, v, t float32, ok bool) {
	const eps = 1e-9

	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	pvec := r.D.Cross(e2)
	det := e1.Dot(pvec)
	if math32.Abs(det) < eps {
		return 0, 0, 0, false
	}

	invDet := 1 / det
	tvec := r.O.Sub(v0)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	qvec := tvec.Cross(e1)
	v = r.D.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = e2.Dot(qvec) * invDet
	if t < mint || t > maxt {
		return 0, 0, 0, false
	}
	return u, v, t, true
}
