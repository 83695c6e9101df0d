package geom

import (
	"fmt"
	"math"
)

// Solid is a closed polyhedron described by vertices and planar faces.
// Faces index into Vertices and wind counter-clockwise seen from outside.
// The core emits solids as cutting tools; the host CAD kernel performs
// the actual booleans against member stock.
type Solid struct {
	Vertices []Vec3  `json:"vertices"`
	Faces    [][]int `json:"faces"`
}

// IsEmpty reports whether the solid has no geometry.
func (s Solid) IsEmpty() bool {
	return len(s.Vertices) == 0
}

// Translate returns a copy of the solid moved by d.
func (s Solid) Translate(d Vec3) Solid {
	out := Solid{Vertices: make([]Vec3, len(s.Vertices)), Faces: s.Faces}
	for i, v := range s.Vertices {
		out.Vertices[i] = v.Add(d)
	}
	return out
}

// CutRecipe is a boolean subtraction the host kernel executes:
// Base minus every solid in Subtract. Families that need a ring of
// material removed around a tenon express it this way instead of
// performing CSG in the core.
type CutRecipe struct {
	Base     Solid   `json:"base"`
	Subtract []Solid `json:"subtract,omitempty"`
}

// Compound is an ordered list of solids treated as one display shape.
type Compound []Solid

// Prism extrudes a closed planar polygon (listed once, no repeated first
// vertex) along dir. Fails on degenerate input so callers can fall back
// to placeholder geometry instead of emitting a zero-volume tool.
func Prism(polygon []Vec3, dir Vec3) (Solid, error) {
	n := len(polygon)
	if n < 3 {
		return Solid{}, fmt.Errorf("geom: prism polygon needs >= 3 vertices, got %d", n)
	}
	if dir.Length() < Epsilon {
		return Solid{}, fmt.Errorf("geom: prism extrusion is near-zero")
	}
	if polygonArea(polygon) < Epsilon {
		return Solid{}, fmt.Errorf("geom: prism polygon is degenerate")
	}

	verts := make([]Vec3, 0, 2*n)
	verts = append(verts, polygon...)
	for _, p := range polygon {
		verts = append(verts, p.Add(dir))
	}

	faces := make([][]int, 0, n+2)
	bottom := make([]int, n)
	top := make([]int, n)
	for i := 0; i < n; i++ {
		// Bottom winds opposite to top so both face outward.
		bottom[i] = n - 1 - i
		top[i] = n + i
	}
	faces = append(faces, bottom, top)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		faces = append(faces, []int{i, j, n + j, n + i})
	}
	return Solid{Vertices: verts, Faces: faces}, nil
}

// Box builds a parallelepiped from a corner point and three edge vectors.
// The edges may be skewed; joinery cut through an oblique frame is a
// sheared box, not an axis-aligned one.
func Box(corner, ex, ey, ez Vec3) (Solid, error) {
	base := []Vec3{
		corner,
		corner.Add(ex),
		corner.Add(ex).Add(ey),
		corner.Add(ey),
	}
	return Prism(base, ez)
}

// TrapezoidPrism builds the dovetail solid: a prism whose cross-section is
// narrowWidth at the entry face and wideWidth at depth along depthDir.
// origin is the centre of the entry face; widthDir carries the taper,
// heightDir the constant dimension.
func TrapezoidPrism(origin, widthDir, heightDir, depthDir Vec3, narrowWidth, wideWidth, height, depth float64) (Solid, error) {
	if narrowWidth < Epsilon || wideWidth < Epsilon || height < Epsilon || depth < Epsilon {
		return Solid{}, fmt.Errorf("geom: trapezoid prism dimension is near-zero")
	}
	back := origin.Add(depthDir.Scale(depth))

	e1 := origin.Sub(widthDir.Scale(narrowWidth / 2)).Sub(heightDir.Scale(height / 2))
	e2 := origin.Add(widthDir.Scale(narrowWidth / 2)).Sub(heightDir.Scale(height / 2))
	e3 := origin.Add(widthDir.Scale(narrowWidth / 2)).Add(heightDir.Scale(height / 2))
	e4 := origin.Sub(widthDir.Scale(narrowWidth / 2)).Add(heightDir.Scale(height / 2))

	b1 := back.Sub(widthDir.Scale(wideWidth / 2)).Sub(heightDir.Scale(height / 2))
	b2 := back.Add(widthDir.Scale(wideWidth / 2)).Sub(heightDir.Scale(height / 2))
	b3 := back.Add(widthDir.Scale(wideWidth / 2)).Add(heightDir.Scale(height / 2))
	b4 := back.Sub(widthDir.Scale(wideWidth / 2)).Add(heightDir.Scale(height / 2))

	return Solid{
		Vertices: []Vec3{e1, e2, e3, e4, b1, b2, b3, b4},
		Faces: [][]int{
			{3, 2, 1, 0}, // entry
			{4, 5, 6, 7}, // back
			{0, 1, 5, 4}, // bottom
			{2, 3, 7, 6}, // top
			{1, 2, 6, 5}, // right
			{3, 0, 4, 7}, // left
		},
	}, nil
}

// Cylinder approximates a peg as a prism with the given number of sides.
// base is one end of the axis; the solid extends length along axis.
func Cylinder(base, axis Vec3, radius, length float64, sides int) (Solid, error) {
	if radius < Epsilon || length < Epsilon {
		return Solid{}, fmt.Errorf("geom: cylinder dimension is near-zero")
	}
	if sides < 3 {
		sides = 16
	}
	dir, err := axis.Unit()
	if err != nil {
		return Solid{}, fmt.Errorf("geom: cylinder axis: %w", err)
	}
	u := perpendicular(dir)
	v := dir.Cross(u)

	ring := make([]Vec3, sides)
	for i := 0; i < sides; i++ {
		a := 2 * math.Pi * float64(i) / float64(sides)
		ring[i] = base.Add(u.Scale(radius * math.Cos(a))).Add(v.Scale(radius * math.Sin(a)))
	}
	return Prism(ring, dir.Scale(length))
}

// PlaceholderBox is the safe fallback shape emitted when geometry
// construction fails: a 1mm cube at the given point, never nothing.
func PlaceholderBox(at Vec3) Solid {
	s, _ := Box(at, Vec3{X: 1}, Vec3{Y: 1}, Vec3{Z: 1})
	return s
}

// perpendicular returns a unit vector perpendicular to unit vector d,
// using the same up-hint rule as member local frames.
func perpendicular(d Vec3) Vec3 {
	up := Vec3{Z: 1}
	if math.Abs(d.Dot(up)) > 0.999 {
		up = Vec3{Y: 1}
	}
	p, _ := d.Cross(up).Unit()
	return p
}

// polygonArea returns the area of a planar polygon in 3D.
func polygonArea(poly []Vec3) float64 {
	var acc Vec3
	for i := range poly {
		j := (i + 1) % len(poly)
		acc = acc.Add(poly[i].Cross(poly[j]))
	}
	return acc.Length() / 2
}
