// Package geom provides the 3D math primitives for joinery geometry:
// vectors, segments, the oblique joint basis, and polyhedral solids.
//
// All lengths are millimetres, all angles degrees unless noted.
package geom

import (
	"fmt"
	"math"
)

// Epsilon below which a vector length is considered degenerate.
const Epsilon = 1e-6

// Vec3 is a point or direction in 3D space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v normalized to unit length.
func (v Vec3) Unit() (Vec3, error) {
	l := v.Length()
	if l < Epsilon {
		return Vec3{}, fmt.Errorf("geom: cannot normalize near-zero vector")
	}
	return v.Scale(1 / l), nil
}

// DistanceTo returns |v - w|.
func (v Vec3) DistanceTo(w Vec3) float64 {
	return v.Sub(w).Length()
}

// AngleBetweenDegrees returns the undirected angle between two directions,
// folded into [0, 90]. Direction sense is irrelevant for joinery: a beam
// meeting a post at 100 degrees is the same cut as one meeting at 80.
func AngleBetweenDegrees(a, b Vec3) (float64, error) {
	ua, err := a.Unit()
	if err != nil {
		return 0, err
	}
	ub, err := b.Unit()
	if err != nil {
		return 0, err
	}
	cos := math.Abs(ua.Dot(ub))
	if cos > 1 {
		cos = 1
	}
	return math.Acos(cos) * 180 / math.Pi, nil
}

// Segment is a finite line segment between two points.
type Segment struct {
	Start Vec3
	End   Vec3
}

// Direction returns End - Start (not normalized).
func (s Segment) Direction() Vec3 {
	return s.End.Sub(s.Start)
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.Direction().Length()
}

// PointAt returns the point at fractional parameter t (0 = Start, 1 = End).
func (s Segment) PointAt(t float64) Vec3 {
	return s.Start.Add(s.Direction().Scale(t))
}

// ClosestApproach computes the closest approach between two segments.
// Returns the closest point on each segment, the distance between them,
// and the clamped fractional parameters along each segment.
//
// Standard segment-segment minimum distance: solve the 2x2 system from
// the direction vectors, then clamp each parameter to [0,1] re-deriving
// the other.
func ClosestApproach(a, b Segment) (pa, pb Vec3, dist, s, t float64) {
	u := a.Direction()
	v := b.Direction()
	w := a.Start.Sub(b.Start)

	aa := u.Dot(u)
	bb := u.Dot(v)
	cc := v.Dot(v)
	dd := u.Dot(w)
	ee := v.Dot(w)

	denom := aa*cc - bb*bb

	// Near-parallel segments have no unique solution; pin s and derive t.
	if denom < 1e-10 {
		s = 0
		if cc > 1e-10 {
			t = ee / cc
		}
	} else {
		s = (bb*ee - cc*dd) / denom
		t = (aa*ee - bb*dd) / denom
	}

	s = clamp01(s)
	if cc > 1e-10 {
		t = (bb*s + ee) / cc
	} else {
		t = 0
	}
	t = clamp01(t)
	if aa > 1e-10 {
		s = (bb*t - dd) / aa
	} else {
		s = 0
	}
	s = clamp01(s)

	pa = a.PointAt(s)
	pb = b.PointAt(t)
	return pa, pb, pa.DistanceTo(pb), s, t
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
