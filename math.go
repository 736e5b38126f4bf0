// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import "github.com/chewxy/math32"

// Vec2 is a 2D vector of float32 components.
type Vec2 struct {
	X, Y float32
}

// Vec3 is a 3D vector of float32 components.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Mul returns the component-wise product.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// Len returns the Euclidean length.
func (v Vec3) Len() float32 { return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Up is the unit Y axis.
var Up = Vec3{0, 1, 0}

// Quat is a unit quaternion (x, y, z, w).
type Quat struct {
	X, Y, Z, W float32
}

// IdentityQuat returns the identity rotation.
func IdentityQuat() Quat { return Quat{W: 1} }

// AngleAxis returns a rotation of degrees around axis.
func AngleAxis(degrees float32, axis Vec3) Quat {
	l := axis.Len()
	if l == 0 {
		return IdentityQuat()
	}
	half := degrees * math32.Pi / 360
	s := math32.Sin(half) / l
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, math32.Cos(half)}
}

// Mul returns the Hamilton product q*o (apply o, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Inverse returns the inverse rotation. A zero quaternion maps to identity.
func (q Quat) Inverse() Quat {
	n := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if n == 0 {
		return IdentityQuat()
	}
	return Quat{-q.X / n, -q.Y / n, -q.Z / n, q.W / n}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := q.Mul(Quat{v.X, v.Y, v.Z, 0}).Mul(q.Inverse())
	return Vec3{p.X, p.Y, p.Z}
}

// Normalize returns q scaled to unit length; the zero quaternion maps to identity.
func (q Quat) Normalize() Quat {
	n := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return IdentityQuat()
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// Pose is a rigid transform.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// IdentityPose returns the pose at the origin with no rotation.
func IdentityPose() Pose { return Pose{Rotation: IdentityQuat()} }

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{Position: inv.Rotate(p.Position.Scale(-1)), Rotation: inv}
}

// Mul returns p composed with o (o expressed in p's frame).
func (p Pose) Mul(o Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(o.Position)),
		Rotation: p.Rotation.Mul(o.Rotation),
	}
}

// Rect is an axis-aligned rectangle in normalized [0, 1] texture coordinates.
type Rect struct {
	X, Y, Width, Height float32
}

// FullRect covers the whole texture.
var FullRect = Rect{0, 0, 1, 1}
