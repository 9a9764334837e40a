/*
 * frame.go, part of godock.
 *
 * Copyright 2026 The goDock authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package frame implements rigid frames: a rotation, stored as a unit quaternion, plus a translation.
//Each residue of the receptor and each atom of the ligand carries a frame, which defines its local
//coordinate system.
//
//Frames are values. Every operation returns a new Frame, and every operation that produces a
//new rotation normalizes it, so a Frame built through this package always holds a unit quaternion.
//Translations are kept in whatever units the caller uses. In goDock that is physical distances
//divided by the position scale, see ScaleTranslation.
package frame

import (
	"math"

	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

//ErrNonUnit is the panic message for a frame with a non-unit quaternion found where
//only unit quaternions should exist.
const ErrNonUnit = tensor.PanicMsg("godock/frame: non-unit quaternion")

//UnitTol is the tolerance for the norm of a quaternion to be considered 1.
const UnitTol = 1e-6

//InputTol is the tolerance used when reading quaternions given by the user, which are
//re-normalized afterwards.
const InputTol = 1e-3

//Frame is a rigid transformation x -> R(Rot)x + Trans.
type Frame struct {
	Rot   quat.Number
	Trans r3.Vec
}

//Identity returns the frame with no rotation and no translation.
func Identity() Frame {
	return Frame{Rot: quat.Number{Real: 1}}
}

//New returns a frame with the rotation q, normalized, and the translation t.
//It panics if q is zero.
func New(q quat.Number, t r3.Vec) Frame {
	return Frame{Rot: normalize(q), Trans: t}
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		panic(ErrNonUnit)
	}
	return quat.Scale(1/n, q)
}

//IsUnit returns true if the quaternion of F has norm 1 within UnitTol.
func (F Frame) IsUnit() bool {
	return math.Abs(quat.Abs(F.Rot)-1) <= UnitTol
}

//MustUnit panics with ErrNonUnit if any of the frames has a non-unit quaternion.
func MustUnit(frames []Frame) {
	for _, f := range frames {
		if !f.IsUnit() {
			panic(ErrNonUnit)
		}
	}
}

//Rotation returns the rotation matrix of F, in row-major order.
func (F Frame) Rotation() [3][3]float64 {
	w, x, y, z := F.Rot.Real, F.Rot.Imag, F.Rot.Jmag, F.Rot.Kmag
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

func rotate(R *[3][3]float64, p r3.Vec) r3.Vec {
	return r3.Vec{
		X: R[0][0]*p.X + R[0][1]*p.Y + R[0][2]*p.Z,
		Y: R[1][0]*p.X + R[1][1]*p.Y + R[1][2]*p.Z,
		Z: R[2][0]*p.X + R[2][1]*p.Y + R[2][2]*p.Z,
	}
}

func rotateT(R *[3][3]float64, p r3.Vec) r3.Vec {
	return r3.Vec{
		X: R[0][0]*p.X + R[1][0]*p.Y + R[2][0]*p.Z,
		Y: R[0][1]*p.X + R[1][1]*p.Y + R[2][1]*p.Z,
		Z: R[0][2]*p.X + R[1][2]*p.Y + R[2][2]*p.Z,
	}
}

//Apply maps a point from the local coordinates of F to global coordinates.
func (F Frame) Apply(p r3.Vec) r3.Vec {
	R := F.Rotation()
	return r3.Add(rotate(&R, p), F.Trans)
}

//Invert maps a point from global coordinates to the local coordinates of F.
func (F Frame) Invert(p r3.Vec) r3.Vec {
	R := F.Rotation()
	return rotateT(&R, r3.Sub(p, F.Trans))
}

//ApplyAll is like Apply for many points, which are overwritten.
func (F Frame) ApplyAll(p []r3.Vec) {
	R := F.Rotation()
	for i, v := range p {
		p[i] = r3.Add(rotate(&R, v), F.Trans)
	}
}

//InvertAll is like Invert for many points, which are overwritten.
func (F Frame) InvertAll(p []r3.Vec) {
	R := F.Rotation()
	for i, v := range p {
		p[i] = rotateT(&R, r3.Sub(v, F.Trans))
	}
}

//Inverse returns the frame G such that G.Apply(F.Apply(p))==p.
func (F Frame) Inverse() Frame {
	R := F.Rotation()
	return Frame{Rot: quat.Conj(F.Rot), Trans: r3.Scale(-1, rotateT(&R, F.Trans))}
}

//Compose returns the frame that applies G first, then F.
func (F Frame) Compose(G Frame) Frame {
	R := F.Rotation()
	return Frame{Rot: normalize(quat.Mul(F.Rot, G.Rot)), Trans: r3.Add(F.Trans, rotate(&R, G.Trans))}
}

//PreCompose applies an update expressed in the local frame of F. The first 3 elements of update are the
//vector part of a quaternion with an implicit real part of 1, so a zero update is the identity.
//The last 3 elements are a translation in the local frame. The resulting quaternion is normalized.
func (F Frame) PreCompose(update [6]float64) Frame {
	dq := normalize(quat.Number{Real: 1, Imag: update[0], Jmag: update[1], Kmag: update[2]})
	R := F.Rotation()
	dt := rotate(&R, r3.Vec{X: update[3], Y: update[4], Z: update[5]})
	return Frame{Rot: normalize(quat.Mul(F.Rot, dq)), Trans: r3.Add(F.Trans, dt)}
}

//ScaleTranslation returns a copy of F with the translation multiplied by f. Dividing
//by the position scale (f=1/scale) takes physical coordinates to model coordinates.
func (F Frame) ScaleTranslation(f float64) Frame {
	return Frame{Rot: F.Rot, Trans: r3.Scale(f, F.Trans)}
}

//FromRotation returns the frame with the rotation matrix R and translation t.
//R is assumed to be a proper rotation. The quaternion is the eigenvector of the largest
//eigenvalue of a symmetric 4x4 matrix built from R, which tolerates slightly
//non-orthogonal input.
func FromRotation(R [3][3]float64, t r3.Vec) Frame {
	xx, xy, xz := R[0][0], R[0][1], R[0][2]
	yx, yy, yz := R[1][0], R[1][1], R[1][2]
	zx, zy, zz := R[2][0], R[2][1], R[2][2]
	k := mat.NewSymDense(4, []float64{
		xx + yy + zz, zy - yz, xz - zx, yx - xy,
		zy - yz, xx - yy - zz, xy + yx, xz + zx,
		xz - zx, xy + yx, yy - xx - zz, yz + zy,
		yx - xy, xz + zx, yz + zy, zz - xx - yy,
	})
	k.ScaleSym(1.0/3.0, k)
	var es mat.EigenSym
	if ok := es.Factorize(k, true); !ok {
		panic(tensor.ErrValue)
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	//the eigenvalues are in ascending order.
	q := quat.Number{Real: vecs.At(0, 3), Imag: vecs.At(1, 3), Jmag: vecs.At(2, 3), Kmag: vecs.At(3, 3)}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return New(q, t)
}

//ToTensor returns the frames as an [N,7] tensor, each row being
//the quaternion (real part first) followed by the translation.
func ToTensor(frames []Frame) *tensor.Tensor {
	t := tensor.New(len(frames), 7)
	d := t.Data()
	for i, f := range frames {
		copy(d[i*7:i*7+7], []float64{f.Rot.Real, f.Rot.Imag, f.Rot.Jmag, f.Rot.Kmag, f.Trans.X, f.Trans.Y, f.Trans.Z})
	}
	return t
}

//FromTensor reads frames from an [N,7] tensor, as written by ToTensor.
//Quaternions with a norm further than InputTol from 1 give an error with the tensor.ErrValue kind,
//others are normalized.
func FromTensor(t *tensor.Tensor) ([]Frame, error) {
	if err := tensor.Check("FromTensor", "frames", t, -1, 7); err != nil {
		return nil, err
	}
	d := t.Data()
	ret := make([]Frame, t.Dim(0))
	for i := range ret {
		r := d[i*7 : i*7+7]
		q := quat.Number{Real: r[0], Imag: r[1], Jmag: r[2], Kmag: r[3]}
		if n := quat.Abs(q); math.Abs(n-1) > InputTol {
			return nil, tensor.NewError(tensor.ErrValue, "FromTensor", "frame %d has a quaternion of norm %g", i, n)
		}
		ret[i] = New(q, r3.Vec{X: r[4], Y: r[5], Z: r[6]})
	}
	return ret, nil
}

//Identities returns n identity frames.
func Identities(n int) []Frame {
	ret := make([]Frame, n)
	for i := range ret {
		ret[i] = Identity()
	}
	return ret
}
