/*
 * tensor.go, part of godock.
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

package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Tensor is a dense, row-major N-dimensional array.
type Tensor struct {
	shape []int
	data  []float64
}

func volume(shape []int) int {
	v := 1
	for _, d := range shape {
		if d < 0 {
			panic(ErrNegativeDim)
		}
		v *= d
	}
	return v
}

//New returns a zero-filled Tensor with the given shape.
func New(shape ...int) *Tensor {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{shape: s, data: make([]float64, volume(s))}
}

//FromSlice returns a Tensor with the given shape that uses data as its storage (data is not copied).
//It returns an error if len(data) doesn't match the shape.
func FromSlice(data []float64, shape ...int) (*Tensor, error) {
	for _, d := range shape {
		if d < 0 {
			return nil, ShapeError("FromSlice", "negative dimension in shape %v", shape)
		}
	}
	if v := volume(shape); v != len(data) {
		return nil, ShapeError("FromSlice", "shape %v needs %d elements, %d given", shape, v, len(data))
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{shape: s, data: data}, nil
}

//MustFromSlice is like FromSlice, but panics on error.
func MustFromSlice(data []float64, shape ...int) *Tensor {
	t, err := FromSlice(data, shape...)
	if err != nil {
		panic(ErrShape)
	}
	return t
}

//Full returns a Tensor of the given shape filled with val.
func Full(val float64, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = val
	}
	return t
}

//Shape returns a copy of the shape of the tensor.
func (T *Tensor) Shape() []int {
	s := make([]int, len(T.shape))
	copy(s, T.shape)
	return s
}

//Rank returns the number of axes.
func (T *Tensor) Rank() int { return len(T.shape) }

//Dim returns the length of the axis i. Negative values count from the last axis.
func (T *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(T.shape)
	}
	if i < 0 || i >= len(T.shape) {
		panic(ErrIndexOutOfRange)
	}
	return T.shape[i]
}

//Len returns the total number of elements
func (T *Tensor) Len() int { return len(T.data) }

//Data returns the underlying storage. Changes to it are reflected in the Tensor.
func (T *Tensor) Data() []float64 { return T.data }

func (T *Tensor) offset(idx []int) int {
	if len(idx) != len(T.shape) {
		panic(ErrShape)
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= T.shape[i] {
			panic(ErrIndexOutOfRange)
		}
		off = off*T.shape[i] + v
	}
	return off
}

//At returns the element at the given index.
func (T *Tensor) At(idx ...int) float64 {
	return T.data[T.offset(idx)]
}

//Set puts val at the given index
func (T *Tensor) Set(val float64, idx ...int) {
	T.data[T.offset(idx)] = val
}

//Vec returns a slice view of the channels (last axis) at the index given for
//all the other axes.
func (T *Tensor) Vec(idx ...int) []float64 {
	c := T.shape[len(T.shape)-1]
	full := append(append(make([]int, 0, len(idx)+1), idx...), 0)
	off := T.offset(full)
	return T.data[off : off+c : off+c]
}

//Clone returns a deep copy of the tensor
func (T *Tensor) Clone() *Tensor {
	r := New(T.shape...)
	copy(r.data, T.data)
	return r
}

//Reshape returns a view of the Tensor with a new shape. One of the
//dimensions can be -1, in which case it is inferred.
func (T *Tensor) Reshape(shape ...int) *Tensor {
	s := make([]int, len(shape))
	copy(s, shape)
	infer := -1
	known := 1
	for i, d := range s {
		if d == -1 {
			if infer >= 0 {
				panic(ErrShape)
			}
			infer = i
			continue
		}
		known *= d
	}
	if infer >= 0 {
		if known == 0 {
			panic(ErrShape)
		}
		s[infer] = len(T.data) / known
	}
	if volume(s) != len(T.data) {
		panic(ErrShape)
	}
	return &Tensor{shape: s, data: T.data}
}

//Slice returns a view of the elements lo to hi-1 along the first axis.
func (T *Tensor) Slice(lo, hi int) *Tensor {
	if len(T.shape) == 0 || lo < 0 || hi > T.shape[0] || lo > hi {
		panic(ErrIndexOutOfRange)
	}
	inner := 1
	for _, d := range T.shape[1:] {
		inner *= d
	}
	s := T.Shape()
	s[0] = hi - lo
	return &Tensor{shape: s, data: T.data[lo*inner : hi*inner : hi*inner]}
}

//Dense returns a gonum view of the tensor, with the last axis as columns and all the others
//collapsed into rows. It panics for tensors with no elements, as gonum does not allow empty
//matrices. Use Len to check.
func (T *Tensor) Dense() *mat.Dense {
	c := T.shape[len(T.shape)-1]
	return mat.NewDense(len(T.data)/c, c, T.data)
}

//FromDense returns a tensor of the given shape which shares the storage of D.
//D must not be a view with a stride different from its number of columns.
func FromDense(D *mat.Dense, shape ...int) *Tensor {
	raw := D.RawMatrix()
	r, c := D.Dims()
	if raw.Stride != c {
		panic(ErrShape)
	}
	return MustFromSlice(raw.Data[:r*c], shape...)
}

//Add returns a new tensor, the element-wise sum of T and B. The receiver is not modified.
func (T *Tensor) Add(B *Tensor) *Tensor {
	if !SameShape(T, B) {
		panic(ErrShape)
	}
	r := T.Clone()
	floats.Add(r.data, B.data)
	return r
}

//Scale returns a new tensor with all the elements of T multiplied by f.
func (T *Tensor) Scale(f float64) *Tensor {
	r := T.Clone()
	floats.Scale(f, r.data)
	return r
}

//MulElem returns a new tensor, the element-wise product of T and B.
func (T *Tensor) MulElem(B *Tensor) *Tensor {
	if !SameShape(T, B) {
		panic(ErrShape)
	}
	r := T.Clone()
	floats.Mul(r.data, B.data)
	return r
}

//Transpose01 returns a new tensor with the first 2 axes swapped.
func (T *Tensor) Transpose01() *Tensor {
	if len(T.shape) < 2 {
		panic(ErrShape)
	}
	n, m := T.shape[0], T.shape[1]
	inner := 1
	for _, d := range T.shape[2:] {
		inner *= d
	}
	s := T.Shape()
	s[0], s[1] = m, n
	r := New(s...)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			copy(r.data[(j*n+i)*inner:(j*n+i+1)*inner], T.data[(i*m+j)*inner:(i*m+j+1)*inner])
		}
	}
	return r
}

//Concat returns a new tensor with A and B concatenated along the first axis.
//All the other axes must match.
func Concat(A, B *Tensor) *Tensor {
	if len(A.shape) != len(B.shape) || len(A.shape) == 0 {
		panic(ErrShape)
	}
	for i := 1; i < len(A.shape); i++ {
		if A.shape[i] != B.shape[i] {
			panic(ErrShape)
		}
	}
	s := A.Shape()
	s[0] += B.shape[0]
	r := New(s...)
	copy(r.data, A.data)
	copy(r.data[len(A.data):], B.data)
	return r
}

//SameShape returns true if both tensors have the same shape.
func SameShape(A, B *Tensor) bool {
	if len(A.shape) != len(B.shape) {
		return false
	}
	for i, v := range A.shape {
		if B.shape[i] != v {
			return false
		}
	}
	return true
}

//AllFinite returns true if no element of the tensor is NaN or Inf.
func (T *Tensor) AllFinite() bool {
	for _, v := range T.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

//EqualApprox returns true if A and B have the same shape and all their elements
//are within tol of each other.
func EqualApprox(A, B *Tensor, tol float64) bool {
	return SameShape(A, B) && floats.EqualApprox(A.data, B.data, tol)
}

func (T *Tensor) String() string {
	return fmt.Sprintf("Tensor%v %v", T.shape, T.data)
}

//Check returns an error if T doesn't have the shape want. A value of -1 in want
//matches any length. name is used in the message.
func Check(caller, name string, T *Tensor, want ...int) error {
	if T == nil {
		return ShapeError(caller, "%s: nil tensor", name)
	}
	if len(T.shape) != len(want) {
		return ShapeError(caller, "%s: expected %d axes (%v), got shape %v", name, len(want), want, T.shape)
	}
	for i, w := range want {
		if w >= 0 && T.shape[i] != w {
			return ShapeError(caller, "%s: expected shape %v, got %v", name, want, T.shape)
		}
	}
	return nil
}

//Unbatch takes a tensor with a leading batch axis and returns a view without it.
//Only a batch of one is supported, anything else is an ErrBatch error.
func Unbatch(T *Tensor) (*Tensor, error) {
	if len(T.shape) == 0 {
		return nil, ShapeError("Unbatch", "scalar tensor has no batch axis")
	}
	if T.shape[0] != 1 {
		return nil, NewError(ErrBatch, "Unbatch", "batch size %d given", T.shape[0])
	}
	return &Tensor{shape: T.Shape()[1:], data: T.data}, nil
}
