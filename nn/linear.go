/*
 * linear.go, part of godock.
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

//Package nn contains the small set of learned layers goDock is built from: linear maps,
//layer normalization and multi-layer perceptrons, plus activations and a masked, numerically
//stable softmax. All layers act on the last (channel) axis of a tensor.Tensor and return new
//tensors, never modifying their inputs.
package nn

import (
	"math"
	"math/rand"

	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Initializer fills freshly allocated parameters.
//fanIn is the number of inputs of the layer the parameters belong to.
type Initializer interface {
	Fill(data []float64, fanIn int)
}

//Uniform draws parameters from U(-1/sqrt(fanIn), 1/sqrt(fanIn)).
type Uniform struct {
	Rand *rand.Rand
}

//NewUniform returns a Uniform initializer seeded with seed.
func NewUniform(seed int64) Uniform {
	return Uniform{Rand: rand.New(rand.NewSource(seed))}
}

//Fill draws from U(-1/sqrt(fanIn), 1/sqrt(fanIn)).
func (U Uniform) Fill(data []float64, fanIn int) {
	lim := 1 / math.Sqrt(float64(fanIn))
	for i := range data {
		data[i] = (2*U.Rand.Float64() - 1) * lim
	}
}

//Zero sets all parameters to 0, so every layer is the zero map.
type Zero struct{}

func (Zero) Fill(data []float64, _ int) {
	for i := range data {
		data[i] = 0
	}
}

//Constant sets all parameters to the same value.
type Constant float64

func (C Constant) Fill(data []float64, _ int) {
	for i := range data {
		data[i] = float64(C)
	}
}

//Linear is an affine map y = xW + b acting on the last axis.
//B is nil for layers without bias.
type Linear struct {
	In, Out int
	W       *mat.Dense //In x Out
	B       []float64
}

//NewLinear returns a Linear layer with bias, its parameters filled by init.
func NewLinear(in, out int, init Initializer) *Linear {
	L := NewLinearNoBias(in, out, init)
	L.B = make([]float64, out)
	init.Fill(L.B, in)
	return L
}

//NewLinearNoBias returns a Linear layer without bias.
func NewLinearNoBias(in, out int, init Initializer) *Linear {
	if in <= 0 || out <= 0 {
		panic(tensor.ErrShape)
	}
	w := make([]float64, in*out)
	init.Fill(w, in)
	return &Linear{In: in, Out: out, W: mat.NewDense(in, out, w)}
}

//Forward applies the layer to x, which must have In channels. The result has
//the same shape as x except for the last axis, which is Out.
func (L *Linear) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dim(-1) != L.In {
		panic(tensor.ErrShape)
	}
	shape := x.Shape()
	shape[len(shape)-1] = L.Out
	out := tensor.New(shape...)
	if x.Len() == 0 {
		return out
	}
	out.Dense().Mul(x.Dense(), L.W)
	if L.B == nil {
		return out
	}
	d := out.Data()
	for i := 0; i < len(d); i += L.Out {
		floats.Add(d[i:i+L.Out], L.B)
	}
	return out
}

//MLP is a stack of Linear layers with ReLU activations between them (not after the last one).
type MLP struct {
	Layers []*Linear
}

//NewMLP returns an MLP with the given layer sizes, i.e. NewMLP(init, 8, 16, 4)
//maps 8 channels to 16, then to 4.
func NewMLP(init Initializer, sizes ...int) *MLP {
	if len(sizes) < 2 {
		panic(tensor.ErrShape)
	}
	M := &MLP{Layers: make([]*Linear, 0, len(sizes)-1)}
	for i := 1; i < len(sizes); i++ {
		M.Layers = append(M.Layers, NewLinear(sizes[i-1], sizes[i], init))
	}
	return M
}

//Forward applies the layers with a ReLU between them, not after the last one.
func (M *MLP) Forward(x *tensor.Tensor) *tensor.Tensor {
	for i, l := range M.Layers {
		x = l.Forward(x)
		if i < len(M.Layers)-1 {
			x = Apply(x, ReLU)
		}
	}
	return x
}
