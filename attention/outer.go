/*
 * outer.go, part of godock.
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

package attention

import (
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/mat"
)

//OuterProductMean lifts a single representation to a pair update: the outer product of two
//low-rank projections, averaged over rows, projected to the pair channels.
type OuterProductMean struct {
	mid   int
	Norm  *nn.LayerNorm
	Proj  *nn.Linear //C1 -> 2*mid, the left projection first
	Final *nn.Linear //mid*mid -> C2
}

//NewOuterProductMean returns the update from a single representation of c1 channels to a pair of c2.
func NewOuterProductMean(cfg MulConfig, c1, c2 int, init nn.Initializer) *OuterProductMean {
	return &OuterProductMean{
		mid:   cfg.MidC,
		Norm:  nn.NewLayerNorm(c1),
		Proj:  nn.NewLinear(c1, 2*cfg.MidC, init),
		Final: nn.NewLinear(cfg.MidC*cfg.MidC, c2, init),
	}
}

//Forward takes x1d [M,E,C1], with M>0, and returns an [E,E,C2] pair update.
func (O *OuterProductMean) Forward(x1d *tensor.Tensor) *tensor.Tensor {
	m, e := x1d.Dim(0), x1d.Dim(1)
	if m == 0 {
		panic(tensor.ErrShape)
	}
	if e == 0 {
		return tensor.New(0, 0, O.Final.Out)
	}
	p := O.Proj.Forward(O.Norm.Forward(x1d)).Reshape(m, e, 2, O.mid)
	//a and b are [M, E*mid] matrices, so a^T b holds the sums over rows
	//at ((i*mid+x), (j*mid+y)).
	a := mat.NewDense(m, e*O.mid, nil)
	b := mat.NewDense(m, e*O.mid, nil)
	for r := 0; r < m; r++ {
		for i := 0; i < e; i++ {
			for x := 0; x < O.mid; x++ {
				a.Set(r, i*O.mid+x, p.At(r, i, 0, x))
				b.Set(r, i*O.mid+x, p.At(r, i, 1, x))
			}
		}
	}
	var prod mat.Dense
	prod.Mul(a.T(), b)
	prod.Scale(1/float64(m), &prod)
	outer := tensor.New(e, e, O.mid*O.mid)
	for i := 0; i < e; i++ {
		for j := 0; j < e; j++ {
			v := outer.Vec(i, j)
			for x := 0; x < O.mid; x++ {
				for y := 0; y < O.mid; y++ {
					v[x*O.mid+y] = prod.At(i*O.mid+x, j*O.mid+y)
				}
			}
		}
	}
	return O.Final.Forward(outer)
}

//Transition is the position-wise feed-forward block: LayerNorm, expansion by
//a factor n, ReLU and projection back to the input width.
type Transition struct {
	Norm   *nn.LayerNorm
	Expand *nn.Linear
	Shrink *nn.Linear
}

//NewTransition returns a transition on c channels with n*c hidden channels.
func NewTransition(c, n int, init nn.Initializer) *Transition {
	return &Transition{
		Norm:   nn.NewLayerNorm(c),
		Expand: nn.NewLinear(c, c*n, init),
		Shrink: nn.NewLinear(c*n, c, init),
	}
}

//Forward returns the update for x, which has any shape with C channels.
func (T *Transition) Forward(x *tensor.Tensor) *tensor.Tensor {
	return T.Shrink.Forward(nn.Apply(T.Expand.Forward(T.Norm.Forward(x)), nn.ReLU))
}
