/*
 * triangle.go, part of godock.
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
)

//Node selects the edge around which triangle attention operates.
type Node int

const (
	//StartingNode: edge (i,j) attends over edges (i,k), biased by edge (k,j).
	StartingNode Node = iota
	//EndingNode: edge (i,j) attends over edges (k,j), biased by edge (i,k).
	EndingNode
)

func (n Node) String() string {
	if n == StartingNode {
		return "starting node"
	}
	return "ending node"
}

//Direction selects the index contracted in a triangle multiplicative update.
type Direction int

const (
	//Outgoing: out[i,j] = sum_k a[i,k]*b[j,k]
	Outgoing Direction = iota
	//Incoming: out[i,j] = sum_k a[k,i]*b[k,j]
	Incoming
)

func (d Direction) String() string {
	if d == Outgoing {
		return "outgoing"
	}
	return "incoming"
}

//TriangleAttention is gated attention over the third vertex of the triangles an edge of the
//pair representation belongs to.
type TriangleAttention struct {
	h    heads
	node Node
	Norm *nn.LayerNorm
	QKV  *nn.Linear
	Bias *nn.Linear
	Gate *nn.Linear
	Out  *nn.Linear
	//Sub decides which part of the pair representation is computed. Full{} computes everything.
	Sub Subsampler
}

//NewTriangleAttention returns a triangle attention block for a pair representation with c2 channels.
//A nil sub is the same as Full{}.
func NewTriangleAttention(cfg TriangleConfig, c2 int, node Node, init nn.Initializer, sub Subsampler) *TriangleAttention {
	if sub == nil {
		sub = Full{}
	}
	h := heads{cfg.NumHeads, cfg.AttnC}
	return &TriangleAttention{
		h:    h,
		node: node,
		Norm: nn.NewLayerNorm(c2),
		QKV:  nn.NewLinearNoBias(c2, 3*h.width(), init),
		Bias: nn.NewLinearNoBias(c2, h.n, init),
		Gate: nn.NewLinear(c2, h.width(), init),
		Out:  nn.NewLinear(h.width(), c2, init),
		Sub:  sub,
	}
}

//Forward takes the pair representation [E,E,C2] and returns its update.
func (A *TriangleAttention) Forward(pair *tensor.Tensor) *tensor.Tensor {
	if pair.Dim(0) != pair.Dim(1) {
		panic(tensor.ErrShape)
	}
	return A.Sub.Apply(pair, A.compute)
}

//ForwardSeeded is like Forward, but a random strategy draws its choices from a generator
//started from seed, so the same pair and seed always give the same update.
func (A *TriangleAttention) ForwardSeeded(pair *tensor.Tensor, seed int64) *tensor.Tensor {
	if pair.Dim(0) != pair.Dim(1) {
		panic(tensor.ErrShape)
	}
	sub := A.Sub
	if r, ok := sub.(Reseeder); ok {
		sub = r.Reseed(seed)
	}
	return sub.Apply(pair, A.compute)
}

func (A *TriangleAttention) compute(pair *tensor.Tensor) *tensor.Tensor {
	e := pair.Dim(0)
	x := A.Norm.Forward(pair)
	qkv := A.QKV.Forward(x)
	g := A.Gate.Forward(x)
	bias := A.Bias.Forward(x)
	out := tensor.New(e, e, A.h.width())
	scale := invSqrt(A.h.c)
	keys := make([][]float64, e)
	vals := make([][]float64, e)
	b := make([]float64, e)
	w := make([]float64, e)
	//a is the index shared by the query edge and all its key edges.
	for a := 0; a < e; a++ {
		for hd := 0; hd < A.h.n; hd++ {
			for k := 0; k < e; k++ {
				var kv []float64
				if A.node == StartingNode {
					kv = qkv.Vec(a, k)
				} else {
					kv = qkv.Vec(k, a)
				}
				keys[k] = A.h.get(kv, key, hd)
				vals[k] = A.h.get(kv, value, hd)
			}
			for other := 0; other < e; other++ {
				i, j := a, other
				if A.node == EndingNode {
					i, j = other, a
				}
				for k := 0; k < e; k++ {
					if A.node == StartingNode {
						b[k] = bias.At(k, j, hd)
					} else {
						b[k] = bias.At(i, k, hd)
					}
				}
				o := A.h.get(out.Vec(i, j), 0, hd)
				attend(A.h.get(qkv.Vec(i, j), query, hd), keys, vals, b, scale, w, o)
				gate(o, A.h.get(g.Vec(i, j), 0, hd))
			}
		}
	}
	return A.Out.Forward(out)
}

//TriangleMultiplication is the triangle multiplicative update: two gated projections of the
//pair representation are contracted over the third vertex of each triangle.
type TriangleMultiplication struct {
	dir      Direction
	Norm     *nn.LayerNorm
	A, AGate *nn.Linear
	B, BGate *nn.Linear
	MidNorm  *nn.LayerNorm
	Proj     *nn.Linear
	OutGate  *nn.Linear
}

//NewTriangleMultiplication returns the multiplicative update for a pair of c2 channels.
func NewTriangleMultiplication(cfg MulConfig, c2 int, dir Direction, init nn.Initializer) *TriangleMultiplication {
	return &TriangleMultiplication{
		dir:     dir,
		Norm:    nn.NewLayerNorm(c2),
		A:       nn.NewLinear(c2, cfg.MidC, init),
		AGate:   nn.NewLinear(c2, cfg.MidC, init),
		B:       nn.NewLinear(c2, cfg.MidC, init),
		BGate:   nn.NewLinear(c2, cfg.MidC, init),
		MidNorm: nn.NewLayerNorm(cfg.MidC),
		Proj:    nn.NewLinear(cfg.MidC, c2, init),
		OutGate: nn.NewLinear(c2, c2, init),
	}
}

//Forward takes the pair representation [E,E,C2] and returns its update.
func (T *TriangleMultiplication) Forward(pair *tensor.Tensor) *tensor.Tensor {
	x := T.Norm.Forward(pair)
	a := nn.Gate(T.A.Forward(x), T.AGate.Forward(x))
	b := nn.Gate(T.B.Forward(x), T.BGate.Forward(x))
	out := T.Proj.Forward(T.MidNorm.Forward(TriangleContract(a, b, T.dir)))
	return nn.Gate(out, T.OutGate.Forward(x))
}

//TriangleContract contracts two [E,E,C] tensors over their shared vertex, channel by channel.
//For Outgoing, out[i,j,c] = sum_k a[i,k,c]*b[j,k,c]; for Incoming, out[i,j,c] = sum_k a[k,i,c]*b[k,j,c].
func TriangleContract(a, b *tensor.Tensor, dir Direction) *tensor.Tensor {
	if !tensor.SameShape(a, b) || a.Rank() != 3 || a.Dim(0) != a.Dim(1) {
		panic(tensor.ErrShape)
	}
	e, c := a.Dim(0), a.Dim(2)
	out := tensor.New(e, e, c)
	for i := 0; i < e; i++ {
		for j := 0; j < e; j++ {
			o := out.Vec(i, j)
			for k := 0; k < e; k++ {
				var av, bv []float64
				if dir == Outgoing {
					av, bv = a.Vec(i, k), b.Vec(j, k)
				} else {
					av, bv = a.Vec(k, i), b.Vec(k, j)
				}
				for ch, v := range av {
					o[ch] += v * bv[ch]
				}
			}
		}
	}
	return out
}
