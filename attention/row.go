/*
 * row.go, part of godock.
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

//RowAttention is gated self-attention along the entity axis of each row of a single
//representation, with a per-head bias projected from the pair representation.
type RowAttention struct {
	h        heads
	Norm     *nn.LayerNorm
	QKV      *nn.Linear
	PairBias *nn.Linear
	Gate     *nn.Linear
	Out      *nn.Linear
}

//NewRowAttention returns a row attention block for a single representation with c1
//channels and a pair representation with c2 channels.
func NewRowAttention(cfg Config, c1, c2 int, init nn.Initializer) *RowAttention {
	h := heads{cfg.NumHeads, cfg.AttnC}
	return &RowAttention{
		h:        h,
		Norm:     nn.NewLayerNorm(c1),
		QKV:      nn.NewLinearNoBias(c1, 3*h.width(), init),
		PairBias: nn.NewLinearNoBias(c2, h.n, init),
		Gate:     nn.NewLinear(c1, h.width(), init),
		Out:      nn.NewLinear(h.width(), c1, init),
	}
}

//Forward takes x1d [M,E,C1] and pair [E,E,C2] and returns the [M,E,C1] update.
//The query-key product is not scaled; the pair bias is scaled by 1/sqrt(AttnC).
func (A *RowAttention) Forward(x1d, pair *tensor.Tensor) *tensor.Tensor {
	m, e := x1d.Dim(0), x1d.Dim(1)
	if pair.Dim(0) != e || pair.Dim(1) != e {
		panic(tensor.ErrShape)
	}
	x := A.Norm.Forward(x1d)
	qkv := A.QKV.Forward(x)
	g := A.Gate.Forward(x)
	bias := A.PairBias.Forward(pair).Scale(invSqrt(A.h.c)) //[E,E,H]
	out := tensor.New(m, e, A.h.width())
	keys := make([][]float64, e)
	vals := make([][]float64, e)
	b := make([]float64, e)
	w := make([]float64, e)
	for r := 0; r < m; r++ {
		for hd := 0; hd < A.h.n; hd++ {
			for j := 0; j < e; j++ {
				keys[j] = A.h.get(qkv.Vec(r, j), key, hd)
				vals[j] = A.h.get(qkv.Vec(r, j), value, hd)
			}
			for i := 0; i < e; i++ {
				for j := 0; j < e; j++ {
					b[j] = bias.At(i, j, hd)
				}
				o := A.h.get(out.Vec(r, i), 0, hd)
				attend(A.h.get(qkv.Vec(r, i), query, hd), keys, vals, b, 1, w, o)
				gate(o, A.h.get(g.Vec(r, i), 0, hd))
			}
		}
	}
	return A.Out.Forward(out)
}

//ColumnAttention is gated self-attention along the row axis of a single representation,
//for each entity independently.
type ColumnAttention struct {
	h    heads
	Norm *nn.LayerNorm
	QKV  *nn.Linear
	Gate *nn.Linear
	Out  *nn.Linear
}

//NewColumnAttention returns gated attention along the rows of x1d, for each entity.
func NewColumnAttention(cfg Config, c1 int, init nn.Initializer) *ColumnAttention {
	h := heads{cfg.NumHeads, cfg.AttnC}
	return &ColumnAttention{
		h:    h,
		Norm: nn.NewLayerNorm(c1),
		QKV:  nn.NewLinearNoBias(c1, 3*h.width(), init),
		Gate: nn.NewLinear(c1, h.width(), init),
		Out:  nn.NewLinear(h.width(), c1, init),
	}
}

//Forward takes x1d [M,E,C1] and returns the [M,E,C1] update.
func (A *ColumnAttention) Forward(x1d *tensor.Tensor) *tensor.Tensor {
	m, e := x1d.Dim(0), x1d.Dim(1)
	x := A.Norm.Forward(x1d)
	qkv := A.QKV.Forward(x)
	g := A.Gate.Forward(x)
	out := tensor.New(m, e, A.h.width())
	scale := invSqrt(A.h.c)
	keys := make([][]float64, m)
	vals := make([][]float64, m)
	w := make([]float64, m)
	for i := 0; i < e; i++ {
		for hd := 0; hd < A.h.n; hd++ {
			for n := 0; n < m; n++ {
				keys[n] = A.h.get(qkv.Vec(n, i), key, hd)
				vals[n] = A.h.get(qkv.Vec(n, i), value, hd)
			}
			for r := 0; r < m; r++ {
				o := A.h.get(out.Vec(r, i), 0, hd)
				attend(A.h.get(qkv.Vec(r, i), query, hd), keys, vals, nil, scale, w, o)
				gate(o, A.h.get(g.Vec(r, i), 0, hd))
			}
		}
	}
	return A.Out.Forward(out)
}

//GlobalColumnAttention is column attention where each column is summarized by a
//single query per head (the mean over rows) attending over one shared key and value per row.
//Its cost is linear in the number of rows.
type GlobalColumnAttention struct {
	h    heads
	Norm *nn.LayerNorm
	QKV  *nn.Linear //H query heads, then one key and one value, AttnC channels each
	Gate *nn.Linear
	Out  *nn.Linear
}

//NewGlobalColumnAttention returns column attention with a single averaged query per head.
func NewGlobalColumnAttention(cfg Config, c1 int, init nn.Initializer) *GlobalColumnAttention {
	h := heads{cfg.NumHeads, cfg.AttnC}
	return &GlobalColumnAttention{
		h:    h,
		Norm: nn.NewLayerNorm(c1),
		QKV:  nn.NewLinearNoBias(c1, (h.n+2)*h.c, init),
		Gate: nn.NewLinear(c1, h.width(), init),
		Out:  nn.NewLinear(h.width(), c1, init),
	}
}

//Forward takes x1d [M,E,C1] and returns the [M,E,C1] update.
func (A *GlobalColumnAttention) Forward(x1d *tensor.Tensor) *tensor.Tensor {
	m, e := x1d.Dim(0), x1d.Dim(1)
	x := A.Norm.Forward(x1d)
	qkv := A.QKV.Forward(x)
	g := A.Gate.Forward(x)
	out := tensor.New(m, e, A.h.width())
	if m == 0 {
		return A.Out.Forward(out)
	}
	c := A.h.c
	hw := A.h.width()
	scale := invSqrt(c)
	keys := make([][]float64, m)
	vals := make([][]float64, m)
	w := make([]float64, m)
	qmean := make([]float64, c)
	o := make([]float64, c)
	for i := 0; i < e; i++ {
		for n := 0; n < m; n++ {
			v := qkv.Vec(n, i)
			keys[n] = v[hw : hw+c]
			vals[n] = v[hw+c : hw+2*c]
		}
		for hd := 0; hd < A.h.n; hd++ {
			for k := range qmean {
				qmean[k] = 0
			}
			for n := 0; n < m; n++ {
				q := A.h.get(qkv.Vec(n, i), query, hd)
				for k, v := range q {
					qmean[k] += v / float64(m)
				}
			}
			attend(qmean, keys, vals, nil, scale, w, o)
			for r := 0; r < m; r++ {
				dst := A.h.get(out.Vec(r, i), 0, hd)
				copy(dst, o)
				gate(dst, A.h.get(g.Vec(r, i), 0, hd))
			}
		}
	}
	return A.Out.Forward(out)
}
