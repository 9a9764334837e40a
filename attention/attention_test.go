/*
 * attention_test.go, part of godock.
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
	"math/rand"
	"testing"

	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	c1 = 6
	c2 = 4
)

var testCfg = Config{NumHeads: 2, AttnC: 3}

func randTensor(r *rand.Rand, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	for i := range t.Data() {
		t.Data()[i] = r.NormFloat64()
	}
	return t
}

//Every primitive must keep the shapes for 0, 1 and N entities.
func TestShapes(Te *testing.T) {
	r := rand.New(rand.NewSource(1))
	init := nn.NewUniform(2)
	row := NewRowAttention(testCfg, c1, c2, init)
	col := NewColumnAttention(testCfg, c1, init)
	gcol := NewGlobalColumnAttention(testCfg, c1, init)
	tcfg := TriangleConfig{Config: testCfg}
	tstart := NewTriangleAttention(tcfg, c2, StartingNode, init, nil)
	tend := NewTriangleAttention(tcfg, c2, EndingNode, init, Full{})
	mulOut := NewTriangleMultiplication(MulConfig{MidC: 3}, c2, Outgoing, init)
	mulIn := NewTriangleMultiplication(MulConfig{MidC: 3}, c2, Incoming, init)
	opm := NewOuterProductMean(MulConfig{MidC: 2}, c1, c2, init)
	tr := NewTransition(c1, 2, init)
	for _, e := range []int{0, 1, 5} {
		x1d := randTensor(r, 3, e, c1)
		pair := randTensor(r, e, e, c2)
		for name, out := range map[string]*tensor.Tensor{
			"row":        row.Forward(x1d, pair),
			"column":     col.Forward(x1d),
			"global":     gcol.Forward(x1d),
			"transition": tr.Forward(x1d),
		} {
			assert.Equal(Te, []int{3, e, c1}, out.Shape(), "%s with %d entities", name, e)
			assert.True(Te, out.AllFinite(), name)
		}
		for name, out := range map[string]*tensor.Tensor{
			"start":    tstart.Forward(pair),
			"end":      tend.Forward(pair),
			"outgoing": mulOut.Forward(pair),
			"incoming": mulIn.Forward(pair),
			"opm":      opm.Forward(x1d),
		} {
			assert.Equal(Te, []int{e, e, c2}, out.Shape(), "%s with %d entities", name, e)
			assert.True(Te, out.AllFinite(), name)
		}
	}
}

//Constant input goes to zero after the LayerNorm, so all the logits are equal.
func TestDegenerateScores(Te *testing.T) {
	init := nn.NewUniform(3)
	row := NewRowAttention(testCfg, c1, c2, init)
	out := row.Forward(tensor.Full(1, 2, 4, c1), tensor.Full(0, 4, 4, c2))
	assert.True(Te, out.AllFinite())
	//all entities see the same thing.
	for i := 1; i < 4; i++ {
		assert.InDeltaSlice(Te, out.Vec(0, 0), out.Vec(1, i), 1e-12)
	}
	tri := NewTriangleAttention(TriangleConfig{Config: testCfg}, c2, StartingNode, init, nil)
	assert.True(Te, tri.Forward(tensor.Full(3, 4, 4, c2)).AllFinite())
}

func TestGlobalColumnSingleRow(Te *testing.T) {
	//With one head and one row, global and dense column attention compute the same
	//function, and their weights are drawn in the same order.
	cfg := Config{NumHeads: 1, AttnC: 4}
	dense := NewColumnAttention(cfg, c1, nn.NewUniform(9))
	global := NewGlobalColumnAttention(cfg, c1, nn.NewUniform(9))
	x := randTensor(rand.New(rand.NewSource(4)), 1, 5, c1)
	assert.True(Te, tensor.EqualApprox(dense.Forward(x), global.Forward(x), 1e-12))
}

func TestTriangleContract(Te *testing.T) {
	//s[i,k,0]=1, s[i,k,1]=i+k, symmetric in (i,k).
	s := tensor.New(3, 3, 2)
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			s.Set(1, i, k, 0)
			s.Set(float64(i+k), i, k, 1)
		}
	}
	out := TriangleContract(s, s, Outgoing)
	in := TriangleContract(s, s, Incoming)
	//sum_k (i+k)(j+k) = 3ij+3(i+j)+5
	want := map[[2]int]float64{{0, 0}: 5, {0, 1}: 8, {1, 2}: 20, {2, 2}: 29, {2, 0}: 11}
	for ij, w := range want {
		assert.Equal(Te, 3.0, out.At(ij[0], ij[1], 0))
		assert.Equal(Te, w, out.At(ij[0], ij[1], 1), "outgoing %v", ij)
		assert.Equal(Te, w, in.At(ij[0], ij[1], 1), "incoming %v", ij)
	}
	assert.Equal(Te, out.Data(), in.Data())

	//a[i,k]=i, b=1: outgoing gives 3i, incoming gives 0+1+2.
	a := tensor.New(3, 3, 1)
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			a.Set(float64(i), i, k, 0)
		}
	}
	b := tensor.Full(1, 3, 3, 1)
	out = TriangleContract(a, b, Outgoing)
	in = TriangleContract(a, b, Incoming)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(Te, 3*float64(i), out.At(i, j, 0))
			assert.Equal(Te, 3.0, in.At(i, j, 0))
		}
	}
	assert.Panics(Te, func() { TriangleContract(a, tensor.New(3, 3, 2), Outgoing) })
}

func TestOuterProductMean(Te *testing.T) {
	r := rand.New(rand.NewSource(8))
	opm := NewOuterProductMean(MulConfig{MidC: 3}, c1, c2, nn.NewUniform(1))
	x := randTensor(r, 4, 3, c1)
	got := opm.Forward(x)
	//naive reference with the same weights
	p := opm.Proj.Forward(opm.Norm.Forward(x))
	outer := tensor.New(3, 3, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					s := 0.0
					for m := 0; m < 4; m++ {
						s += p.At(m, i, a) * p.At(m, j, 3+b)
					}
					outer.Set(s/4, i, j, a*3+b)
				}
			}
		}
	}
	want := opm.Final.Forward(outer)
	require.Equal(Te, want.Shape(), got.Shape())
	assert.True(Te, tensor.EqualApprox(want, got, 1e-10))
}

func TestRandomSubset(Te *testing.T) {
	r := rand.New(rand.NewSource(5))
	pair := randTensor(r, 4, 4, 2)
	plusOne := func(p *tensor.Tensor) *tensor.Tensor { return p.Add(tensor.Full(1, p.Shape()...)) }
	sub := NewRandomSubset(0.5, r)
	assert.Equal(Te, 2, sub.Keep(4))
	assert.Equal(Te, 1, sub.Keep(1))
	out := sub.Apply(pair, plusOne)
	require.Equal(Te, []int{4, 4, 2}, out.Shape())
	touched := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if out.At(i, j, 0) == 0 && out.At(i, j, 1) == 0 {
				continue
			}
			touched++
			assert.InDelta(Te, pair.At(i, j, 0)+1, out.At(i, j, 0), 1e-12)
		}
	}
	assert.Equal(Te, 4, touched)
	//no subsampling with a zero rate.
	full := NewRandomSubset(0, r).Apply(pair, plusOne)
	assert.True(Te, tensor.EqualApprox(plusOne(pair), full, 0))

	//untouched edges get a zero update.
	ta := NewTriangleAttention(TriangleConfig{Config: testCfg, RandRemove: 0.5}, 2, EndingNode, nn.NewUniform(3), NewRandomSubset(0.5, rand.New(rand.NewSource(1))))
	got := ta.Forward(pair)
	assert.Equal(Te, []int{4, 4, 2}, got.Shape())
	assert.True(Te, got.AllFinite())
	zeros := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if got.At(i, j, 0) == 0 && got.At(i, j, 1) == 0 {
				zeros++
			}
		}
	}
	assert.Equal(Te, 12, zeros)
}
