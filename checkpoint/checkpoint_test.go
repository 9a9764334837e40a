/*
 * checkpoint_test.go, part of godock.
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

package checkpoint

import (
	"testing"

	"github.com/rmera/godock/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scaleBlock(f float64) Block[*tensor.Tensor] {
	return func(in *tensor.Tensor, tap Tap) *tensor.Tensor {
		upd := in.Scale(f)
		tap("update", upd)
		return in.Add(upd)
	}
}

func TestRecomputeIsTransparent(Te *testing.T) {
	blocks := []Block[*tensor.Tensor]{scaleBlock(1), scaleBlock(0.5), scaleBlock(-2)}
	in := tensor.MustFromSlice([]float64{1, 2}, 2)
	kept, ktrace := Runner[*tensor.Tensor]{}.Run(blocks, in)
	rec, rtrace := Runner[*tensor.Tensor]{Recompute: true}.Run(blocks, in)
	//1 -> 2 -> 3 -> -3
	assert.Equal(Te, []float64{-3, -6}, kept.Data())
	assert.Equal(Te, kept.Data(), rec.Data())
	assert.Equal(Te, []float64{1, 2}, in.Data())
	require.Equal(Te, 3, ktrace.Len())
	require.Equal(Te, 3, rtrace.Len())
	assert.False(Te, ktrace.Recomputed())
	assert.True(Te, rtrace.Recomputed())
	for l := 0; l < 3; l++ {
		assert.Equal(Te, ktrace.Input(l).Data(), rtrace.Input(l).Data())
		assert.Equal(Te, ktrace.Activations(l)["update"].Data(), rtrace.Activations(l)["update"].Data())
	}
	assert.Equal(Te, []float64{1, 2}, rtrace.Activations(1)["update"].Data())
}

func TestEmptyStack(Te *testing.T) {
	in := tensor.New(3)
	out, tr := Runner[*tensor.Tensor]{Recompute: true}.Run(nil, in)
	assert.Same(Te, in, out)
	assert.Equal(Te, 0, tr.Len())
}
