/*
 * norm.go, part of godock.
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

package nn

import (
	"math"

	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/stat"
)

//LayerNormEps is added to the variance in LayerNorm.
const LayerNormEps = 1e-5

//LayerNorm normalizes each channel vector to zero mean and unit variance,
//then scales by Gamma and shifts by Beta.
type LayerNorm struct {
	C     int
	Gamma []float64
	Beta  []float64
	Eps   float64
}

//NewLayerNorm returns a LayerNorm for c channels with Gamma=1 and Beta=0.
func NewLayerNorm(c int) *LayerNorm {
	L := &LayerNorm{C: c, Gamma: make([]float64, c), Beta: make([]float64, c), Eps: LayerNormEps}
	for i := range L.Gamma {
		L.Gamma[i] = 1
	}
	return L
}

//Forward normalizes x over its last axis and returns a new tensor.
func (L *LayerNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dim(-1) != L.C {
		panic(tensor.ErrShape)
	}
	out := x.Clone()
	d := out.Data()
	for i := 0; i < len(d); i += L.C {
		row := d[i : i+L.C]
		mean, variance := stat.PopMeanVariance(row, nil)
		inv := 1 / math.Sqrt(variance+L.Eps)
		for j, v := range row {
			row[j] = (v-mean)*inv*L.Gamma[j] + L.Beta[j]
		}
	}
	return out
}
