/*
 * kernel.go, part of godock.
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
	"math"

	"github.com/rmera/godock/nn"
	"gonum.org/v1/gonum/floats"
)

//attend computes one attention output: the softmax over k of scale*q.keys[k]+bias[k]
//is used to weight values, and the result is written to out. bias can be nil.
//w is scratch space with room for len(keys) elements.
func attend(q []float64, keys, values [][]float64, bias []float64, scale float64, w, out []float64) {
	w = w[:len(keys)]
	for k, key := range keys {
		w[k] = floats.Dot(q, key) * scale
		if bias != nil {
			w[k] += bias[k]
		}
	}
	nn.Softmax(w, nil)
	for i := range out {
		out[i] = 0
	}
	for k, v := range values {
		floats.AddScaled(out, w[k], v)
	}
}

//gate multiplies out, element-wise, by the sigmoid of g.
func gate(out, g []float64) {
	for i, v := range g {
		out[i] *= nn.Sigmoid(v)
	}
}

func invSqrt(c int) float64 {
	return 1 / math.Sqrt(float64(c))
}
