/*
 * functions.go, part of godock.
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
	"gonum.org/v1/gonum/floats"
)

//MaskFill is the logit given to masked entries before a softmax. It is finite, so a
//fully masked vector gets uniform weights instead of NaNs.
const MaskFill = -1e9

//Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

//ReLU returns max(0, x)
func ReLU(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

//Apply returns a new tensor with f applied to every element of x.
func Apply(x *tensor.Tensor, f func(float64) float64) *tensor.Tensor {
	out := x.Clone()
	d := out.Data()
	for i, v := range d {
		d[i] = f(v)
	}
	return out
}

//Gate returns x*sigmoid(g), element-wise, as a new tensor.
func Gate(x, g *tensor.Tensor) *tensor.Tensor {
	return x.MulElem(Apply(g, Sigmoid))
}

//Softmax replaces logits, in place, by their softmax. Entries where mask is false
//(mask can be nil), NaN and -Inf entries get MaskFill before normalization. If some
//unmasked entries are +Inf, they share the whole weight evenly.
//The largest logit is subtracted before exponentiation.
func Softmax(logits []float64, mask []bool) {
	if len(logits) == 0 {
		return
	}
	inf := 0
	for i, v := range logits {
		switch {
		case (mask != nil && !mask[i]) || math.IsNaN(v) || math.IsInf(v, -1):
			logits[i] = MaskFill
		case math.IsInf(v, 1):
			inf++
		}
	}
	if inf > 0 {
		for i, v := range logits {
			if math.IsInf(v, 1) {
				logits[i] = 1 / float64(inf)
			} else {
				logits[i] = 0
			}
		}
		return
	}
	max := floats.Max(logits)
	sum := 0.0
	for i, v := range logits {
		e := math.Exp(v - max)
		logits[i] = e
		sum += e
	}
	//sum >= 1, since the largest entry gives exp(0).
	floats.Scale(1/sum, logits)
}
