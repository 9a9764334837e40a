/*
 * subsample.go, part of godock.
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

	"github.com/rmera/godock/tensor"
)

//PairFunc computes an [E,E,C] update from an [E,E,C] pair representation.
type PairFunc func(pair *tensor.Tensor) *tensor.Tensor

//Subsampler is an execution strategy for a PairFunc. It decides on which entities the
//function is evaluated.
type Subsampler interface {
	Apply(pair *tensor.Tensor, f PairFunc) *tensor.Tensor
}

//Full evaluates the function on the whole pair representation. It is the only
//strategy used at inference.
type Full struct{}

//Apply calls f on the whole pair.
func (Full) Apply(pair *tensor.Tensor, f PairFunc) *tensor.Tensor {
	return f(pair)
}

//Reseeder is implemented by strategies whose choices are random. Reseed returns a copy of
//the strategy that draws from a new generator started from seed, so a call can be replayed.
type Reseeder interface {
	Reseed(seed int64) Subsampler
}

//RandomSubset evaluates the function only on the rows and columns of a random subset
//of entities, keeping max(1, floor(E*(1-Rate))) of them. The result is scattered back
//into a zero tensor of the full size, so the update for every edge touching a removed entity is 0.
type RandomSubset struct {
	Rate float64
	Rand *rand.Rand
}

//NewRandomSubset returns a strategy removing a fraction rate of the entities, chosen with rng.
func NewRandomSubset(rate float64, rng *rand.Rand) *RandomSubset {
	return &RandomSubset{Rate: rate, Rand: rng}
}

//Reseed returns a RandomSubset with the same rate drawing from a generator seeded with seed.
func (R *RandomSubset) Reseed(seed int64) Subsampler {
	return &RandomSubset{Rate: R.Rate, Rand: rand.New(rand.NewSource(seed))}
}

//Keep returns the number of entities kept out of e.
func (R *RandomSubset) Keep(e int) int {
	k := int(float64(e) * (1 - R.Rate))
	if k < 1 {
		k = 1
	}
	if k > e {
		k = e
	}
	return k
}

//Apply calls f on the pair restricted to a new random subset of entities.
func (R *RandomSubset) Apply(pair *tensor.Tensor, f PairFunc) *tensor.Tensor {
	e := pair.Dim(0)
	if e == 0 || R.Rate <= 0 {
		return f(pair)
	}
	sel := R.Rand.Perm(e)[:R.Keep(e)]
	n := len(sel)
	sub := tensor.New(n, n, pair.Dim(2))
	for a, i := range sel {
		for b, j := range sel {
			copy(sub.Vec(a, b), pair.Vec(i, j))
		}
	}
	upd := f(sub)
	full := tensor.New(e, e, upd.Dim(2))
	for a, i := range sel {
		for b, j := range sel {
			copy(full.Vec(i, j), upd.Vec(a, b))
		}
	}
	return full
}
