/*
 * checkpoint.go, part of godock.
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

//Package checkpoint runs a stack of layers either retaining every intermediate activation or
//only the inputs of each layer, recomputing the activations of a layer when they are asked for.
//
//The choice only trades memory for time. Layers are pure functions of their input, so the output
//of a stack, and any activation obtained from its Trace, are the same in both modes.
package checkpoint

import (
	"github.com/rmera/godock/tensor"
)

//Tap receives the named intermediate tensors a layer produces.
type Tap func(name string, t *tensor.Tensor)

//Discard is a Tap that drops everything.
func Discard(string, *tensor.Tensor) {}

//Block is one layer of a stack. It must not modify in, and it must
//return the same value every time it is called with the same input.
type Block[S any] func(in S, tap Tap) S

//Runner runs a stack of Blocks.
type Runner[S any] struct {
	//Recompute makes the runner keep only the input of each block.
	Recompute bool
}

//Run applies blocks in order, starting from in, and returns the final state with the trace of the run.
func (R Runner[S]) Run(blocks []Block[S], in S) (S, *Trace[S]) {
	tr := &Trace[S]{blocks: blocks, inputs: make([]S, 0, len(blocks)), recompute: R.Recompute}
	if !R.Recompute {
		tr.acts = make([]Activations, 0, len(blocks))
	}
	state := in
	for _, b := range blocks {
		tr.inputs = append(tr.inputs, state)
		if R.Recompute {
			state = b(state, Discard)
			continue
		}
		acts := make(Activations)
		state = b(state, acts.record)
		tr.acts = append(tr.acts, acts)
	}
	return state, tr
}

//Activations maps names to the tensors a layer tapped.
type Activations map[string]*tensor.Tensor

func (A Activations) record(name string, t *tensor.Tensor) {
	A[name] = t
}

//Trace gives access to the inputs and activations of every layer of a run.
type Trace[S any] struct {
	blocks    []Block[S]
	inputs    []S
	acts      []Activations
	recompute bool
}

//Len returns the number of layers run.
func (T *Trace[S]) Len() int { return len(T.inputs) }

//Recomputed returns true if activations are recomputed on demand.
func (T *Trace[S]) Recomputed() bool { return T.recompute }

//Input returns the state that entered the given layer.
func (T *Trace[S]) Input(layer int) S {
	return T.inputs[layer]
}

//Activations returns the tensors tapped by the given layer. When the run did not retain
//them, the layer is run again from its stored input.
func (T *Trace[S]) Activations(layer int) Activations {
	if !T.recompute {
		return T.acts[layer]
	}
	acts := make(Activations)
	T.blocks[layer](T.inputs[layer], acts.record)
	return acts
}
