/*
 * evoformer.go, part of godock.
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

//Package evoformer implements the Evoformer stack, which refines a single representation and a pair
//representation together, and the extra stack, which refines the pair representation using a larger
//set of extra single rows.
//
//An iteration applies, in this fixed order and each as an additive residual: row attention with pair
//bias, column attention and a transition on the single representation; the outer product mean from
//the single to the pair representation; then the triangle multiplicative updates (outgoing, incoming),
//triangle attention (starting node, ending node) and a transition on the pair representation.
package evoformer

import (
	"math/rand"
	"time"

	"github.com/rmera/godock/attention"
	"github.com/rmera/godock/checkpoint"
	"github.com/rmera/godock/internal/logging"
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
)

//State is what flows between iterations.
type State struct {
	Single *tensor.Tensor //[M,E,C1]
	Pair   *tensor.Tensor //[E,E,C2]
	//Seed starts the random choices of the iteration, so running it again
	//from the same State repeats them. Only used in training.
	Seed int64
}

type columnAttention interface {
	Forward(x1d *tensor.Tensor) *tensor.Tensor
}

//Iteration is one Evoformer block.
type Iteration struct {
	Row              *attention.RowAttention
	Column           columnAttention
	SingleTransition *attention.Transition
	OuterProductMean *attention.OuterProductMean
	MulOutgoing      *attention.TriangleMultiplication
	MulIncoming      *attention.TriangleMultiplication
	AttnStarting     *attention.TriangleAttention
	AttnEnding       *attention.TriangleAttention
	PairTransition   *attention.Transition
}

func newIteration(cfg Config, d Dims, init nn.Initializer, o options, global bool) *Iteration {
	it := &Iteration{
		Row:              attention.NewRowAttention(cfg.RowAttention, d.SingleC, d.PairC, init),
		SingleTransition: attention.NewTransition(d.SingleC, cfg.SingleTransitionN, init),
		OuterProductMean: attention.NewOuterProductMean(cfg.OuterProductMean, d.SingleC, d.PairC, init),
		MulOutgoing:      attention.NewTriangleMultiplication(cfg.TriangleMulOutgoing, d.PairC, attention.Outgoing, init),
		MulIncoming:      attention.NewTriangleMultiplication(cfg.TriangleMulIncoming, d.PairC, attention.Incoming, init),
		AttnStarting:     attention.NewTriangleAttention(cfg.TriangleAttnStarting, d.PairC, attention.StartingNode, init, o.subsampler(cfg.TriangleAttnStarting)),
		AttnEnding:       attention.NewTriangleAttention(cfg.TriangleAttnEnding, d.PairC, attention.EndingNode, init, o.subsampler(cfg.TriangleAttnEnding)),
		PairTransition:   attention.NewTransition(d.PairC, cfg.PairTransitionN, init),
	}
	if global {
		it.Column = attention.NewGlobalColumnAttention(cfg.ColumnAttention, d.SingleC, init)
	} else {
		it.Column = attention.NewColumnAttention(cfg.ColumnAttention, d.SingleC, init)
	}
	return it
}

//Forward runs the iteration. The input state is not modified. Every update is given
//to tap, under the name of the block that produced it.
func (I *Iteration) Forward(in State, tap checkpoint.Tap) State {
	s, p := in.Single, in.Pair
	step := func(name string, cur, upd *tensor.Tensor) *tensor.Tensor {
		tap(name, upd)
		return cur.Add(upd)
	}
	s = step("row_attention", s, I.Row.Forward(s, p))
	s = step("column_attention", s, I.Column.Forward(s))
	s = step("single_transition", s, I.SingleTransition.Forward(s))
	p = step("outer_product_mean", p, I.OuterProductMean.Forward(s))
	p = step("triangle_mul_outgoing", p, I.MulOutgoing.Forward(p))
	p = step("triangle_mul_incoming", p, I.MulIncoming.Forward(p))
	seeds := rand.New(rand.NewSource(in.Seed))
	start, end, next := seeds.Int63(), seeds.Int63(), seeds.Int63()
	p = step("triangle_attn_starting", p, I.AttnStarting.ForwardSeeded(p, start))
	p = step("triangle_attn_ending", p, I.AttnEnding.ForwardSeeded(p, end))
	p = step("pair_transition", p, I.PairTransition.Forward(p))
	return State{Single: s, Pair: p, Seed: next}
}

//Stack is a sequence of Evoformer iterations, each with its own weights.
type Stack struct {
	cfg    Config
	dims   Dims
	log    logging.Logger
	rng    *rand.Rand //nil unless training
	Layers []*Iteration
}

//NewStack returns a stack with cfg.NumIter iterations. It panics if cfg or dims are not valid.
func NewStack(cfg Config, dims Dims, init nn.Initializer, opts ...Option) *Stack {
	return newStack(cfg, dims, init, false, buildOptions(opts))
}

func newStack(cfg Config, dims Dims, init nn.Initializer, global bool, o options) *Stack {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if err := dims.Validate(); err != nil {
		panic(err)
	}
	S := &Stack{cfg: cfg, dims: dims, log: o.log.Named("evoformer")}
	if o.training {
		S.rng = o.rng
	}
	for i := 0; i < cfg.NumIter; i++ {
		S.Layers = append(S.Layers, newIteration(cfg, dims, init, o, global))
	}
	return S
}

//Result is the output of a stack.
type Result struct {
	Single *tensor.Tensor
	Pair   *tensor.Tensor
	//Trace holds the input of every iteration and gives access to their activations.
	Trace *checkpoint.Trace[State]
}

func (S *Stack) blocks() []checkpoint.Block[State] {
	ret := make([]checkpoint.Block[State], len(S.Layers))
	for i, l := range S.Layers {
		ret[i] = l.Forward
	}
	return ret
}

//prepare reshapes a flat [E,C1] single representation to [1,E,C1] and checks the shapes.
func (S *Stack) prepare(caller string, single, pair *tensor.Tensor) (*tensor.Tensor, bool, error) {
	if single == nil || pair == nil {
		return nil, false, tensor.ShapeError(caller, "nil input")
	}
	flat := single.Rank() == 2
	if flat {
		single = single.Reshape(append([]int{1}, single.Shape()...)...)
	}
	if err := tensor.Check(caller, "single", single, -1, -1, S.dims.SingleC); err != nil {
		return nil, false, err
	}
	if single.Dim(0) == 0 {
		return nil, false, tensor.ShapeError(caller, "single representation has no rows")
	}
	e := single.Dim(1)
	if err := tensor.Check(caller, "pair", pair, e, e, S.dims.PairC); err != nil {
		return nil, false, err
	}
	return single, flat, nil
}

//Validate returns the error Forward would give for these inputs, without running the stack.
func (S *Stack) Validate(single, pair *tensor.Tensor) error {
	_, _, err := S.prepare("evoformer.Stack.Validate", single, pair)
	return err
}

//Forward runs the stack on single ([E,C1], or [M,E,C1] with M>0 rows) and pair ([E,E,C2]).
//The returned single representation has the same rank as the input one.
//Shapes are checked before any computation.
func (S *Stack) Forward(single, pair *tensor.Tensor) (*Result, error) {
	single, flat, err := S.prepare("evoformer.Stack.Forward", single, pair)
	if err != nil {
		return nil, err
	}
	e := single.Dim(1)
	start := time.Now()
	in := State{Single: single, Pair: pair}
	if S.rng != nil {
		in.Seed = S.rng.Int63()
	}
	out, tr := checkpoint.Runner[State]{Recompute: S.cfg.Checkpoint}.Run(S.blocks(), in)
	S.log.Debug("stack done", logging.Int("layers", len(S.Layers)), logging.Int("entities", e),
		logging.Int("rows", single.Dim(0)), logging.Bool("checkpoint", S.cfg.Checkpoint), logging.Duration("took", time.Since(start)))
	res := &Result{Single: out.Single, Pair: out.Pair, Trace: tr}
	if flat {
		res.Single = res.Single.Reshape(e, S.dims.SingleC)
	}
	return res, nil
}
