/*
 * extra.go, part of godock.
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

package evoformer

import (
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
)

//ExtraStack refines the pair representation with a set of extra single rows, which are
//first projected to the single width. It uses global column attention, so its cost is
//linear in the number of extra rows.
type ExtraStack struct {
	*Stack
	inputC  int
	Project *nn.Linear
}

//NewExtraStack returns an extra stack. It panics if cfg or dims are not valid.
func NewExtraStack(cfg ExtraConfig, dims Dims, init nn.Initializer, opts ...Option) *ExtraStack {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	o := buildOptions(opts)
	st := newStack(cfg.Config, dims, init, true, o)
	st.log = o.log.Named("extra")
	return &ExtraStack{Stack: st, inputC: cfg.InputC, Project: nn.NewLinear(cfg.InputC, dims.SingleC, init)}
}

//Validate checks extra [S,E,InputC] against pair [E,E,C2] without running the stack.
func (X *ExtraStack) Validate(extra, pair *tensor.Tensor) error {
	const caller = "evoformer.ExtraStack.Validate"
	if err := tensor.Check(caller, "extra", extra, -1, -1, X.inputC); err != nil {
		return err
	}
	if pair == nil || pair.Rank() != 3 || pair.Dim(0) != extra.Dim(1) {
		return tensor.ShapeError(caller, "extra features for %d entities don't match the pair representation", extra.Dim(1))
	}
	if extra.Dim(0) == 0 {
		return tensor.ShapeError(caller, "no extra rows")
	}
	return nil
}

//Forward takes extra [S,E,InputC], with S>0, and pair [E,E,C2], and returns the refined pair representation
//in Result.Pair. Result.Single holds the refined extra rows, which callers normally discard.
func (X *ExtraStack) Forward(extra, pair *tensor.Tensor) (*Result, error) {
	if err := X.Validate(extra, pair); err != nil {
		return nil, tensor.Decorate(err, "evoformer.ExtraStack.Forward")
	}
	res, err := X.Stack.Forward(X.Project.Forward(extra), pair)
	return res, tensor.Decorate(err, "evoformer.ExtraStack.Forward")
}
