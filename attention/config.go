/*
 * config.go, part of godock.
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

//Package attention implements the attention-like primitives of the Evoformer: row attention with pair
//bias, dense and global column attention, triangle attention and triangle multiplicative updates,
//the outer product mean and the transition block.
//
//Every primitive is a pure function of its inputs and its weights. Forward methods return the
//update (the residual), never the updated representation, and never modify their inputs.
//Single representations are [rows, entities, C1] tensors and pair representations are
//[entities, entities, C2] tensors. Shape mismatches inside a primitive are programmer errors
//and cause a panic with tensor.ErrShape. Callers validate user input beforehand.
package attention

import (
	"github.com/rmera/godock/tensor"
)

//Config holds the sizes of a multi-head attention block.
type Config struct {
	NumHeads int `mapstructure:"num_heads" json:"num_heads"`
	AttnC    int `mapstructure:"attention_c" json:"attention_c"` //channels per head
}

//Validate returns an error if any size is not positive.
func (c Config) Validate() error {
	if c.NumHeads <= 0 || c.AttnC <= 0 {
		return tensor.NewError(tensor.ErrValue, "attention.Config.Validate", "num_heads and attention_c must be positive, got %d and %d", c.NumHeads, c.AttnC)
	}
	return nil
}

//TriangleConfig configures triangle attention. RandRemove is the fraction of
//entities dropped when random subsampling is in use (training only).
type TriangleConfig struct {
	Config     `mapstructure:",squash"`
	RandRemove float64 `mapstructure:"rand_remove" json:"rand_remove"`
}

//Validate also requires RandRemove to be in [0, 1).
func (c TriangleConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.RandRemove < 0 || c.RandRemove >= 1 {
		return tensor.NewError(tensor.ErrValue, "attention.TriangleConfig.Validate", "rand_remove must be in [0,1), got %g", c.RandRemove)
	}
	return nil
}

//MulConfig configures the triangle multiplicative update and the outer product mean.
type MulConfig struct {
	MidC int `mapstructure:"mid_c" json:"mid_c"`
}

//Validate returns an error if MidC is not positive.
func (c MulConfig) Validate() error {
	if c.MidC <= 0 {
		return tensor.NewError(tensor.ErrValue, "attention.MulConfig.Validate", "mid_c must be positive, got %d", c.MidC)
	}
	return nil
}

//heads describes n heads of c channels each, packed head-major in a channel vector,
//possibly for several parts (query, key, value) one after the other.
type heads struct {
	n, c int
}

func (h heads) width() int { return h.n * h.c }

//get returns the channels of head for the given part (0 for queries, 1 for keys, 2 for values).
func (h heads) get(v []float64, part, head int) []float64 {
	o := (part*h.n + head) * h.c
	return v[o : o+h.c : o+h.c]
}

const (
	query = iota
	key
	value
)
