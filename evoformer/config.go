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

package evoformer

import (
	"math/rand"

	"github.com/rmera/godock/attention"
	"github.com/rmera/godock/internal/logging"
	"github.com/rmera/godock/tensor"
)

//Dims are the channel widths of the representations.
type Dims struct {
	SingleC int `mapstructure:"single_c" json:"single_c"`
	PairC   int `mapstructure:"pair_c" json:"pair_c"`
}

//Validate returns an error if a width is not positive.
func (d Dims) Validate() error {
	if d.SingleC <= 0 || d.PairC <= 0 {
		return tensor.NewError(tensor.ErrValue, "evoformer.Dims.Validate", "channel widths must be positive, got %d and %d", d.SingleC, d.PairC)
	}
	return nil
}

//Config describes a stack of Evoformer iterations. In the extra stack, ColumnAttention
//configures the global column attention.
type Config struct {
	NumIter              int                      `mapstructure:"num_iter" json:"num_iter"`
	RowAttention         attention.Config         `mapstructure:"row_attention" json:"row_attention"`
	ColumnAttention      attention.Config         `mapstructure:"column_attention" json:"column_attention"`
	SingleTransitionN    int                      `mapstructure:"single_transition_n" json:"single_transition_n"`
	OuterProductMean     attention.MulConfig      `mapstructure:"outer_product_mean" json:"outer_product_mean"`
	TriangleMulOutgoing  attention.MulConfig      `mapstructure:"triangle_mul_outgoing" json:"triangle_mul_outgoing"`
	TriangleMulIncoming  attention.MulConfig      `mapstructure:"triangle_mul_incoming" json:"triangle_mul_incoming"`
	TriangleAttnStarting attention.TriangleConfig `mapstructure:"triangle_attn_starting" json:"triangle_attn_starting"`
	TriangleAttnEnding   attention.TriangleConfig `mapstructure:"triangle_attn_ending" json:"triangle_attn_ending"`
	PairTransitionN      int                      `mapstructure:"pair_transition_n" json:"pair_transition_n"`
	//Checkpoint keeps only the input of each iteration, recomputing activations on demand.
	Checkpoint bool `mapstructure:"checkpoint" json:"checkpoint"`
}

//DefaultConfig returns a small configuration, suitable for tests and quick runs.
func DefaultConfig() Config {
	att := attention.Config{NumHeads: 2, AttnC: 8}
	return Config{
		NumIter:              2,
		RowAttention:         att,
		ColumnAttention:      att,
		SingleTransitionN:    2,
		OuterProductMean:     attention.MulConfig{MidC: 4},
		TriangleMulOutgoing:  attention.MulConfig{MidC: 8},
		TriangleMulIncoming:  attention.MulConfig{MidC: 8},
		TriangleAttnStarting: attention.TriangleConfig{Config: att, RandRemove: 0.25},
		TriangleAttnEnding:   attention.TriangleConfig{Config: att, RandRemove: 0.25},
		PairTransitionN:      2,
	}
}

//Validate returns the first error found in c.
func (c Config) Validate() error {
	if c.NumIter < 0 {
		return tensor.NewError(tensor.ErrValue, "evoformer.Config.Validate", "num_iter can't be negative (%d)", c.NumIter)
	}
	if c.SingleTransitionN <= 0 || c.PairTransitionN <= 0 {
		return tensor.NewError(tensor.ErrValue, "evoformer.Config.Validate", "transition factors must be positive")
	}
	for _, v := range []interface{ Validate() error }{
		c.RowAttention, c.ColumnAttention, c.OuterProductMean, c.TriangleMulOutgoing,
		c.TriangleMulIncoming, c.TriangleAttnStarting, c.TriangleAttnEnding,
	} {
		if err := v.Validate(); err != nil {
			return tensor.Decorate(err, "evoformer.Config.Validate")
		}
	}
	return nil
}

//ExtraConfig describes the extra stack, which also projects its input from InputC channels.
type ExtraConfig struct {
	Config `mapstructure:",squash"`
	InputC int `mapstructure:"input_c" json:"input_c"`
}

//Validate checks InputC and the embedded Config.
func (c ExtraConfig) Validate() error {
	if c.InputC <= 0 {
		return tensor.NewError(tensor.ErrValue, "evoformer.ExtraConfig.Validate", "input_c must be positive, got %d", c.InputC)
	}
	return tensor.Decorate(c.Config.Validate(), "evoformer.ExtraConfig.Validate")
}

type options struct {
	training bool
	rng      *rand.Rand
	log      logging.Logger
}

//Option modifies how a stack is built.
type Option func(*options)

//Training enables random subsampling in triangle attention, drawing from rng.
//Without this option subsampling is never applied.
func Training(rng *rand.Rand) Option {
	return func(o *options) {
		o.training = true
		o.rng = rng
	}
}

//WithLogger sets the logger of the stack.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logging.NewNopLogger()}
	for _, f := range opts {
		f(&o)
	}
	o.log = logging.OrNop(o.log)
	return o
}

func (o options) subsampler(c attention.TriangleConfig) attention.Subsampler {
	if !o.training || c.RandRemove <= 0 || o.rng == nil {
		return attention.Full{}
	}
	return attention.NewRandomSubset(c.RandRemove, o.rng)
}
