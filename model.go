/*
 * model.go, part of godock.
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

package dock

import (
	"time"

	"github.com/google/uuid"
	"github.com/rmera/godock/evoformer"
	"github.com/rmera/godock/internal/logging"
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/structure"
	"github.com/rmera/godock/tensor"
)

//Config describes the whole model.
type Config struct {
	//SingleC and PairC are the widths of the Evoformer representations.
	SingleC int `mapstructure:"single_c" json:"single_c"`
	PairC   int `mapstructure:"pair_c" json:"pair_c"`
	//StructureC is the width of the single representations in the structure module.
	StructureC int `mapstructure:"structure_c" json:"structure_c"`
	//The extra stack is only built if Extra.NumIter > 0.
	Extra     evoformer.ExtraConfig `mapstructure:"extra" json:"extra"`
	Evoformer evoformer.Config      `mapstructure:"evoformer" json:"evoformer"`
	Structure structure.Config      `mapstructure:"structure" json:"structure"`
}

//DefaultConfig returns a small model configuration.
func DefaultConfig() Config {
	extra := evoformer.ExtraConfig{Config: evoformer.DefaultConfig(), InputC: 8}
	extra.NumIter = 1
	return Config{
		SingleC:    16,
		PairC:      8,
		StructureC: 16,
		Extra:      extra,
		Evoformer:  evoformer.DefaultConfig(),
		Structure:  structure.DefaultConfig(),
	}
}

//Validate returns the first error found in the configuration.
func (c Config) Validate() error {
	const caller = "dock.Config.Validate"
	if c.SingleC <= 0 || c.PairC <= 0 || c.StructureC <= 0 {
		return tensor.NewError(tensor.ErrValue, caller, "channel widths must be positive: %d, %d, %d", c.SingleC, c.PairC, c.StructureC)
	}
	if c.Extra.NumIter > 0 {
		if err := c.Extra.Validate(); err != nil {
			return tensor.Decorate(err, caller)
		}
	}
	if err := c.Evoformer.Validate(); err != nil {
		return tensor.Decorate(err, caller)
	}
	return tensor.Decorate(c.Structure.Validate(), caller)
}

//Model is the complete predictor.
type Model struct {
	cfg Config
	log logging.Logger

	Extra      *evoformer.ExtraStack //nil if the model has no extra stack
	Evoformer  *evoformer.Stack
	RecProject *nn.Linear
	LigProject *nn.Linear
	Structure  *structure.Module
}

//New builds a model with parameters drawn from init. log can be nil. opts are
//given to both Evoformer stacks. New panics if cfg is not valid.
func New(cfg Config, init nn.Initializer, log logging.Logger, opts ...evoformer.Option) *Model {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	log = logging.OrNop(log)
	dims := evoformer.Dims{SingleC: cfg.SingleC, PairC: cfg.PairC}
	opts = append([]evoformer.Option{evoformer.WithLogger(log)}, opts...)
	M := &Model{
		cfg:        cfg,
		log:        log,
		Evoformer:  evoformer.NewStack(cfg.Evoformer, dims, init, opts...),
		RecProject: nn.NewLinear(cfg.SingleC, cfg.StructureC, init),
		LigProject: nn.NewLinear(cfg.SingleC, cfg.StructureC, init),
		Structure:  structure.New(cfg.Structure, structure.Dims{SingleC: cfg.StructureC, PairC: cfg.PairC}, init, log),
	}
	if cfg.Extra.NumIter > 0 {
		M.Extra = evoformer.NewExtraStack(cfg.Extra, dims, init, opts...)
	}
	return M
}

//Config returns the configuration the model was built with.
func (M *Model) Config() Config { return M.cfg }

//Input holds batched features, each tensor with a leading axis of length 1.
type Input struct {
	//NumResidues is the number of receptor residues. They come first
	//among the entities, followed by the ligand atoms.
	NumResidues int
	Single      *tensor.Tensor //[1,M,R+A,SingleC] or [1,R+A,SingleC]
	Pair        *tensor.Tensor //[1,R+A,R+A,PairC]
	Extra       *tensor.Tensor //[1,S,R+A,InputC], optional
	RecFrames   *tensor.Tensor //[1,R,7], in Angstrom
	RecMask     *tensor.Tensor //[1,R], values below 1 mark residues without a valid frame. Optional.
	Torsions    *tensor.Tensor //[1,R,7,2], optional
	Fragments   []structure.Fragment
}

//Output of a model run.
type Output struct {
	RunID     uuid.UUID
	Extra     *evoformer.Result //nil if the extra stack didn't run
	Evoformer *evoformer.Result
	*structure.Output
}

func unbatch(caller, name string, t *tensor.Tensor, optional bool) (*tensor.Tensor, error) {
	if t == nil {
		if optional {
			return nil, nil
		}
		return nil, tensor.ShapeError(caller, "%s is missing", name)
	}
	ret, err := tensor.Unbatch(t)
	if err != nil {
		return nil, tensor.Decorate(err, caller+" ("+name+")")
	}
	return ret, nil
}

//Forward runs the model. Any batch size other than 1 gives an error with the tensor.ErrBatch kind.
func (M *Model) Forward(in Input) (*Output, error) {
	const caller = "dock.Model.Forward"
	var t [6]*tensor.Tensor
	for i, v := range []struct {
		name     string
		t        *tensor.Tensor
		optional bool
	}{
		{"single", in.Single, false},
		{"pair", in.Pair, false},
		{"extra", in.Extra, true},
		{"receptor frames", in.RecFrames, false},
		{"receptor mask", in.RecMask, true},
		{"torsions", in.Torsions, true},
	} {
		var err error
		if t[i], err = unbatch(caller, v.name, v.t, v.optional); err != nil {
			return nil, err
		}
	}
	single, pair, extra, frames, mask, tors := t[0], t[1], t[2], t[3], t[4], t[5]
	if pair.Rank() != 3 {
		return nil, tensor.ShapeError(caller, "pair representation must have 3 axes, got shape %v", pair.Shape())
	}
	n := pair.Dim(0)
	nr := in.NumResidues
	if nr < 0 || nr > n {
		return nil, tensor.NewError(tensor.ErrValue, caller, "%d residues for %d entities", nr, n)
	}
	var recMask []bool
	if mask != nil {
		if err := tensor.Check(caller, "receptor mask", mask, nr); err != nil {
			return nil, err
		}
		recMask = make([]bool, nr)
		for i, v := range mask.Data() {
			recMask[i] = v >= 1
		}
	}
	if extra != nil && M.Extra == nil {
		return nil, tensor.NewError(tensor.ErrValue, caller, "extra features given to a model without an extra stack")
	}
	if extra != nil {
		if err := M.Extra.Validate(extra, pair); err != nil {
			return nil, tensor.Decorate(err, caller)
		}
	}
	if err := M.Evoformer.Validate(single, pair); err != nil {
		return nil, tensor.Decorate(err, caller)
	}
	sin := structure.Input{RecFrames: frames, RecMask: recMask, Torsions: tors, Fragments: in.Fragments}
	if err := M.Structure.Validate(nr, n-nr, sin); err != nil {
		return nil, tensor.Decorate(err, caller)
	}
	out := &Output{RunID: uuid.New()}
	log := M.log.With(logging.String("run", out.RunID.String()))
	start := time.Now()
	if extra != nil {
		res, err := M.Extra.Forward(extra, pair)
		if err != nil {
			return nil, tensor.Decorate(err, caller)
		}
		out.Extra = res
		pair = res.Pair
	} else if M.Extra != nil {
		log.Warn("no extra features given, skipping the extra stack")
	}
	evo, err := M.Evoformer.Forward(single, pair)
	if err != nil {
		return nil, tensor.Decorate(err, caller)
	}
	out.Evoformer = evo
	//the first row of the single representation describes the complex.
	row := evo.Single
	if row.Rank() == 3 {
		row = row.Slice(0, 1).Reshape(n, M.cfg.SingleC)
	}
	st, err := M.Structure.Forward(structure.Input{
		Rec:       M.RecProject.Forward(row.Slice(0, nr)),
		Lig:       M.LigProject.Forward(row.Slice(nr, n)),
		Pair:      evo.Pair,
		RecFrames: sin.RecFrames,
		RecMask:   sin.RecMask,
		Torsions:  sin.Torsions,
		Fragments: sin.Fragments,
	})
	if err != nil {
		return nil, tensor.Decorate(err, caller)
	}
	out.Output = st
	log.Info("prediction done", logging.Int("residues", nr), logging.Int("atoms", n-nr),
		logging.Int("fragments", len(in.Fragments)), logging.Duration("took", time.Since(start)))
	return out, nil
}
