/*
 * iteration.go, part of godock.
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

package structure

import (
	"github.com/rmera/godock/checkpoint"
	"github.com/rmera/godock/frame"
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
)

//State is what flows between structure module iterations. Frame slices are never
//modified once a State is built: each iteration allocates new ones.
type State struct {
	RecInit  *tensor.Tensor //[R,C], normalized receptor input, fixed across iterations
	Rec      *tensor.Tensor //[R,C]
	Lig      *tensor.Tensor //[A,C]
	Pair     *tensor.Tensor //[R+A,R+A,C2]
	RecT     []frame.Frame  //R frames, in scaled units
	LigT     []frame.Frame  //A frames, in scaled units
	Torsions *tensor.Tensor //[R,7,2], accumulated
	RecLDDT  *tensor.Tensor //[R,bins], nil before the first iteration
	LigLDDT  *tensor.Tensor //[A,bins], nil before the first iteration
}

//Iteration is one structure module block.
type Iteration struct {
	IPA            *IPA
	RecNorm        *nn.LayerNorm
	LigNorm        *nn.LayerNorm
	Transition     *nn.MLP
	BackboneUpdate *nn.Linear
	LigandUpdate   *nn.Linear
	Sidechains     *SidechainHead
	RecLDDT        *Head
	LigLDDT        *Head
}

func newIteration(cfg Config, d Dims, init nn.Initializer) *Iteration {
	c := d.SingleC
	return &Iteration{
		IPA:            NewIPA(cfg.IPA, c, d.PairC, init),
		RecNorm:        nn.NewLayerNorm(c),
		LigNorm:        nn.NewLayerNorm(c),
		Transition:     nn.NewMLP(init, c, c, c, c),
		BackboneUpdate: nn.NewLinear(c, 6, init),
		LigandUpdate:   nn.NewLinear(c, 6, init),
		Sidechains:     NewSidechainHead(c, cfg.SidechainC, init),
		RecLDDT:        NewHead(cfg.RecLDDT, c, init),
		LigLDDT:        NewHead(cfg.LigLDDT, c, init),
	}
}

func updateFrames(frames []frame.Frame, upd *tensor.Tensor) []frame.Frame {
	ret := make([]frame.Frame, len(frames))
	for i, f := range frames {
		var u [6]float64
		copy(u[:], upd.Vec(i))
		ret[i] = f.PreCompose(u)
	}
	frame.MustUnit(ret)
	return ret
}

//Forward runs the iteration on in, which is not modified. It panics with frame.ErrNonUnit
//if a composed frame is not a unit quaternion.
func (I *Iteration) Forward(in State, tap checkpoint.Tap) State {
	nr := in.Rec.Dim(0)
	n := nr + in.Lig.Dim(0)

	upd := I.IPA.Forward(in.Rec, in.Lig, in.Pair, in.RecT, in.LigT)
	tap("ipa", upd)
	rec := I.RecNorm.Forward(in.Rec.Add(upd.Slice(0, nr)))
	lig := I.LigNorm.Forward(in.Lig.Add(upd.Slice(nr, n)))

	upd = I.Transition.Forward(tensor.Concat(rec, lig))
	tap("transition", upd)
	rec = rec.Add(upd.Slice(0, nr))
	lig = lig.Add(upd.Slice(nr, n))

	bb := I.BackboneUpdate.Forward(rec)
	tap("backbone_update", bb)
	lu := I.LigandUpdate.Forward(lig)
	tap("ligand_update", lu)

	tors := I.Sidechains.Forward(rec, in.RecInit)
	tap("torsion_update", tors)

	return State{
		RecInit:  in.RecInit,
		Rec:      rec,
		Lig:      lig,
		Pair:     in.Pair,
		RecT:     updateFrames(in.RecT, bb),
		LigT:     updateFrames(in.LigT, lu),
		Torsions: in.Torsions.Add(tors),
		RecLDDT:  I.RecLDDT.Forward(rec),
		LigLDDT:  I.LigLDDT.Forward(lig),
	}
}
