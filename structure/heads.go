/*
 * heads.go, part of godock.
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
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
)

//SidechainHead predicts torsion increments, as unnormalized (sin, cos) pairs,
//from the current and the initial receptor single representations.
type SidechainHead struct {
	Cur, Init  *nn.Linear
	Res1, Res2 *nn.MLP
	Final      *nn.Linear
}

//NewSidechainHead returns a torsion head with c hidden channels.
func NewSidechainHead(singleC, c int, init nn.Initializer) *SidechainHead {
	return &SidechainHead{
		Cur:   nn.NewLinear(singleC, c, init),
		Init:  nn.NewLinear(singleC, c, init),
		Res1:  nn.NewMLP(init, c, c, c, c),
		Res2:  nn.NewMLP(init, c, c, c, c),
		Final: nn.NewLinear(c, 2*NumTorsions, init),
	}
}

//Forward takes cur and ini, both [R,C], and returns [R,NumTorsions,2].
func (S *SidechainHead) Forward(cur, ini *tensor.Tensor) *tensor.Tensor {
	a := S.Cur.Forward(cur).Add(S.Init.Forward(ini))
	a = a.Add(S.Res1.Forward(a))
	a = a.Add(S.Res2.Forward(a))
	out := S.Final.Forward(nn.Apply(a, nn.ReLU))
	return out.Reshape(cur.Dim(0), NumTorsions, 2)
}

//Head is a LayerNorm followed by a three-layer ReLU MLP. It is used for the
//confidence (LDDT) logits and the affinity logits.
type Head struct {
	Norm *nn.LayerNorm
	MLP  *nn.MLP
}

//NewHead returns a head for single representations of singleC channels.
func NewHead(cfg HeadConfig, singleC int, init nn.Initializer) *Head {
	return &Head{Norm: nn.NewLayerNorm(singleC), MLP: nn.NewMLP(init, singleC, cfg.C, cfg.C, cfg.Bins)}
}

//Forward maps [N,C] to [N,Bins] logits.
func (H *Head) Forward(x *tensor.Tensor) *tensor.Tensor {
	return H.MLP.Forward(H.Norm.Forward(x))
}
