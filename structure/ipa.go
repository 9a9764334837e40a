/*
 * ipa.go, part of godock.
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
	"math"

	"github.com/rmera/godock/frame"
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

//PointNormEps is added to squared norms before the square root in the IPA output.
const PointNormEps = 1e-8

//IPA is invariant point attention over receptor residues and ligand atoms together.
//Besides scalar queries, keys and values, each entity produces 3D points in its local frame,
//which are moved to global coordinates with the entity frame. The attention logits combine
//the scalar products, the squared distances between query and key points and a bias from
//the pair representation, with a separate projection for each of the four receptor/ligand
//quadrants. The result does not change if the same rigid motion is applied to all frames.
type IPA struct {
	cfg   IPAConfig
	pairC int

	RecScalar, LigScalar *nn.Linear //C -> H*(2*ScalarQK+ScalarV)
	RecPoint, LigPoint   *nn.Linear //C -> 3*H*(2*PointQK+PointV)
	//pair bias for the receptor-receptor, ligand-ligand, receptor-ligand and ligand-receptor quadrants.
	RR, LL, RL, LR *nn.Linear
	Final          *nn.Linear
}

//NewIPA returns an IPA block for single representations of singleC channels and a
//pair representation of pairC channels.
func NewIPA(cfg IPAConfig, singleC, pairC int, init nn.Initializer) *IPA {
	h := cfg.NumHeads
	scalar := h * (2*cfg.ScalarQK + cfg.ScalarV)
	point := 3 * h * (2*cfg.PointQK + cfg.PointV)
	return &IPA{
		cfg:       cfg,
		pairC:     pairC,
		RecScalar: nn.NewLinearNoBias(singleC, scalar, init),
		LigScalar: nn.NewLinearNoBias(singleC, scalar, init),
		RecPoint:  nn.NewLinearNoBias(singleC, point, init),
		LigPoint:  nn.NewLinearNoBias(singleC, point, init),
		RR:        nn.NewLinearNoBias(pairC, h, init),
		LL:        nn.NewLinearNoBias(pairC, h, init),
		RL:        nn.NewLinearNoBias(pairC, h, init),
		LR:        nn.NewLinearNoBias(pairC, h, init),
		Final:     nn.NewLinear(h*(pairC+cfg.ScalarV+4*cfg.PointV), singleC, init),
	}
}

//outC is the width of the concatenated output, before the final projection.
func (A *IPA) outC() int {
	return A.cfg.NumHeads * (A.pairC + A.cfg.ScalarV + 4*A.cfg.PointV)
}

//entity holds the projections of one residue or atom.
type entity struct {
	q, k, v    [][]float64 //[head][channel]
	qp, kp, vp [][]r3.Vec  //[head][point], global coordinates
}

func (A *IPA) project(scalar, point []float64, f frame.Frame) entity {
	c := A.cfg
	h := c.NumHeads
	sw := 2*c.ScalarQK + c.ScalarV
	pw := 2*c.PointQK + c.PointV
	e := entity{
		q: make([][]float64, h), k: make([][]float64, h), v: make([][]float64, h),
		qp: make([][]r3.Vec, h), kp: make([][]r3.Vec, h), vp: make([][]r3.Vec, h),
	}
	//scalars are laid out as [head][k,q,v], points as [xyz][head][k,q,v points].
	blk := h * pw
	for hd := 0; hd < h; hd++ {
		s := scalar[hd*sw : (hd+1)*sw]
		e.k[hd], e.q[hd], e.v[hd] = s[:c.ScalarQK], s[c.ScalarQK:2*c.ScalarQK], s[2*c.ScalarQK:]
		pts := make([]r3.Vec, pw)
		for p := range pts {
			o := hd*pw + p
			pts[p] = r3.Vec{X: point[o], Y: point[blk+o], Z: point[2*blk+o]}
		}
		f.ApplyAll(pts)
		e.kp[hd], e.qp[hd], e.vp[hd] = pts[:c.PointQK], pts[c.PointQK:2*c.PointQK], pts[2*c.PointQK:]
	}
	return e
}

//Forward takes the receptor [R,C] and ligand [A,C] single representations, the pair
//representation [R+A,R+A,C2] and the frames of the R residues and A atoms. It returns
//the [R+A,C] update, receptor first.
func (A *IPA) Forward(rec, lig, pair *tensor.Tensor, recT, ligT []frame.Frame) *tensor.Tensor {
	nr, na := rec.Dim(0), lig.Dim(0)
	n := nr + na
	if len(recT) != nr || len(ligT) != na || pair.Dim(0) != n || pair.Dim(1) != n || pair.Dim(2) != A.pairC {
		panic(tensor.ErrShape)
	}
	c := A.cfg
	h := c.NumHeads
	ents := make([]entity, 0, n)
	rs, rp := A.RecScalar.Forward(rec), A.RecPoint.Forward(rec)
	for i := 0; i < nr; i++ {
		ents = append(ents, A.project(rs.Vec(i), rp.Vec(i), recT[i]))
	}
	ls, lp := A.LigScalar.Forward(lig), A.LigPoint.Forward(lig)
	for i := 0; i < na; i++ {
		ents = append(ents, A.project(ls.Vec(i), lp.Vec(i), ligT[i]))
	}
	quad := [2][2]*tensor.Tensor{
		{A.RR.Forward(pair), A.RL.Forward(pair)},
		{A.LR.Forward(pair), A.LL.Forward(pair)},
	}
	side := func(i int) int {
		if i < nr {
			return 0
		}
		return 1
	}
	wc := math.Sqrt(2 / (9 * float64(c.PointQK)))
	wl := math.Sqrt(1.0/3) / math.Sqrt(float64(c.ScalarQK))

	pairOff := 0
	scalarOff := h * A.pairC
	pointOff := scalarOff + h*c.ScalarV
	normOff := pointOff + 3*h*c.PointV
	out := tensor.New(n, A.outC())
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		o := out.Vec(i)
		ei := ents[i]
		var fi frame.Frame
		if i < nr {
			fi = recT[i]
		} else {
			fi = ligT[i-nr]
		}
		for hd := 0; hd < h; hd++ {
			for j := 0; j < n; j++ {
				ej := ents[j]
				d2 := 0.0
				for p, qp := range ei.qp[hd] {
					d := r3.Sub(qp, ej.kp[hd][p])
					d2 += r3.Dot(d, d)
				}
				w[j] = wl*floats.Dot(ei.q[hd], ej.k[hd]) - wc*d2 + quad[side(i)][side(j)].At(i, j, hd)
			}
			nn.Softmax(w, nil)
			po := o[pairOff+hd*A.pairC : pairOff+(hd+1)*A.pairC]
			so := o[scalarOff+hd*c.ScalarV : scalarOff+(hd+1)*c.ScalarV]
			gp := make([]r3.Vec, c.PointV)
			for j := 0; j < n; j++ {
				floats.AddScaled(po, w[j], pair.Vec(i, j))
				floats.AddScaled(so, w[j], ents[j].v[hd])
				for p, vp := range ents[j].vp[hd] {
					gp[p] = r3.Add(gp[p], r3.Scale(w[j], vp))
				}
			}
			//back to the local frame of the query entity. Points and norms go as [point][head].
			fi.InvertAll(gp)
			for p, loc := range gp {
				b := pointOff + (p*h+hd)*3
				o[b], o[b+1], o[b+2] = loc.X, loc.Y, loc.Z
				o[normOff+p*h+hd] = math.Sqrt(r3.Dot(loc, loc) + PointNormEps)
			}
		}
	}
	return A.Final.Forward(out)
}
