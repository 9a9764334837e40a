/*
 * bbframe.go, part of godock.
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

//Package bbframe builds rigid frames for protein residues from the positions of
//their backbone N, CA and C atoms, as read from a PDB file with goChem.
//
//The frame of a residue has its origin at CA. Its x axis points from CA to C, and
//the N atom lies in its xy plane, on the positive y side.
package bbframe

import (
	"fmt"

	chem "github.com/rmera/gochem"
	v3 "github.com/rmera/gochem/v3"
	"github.com/rmera/godock/frame"
	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/spatial/r3"
)

//MinNorm is the smallest length accepted for the vectors a frame is built from.
const MinNorm = 1e-6

//Backbone holds one frame per residue. Residues missing one of the backbone atoms, or
//with a degenerate geometry, have an identity frame and a false mask value.
type Backbone struct {
	Frames   []frame.Frame
	Mask     []bool
	Residues []string //residue name, number and chain, i.e. ALA12A
}

//Len returns the number of residues.
func (B *Backbone) Len() int { return len(B.Frames) }

//Tensors returns the batched [1,R,7] frames and the [1,R] mask, with 1 for valid frames and 0 for others.
func (B *Backbone) Tensors() (frames, mask *tensor.Tensor) {
	frames = frame.ToTensor(B.Frames).Reshape(1, B.Len(), 7)
	mask = tensor.New(1, B.Len())
	for i, ok := range B.Mask {
		if ok {
			mask.Data()[i] = 1
		}
	}
	return frames, mask
}

//FromBackbone returns the frame of a residue with the given N, CA and C positions. ok is false
//if the atoms are too close to each other or collinear, in which case the identity is returned.
func FromBackbone(n, ca, c r3.Vec) (f frame.Frame, ok bool) {
	e1 := r3.Sub(c, ca)
	l1 := r3.Norm(e1)
	if l1 < MinNorm {
		return frame.Identity(), false
	}
	e1 = r3.Scale(1/l1, e1)
	v := r3.Sub(n, ca)
	e2 := r3.Sub(v, r3.Scale(r3.Dot(v, e1), e1))
	l2 := r3.Norm(e2)
	if l2 < MinNorm {
		return frame.Identity(), false
	}
	e2 = r3.Scale(1/l2, e2)
	e3 := r3.Cross(e1, e2)
	R := [3][3]float64{
		{e1.X, e2.X, e3.X},
		{e1.Y, e2.Y, e3.Y},
		{e1.Z, e2.Z, e3.Z},
	}
	return frame.FromRotation(R, ca), true
}

type residue struct {
	name     string
	n, ca, c r3.Vec
	has      [3]bool
}

func vec(coords *v3.Matrix, i int) r3.Vec {
	return r3.Vec{X: coords.At(i, 0), Y: coords.At(i, 1), Z: coords.At(i, 2)}
}

//FromMolecule builds the frames of the non-HETATM residues of mol, in the order they
//appear, using the coordinates in coords.
func FromMolecule(mol chem.Atomer, coords *v3.Matrix) (*Backbone, error) {
	if mol.Len() != coords.NVecs() {
		return nil, tensor.NewError(tensor.ErrShape, "bbframe.FromMolecule", "%d atoms but %d coordinates", mol.Len(), coords.NVecs())
	}
	var res []*residue
	var cur *residue
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		if at.Het {
			continue
		}
		name := fmt.Sprintf("%s%d%v", at.MolName, at.MolID, at.Chain)
		if cur == nil || cur.name != name {
			cur = &residue{name: name}
			res = append(res, cur)
		}
		switch at.Name {
		case "N":
			cur.n, cur.has[0] = vec(coords, i), true
		case "CA":
			cur.ca, cur.has[1] = vec(coords, i), true
		case "C":
			cur.c, cur.has[2] = vec(coords, i), true
		}
	}
	B := &Backbone{
		Frames:   make([]frame.Frame, len(res)),
		Mask:     make([]bool, len(res)),
		Residues: make([]string, len(res)),
	}
	for i, r := range res {
		B.Residues[i] = r.name
		B.Frames[i] = frame.Identity()
		if r.has != [3]bool{true, true, true} {
			continue
		}
		B.Frames[i], B.Mask[i] = FromBackbone(r.n, r.ca, r.c)
	}
	return B, nil
}

//FromPDB reads the first model in a PDB file and returns the backbone frames of its residues.
func FromPDB(name string) (*Backbone, error) {
	mol, err := chem.PDBFileRead(name)
	if err != nil {
		return nil, fmt.Errorf("bbframe.FromPDB: %w", err)
	}
	if len(mol.Coords) == 0 {
		return nil, tensor.NewError(tensor.ErrValue, "bbframe.FromPDB", "no coordinates in %s", name)
	}
	return FromMolecule(mol, mol.Coords[0])
}

//Distance returns the distance between the origins of two frames, which, for
//backbone frames, is the CA-CA distance.
func Distance(a, b frame.Frame) float64 {
	return r3.Norm(r3.Sub(a.Trans, b.Trans))
}

//Valid returns the number of residues with valid frames.
func (B *Backbone) Valid() int {
	n := 0
	for _, ok := range B.Mask {
		if ok {
			n++
		}
	}
	return n
}
