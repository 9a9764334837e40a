/*
 * features.go, part of godock.
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
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rmera/godock/frame"
	"github.com/rmera/godock/structure"
	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

//Array is the JSON form of a tensor.
type Array struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

//Tensor returns a tensor with the shape and data of A. A nil Array gives a nil tensor.
func (A *Array) Tensor() (*tensor.Tensor, error) {
	if A == nil {
		return nil, nil
	}
	return tensor.FromSlice(A.Data, A.Shape...)
}

//NewArray returns the JSON form of T. A nil tensor gives a nil Array.
func NewArray(T *tensor.Tensor) *Array {
	if T == nil {
		return nil
	}
	return &Array{Shape: T.Shape(), Data: T.Data()}
}

//Features is the content of a features file. All the arrays are batched,
//with a leading axis of length 1.
type Features struct {
	NumResidues int                  `json:"num_residues"`
	Single      *Array               `json:"single"`
	Pair        *Array               `json:"pair"`
	Extra       *Array               `json:"extra,omitempty"`
	RecFrames   *Array               `json:"rec_frames"`
	RecMask     *Array               `json:"rec_mask,omitempty"`
	Torsions    *Array               `json:"torsions,omitempty"`
	Fragments   []structure.Fragment `json:"fragments"`
}

//Input converts F to a model input.
func (F *Features) Input() (Input, error) {
	in := Input{NumResidues: F.NumResidues, Fragments: F.Fragments}
	for _, v := range []struct {
		name string
		a    *Array
		t    **tensor.Tensor
	}{
		{"single", F.Single, &in.Single},
		{"pair", F.Pair, &in.Pair},
		{"extra", F.Extra, &in.Extra},
		{"rec_frames", F.RecFrames, &in.RecFrames},
		{"rec_mask", F.RecMask, &in.RecMask},
		{"torsions", F.Torsions, &in.Torsions},
	} {
		t, err := v.a.Tensor()
		if err != nil {
			return in, tensor.Decorate(err, "dock.Features.Input ("+v.name+")")
		}
		*v.t = t
	}
	return in, nil
}

//NewFeatures returns the features file form of in.
func NewFeatures(in Input) *Features {
	return &Features{
		NumResidues: in.NumResidues,
		Single:      NewArray(in.Single),
		Pair:        NewArray(in.Pair),
		Extra:       NewArray(in.Extra),
		RecFrames:   NewArray(in.RecFrames),
		RecMask:     NewArray(in.RecMask),
		Torsions:    NewArray(in.Torsions),
		Fragments:   in.Fragments,
	}
}

func compressed(name string) bool {
	return strings.HasSuffix(name, ".zst")
}

//ReadFeatures reads a JSON features file, compressed with zstd if its name ends in ".zst".
func ReadFeatures(name string) (Input, error) {
	f, err := os.Open(name)
	if err != nil {
		return Input{}, err
	}
	defer f.Close()
	var r io.Reader = bufio.NewReader(f)
	if compressed(name) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return Input{}, err
		}
		defer dec.Close()
		r = dec
	}
	F := new(Features)
	if err := json.NewDecoder(r).Decode(F); err != nil {
		return Input{}, fmt.Errorf("ReadFeatures: decoding %s: %w", name, err)
	}
	return F.Input()
}

//WriteFeatures writes in to a JSON features file, compressed with zstd if its name ends in ".zst".
func WriteFeatures(name string, in Input) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if err2 := f.Close(); err == nil {
			err = err2
		}
	}()
	var w io.Writer = f
	if compressed(name) {
		enc, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return zerr
		}
		defer func() {
			if err2 := enc.Close(); err == nil {
				err = err2
			}
		}()
		w = enc
	}
	return json.NewEncoder(w).Encode(NewFeatures(in))
}

//RandomFeatures returns normally distributed features for nres residues and natoms ligand atoms, with
//rows single rows and, if extraRows > 0 and the model has an extra stack, extraRows extra rows.
//Receptor frames are random rotations placed every 3.8 A along x, all valid. Ligand atoms form a
//single fragment.
func RandomFeatures(r *rand.Rand, cfg Config, nres, natoms, rows, extraRows int) Input {
	n := nres + natoms
	rnd := func(shape ...int) *tensor.Tensor {
		t := tensor.New(shape...)
		d := t.Data()
		for i := range d {
			d[i] = r.NormFloat64()
		}
		return t
	}
	fr := make([]frame.Frame, nres)
	for i := range fr {
		q := rnd(4).Data()
		fr[i] = frame.New(quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}, r3.Vec{X: 3.8 * float64(i)})
	}
	in := Input{
		NumResidues: nres,
		Single:      rnd(1, rows, n, cfg.SingleC),
		Pair:        rnd(1, n, n, cfg.PairC),
		RecFrames:   frame.ToTensor(fr).Reshape(1, nres, 7),
		RecMask:     tensor.Full(1, 1, nres),
		Torsions:    tensor.New(1, nres, structure.NumTorsions, 2),
	}
	if extraRows > 0 && cfg.Extra.NumIter > 0 {
		in.Extra = rnd(1, extraRows, n, cfg.Extra.InputC)
	}
	if natoms > 0 {
		in.Fragments = []structure.Fragment{{Start: 0, End: natoms}}
	}
	return in
}
