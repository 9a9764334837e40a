/*
 * bbframe_test.go, part of godock.
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

package bbframe

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/godock/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

//backbone atoms in the local frame of their residue.
var (
	localN  = r3.Vec{X: -0.525, Y: 1.363}
	localCA = r3.Vec{}
	localC  = r3.Vec{X: 1.526}
)

func TestFromBackboneIdentity(Te *testing.T) {
	f, ok := FromBackbone(localN, localCA, localC)
	require.True(Te, ok)
	R := f.Rotation()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(Te, want, R[i][j], 1e-9)
		}
	}
	assert.InDelta(Te, 0, r3.Norm(f.Trans), 1e-12)
}

func TestFromBackboneRecoversFrame(Te *testing.T) {
	r := rand.New(rand.NewSource(1))
	for k := 0; k < 10; k++ {
		q := quat.Number{Real: r.NormFloat64(), Imag: r.NormFloat64(), Jmag: r.NormFloat64(), Kmag: r.NormFloat64()}
		G := frame.New(q, r3.Vec{X: 10 * r.NormFloat64(), Y: 10 * r.NormFloat64(), Z: 10 * r.NormFloat64()})
		f, ok := FromBackbone(G.Apply(localN), G.Apply(localCA), G.Apply(localC))
		require.True(Te, ok)
		assert.True(Te, f.IsUnit())
		for _, p := range []r3.Vec{{X: 1}, {Y: 2}, {X: -1, Y: 3, Z: 0.5}} {
			assert.InDelta(Te, 0, r3.Norm(r3.Sub(G.Apply(p), f.Apply(p))), 1e-9)
		}
	}
}

func TestFromBackboneDegenerate(Te *testing.T) {
	_, ok := FromBackbone(localN, localCA, localCA)
	assert.False(Te, ok)
	f, ok := FromBackbone(r3.Vec{X: -2}, localCA, localC)
	assert.False(Te, ok)
	assert.Equal(Te, frame.Identity(), f)
}

func pdbLine(serial int, het bool, name, res string, resid int, p r3.Vec, elem string) string {
	rec := "ATOM"
	if het {
		rec = "HETATM"
	}
	return fmt.Sprintf("%-6s%5d  %-3s %3s A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  ",
		rec, serial, name, res, resid, p.X, p.Y, p.Z, 1.0, 0.0, elem)
}

func TestFromPDB(Te *testing.T) {
	G := frame.New(quat.Number{Real: 1, Imag: 0.3, Jmag: -0.2, Kmag: 0.1}, r3.Vec{X: 4, Y: -2, Z: 7})
	shift := frame.New(quat.Number{Real: 1}, r3.Vec{X: 3.8})
	var lines []string
	serial := 1
	add := func(het bool, name, res string, resid int, p r3.Vec, elem string) {
		lines = append(lines, pdbLine(serial, het, name, res, resid, p, elem))
		serial++
	}
	f := G
	for i, res := range []string{"ALA", "GLY", "SER"} {
		add(false, "N", res, i+1, f.Apply(localN), "N")
		add(false, "CA", res, i+1, f.Apply(localCA), "C")
		if res != "GLY" {
			//the second residue has no C
			add(false, "C", res, i+1, f.Apply(localC), "C")
		}
		add(false, "O", res, i+1, f.Apply(r3.Vec{X: 2.1, Y: -1}), "O")
		f = f.Compose(shift)
	}
	add(true, "O", "HOH", 10, r3.Vec{X: 1, Y: 1, Z: 1}, "O")
	lines = append(lines, "END")
	path := filepath.Join(Te.TempDir(), "rec.pdb")
	require.NoError(Te, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	B, err := FromPDB(path)
	require.NoError(Te, err)
	require.Equal(Te, 3, B.Len())
	assert.Equal(Te, []bool{true, false, true}, B.Mask)
	assert.Equal(Te, 2, B.Valid())
	assert.Equal(Te, frame.Identity(), B.Frames[1])
	assert.InDelta(Te, 0, r3.Norm(r3.Sub(G.Trans, B.Frames[0].Trans)), 1e-3)
	assert.InDelta(Te, 7.6, Distance(B.Frames[0], B.Frames[2]), 1e-2)
	assert.True(Te, strings.HasPrefix(B.Residues[2], "SER3"))

	frames, mask := B.Tensors()
	assert.Equal(Te, []int{1, 3, 7}, frames.Shape())
	assert.Equal(Te, []float64{1, 0, 1}, mask.Data())

	_, err = FromPDB(filepath.Join(Te.TempDir(), "missing.pdb"))
	assert.Error(Te, err)
}
