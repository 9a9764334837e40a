/*
 * structure_test.go, part of godock.
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
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rmera/godock/frame"
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var testDims = Dims{SingleC: 8, PairC: 6}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NumIter = 2
	cfg.IPA = IPAConfig{NumHeads: 2, ScalarQK: 4, ScalarV: 4, PointQK: 2, PointV: 3}
	cfg.SidechainC = 8
	cfg.RecLDDT = HeadConfig{C: 8, Bins: 5}
	cfg.LigLDDT = HeadConfig{C: 8, Bins: 4}
	return cfg
}

func randTensor(r *rand.Rand, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	for i := range t.Data() {
		t.Data()[i] = r.NormFloat64()
	}
	return t
}

func randFrame(r *rand.Rand, spread float64) frame.Frame {
	q := quat.Number{Real: r.NormFloat64(), Imag: r.NormFloat64(), Jmag: r.NormFloat64(), Kmag: r.NormFloat64()}
	return frame.New(q, r3.Vec{X: spread * r.NormFloat64(), Y: spread * r.NormFloat64(), Z: spread * r.NormFloat64()})
}

func randFrames(r *rand.Rand, n int, spread float64) []frame.Frame {
	ret := make([]frame.Frame, n)
	for i := range ret {
		ret[i] = randFrame(r, spread)
	}
	return ret
}

func testInput(r *rand.Rand, nr, na int) Input {
	return Input{
		Rec:       randTensor(r, nr, testDims.SingleC),
		Lig:       randTensor(r, na, testDims.SingleC),
		Pair:      randTensor(r, nr+na, nr+na, testDims.PairC),
		RecFrames: frame.ToTensor(randFrames(r, nr, 10)),
		Torsions:  randTensor(r, nr, NumTorsions, 2),
		Fragments: []Fragment{{0, na}},
	}
}

func TestIPAInvariance(Te *testing.T) {
	r := rand.New(rand.NewSource(1))
	cfg := testConfig().IPA
	A := NewIPA(cfg, testDims.SingleC, testDims.PairC, nn.NewUniform(3))
	rec, lig := randTensor(r, 4, 8), randTensor(r, 3, 8)
	pair := randTensor(r, 7, 7, 6)
	recT, ligT := randFrames(r, 4, 2), randFrames(r, 3, 2)
	ref := A.Forward(rec, lig, pair, recT, ligT)
	assert.Equal(Te, []int{7, 8}, ref.Shape())
	for k := 0; k < 3; k++ {
		G := randFrame(r, 5)
		rt, lt := make([]frame.Frame, 4), make([]frame.Frame, 3)
		for i := range rt {
			rt[i] = G.Compose(recT[i])
		}
		for i := range lt {
			lt[i] = G.Compose(ligT[i])
		}
		got := A.Forward(rec, lig, pair, rt, lt)
		assert.True(Te, tensor.EqualApprox(ref, got, 1e-9), "transform %d: %v vs %v", k, ref, got)
	}
	//a different relative placement must change the output
	moved := append([]frame.Frame{}, recT...)
	moved[0] = randFrame(r, 2)
	assert.False(Te, tensor.EqualApprox(ref, A.Forward(rec, lig, pair, moved, ligT), 1e-6))
}

func TestIPAEmpty(Te *testing.T) {
	A := NewIPA(testConfig().IPA, 8, 6, nn.NewUniform(1))
	out := A.Forward(tensor.New(0, 8), tensor.New(0, 8), tensor.New(0, 0, 6), nil, nil)
	assert.Equal(Te, []int{0, 8}, out.Shape())
	assert.Panics(Te, func() { A.Forward(tensor.New(2, 8), tensor.New(0, 8), tensor.New(2, 2, 6), nil, nil) })
}

func TestModuleEndToEnd(Te *testing.T) {
	r := rand.New(rand.NewSource(2))
	M := New(testConfig(), testDims, nn.NewUniform(4), nil)
	in := testInput(r, 4, 2)
	in.Fragments = []Fragment{{0, 1}, {0, 2}}
	out, err := M.Forward(in)
	require.NoError(Te, err)
	require.Len(Te, out.Steps, 2)

	ft := out.FrameTrajectory()
	require.Equal(Te, []int{2, 6, 7}, ft.Shape())
	for l := 0; l < 2; l++ {
		for e := 0; e < 6; e++ {
			q := ft.Vec(l, e)[:4]
			assert.InDelta(Te, 1, math.Sqrt(q[0]*q[0]+q[1]*q[1]+q[2]*q[2]+q[3]*q[3]), 1e-9)
		}
	}
	nt := out.NormalizedTorsions()
	require.Equal(Te, []int{2, 4, 7, 2}, nt.Shape())
	d := nt.Data()
	for i := 0; i < len(d); i += 2 {
		assert.InDelta(Te, 1, math.Hypot(d[i], d[i+1]), 1e-9)
	}
	assert.Equal(Te, []int{2, 4, 7, 2}, out.TorsionTrajectory().Shape())
	assert.Equal(Te, []int{2, 4, 5}, out.RecLDDTTrajectory().Shape())
	assert.Equal(Te, []int{2, 2, 4}, out.LigLDDTTrajectory().Shape())

	require.Equal(Te, []int{2, 6}, out.Affinity.Shape())
	logits := M.Affinity.Forward(out.Lig)
	for b := 0; b < 6; b++ {
		assert.InDelta(Te, logits.At(0, b), out.Affinity.At(0, b), 1e-12)
		assert.InDelta(Te, (logits.At(0, b)+logits.At(1, b))/2, out.Affinity.At(1, b), 1e-12)
	}

	phys := out.PhysicalFrames()
	require.Len(Te, phys, 2)
	last := ft.Vec(1, 5)
	assert.InDelta(Te, last[4]*10, phys[1][5].Trans.X, 1e-9)
	assert.InDelta(Te, last[6]*10, phys[1][5].Trans.Z, 1e-9)
}

func TestZeroUpdateKeepsFrames(Te *testing.T) {
	r := rand.New(rand.NewSource(3))
	cfg := testConfig()
	cfg.NumIter = 3
	M := New(cfg, testDims, nn.Zero{}, nil)
	in := testInput(r, 3, 2)
	in.RecMask = []bool{true, false, true}
	copy(in.RecFrames.Vec(1), []float64{0, 0, 0, 0, 7, 7, 7})
	out, err := M.Forward(in)
	require.NoError(Te, err)
	start, err := frame.FromTensor(in.RecFrames.Slice(0, 1))
	require.NoError(Te, err)
	for _, fr := range out.PhysicalFrames() {
		assert.InDelta(Te, start[0].Rot.Real, fr[0].Rot.Real, 1e-12)
		assert.InDelta(Te, start[0].Trans.Y, fr[0].Trans.Y, 1e-9)
		assert.Equal(Te, frame.Identity(), fr[1])
		assert.Equal(Te, frame.Identity(), fr[3])
		assert.Equal(Te, frame.Identity(), fr[4])
	}
	//zero increments leave the torsions where they started
	for _, s := range out.Steps {
		assert.True(Te, tensor.EqualApprox(in.Torsions, s.Torsions, 0))
	}
}

func TestModuleErrors(Te *testing.T) {
	r := rand.New(rand.NewSource(4))
	M := New(testConfig(), testDims, nn.NewUniform(1), nil)
	for _, f := range []Fragment{{2, 2}, {-1, 1}, {0, 3}, {1, 0}} {
		in := testInput(r, 3, 2)
		in.Fragments = []Fragment{f}
		_, err := M.Forward(in)
		assert.True(Te, errors.Is(err, tensor.ErrValue), "fragment %v", f)
	}
	in := testInput(r, 3, 2)
	in.Pair = randTensor(r, 4, 4, 6)
	_, err := M.Forward(in)
	assert.True(Te, errors.Is(err, tensor.ErrShape))

	in = testInput(r, 3, 2)
	in.RecMask = []bool{true}
	_, err = M.Forward(in)
	assert.True(Te, errors.Is(err, tensor.ErrShape))

	in = testInput(r, 3, 2)
	in.RecFrames.Vec(0)[0] = 5
	_, err = M.Forward(in)
	assert.True(Te, errors.Is(err, tensor.ErrValue))

	bad := testConfig()
	bad.PositionScale = 0
	assert.True(Te, errors.Is(bad.Validate(), tensor.ErrValue))
	assert.Panics(Te, func() { New(bad, testDims, nn.Zero{}, nil) })
}

func TestModuleCheckpoint(Te *testing.T) {
	r := rand.New(rand.NewSource(5))
	in := testInput(r, 3, 2)
	cfg := testConfig()
	kept := New(cfg, testDims, nn.NewUniform(9), nil)
	cfg.Checkpoint = true
	rec := New(cfg, testDims, nn.NewUniform(9), nil)
	a, err := kept.Forward(in)
	require.NoError(Te, err)
	b, err := rec.Forward(in)
	require.NoError(Te, err)
	assert.Equal(Te, a.FrameTrajectory().Data(), b.FrameTrajectory().Data())
	assert.Equal(Te, a.TorsionTrajectory().Data(), b.TorsionTrajectory().Data())
	assert.Equal(Te, a.Affinity.Data(), b.Affinity.Data())
	assert.True(Te, b.Trace.Recomputed())
	for l := 0; l < 2; l++ {
		ka, ra := a.Trace.Activations(l), b.Trace.Activations(l)
		require.Len(Te, ka, 5)
		for name, t := range ka {
			assert.Equal(Te, t.Data(), ra[name].Data(), "layer %d %s", l, name)
		}
	}
}

func TestModuleShapes(Te *testing.T) {
	r := rand.New(rand.NewSource(6))
	cfg := testConfig()
	cfg.NumIter = 1
	M := New(cfg, testDims, nn.NewUniform(2), nil)
	for _, c := range [][2]int{{1, 0}, {3, 0}, {1, 1}, {0, 2}} {
		in := testInput(r, c[0], c[1])
		in.Fragments = nil
		out, err := M.Forward(in)
		require.NoError(Te, err, "%v", c)
		assert.Equal(Te, []int{1, c[0] + c[1], 7}, out.FrameTrajectory().Shape())
		assert.Equal(Te, []int{1, c[1], 4}, out.LigLDDTTrajectory().Shape())
		assert.Equal(Te, []int{0, 6}, out.Affinity.Shape())
		assert.True(Te, out.FrameTrajectory().AllFinite())
	}
}

func TestNormalizeTorsions(Te *testing.T) {
	t := tensor.MustFromSlice([]float64{3, 4, 0, 0, -2, 0}, 3, 2)
	n := NormalizeTorsions(t)
	assert.Equal(Te, []float64{0.6, 0.8, 0, 0, -1, 0}, n.Data())
	assert.Equal(Te, 3.0, t.At(0, 0))
	assert.Panics(Te, func() { NormalizeTorsions(tensor.New(2, 3)) })
}

func TestModuleValidate(Te *testing.T) {
	r := rand.New(rand.NewSource(8))
	M := New(testConfig(), testDims, nn.NewUniform(1), nil)
	in := testInput(r, 3, 2)
	//only the frames, mask, torsions and fragments are looked at.
	geom := Input{RecFrames: in.RecFrames, Torsions: in.Torsions, Fragments: []Fragment{{0, 2}}}
	require.NoError(Te, M.Validate(3, 2, geom))
	assert.True(Te, errors.Is(M.Validate(4, 2, geom), tensor.ErrShape))
	assert.True(Te, errors.Is(M.Validate(3, 1, geom), tensor.ErrValue))

	geom.RecFrames = in.RecFrames.Clone()
	geom.RecFrames.Vec(1)[0] = 5
	assert.True(Te, errors.Is(M.Validate(3, 2, geom), tensor.ErrValue))
	geom.RecMask = []bool{true, false, true}
	assert.NoError(Te, M.Validate(3, 2, geom), "masked frames are not read")
	geom.Torsions = tensor.New(3, NumTorsions, 3)
	assert.True(Te, errors.Is(M.Validate(3, 2, geom), tensor.ErrShape))
}

func TestIPAProjectionLayout(Te *testing.T) {
	cfg := IPAConfig{NumHeads: 2, ScalarQK: 1, ScalarV: 1, PointQK: 1, PointV: 2}
	A := NewIPA(cfg, 1, 2, nn.Zero{})
	h, pw := cfg.NumHeads, 2*cfg.PointQK+cfg.PointV

	e := A.project([]float64{1, 2, 3, 4, 5, 6}, make([]float64, 3*h*pw), frame.Identity())
	assert.Equal(Te, [][]float64{{1}, {4}}, e.k)
	assert.Equal(Te, [][]float64{{2}, {5}}, e.q)
	assert.Equal(Te, [][]float64{{3}, {6}}, e.v)

	//value point p of head hd is (100(hd+1)+10p, +1, +2).
	w := A.RecPoint.W
	for a := 0; a < 3; a++ {
		for hd := 0; hd < h; hd++ {
			for p := 0; p < cfg.PointV; p++ {
				w.Set(0, a*h*pw+hd*pw+2*cfg.PointQK+p, float64(100*(hd+1)+10*p+a))
			}
		}
	}
	outC := A.outC()
	id := mat.NewDense(outC, outC, nil)
	for i := 0; i < outC; i++ {
		id.Set(i, i, 1)
	}
	A.Final = &nn.Linear{In: outC, Out: outC, W: id}
	out := A.Forward(tensor.Full(1, 1, 1), tensor.New(0, 1), tensor.New(1, 1, 2), []frame.Frame{frame.Identity()}, nil)
	o := out.Vec(0)
	pointOff := h * (2 + cfg.ScalarV)
	normOff := pointOff + 3*h*cfg.PointV
	for p := 0; p < cfg.PointV; p++ {
		for hd := 0; hd < h; hd++ {
			b := pointOff + (p*h+hd)*3
			want := r3.Vec{X: float64(100*(hd+1) + 10*p), Y: float64(100*(hd+1) + 10*p + 1), Z: float64(100*(hd+1) + 10*p + 2)}
			assert.InDelta(Te, 0, r3.Norm(r3.Sub(want, r3.Vec{X: o[b], Y: o[b+1], Z: o[b+2]})), 1e-9, "point %d head %d", p, hd)
			assert.InDelta(Te, r3.Norm(want), o[normOff+p*h+hd], 1e-6)
		}
	}
}
