/*
 * module.go, part of godock.
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

//Package structure implements the structure module, which turns single and pair representations
//into 3D structure by iteratively refining a rigid frame per receptor residue and per ligand atom.
//
//Every iteration updates the single representations with invariant point attention (IPA), proposes
//a frame increment for each entity and composes it onto the current frame, adds a torsion increment
//for each residue and predicts confidence logits. The Output keeps the state after every
//iteration, so the whole trajectory is available. A separate head predicts binding affinity
//logits for each ligand fragment from the final ligand representation.
//
//Frames inside the module are in scaled units: physical translations are divided by the
//position scale on input, and Output.PhysicalFrames undoes that.
package structure

import (
	"math"
	"time"

	"github.com/rmera/godock/checkpoint"
	"github.com/rmera/godock/frame"
	"github.com/rmera/godock/internal/logging"
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

//TorsionEps is the smallest norm NormalizeTorsions divides by.
const TorsionEps = 1e-12

//Fragment is a ligand given by the atom range [Start, End).
type Fragment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

//Input for the structure module.
type Input struct {
	Rec  *tensor.Tensor //[R,C]
	Lig  *tensor.Tensor //[A,C]
	Pair *tensor.Tensor //[R+A,R+A,C2]
	//RecFrames are the [R,7] starting receptor frames, in physical units.
	RecFrames *tensor.Tensor
	//RecMask marks the residues with valid frames. Others start from the identity.
	//A nil mask means all frames are valid.
	RecMask []bool
	//Torsions [R,7,2] are the starting torsions. nil means zeros.
	Torsions  *tensor.Tensor
	Fragments []Fragment
}

//Module is the structure module.
type Module struct {
	cfg  Config
	dims Dims
	log  logging.Logger

	RecNorm, LigNorm, PairNorm *nn.LayerNorm
	RecProj, LigProj           *nn.Linear
	Layers                     []*Iteration
	Affinity                   *Head
}

//New returns a structure module with cfg.NumIter iterations. log can be nil.
//It panics if cfg or dims are not valid.
func New(cfg Config, dims Dims, init nn.Initializer, log logging.Logger) *Module {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if dims.SingleC <= 0 || dims.PairC <= 0 {
		panic(tensor.NewError(tensor.ErrValue, "structure.New", "channel widths must be positive: %+v", dims))
	}
	M := &Module{
		cfg:      cfg,
		dims:     dims,
		log:      logging.OrNop(log).Named("structure"),
		RecNorm:  nn.NewLayerNorm(dims.SingleC),
		LigNorm:  nn.NewLayerNorm(dims.SingleC),
		PairNorm: nn.NewLayerNorm(dims.PairC),
		RecProj:  nn.NewLinear(dims.SingleC, dims.SingleC, init),
		LigProj:  nn.NewLinear(dims.SingleC, dims.SingleC, init),
		Affinity: NewHead(cfg.Affinity, dims.SingleC, init),
	}
	for i := 0; i < cfg.NumIter; i++ {
		M.Layers = append(M.Layers, newIteration(cfg, dims, init))
	}
	return M
}

func (M *Module) check(in Input) error {
	const caller = "structure.Module.Forward"
	c := M.dims.SingleC
	if err := tensor.Check(caller, "receptor", in.Rec, -1, c); err != nil {
		return err
	}
	if err := tensor.Check(caller, "ligand", in.Lig, -1, c); err != nil {
		return err
	}
	nr, na := in.Rec.Dim(0), in.Lig.Dim(0)
	if err := tensor.Check(caller, "pair", in.Pair, nr+na, nr+na, M.dims.PairC); err != nil {
		return err
	}
	return tensor.Decorate(M.Validate(nr, na, in), caller)
}

//Validate checks the receptor frames, mask, torsions and fragments of in against
//nr residues and na ligand atoms, including the norm of the quaternions of the
//valid frames. The single and pair representations of in are not looked at, so
//callers can validate before computing them.
func (M *Module) Validate(nr, na int, in Input) error {
	const caller = "structure.Module.Validate"
	if err := tensor.Check(caller, "receptor frames", in.RecFrames, nr, 7); err != nil {
		return err
	}
	if in.RecMask != nil && len(in.RecMask) != nr {
		return tensor.ShapeError(caller, "mask has %d elements for %d residues", len(in.RecMask), nr)
	}
	if in.Torsions != nil {
		if err := tensor.Check(caller, "torsions", in.Torsions, nr, NumTorsions, 2); err != nil {
			return err
		}
	}
	for i, f := range in.Fragments {
		if f.Start < 0 || f.Start >= f.End || f.End > na {
			return tensor.NewError(tensor.ErrValue, caller, "fragment %d [%d,%d) is not a valid range of %d atoms", i, f.Start, f.End, na)
		}
	}
	_, err := maskedFrames(in)
	return tensor.Decorate(err, caller)
}

//maskedFrames reads the receptor frames, with the masked ones reset to the identity.
func maskedFrames(in Input) ([]frame.Frame, error) {
	raw := in.RecFrames.Clone()
	for i, ok := range in.RecMask {
		if !ok {
			copy(raw.Vec(i), []float64{1, 0, 0, 0, 0, 0, 0})
		}
	}
	return frame.FromTensor(raw)
}

//startFrames returns the frames from maskedFrames with the translations scaled.
func (M *Module) startFrames(in Input) ([]frame.Frame, error) {
	fr, err := maskedFrames(in)
	if err != nil {
		return nil, tensor.Decorate(err, "structure.Module.Forward")
	}
	for i, f := range fr {
		fr[i] = f.ScaleTranslation(1 / M.cfg.PositionScale)
	}
	return fr, nil
}

func (M *Module) blocks() []checkpoint.Block[State] {
	ret := make([]checkpoint.Block[State], len(M.Layers))
	for i, l := range M.Layers {
		ret[i] = l.Forward
	}
	return ret
}

//Forward runs the module. All the input shapes and fragment ranges are checked before any computation.
func (M *Module) Forward(in Input) (*Output, error) {
	if err := M.check(in); err != nil {
		return nil, err
	}
	recT, err := M.startFrames(in)
	if err != nil {
		return nil, err
	}
	nr, na := in.Rec.Dim(0), in.Lig.Dim(0)
	tors := in.Torsions
	if tors == nil {
		tors = tensor.New(nr, NumTorsions, 2)
	}
	recInit := M.RecNorm.Forward(in.Rec)
	st := State{
		RecInit:  recInit,
		Rec:      M.RecProj.Forward(recInit),
		Lig:      M.LigProj.Forward(M.LigNorm.Forward(in.Lig)),
		Pair:     M.PairNorm.Forward(in.Pair),
		RecT:     recT,
		LigT:     frame.Identities(na),
		Torsions: tors,
	}
	start := time.Now()
	final, tr := checkpoint.Runner[State]{Recompute: M.cfg.Checkpoint}.Run(M.blocks(), st)
	out := &Output{Rec: final.Rec, Lig: final.Lig, PositionScale: M.cfg.PositionScale, Trace: tr}
	for l := 1; l < tr.Len(); l++ {
		out.Steps = append(out.Steps, tr.Input(l))
	}
	if tr.Len() > 0 {
		out.Steps = append(out.Steps, final)
	}
	prev := st
	for l, s := range out.Steps {
		M.log.Debug("iteration done", logging.Int("iteration", l), logging.Float64("displacement", M.meanDisplacement(prev, s)))
		prev = s
	}
	out.Affinity = M.affinity(final.Lig, in.Fragments)
	M.log.Debug("module done", logging.Int("residues", nr), logging.Int("atoms", na),
		logging.Int("iterations", len(M.Layers)), logging.Duration("took", time.Since(start)))
	return out, nil
}

//meanDisplacement is the mean translation change, in physical units, over all entities.
func (M *Module) meanDisplacement(a, b State) float64 {
	n := len(a.RecT) + len(a.LigT)
	if n == 0 {
		return 0
	}
	d := 0.0
	for i, f := range b.RecT {
		d += r3.Norm(r3.Sub(f.Trans, a.RecT[i].Trans))
	}
	for i, f := range b.LigT {
		d += r3.Norm(r3.Sub(f.Trans, a.LigT[i].Trans))
	}
	return d * M.cfg.PositionScale / float64(n)
}

func (M *Module) affinity(lig *tensor.Tensor, frags []Fragment) *tensor.Tensor {
	bins := M.cfg.Affinity.Bins
	ret := tensor.New(len(frags), bins)
	if len(frags) == 0 {
		return ret
	}
	logits := M.Affinity.Forward(lig)
	col := make([]float64, 0, lig.Dim(0))
	for i, f := range frags {
		o := ret.Vec(i)
		for b := 0; b < bins; b++ {
			col = col[:0]
			for a := f.Start; a < f.End; a++ {
				col = append(col, logits.At(a, b))
			}
			o[b] = stat.Mean(col, nil)
		}
	}
	return ret
}

//Output of the structure module.
type Output struct {
	//Steps holds the state after each iteration.
	Steps []State
	//Final single representations.
	Rec, Lig *tensor.Tensor
	//Affinity holds the [fragments,bins] affinity logits.
	Affinity      *tensor.Tensor
	PositionScale float64
	Trace         *checkpoint.Trace[State]
}

func (O *Output) entities() int {
	if len(O.Steps) == 0 {
		return O.Rec.Dim(0) + O.Lig.Dim(0)
	}
	return len(O.Steps[0].RecT) + len(O.Steps[0].LigT)
}

//FrameTrajectory returns the [iterations,R+A,7] frames, receptor first, in scaled units.
func (O *Output) FrameTrajectory() *tensor.Tensor {
	ret := tensor.New(len(O.Steps), O.entities(), 7)
	for l, s := range O.Steps {
		copy(ret.Slice(l, l+1).Data(), frame.ToTensor(append(append([]frame.Frame{}, s.RecT...), s.LigT...)).Data())
	}
	return ret
}

func stack(steps []State, get func(State) *tensor.Tensor, inner ...int) *tensor.Tensor {
	ret := tensor.New(append([]int{len(steps)}, inner...)...)
	for l, s := range steps {
		copy(ret.Slice(l, l+1).Data(), get(s).Data())
	}
	return ret
}

//TorsionTrajectory returns the [iterations,R,7,2] accumulated torsions, not normalized.
func (O *Output) TorsionTrajectory() *tensor.Tensor {
	return stack(O.Steps, func(s State) *tensor.Tensor { return s.Torsions }, O.Rec.Dim(0), NumTorsions, 2)
}

//RecLDDTTrajectory returns the [iterations,R,bins] receptor confidence logits.
func (O *Output) RecLDDTTrajectory() *tensor.Tensor {
	if len(O.Steps) == 0 {
		return tensor.New(0, O.Rec.Dim(0), 0)
	}
	return stack(O.Steps, func(s State) *tensor.Tensor { return s.RecLDDT }, O.Steps[0].RecLDDT.Shape()...)
}

//LigLDDTTrajectory returns the [iterations,A,bins] ligand confidence logits.
func (O *Output) LigLDDTTrajectory() *tensor.Tensor {
	if len(O.Steps) == 0 {
		return tensor.New(0, O.Lig.Dim(0), 0)
	}
	return stack(O.Steps, func(s State) *tensor.Tensor { return s.LigLDDT }, O.Steps[0].LigLDDT.Shape()...)
}

//NormalizedTorsions returns the torsion trajectory with every (sin, cos) pair scaled to unit norm.
func (O *Output) NormalizedTorsions() *tensor.Tensor {
	return NormalizeTorsions(O.TorsionTrajectory())
}

//PhysicalFrames returns, for each iteration, the receptor and ligand frames with
//translations in physical units.
func (O *Output) PhysicalFrames() [][]frame.Frame {
	ret := make([][]frame.Frame, len(O.Steps))
	for l, s := range O.Steps {
		fr := make([]frame.Frame, 0, len(s.RecT)+len(s.LigT))
		for _, f := range s.RecT {
			fr = append(fr, f.ScaleTranslation(O.PositionScale))
		}
		for _, f := range s.LigT {
			fr = append(fr, f.ScaleTranslation(O.PositionScale))
		}
		ret[l] = fr
	}
	return ret
}

//NormalizeTorsions returns a copy of t, whose last axis must be 2, with each pair
//divided by max(norm, TorsionEps).
func NormalizeTorsions(t *tensor.Tensor) *tensor.Tensor {
	if t.Dim(-1) != 2 {
		panic(tensor.ErrShape)
	}
	ret := t.Clone()
	d := ret.Data()
	for i := 0; i < len(d); i += 2 {
		n := math.Max(math.Hypot(d[i], d[i+1]), TorsionEps)
		d[i] /= n
		d[i+1] /= n
	}
	return ret
}
