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

package structure

import (
	"github.com/rmera/godock/tensor"
)

//NumTorsions is the number of torsion angles predicted per residue, each as a (sin, cos) pair.
const NumTorsions = 7

//IPAConfig holds the sizes of invariant point attention.
type IPAConfig struct {
	NumHeads int `mapstructure:"num_heads" json:"num_heads"`
	ScalarQK int `mapstructure:"scalar_qk" json:"scalar_qk"`
	ScalarV  int `mapstructure:"scalar_v" json:"scalar_v"`
	PointQK  int `mapstructure:"point_qk" json:"point_qk"`
	PointV   int `mapstructure:"point_v" json:"point_v"`
}

//Validate returns an error if any size is not positive.
func (c IPAConfig) Validate() error {
	if c.NumHeads <= 0 || c.ScalarQK <= 0 || c.ScalarV <= 0 || c.PointQK <= 0 || c.PointV <= 0 {
		return tensor.NewError(tensor.ErrValue, "structure.IPAConfig.Validate", "all sizes must be positive: %+v", c)
	}
	return nil
}

//HeadConfig configures a LayerNorm-MLP head: C hidden channels and Bins outputs.
type HeadConfig struct {
	C    int `mapstructure:"c" json:"c"`
	Bins int `mapstructure:"bins" json:"bins"`
}

//Validate returns an error if any size is not positive.
func (c HeadConfig) Validate() error {
	if c.C <= 0 || c.Bins <= 0 {
		return tensor.NewError(tensor.ErrValue, "structure.HeadConfig.Validate", "c and bins must be positive: %+v", c)
	}
	return nil
}

//Config describes the structure module.
type Config struct {
	NumIter    int        `mapstructure:"num_iter" json:"num_iter"`
	IPA        IPAConfig  `mapstructure:"ipa" json:"ipa"`
	SidechainC int        `mapstructure:"sidechain_c" json:"sidechain_c"`
	RecLDDT    HeadConfig `mapstructure:"rec_lddt" json:"rec_lddt"`
	LigLDDT    HeadConfig `mapstructure:"lig_lddt" json:"lig_lddt"`
	Affinity   HeadConfig `mapstructure:"affinity" json:"affinity"`
	//PositionScale divides physical distances. Frames inside the module are in scaled units.
	PositionScale float64 `mapstructure:"position_scale" json:"position_scale"`
	//Checkpoint keeps only the input of each iteration, recomputing activations on demand.
	//The iteration inputs are the trajectory itself (Output.Steps), so this only drops the
	//tapped activations (IPA, transition and updates); the memory of Steps stays.
	Checkpoint bool `mapstructure:"checkpoint" json:"checkpoint"`
}

//DefaultConfig returns a small configuration.
func DefaultConfig() Config {
	return Config{
		NumIter:       4,
		IPA:           IPAConfig{NumHeads: 4, ScalarQK: 8, ScalarV: 8, PointQK: 4, PointV: 4},
		SidechainC:    16,
		RecLDDT:       HeadConfig{C: 16, Bins: 50},
		LigLDDT:       HeadConfig{C: 16, Bins: 50},
		Affinity:      HeadConfig{C: 16, Bins: 6},
		PositionScale: 10,
	}
}

//Validate returns the first error found in c.
func (c Config) Validate() error {
	if c.NumIter < 0 {
		return tensor.NewError(tensor.ErrValue, "structure.Config.Validate", "num_iter can't be negative (%d)", c.NumIter)
	}
	if c.SidechainC <= 0 {
		return tensor.NewError(tensor.ErrValue, "structure.Config.Validate", "sidechain_c must be positive (%d)", c.SidechainC)
	}
	if c.PositionScale <= 0 {
		return tensor.NewError(tensor.ErrValue, "structure.Config.Validate", "position_scale must be positive (%g)", c.PositionScale)
	}
	for _, v := range []interface{ Validate() error }{c.IPA, c.RecLDDT, c.LigLDDT, c.Affinity} {
		if err := v.Validate(); err != nil {
			return tensor.Decorate(err, "structure.Config.Validate")
		}
	}
	return nil
}

//Dims are the channel widths the module works with.
type Dims struct {
	SingleC int `mapstructure:"single_c" json:"single_c"`
	PairC   int `mapstructure:"pair_c" json:"pair_c"`
}
