/*
 * features_test.go, part of godock.
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
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturesRoundTrip(Te *testing.T) {
	cfg := testConfig()
	in := RandomFeatures(rand.New(rand.NewSource(7)), cfg, 3, 2, 2, 2)
	dir := Te.TempDir()
	for _, name := range []string{"feats.json", "feats.json.zst"} {
		path := filepath.Join(dir, name)
		require.NoError(Te, WriteFeatures(path, in))
		got, err := ReadFeatures(path)
		require.NoError(Te, err, name)
		assert.Equal(Te, in.NumResidues, got.NumResidues)
		assert.Equal(Te, in.Fragments, got.Fragments)
		for _, p := range [][2]*tensor.Tensor{
			{in.Single, got.Single}, {in.Pair, got.Pair}, {in.Extra, got.Extra},
			{in.RecFrames, got.RecFrames}, {in.RecMask, got.RecMask}, {in.Torsions, got.Torsions},
		} {
			assert.True(Te, tensor.EqualApprox(p[0], p[1], 0), name)
		}
	}
}

func TestReadFeaturesErrors(Te *testing.T) {
	dir := Te.TempDir()
	_, err := ReadFeatures(filepath.Join(dir, "missing.json"))
	assert.Error(Te, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(Te, os.WriteFile(bad, []byte(`{"num_residues": 1, "single": {"shape": [1, 2, 3], "data": [1, 2]}}`), 0o644))
	_, err = ReadFeatures(bad)
	assert.True(Te, errors.Is(err, tensor.ErrShape))

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(Te, os.WriteFile(garbage, []byte("not json"), 0o644))
	_, err = ReadFeatures(garbage)
	assert.Error(Te, err)
}

func TestBatchedFeatureFile(Te *testing.T) {
	dir := Te.TempDir()
	path := filepath.Join(dir, "batch2.json")
	//two complexes in one batch are not supported
	doc := `{"num_residues": 1,
	"single": {"shape": [2, 2, 16], "data": [` + zeros(64) + `]},
	"pair": {"shape": [2, 2, 2, 8], "data": [` + zeros(64) + `]},
	"rec_frames": {"shape": [2, 1, 7], "data": [1,0,0,0,0,0,0,1,0,0,0,0,0,0]},
	"fragments": [{"start": 0, "end": 1}]}`
	require.NoError(Te, os.WriteFile(path, []byte(doc), 0o644))
	in, err := ReadFeatures(path)
	require.NoError(Te, err)
	_, err = New(testConfig(), nn.Zero{}, nil).Forward(in)
	assert.True(Te, errors.Is(err, tensor.ErrBatch))
}

func zeros(n int) string {
	return strings.TrimSuffix(strings.Repeat("0,", n), ",")
}
