/*
 * predict_test.go, part of godock.
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

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/godock/structure"
	"github.com/rmera/godock/traj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallConfig = `
log:
  level: error
model:
  extra:
    num_iter: 0
  evoformer:
    num_iter: 1
  structure:
    num_iter: 2
`

func execute(Te *testing.T, args ...string) (string, error) {
	Te.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(Te *testing.T, dir, name, content string) string {
	Te.Helper()
	path := filepath.Join(dir, name)
	require.NoError(Te, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPredictSynthetic(Te *testing.T) {
	dir := Te.TempDir()
	cfg := writeFile(Te, dir, "godock.yaml", smallConfig)
	out := filepath.Join(dir, "out.stf")
	plot := filepath.Join(dir, "plddt.png")
	stdout, err := execute(Te, "predict", "--config", cfg, "--residues", "3", "--ligand-atoms", "2",
		"--fragments", "0:1,0:2", "--out", out, "--plot", plot)
	require.NoError(Te, err)
	assert.Contains(Te, stdout, "affinity fragment 0:")
	assert.Contains(Te, stdout, "affinity fragment 1:")

	r, header, err := traj.New(out)
	require.NoError(Te, err)
	assert.Equal(Te, 5, r.Len())
	assert.Equal(Te, "3", header["residues"])
	assert.Equal(Te, "2", header["iterations"])
	assert.True(Te, strings.HasPrefix(stdout, "run "+header["run"]))
	frames, err := r.ReadAll()
	require.NoError(Te, err)
	assert.Len(Te, frames, 2)

	st, err := os.Stat(plot)
	require.NoError(Te, err)
	assert.Greater(Te, st.Size(), int64(0))
}

func pdbLine(serial int, name, res string, resid int, x, y, z float64, elem string) string {
	return fmt.Sprintf("%-6s%5d  %-3s %3s A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  ",
		"ATOM", serial, name, res, resid, x, y, z, 1.0, 0.0, elem)
}

func TestPredictReceptor(Te *testing.T) {
	dir := Te.TempDir()
	cfg := writeFile(Te, dir, "godock.yaml", smallConfig)
	var lines []string
	serial := 1
	for i := 0; i < 2; i++ {
		x := 3.8 * float64(i)
		lines = append(lines,
			pdbLine(serial, "N", "ALA", i+1, x-0.5, 1.4, 0, "N"),
			pdbLine(serial+1, "CA", "ALA", i+1, x, 0, 0, "C"),
			pdbLine(serial+2, "C", "ALA", i+1, x+1.5, 0, 0, "C"))
		serial += 3
	}
	lines = append(lines, "END")
	pdb := writeFile(Te, dir, "rec.pdb", strings.Join(lines, "\n")+"\n")
	out := filepath.Join(dir, "rec.stf")
	_, err := execute(Te, "predict", "--config", cfg, "--receptor", pdb, "--ligand-atoms", "1", "--out", out, "--plot", filepath.Join(dir, "p.svg"))
	require.NoError(Te, err)
	r, _, err := traj.New(out)
	require.NoError(Te, err)
	assert.Equal(Te, 3, r.Len())
	frames, err := r.ReadAll()
	require.NoError(Te, err)
	require.Len(Te, frames, 2)
}

func TestPredictErrors(Te *testing.T) {
	dir := Te.TempDir()
	cfg := writeFile(Te, dir, "godock.yaml", smallConfig)
	_, err := execute(Te, "predict", "--config", cfg, "--fragments", "0-1", "--out", filepath.Join(dir, "a.stf"))
	assert.Error(Te, err)
	_, err = execute(Te, "predict", "--config", cfg, "--ligand-atoms", "2", "--fragments", "1:5", "--out", filepath.Join(dir, "b.stf"))
	assert.Error(Te, err)
	_, err = execute(Te, "predict", "--config", cfg, "--features", filepath.Join(dir, "missing.json"))
	assert.Error(Te, err)
	_, err = execute(Te, "predict", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(Te, err)
	_, err = execute(Te, "predict", "--config", cfg, "--receptor", filepath.Join(dir, "missing.pdb"))
	assert.Error(Te, err)
}

func TestParseFragments(Te *testing.T) {
	f, err := parseFragments(" 0:3, 3:5 ")
	require.NoError(Te, err)
	assert.Equal(Te, []structure.Fragment{{Start: 0, End: 3}, {Start: 3, End: 5}}, f)
	f, err = parseFragments("")
	require.NoError(Te, err)
	assert.Nil(Te, f)
	for _, bad := range []string{"3", "a:2", "1:b"} {
		_, err = parseFragments(bad)
		assert.Error(Te, err, bad)
	}
}

func TestVersion(Te *testing.T) {
	out, err := execute(Te, "version")
	require.NoError(Te, err)
	assert.Equal(Te, "godock dev (commit: unknown)\n", out)
}
