/*
 * stf_test.go, part of godock.
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

package traj

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rmera/godock/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSTFRoundTrip(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "test.stf")
	w, err := NewWriter(name, 3, map[string]string{"iterations": "2"})
	require.NoError(Te, err)
	_, err = uuid.Parse(w.Run())
	require.NoError(Te, err)
	frames := [][]r3.Vec{
		{{X: 1.234, Y: -5.678, Z: 0}, {X: 10, Y: 20, Z: 30}, {X: -0.005, Y: 0.004, Z: 99.999}},
		{{X: 2, Y: 2, Z: 2}, {X: 3, Y: 3, Z: 3}, {X: 4, Y: 4, Z: 4}},
	}
	box := []float64{10, 0, 0, 0, 10, 0, 0, 0, 10}
	require.NoError(Te, w.WNext(frames[0], box))
	require.NoError(Te, w.WNext(frames[1]))
	assert.Error(Te, w.WNext(frames[1][:2]))
	require.NoError(Te, w.Close())
	assert.Error(Te, w.WNext(frames[0]))

	r, header, err := New(name)
	require.NoError(Te, err)
	assert.Equal(Te, 3, r.Len())
	assert.Equal(Te, "2", header["iterations"])
	assert.Equal(Te, "2", header["prec"])
	assert.Equal(Te, w.Run(), header["run"])

	pos := make([]r3.Vec, 3)
	gotBox := make([]float64, 9)
	require.NoError(Te, r.Next(pos, gotBox))
	for i, p := range frames[0] {
		assert.InDelta(Te, 0, r3.Norm(r3.Sub(p, pos[i])), 0.01, "atom %d", i)
	}
	assert.Equal(Te, box, gotBox)
	require.NoError(Te, r.Next(nil))
	err = r.Next(pos)
	assert.True(Te, IsLastFrame(err))
	assert.True(Te, errors.Is(err, io.EOF))
	assert.False(Te, r.Readable())
}

func TestWriteFrames(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "frames.stf")
	steps := [][]frame.Frame{
		{frame.Identity(), frame.New(quat.Number{Real: 1, Imag: 1}, r3.Vec{X: 3.8})},
		{frame.New(quat.Number{Real: 1}, r3.Vec{Y: 1}), frame.New(quat.Number{Kmag: 1}, r3.Vec{X: 7.6, Z: -1})},
		{frame.Identity(), frame.Identity()},
	}
	run, err := WriteFrames(name, steps, map[string]string{"prec": "3", "run": "fixed"})
	require.NoError(Te, err)
	assert.Equal(Te, "fixed", run)

	r, header, err := New(name)
	require.NoError(Te, err)
	assert.Equal(Te, "3", header["prec"])
	all, err := r.ReadAll()
	require.NoError(Te, err)
	require.Len(Te, all, 3)
	assert.Equal(Te, r3.Vec{X: 7.6, Z: -1}, all[1][1])
	assert.Equal(Te, r3.Vec{X: 3.8}, all[0][1])
}

func TestSTFErrors(Te *testing.T) {
	dir := Te.TempDir()
	_, err := NewWriter(filepath.Join(dir, "a.stf"), 1, map[string]string{"prec": "x"})
	assert.Error(Te, err)
	_, err = NewWriter(filepath.Join(dir, "b.stf"), 1, map[string]string{"bad=key": "1"})
	assert.Error(Te, err)
	_, _, err = New(filepath.Join(dir, "missing.stf"))
	assert.Error(Te, err)

	plain := filepath.Join(dir, "plain.stf")
	require.NoError(Te, os.WriteFile(plain, []byte("prec=2\n** 1\n"), 0o644))
	_, _, err = New(plain)
	assert.Error(Te, err)
}
