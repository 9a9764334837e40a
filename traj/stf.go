/*
 * stf.go, part of godock.
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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rmera/godock/frame"
	"gonum.org/v1/gonum/spatial/r3"
)

//DefaultPrec is the precision used when the header doesn't give one.
const DefaultPrec = 2

//Writer writes an STF trajectory.
type Writer struct {
	f         *os.File
	h         *zstd.Encoder
	natoms    int
	filename  string
	writeable bool
	prec      int
	run       string
}

//NewWriter creates the file name and writes the header to it. header can be nil. A "run" key with
//a new UUID is added if header doesn't have one, and "prec" is set to DefaultPrec if missing.
func NewWriter(name string, natoms int, header map[string]string) (*Writer, error) {
	h := make(map[string]string, len(header)+2)
	for k, v := range header {
		if strings.ContainsAny(k, "=\n") || strings.Contains(v, "\n") || strings.Contains(k+v, "**") {
			return nil, Error{fmt.Sprintf("invalid header entry %q=%q", k, v), name, []string{"NewWriter"}, true}
		}
		h[k] = v
	}
	if _, ok := h["run"]; !ok {
		h["run"] = uuid.NewString()
	}
	S := &Writer{natoms: natoms, filename: name, prec: DefaultPrec, run: h["run"]}
	if p, ok := h["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec <= 0 {
			return nil, Error{fmt.Sprintf("invalid precision %q", p), name, []string{"NewWriter"}, true}
		}
		S.prec = prec
	}
	h["prec"] = strconv.Itoa(S.prec)
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, err
	}
	S.h, err = zstd.NewWriter(S.f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		S.f.Close()
		return nil, Error{"can't start compression: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, h[k])
	}
	fmt.Fprintf(&b, "** %d\n", natoms)
	if _, err := S.h.Write([]byte(b.String())); err != nil {
		S.Close()
		return nil, Error{err.Error(), name, []string{"NewWriter"}, true}
	}
	S.writeable = true
	return S, nil
}

//Len returns the number of atoms per frame.
func (S *Writer) Len() int {
	return S.natoms
}

//Run returns the run identifier written in the header.
func (S *Writer) Run() string {
	return S.run
}

func coordsEncode(p r3.Vec, prec int) string {
	m := math.Pow(10, float64(prec))
	return fmt.Sprintf("%d %d %d\n", int(math.RoundToEven(p.X*m)), int(math.RoundToEven(p.Y*m)), int(math.RoundToEven(p.Z*m)))
}

//WNext writes a frame with the given positions, in Angstrom. If a box with at
//least 9 elements is given, it is written at the end of the frame.
func (S *Writer) WNext(pos []r3.Vec, box ...[]float64) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if len(pos) != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", len(pos), S.natoms), S.filename, []string{"WNext"}, true}
	}
	var b strings.Builder
	for _, p := range pos {
		b.WriteString(coordsEncode(p, S.prec))
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		v := box[0]
		fmt.Fprintf(&b, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n", v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8])
	} else {
		b.WriteString("*\n")
	}
	if _, err := S.h.Write([]byte(b.String())); err != nil {
		return Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

//WFrames writes a frame with the origins of the given frames as positions.
func (S *Writer) WFrames(frames []frame.Frame) error {
	pos := make([]r3.Vec, len(frames))
	for i, f := range frames {
		pos[i] = f.Trans
	}
	return errDecorate(S.WNext(pos), "WFrames")
}

//Close flushes and closes the file. The Writer can't be used afterwards.
func (S *Writer) Close() error {
	if S == nil || S.f == nil {
		return nil
	}
	S.writeable = false
	err := S.h.Close()
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	S.f = nil
	return err
}

//WriteFrames writes a whole trajectory, one frame per element of steps, to the file name.
//It returns the run identifier in the header.
func WriteFrames(name string, steps [][]frame.Frame, header map[string]string) (string, error) {
	natoms := 0
	if len(steps) > 0 {
		natoms = len(steps[0])
	}
	w, err := NewWriter(name, natoms, header)
	if err != nil {
		return "", err
	}
	for _, s := range steps {
		if err := w.WFrames(s); err != nil {
			w.Close()
			return "", errDecorate(err, "WriteFrames")
		}
	}
	return w.Run(), w.Close()
}

//Reader reads an STF trajectory.
type Reader struct {
	f        *os.File
	dec      *zstd.Decoder
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	readable bool
}

//New opens a STF trajectory for reading, and returns a pointer
//to the handle, a map with the header and error or nil.
func New(name string) (*Reader, map[string]string, error) {
	S := &Reader{natoms: -1, filename: name, prec: DefaultPrec}
	m := make(map[string]string)
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	S.dec, err = zstd.NewReader(bufio.NewReader(S.f))
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"can't read header: " + err.Error(), name, []string{"New"}, true}
	}
	S.readable = true
	S.h = bufio.NewReader(S.dec)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.Close()
			return nil, nil, Error{"can't read header: " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.Close()
				return nil, nil, Error{fmt.Sprintf("can't read atom number from '%s'", str), name, []string{"New"}, true}
			}
			if S.natoms, err = strconv.Atoi(nat[1]); err != nil || S.natoms < 0 {
				S.Close()
				return nil, nil, Error{fmt.Sprintf("can't read atom number from '%s'", nat[1]), name, []string{"New"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.Close()
			return nil, nil, Error{"malformed header line: " + str, name, []string{"New"}, true}
		}
		m[k] = v
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec <= 0 {
			S.Close()
			return nil, nil, Error{fmt.Sprintf("invalid precision %q", p), name, []string{"New"}, true}
		}
		S.prec = prec
	}
	return S, m, nil
}

//Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *Reader) Readable() bool {
	return S.readable
}

//Len returns the number of atoms in each frame of the trajectory.
func (S *Reader) Len() int {
	return S.natoms
}

func coordsDecode(str string, prec int) (r3.Vec, error) {
	m := math.Pow(10, float64(prec))
	s := strings.Fields(str)
	if len(s) != 3 {
		return r3.Vec{}, fmt.Errorf("ill formated coordinates line, %d fields: %s", len(s), str)
	}
	var t [3]float64
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("can't parse coordinate %d (%s): %w", i, v, err)
		}
		t[i] = float64(f) / m
	}
	return r3.Vec{X: t[0], Y: t[1], Z: t[2]}, nil
}

//Next puts in pos the positions of the next frame and, if given and present, the box
//in box. pos can be nil, in which case the frame is checked but discarded. At the end of
//the trajectory, it returns an error for which IsLastFrame is true, and closes the Reader.
func (S *Reader) Next(pos []r3.Vec, box ...[]float64) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	if pos != nil && len(pos) != S.natoms {
		return Error{fmt.Sprintf("room for %d positions, %d needed", len(pos), S.natoms), S.filename, []string{"Next"}, true}
	}
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			if err == io.EOF && i == 0 && b == "" {
				S.Close()
				return newLastFrameError(S.filename, "Next")
			}
			return Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		p, err := coordsDecode(strings.TrimSuffix(b, "\n"), S.prec)
		if err != nil {
			return Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if pos != nil {
			pos[i] = p
		}
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		if err == io.EOF && S.natoms == 0 && s == "" {
			S.Close()
			return newLastFrameError(S.filename, "Next")
		}
		return Error{"can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if s[0] != '*' {
		return Error{WrongFormat, S.filename, []string{"Next"}, true}
	}
	if len(box) == 0 || len(box[0]) < 9 {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) < 10 {
		return nil
	}
	for j, v := range fields[1:10] {
		if box[0][j], err = strconv.ParseFloat(v, 64); err != nil {
			return Error{"can't read box: " + err.Error(), S.filename, []string{"Next"}, false}
		}
	}
	return nil
}

//Close closes the object, and marks it as unreadable.
func (S *Reader) Close() {
	if !S.readable {
		return
	}
	S.dec.Close()
	S.f.Close()
	S.readable = false
}

//ReadAll reads all the remaining frames.
func (S *Reader) ReadAll() ([][]r3.Vec, error) {
	var ret [][]r3.Vec
	for {
		pos := make([]r3.Vec, S.natoms)
		err := S.Next(pos)
		if IsLastFrame(err) {
			return ret, nil
		}
		if err != nil {
			return ret, errDecorate(err, "ReadAll")
		}
		ret = append(ret, pos)
	}
}
