/*
 * errors.go, part of godock.
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
	"fmt"
	"io"
	"strings"
)

//Error is the general structure for trajectory errors.
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if len(err.deco) == 0 {
		return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
	}
	return fmt.Sprintf("stf file %s error in %s: %s", err.filename, strings.Join(err.deco, ": "), err.message)
}

//Decorate adds new information to the error
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append([]string{deco}, err.deco...)
	}
	return err.deco
}

//FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	WrongFormat    = "Wrong format in the STF file or frame"
)

//lastFrameError signals the normal end of a trajectory.
type lastFrameError struct {
	deco     []string
	fileName string
}

//NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

//Unwrap makes errors.Is(err, io.EOF) true.
func (E *lastFrameError) Unwrap() error { return io.EOF }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append([]string{deco}, E.deco...)
	}
	return E.deco
}

func newLastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}

//IsLastFrame returns true if err marks the normal end of a trajectory.
func IsLastFrame(err error) bool {
	var l *lastFrameError
	return errors.As(err, &l)
}

//errDecorate adds caller to the decorations of err, if err is one of the errors of this package.
//Other errors, and nil, are returned unchanged.
func errDecorate(err error, caller string) error {
	switch e := err.(type) {
	case Error:
		e.Decorate(caller)
		return e
	case *lastFrameError:
		e.Decorate(caller)
		return e
	}
	return err
}
