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

package tensor

import (
	"errors"
	"fmt"
	"strings"
)

//Decorator is the interface for errors that all packages in goDock implement. The Decorate method allows to add
//and retrieve info from the error without changing its type. Wrapping with "%w" is also supported, through Unwrap.
type Decorator interface {
	Error() string
	Decorate(string) []string
	Critical() bool
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//The same values are used as the "kind" of an Error, so errors.Is(err, ErrShape) works for both.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrShape           = PanicMsg("godock/tensor: dimension mismatch")
	ErrBatch           = PanicMsg("godock/tensor: only a batch size of 1 is supported")
	ErrValue           = PanicMsg("godock/tensor: invalid value")
	ErrIndexOutOfRange = PanicMsg("godock/tensor: index out of range")
	ErrNegativeDim     = PanicMsg("godock/tensor: negative dimension")
)

//Error is the general structure for goDock errors. It holds a message, the list of functions the
//error passed through (the decoration) and whether the error is critical.
type Error struct {
	message  string
	kind     PanicMsg
	cause    error
	deco     []string
	critical bool
}

//Error returns a string with an error message, prefixed with the decoration, if any.
func (err Error) Error() string {
	if len(err.deco) == 0 {
		return err.message
	}
	//the decoration goes from the innermost to the outermost caller.
	callers := make([]string, len(err.deco))
	for i, v := range err.deco {
		callers[len(err.deco)-1-i] = v
	}
	return fmt.Sprintf("%s: %s", strings.Join(callers, ": "), err.message)
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice. An empty dec just returns the current decoration.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored.
func (err Error) Critical() bool { return err.critical }

//Unwrap returns the kind of the error, one of the PanicMsg constants, and
//the wrapped error, if any.
func (err Error) Unwrap() []error {
	ret := make([]error, 0, 2)
	if err.kind != "" {
		ret = append(ret, err.kind)
	}
	if err.cause != nil {
		ret = append(ret, err.cause)
	}
	return ret
}

//NewError returns a critical error of the given kind, created in the function caller.
func NewError(kind PanicMsg, caller string, format string, args ...any) *Error {
	return &Error{message: fmt.Sprintf(format, args...), kind: kind, deco: []string{caller}, critical: true}
}

//ShapeError is a shortcut for NewError(ErrShape, ...)
func ShapeError(caller string, format string, args ...any) *Error {
	return NewError(ErrShape, caller, format, args...)
}

//Decorate adds the name of the caller to err, if err is a Decorator. Otherwise
//err is wrapped in a new Error with the caller as its only decoration.
//A nil err returns nil.
func Decorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
		return e
	}
	return &Error{message: err.Error(), cause: err, deco: []string{caller}, critical: true}
}
