/*
 * logger_test.go, part of godock.
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

package logging

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestObservedFields(Te *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).Named("structure").With(String("run", "abc"))
	l.Debug("iteration", Int("layer", 1), Float64("displacement", 0.5), Bool("recompute", true))
	l.Info("done", Duration("took", time.Second), Err(errors.New("boom")), Any("bins", []int{1, 2}), Float64s("affinity", []float64{1, 2}))
	require.Equal(Te, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(Te, "structure", first.LoggerName)
	ctx := first.ContextMap()
	assert.Equal(Te, "abc", ctx["run"])
	assert.Equal(Te, int64(1), ctx["layer"])
	assert.Equal(Te, 0.5, ctx["displacement"])
	assert.Equal(Te, "boom", logs.All()[1].ContextMap()["error"])
}

func TestLevels(Te *testing.T) {
	assert.Equal(Te, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(Te, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(Te, zapcore.InfoLevel, ParseLevel("verbose"))
	l, err := NewLogger(LogConfig{Level: "debug", Format: "json", OutputPaths: []string{filepath.Join(Te.TempDir(), "log.json")}})
	require.NoError(Te, err)
	l.Info("hello")
	_, err = NewLogger(LogConfig{OutputPaths: []string{"/nonexistent/dir/for/sure/log"}})
	assert.Error(Te, err)
	nop := OrNop(nil)
	nop.With(Int("a", 1)).Named("x").Error("nothing")
}
