/*
 * defaults.go, part of godock.
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

package config

import dock "github.com/rmera/godock"

const (
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
	DefaultTrajectory = "godock.stf"
	DefaultPlot       = "plddt.png"
	DefaultPrecision  = 2
	DefaultSeed       = 42
)

//Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Model:  dock.DefaultConfig(),
		Output: OutputConfig{Trajectory: DefaultTrajectory, Plot: DefaultPlot},
		Seed:   DefaultSeed,
	}
	ApplyDefaults(cfg)
	return cfg
}

//ApplyDefaults fills the zero-valued scalar fields of cfg. The model section is
//not touched here: Load decodes it on top of dock.DefaultConfig.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Output.Precision == 0 {
		cfg.Output.Precision = DefaultPrecision
	}
}
