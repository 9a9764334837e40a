/*
 * loader.go, part of godock.
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

import (
	"fmt"
	"strings"

	dock "github.com/rmera/godock"
	"github.com/spf13/viper"
)

const envPrefix = "GODOCK"

//newViper returns a viper instance reading YAML, with GODOCK_ environment overrides
//where "model.structure.num_iter" maps to GODOCK_MODEL_STRUCTURE_NUM_ITER.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	//AutomaticEnv only sees keys viper already knows about.
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("output.trajectory", DefaultTrajectory)
	v.SetDefault("output.plot", DefaultPlot)
	v.SetDefault("output.precision", DefaultPrecision)
	v.SetDefault("seed", DefaultSeed)
	d := dock.DefaultConfig()
	v.SetDefault("model.evoformer.num_iter", d.Evoformer.NumIter)
	v.SetDefault("model.extra.num_iter", d.Extra.NumIter)
	v.SetDefault("model.structure.num_iter", d.Structure.NumIter)
	v.SetDefault("model.structure.position_scale", d.Structure.PositionScale)
	return v
}

//Load reads the YAML file at path (no file is read if path is empty), applies the
//environment overrides and the defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
		}
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{Model: dock.DefaultConfig()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

//MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
