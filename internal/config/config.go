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

//Package config loads the configuration of the godock command from a YAML file
//and GODOCK_ environment variables.
package config

import (
	"fmt"
	"strings"

	dock "github.com/rmera/godock"
	"github.com/rmera/godock/internal/logging"
)

//OutputConfig says where the results of a prediction go. Empty names disable
//the corresponding output.
type OutputConfig struct {
	Trajectory string `mapstructure:"trajectory"`
	Plot       string `mapstructure:"plot"`
	//Decimal places kept in the trajectory.
	Precision int `mapstructure:"precision"`
}

//Config is the top-level configuration.
type Config struct {
	Log    logging.LogConfig `mapstructure:"log"`
	Model  dock.Config       `mapstructure:"model"`
	Output OutputConfig      `mapstructure:"output"`
	//Seed for the random parameters and the synthetic features.
	Seed int64 `mapstructure:"seed"`
}

//Validate returns the first problem found in c.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected console|json", c.Log.Format)
	}
	if c.Output.Precision < 1 || c.Output.Precision > 6 {
		return fmt.Errorf("config: output.precision %d is out of range [1, 6]", c.Output.Precision)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("config: model: %w", err)
	}
	return nil
}
