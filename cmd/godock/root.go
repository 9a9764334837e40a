/*
 * root.go, part of godock.
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
	"fmt"

	"github.com/rmera/godock/internal/config"
	"github.com/rmera/godock/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

//loadConfig reads the configuration and builds the logger. A --log-level given in
//the command line wins over the configuration.
func (o *rootOptions) loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.Named("godock"), nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "godock",
		Short:         "Receptor-ligand structure and affinity prediction",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file (defaults are used if not given)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.AddCommand(newPredictCommand(opts), newVersionCommand())
	return cmd
}
