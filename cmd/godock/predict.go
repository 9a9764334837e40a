/*
 * predict.go, part of godock.
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
	"math/rand"
	"strconv"
	"strings"

	dock "github.com/rmera/godock"
	"github.com/rmera/godock/bbframe"
	"github.com/rmera/godock/chemplot"
	"github.com/rmera/godock/internal/config"
	"github.com/rmera/godock/internal/logging"
	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/structure"
	"github.com/rmera/godock/traj"
	"github.com/spf13/cobra"
)

type predictOptions struct {
	receptor    string
	features    string
	residues    int
	ligandAtoms int
	rows        int
	extraRows   int
	fragments   string
	out         string
	plot        string
}

func newPredictCommand(root *rootOptions) *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run the model on a receptor and a ligand",
		Long: `Runs the model with seeded random parameters. Features are read from a JSON file
(optionally zstd-compressed, with a .zst extension) or synthesized from the seed.
Receptor backbone frames are taken from the PDB file given, if any.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.loadConfig()
			if err != nil {
				return err
			}
			return runPredict(cmd, cfg, log, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.receptor, "receptor", "", "receptor PDB file, used for the backbone frames")
	f.StringVar(&opts.features, "features", "", "features file (.json or .json.zst)")
	f.IntVar(&opts.residues, "residues", 8, "residues of the synthetic receptor, if no receptor or features are given")
	f.IntVar(&opts.ligandAtoms, "ligand-atoms", 4, "ligand atoms, for synthetic features")
	f.IntVar(&opts.rows, "rows", 1, "single representation rows, for synthetic features")
	f.IntVar(&opts.extraRows, "extra-rows", 4, "extra stack rows, for synthetic features")
	f.StringVar(&opts.fragments, "fragments", "", "ligand fragments as start:end pairs separated by commas, i.e. 0:3,3:5")
	f.StringVar(&opts.out, "out", "", "trajectory file (overrides output.trajectory)")
	f.StringVar(&opts.plot, "plot", "", "pLDDT plot file (overrides output.plot)")
	return cmd
}

//parseFragments reads a list of start:end pairs.
func parseFragments(s string) ([]structure.Fragment, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ret []structure.Fragment
	for _, f := range strings.Split(s, ",") {
		a, b, ok := strings.Cut(strings.TrimSpace(f), ":")
		if !ok {
			return nil, fmt.Errorf("fragment %q is not a start:end pair", f)
		}
		start, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("fragment %q: %w", f, err)
		}
		end, err := strconv.Atoi(b)
		if err != nil {
			return nil, fmt.Errorf("fragment %q: %w", f, err)
		}
		ret = append(ret, structure.Fragment{Start: start, End: end})
	}
	return ret, nil
}

func predictInput(cfg *config.Config, log logging.Logger, opts *predictOptions) (dock.Input, error) {
	var bb *bbframe.Backbone
	if opts.receptor != "" {
		var err error
		if bb, err = bbframe.FromPDB(opts.receptor); err != nil {
			return dock.Input{}, err
		}
		log.Info("receptor read", logging.String("file", opts.receptor), logging.Int("residues", bb.Len()), logging.Int("valid", bb.Valid()))
	}
	var in dock.Input
	if opts.features != "" {
		var err error
		if in, err = dock.ReadFeatures(opts.features); err != nil {
			return dock.Input{}, err
		}
	} else {
		nres := opts.residues
		if bb != nil {
			nres = bb.Len()
		}
		if nres < 0 || opts.ligandAtoms < 0 || opts.rows < 1 {
			return dock.Input{}, fmt.Errorf("invalid sizes for synthetic features: %d residues, %d atoms, %d rows", nres, opts.ligandAtoms, opts.rows)
		}
		r := rand.New(rand.NewSource(cfg.Seed + 1))
		in = dock.RandomFeatures(r, cfg.Model, nres, opts.ligandAtoms, opts.rows, opts.extraRows)
		log.Info("synthetic features", logging.Int("residues", nres), logging.Int("atoms", opts.ligandAtoms))
	}
	if bb != nil {
		in.RecFrames, in.RecMask = bb.Tensors()
	}
	frags, err := parseFragments(opts.fragments)
	if err != nil {
		return dock.Input{}, err
	}
	if frags != nil {
		in.Fragments = frags
	}
	return in, nil
}

func runPredict(cmd *cobra.Command, cfg *config.Config, log logging.Logger, opts *predictOptions) error {
	if opts.out != "" {
		cfg.Output.Trajectory = opts.out
	}
	if opts.plot != "" {
		cfg.Output.Plot = opts.plot
	}
	in, err := predictInput(cfg, log, opts)
	if err != nil {
		return err
	}
	model := dock.New(cfg.Model, nn.NewUniform(cfg.Seed), log)
	out, err := model.Forward(in)
	if err != nil {
		return err
	}
	run := out.RunID.String()
	log = log.With(logging.String("run", run))
	if cfg.Output.Trajectory != "" {
		header := map[string]string{
			"run":        run,
			"prec":       strconv.Itoa(cfg.Output.Precision),
			"residues":   strconv.Itoa(in.NumResidues),
			"iterations": strconv.Itoa(len(out.Steps)),
		}
		if _, err := traj.WriteFrames(cfg.Output.Trajectory, out.PhysicalFrames(), header); err != nil {
			return err
		}
		log.Info("trajectory written", logging.String("file", cfg.Output.Trajectory))
	}
	if cfg.Output.Plot != "" && len(out.Steps) > 0 {
		last := out.Steps[len(out.Steps)-1]
		parts := []chemplot.Series{
			{Name: "receptor", Values: chemplot.PLDDT(last.RecLDDT)},
			{Name: "ligand", Values: chemplot.PLDDT(last.LigLDDT)},
		}
		if err := chemplot.PlotLDDTParts(parts, "pLDDT "+run, cfg.Output.Plot); err != nil {
			log.Warn("can't plot pLDDT", logging.Err(err))
		} else {
			log.Info("pLDDT plot written", logging.String("file", cfg.Output.Plot))
		}
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s\n", run)
	for i := 0; i < out.Affinity.Dim(0); i++ {
		aff := out.Affinity.Vec(i)
		log.Info("affinity", logging.Int("fragment", i), logging.Float64s("logits", aff))
		fmt.Fprintf(w, "affinity fragment %d:", i)
		for _, v := range aff {
			fmt.Fprintf(w, " %.4f", v)
		}
		fmt.Fprintln(w)
	}
	return nil
}
