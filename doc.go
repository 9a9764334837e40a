/*
 * doc.go, part of godock.
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

/*Package dock is the main package of goDock. It puts together the parts of the model that predicts
the structure of a receptor-ligand complex, and its binding affinity, from single and pair
representations of the residues and ligand atoms.



	**goDock Capabilities**


    Refines the pair representation with an extra stack of Evoformer iterations, using
	global column attention over a (possibly large) set of extra rows.

    Refines the single and pair representations together with the Evoformer stack
	(packages evoformer and attention).

    Builds a rigid frame for each receptor residue and ligand atom, and refines them with
	invariant point attention (package structure), keeping the whole trajectory of frames,
	torsions and confidence logits.

    Predicts affinity logits for each ligand fragment.

    Reads receptor backbone frames from PDB files (package bbframe), and input features
	from JSON files.

    Writes predicted positions as compressed trajectories (package traj) and plots
	per-entity confidence (package chemplot).

    Optionally recomputes the activations of each iteration instead of keeping them in
	memory (package checkpoint), with identical results.



	**Units and conventions**

    Tensors are described by their shapes, i.e. [R,C] for a single representation of R
	residues with C channels. Batched inputs carry a leading axis of length 1. Frames
	are quaternions (real part first) followed by a translation, 7 numbers per entity.
	Input and output coordinates are in Angstrom, the structure module works internally
	with coordinates divided by a position scale.

*/
package dock
