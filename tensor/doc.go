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

/*Package tensor implements a Tensor type, a row-major, dense, N-dimensional array of float64.
Tensors are used to represent single representations ([entities, C] or [rows, entities, C]),
pair representations ([entities, entities, C]), frames ([entities, 7]) and torsions
([residues, 7, 2]) in goDock.

The last axis of a Tensor is the "channel" axis. Any Tensor can be seen as a gonum
mat.Dense with as many rows as the product of all the other axes, and as many columns
as channels (see Dense). Views share memory with the Tensor.

Unlike gonum matrices, a Tensor can have zero-length axes, which is needed to represent,
for instance, a complex with no ligand atoms.

*/
package tensor
