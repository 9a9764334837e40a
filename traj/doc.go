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

//Package traj writes and reads the positions predicted along a structure module run in the simple
//trajectory format (STF), a zstd-compressed plain text format. Each iteration is one frame, and
//each receptor residue (its CA) or ligand atom is one "atom" of the frame.
//
//STF aims to produce reasonably small files that are very easy to read and write, so readers and
//writers can be implemented in other languages with little effort.

/******************** Format Specification   ***************************************************


An STF file has the extension stf, and it is compressed with z-standard (zstd).

A STF file may only contain ASCII symbols.

A STF file has a "header" starting in the first line, and ending with a line that starts with the
characters "**" followed by one or more spaces, and the number of atoms per frame.

Each line of the header must be a pair key=value. The precision (an integer greater than 0,
see below) is given with the key "prec", for example:

prec=2

This package writes the header keys in alphabetical order, and always includes "prec" and
"run", a random UUID identifying the prediction run the trajectory comes from.

After the header, the file has one line per atom, per frame. Each line contains 3 integers,
corresponding to the x y and z cartesian coordinates, respectively, and nothing more. Each
of these numbers is the respective coordinate in Angstrom, multiplied by 10 to the
power of (precision) and rounded to an integer. The default precision is 2.

Each frame ends with a line starting with the character "*" (no whitespaces before), optionally
followed by one or more whitespace and 9 floating-point numbers separated by spaces. If present,
these numbers correspond to the vectors defining a box, in Angstrom.

The "**" sequence may only be used as a header termination, as described above and can not appear
anywhere else in the file.

***************************************************************************************************/

package traj
