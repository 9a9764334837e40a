/*
 * lddt.go, part of godock.
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

//Package chemplot computes per-entity confidence (pLDDT) from the confidence logits of the
//structure module, and plots it with gonum/plot.
package chemplot

import (
	"fmt"
	"image/color"

	"github.com/rmera/godock/nn"
	"github.com/rmera/godock/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//PLDDT takes [N,bins] confidence logits and returns, for each of the N entities, the expected
//LDDT in the 0-100 range. Bin i covers [i/bins, (i+1)/bins) and contributes its center.
func PLDDT(logits *tensor.Tensor) []float64 {
	if logits.Rank() != 2 {
		panic(tensor.ErrShape)
	}
	n, bins := logits.Dim(0), logits.Dim(1)
	centers := make([]float64, bins)
	for i := range centers {
		centers[i] = 100 * (float64(i) + 0.5) / float64(bins)
	}
	ret := make([]float64, n)
	p := make([]float64, bins)
	for i := range ret {
		copy(p, logits.Vec(i))
		nn.Softmax(p, nil)
		ret[i] = floats.Dot(p, centers)
	}
	return ret
}

//Series is a named set of per-entity values.
type Series struct {
	Name   string
	Values []float64
}

func basicLDDTPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Entity"
	p.Y.Label.Text = "pLDDT"
	//Constant axes
	p.Y.Min = 0
	p.Y.Max = 100
	p.Add(plotter.NewGrid())
	return p
}

//PlotLDDTParts plots each series, one after the other along the x axis and each with
//its own color, and saves the plot to filename. The format is given by the extension.
func PlotLDDTParts(parts []Series, title, filename string) error {
	if len(parts) == 0 {
		return fmt.Errorf("PlotLDDTParts: no data to plot")
	}
	p := basicLDDTPlot(title)
	offset := 0
	for key, s := range parts {
		if len(s.Values) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Values))
		for i, v := range s.Values {
			pts[i].X = float64(offset + i)
			pts[i].Y = v
		}
		offset += len(s.Values)
		l, sc, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("PlotLDDTParts: %w", err)
		}
		r, g, b := colors(key, len(parts))
		c := color.RGBA{R: r, G: g, B: b, A: 255}
		l.LineStyle.Color = c
		sc.GlyphStyle.Color = c
		p.Add(l, sc)
		p.Legend.Add(s.Name, l, sc)
	}
	if offset == 0 {
		return fmt.Errorf("PlotLDDTParts: all series are empty")
	}
	p.X.Min = -0.5
	p.X.Max = float64(offset) - 0.5
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("PlotLDDTParts: %w", err)
	}
	return nil
}

//PlotLDDT plots a single series of values.
func PlotLDDT(values []float64, title, filename string) error {
	return PlotLDDTParts([]Series{{Name: "pLDDT", Values: values}}, title, filename)
}
