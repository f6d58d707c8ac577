// Copyright 2026 SBCK-Go Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"math"
	"sort"

	"github.com/stockparfait/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Grid defines the shared hyper-rectangular binning of the feature space: a
// strictly positive bin width and a grid offset per dimension. A sample x
// belongs to the bin with integer index floor((x[d]-Origin[d])/Width[d]) in
// each dimension d. Two histograms are comparable only when built on the same
// Grid.
type Grid struct {
	Width  []float64
	Origin []float64
}

// NewGrid validates and creates a grid for the given number of features.
// A nil origin defaults to the zero vector.
func NewGrid(width, origin []float64, nFeatures int) (*Grid, error) {
	if len(width) != nFeatures {
		return nil, errors.Reason("bin width has %d components, expected %d",
			len(width), nFeatures)
	}
	for d, w := range width {
		if !(w > 0.0) || math.IsInf(w, 1) {
			return nil, errors.Reason("bin width[%d]=%g must be positive and finite",
				d, w)
		}
	}
	if origin == nil {
		origin = make([]float64, nFeatures)
	}
	if len(origin) != nFeatures {
		return nil, errors.Reason("bin origin has %d components, expected %d",
			len(origin), nFeatures)
	}
	g := &Grid{
		Width:  make([]float64, nFeatures),
		Origin: make([]float64, nFeatures),
	}
	copy(g.Width, width)
	copy(g.Origin, origin)
	return g, nil
}

// Dim is the number of features of the grid.
func (g *Grid) Dim() int { return len(g.Width) }

// Bin computes the integer bin index vector of a sample, stored in out, which
// must have the grid's dimensionality.
func (g *Grid) Bin(x []float64, out []int64) {
	for d := range g.Width {
		out[d] = int64(math.Floor((x[d] - g.Origin[d]) / g.Width[d]))
	}
}

// Center computes the center coordinates of the bin with the given index
// vector, stored in out.
func (g *Grid) Center(bin []int64, out []float64) {
	for d := range g.Width {
		out[d] = g.Origin[d] + (float64(bin[d])+0.5)*g.Width[d]
	}
}

// BinWidthEstimator estimates a per-feature bin width shared by all the given
// sample matrices using the Freedman-Diaconis rule, bw = 2*IQR / n^(1/3),
// taking the smallest width across matrices for each feature. Degenerate
// features (zero IQR) fall back to the feature's range, and ultimately to 1.
// The result is always strictly positive, suitable for NewGrid.
func BinWidthEstimator(xs []mat.Matrix) ([]float64, error) {
	if len(xs) == 0 {
		return nil, errors.Reason("no sample matrices given")
	}
	_, nFeatures := xs[0].Dims()
	if nFeatures == 0 {
		return nil, errors.Reason("sample matrices must have at least one feature")
	}
	width := make([]float64, nFeatures)
	for _, x := range xs {
		nRows, c := x.Dims()
		if c != nFeatures {
			return nil, errors.Reason("inconsistent feature counts: %d != %d",
				c, nFeatures)
		}
		if nRows == 0 {
			return nil, errors.Reason("sample matrix has no rows")
		}
		col := make([]float64, nRows)
		for d := 0; d < nFeatures; d++ {
			mat.Col(col, d, x)
			sort.Float64s(col)
			iqr := stat.Quantile(0.75, stat.Empirical, col, nil) -
				stat.Quantile(0.25, stat.Empirical, col, nil)
			bw := 2.0 * iqr / math.Cbrt(float64(nRows))
			if !(bw > 0.0) {
				bw = col[nRows-1] - col[0]
			}
			if !(bw > 0.0) {
				bw = 1.0
			}
			if width[d] == 0.0 || bw < width[d] {
				width[d] = bw
			}
		}
	}
	return width, nil
}
