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
	"encoding/binary"
	"math"

	"github.com/stockparfait/errors"

	"gonum.org/v1/gonum/mat"
)

// SparseHist is a multivariate histogram which materializes only the occupied
// bins of its grid, keyed by the integer bin index vector. The occupied bins
// are kept in a stable first-occurrence order, which serves as the index
// space for transport plans for the lifetime of the histogram. A SparseHist
// is read-only after construction.
type SparseHist struct {
	grid    *Grid
	index   map[string]int // packed bin key -> position in the stable order
	bins    [][]int64      // bin index vectors, in stable order
	counts  []int          // per-bin sample counts, in stable order
	centers *mat.Dense     // per-bin center coordinates, in stable order
	samples int            // total number of samples
}

// packBin encodes a bin index vector as a map key.
func packBin(bin []int64, buf []byte) string {
	for d, b := range bin {
		binary.LittleEndian.PutUint64(buf[8*d:], uint64(b))
	}
	return string(buf)
}

// NewSparseHist builds a sparse histogram of X on the grid defined by
// binWidth and binOrigin. A nil binOrigin defaults to the zero vector. It
// fails when the grid vectors are malformed or when X contains non-finite
// values.
func NewSparseHist(x mat.Matrix, binWidth, binOrigin []float64) (*SparseHist, error) {
	nRows, nFeatures := x.Dims()
	if nRows == 0 {
		return nil, errors.Reason("sample matrix has no rows")
	}
	grid, err := NewGrid(binWidth, binOrigin, nFeatures)
	if err != nil {
		return nil, errors.Annotate(err, "invalid grid")
	}
	h := &SparseHist{
		grid:  grid,
		index: make(map[string]int),
	}
	row := make([]float64, nFeatures)
	bin := make([]int64, nFeatures)
	buf := make([]byte, 8*nFeatures)
	for i := 0; i < nRows; i++ {
		for d := 0; d < nFeatures; d++ {
			v := x.At(i, d)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Reason("sample [%d, %d] is not finite: %g", i, d, v)
			}
			row[d] = v
		}
		grid.Bin(row, bin)
		key := packBin(bin, buf)
		if at, ok := h.index[key]; ok {
			h.counts[at]++
			continue
		}
		h.index[key] = len(h.bins)
		h.bins = append(h.bins, append([]int64{}, bin...))
		h.counts = append(h.counts, 1)
	}
	h.samples = nRows
	h.centers = mat.NewDense(len(h.bins), nFeatures, nil)
	center := make([]float64, nFeatures)
	for i, b := range h.bins {
		grid.Center(b, center)
		h.centers.SetRow(i, center)
	}
	return h, nil
}

// Dim is the number of features.
func (h *SparseHist) Dim() int { return h.grid.Dim() }

// Size is the number of occupied bins.
func (h *SparseHist) Size() int { return len(h.bins) }

// NumSamples is the total number of samples added at construction.
func (h *SparseHist) NumSamples() int { return h.samples }

// Grid of the histogram.
func (h *SparseHist) Grid() *Grid { return h.grid }

// Counts of the occupied bins, in the stable bin order.
func (h *SparseHist) Counts() []int { return h.counts }

// Bins lists the occupied bin index vectors in the stable bin order.
func (h *SparseHist) Bins() [][]int64 { return h.bins }

// P returns the occupation frequencies of the occupied bins in the stable bin
// order; they sum to 1. The slice is newly allocated.
func (h *SparseHist) P() []float64 {
	p := make([]float64, len(h.counts))
	for i, c := range h.counts {
		p[i] = float64(c) / float64(h.samples)
	}
	return p
}

// C returns the occupied bin centers as a Size x Dim matrix aligned with the
// stable bin order. The returned matrix is owned by the histogram and must
// not be modified.
func (h *SparseHist) C() *mat.Dense { return h.centers }

// Freq returns the occupation frequency of the given bin index vector, or 0
// when the bin is unoccupied.
func (h *SparseHist) Freq(bin []int64) float64 {
	buf := make([]byte, 8*len(bin))
	if at, ok := h.index[packBin(bin, buf)]; ok {
		return float64(h.counts[at]) / float64(h.samples)
	}
	return 0.0
}

// nearestBin returns the occupied bin whose index vector is closest to bin in
// Euclidean distance.
func (h *SparseHist) nearestBin(bin []int64) int {
	best, bestDist := 0, math.Inf(1)
	for i, b := range h.bins {
		var dist float64
		for d := range b {
			diff := float64(b[d] - bin[d])
			dist += diff * diff
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// Argwhere maps each row of X to the index of its bin in the stable bin
// order. A row falling into a bin that was unoccupied at construction time is
// snapped to the nearest occupied bin (in Euclidean distance over bin index
// vectors), so a fitted corrector can always resolve a query point; the snap
// is exact for the intended usage where X is the dataset the histogram was
// built from.
func (h *SparseHist) Argwhere(x mat.Matrix) ([]int, error) {
	nRows, nFeatures := x.Dims()
	if nFeatures != h.Dim() {
		return nil, errors.Reason("query has %d features, histogram has %d",
			nFeatures, h.Dim())
	}
	idx := make([]int, nRows)
	row := make([]float64, nFeatures)
	bin := make([]int64, nFeatures)
	buf := make([]byte, 8*nFeatures)
	for i := 0; i < nRows; i++ {
		for d := 0; d < nFeatures; d++ {
			v := x.At(i, d)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Reason("query [%d, %d] is not finite: %g", i, d, v)
			}
			row[d] = v
		}
		h.grid.Bin(row, bin)
		if at, ok := h.index[packBin(bin, buf)]; ok {
			idx[i] = at
			continue
		}
		idx[i] = h.nearestBin(bin)
	}
	return idx, nil
}
