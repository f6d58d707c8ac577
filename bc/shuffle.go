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

package bc

import (
	"sort"
	"time"

	"github.com/stockparfait/errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// SchaakeShuffle reorders corrected samples so that the rank structure of
// each feature matches a reference template, restoring the reference
// inter-variable (and inter-row) dependence while keeping each column's
// values unchanged. It is a post-processing step, not a Corrector by itself.
type SchaakeShuffle struct {
	template *mat.Dense // reference rows used as the rank template
	rand     *rand.Rand
	fitted   bool
}

// NewSchaakeShuffle creates an unfitted shuffle.
func NewSchaakeShuffle() *SchaakeShuffle {
	return &SchaakeShuffle{
		rand: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// Seed the random source used to resample the template when row counts
// differ. Mostly used in tests.
func (s *SchaakeShuffle) Seed(seed uint64) {
	s.rand = rand.New(rand.NewSource(seed))
}

// Fit stores the reference dataset as the rank template.
func (s *SchaakeShuffle) Fit(refY0 mat.Matrix) error {
	nRows, nFeatures := refY0.Dims()
	if nRows == 0 || nFeatures == 0 {
		return errors.Reason("reference dataset must be non-empty")
	}
	s.template = mat.DenseCopyOf(refY0)
	s.fitted = true
	return nil
}

// ranks returns, for each element of v, its position in the ascending order
// of v (ties broken by row index).
func ranks(v []float64) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	r := make([]int, len(v))
	for pos, i := range idx {
		r[i] = pos
	}
	return r
}

// Predict reorders each column of x to follow the template's rank structure.
// The output rows are a permutation-within-column of x: per-column value
// multisets are preserved exactly. When x has a different row count than the
// template, template rows are resampled uniformly at random.
func (s *SchaakeShuffle) Predict(x mat.Matrix) (*mat.Dense, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	nRows, nFeatures := x.Dims()
	tRows, tFeatures := s.template.Dims()
	if nFeatures != tFeatures {
		return nil, errors.Reason("query has %d features, template has %d",
			nFeatures, tFeatures)
	}
	tmpl := s.template
	if nRows != tRows {
		tmpl = mat.NewDense(nRows, nFeatures, nil)
		for i := 0; i < nRows; i++ {
			tmpl.SetRow(i, s.template.RawRowView(s.rand.Intn(tRows)))
		}
	}
	z := mat.NewDense(nRows, nFeatures, nil)
	xCol := make([]float64, nRows)
	tCol := make([]float64, nRows)
	for d := 0; d < nFeatures; d++ {
		mat.Col(xCol, d, x)
		mat.Col(tCol, d, tmpl)
		sorted := append([]float64{}, xCol...)
		sort.Float64s(sorted)
		for i, r := range ranks(tCol) {
			z.Set(i, d, sorted[r])
		}
	}
	return z, nil
}
