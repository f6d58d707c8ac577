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

// Package ot computes couplings between discrete distributions given as
// sparse multivariate histograms. A Solver produces a transport plan, a
// non-negative source-bins x target-bins matrix whose row sums are the
// source bin masses. Numerical failure is reported through State rather than
// an error, so callers can fall back to another solver.
package ot

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ahisi/SBCK/stats"
)

// Solver computes a transport plan between two histograms. Fit returns an
// error only for malformed inputs (empty histograms, dimension mismatch);
// numerically degenerate but well-formed instances leave State false instead.
// Plan is valid only when State reports true.
type Solver interface {
	Fit(ctx context.Context, source, target *stats.SparseHist) error
	State() bool
	Plan() *mat.Dense
}

// CostMatrix computes the pairwise transport cost between the occupied bin
// centers of the two histograms as the Minkowski distance of order p; p <= 0
// defaults to the Euclidean distance.
func CostMatrix(source, target *stats.SparseHist, p float64) *mat.Dense {
	if p <= 0 {
		p = 2.0
	}
	n, m := source.Size(), target.Size()
	cost := mat.NewDense(n, m, nil)
	diff := make([]float64, source.Dim())
	for i := 0; i < n; i++ {
		src := source.C().RawRowView(i)
		for j := 0; j < m; j++ {
			floats.SubTo(diff, src, target.C().RawRowView(j))
			cost.Set(i, j, floats.Norm(diff, p))
		}
	}
	return cost
}
