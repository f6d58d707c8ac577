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

// Package metrics measures discrepancies between multivariate samples and
// histograms, for evaluating how much of a bias a correction removed.
package metrics

import (
	"context"
	"math"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ahisi/SBCK/ot"
	"github.com/ahisi/SBCK/stats"
)

// Wasserstein computes the p=2 Wasserstein distance between two histograms as
// the total cost of an optimal coupling. A nil solver defaults to the exact
// network flow solver with an entropic fallback on numerical failure.
func Wasserstein(ctx context.Context, source, target *stats.SparseHist, solver ot.Solver) (float64, error) {
	if solver == nil {
		solver = &ot.NetworkFlow{}
	}
	if err := solver.Fit(ctx, source, target); err != nil {
		return 0, errors.Annotate(err, "failed to solve the coupling")
	}
	if !solver.State() {
		logging.Warningf(ctx, "transport solver failed, falling back to the entropic solver")
		solver = &ot.SinkhornLogDual{}
		if err := solver.Fit(ctx, source, target); err != nil {
			return 0, errors.Annotate(err, "fallback solver failed")
		}
		if !solver.State() {
			return 0, errors.Reason("no solver could couple the histograms")
		}
	}
	plan := solver.Plan()
	cost := ot.CostMatrix(source, target, 2.0)
	n, m := plan.Dims()
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			total += plan.At(i, j) * math.Pow(cost.At(i, j), 2.0)
		}
	}
	return math.Sqrt(total), nil
}

// Energy computes the energy distance between two samples,
// 2 E|X-Y| - E|X-X'| - E|Y-Y'|, with Euclidean distances between rows. It is
// zero iff the underlying distributions agree, and needs no binning.
func Energy(x, y mat.Matrix) (float64, error) {
	nX, cX := x.Dims()
	nY, cY := y.Dims()
	if cX != cY {
		return 0, errors.Reason("samples have %d and %d features", cX, cY)
	}
	if nX == 0 || nY == 0 {
		return 0, errors.Reason("samples must not be empty")
	}
	xd := mat.DenseCopyOf(x)
	yd := mat.DenseCopyOf(y)
	cross := meanPairwise(xd, yd)
	within := meanPairwise(xd, xd)
	withinY := meanPairwise(yd, yd)
	return 2.0*cross - within - withinY, nil
}

// meanPairwise averages the Euclidean distance between all row pairs.
func meanPairwise(x, y *mat.Dense) float64 {
	nX, _ := x.Dims()
	nY, _ := y.Dims()
	sum := 0.0
	for i := 0; i < nX; i++ {
		xi := x.RawRowView(i)
		for j := 0; j < nY; j++ {
			sum += floats.Distance(xi, y.RawRowView(j), 2.0)
		}
	}
	return sum / float64(nX*nY)
}

// Chebyshev computes the largest bin-mass discrepancy between two histograms
// over the union of their occupied bins. The histograms must share a grid for
// the comparison to be meaningful; only the dimensions are checked.
func Chebyshev(source, target *stats.SparseHist) (float64, error) {
	if source.Dim() != target.Dim() {
		return 0, errors.Reason("histograms have %d and %d features",
			source.Dim(), target.Dim())
	}
	worst := 0.0
	for _, bin := range source.Bins() {
		if d := math.Abs(source.Freq(bin) - target.Freq(bin)); d > worst {
			worst = d
		}
	}
	for _, bin := range target.Bins() {
		if d := math.Abs(source.Freq(bin) - target.Freq(bin)); d > worst {
			worst = d
		}
	}
	return worst, nil
}
