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
	"context"
	"sort"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/ahisi/SBCK/ot"
	"github.com/ahisi/SBCK/stats"
)

// OTC is the Optimal Transport bias Corrector of Robin et al. (2019),
// "Multivariate stochastic bias corrections with optimal transport". Fit
// discretizes both datasets into sparse histograms on a shared grid, couples
// them with an optimal transport plan, and row-normalizes the plan into a
// conditional distribution over reference bins. Predict stochastically remaps
// each biased sample to a reference bin center drawn from that conditional
// distribution, preserving the inter-variable dependence structure of the
// reference; its output is quantized to the reference bin centers.
type OTC struct {
	binWidth  []float64 // nil: estimated from {Y0, X0} at fit time
	binOrigin []float64 // nil: zero vector
	solver    ot.Solver // nil: &ot.NetworkFlow{}

	muY    *stats.SparseHist
	muX    *stats.SparseHist
	plan   *mat.Dense  // row-normalized conditional table
	cdf    [][]float64 // per-source-bin cumulative rows of plan
	rand   *rand.Rand
	fitted bool
}

var _ Corrector = &OTC{}

// NewOTC creates an optimal transport corrector. Either grid vector may be
// nil: the bin width is then estimated from the datasets at fit time, and the
// origin defaults to zero. A nil solver defaults to the exact NetworkFlow
// solver; on its failure Fit falls back to SinkhornLogDual unconditionally.
func NewOTC(binWidth, binOrigin []float64, solver ot.Solver) *OTC {
	return &OTC{
		binWidth:  binWidth,
		binOrigin: binOrigin,
		solver:    solver,
		rand:      rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// Seed the random source used by Predict. Mostly used in tests.
func (c *OTC) Seed(seed uint64) {
	c.rand = rand.New(rand.NewSource(seed))
}

// SourceHist is the histogram of the biased dataset. Nil before Fit.
func (c *OTC) SourceHist() *stats.SparseHist { return c.muX }

// TargetHist is the histogram of the reference dataset. Nil before Fit.
func (c *OTC) TargetHist() *stats.SparseHist { return c.muY }

// Plan is the row-normalized conditional transport plan. Nil before Fit.
func (c *OTC) Plan() *mat.Dense { return c.plan }

// Fit estimates the transport coupling from the reference dataset Y0 to the
// biased dataset X0. Both histograms share one grid so their bins are
// directly comparable.
func (c *OTC) Fit(ctx context.Context, refY0, biasedX0 mat.Matrix) error {
	c.fitted = false
	nFeatures, err := checkShapes(refY0, biasedX0)
	if err != nil {
		return errors.Annotate(err, "invalid fit datasets")
	}
	binWidth := c.binWidth
	if binWidth == nil {
		binWidth, err = stats.BinWidthEstimator([]mat.Matrix{refY0, biasedX0})
		if err != nil {
			return errors.Annotate(err, "failed to estimate bin width")
		}
	}
	if len(binWidth) != nFeatures {
		return errors.Reason("bin width has %d components, expected %d",
			len(binWidth), nFeatures)
	}
	if c.muY, err = stats.NewSparseHist(refY0, binWidth, c.binOrigin); err != nil {
		return errors.Annotate(err, "failed to build reference histogram")
	}
	if c.muX, err = stats.NewSparseHist(biasedX0, binWidth, c.binOrigin); err != nil {
		return errors.Annotate(err, "failed to build biased histogram")
	}

	solver := c.solver
	if solver == nil {
		solver = &ot.NetworkFlow{}
	}
	if err = solver.Fit(ctx, c.muX, c.muY); err != nil {
		return errors.Annotate(err, "transport solver failed")
	}
	if !solver.State() {
		logging.Warningf(ctx,
			"exact transport solver failed to converge, falling back to Sinkhorn")
		solver = &ot.SinkhornLogDual{}
		if err = solver.Fit(ctx, c.muX, c.muY); err != nil {
			return errors.Annotate(err, "fallback transport solver failed")
		}
	}

	c.normalizePlan(ctx, solver.Plan())
	c.fitted = true
	return nil
}

// normalizePlan divides each row of the raw plan by its sum, yielding the
// conditional distribution over target bins given a source bin, and caches
// the per-row cumulative sums used by Predict. A row with (numerically) zero
// mass is a degenerate solver output; it is replaced by the uniform
// distribution over target bins so that no NaN can reach Predict, and the
// event is logged.
func (c *OTC) normalizePlan(ctx context.Context, raw *mat.Dense) {
	n, m := raw.Dims()
	c.plan = mat.NewDense(n, m, nil)
	c.cdf = make([][]float64, n)
	const degenerate = 1e-300
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < m; j++ {
			rowSum += raw.At(i, j)
		}
		cdf := make([]float64, m)
		acc := 0.0
		if rowSum < degenerate {
			logging.Warningf(ctx,
				"source bin %d received no transported mass, using uniform row", i)
			for j := 0; j < m; j++ {
				c.plan.Set(i, j, 1.0/float64(m))
				acc += 1.0 / float64(m)
				cdf[j] = acc
			}
		} else {
			for j := 0; j < m; j++ {
				p := raw.At(i, j) / rowSum
				c.plan.Set(i, j, p)
				acc += p
				cdf[j] = acc
			}
		}
		cdf[m-1] = 1.0 // guard against rounding shortfall in the last bin
		c.cdf[i] = cdf
	}
}

// drawIndex returns the smallest index i with u < cdf[i]. It is the inverse
// transform of the categorical distribution whose cumulative probabilities
// are cdf, for a uniform draw u in [0, 1).
func drawIndex(cdf []float64, u float64) int {
	return sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
}

// Predict remaps each row of x onto a reference bin center drawn from the
// conditional distribution of the row's source bin. The output has the same
// shape as x and takes values only in the exact set of reference bin centers.
func (c *OTC) Predict(x mat.Matrix) (*mat.Dense, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}
	idx, err := c.muX.Argwhere(x)
	if err != nil {
		return nil, errors.Annotate(err, "failed to locate query bins")
	}
	nRows, _ := x.Dims()
	z := mat.NewDense(nRows, c.muY.Dim(), nil)
	for i, ix := range idx {
		iy := drawIndex(c.cdf[ix], c.rand.Float64())
		z.SetRow(i, c.muY.C().RawRowView(iy))
	}
	return z, nil
}
