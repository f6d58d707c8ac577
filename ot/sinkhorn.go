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

package ot

import (
	"context"
	"math"

	"github.com/stockparfait/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ahisi/SBCK/stats"
)

// SinkhornLogDual solves the entropy-regularized transport problem by
// alternating dual updates in the log domain, which stays stable for small
// regularization. It approximates the optimal coupling and never fails:
// State is always true once iteration terminates, which makes it the
// designated fallback for NetworkFlow. Iteration stops when the L1 error of
// the row marginals drops below Tol, or after MaxIter iterations.
type SinkhornLogDual struct {
	Norm    float64 // Minkowski order of the transport cost; <= 0 is Euclidean
	Eps     float64 // regularization strength; <= 0 defaults to 0.1
	Tol     float64 // L1 marginal tolerance; <= 0 defaults to 1e-7
	MaxIter int     // iteration cap; <= 0 defaults to 1000

	plan  *mat.Dense
	state bool
}

var _ Solver = &SinkhornLogDual{}

// State reports whether a plan is available. It is true after any completed
// Fit: the entropic solver only approximates, it does not fail.
func (s *SinkhornLogDual) State() bool { return s.state }

// Plan of the last Fit.
func (s *SinkhornLogDual) Plan() *mat.Dense { return s.plan }

func (s *SinkhornLogDual) Fit(ctx context.Context, source, target *stats.SparseHist) error {
	s.plan = nil
	s.state = false
	if source == nil || target == nil {
		return errors.Reason("source and target histograms must not be nil")
	}
	if source.Dim() != target.Dim() {
		return errors.Reason("source dim %d != target dim %d",
			source.Dim(), target.Dim())
	}
	eps := s.Eps
	if eps <= 0 {
		eps = 0.1
	}
	tol := s.Tol
	if tol <= 0 {
		tol = 1e-7
	}
	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = 1000
	}

	n, m := source.Size(), target.Size()
	a := source.P()
	b := target.P()
	cost := CostMatrix(source, target, s.Norm)
	logA := make([]float64, n)
	logB := make([]float64, m)
	for i, v := range a {
		logA[i] = math.Log(v) // occupied bins have positive mass
	}
	for j, v := range b {
		logB[j] = math.Log(v)
	}

	f := make([]float64, n)
	g := make([]float64, m)
	rowTerms := make([]float64, m)
	colTerms := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return errors.Annotate(err, "transport solve interrupted")
		}
		// f_i = eps*log(a_i) - eps*LSE_j[(g_j - C_ij)/eps]
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				rowTerms[j] = (g[j] - cost.At(i, j)) / eps
			}
			f[i] = eps * (logA[i] - floats.LogSumExp(rowTerms))
		}
		for j := 0; j < m; j++ {
			for i := 0; i < n; i++ {
				colTerms[i] = (f[i] - cost.At(i, j)) / eps
			}
			g[j] = eps * (logB[j] - floats.LogSumExp(colTerms))
		}
		// L1 error of the row marginals under the current duals.
		errL1 := 0.0
		for i := 0; i < n; i++ {
			rowSum := 0.0
			for j := 0; j < m; j++ {
				rowSum += math.Exp((f[i] + g[j] - cost.At(i, j)) / eps)
			}
			errL1 += math.Abs(rowSum - a[i])
		}
		if errL1 < tol {
			break
		}
	}

	plan := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			plan.Set(i, j, math.Exp((f[i]+g[j]-cost.At(i, j))/eps))
		}
	}
	s.plan = plan
	s.state = true
	return nil
}
