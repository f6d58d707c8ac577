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

	"gonum.org/v1/gonum/mat"

	"github.com/ahisi/SBCK/stats"
)

// NetworkFlow solves the discrete transportation problem exactly, as a
// min-cost flow on the bipartite source-bins / target-bins graph, by
// successive shortest augmenting paths (Bellman-Ford on the residual graph).
// On numerical failure or when MaxIter augmentations are exceeded, State
// reports false and the plan is left unset; Fit does not error in that case.
type NetworkFlow struct {
	Norm    float64 // Minkowski order of the transport cost; <= 0 is Euclidean
	MaxIter int     // augmentation cap; <= 0 derives a cap from the bin counts
	Eps     float64 // mass threshold treated as zero; <= 0 defaults to 1e-12

	plan  *mat.Dense
	state bool
}

var _ Solver = &NetworkFlow{}

// State reports whether the last Fit converged to a valid flow.
func (s *NetworkFlow) State() bool { return s.state }

// Plan of the last successful Fit; nil if State is false.
func (s *NetworkFlow) Plan() *mat.Dense { return s.plan }

func (s *NetworkFlow) Fit(ctx context.Context, source, target *stats.SparseHist) error {
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
		eps = 1e-12
	}
	n, m := source.Size(), target.Size()
	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = n*m + n + m
	}

	a := source.P()
	b := target.P()
	cost := CostMatrix(source, target, s.Norm)
	flow := mat.NewDense(n, m, nil)
	// Residual supply and demand; both sum to 1 and are drained together.
	ra := append([]float64{}, a...)
	rb := append([]float64{}, b...)
	remaining := 1.0

	// Node layout for path search: 0..n-1 sources, n..n+m-1 sinks.
	dist := make([]float64, n+m)
	parent := make([]int, n+m)

	for iter := 0; remaining > eps; iter++ {
		if iter >= maxIter {
			return nil // stalled; State stays false
		}
		if err := ctx.Err(); err != nil {
			return errors.Annotate(err, "transport solve interrupted")
		}
		if !s.shortestPath(cost, flow, ra, dist, parent, eps) {
			return nil // no augmenting path but mass remains; State stays false
		}
		// Cheapest sink with remaining demand terminates the path.
		sink := -1
		for j := 0; j < m; j++ {
			if rb[j] > eps && (sink < 0 || dist[n+j] < dist[n+sink]) {
				sink = j
			}
		}
		if sink < 0 || math.IsInf(dist[n+sink], 1) {
			return nil
		}
		// Walk the path backwards to find the bottleneck, then augment.
		bottleneck := rb[sink]
		for j := sink; ; {
			i := parent[n+j]
			if bottleneck > ra[i] && parent[i] < 0 {
				bottleneck = ra[i]
			}
			if parent[i] < 0 {
				break
			}
			jPrev := parent[i] - n
			if f := flow.At(i, jPrev); f < bottleneck {
				bottleneck = f
			}
			j = jPrev
		}
		if bottleneck <= eps {
			return nil
		}
		for j := sink; ; {
			i := parent[n+j]
			flow.Set(i, j, flow.At(i, j)+bottleneck)
			if parent[i] < 0 {
				ra[i] -= bottleneck
				break
			}
			jPrev := parent[i] - n
			flow.Set(i, jPrev, flow.At(i, jPrev)-bottleneck)
			j = jPrev
		}
		rb[sink] -= bottleneck
		remaining -= bottleneck
	}

	s.plan = flow
	s.state = true
	return nil
}

// shortestPath runs Bellman-Ford on the residual graph from all sources with
// remaining supply. Forward arcs source->sink are uncapacitated with cost
// C[i][j]; reverse arcs sink->source exist where flow is positive, with cost
// -C[i][j]. Returns false when no sink is reachable.
func (s *NetworkFlow) shortestPath(cost, flow *mat.Dense, ra, dist []float64, parent []int, eps float64) bool {
	n, m := cost.Dims()
	for v := range dist {
		dist[v] = math.Inf(1)
		parent[v] = -1
	}
	for i := 0; i < n; i++ {
		if ra[i] > eps {
			dist[i] = 0.0
		}
	}
	// The residual graph has no negative cycles, so n+m passes suffice.
	for pass := 0; pass <= n+m; pass++ {
		improved := false
		for i := 0; i < n; i++ {
			if math.IsInf(dist[i], 1) {
				continue
			}
			for j := 0; j < m; j++ {
				if d := dist[i] + cost.At(i, j); d < dist[n+j] {
					dist[n+j] = d
					parent[n+j] = i
					improved = true
				}
			}
		}
		for j := 0; j < m; j++ {
			if math.IsInf(dist[n+j], 1) {
				continue
			}
			for i := 0; i < n; i++ {
				if flow.At(i, j) <= eps {
					continue
				}
				if d := dist[n+j] - cost.At(i, j); d < dist[i] {
					dist[i] = d
					parent[i] = n + j
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	for j := 0; j < m; j++ {
		if !math.IsInf(dist[n+j], 1) {
			return true
		}
	}
	return false
}
