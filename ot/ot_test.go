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
	"testing"

	"github.com/stockparfait/testutil"

	"gonum.org/v1/gonum/mat"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ahisi/SBCK/stats"
)

// hist1D builds a 1-D histogram with unit bins from the given samples.
func hist1D(samples ...float64) *stats.SparseHist {
	h, err := stats.NewSparseHist(
		mat.NewDense(len(samples), 1, samples), []float64{1.0}, nil)
	So(err, ShouldBeNil)
	return h
}

func planTotal(p *mat.Dense) float64 {
	n, m := p.Dims()
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			sum += p.At(i, j)
		}
	}
	return sum
}

func TestCostMatrix(t *testing.T) {
	t.Parallel()

	Convey("CostMatrix computes pairwise center distances", t, func() {
		source := hist1D(0.2, 0.4, 9.1) // bins 0 and 9, centers 0.5 and 9.5
		target := hist1D(1.1, 8.5)      // bins 1 and 8, centers 1.5 and 8.5
		c := CostMatrix(source, target, 0)
		So(c.At(0, 0), ShouldEqual, 1.0)
		So(c.At(0, 1), ShouldEqual, 8.0)
		So(c.At(1, 0), ShouldEqual, 8.0)
		So(c.At(1, 1), ShouldEqual, 1.0)
	})
}

func TestNetworkFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("NetworkFlow solves small instances exactly", t, func() {
		Convey("two separated clusters map diagonally", func() {
			source := hist1D(0.2, 0.4, 9.1, 9.3) // masses 0.5, 0.5
			target := hist1D(1.1, 1.2, 8.5, 8.9) // masses 0.5, 0.5
			s := &NetworkFlow{}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			So(s.State(), ShouldBeTrue)
			p := s.Plan()
			So(testutil.Round(p.At(0, 0), 6), ShouldEqual, 0.5)
			So(testutil.Round(p.At(1, 1), 6), ShouldEqual, 0.5)
			So(p.At(0, 1), ShouldEqual, 0.0)
			So(p.At(1, 0), ShouldEqual, 0.0)
			So(testutil.Round(planTotal(p), 6), ShouldEqual, 1.0)
		})

		Convey("one source bin splits across target bins", func() {
			source := hist1D(0.1, 0.2)
			target := hist1D(1.5, 8.5)
			s := &NetworkFlow{}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			So(s.State(), ShouldBeTrue)
			p := s.Plan()
			So(testutil.Round(p.At(0, 0), 6), ShouldEqual, 0.5)
			So(testutil.Round(p.At(0, 1), 6), ShouldEqual, 0.5)
		})

		Convey("uneven masses conserve marginals", func() {
			source := hist1D(0.1, 0.2, 0.3, 9.9) // masses 0.75, 0.25
			target := hist1D(1.5, 8.1, 8.2)      // masses 1/3, 2/3
			s := &NetworkFlow{}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			So(s.State(), ShouldBeTrue)
			p := s.Plan()
			a := source.P()
			for i := 0; i < source.Size(); i++ {
				rowSum := 0.0
				for j := 0; j < target.Size(); j++ {
					So(p.At(i, j), ShouldBeGreaterThanOrEqualTo, 0.0)
					rowSum += p.At(i, j)
				}
				So(testutil.Round(rowSum, 6), ShouldEqual, testutil.Round(a[i], 6))
			}
			b := target.P()
			for j := 0; j < target.Size(); j++ {
				colSum := 0.0
				for i := 0; i < source.Size(); i++ {
					colSum += p.At(i, j)
				}
				So(testutil.Round(colSum, 6), ShouldEqual, testutil.Round(b[j], 6))
			}
		})

		Convey("single bin on both sides yields the unit plan", func() {
			source := hist1D(0.5)
			target := hist1D(3.7)
			s := &NetworkFlow{}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			So(s.State(), ShouldBeTrue)
			So(s.Plan().At(0, 0), ShouldEqual, 1.0)
		})

		Convey("an exhausted iteration cap reports failure, not error", func() {
			source := hist1D(0.1, 1.1, 2.1, 3.1)
			target := hist1D(5.1, 6.1, 7.1, 8.1)
			s := &NetworkFlow{MaxIter: 1}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			So(s.State(), ShouldBeFalse)
			So(s.Plan(), ShouldBeNil)
		})

		Convey("rejects dimension mismatch", func() {
			source := hist1D(0.5)
			target2d, err := stats.NewSparseHist(
				mat.NewDense(1, 2, []float64{0.5, 0.5}), []float64{1.0, 1.0}, nil)
			So(err, ShouldBeNil)
			So((&NetworkFlow{}).Fit(ctx, source, target2d), ShouldNotBeNil)
		})
	})
}

func TestSinkhornLogDual(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("SinkhornLogDual approximates the coupling", t, func() {
		source := hist1D(0.2, 0.4, 9.1, 9.3)
		target := hist1D(1.1, 1.2, 8.5, 8.9)

		Convey("marginals converge within tolerance", func() {
			s := &SinkhornLogDual{Eps: 0.1}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			So(s.State(), ShouldBeTrue)
			p := s.Plan()
			a := source.P()
			for i := 0; i < source.Size(); i++ {
				rowSum := 0.0
				for j := 0; j < target.Size(); j++ {
					So(p.At(i, j), ShouldBeGreaterThanOrEqualTo, 0.0)
					rowSum += p.At(i, j)
				}
				So(testutil.Round(rowSum, 4), ShouldEqual, testutil.Round(a[i], 4))
			}
			So(testutil.Round(planTotal(p), 4), ShouldEqual, 1.0)
		})

		Convey("small regularization concentrates near the exact plan", func() {
			s := &SinkhornLogDual{Eps: 0.05}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			p := s.Plan()
			So(p.At(0, 0), ShouldBeGreaterThan, 0.45)
			So(p.At(1, 1), ShouldBeGreaterThan, 0.45)
			So(p.At(0, 1), ShouldBeLessThan, 0.05)
		})

		Convey("state is true even with a tiny iteration cap", func() {
			s := &SinkhornLogDual{Eps: 0.1, MaxIter: 1}
			So(s.Fit(ctx, source, target), ShouldBeNil)
			So(s.State(), ShouldBeTrue)
			So(s.Plan(), ShouldNotBeNil)
		})
	})
}
