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

package datasets

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	. "github.com/smartystreets/goconvey/convey"
)

func colMean(m *mat.Dense, d int) float64 {
	return stat.Mean(mat.Col(nil, d, m), nil)
}

func TestDatasets(t *testing.T) {
	t.Parallel()
	seed := uint64(42)

	Convey("univariate generators", t, func() {
		Convey("GaussianExpMixture1D", func() {
			y0, x0, err := GaussianExpMixture1D(500, seed)
			So(err, ShouldBeNil)
			nY, cY := y0.Dims()
			nX, cX := x0.Dims()
			So(nY, ShouldEqual, 500)
			So(cY, ShouldEqual, 1)
			So(nX, ShouldEqual, 500)
			So(cX, ShouldEqual, 1)
			// The biased model sits well to the right of the reference bulk.
			So(colMean(x0, 0), ShouldBeGreaterThan, colMean(y0, 0))
		})

		Convey("GaussianVSExp1D", func() {
			y0, x0, err := GaussianVSExp1D(500, seed)
			So(err, ShouldBeNil)
			So(colMean(y0, 0), ShouldBeGreaterThan, 4.0)
			So(colMean(y0, 0), ShouldBeLessThan, 6.0)
			// Exponential draws are non-negative.
			for i := 0; i < 500; i++ {
				So(x0.At(i, 0), ShouldBeGreaterThanOrEqualTo, 0.0)
			}
		})

		Convey("generators are deterministic under a fixed seed", func() {
			a, _, err := GaussianVSExp1D(100, seed)
			So(err, ShouldBeNil)
			b, _, err := GaussianVSExp1D(100, seed)
			So(err, ShouldBeNil)
			So(mat.Equal(a, b), ShouldBeTrue)
		})

		Convey("invalid sample count fails", func() {
			_, _, err := GaussianVSExp1D(0, seed)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("multivariate generators", t, func() {
		Convey("GaussianExp2D swaps marginal families", func() {
			y0, x0, err := GaussianExp2D(500, seed)
			So(err, ShouldBeNil)
			_, cY := y0.Dims()
			So(cY, ShouldEqual, 2)
			// Exponential marginals are non-negative; Gaussian ones are not.
			for i := 0; i < 500; i++ {
				So(y0.At(i, 1), ShouldBeGreaterThanOrEqualTo, 0.0)
				So(x0.At(i, 0), ShouldBeGreaterThanOrEqualTo, 0.0)
			}
		})

		Convey("GaussianL2D arms hug the axes", func() {
			y0, x0, err := GaussianL2D(500, seed)
			So(err, ShouldBeNil)
			// Each reference point lies close to at least one axis.
			for i := 0; i < 500; i++ {
				near0 := y0.At(i, 0) > -2.0 && y0.At(i, 0) < 2.0
				near1 := y0.At(i, 1) > -2.0 && y0.At(i, 1) < 2.0
				So(near0 || near1, ShouldBeTrue)
			}
			So(colMean(x0, 0), ShouldBeGreaterThan, 6.0)
		})

		Convey("BimodalReverse2D reverses the mode weights", func() {
			y0, x0, err := BimodalReverse2D(1000, seed)
			So(err, ShouldBeNil)
			inLow := func(m *mat.Dense) int {
				n, _ := m.Dims()
				count := 0
				for i := 0; i < n; i++ {
					if m.At(i, 0) < 0 {
						count++
					}
				}
				return count
			}
			So(inLow(y0), ShouldBeGreaterThan, 550) // ~70%
			So(inLow(x0), ShouldBeLessThan, 450)    // ~30%
		})

		Convey("GaussianDD produces the requested dimension", func() {
			y0, x0, err := GaussianDD(200, 5, seed)
			So(err, ShouldBeNil)
			_, cY := y0.Dims()
			_, cX := x0.Dims()
			So(cY, ShouldEqual, 5)
			So(cX, ShouldEqual, 5)
			for d := 0; d < 5; d++ {
				So(colMean(x0, d)-colMean(y0, d), ShouldBeGreaterThan, 3.0)
			}
		})

		Convey("invalid shape fails", func() {
			_, _, err := GaussianDD(10, 0, seed)
			So(err, ShouldNotBeNil)
		})
	})
}
