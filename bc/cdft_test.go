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
	"testing"

	"github.com/stockparfait/testutil"

	"gonum.org/v1/gonum/mat"

	. "github.com/smartystreets/goconvey/convey"
)

// shifted builds a 1-feature matrix of n evenly spread values offset by
// shift.
func shifted(n int, shift float64) *mat.Dense {
	m := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		m.Set(i, 0, shift+float64(i)/float64(n))
	}
	return m
}

func TestCDFt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("stationary CDFt is empirical quantile mapping", t, func() {
		y0 := shifted(100, 0.0)  // reference on [0, 1)
		x0 := shifted(100, 5.0)  // biased on [5, 6)
		c := NewCDFt()
		So(c.Fit(ctx, y0, x0), ShouldBeNil)

		Convey("maps the biased dataset onto the reference range", func() {
			z, err := c.Predict(x0)
			So(err, ShouldBeNil)
			nRows, nCols := z.Dims()
			So(nRows, ShouldEqual, 100)
			So(nCols, ShouldEqual, 1)
			for i := 0; i < nRows; i++ {
				So(z.At(i, 0), ShouldBeGreaterThanOrEqualTo, 0.0)
				So(z.At(i, 0), ShouldBeLessThan, 1.0)
			}
			// The shift is removed up to the empirical quantile resolution.
			So(testutil.RoundFixed(z.At(50, 0)-x0.At(50, 0)+5.0, 1), ShouldEqual, 0.0)
		})

		Convey("predict before fit fails", func() {
			_, err := NewCDFt().Predict(x0)
			So(err, ShouldEqual, ErrNotFitted)
		})

		Convey("feature mismatch fails", func() {
			_, err := c.Predict(mat.NewDense(1, 2, []float64{0, 0}))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("projection CDFt transfers the calibration correction", t, func() {
		y0 := shifted(100, 0.0) // reference
		x0 := shifted(100, 5.0) // biased, calibration period
		x1 := shifted(100, 7.0) // biased, projection period: climate moved +2
		c := NewCDFt()
		So(c.FitProjection(ctx, y0, x0, x1), ShouldBeNil)
		z, err := c.Predict(x1)
		So(err, ShouldBeNil)
		// The bias (+5 at calibration) is removed while the +2 evolution is
		// retained: corrected projection values sit near [2, 3).
		nRows, _ := z.Dims()
		for i := 0; i < nRows; i++ {
			So(z.At(i, 0), ShouldBeGreaterThan, 1.5)
			So(z.At(i, 0), ShouldBeLessThan, 3.5)
		}
	})
}

func TestSchaakeShuffle(t *testing.T) {
	t.Parallel()

	Convey("SchaakeShuffle works", t, func() {
		y0 := mat.NewDense(4, 2, []float64{
			1, 10,
			2, 20,
			3, 30,
			4, 40,
		})

		Convey("restores the template rank structure", func() {
			s := NewSchaakeShuffle()
			So(s.Fit(y0), ShouldBeNil)
			x := mat.NewDense(4, 2, []float64{
				0.4, 300,
				0.3, 100,
				0.2, 400,
				0.1, 200,
			})
			z, err := s.Predict(x)
			So(err, ShouldBeNil)
			// Template ranks are strictly increasing in both features, so the
			// output columns are sorted ascending.
			So(mat.Col(nil, 0, z), ShouldResemble, []float64{0.1, 0.2, 0.3, 0.4})
			So(mat.Col(nil, 1, z), ShouldResemble, []float64{100, 200, 300, 400})
		})

		Convey("preserves per-column value multisets", func() {
			s := NewSchaakeShuffle()
			s.Seed(42)
			So(s.Fit(y0), ShouldBeNil)
			x := mat.NewDense(6, 2, []float64{
				5, 1, 3, 6, 1, 2, 4, 5, 2, 4, 6, 3})
			z, err := s.Predict(x)
			So(err, ShouldBeNil)
			for d := 0; d < 2; d++ {
				in := mat.Col(nil, d, x)
				out := mat.Col(nil, d, z)
				sort.Float64s(in)
				sort.Float64s(out)
				So(out, ShouldResemble, in)
			}
		})

		Convey("predict before fit fails", func() {
			_, err := NewSchaakeShuffle().Predict(y0)
			So(err, ShouldEqual, ErrNotFitted)
		})
	})
}

func TestECBC(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	Convey("ECBC corrects marginals and restores the reference copula", t, func() {
		// Reference: two comonotone features; biased: shifted and
		// anti-comonotone.
		n := 50
		y0 := mat.NewDense(n, 2, nil)
		x0 := mat.NewDense(n, 2, nil)
		for i := 0; i < n; i++ {
			v := float64(i) / float64(n)
			y0.SetRow(i, []float64{v, 2 * v})
			x0.SetRow(i, []float64{5 + v, 8 - 2*v})
		}
		c := NewECBC()
		c.Seed(42)
		So(c.Fit(ctx, y0, x0), ShouldBeNil)
		z, err := c.Predict(x0)
		So(err, ShouldBeNil)

		Convey("marginals land on the reference range", func() {
			nRows, _ := z.Dims()
			for i := 0; i < nRows; i++ {
				So(z.At(i, 0), ShouldBeGreaterThanOrEqualTo, 0.0)
				So(z.At(i, 0), ShouldBeLessThan, 1.0)
				So(z.At(i, 1), ShouldBeGreaterThanOrEqualTo, 0.0)
				So(z.At(i, 1), ShouldBeLessThan, 2.0)
			}
		})

		Convey("features become comonotone like the reference", func() {
			r0 := ranks(mat.Col(nil, 0, z))
			r1 := ranks(mat.Col(nil, 1, z))
			So(r0, ShouldResemble, r1)
		})
	})
}
