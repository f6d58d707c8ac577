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

package dist

import (
	"testing"

	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEmpirical(t *testing.T) {
	t.Parallel()
	seed := uint64(42)

	Convey("Empirical distribution works", t, func() {
		d, err := NewEmpirical([]float64{3.0, 1.0, 2.0, 4.0, 5.0})
		So(err, ShouldBeNil)
		d.Seed(seed)

		Convey("CDF counts the fraction of samples <= x", func() {
			So(d.CDF(0.5), ShouldEqual, 0.0)
			So(d.CDF(1.0), ShouldEqual, 0.2)
			So(d.CDF(3.5), ShouldEqual, 0.6)
			So(d.CDF(5.0), ShouldEqual, 1.0)
		})

		Convey("Quantile is the order statistic", func() {
			So(d.Quantile(0.0), ShouldEqual, 1.0)
			So(d.Quantile(0.5), ShouldEqual, 3.0)
			So(d.Quantile(0.99), ShouldEqual, 5.0)
			So(d.Quantile(1.5), ShouldEqual, 5.0) // out of range
		})

		Convey("Rand resamples the data", func() {
			for i := 0; i < 10; i++ {
				x := d.Rand()
				So(x, ShouldBeGreaterThanOrEqualTo, 1.0)
				So(x, ShouldBeLessThanOrEqualTo, 5.0)
			}
		})

		Convey("empty data is rejected", func() {
			_, err := NewEmpirical(nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestKernelDensity(t *testing.T) {
	t.Parallel()
	seed := uint64(42)

	Convey("KernelDensity works", t, func() {
		data := make([]float64, 101)
		for i := range data {
			data[i] = float64(i) / 100.0 // uniform-ish on [0, 1]
		}
		d, err := NewKernelDensity(data, 0.0) // Silverman bandwidth
		So(err, ShouldBeNil)
		d.Seed(seed)

		Convey("CDF is monotone with median near the data median", func() {
			So(d.CDF(-10.0), ShouldBeLessThan, 0.01)
			So(d.CDF(10.0), ShouldBeGreaterThan, 0.99)
			So(testutil.RoundFixed(d.CDF(0.5), 1), ShouldEqual, 0.5)
		})

		Convey("Quantile inverts CDF", func() {
			for _, p := range []float64{0.1, 0.5, 0.9} {
				So(testutil.RoundFixed(d.CDF(d.Quantile(p)), 6), ShouldEqual, p)
			}
		})

		Convey("PDF is positive on the support", func() {
			So(d.PDF(0.5), ShouldBeGreaterThan, 0.0)
		})

		Convey("Rand stays within the bracketed support", func() {
			for i := 0; i < 10; i++ {
				x := d.Rand()
				So(x, ShouldBeGreaterThan, d.lo-1.0)
				So(x, ShouldBeLessThan, d.hi+1.0)
			}
		})
	})
}

func TestRatioHistogram(t *testing.T) {
	t.Parallel()
	seed := uint64(42)

	Convey("RatioHistogram works", t, func() {
		// Half zeros, half uniform on (0, 10].
		data := make([]float64, 100)
		for i := 0; i < 50; i++ {
			data[50+i] = 10.0 * float64(i+1) / 50.0
		}
		d, err := NewRatioHistogram(data, 10)
		So(err, ShouldBeNil)
		d.Seed(seed)

		Convey("zero part", func() {
			So(d.CDF(-1.0), ShouldEqual, 0.25) // p0/2
			So(d.CDF(0.0), ShouldEqual, 0.25)
			So(d.Quantile(0.3), ShouldEqual, 0.0)
		})

		Convey("positive part", func() {
			So(d.CDF(10.0), ShouldEqual, 1.0)
			So(testutil.RoundFixed(d.CDF(5.0), 1), ShouldEqual, 0.7) // 0.5 + 0.5*0.45
			q := d.Quantile(0.75)
			So(q, ShouldBeGreaterThan, 4.0)
			So(q, ShouldBeLessThan, 6.0)
		})

		Convey("Rand produces zeros and positives", func() {
			zeros, positives := 0, 0
			for i := 0; i < 100; i++ {
				if x := d.Rand(); x == 0.0 {
					zeros++
				} else {
					positives++
					So(x, ShouldBeLessThanOrEqualTo, 10.0)
				}
			}
			So(zeros, ShouldBeGreaterThan, 20)
			So(positives, ShouldBeGreaterThan, 20)
		})

		Convey("all-zero data is a point mass", func() {
			d, err := NewRatioHistogram([]float64{0, 0, 0}, 5)
			So(err, ShouldBeNil)
			So(d.Quantile(0.9), ShouldEqual, 0.0)
			So(d.CDF(1.0), ShouldEqual, 1.0)
		})
	})
}

func TestMixture(t *testing.T) {
	t.Parallel()
	seed := uint64(42)

	Convey("Mixture works", t, func() {
		m, err := NewMixture([]Distribution{
			NewNormal(-5.0, 1.0),
			NewNormal(5.0, 1.0),
		}, []float64{1.0, 1.0})
		So(err, ShouldBeNil)
		m.Seed(seed)

		Convey("CDF blends the components", func() {
			So(testutil.RoundFixed(m.CDF(0.0), 4), ShouldEqual, 0.5)
			So(testutil.RoundFixed(m.CDF(-5.0), 2), ShouldEqual, 0.25)
			So(testutil.RoundFixed(m.CDF(5.0), 2), ShouldEqual, 0.75)
		})

		Convey("Quantile inverts CDF", func() {
			So(testutil.RoundFixed(m.Quantile(0.5), 4), ShouldEqual, 0.0)
			So(testutil.RoundFixed(m.CDF(m.Quantile(0.3)), 6), ShouldEqual, 0.3)
		})

		Convey("Rand draws from both modes", func() {
			lo, hi := 0, 0
			for i := 0; i < 200; i++ {
				if m.Rand() < 0 {
					lo++
				} else {
					hi++
				}
			}
			So(lo, ShouldBeGreaterThan, 50)
			So(hi, ShouldBeGreaterThan, 50)
		})

		Convey("invalid configurations are rejected", func() {
			_, err := NewMixture(nil, nil)
			So(err, ShouldNotBeNil)
			_, err = NewMixture([]Distribution{NewNormal(0, 1)}, []float64{-1.0})
			So(err, ShouldNotBeNil)
		})
	})
}
