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
	"math"
	"sort"
	"time"

	"github.com/stockparfait/errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// KernelDensity is a Gaussian kernel density estimate of a sample, with
// inverse-transform sampling through the numerically inverted CDF.
type KernelDensity struct {
	data   []float64 // sorted ascending
	h      float64   // bandwidth
	lo, hi float64   // support bracket for CDF inversion
	rand   *rand.Rand
}

var _ Distribution = &KernelDensity{}

// NewKernelDensity fits a Gaussian KDE. A non-positive bandwidth selects
// Silverman's rule, 1.06 * sigma * n^(-1/5).
func NewKernelDensity(data []float64, bandwidth float64) (*KernelDensity, error) {
	if len(data) == 0 {
		return nil, errors.Reason("kernel density requires data")
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	sort.Float64s(cp)
	if bandwidth <= 0 {
		sigma := stat.StdDev(cp, nil)
		bandwidth = 1.06 * sigma * math.Pow(float64(len(cp)), -0.2)
		if !(bandwidth > 0) {
			bandwidth = 1.0 // degenerate constant sample
		}
	}
	return &KernelDensity{
		data: cp,
		h:    bandwidth,
		lo:   cp[0] - 8*bandwidth,
		hi:   cp[len(cp)-1] + 8*bandwidth,
		rand: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}, nil
}

func (d *KernelDensity) Seed(seed uint64) {
	d.rand = rand.New(rand.NewSource(seed))
}

func (d *KernelDensity) Rand() float64 {
	return d.Quantile(d.rand.Float64())
}

// PDF is the kernel density estimate at x.
func (d *KernelDensity) PDF(x float64) float64 {
	sum := 0.0
	for _, xi := range d.data {
		sum += distuv.UnitNormal.Prob((x - xi) / d.h)
	}
	return sum / (d.h * float64(len(d.data)))
}

func (d *KernelDensity) CDF(x float64) float64 {
	sum := 0.0
	for _, xi := range d.data {
		sum += distuv.UnitNormal.CDF((x - xi) / d.h)
	}
	return sum / float64(len(d.data))
}

// Quantile inverts the CDF by bisection over the bracketed support.
func (d *KernelDensity) Quantile(p float64) float64 {
	if p <= 0 {
		return d.lo
	}
	if p >= 1 {
		return d.hi
	}
	return quantileBisect(d.CDF, p, d.lo, d.hi)
}
