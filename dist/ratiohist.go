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
	"time"

	"github.com/stockparfait/errors"

	"golang.org/x/exp/rand"
)

// RatioHistogram models a non-negative variable with an atom at zero (e.g.
// precipitation): a point mass p0 for the zero part and an equidistant
// histogram over the positive part. Quantile(p) returns 0 for p <= p0 and
// interpolates linearly inside histogram bins above it.
type RatioHistogram struct {
	p0     float64   // probability of the zero part
	bounds []float64 // nBins+1 bin boundaries over the positive part
	cum    []float64 // cumulative bin frequencies of the positive part
	rand   *rand.Rand
}

var _ Distribution = &RatioHistogram{}

// NewRatioHistogram fits the mixed distribution from data with the given
// number of histogram bins over the strictly positive samples.
func NewRatioHistogram(data []float64, nBins int) (*RatioHistogram, error) {
	if len(data) == 0 {
		return nil, errors.Reason("ratio histogram requires data")
	}
	if nBins <= 0 {
		return nil, errors.Reason("nBins=%d must be positive", nBins)
	}
	var pos []float64
	for _, x := range data {
		if x > 0 {
			pos = append(pos, x)
		}
	}
	d := &RatioHistogram{
		p0:   float64(len(data)-len(pos)) / float64(len(data)),
		rand: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	if len(pos) == 0 {
		return d, nil // pure point mass at zero
	}
	lo, hi := pos[0], pos[0]
	for _, x := range pos {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi == lo {
		hi = lo + 1e-12 + lo*1e-12
	}
	d.bounds = make([]float64, nBins+1)
	for i := range d.bounds {
		d.bounds[i] = lo + (hi-lo)*float64(i)/float64(nBins)
	}
	counts := make([]int, nBins)
	for _, x := range pos {
		i := int(float64(nBins) * (x - lo) / (hi - lo))
		if i >= nBins {
			i = nBins - 1
		}
		counts[i]++
	}
	d.cum = make([]float64, nBins)
	acc := 0.0
	for i, c := range counts {
		acc += float64(c) / float64(len(pos))
		d.cum[i] = acc
	}
	d.cum[nBins-1] = 1.0
	return d, nil
}

func (d *RatioHistogram) Seed(seed uint64) {
	d.rand = rand.New(rand.NewSource(seed))
}

func (d *RatioHistogram) Rand() float64 {
	return d.Quantile(d.rand.Float64())
}

// CDF follows the convention of the reference implementation: the zero part
// contributes p0/2 at x <= 0 and shifts the positive part by p0.
func (d *RatioHistogram) CDF(x float64) float64 {
	if x <= 0 {
		return d.p0 / 2.0
	}
	return d.p0 + (1.0-d.p0)*d.posCDF(x)
}

func (d *RatioHistogram) posCDF(x float64) float64 {
	if d.bounds == nil || x <= d.bounds[0] {
		return 0.0
	}
	n := len(d.cum)
	if x >= d.bounds[n] {
		return 1.0
	}
	i := int(float64(n) * (x - d.bounds[0]) / (d.bounds[n] - d.bounds[0]))
	if i >= n {
		i = n - 1
	}
	prev := 0.0
	if i > 0 {
		prev = d.cum[i-1]
	}
	frac := (x - d.bounds[i]) / (d.bounds[i+1] - d.bounds[i])
	return prev + (d.cum[i]-prev)*frac
}

func (d *RatioHistogram) Quantile(p float64) float64 {
	if p <= d.p0 || d.bounds == nil {
		return 0.0
	}
	q := (p - d.p0) / (1.0 - d.p0)
	if q >= 1.0 {
		return d.bounds[len(d.bounds)-1]
	}
	// Linear interpolation inside the first bin whose cumulative reaches q.
	i := 0
	for i < len(d.cum)-1 && d.cum[i] < q {
		i++
	}
	prev := 0.0
	if i > 0 {
		prev = d.cum[i-1]
	}
	if d.cum[i] == prev {
		return d.bounds[i]
	}
	frac := (q - prev) / (d.cum[i] - prev)
	return d.bounds[i] + frac*(d.bounds[i+1]-d.bounds[i])
}
