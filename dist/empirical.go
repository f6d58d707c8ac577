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
)

// Empirical is the empirical distribution of a sample: CDF by binary search
// over the sorted data, Quantile as the order statistic, Rand by resampling.
type Empirical struct {
	data []float64 // sorted ascending
	rand *rand.Rand
}

var _ Distribution = &Empirical{}

// NewEmpirical fits an empirical distribution; the input is copied and
// sorted.
func NewEmpirical(data []float64) (*Empirical, error) {
	if len(data) == 0 {
		return nil, errors.Reason("empirical distribution requires data")
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	sort.Float64s(cp)
	return &Empirical{
		data: cp,
		rand: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}, nil
}

func (d *Empirical) Seed(seed uint64) {
	d.rand = rand.New(rand.NewSource(seed))
}

func (d *Empirical) Rand() float64 {
	return d.data[d.rand.Intn(len(d.data))]
}

// CDF is the fraction of samples <= x.
func (d *Empirical) CDF(x float64) float64 {
	idx := sort.Search(len(d.data), func(i int) bool { return d.data[i] > x })
	return float64(idx) / float64(len(d.data))
}

// Quantile is the order statistic at probability p, clamped to the sample
// range.
func (d *Empirical) Quantile(p float64) float64 {
	i := int(math.Floor(p * float64(len(d.data))))
	if i >= len(d.data) {
		i = len(d.data) - 1
	}
	if i < 0 {
		i = 0
	}
	return d.data[i]
}
