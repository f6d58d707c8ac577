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

// Mixture is a finite weighted mixture of Distributions. CDF is the weighted
// sum of component CDFs; Quantile inverts it by bisection; Rand draws a
// component by weight and samples it.
type Mixture struct {
	comps   []Distribution
	weights []float64 // normalized to sum to 1
	cum     []float64
	rand    *rand.Rand
}

var _ Distribution = &Mixture{}

// NewMixture creates a mixture from components and non-negative weights; nil
// weights are uniform. Weights are normalized internally.
func NewMixture(comps []Distribution, weights []float64) (*Mixture, error) {
	if len(comps) == 0 {
		return nil, errors.Reason("mixture requires at least one component")
	}
	if weights == nil {
		weights = make([]float64, len(comps))
		for i := range weights {
			weights[i] = 1.0
		}
	}
	if len(weights) != len(comps) {
		return nil, errors.Reason("%d weights for %d components",
			len(weights), len(comps))
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, errors.Reason("negative weight %g", w)
		}
		sum += w
	}
	if sum <= 0 {
		return nil, errors.Reason("weights must not all be zero")
	}
	m := &Mixture{
		comps:   comps,
		weights: make([]float64, len(weights)),
		cum:     make([]float64, len(weights)),
		rand:    rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	acc := 0.0
	for i, w := range weights {
		m.weights[i] = w / sum
		acc += w / sum
		m.cum[i] = acc
	}
	m.cum[len(m.cum)-1] = 1.0
	return m, nil
}

// Seed reseeds the mixture and all its components.
func (m *Mixture) Seed(seed uint64) {
	m.rand = rand.New(rand.NewSource(seed))
	for i, c := range m.comps {
		c.Seed(seed + uint64(i) + 1)
	}
}

func (m *Mixture) Rand() float64 {
	u := m.rand.Float64()
	for i, c := range m.cum {
		if u < c {
			return m.comps[i].Rand()
		}
	}
	return m.comps[len(m.comps)-1].Rand()
}

func (m *Mixture) CDF(x float64) float64 {
	sum := 0.0
	for i, c := range m.comps {
		sum += m.weights[i] * c.CDF(x)
	}
	return sum
}

func (m *Mixture) Quantile(p float64) float64 {
	lo, hi := m.comps[0].Quantile(1e-9), m.comps[0].Quantile(1-1e-9)
	for _, c := range m.comps[1:] {
		if l := c.Quantile(1e-9); l < lo {
			lo = l
		}
		if h := c.Quantile(1 - 1e-9); h > hi {
			hi = h
		}
	}
	if p <= 0 {
		return lo
	}
	if p >= 1 {
		return hi
	}
	return quantileBisect(m.CDF, p, lo, hi)
}
