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

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Normal distribution, a thin wrapper around distuv.Normal conforming to
// Distribution. Useful as a mixture component or a dataset generator brick.
type Normal struct {
	distuv.Normal
}

var _ Distribution = &Normal{}

// NewNormal creates a normal distribution with the given mean and standard
// deviation.
func NewNormal(mu, sigma float64) *Normal {
	return &Normal{distuv.Normal{
		Mu:    mu,
		Sigma: sigma,
		Src:   rand.NewSource(uint64(time.Now().UnixNano())),
	}}
}

func (d *Normal) Seed(seed uint64) {
	d.Normal.Src = rand.NewSource(seed)
}

// Exponential distribution wrapper around distuv.Exponential.
type Exponential struct {
	distuv.Exponential
}

var _ Distribution = &Exponential{}

// NewExponential creates an exponential distribution with the given rate.
func NewExponential(rate float64) *Exponential {
	return &Exponential{distuv.Exponential{
		Rate: rate,
		Src:  rand.NewSource(uint64(time.Now().UnixNano())),
	}}
}

func (d *Exponential) Seed(seed uint64) {
	d.Exponential.Src = rand.NewSource(seed)
}
