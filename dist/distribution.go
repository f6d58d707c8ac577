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

// Package dist provides univariate distributions fitted from data, used to
// build sampling datasets for bias correction experiments. All types support
// inverse-transform sampling through Quantile, with a per-instance random
// source injectable via Seed for deterministic tests.
package dist

// Distribution is the common API of fitted univariate distributions.
type Distribution interface {
	Rand() float64
	Quantile(p float64) float64
	CDF(x float64) float64
	// Set the random seed. Mostly used in tests.
	Seed(uint64)
}

// quantileBisect inverts a monotone CDF by bisection on [lo, hi].
func quantileBisect(cdf func(float64) float64, p, lo, hi float64) float64 {
	for i := 0; i < 100; i++ {
		mid := 0.5 * (lo + hi)
		if cdf(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}
