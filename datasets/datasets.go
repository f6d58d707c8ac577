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

// Package datasets generates synthetic (reference, biased) dataset pairs for
// bias correction experiments and tests. Every generator returns row-major
// sample matrices (one sample per row, one feature per column) and accepts an
// explicit seed for reproducibility.
package datasets

import (
	"github.com/stockparfait/errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/ahisi/SBCK/dist"
)

// column fills column d of m with n draws from the distribution.
func column(m *mat.Dense, d int, src dist.Distribution) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, d, src.Rand())
	}
}

// seeded returns the distribution reseeded with a generator-specific offset,
// so that different columns of one dataset never share a stream.
func seeded(d dist.Distribution, seed, offset uint64) dist.Distribution {
	d.Seed(seed + offset)
	return d
}

// GaussianExpMixture1D draws the reference from a Gaussian-exponential
// mixture and the biased dataset from a pure Gaussian. The mixture gives the
// reference a heavy right tail that the biased model misses entirely.
func GaussianExpMixture1D(n int, seed uint64) (refY0, biasedX0 *mat.Dense, err error) {
	if n < 1 {
		return nil, nil, errors.Reason("invalid sample count %d", n)
	}
	mix, err := dist.NewMixture([]dist.Distribution{
		dist.NewNormal(0.0, 1.0),
		dist.NewExponential(0.5),
	}, []float64{0.7, 0.3})
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to build reference mixture")
	}
	refY0 = mat.NewDense(n, 1, nil)
	biasedX0 = mat.NewDense(n, 1, nil)
	column(refY0, 0, seeded(mix, seed, 1))
	column(biasedX0, 0, seeded(dist.NewNormal(3.0, 2.0), seed, 2))
	return refY0, biasedX0, nil
}

// GaussianVSExp1D draws a Gaussian reference against an exponential biased
// dataset, the classic asymmetric-versus-symmetric correction case.
func GaussianVSExp1D(n int, seed uint64) (refY0, biasedX0 *mat.Dense, err error) {
	if n < 1 {
		return nil, nil, errors.Reason("invalid sample count %d", n)
	}
	refY0 = mat.NewDense(n, 1, nil)
	biasedX0 = mat.NewDense(n, 1, nil)
	column(refY0, 0, seeded(dist.NewNormal(5.0, 1.0), seed, 1))
	column(biasedX0, 0, seeded(dist.NewExponential(1.0), seed, 2))
	return refY0, biasedX0, nil
}

// GaussianExp2D builds a 2-D pair where the reference and biased datasets
// swap the marginal families between features: the reference is (Gaussian,
// exponential) while the biased dataset is (exponential, Gaussian).
func GaussianExp2D(n int, seed uint64) (refY0, biasedX0 *mat.Dense, err error) {
	if n < 1 {
		return nil, nil, errors.Reason("invalid sample count %d", n)
	}
	refY0 = mat.NewDense(n, 2, nil)
	biasedX0 = mat.NewDense(n, 2, nil)
	column(refY0, 0, seeded(dist.NewNormal(5.0, 1.0), seed, 1))
	column(refY0, 1, seeded(dist.NewExponential(1.0), seed, 2))
	column(biasedX0, 0, seeded(dist.NewExponential(1.0), seed, 3))
	column(biasedX0, 1, seeded(dist.NewNormal(5.0, 1.0), seed, 4))
	return refY0, biasedX0, nil
}

// GaussianL2D builds an L-shaped reference (two perpendicular Gaussian arms)
// against a single round Gaussian blob, a dependence structure no univariate
// method can recover.
func GaussianL2D(n int, seed uint64) (refY0, biasedX0 *mat.Dense, err error) {
	if n < 1 {
		return nil, nil, errors.Reason("invalid sample count %d", n)
	}
	rng := rand.New(rand.NewSource(seed))
	refY0 = mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		if i < n/2 { // vertical arm
			refY0.Set(i, 0, 0.3*rng.NormFloat64())
			refY0.Set(i, 1, 4.0*rng.Float64())
		} else { // horizontal arm
			refY0.Set(i, 0, 4.0*rng.Float64())
			refY0.Set(i, 1, 0.3*rng.NormFloat64())
		}
	}
	biasedX0 = mat.NewDense(n, 2, nil)
	column(biasedX0, 0, seeded(dist.NewNormal(8.0, 1.0), seed, 1))
	column(biasedX0, 1, seeded(dist.NewNormal(8.0, 1.0), seed, 2))
	return refY0, biasedX0, nil
}

// BimodalReverse2D builds two 2-D Gaussian modes with the mode weights
// reversed between the reference (0.7/0.3) and the biased dataset (0.3/0.7),
// so a correction must move mass between modes rather than within them.
func BimodalReverse2D(n int, seed uint64) (refY0, biasedX0 *mat.Dense, err error) {
	if n < 1 {
		return nil, nil, errors.Reason("invalid sample count %d", n)
	}
	modes := func(wLow float64, seed uint64) (*mat.Dense, error) {
		low, err := mode2D([]float64{-3.0, -3.0}, seed)
		if err != nil {
			return nil, err
		}
		high, err := mode2D([]float64{3.0, 3.0}, seed+1)
		if err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewSource(seed + 2))
		out := mat.NewDense(n, 2, nil)
		row := make([]float64, 2)
		for i := 0; i < n; i++ {
			if rng.Float64() < wLow {
				low.Rand(row)
			} else {
				high.Rand(row)
			}
			out.SetRow(i, row)
		}
		return out, nil
	}
	if refY0, err = modes(0.7, seed); err != nil {
		return nil, nil, errors.Annotate(err, "failed to draw reference modes")
	}
	if biasedX0, err = modes(0.3, seed+100); err != nil {
		return nil, nil, errors.Annotate(err, "failed to draw biased modes")
	}
	return refY0, biasedX0, nil
}

// mode2D creates a correlated 2-D Gaussian centered at mu.
func mode2D(mu []float64, seed uint64) (*distmv.Normal, error) {
	sigma := mat.NewSymDense(2, []float64{
		1.0, 0.5,
		0.5, 1.0,
	})
	d, ok := distmv.NewNormal(mu, sigma, rand.NewSource(seed))
	if !ok {
		return nil, errors.Reason("mode covariance is not positive definite")
	}
	return d, nil
}

// GaussianDD builds a dim-dimensional pair of correlated Gaussians with
// different randomly generated covariances, the reference centered at the
// origin and the biased dataset shifted by +5 in every feature.
func GaussianDD(n, dim int, seed uint64) (refY0, biasedX0 *mat.Dense, err error) {
	if n < 1 || dim < 1 {
		return nil, nil, errors.Reason("invalid shape %dx%d", n, dim)
	}
	draw := func(shift float64, seed uint64) (*mat.Dense, error) {
		mu := make([]float64, dim)
		for d := range mu {
			mu[d] = shift
		}
		d, ok := distmv.NewNormal(mu, randomCovariance(dim, seed), rand.NewSource(seed))
		if !ok {
			return nil, errors.Reason("generated covariance is not positive definite")
		}
		out := mat.NewDense(n, dim, nil)
		row := make([]float64, dim)
		for i := 0; i < n; i++ {
			d.Rand(row)
			out.SetRow(i, row)
		}
		return out, nil
	}
	if refY0, err = draw(0.0, seed); err != nil {
		return nil, nil, errors.Annotate(err, "failed to draw reference")
	}
	if biasedX0, err = draw(5.0, seed+1); err != nil {
		return nil, nil, errors.Annotate(err, "failed to draw biased dataset")
	}
	return refY0, biasedX0, nil
}

// randomCovariance generates a random SPD matrix A*A' + dim*I.
func randomCovariance(dim int, seed uint64) *mat.SymDense {
	rng := rand.New(rand.NewSource(seed))
	a := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	var aat mat.Dense
	aat.Mul(a, a.T())
	sigma := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			v := aat.At(i, j)
			if i == j {
				v += float64(dim)
			}
			sigma.SetSym(i, j, v)
		}
	}
	return sigma
}
