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

	"github.com/stockparfait/errors"

	"gonum.org/v1/gonum/mat"
)

// ECBC is the Empirical Copula Bias Correction of Vrac & Friederichs (2015):
// per-feature CDFt quantile mapping followed by a Schaake shuffle against the
// reference dataset, which restores the reference copula after the univariate
// corrections.
type ECBC struct {
	*CDFt
	shuffle *SchaakeShuffle
}

var _ Corrector = &ECBC{}

// NewECBC creates an unfitted ECBC corrector.
func NewECBC() *ECBC {
	return &ECBC{
		CDFt:    NewCDFt(),
		shuffle: NewSchaakeShuffle(),
	}
}

// Seed the random source of the shuffle stage. Mostly used in tests.
func (c *ECBC) Seed(seed uint64) { c.shuffle.Seed(seed) }

// Fit estimates the stationary correction.
func (c *ECBC) Fit(ctx context.Context, refY0, biasedX0 mat.Matrix) error {
	return c.FitProjection(ctx, refY0, biasedX0, nil)
}

// FitProjection estimates the projection-period correction.
func (c *ECBC) FitProjection(ctx context.Context, refY0, biasedX0, biasedX1 mat.Matrix) error {
	if err := c.CDFt.FitProjection(ctx, refY0, biasedX0, biasedX1); err != nil {
		return errors.Annotate(err, "failed to fit quantile mapping")
	}
	if err := c.shuffle.Fit(refY0); err != nil {
		return errors.Annotate(err, "failed to fit shuffle")
	}
	return nil
}

// Predict applies the quantile mapping, then the Schaake shuffle.
func (c *ECBC) Predict(x mat.Matrix) (*mat.Dense, error) {
	z, err := c.CDFt.Predict(x)
	if err != nil {
		return nil, errors.Annotate(err, "quantile mapping failed")
	}
	return c.shuffle.Predict(z)
}
