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

// Package bc implements multivariate statistical bias correction methods.
// All correctors share the fit / predict contract: Fit estimates the
// correction from a reference dataset Y0 and a biased dataset X0 (both
// n_samples x n_features matrices), Predict remaps further biased samples
// onto the reference distribution.
package bc

import (
	"context"

	"github.com/stockparfait/errors"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned by Predict when Fit has not completed
// successfully.
var ErrNotFitted = errors.Reason("corrector is not fitted")

// Corrector is the common contract of bias correction methods.
type Corrector interface {
	Fit(ctx context.Context, refY0, biasedX0 mat.Matrix) error
	Predict(x mat.Matrix) (*mat.Dense, error)
}

// checkShapes validates that the two fit-time matrices are non-empty and
// share a feature count.
func checkShapes(y0, x0 mat.Matrix) (nFeatures int, err error) {
	ry, cy := y0.Dims()
	rx, cx := x0.Dims()
	if ry == 0 || rx == 0 {
		return 0, errors.Reason("datasets must have at least one row")
	}
	if cy != cx {
		return 0, errors.Reason(
			"reference has %d features, biased dataset has %d", cy, cx)
	}
	return cy, nil
}
