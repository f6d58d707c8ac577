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
	"gonum.org/v1/gonum/stat"

	"github.com/ahisi/SBCK/dist"
)

// CDFt is the univariate quantile-mapping corrector of Michelangeli et al.
// (2009), applied independently per feature. In its stationary form (Fit)
// the correction is plain empirical quantile mapping Z = QY0(FX0(x)). With a
// projection-period dataset (FitProjection) the biased datasets are first
// recentered into the reference frame by the per-feature calibration mean
// bias, then the reference CDF is transferred to the projection period under
// the CDF-t assumption FY1 = FY0 o QX0 o FX1, giving
// Z1 = QX1'(FX0'(QY0(FX1'(x + delta)))) with delta = mean(Y0) - mean(X0) and
// the primed CDFs fitted on the recentered datasets.
type CDFt struct {
	fY0   []*dist.Empirical // per feature
	fX0   []*dist.Empirical // recentered in the projection form
	fX1   []*dist.Empirical // nil in the stationary form
	delta []float64         // per-feature mean(Y0) - mean(X0)

	fitted bool
}

var _ Corrector = &CDFt{}

// NewCDFt creates an unfitted CDFt corrector.
func NewCDFt() *CDFt {
	return &CDFt{}
}

// empiricalColumns fits one empirical distribution per column of x.
func empiricalColumns(x mat.Matrix) ([]*dist.Empirical, error) {
	nRows, nFeatures := x.Dims()
	out := make([]*dist.Empirical, nFeatures)
	col := make([]float64, nRows)
	for d := 0; d < nFeatures; d++ {
		mat.Col(col, d, x)
		e, err := dist.NewEmpirical(col)
		if err != nil {
			return nil, errors.Annotate(err, "failed to fit feature %d", d)
		}
		out[d] = e
	}
	return out, nil
}

// Fit estimates the stationary (calibration-period) quantile mapping.
func (c *CDFt) Fit(ctx context.Context, refY0, biasedX0 mat.Matrix) error {
	return c.FitProjection(ctx, refY0, biasedX0, nil)
}

// FitProjection additionally takes the biased dataset of the projection
// period, X1; a nil X1 degrades to the stationary form.
func (c *CDFt) FitProjection(ctx context.Context, refY0, biasedX0, biasedX1 mat.Matrix) error {
	c.fitted = false
	nFeatures, err := checkShapes(refY0, biasedX0)
	if err != nil {
		return errors.Annotate(err, "invalid fit datasets")
	}
	if c.fY0, err = empiricalColumns(refY0); err != nil {
		return errors.Annotate(err, "failed to fit reference CDFs")
	}
	c.fX1 = nil
	c.delta = nil
	if biasedX1 == nil {
		if c.fX0, err = empiricalColumns(biasedX0); err != nil {
			return errors.Annotate(err, "failed to fit biased CDFs")
		}
		c.fitted = true
		return nil
	}
	if _, c1 := biasedX1.Dims(); c1 != nFeatures {
		return errors.Reason("projection dataset has %d features, expected %d",
			c1, nFeatures)
	}
	c.delta = meanBias(refY0, biasedX0)
	if c.fX0, err = empiricalColumns(recenter(biasedX0, c.delta)); err != nil {
		return errors.Annotate(err, "failed to fit biased CDFs")
	}
	if c.fX1, err = empiricalColumns(recenter(biasedX1, c.delta)); err != nil {
		return errors.Annotate(err, "failed to fit projection CDFs")
	}
	c.fitted = true
	return nil
}

// meanBias computes the per-feature mean difference mean(y) - mean(x).
func meanBias(y, x mat.Matrix) []float64 {
	nY, nFeatures := y.Dims()
	nX, _ := x.Dims()
	delta := make([]float64, nFeatures)
	colY := make([]float64, nY)
	colX := make([]float64, nX)
	for d := 0; d < nFeatures; d++ {
		mat.Col(colY, d, y)
		mat.Col(colX, d, x)
		delta[d] = stat.Mean(colY, nil) - stat.Mean(colX, nil)
	}
	return delta
}

// recenter shifts every column of x by the per-feature delta.
func recenter(x mat.Matrix, delta []float64) *mat.Dense {
	nRows, nFeatures := x.Dims()
	out := mat.NewDense(nRows, nFeatures, nil)
	for i := 0; i < nRows; i++ {
		for d := 0; d < nFeatures; d++ {
			out.Set(i, d, x.At(i, d)+delta[d])
		}
	}
	return out
}

// Predict applies the per-feature quantile mapping to every element of x.
func (c *CDFt) Predict(x mat.Matrix) (*mat.Dense, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}
	nRows, nFeatures := x.Dims()
	if nFeatures != len(c.fY0) {
		return nil, errors.Reason("query has %d features, corrector has %d",
			nFeatures, len(c.fY0))
	}
	z := mat.NewDense(nRows, nFeatures, nil)
	for d := 0; d < nFeatures; d++ {
		for i := 0; i < nRows; i++ {
			z.Set(i, d, c.correct(d, x.At(i, d)))
		}
	}
	return z, nil
}

func (c *CDFt) correct(d int, x float64) float64 {
	if c.fX1 == nil {
		return c.fY0[d].Quantile(c.fX0[d].CDF(x))
	}
	p := c.fX1[d].CDF(x + c.delta[d])
	return c.fX1[d].Quantile(c.fX0[d].CDF(c.fY0[d].Quantile(p)))
}
