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

// Command sbck-demo runs a bias correction method on a synthetic dataset and
// reports how much of the bias it removed, measured by the Wasserstein and
// energy distances to the reference before and after correction. Repeated
// trials redraw the datasets with per-trial seeds and run in parallel.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ahisi/SBCK/bc"
	"github.com/ahisi/SBCK/datasets"
	"github.com/ahisi/SBCK/metrics"
	"github.com/ahisi/SBCK/ot"
	"github.com/ahisi/SBCK/stats"
)

type Flags struct {
	Config   string // optional TOML experiment config
	CSV      bool   // print the report as CSV; default: text
	LogLevel logging.Level
	Experiment
}

// Experiment configures a single evaluation run. It is settable both from
// flags and from a TOML config file; config values override flags.
type Experiment struct {
	Dataset  string  `toml:"dataset"`
	Method   string  `toml:"method"`
	Samples  int     `toml:"samples"`
	Dim      int     `toml:"dim"` // gaussian-dd only
	Trials   int     `toml:"trials"`
	Seed     uint64  `toml:"seed"` // 0: derived from the current time
	Solver   string  `toml:"solver"`
	Eps      float64 `toml:"eps"`       // entropic regularization strength
	BinWidth float64 `toml:"bin_width"` // 0: estimated from the data
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("sbck-demo", flag.ExitOnError)
	fs.StringVar(&flags.Config, "config", "", "optional TOML experiment config")
	fs.BoolVar(&flags.CSV, "csv", false, "print the report as CSV; default: text")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.Dataset, "dataset", "gaussian-exp-2d",
		"dataset: gaussian-exp-mixture-1d, gaussian-vs-exp-1d, gaussian-exp-2d, "+
			"gaussian-l-2d, bimodal-reverse-2d, gaussian-dd")
	fs.StringVar(&flags.Method, "method", "otc", "correction method: otc, cdft, ecbc")
	fs.IntVar(&flags.Samples, "samples", 2000, "samples per dataset")
	fs.IntVar(&flags.Dim, "dim", 3, "dimension for the gaussian-dd dataset")
	fs.IntVar(&flags.Trials, "trials", 1, "independent evaluation trials")
	fs.Uint64Var(&flags.Seed, "seed", 0, "random seed; 0 derives it from the time")
	fs.StringVar(&flags.Solver, "solver", "network",
		"transport solver for otc: network, sinkhorn")
	fs.Float64Var(&flags.Eps, "eps", 0.0,
		"entropic regularization strength; 0 = solver default")
	fs.Float64Var(&flags.BinWidth, "bin-width", 0.0,
		"bin width shared by all features; 0 estimates it from the data")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.Config != "" {
		if err := parseConfig(flags.Config, &flags.Experiment); err != nil {
			return nil, errors.Annotate(err, "failed to parse config")
		}
	}
	if flags.Samples < 1 {
		return nil, errors.Reason("-samples must be positive, got %d", flags.Samples)
	}
	if flags.Trials < 1 {
		return nil, errors.Reason("-trials must be positive, got %d", flags.Trials)
	}
	if flags.Seed == 0 {
		flags.Seed = uint64(time.Now().UnixNano())
	}
	return &flags, nil
}

func parseConfig(filePath string, e *Experiment) error {
	f, err := os.Open(filePath)
	if err != nil {
		return errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	if err := d.Decode(e); err != nil {
		return errors.Annotate(err, "failed to read config file %s", filePath)
	}
	return nil
}

// generate draws one (reference, biased) dataset pair for the experiment.
func generate(e *Experiment, seed uint64) (*mat.Dense, *mat.Dense, error) {
	switch e.Dataset {
	case "gaussian-exp-mixture-1d":
		return datasets.GaussianExpMixture1D(e.Samples, seed)
	case "gaussian-vs-exp-1d":
		return datasets.GaussianVSExp1D(e.Samples, seed)
	case "gaussian-exp-2d":
		return datasets.GaussianExp2D(e.Samples, seed)
	case "gaussian-l-2d":
		return datasets.GaussianL2D(e.Samples, seed)
	case "bimodal-reverse-2d":
		return datasets.BimodalReverse2D(e.Samples, seed)
	case "gaussian-dd":
		return datasets.GaussianDD(e.Samples, e.Dim, seed)
	}
	return nil, nil, errors.Reason("unknown dataset %q", e.Dataset)
}

// corrector instantiates the configured correction method, seeded.
func corrector(e *Experiment, seed uint64) (bc.Corrector, error) {
	var binWidth []float64
	var c bc.Corrector
	switch e.Method {
	case "otc":
		var solver ot.Solver
		switch e.Solver {
		case "network", "":
			solver = &ot.NetworkFlow{}
		case "sinkhorn":
			solver = &ot.SinkhornLogDual{Eps: e.Eps}
		default:
			return nil, errors.Reason("unknown solver %q", e.Solver)
		}
		if e.BinWidth > 0 {
			dim := 1
			switch e.Dataset {
			case "gaussian-exp-2d", "gaussian-l-2d", "bimodal-reverse-2d":
				dim = 2
			case "gaussian-dd":
				dim = e.Dim
			}
			binWidth = make([]float64, dim)
			for d := range binWidth {
				binWidth[d] = e.BinWidth
			}
		}
		c = bc.NewOTC(binWidth, nil, solver)
	case "cdft":
		c = bc.NewCDFt()
	case "ecbc":
		c = bc.NewECBC()
	default:
		return nil, errors.Reason("unknown method %q", e.Method)
	}
	if s, ok := c.(interface{ Seed(uint64) }); ok {
		s.Seed(seed)
	}
	return c, nil
}

// trialResult holds the per-trial discrepancies to the reference dataset,
// before and after correction.
type trialResult struct {
	trial           int
	wBefore, wAfter float64
	eBefore, eAfter float64
	err             error
}

// runTrial draws a fresh dataset pair, fits and applies the corrector, and
// measures the remaining bias.
func runTrial(ctx context.Context, e *Experiment, trial int, seed uint64) trialResult {
	res := trialResult{trial: trial}
	fail := func(err error, format string, args ...interface{}) trialResult {
		res.err = errors.Annotate(err, format, args...)
		return res
	}
	y0, x0, err := generate(e, seed)
	if err != nil {
		return fail(err, "failed to generate dataset")
	}
	c, err := corrector(e, seed+1)
	if err != nil {
		return fail(err, "failed to create corrector")
	}
	if err := c.Fit(ctx, y0, x0); err != nil {
		return fail(err, "failed to fit corrector")
	}
	z, err := c.Predict(x0)
	if err != nil {
		return fail(err, "failed to predict")
	}
	binWidth, err := stats.BinWidthEstimator([]mat.Matrix{y0, x0})
	if err != nil {
		return fail(err, "failed to estimate metric bin width")
	}
	hist := func(m mat.Matrix) (*stats.SparseHist, error) {
		return stats.NewSparseHist(m, binWidth, nil)
	}
	hY, err := hist(y0)
	if err != nil {
		return fail(err, "failed to bin the reference")
	}
	hX, err := hist(x0)
	if err != nil {
		return fail(err, "failed to bin the biased dataset")
	}
	hZ, err := hist(z)
	if err != nil {
		return fail(err, "failed to bin the corrected dataset")
	}
	if res.wBefore, err = metrics.Wasserstein(ctx, hX, hY, nil); err != nil {
		return fail(err, "failed to measure the uncorrected coupling")
	}
	if res.wAfter, err = metrics.Wasserstein(ctx, hZ, hY, nil); err != nil {
		return fail(err, "failed to measure the corrected coupling")
	}
	if res.eBefore, err = metrics.Energy(x0, y0); err != nil {
		return fail(err, "failed to measure the uncorrected energy distance")
	}
	if res.eAfter, err = metrics.Energy(z, y0); err != nil {
		return fail(err, "failed to measure the corrected energy distance")
	}
	return res
}

// run executes all trials in parallel and writes the report to w.
func run(ctx context.Context, flags *Flags, w io.Writer) error {
	e := &flags.Experiment
	trials := make([]int, e.Trials)
	for i := range trials {
		trials[i] = i
	}
	f := func(trial int) trialResult {
		return runTrial(ctx, e, trial, flags.Seed+uint64(trial))
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(trials), f)
	defer pm.Close()

	results := iterator.Reduce[trialResult, []trialResult](pm, []trialResult{},
		func(r trialResult, rs []trialResult) []trialResult {
			return append(rs, r)
		})
	sort.Slice(results, func(i, j int) bool { return results[i].trial < results[j].trial })

	report := NewReport("trial", "W2 before", "W2 after", "energy before", "energy after")
	var wB, wA, eB, eA []float64
	for _, r := range results {
		if r.err != nil {
			return errors.Annotate(r.err, "trial %d failed", r.trial)
		}
		wB = append(wB, r.wBefore)
		wA = append(wA, r.wAfter)
		eB = append(eB, r.eBefore)
		eA = append(eA, r.eAfter)
		if err := report.AddRow(fmt.Sprintf("%d", r.trial),
			fmt.Sprintf("%.4f", r.wBefore), fmt.Sprintf("%.4f", r.wAfter),
			fmt.Sprintf("%.4f", r.eBefore), fmt.Sprintf("%.4f", r.eAfter)); err != nil {
			return errors.Annotate(err, "failed to add trial row")
		}
	}
	if len(results) > 1 {
		if err := report.AddRow("mean",
			fmt.Sprintf("%.4f", stat.Mean(wB, nil)),
			fmt.Sprintf("%.4f", stat.Mean(wA, nil)),
			fmt.Sprintf("%.4f", stat.Mean(eB, nil)),
			fmt.Sprintf("%.4f", stat.Mean(eA, nil))); err != nil {
			return errors.Annotate(err, "failed to add mean row")
		}
	}
	logging.Infof(ctx, "%s on %s: %d trial(s), %d samples each",
		e.Method, e.Dataset, e.Trials, e.Samples)
	if flags.CSV {
		return report.WriteCSV(w)
	}
	return report.WriteText(w)
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
