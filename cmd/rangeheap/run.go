package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/rangeheap/pkg/clash"
	"github.com/chazu/rangeheap/pkg/engine"
	"github.com/chazu/rangeheap/pkg/kernel/sdfx"
	"github.com/chazu/rangeheap/pkg/logx"
	"github.com/chazu/rangeheap/pkg/scene"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/toolkits/pkg/logger"
)

type runOptions struct {
	ScenePath string
	JSON      bool
	// Pair is "a,b" or empty.
	Pair string
}

// Report is the result of one run.
type Report struct {
	RunID    string          `json:"runId"`
	Scene    string          `json:"scene"`
	Parts    int             `json:"parts"`
	Facets   int             `json:"facets"`
	Clashes  []clash.Pair    `json:"clashes"`
	Approach *clash.Approach `json:"approach,omitempty"`
	Elapsed  string          `json:"elapsed"`
}

func initLog(cfg *Config) (func(), error) {
	return logx.Init(cfg.Log)
}

func run(cfg *Config, opts runOptions, stdout, stderr io.Writer) error {
	start := time.Now()
	report := Report{RunID: uuid.New().String(), Scene: opts.ScenePath}

	var pairA, pairB string
	if opts.Pair != "" {
		a, b, ok := strings.Cut(opts.Pair, ",")
		if !ok || a == "" || b == "" {
			return errors.Errorf("-pair wants two part names separated by a comma, got %q", opts.Pair)
		}
		pairA, pairB = strings.TrimSpace(a), strings.TrimSpace(b)
	}

	sc, err := loadScene(opts.ScenePath, time.Duration(cfg.EvalTimeout)*time.Millisecond)
	if err != nil {
		return err
	}

	parts, err := sc.Build(sdfx.NewWithCells(cfg.MeshCells))
	if err != nil {
		return err
	}
	report.Parts = len(parts)
	for _, p := range parts {
		report.Facets += p.Mesh.TriangleCount()
	}
	logger.Infof("run %s: %d parts, %d facets", report.RunID, report.Parts, report.Facets)

	var reg *prometheus.Registry
	var metrics *clash.Metrics
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		metrics = clash.NewMetrics(reg)
	}
	det := clash.NewDetector(cfg.DetectorOptions(), metrics)

	if report.Clashes, err = det.Detect(parts); err != nil {
		return err
	}

	if opts.Pair != "" {
		a, okA := findPart(parts, pairA)
		b, okB := findPart(parts, pairB)
		if !okA || !okB {
			return errors.Errorf("-pair: no part named %q", missing(okA, pairA, pairB))
		}
		if ap, ok := det.ClosestApproach(a, b, cfg.MaxDistance); ok {
			report.Approach = &ap
		}
	}
	report.Elapsed = time.Since(start).String()

	if opts.JSON {
		err = writeJSON(stdout, &report)
	} else {
		err = writeText(stdout, &report, pairA, pairB)
	}
	if err != nil {
		return err
	}

	if reg != nil {
		return dumpMetrics(stderr, reg)
	}
	return nil
}

// loadScene reads TOML scenes directly and evaluates anything else as a
// script.
func loadScene(path string, timeout time.Duration) (*scene.Scene, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return scene.Load(path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	eng := engine.NewEngine()
	eng.Timeout = timeout
	sc, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %s", path)
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, len(evalErrs))
		for i, e := range evalErrs {
			msgs[i] = e.Error()
		}
		return nil, errors.Errorf("%s: %s", path, strings.Join(msgs, "; "))
	}
	return sc, nil
}

func findPart(parts []clash.Part, name string) (clash.Part, bool) {
	for _, p := range parts {
		if p.Name == name {
			return p, true
		}
	}
	return clash.Part{}, false
}

func missing(okA bool, a, b string) string {
	if !okA {
		return a
	}
	return b
}

func writeJSON(w io.Writer, r *Report) error {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(r), "write report")
}

func writeText(w io.Writer, r *Report, pairA, pairB string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s  scene %s\n", r.RunID, r.Scene)
	fmt.Fprintf(&b, "parts: %d  facets: %d\n", r.Parts, r.Facets)
	if len(r.Clashes) == 0 {
		b.WriteString("no clashes\n")
	}
	for _, p := range r.Clashes {
		fmt.Fprintf(&b, "clash %s\n", p)
	}
	switch {
	case r.Approach != nil:
		a := r.Approach
		fmt.Fprintf(&b, "closest %s x %s: %.6g (facets %d/%d)\n", a.A, a.B, a.Distance, a.FacetA, a.FacetB)
	case pairA != "":
		fmt.Fprintf(&b, "closest %s x %s: beyond MaxDistance\n", pairA, pairB)
	}
	fmt.Fprintf(&b, "elapsed %s\n", r.Elapsed)
	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "write report")
}

func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}
