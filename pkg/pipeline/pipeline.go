// Package pipeline runs one complete batch analysis: load the input tables,
// correlate them, build and rank the contact graph, reconstruct movement,
// mine record patterns and finally write every result. Nothing is written
// until every compute stage has succeeded.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-telco/pkg/algorithms"
	"github.com/dd0wney/cluso-telco/pkg/config"
	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
	"github.com/dd0wney/cluso-telco/pkg/correlation"
	"github.com/dd0wney/cluso-telco/pkg/geo"
	"github.com/dd0wney/cluso-telco/pkg/logging"
	"github.com/dd0wney/cluso-telco/pkg/metrics"
	"github.com/dd0wney/cluso-telco/pkg/patterns"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// Stage names an optional part of a run. Loading always runs.
type Stage string

// Stages in execution order.
const (
	StageCorrelate Stage = "correlate"
	StageGraph     Stage = "graph"
	StageGeo       Stage = "geo"
	StagePatterns  Stage = "patterns"
	StageOSINT     Stage = "osint"
)

// AllStages lists every optional stage.
var AllStages = []Stage{StageCorrelate, StageGraph, StageGeo, StagePatterns, StageOSINT}

// Pipeline runs analyses with one configuration. A Pipeline holds no run
// state; every call to Run starts from the inputs again.
type Pipeline struct {
	cfg    *config.Config
	stages []Stage
	logger logging.Logger
	now    func() time.Time
}

// New creates a pipeline that runs the given stages, or all of them when
// none are named.
func New(cfg *config.Config, logger logging.Logger, stages ...Stage) *Pipeline {
	if len(stages) == 0 {
		stages = AllStages
	}
	return &Pipeline{
		cfg:    cfg,
		stages: resolve(cfg, stages),
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// resolve orders the requested stages and adds the correlation stage when the
// graph is built from correlated rows.
func resolve(cfg *config.Config, requested []Stage) []Stage {
	want := make(map[Stage]bool, len(requested))
	for _, s := range requested {
		want[s] = true
	}
	if want[StageGraph] && cfg.Graph.Source == config.SourceCorrelated {
		want[StageCorrelate] = true
	}
	var out []Stage
	for _, s := range AllStages {
		if want[s] {
			out = append(out, s)
		}
	}
	return out
}

// Stages returns the stages this pipeline runs, in order.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

func (p *Pipeline) runs(s Stage) bool {
	for _, x := range p.stages {
		if x == s {
			return true
		}
	}
	return false
}

// GeoResult holds the co-location and movement outputs.
type GeoResult struct {
	Pair            []string
	CoLocation      []geo.CoLocation
	AllCoLocation   []geo.CoLocation
	Movement        []geo.Movement
	Unusual         []geo.Movement
	CommonLocations []geo.LocationCount
	UnknownCells    int
}

// PatternResult holds the CDR and IPDR pattern outputs.
type PatternResult struct {
	FrequentContacts []patterns.Count
	UnusualCalls     []patterns.UnusualCall
	DurationStats    patterns.Summary
	TopSources       []patterns.Count
	TopDestinations  []patterns.Count
	Protocols        []patterns.Count
	TrafficAnomalies []patterns.MinuteTraffic
	TrafficStats     patterns.Summary
}

// Result is everything one run derived. Fields of stages that did not run
// are nil.
type Result struct {
	RunID    string
	Store    *records.Store
	Towers   *records.TowerTable
	Carriers []records.CarrierInfo
	// VoIPCalls is nil unless the IPDR input was a packet capture.
	VoIPCalls []records.VoIPCall

	Correlation    *correlation.Result
	Graph          *contactgraph.Graph
	Centrality     *algorithms.CentralityAnalysis
	Geo            *GeoResult
	Patterns       *PatternResult
	CarrierMatches []correlation.CarrierMatch

	Summary *Summary
	Metrics *metrics.Registry

	logger logging.Logger
}

// Run analyses the inputs and writes every output to the configured
// directory.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res, err := p.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Export(res); err != nil {
		return res, err
	}
	return res, nil
}

// Analyze runs every compute stage without writing anything.
func (p *Pipeline) Analyze(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(logging.RunID(runID))
	started := p.now()

	res := &Result{
		RunID:   runID,
		Metrics: metrics.NewRegistry(),
		logger:  logger,
		Summary: &Summary{
			RunID:     runID,
			StartedAt: started,
			Config:    p.cfg,
			Findings:  make(map[string]int),
			Warnings:  []string{},
		},
	}
	for _, s := range p.stages {
		res.Summary.Stages = append(res.Summary.Stages, string(s))
	}

	logger.Info("analysis started", logging.Any("stages", res.Summary.Stages))

	steps := []struct {
		stage Stage
		name  string
		fn    func(context.Context, *Result) error
	}{
		{"", "load", p.load},
		{StageCorrelate, string(StageCorrelate), p.correlate},
		{StageGraph, string(StageGraph), p.graph},
		{StageGeo, string(StageGeo), p.geo},
		{StagePatterns, string(StagePatterns), p.patterns},
		{StageOSINT, string(StageOSINT), p.osint},
	}
	for _, step := range steps {
		if step.stage != "" && !p.runs(step.stage) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.step(ctx, res, step.name, step.fn); err != nil {
			return nil, err
		}
	}

	logger.Info("analysis complete",
		logging.Int("warnings", len(res.Summary.Warnings)),
		logging.Latency(p.now().Sub(started)))
	return res, nil
}

func (p *Pipeline) step(ctx context.Context, res *Result, name string, fn func(context.Context, *Result) error) error {
	logger := res.logger.With(logging.Stage(name))
	timer := logging.StartTimer(logger, "stage")
	err := fn(ctx, res)
	var elapsed time.Duration
	if err != nil {
		elapsed = timer.EndError(err)
	} else {
		elapsed = timer.End()
	}
	res.Metrics.RecordStage(name, elapsed, err)
	if err != nil {
		return fmt.Errorf("%s stage failed: %w", name, err)
	}
	return nil
}

func (r *Result) warn(msg string, fields ...logging.Field) {
	r.Summary.Warnings = append(r.Summary.Warnings, msg)
	r.logger.Warn(msg, fields...)
}
