package pipeline

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-telco/pkg/algorithms"
	"github.com/dd0wney/cluso-telco/pkg/config"
	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
	"github.com/dd0wney/cluso-telco/pkg/correlation"
	"github.com/dd0wney/cluso-telco/pkg/geo"
	"github.com/dd0wney/cluso-telco/pkg/ingest"
	"github.com/dd0wney/cluso-telco/pkg/logging"
	"github.com/dd0wney/cluso-telco/pkg/patterns"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// absorb records the outcome of loading one table. Missing inputs become
// warnings; any other failure aborts the run.
func (r *Result) absorb(stats ingest.LoadStats, err error) error {
	if err != nil && !ingest.IsMissing(err) {
		return err
	}
	r.Summary.Inputs = append(r.Summary.Inputs, stats)
	if err != nil {
		r.Metrics.RecordMissingInput(stats.Table)
		r.warn(fmt.Sprintf("%s: %v", stats.Table, err), logging.Table(stats.Table), logging.Path(stats.Path))
		return nil
	}
	r.Metrics.RecordLoad(stats.Table, stats.Loaded, stats.Skipped, stats.Coerced)
	return nil
}

func (p *Pipeline) load(ctx context.Context, res *Result) error {
	in := p.cfg.Inputs
	loader := ingest.NewLoader(res.logger)

	calls, stats, err := loader.Calls(in.CDR)
	if err := res.absorb(stats, err); err != nil {
		return err
	}
	flows, err := p.loadFlows(loader, res)
	if err != nil {
		return err
	}
	pings, stats, err := loader.Pings(in.TDR)
	if err := res.absorb(stats, err); err != nil {
		return err
	}

	res.Towers = records.NewTowerTable(nil)
	if in.Towers != "" {
		towers, stats, err := loader.Towers(ctx, in.Towers)
		if err := res.absorb(stats, err); err != nil {
			return err
		}
		if towers != nil {
			res.Towers = towers
		}
	} else if p.runs(StageGeo) {
		res.logger.Info("tower locations not supplied, movement analysis disabled")
	}

	if in.Carriers != "" && p.runs(StageOSINT) {
		carriers, stats, err := loader.Carriers(in.Carriers)
		if err := res.absorb(stats, err); err != nil {
			return err
		}
		res.Carriers = carriers
	}

	res.Store = records.NewStore(calls, flows, pings)
	res.Summary.Records = res.Store.Counts()
	return nil
}

// loadFlows reads the IPDR input. A packet capture also yields the SIP calls
// it carries.
func (p *Pipeline) loadFlows(loader *ingest.Loader, res *Result) ([]records.IPFlowRecord, error) {
	path := p.cfg.Inputs.IPDR
	if !ingest.IsCapture(path) {
		flows, stats, err := loader.Flows(path)
		return flows, res.absorb(stats, err)
	}

	capture, stats, err := loader.Capture(path)
	if err := res.absorb(stats, err); err != nil {
		return nil, err
	}
	if capture == nil {
		return nil, nil
	}
	res.VoIPCalls = capture.Calls
	res.Summary.VoIPCalls = len(capture.Calls)
	return capture.Flows, nil
}

func (p *Pipeline) correlate(ctx context.Context, res *Result) error {
	engine := correlation.NewEngine(correlation.Options{
		TowerWindow: p.cfg.TowerWindow(),
		IPWindow:    p.cfg.IPWindow(),
	}, res.logger)

	result, err := engine.Run(ctx, res.Store)
	if err != nil {
		return err
	}
	res.Correlation = result

	res.Metrics.RecordCorrelation(correlation.PassTower, len(result.Tower), result.Elapsed[correlation.PassTower])
	res.Metrics.RecordCorrelation(correlation.PassIP, len(result.IP), result.Elapsed[correlation.PassIP])
	res.Metrics.RecordCorrelation(correlation.PassComprehensive, len(result.All), result.Elapsed[correlation.PassComprehensive])

	res.Summary.Correlation = &CorrelationSummary{
		TowerMatches:         len(result.Tower),
		IPMatches:            len(result.IP),
		ComprehensiveMatches: len(result.All),
		TowerWindowMinutes:   p.cfg.Correlation.TowerWindowMinutes,
		IPWindowMinutes:      p.cfg.Correlation.IPWindowMinutes,
		IPMatchBasis:         result.Approximation,
	}
	return nil
}

func (p *Pipeline) graph(ctx context.Context, res *Result) error {
	opts := contactgraph.Options{SelfLoops: p.cfg.Graph.SelfLoops}
	switch p.cfg.Graph.Source {
	case config.SourceCorrelated:
		var matches []correlation.TowerMatch
		if res.Correlation != nil {
			matches = res.Correlation.Tower
		}
		res.Graph = contactgraph.FromTowerMatches(matches, opts)
	default:
		res.Graph = contactgraph.FromCalls(res.Store.Calls(), opts)
	}

	g := res.Graph
	if g.NodeCount() == 0 {
		res.warn("contact graph is empty, centrality not computed", logging.String("source", p.cfg.Graph.Source))
	}

	c := p.cfg.Centrality
	res.Centrality = algorithms.AnalyzeCentrality(g, algorithms.PageRankOptions{
		DampingFactor: c.Damping,
		MaxIterations: c.MaxIterations,
		Tolerance:     c.Tolerance,
		Weighted:      c.Weighted,
	})
	analysis := res.Centrality

	if g.NodeCount() > 0 && analysis.Degenerate() {
		res.logger.Info("degenerate contact graph", logging.Int("nodes", g.NodeCount()))
	}
	if !analysis.PageRankConverged {
		res.warn(fmt.Sprintf("pagerank did not converge in %d iterations", analysis.PageRankIterations))
	}

	stats := g.Stats()
	res.Metrics.UpdateGraphMetrics(g.NodeCount(), g.EdgeCount(), len(analysis.Components.Components), stats.DroppedSelfLoops)
	res.Metrics.RecordPageRank(analysis.PageRankIterations, analysis.PageRankConverged)

	summary := &GraphSummary{
		Source:             p.cfg.Graph.Source,
		Stats:              stats,
		Components:         len(analysis.Components.Components),
		PageRankIterations: analysis.PageRankIterations,
		PageRankConverged:  analysis.PageRankConverged,
		Degenerate:         analysis.Degenerate(),
	}
	if largest := analysis.Components.Largest(); largest != nil {
		summary.LargestComponent = largest.Size
	}
	res.Summary.Graph = summary
	res.Summary.TopNodes = analysis.Top(p.cfg.Report.TopNodes)

	res.logger.Info("contact graph analysed",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", g.EdgeCount()),
		logging.Int("components", summary.Components),
		logging.Int("pagerank_iterations", analysis.PageRankIterations))
	return nil
}

// colocationPair returns the configured subject pair, or the first two
// subjects of the tower dump.
func (p *Pipeline) colocationPair(store *records.Store) []string {
	if len(p.cfg.CoLocation.Subjects) == 2 {
		return p.cfg.CoLocation.Subjects
	}
	if subjects := store.Subjects(); len(subjects) >= 2 {
		return subjects[:2]
	}
	return nil
}

func (p *Pipeline) geo(ctx context.Context, res *Result) error {
	store, towers := res.Store, res.Towers
	bucket := p.cfg.Bucket()
	out := &GeoResult{}

	if pair := p.colocationPair(store); pair != nil {
		out.Pair = pair
		out.CoLocation = geo.CoLocate(store, pair[0], pair[1], bucket)
		res.Summary.CoLocationPair = pair
		res.logger.Info("co-location analysed",
			logging.String("imsi1", pair[0]), logging.String("imsi2", pair[1]), logging.Matches(len(out.CoLocation)))
	} else if len(store.Pings()) > 0 {
		res.warn("co-location needs at least two subjects")
	}
	out.AllCoLocation = geo.CoLocateAll(store, bucket)
	out.CommonLocations = geo.AllCommonLocations(store)

	if err := ctx.Err(); err != nil {
		return err
	}

	if towers.Len() == 0 {
		if len(store.Pings()) > 0 {
			res.warn("movement not computed: no tower locations")
		}
	} else {
		out.Movement = geo.AllMovement(store, towers)
		out.Unusual = geo.UnusualMovement(out.Movement, p.cfg.Movement.SpeedThresholdKmh)
		out.UnknownCells = geo.UnknownCells(store.Pings(), towers)
		if out.UnknownCells > 0 {
			res.warn(fmt.Sprintf("%d pings reference cells without a known location", out.UnknownCells),
				logging.Count(out.UnknownCells))
		}
	}

	res.logger.Info("movement analysed",
		logging.Int("subjects", len(store.Subjects())),
		logging.Int("movements", len(out.Movement)),
		logging.Int("unusual", len(out.Unusual)))
	res.Geo = out
	return nil
}

func (p *Pipeline) patterns(ctx context.Context, res *Result) error {
	calls, flows := res.Store.Calls(), res.Store.Flows()
	out := &PatternResult{}

	out.FrequentContacts = patterns.FrequentContacts(calls, p.cfg.Patterns.FrequentContactThreshold)
	out.UnusualCalls, out.DurationStats = patterns.UnusualDurations(calls)
	out.TopSources, out.TopDestinations = patterns.TopTalkers(flows, p.cfg.Patterns.TopTalkers)
	out.Protocols = patterns.ProtocolDistribution(flows)
	out.TrafficAnomalies, out.TrafficStats = patterns.TrafficAnomalies(flows)

	res.logger.Info("record patterns analysed",
		logging.Int("frequent_contacts", len(out.FrequentContacts)),
		logging.Int("unusual_calls", len(out.UnusualCalls)),
		logging.Int("traffic_anomalies", len(out.TrafficAnomalies)))
	res.Patterns = out
	return nil
}

func (p *Pipeline) osint(ctx context.Context, res *Result) error {
	if len(res.Carriers) == 0 {
		res.logger.Info("carrier directory not supplied, carrier correlation skipped")
		return nil
	}
	res.CarrierMatches = correlation.CorrelateCarriers(res.Store.Calls(), res.Carriers)
	res.logger.Info("carrier correlation complete",
		logging.Matches(len(res.CarrierMatches)),
		logging.Int("anomalies", correlation.CountAnomalies(res.CarrierMatches)))
	return nil
}
