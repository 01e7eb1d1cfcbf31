package correlation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-telco/pkg/logging"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// Engine runs windowed joins over a record store. It holds no per-run state
// and can be shared between goroutines.
type Engine struct {
	opts   Options
	logger logging.Logger
}

// NewEngine creates an engine. Non-positive windows fall back to the defaults.
func NewEngine(opts Options, logger logging.Logger) *Engine {
	if opts.TowerWindow <= 0 {
		opts.TowerWindow = DefaultTowerWindow
	}
	if opts.IPWindow <= 0 {
		opts.IPWindow = DefaultIPWindow
	}
	return &Engine{
		opts:   opts,
		logger: logging.OrNop(logger).With(logging.Component("correlation")),
	}
}

// Options returns the effective windows.
func (e *Engine) Options() Options { return e.opts }

// Run executes the Call×Tower and Call×IP passes concurrently, then joins
// their results.
func (e *Engine) Run(ctx context.Context, store *records.Store) (*Result, error) {
	res := &Result{Approximation: ApproxTimeOnly}
	var towerElapsed, ipElapsed time.Duration

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		res.Tower, err = e.CorrelateTower(ctx, store)
		towerElapsed = time.Since(start)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		res.IP, err = e.CorrelateIP(ctx, store)
		ipElapsed = time.Since(start)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	res.All = Comprehensive(res.Tower, res.IP)
	e.report(PassComprehensive, len(res.All))
	res.Elapsed = map[string]time.Duration{
		PassTower:         towerElapsed,
		PassIP:            ipElapsed,
		PassComprehensive: time.Since(start),
	}
	return res, nil
}

// CorrelateTower pairs every timestamped call with the pings whose source
// number equals the caller and whose timestamp lies within the tower window.
func (e *Engine) CorrelateTower(ctx context.Context, store *records.Store) ([]TowerMatch, error) {
	if store == nil || len(store.Calls()) == 0 || len(store.Pings()) == 0 {
		e.logger.Warn("tower correlation skipped: calls or pings absent", e.counts(store)...)
		return nil, nil
	}

	calls, pings := store.Calls(), store.Pings()
	bySource := store.PingsBySource()
	w := e.opts.TowerWindow

	var out []TowerMatch
	for n, ci := range store.CallTimeline().Positions() {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		call := calls[ci]
		tl := bySource.Get(call.SourceID)
		if tl == nil {
			continue
		}
		tl.Range(call.Timestamp.Add(-w), call.Timestamp.Add(w), func(pi int, ts time.Time) {
			ping := pings[pi]
			out = append(out, TowerMatch{
				CallIndex:       ci,
				PingIndex:       pi,
				CallTimestamp:   call.Timestamp,
				TowerTimestamp:  ts,
				PhoneNumber:     call.SourceID,
				CalledNumber:    call.DestinationID,
				CellID:          ping.CellID,
				IMSI:            ping.SubjectID,
				TimeDiffMinutes: minutesBetween(call.Timestamp, ts),
			})
		})
	}

	e.report(PassTower, len(out))
	return out, nil
}

// CorrelateIP pairs every timestamped call with the flows inside the IP
// window. No identity filter is applied; see ApproxTimeOnly.
func (e *Engine) CorrelateIP(ctx context.Context, store *records.Store) ([]IPMatch, error) {
	if store == nil || len(store.Calls()) == 0 || len(store.Flows()) == 0 {
		e.logger.Warn("ip correlation skipped: calls or flows absent", e.counts(store)...)
		return nil, nil
	}

	calls, flows := store.Calls(), store.Flows()
	timeline := store.FlowTimeline()
	w := e.opts.IPWindow

	var out []IPMatch
	for n, ci := range store.CallTimeline().Positions() {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		call := calls[ci]
		timeline.Range(call.Timestamp.Add(-w), call.Timestamp.Add(w), func(fi int, ts time.Time) {
			flow := flows[fi]
			out = append(out, IPMatch{
				CallIndex:       ci,
				FlowIndex:       fi,
				CallTimestamp:   call.Timestamp,
				IPTimestamp:     ts,
				PhoneNumber:     call.SourceID,
				CalledNumber:    call.DestinationID,
				SrcIP:           flow.SrcIP,
				DstIP:           flow.DstIP,
				Protocol:        flow.Protocol,
				TimeDiffMinutes: minutesBetween(call.Timestamp, ts),
			})
		})
	}

	e.report(PassIP, len(out), logging.String("approximation", ApproxTimeOnly))
	return out, nil
}

type joinKey struct {
	at     int64
	number string
}

// Comprehensive inner-joins tower and IP matches on (call timestamp, calling
// number). Every tower row is paired with every IP row of the same key, in
// input order.
func Comprehensive(tower []TowerMatch, ip []IPMatch) []ComprehensiveMatch {
	if len(tower) == 0 || len(ip) == 0 {
		return nil
	}

	byKey := make(map[joinKey][]int, len(ip))
	for i, m := range ip {
		k := joinKey{at: m.CallTimestamp.UnixNano(), number: m.PhoneNumber}
		byKey[k] = append(byKey[k], i)
	}

	var out []ComprehensiveMatch
	for _, t := range tower {
		for _, i := range byKey[joinKey{at: t.CallTimestamp.UnixNano(), number: t.PhoneNumber}] {
			out = append(out, ComprehensiveMatch{Tower: t, IP: ip[i]})
		}
	}
	return out
}

func (e *Engine) report(pass string, n int, fields ...logging.Field) {
	fields = append([]logging.Field{logging.Stage(pass), logging.Matches(n)}, fields...)
	if n == 0 {
		e.logger.Info("zero matches found", fields...)
		return
	}
	e.logger.Info("correlation complete", fields...)
}

func (e *Engine) counts(store *records.Store) []logging.Field {
	if store == nil {
		return nil
	}
	c := store.Counts()
	return []logging.Field{
		logging.Int("calls", c.Calls),
		logging.Int("flows", c.Flows),
		logging.Int("pings", c.Pings),
	}
}
