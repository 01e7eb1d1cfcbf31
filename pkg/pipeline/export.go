package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dd0wney/cluso-telco/pkg/export"
	"github.com/dd0wney/cluso-telco/pkg/logging"
	"github.com/dd0wney/cluso-telco/pkg/metrics"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// Tables renders every output table of the stages that ran.
func (r *Result) Tables() []*export.Table {
	var out []*export.Table
	if c := r.Correlation; c != nil {
		out = append(out,
			export.TowerTable(c.Tower),
			export.IPTable(c.IP),
			export.ComprehensiveTable(c.All),
		)
	}
	if a := r.Centrality; a != nil {
		out = append(out,
			export.CentralityTable(a.Nodes),
			export.ComponentsTable(a.Components),
		)
	}
	if g := r.Geo; g != nil {
		out = append(out,
			export.CoLocationTable(export.CoLocation, g.CoLocation),
			export.CoLocationTable(export.AllCoLocation, g.AllCoLocation),
			export.MovementTable(export.MovementSpeed, g.Movement),
			export.MovementTable(export.UnusualMovement, g.Unusual),
			export.CommonLocationsTable(g.CommonLocations),
		)
	}
	if pt := r.Patterns; pt != nil {
		out = append(out,
			export.CountTable(export.FrequentContacts, "destination_number", "call_count", pt.FrequentContacts),
			export.UnusualCallsTable(pt.UnusualCalls),
			export.CountTable(export.TopSourceIPs, "src_ip", "flow_count", pt.TopSources),
			export.CountTable(export.TopDestinationIPs, "dst_ip", "flow_count", pt.TopDestinations),
			export.CountTable(export.ProtocolBreakdown, "protocol", "flow_count", pt.Protocols),
			export.TrafficAnomaliesTable(pt.TrafficAnomalies),
		)
	}
	if r.VoIPCalls != nil {
		out = append(out, export.VoIPCallsTable(r.VoIPCalls))
	}
	if r.CarrierMatches != nil {
		out = append(out, export.CarrierTable(r.CarrierMatches))
	}
	return out
}

// Export writes the tables, the workbook, the run summary and the metrics of
// res to the configured output directory.
func (p *Pipeline) Export(res *Result) error {
	logger := res.logger.With(logging.Stage("export"))
	timer := logging.StartTimer(logger, "stage")
	err := p.export(res, logger)
	if err != nil {
		res.Metrics.RecordStage("export", timer.EndError(err), err)
		return fmt.Errorf("export stage failed: %w", err)
	}
	res.Metrics.RecordStage("export", timer.End(), nil)
	return nil
}

func (p *Pipeline) export(res *Result, logger logging.Logger) error {
	w, err := export.NewWriter(p.cfg.Output.Dir, logger)
	if err != nil {
		return err
	}

	tables := res.Tables()
	for _, t := range tables {
		if err := w.CSV(t); err != nil {
			return err
		}
		res.Summary.Findings[t.Name] = t.Len()
		res.Metrics.RecordFindings(t.Name, t.Len())
	}

	if p.cfg.Report.Workbook {
		book, err := p.workbook(res, tables)
		if err != nil {
			return err
		}
		if err := w.Workbook(book); err != nil {
			return err
		}
	}

	finished := p.now()
	res.Summary.FinishedAt = finished
	res.Summary.DurationSeconds = finished.Sub(res.Summary.StartedAt).Seconds()
	// summary.json lists itself and metrics.prom
	res.Summary.Outputs = append(w.Written(),
		export.Written{Name: SummaryName, Path: filepath.Join(w.Dir(), SummaryName), Rows: 1},
		export.Written{Name: metrics.TextfileName, Path: filepath.Join(w.Dir(), metrics.TextfileName)},
	)
	if err := w.JSON(SummaryName, res.Summary); err != nil {
		return err
	}

	res.Metrics.OutputsWritten.Add(float64(len(w.Written()) + 1))
	res.Metrics.FinishRun(res.Summary.StartedAt, finished)
	if err := res.Metrics.WriteTextfile(filepath.Join(w.Dir(), metrics.TextfileName)); err != nil {
		return err
	}

	logger.Info("outputs written",
		logging.Path(w.Dir()),
		logging.Count(len(res.Summary.Outputs)))
	return nil
}

// workbook assembles the investigative workbook from the rendered tables.
func (p *Pipeline) workbook(res *Result, tables []*export.Table) (*export.Workbook, error) {
	book, err := export.NewWorkbook()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*export.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	if err := book.AddRows("summary", summaryRows(res), false); err != nil {
		book.Close()
		return nil, err
	}
	if a := res.Centrality; a != nil {
		top := export.CentralityTable(a.Top(p.cfg.Report.TopNodes))
		if err := book.AddTable("centrality", top); err != nil {
			book.Close()
			return nil, err
		}
	}
	for _, sheet := range []struct{ name, table string }{
		{"co_location", export.AllCoLocation},
		{"movement", export.MovementSpeed},
		{"unusual_movement", export.UnusualMovement},
	} {
		t, ok := byName[sheet.table]
		if !ok {
			continue
		}
		if err := book.AddTable(sheet.name, t); err != nil {
			book.Close()
			return nil, err
		}
	}
	return book, nil
}

// summaryRows is the executive summary sheet.
func summaryRows(res *Result) [][]string {
	s := res.Summary
	rows := [][]string{
		{"Telecom forensic analysis"},
		{"Run ID", s.RunID},
		{"Started", records.FormatTime(s.StartedAt)},
		{},
		{"Records"},
		{"Calls (CDR)", strconv.Itoa(s.Records.Calls)},
		{"IP flows (IPDR)", strconv.Itoa(s.Records.Flows)},
		{"Tower pings (TDR)", strconv.Itoa(s.Records.Pings)},
	}
	if c := s.Correlation; c != nil {
		rows = append(rows,
			[]string{},
			[]string{"Correlation"},
			[]string{"Call-tower matches", strconv.Itoa(c.TowerMatches), fmt.Sprintf("±%d min, same calling number", c.TowerWindowMinutes)},
			[]string{"Call-IP matches", strconv.Itoa(c.IPMatches), fmt.Sprintf("±%d min, %s", c.IPWindowMinutes, c.IPMatchBasis)},
			[]string{"Comprehensive matches", strconv.Itoa(c.ComprehensiveMatches)},
		)
	}
	if g := s.Graph; g != nil {
		rows = append(rows,
			[]string{},
			[]string{"Contact graph"},
			[]string{"Numbers", strconv.Itoa(g.Stats.Nodes)},
			[]string{"Contact pairs", strconv.Itoa(g.Stats.Edges)},
			[]string{"Components", strconv.Itoa(g.Components)},
			[]string{"Largest component", strconv.Itoa(g.LargestComponent)},
		)
		if len(s.TopNodes) > 0 {
			rows = append(rows, []string{"Most central number", s.TopNodes[0].Node})
		}
	}
	if geo := res.Geo; geo != nil {
		rows = append(rows,
			[]string{},
			[]string{"Location"},
			[]string{"Co-locations (all subjects)", strconv.Itoa(len(geo.AllCoLocation))},
			[]string{"Movements", strconv.Itoa(len(geo.Movement))},
			[]string{"Unusual movements", strconv.Itoa(len(geo.Unusual))},
		)
	}
	if len(s.Warnings) > 0 {
		rows = append(rows, []string{}, []string{"Warnings"})
		for _, w := range s.Warnings {
			rows = append(rows, []string{w})
		}
	}
	return rows
}
