package ingest

import (
	"github.com/dd0wney/cluso-telco/pkg/logging"
	"github.com/dd0wney/cluso-telco/pkg/records"
	"github.com/dd0wney/cluso-telco/pkg/validation"
)

// LoadStats describes what happened to one input table.
type LoadStats struct {
	Table   string         `json:"table"`
	Path    string         `json:"path"`
	Rows    int            `json:"rows"`
	Loaded  int            `json:"loaded"`
	Skipped int            `json:"skipped"`
	Coerced map[string]int `json:"coerced,omitempty"`
}

// CoercedTotal returns the number of fields replaced by a null sentinel.
func (s LoadStats) CoercedTotal() int {
	return coercions(s.Coerced).total()
}

// Loader reads the input tables of one run.
type Loader struct {
	logger logging.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger logging.Logger) *Loader {
	return &Loader{logger: logging.OrNop(logger).With(logging.Component("ingest"))}
}

func (l *Loader) finish(stats LoadStats, c coercions) LoadStats {
	if len(c) > 0 {
		stats.Coerced = c
	}
	l.logger.Info("table loaded",
		logging.Table(stats.Table),
		logging.Path(stats.Path),
		logging.Records(stats.Loaded),
		logging.Int("skipped", stats.Skipped),
		logging.Int("coerced", stats.CoercedTotal()),
	)
	if stats.Skipped > 0 {
		l.logger.Warn("rows rejected at input boundary",
			logging.Table(stats.Table), logging.Path(stats.Path), logging.Count(stats.Skipped))
	}
	return stats
}

// Calls loads a CDR table.
func (l *Loader) Calls(path string) ([]records.CallRecord, LoadStats, error) {
	stats := LoadStats{Table: CDRSchema.Table, Path: path}
	t, err := openTable(CDRSchema, path)
	if err != nil {
		return nil, stats, err
	}

	c := coercions{}
	out := make([]records.CallRecord, 0, len(t.rows))
	stats.Rows = len(t.rows) + t.unreadable
	stats.Skipped = t.unreadable

	for _, row := range t.rows {
		parties := validation.CallParties{
			SourceID:      t.get(row, "source_number"),
			DestinationID: t.get(row, "destination_number"),
		}
		if validation.ValidateCallParties(&parties) != nil {
			stats.Skipped++
			continue
		}

		raw := t.get(row, "timestamp")
		ts, ok := ParseTimestamp(raw)
		c.note("timestamp", raw, ok)

		rawDur := t.get(row, "duration")
		dur := ParseFloat(rawDur)
		c.note("duration", rawDur, dur != nil)

		out = append(out, records.CallRecord{
			SourceID:      parties.SourceID,
			DestinationID: parties.DestinationID,
			Timestamp:     ts,
			Duration:      dur,
			CallType:      t.get(row, "call_type"),
			Status:        t.get(row, "status"),
		})
	}

	stats.Loaded = len(out)
	return out, l.finish(stats, c), nil
}

// Flows loads an IPDR table. A missing protocol column is filled with "Unknown".
func (l *Loader) Flows(path string) ([]records.IPFlowRecord, LoadStats, error) {
	stats := LoadStats{Table: IPDRSchema.Table, Path: path}
	t, err := openTable(IPDRSchema, path)
	if err != nil {
		return nil, stats, err
	}

	c := coercions{}
	out := make([]records.IPFlowRecord, 0, len(t.rows))
	stats.Rows = len(t.rows) + t.unreadable
	stats.Skipped = t.unreadable

	for _, row := range t.rows {
		raw := t.get(row, "timestamp")
		ts, ok := ParseTimestamp(raw)
		c.note("timestamp", raw, ok)

		rawSrc, rawDst := t.get(row, "src_ip"), t.get(row, "dst_ip")
		src, dst := ValidIP(rawSrc), ValidIP(rawDst)
		c.note("src_ip", rawSrc, src != "")
		c.note("dst_ip", rawDst, dst != "")

		protocol := t.get(row, "protocol")
		if protocol == "" {
			protocol = "Unknown"
		}

		flow := records.IPFlowRecord{
			Timestamp: ts,
			SrcIP:     src,
			DstIP:     dst,
			Protocol:  protocol,
		}
		for col, field := range map[string]**int64{
			"src_port":       &flow.SrcPort,
			"dst_port":       &flow.DstPort,
			"bytes_sent":     &flow.BytesSent,
			"bytes_received": &flow.BytesReceived,
		} {
			rawVal := t.get(row, col)
			*field = ParseInt(rawVal)
			c.note(col, rawVal, *field != nil)
		}

		out = append(out, flow)
	}

	stats.Loaded = len(out)
	return out, l.finish(stats, c), nil
}

// Pings loads a tower dump table. Rows without an IMSI or cell ID are rejected.
func (l *Loader) Pings(path string) ([]records.TowerPingRecord, LoadStats, error) {
	stats := LoadStats{Table: TDRSchema.Table, Path: path}
	t, err := openTable(TDRSchema, path)
	if err != nil {
		return nil, stats, err
	}

	c := coercions{}
	out := make([]records.TowerPingRecord, 0, len(t.rows))
	stats.Rows = len(t.rows) + t.unreadable
	stats.Skipped = t.unreadable

	for _, row := range t.rows {
		keys := validation.PingKeys{SubjectID: t.get(row, "imsi"), CellID: t.get(row, "cell_id")}
		if validation.ValidatePingKeys(&keys) != nil {
			stats.Skipped++
			continue
		}

		raw := t.get(row, "timestamp")
		ts, ok := ParseTimestamp(raw)
		c.note("timestamp", raw, ok)

		rawDur := t.get(row, "duration")
		dur := ParseFloat(rawDur)
		c.note("duration", rawDur, dur != nil)

		out = append(out, records.TowerPingRecord{
			SubjectID:         keys.SubjectID,
			DeviceID:          t.get(row, "imei"),
			CellID:            keys.CellID,
			Timestamp:         ts,
			SourceNumber:      t.get(row, "source_number"),
			DestinationNumber: t.get(row, "destination_number"),
			CallType:          t.get(row, "call_type"),
			Duration:          dur,
		})
	}

	stats.Loaded = len(out)
	return out, l.finish(stats, c), nil
}

// Carriers loads an offline carrier directory keyed by phone number.
func (l *Loader) Carriers(path string) ([]records.CarrierInfo, LoadStats, error) {
	stats := LoadStats{Table: CarrierSchema.Table, Path: path}
	t, err := openTable(CarrierSchema, path)
	if err != nil {
		return nil, stats, err
	}

	out := make([]records.CarrierInfo, 0, len(t.rows))
	stats.Rows = len(t.rows) + t.unreadable
	stats.Skipped = t.unreadable
	for _, row := range t.rows {
		number := t.get(row, "phone_number")
		if number == "" {
			stats.Skipped++
			continue
		}
		out = append(out, records.CarrierInfo{
			PhoneNumber: number,
			Carrier:     t.get(row, "carrier"),
			Region:      t.get(row, "region"),
			LineType:    t.get(row, "line_type"),
		})
	}

	stats.Loaded = len(out)
	return out, l.finish(stats, nil), nil
}
