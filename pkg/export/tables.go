package export

import (
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-telco/pkg/algorithms"
	"github.com/dd0wney/cluso-telco/pkg/correlation"
	"github.com/dd0wney/cluso-telco/pkg/geo"
	"github.com/dd0wney/cluso-telco/pkg/patterns"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// Output table names.
const (
	TowerCorrelation   = "cdr_tdr_correlation"
	IPCorrelation      = "ipdr_cdr_correlation"
	AllCorrelation     = "all_correlation"
	Centrality         = "centrality_measures"
	Components         = "components"
	CoLocation         = "co_location_analysis"
	AllCoLocation      = "all_co_location"
	MovementSpeed      = "movement_speed"
	UnusualMovement    = "unusual_movement"
	CommonLocations    = "common_locations"
	FrequentContacts   = "frequent_contacts"
	UnusualCalls       = "unusual_calls"
	TopSourceIPs       = "top_source_ips"
	TopDestinationIPs  = "top_destination_ips"
	ProtocolBreakdown  = "protocol_distribution"
	TrafficAnomalies   = "traffic_anomalies"
	CarrierCorrelation = "osint_correlation"
	VoIPCalls          = "voip_calls"
)

// Table is a named, fully rendered output table.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// TowerTable renders Call×Tower matches.
func TowerTable(matches []correlation.TowerMatch) *Table {
	t := &Table{
		Name:   TowerCorrelation,
		Header: []string{"call_timestamp", "tower_timestamp", "phone_number", "called_number", "cell_id", "imsi", "time_diff_minutes"},
		Rows:   make([][]string, 0, len(matches)),
	}
	for _, m := range matches {
		t.Rows = append(t.Rows, []string{
			records.FormatTime(m.CallTimestamp),
			records.FormatTime(m.TowerTimestamp),
			m.PhoneNumber,
			m.CalledNumber,
			m.CellID,
			m.IMSI,
			formatFloat(m.TimeDiffMinutes),
		})
	}
	return t
}

// IPTable renders Call×IP matches. Every row names the join basis.
func IPTable(matches []correlation.IPMatch) *Table {
	t := &Table{
		Name:   IPCorrelation,
		Header: []string{"call_timestamp", "ip_timestamp", "phone_number", "called_number", "src_ip", "dst_ip", "protocol", "time_diff_minutes", "match_basis"},
		Rows:   make([][]string, 0, len(matches)),
	}
	for _, m := range matches {
		t.Rows = append(t.Rows, []string{
			records.FormatTime(m.CallTimestamp),
			records.FormatTime(m.IPTimestamp),
			m.PhoneNumber,
			m.CalledNumber,
			m.SrcIP,
			m.DstIP,
			m.Protocol,
			formatFloat(m.TimeDiffMinutes),
			correlation.ApproxTimeOnly,
		})
	}
	return t
}

// ComprehensiveTable renders the inner join of both passes.
func ComprehensiveTable(matches []correlation.ComprehensiveMatch) *Table {
	t := &Table{
		Name: AllCorrelation,
		Header: []string{
			"call_timestamp", "phone_number",
			"tower_timestamp", "called_number_cdr_tower", "cell_id", "imsi", "time_diff_minutes_cdr_tower",
			"ip_timestamp", "called_number_cdr_ip", "src_ip", "dst_ip", "protocol", "time_diff_minutes_cdr_ip",
		},
		Rows: make([][]string, 0, len(matches)),
	}
	for _, m := range matches {
		t.Rows = append(t.Rows, []string{
			records.FormatTime(m.CallTimestamp()),
			m.PhoneNumber(),
			records.FormatTime(m.Tower.TowerTimestamp),
			m.Tower.CalledNumber,
			m.Tower.CellID,
			m.Tower.IMSI,
			formatFloat(m.Tower.TimeDiffMinutes),
			records.FormatTime(m.IP.IPTimestamp),
			m.IP.CalledNumber,
			m.IP.SrcIP,
			m.IP.DstIP,
			m.IP.Protocol,
			formatFloat(m.IP.TimeDiffMinutes),
		})
	}
	return t
}

// CentralityTable renders the ranked centrality rows.
func CentralityTable(rows []algorithms.NodeCentrality) *Table {
	t := &Table{
		Name:   Centrality,
		Header: []string{"Node", "Degree Centrality", "Betweenness Centrality", "PageRank"},
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Node,
			formatFloat(r.Degree),
			formatFloat(r.Betweenness),
			formatFloat(r.PageRank),
		})
	}
	return t
}

// ComponentsTable renders connected components, one row per component.
func ComponentsTable(result *algorithms.ComponentResult) *Table {
	t := &Table{
		Name:   Components,
		Header: []string{"component", "size", "edges", "weight", "density", "nodes"},
	}
	if result == nil {
		return t
	}
	for _, c := range result.Components {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(c.ID),
			strconv.Itoa(c.Size),
			strconv.Itoa(c.Edges),
			strconv.Itoa(c.Weight),
			formatFloat(c.Density),
			strings.Join(c.Nodes, ";"),
		})
	}
	return t
}

// CoLocationTable renders co-location rows under the given table name.
func CoLocationTable(name string, matches []geo.CoLocation) *Table {
	t := &Table{
		Name:   name,
		Header: []string{"imsi1", "imsi2", "cell_id", "timestamp1", "timestamp2", "time_diff_minutes"},
		Rows:   make([][]string, 0, len(matches)),
	}
	for _, m := range matches {
		t.Rows = append(t.Rows, []string{
			m.IMSI1,
			m.IMSI2,
			m.CellID,
			records.FormatTime(m.Timestamp1),
			records.FormatTime(m.Timestamp2),
			formatFloat(m.TimeDiffMinutes),
		})
	}
	return t
}

// MovementTable renders movement rows under the given table name.
func MovementTable(name string, moves []geo.Movement) *Table {
	t := &Table{
		Name:   name,
		Header: []string{"imsi", "from_tower", "to_tower", "timestamp", "distance_km", "time_hours", "speed_kmh"},
		Rows:   make([][]string, 0, len(moves)),
	}
	for _, m := range moves {
		t.Rows = append(t.Rows, []string{
			m.IMSI,
			m.FromTower,
			m.ToTower,
			records.FormatTime(m.Timestamp),
			formatFloat(m.DistanceKm),
			formatFloat(m.TimeHours),
			formatFloat(m.SpeedKmh),
		})
	}
	return t
}

// CommonLocationsTable renders per-subject cell visit counts.
func CommonLocationsTable(counts []geo.LocationCount) *Table {
	t := &Table{
		Name:   CommonLocations,
		Header: []string{"imsi", "cell_id", "count"},
		Rows:   make([][]string, 0, len(counts)),
	}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.IMSI, c.CellID, strconv.Itoa(c.Count)})
	}
	return t
}

// CountTable renders a ranked key/count list.
func CountTable(name, keyHeader, countHeader string, counts []patterns.Count) *Table {
	t := &Table{
		Name:   name,
		Header: []string{keyHeader, countHeader},
		Rows:   make([][]string, 0, len(counts)),
	}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.Key, strconv.Itoa(c.Count)})
	}
	return t
}

// UnusualCallsTable renders calls flagged for their duration.
func UnusualCallsTable(calls []patterns.UnusualCall) *Table {
	t := &Table{
		Name:   UnusualCalls,
		Header: []string{"source_number", "destination_number", "timestamp", "duration", "call_type", "status"},
		Rows:   make([][]string, 0, len(calls)),
	}
	for _, u := range calls {
		t.Rows = append(t.Rows, []string{
			u.Call.SourceID,
			u.Call.DestinationID,
			records.FormatTime(u.Call.Timestamp),
			formatOptional(u.Call.Duration),
			u.Call.CallType,
			u.Call.Status,
		})
	}
	return t
}

// TrafficAnomaliesTable renders minutes with unusual flow counts.
func TrafficAnomaliesTable(minutes []patterns.MinuteTraffic) *Table {
	t := &Table{
		Name:   TrafficAnomalies,
		Header: []string{"minute", "flow_count"},
		Rows:   make([][]string, 0, len(minutes)),
	}
	for _, m := range minutes {
		t.Rows = append(t.Rows, []string{records.FormatTime(m.Minute), strconv.Itoa(m.Flows)})
	}
	return t
}

// CarrierTable renders the carrier directory join.
func CarrierTable(matches []correlation.CarrierMatch) *Table {
	t := &Table{
		Name:   CarrierCorrelation,
		Header: []string{"source_number", "destination_number", "timestamp", "carrier", "region", "line_type", "anomaly"},
		Rows:   make([][]string, 0, len(matches)),
	}
	for _, m := range matches {
		t.Rows = append(t.Rows, []string{
			m.SourceNumber,
			m.Destination,
			records.FormatTime(m.CallTimestamp),
			m.Carrier,
			m.Region,
			m.LineType,
			strconv.FormatBool(m.Anomaly),
		})
	}
	return t
}

// VoIPCallsTable renders the SIP INVITEs extracted from a packet capture.
func VoIPCallsTable(calls []records.VoIPCall) *Table {
	t := &Table{
		Name:   VoIPCalls,
		Header: []string{"call_id", "timestamp", "from_number", "to_number", "method", "src_ip", "dst_ip"},
		Rows:   make([][]string, 0, len(calls)),
	}
	for _, c := range calls {
		t.Rows = append(t.Rows, []string{
			c.CallID,
			records.FormatTime(c.Timestamp),
			c.FromNumber,
			c.ToNumber,
			c.Method,
			c.SrcIP,
			c.DstIP,
		})
	}
	return t
}
