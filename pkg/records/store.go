package records

import (
	"sort"
	"time"
)

// Store holds the normalized tables of one analysis run. It is built once and
// never mutated; a changed input means building a new Store.
type Store struct {
	calls []CallRecord
	flows []IPFlowRecord
	pings []TowerPingRecord

	callTimeline   *Timeline
	flowTimeline   *Timeline
	pingsBySource  *KeyedTimeline
	pingsBySubject *KeyedTimeline
}

// NewStore copies the given tables and builds their timestamp indexes.
// Any table may be nil.
func NewStore(calls []CallRecord, flows []IPFlowRecord, pings []TowerPingRecord) *Store {
	s := &Store{
		calls: append([]CallRecord(nil), calls...),
		flows: append([]IPFlowRecord(nil), flows...),
		pings: append([]TowerPingRecord(nil), pings...),
	}

	s.callTimeline = NewTimeline(len(s.calls), func(i int) time.Time { return s.calls[i].Timestamp })
	s.flowTimeline = NewTimeline(len(s.flows), func(i int) time.Time { return s.flows[i].Timestamp })
	s.pingsBySource = NewKeyedTimeline(len(s.pings),
		func(i int) string { return s.pings[i].SourceNumber },
		func(i int) time.Time { return s.pings[i].Timestamp })
	s.pingsBySubject = NewKeyedTimeline(len(s.pings),
		func(i int) string { return s.pings[i].SubjectID },
		func(i int) time.Time { return s.pings[i].Timestamp })

	return s
}

// Calls returns the CDR table in input order.
func (s *Store) Calls() []CallRecord { return s.calls }

// Flows returns the IPDR table in input order.
func (s *Store) Flows() []IPFlowRecord { return s.flows }

// Pings returns the TDR table in input order.
func (s *Store) Pings() []TowerPingRecord { return s.pings }

// CallTimeline indexes calls by timestamp.
func (s *Store) CallTimeline() *Timeline { return s.callTimeline }

// FlowTimeline indexes flows by timestamp.
func (s *Store) FlowTimeline() *Timeline { return s.flowTimeline }

// PingsBySource indexes pings by their linked source number, then timestamp.
func (s *Store) PingsBySource() *KeyedTimeline { return s.pingsBySource }

// PingsBySubject indexes pings by IMSI, then timestamp.
func (s *Store) PingsBySubject() *KeyedTimeline { return s.pingsBySubject }

// Subjects returns the distinct IMSIs of the tower dump in ascending order.
func (s *Store) Subjects() []string {
	return s.pingsBySubject.Keys()
}

// PingsForSubject returns one subject's timestamped pings, oldest first.
func (s *Store) PingsForSubject(imsi string) []TowerPingRecord {
	tl := s.pingsBySubject.Get(imsi)
	if tl == nil {
		return nil
	}
	out := make([]TowerPingRecord, 0, tl.Len())
	for _, p := range tl.Positions() {
		out = append(out, s.pings[p])
	}
	return out
}

// Counts summarises table sizes for logging and reports.
type Counts struct {
	Calls int `json:"calls"`
	Flows int `json:"flows"`
	Pings int `json:"pings"`
}

// Counts returns the number of rows in each table.
func (s *Store) Counts() Counts {
	return Counts{Calls: len(s.calls), Flows: len(s.flows), Pings: len(s.pings)}
}

// TimeSpan returns the earliest and latest call timestamps, or two zero
// times when no call is timestamped.
func (s *Store) TimeSpan() (first, last time.Time) {
	pos := s.callTimeline.Positions()
	if len(pos) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.calls[pos[0]].Timestamp, s.calls[pos[len(pos)-1]].Timestamp
}

// SortPingsByTime returns a copy of pings ordered by timestamp, keeping input
// order for ties. Pings without a timestamp are dropped.
func SortPingsByTime(pings []TowerPingRecord) []TowerPingRecord {
	out := make([]TowerPingRecord, 0, len(pings))
	for _, p := range pings {
		if p.HasTimestamp() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
