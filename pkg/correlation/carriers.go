package correlation

import (
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// CorrelateCarriers left-joins calls with an offline carrier directory on the
// calling number. A call with several directory entries yields one row per
// entry; a call with none yields a single row flagged as an anomaly.
func CorrelateCarriers(calls []records.CallRecord, directory []records.CarrierInfo) []CarrierMatch {
	if len(calls) == 0 {
		return nil
	}

	byNumber := make(map[string][]records.CarrierInfo, len(directory))
	for _, c := range directory {
		byNumber[c.PhoneNumber] = append(byNumber[c.PhoneNumber], c)
	}

	out := make([]CarrierMatch, 0, len(calls))
	for i, call := range calls {
		base := CarrierMatch{
			CallIndex:     i,
			SourceNumber:  call.SourceID,
			Destination:   call.DestinationID,
			CallTimestamp: call.Timestamp,
		}
		entries := byNumber[call.SourceID]
		if len(entries) == 0 {
			base.Anomaly = true
			out = append(out, base)
			continue
		}
		for _, e := range entries {
			m := base
			m.Carrier = e.Carrier
			m.Region = e.Region
			m.LineType = e.LineType
			m.Anomaly = e.Carrier == ""
			out = append(out, m)
		}
	}
	return out
}

// CountAnomalies returns the number of rows without a known carrier.
func CountAnomalies(matches []CarrierMatch) int {
	n := 0
	for _, m := range matches {
		if m.Anomaly {
			n++
		}
	}
	return n
}
