package patterns

import (
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// DefaultFrequentContactThreshold is the call count a destination must exceed.
const DefaultFrequentContactThreshold = 5

// FrequentContacts returns destinations called more than threshold times,
// most called first.
func FrequentContacts(calls []records.CallRecord, threshold int) []Count {
	counts := make(map[string]int)
	for _, c := range calls {
		if c.DestinationID != "" {
			counts[c.DestinationID]++
		}
	}

	var out []Count
	for _, c := range rank(counts) {
		if c.Count > threshold {
			out = append(out, c)
		}
	}
	return out
}

// UnusualCall is a call whose duration exceeds the outlier threshold.
type UnusualCall struct {
	Index int
	Call  records.CallRecord
}

// UnusualDurations flags calls longer than mean + 3 sample standard
// deviations. Calls without a duration are left out of both the statistics
// and the result.
func UnusualDurations(calls []records.CallRecord) ([]UnusualCall, Summary) {
	values := make([]float64, 0, len(calls))
	for _, c := range calls {
		if c.Duration != nil {
			values = append(values, *c.Duration)
		}
	}

	s := summarize(values)
	if !s.Valid() {
		return nil, s
	}

	var out []UnusualCall
	for i, c := range calls {
		if c.Duration != nil && *c.Duration > s.Threshold {
			out = append(out, UnusualCall{Index: i, Call: c})
		}
	}
	return out, s
}
