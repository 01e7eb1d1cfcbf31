package patterns

import (
	"sort"
	"time"

	"github.com/dd0wney/cluso-telco/pkg/records"
)

// DefaultTopTalkers is the number of addresses reported per direction.
const DefaultTopTalkers = 10

// TopTalkers returns the n most frequent source and destination addresses.
// Flows with an invalid address are not counted for that side.
func TopTalkers(flows []records.IPFlowRecord, n int) (sources, destinations []Count) {
	src := make(map[string]int)
	dst := make(map[string]int)
	for _, f := range flows {
		if f.SrcIP != "" {
			src[f.SrcIP]++
		}
		if f.DstIP != "" {
			dst[f.DstIP]++
		}
	}
	return head(rank(src), n), head(rank(dst), n)
}

func head(counts []Count, n int) []Count {
	if n >= 0 && len(counts) > n {
		return counts[:n]
	}
	return counts
}

// ProtocolDistribution counts flows per protocol, most common first.
func ProtocolDistribution(flows []records.IPFlowRecord) []Count {
	counts := make(map[string]int)
	for _, f := range flows {
		counts[f.Protocol]++
	}
	return rank(counts)
}

// MinuteTraffic is the number of flows that started within one minute.
type MinuteTraffic struct {
	Minute time.Time
	Flows  int
}

// TrafficAnomalies buckets timestamped flows per minute and returns the
// minutes whose flow count exceeds mean + 3 sample standard deviations of the
// per-minute counts, in time order. Only minutes with traffic are counted.
// Each minute is reported in the zone of the first flow seen in it.
func TrafficAnomalies(flows []records.IPFlowRecord) ([]MinuteTraffic, Summary) {
	perMinute := make(map[int64]int)
	zones := make(map[int64]*time.Location)
	for _, f := range flows {
		if !f.HasTimestamp() {
			continue
		}
		m := f.Timestamp.Truncate(time.Minute).Unix()
		if _, seen := zones[m]; !seen {
			zones[m] = f.Timestamp.Location()
		}
		perMinute[m]++
	}

	minutes := make([]int64, 0, len(perMinute))
	values := make([]float64, 0, len(perMinute))
	for m := range perMinute {
		minutes = append(minutes, m)
	}
	sort.Slice(minutes, func(i, j int) bool { return minutes[i] < minutes[j] })
	for _, m := range minutes {
		values = append(values, float64(perMinute[m]))
	}

	s := summarize(values)
	if !s.Valid() {
		return nil, s
	}

	var out []MinuteTraffic
	for _, m := range minutes {
		if float64(perMinute[m]) > s.Threshold {
			out = append(out, MinuteTraffic{Minute: time.Unix(m, 0).In(zones[m]), Flows: perMinute[m]})
		}
	}
	return out, s
}
