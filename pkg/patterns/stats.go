// Package patterns finds per-table behavioural outliers in CDR and IPDR data:
// frequent contacts, unusually long calls, top talkers and traffic spikes.
package patterns

import (
	"math"
	"sort"
)

// Sigma is the number of standard deviations above the mean that counts as unusual.
const Sigma = 3.0

// Summary describes a sample and the outlier threshold derived from it.
type Summary struct {
	N         int     `json:"n"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Threshold float64 `json:"threshold"`
}

// Valid reports whether the sample is large enough to have a threshold.
func (s Summary) Valid() bool { return s.N >= 2 }

// summarize computes the mean, the sample standard deviation and
// mean + Sigma*std. Samples of fewer than two values have no threshold.
func summarize(values []float64) Summary {
	s := Summary{N: len(values)}
	if s.N == 0 {
		return s
	}
	for _, v := range values {
		s.Mean += v
	}
	s.Mean /= float64(s.N)
	if s.N < 2 {
		s.Threshold = math.Inf(1)
		return s
	}

	sq := 0.0
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(s.N-1))
	s.Threshold = s.Mean + Sigma*s.StdDev
	return s
}

// Count is a key and how often it occurred.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// rank orders counts descending, ties by key.
func rank(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
