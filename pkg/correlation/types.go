package correlation

import (
	"time"
)

// ApproxTimeOnly names the Call×IP join strategy. Calls carry no IP identity,
// so flows are paired with calls on time proximity alone.
const ApproxTimeOnly = "time-window-only"

const (
	DefaultTowerWindow = 30 * time.Minute
	DefaultIPWindow    = 5 * time.Minute
)

// Options configures one correlation run.
type Options struct {
	TowerWindow time.Duration
	IPWindow    time.Duration
}

// DefaultOptions returns the standard windows.
func DefaultOptions() Options {
	return Options{
		TowerWindow: DefaultTowerWindow,
		IPWindow:    DefaultIPWindow,
	}
}

// TowerMatch pairs a call with a tower ping of the same calling number.
type TowerMatch struct {
	CallIndex       int
	PingIndex       int
	CallTimestamp   time.Time
	TowerTimestamp  time.Time
	PhoneNumber     string
	CalledNumber    string
	CellID          string
	IMSI            string
	TimeDiffMinutes float64
}

// IPMatch pairs a call with an IP flow observed near the same instant.
type IPMatch struct {
	CallIndex       int
	FlowIndex       int
	CallTimestamp   time.Time
	IPTimestamp     time.Time
	PhoneNumber     string
	CalledNumber    string
	SrcIP           string
	DstIP           string
	Protocol        string
	TimeDiffMinutes float64
}

// ComprehensiveMatch is a tower match and an IP match sharing the same call
// timestamp and calling number.
type ComprehensiveMatch struct {
	Tower TowerMatch
	IP    IPMatch
}

// CallTimestamp returns the shared call instant.
func (m ComprehensiveMatch) CallTimestamp() time.Time { return m.Tower.CallTimestamp }

// PhoneNumber returns the shared calling number.
func (m ComprehensiveMatch) PhoneNumber() string { return m.Tower.PhoneNumber }

// Result holds the three correlation passes of one run.
type Result struct {
	Tower         []TowerMatch
	IP            []IPMatch
	All           []ComprehensiveMatch
	Approximation string

	// Elapsed is the wall time of each pass, keyed by pass name.
	Elapsed map[string]time.Duration
}

// Pass names.
const (
	PassTower         = "tower"
	PassIP            = "ip"
	PassComprehensive = "comprehensive"
)

// CarrierMatch is one call joined with the carrier directory on the calling
// number. Anomaly is set when the number has no directory entry.
type CarrierMatch struct {
	CallIndex     int
	SourceNumber  string
	Destination   string
	CallTimestamp time.Time
	Carrier       string
	Region        string
	LineType      string
	Anomaly       bool
}

func minutesBetween(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Minutes()
}
