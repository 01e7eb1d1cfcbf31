package records

import (
	"time"
)

// TimestampLayout is the layout used for every timestamp written to output tables.
const TimestampLayout = "2006-01-02 15:04:05"

// CallRecord is one telephone transaction from a CDR table.
type CallRecord struct {
	SourceID      string
	DestinationID string
	Timestamp     time.Time // zero when missing or unparsable
	Duration      *float64  // seconds; nil when missing or malformed
	CallType      string
	Status        string
}

// HasTimestamp reports whether the call carries a usable timestamp.
func (c CallRecord) HasTimestamp() bool {
	return !c.Timestamp.IsZero()
}

// IPFlowRecord is one IP traffic flow from an IPDR table.
type IPFlowRecord struct {
	Timestamp     time.Time
	SrcIP         string // empty when missing or not an IP literal
	DstIP         string
	Protocol      string
	SrcPort       *int64
	DstPort       *int64
	BytesSent     *int64
	BytesReceived *int64
}

// HasTimestamp reports whether the flow carries a usable timestamp.
func (f IPFlowRecord) HasTimestamp() bool {
	return !f.Timestamp.IsZero()
}

// VoIPCall is one SIP INVITE seen in a packet capture.
type VoIPCall struct {
	CallID     string
	Timestamp  time.Time
	FromNumber string // user part of the From URI
	ToNumber   string // user part of the To URI
	Method     string
	SrcIP      string
	DstIP      string
}

// TowerPingRecord associates a subscriber device with a cell at an instant.
// The linked call fields are populated when the tower dump carries them.
type TowerPingRecord struct {
	SubjectID         string // IMSI
	DeviceID          string // IMEI
	CellID            string
	Timestamp         time.Time
	SourceNumber      string
	DestinationNumber string
	CallType          string
	Duration          *float64
}

// HasTimestamp reports whether the ping carries a usable timestamp.
func (p TowerPingRecord) HasTimestamp() bool {
	return !p.Timestamp.IsZero()
}

// TowerLocation is the position and metadata of a cell.
type TowerLocation struct {
	CellID     string
	Latitude   float64
	Longitude  float64
	Operator   string
	Technology string
}

// FormatTime renders t with TimestampLayout, or the empty string for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// CarrierInfo is one row of an offline subscriber/carrier directory.
type CarrierInfo struct {
	PhoneNumber string
	Carrier     string
	Region      string
	LineType    string
}
