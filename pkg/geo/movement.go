package geo

import (
	"time"

	"github.com/dd0wney/cluso-telco/pkg/records"
)

// DefaultSpeedThresholdKmh flags movement no ground vehicle would plausibly make.
const DefaultSpeedThresholdKmh = 100.0

// Movement is the implied travel between two consecutive pings of a subject.
type Movement struct {
	IMSI       string
	FromTower  string
	ToTower    string
	Timestamp  time.Time // time of the earlier ping
	DistanceKm float64
	TimeHours  float64
	SpeedKmh   float64
}

// MovementSpeed sorts one subject's pings by time and computes speed for each
// adjacent pair. A pair is skipped when either cell has no known location or
// when the elapsed time is not strictly positive. Pings without a timestamp
// cannot be ordered and are dropped first.
func MovementSpeed(imsi string, pings []records.TowerPingRecord, towers *records.TowerTable) []Movement {
	sorted := records.SortPingsByTime(pings)

	var out []Movement
	for i := 0; i+1 < len(sorted); i++ {
		cur, next := sorted[i], sorted[i+1]

		from, ok := towers.Lookup(cur.CellID)
		if !ok {
			continue
		}
		to, ok := towers.Lookup(next.CellID)
		if !ok {
			continue
		}

		hours := next.Timestamp.Sub(cur.Timestamp).Hours()
		if hours <= 0 {
			continue
		}

		distance := Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
		out = append(out, Movement{
			IMSI:       imsi,
			FromTower:  cur.CellID,
			ToTower:    next.CellID,
			Timestamp:  cur.Timestamp,
			DistanceKm: distance,
			TimeHours:  hours,
			SpeedKmh:   distance / hours,
		})
	}
	return out
}

// SubjectMovement computes MovementSpeed for one IMSI of the store.
func SubjectMovement(store *records.Store, imsi string, towers *records.TowerTable) []Movement {
	if store == nil {
		return nil
	}
	return MovementSpeed(imsi, store.PingsForSubject(imsi), towers)
}

// AllMovement computes MovementSpeed for every subject, by IMSI.
func AllMovement(store *records.Store, towers *records.TowerTable) []Movement {
	if store == nil || towers.Len() == 0 {
		return nil
	}
	var out []Movement
	for _, imsi := range store.Subjects() {
		out = append(out, SubjectMovement(store, imsi, towers)...)
	}
	return out
}

// UnusualMovement keeps the rows whose speed exceeds thresholdKmh.
func UnusualMovement(moves []Movement, thresholdKmh float64) []Movement {
	var out []Movement
	for _, m := range moves {
		if m.SpeedKmh > thresholdKmh {
			out = append(out, m)
		}
	}
	return out
}

// UnknownCells counts pings whose cell has no known location.
func UnknownCells(pings []records.TowerPingRecord, towers *records.TowerTable) int {
	n := 0
	for _, p := range pings {
		if _, ok := towers.Lookup(p.CellID); !ok {
			n++
		}
	}
	return n
}
