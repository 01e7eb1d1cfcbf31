package geo

import (
	"sort"
	"time"

	"github.com/dd0wney/cluso-telco/pkg/records"
)

// DefaultBucket is the co-location time bucket width.
const DefaultBucket = time.Hour

// CoLocation is one pair of pings from two subjects on the same cell within
// the same time bucket.
type CoLocation struct {
	IMSI1           string
	IMSI2           string
	CellID          string
	Timestamp1      time.Time
	Timestamp2      time.Time
	TimeDiffMinutes float64
}

type bucketKey struct {
	cell  string
	start int64
}

func keyOf(p records.TowerPingRecord, width time.Duration) bucketKey {
	return bucketKey{cell: p.CellID, start: wallBucket(p.Timestamp, width)}
}

// wallBucket floors t to a multiple of width on the wall clock of its own
// zone. time.Time.Truncate floors absolute time, which splits local hours in
// zones with a fractional-hour offset.
func wallBucket(t time.Time, width time.Duration) int64 {
	_, offset := t.Zone()
	wall := t.Add(time.Duration(offset) * time.Second)
	return wall.Truncate(width).UnixNano()
}

func diffMinutes(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Minutes()
}

// CoLocate returns every pair of pings of imsiA and imsiB that share a cell and
// a bucket of the given width. Rows follow imsiA's pings in time order, then
// imsiB's. Pings without a timestamp are ignored; tower coordinates are not
// needed.
func CoLocate(store *records.Store, imsiA, imsiB string, width time.Duration) []CoLocation {
	if store == nil || imsiA == imsiB {
		return nil
	}
	if width <= 0 {
		width = DefaultBucket
	}

	index := store.PingsBySubject()
	a, b := index.Get(imsiA), index.Get(imsiB)
	if a.Len() == 0 || b.Len() == 0 {
		return nil
	}

	pings := store.Pings()
	buckets := make(map[bucketKey][]int, b.Len())
	for _, pos := range b.Positions() {
		k := keyOf(pings[pos], width)
		buckets[k] = append(buckets[k], pos)
	}

	var out []CoLocation
	for _, pa := range a.Positions() {
		p1 := pings[pa]
		for _, pb := range buckets[keyOf(p1, width)] {
			p2 := pings[pb]
			out = append(out, CoLocation{
				IMSI1:           imsiA,
				IMSI2:           imsiB,
				CellID:          p1.CellID,
				Timestamp1:      p1.Timestamp,
				Timestamp2:      p2.Timestamp,
				TimeDiffMinutes: diffMinutes(p1.Timestamp, p2.Timestamp),
			})
		}
	}
	return out
}

// CoLocateAll buckets every timestamped ping by (cell, bucket) and emits each
// pair of pings from distinct subjects, with IMSI1 < IMSI2. Rows are ordered
// by cell, bucket start and timestamps.
func CoLocateAll(store *records.Store, width time.Duration) []CoLocation {
	if store == nil {
		return nil
	}
	if width <= 0 {
		width = DefaultBucket
	}

	pings := store.Pings()
	buckets := make(map[bucketKey][]int)
	for _, imsi := range store.Subjects() {
		for _, pos := range store.PingsBySubject().Get(imsi).Positions() {
			k := keyOf(pings[pos], width)
			buckets[k] = append(buckets[k], pos)
		}
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k, members := range buckets {
		if len(members) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].cell != keys[j].cell {
			return keys[i].cell < keys[j].cell
		}
		return keys[i].start < keys[j].start
	})

	var out []CoLocation
	for _, k := range keys {
		members := buckets[k]
		sort.SliceStable(members, func(i, j int) bool {
			return pings[members[i]].Timestamp.Before(pings[members[j]].Timestamp)
		})
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				p1, p2 := pings[members[i]], pings[members[j]]
				if p1.SubjectID == p2.SubjectID {
					continue
				}
				if p2.SubjectID < p1.SubjectID {
					p1, p2 = p2, p1
				}
				out = append(out, CoLocation{
					IMSI1:           p1.SubjectID,
					IMSI2:           p2.SubjectID,
					CellID:          k.cell,
					Timestamp1:      p1.Timestamp,
					Timestamp2:      p2.Timestamp,
					TimeDiffMinutes: diffMinutes(p1.Timestamp, p2.Timestamp),
				})
			}
		}
	}
	return out
}

// LocationCount is how often a subject was seen on one cell.
type LocationCount struct {
	IMSI   string
	CellID string
	Count  int
}

// CommonLocations counts a subject's pings per cell, most visited first.
// Pings without a timestamp still count.
func CommonLocations(store *records.Store, imsi string) []LocationCount {
	if store == nil {
		return nil
	}
	counts := make(map[string]int)
	for _, p := range store.Pings() {
		if p.SubjectID == imsi {
			counts[p.CellID]++
		}
	}
	return sortedCounts(imsi, counts)
}

// AllCommonLocations returns CommonLocations for every subject, by IMSI.
func AllCommonLocations(store *records.Store) []LocationCount {
	if store == nil {
		return nil
	}
	bySubject := make(map[string]map[string]int)
	for _, p := range store.Pings() {
		if p.SubjectID == "" {
			continue
		}
		if bySubject[p.SubjectID] == nil {
			bySubject[p.SubjectID] = make(map[string]int)
		}
		bySubject[p.SubjectID][p.CellID]++
	}

	subjects := make([]string, 0, len(bySubject))
	for imsi := range bySubject {
		subjects = append(subjects, imsi)
	}
	sort.Strings(subjects)

	var out []LocationCount
	for _, imsi := range subjects {
		out = append(out, sortedCounts(imsi, bySubject[imsi])...)
	}
	return out
}

func sortedCounts(imsi string, counts map[string]int) []LocationCount {
	out := make([]LocationCount, 0, len(counts))
	for cell, n := range counts {
		out = append(out, LocationCount{IMSI: imsi, CellID: cell, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CellID < out[j].CellID
	})
	return out
}
