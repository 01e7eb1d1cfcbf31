package records

import (
	"sort"
	"time"
)

// Timeline is an immutable index of record positions ordered by timestamp.
// Records with a zero timestamp are left out. Ties keep input order.
type Timeline struct {
	times []time.Time
	pos   []int
}

// NewTimeline indexes n records whose timestamps are returned by at.
func NewTimeline(n int, at func(i int) time.Time) *Timeline {
	pos := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !at(i).IsZero() {
			pos = append(pos, i)
		}
	}
	sort.SliceStable(pos, func(a, b int) bool {
		return at(pos[a]).Before(at(pos[b]))
	})

	times := make([]time.Time, len(pos))
	for i, p := range pos {
		times[i] = at(p)
	}
	return &Timeline{times: times, pos: pos}
}

// Len returns the number of indexed records.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pos)
}

// Range calls fn with the position and timestamp of every record whose
// timestamp lies in the closed interval [from, to], in timestamp order.
// Cost is O(log n + k).
func (t *Timeline) Range(from, to time.Time, fn func(pos int, ts time.Time)) {
	if t == nil || to.Before(from) {
		return
	}
	start := sort.Search(len(t.times), func(i int) bool {
		return !t.times[i].Before(from)
	})
	for i := start; i < len(t.times) && !t.times[i].After(to); i++ {
		fn(t.pos[i], t.times[i])
	}
}

// Positions returns the indexed positions in timestamp order.
func (t *Timeline) Positions() []int {
	if t == nil {
		return nil
	}
	out := make([]int, len(t.pos))
	copy(out, t.pos)
	return out
}

// KeyedTimeline partitions records by a string key and keeps one Timeline per key.
// Records with an empty key are left out.
type KeyedTimeline struct {
	byKey map[string]*Timeline
}

// NewKeyedTimeline builds a per-key index over n records.
func NewKeyedTimeline(n int, key func(i int) string, at func(i int) time.Time) *KeyedTimeline {
	groups := make(map[string][]int)
	for i := 0; i < n; i++ {
		k := key(i)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], i)
	}

	byKey := make(map[string]*Timeline, len(groups))
	for k, members := range groups {
		tl := NewTimeline(len(members), func(j int) time.Time { return at(members[j]) })
		// translate group-local positions back to record positions
		for j, local := range tl.pos {
			tl.pos[j] = members[local]
		}
		byKey[k] = tl
	}
	return &KeyedTimeline{byKey: byKey}
}

// Get returns the timeline for key, or nil when the key was never seen.
func (k *KeyedTimeline) Get(key string) *Timeline {
	if k == nil {
		return nil
	}
	return k.byKey[key]
}

// Keys returns all keys in ascending order.
func (k *KeyedTimeline) Keys() []string {
	if k == nil {
		return nil
	}
	keys := make([]string, 0, len(k.byKey))
	for key := range k.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
