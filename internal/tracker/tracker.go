// Package tracker accumulates vessel observations over one collection
// window and produces the distance-ordered snapshot the report is built
// from.
package tracker

import "sort"

// Observation is a single decoded vessel position, already related to the
// reference point. Observations live only for the duration of one run.
type Observation struct {
	MMSI       string
	Name       string
	Latitude   float64
	Longitude  float64
	DistanceNM float64
	SOG        *float64 // speed over ground, knots
	COG        *float64 // course over ground, degrees
	TimeUTC    string   // source-provided timestamp, may be empty
}

// List holds at most one observation per vessel. A new observation for a
// known MMSI replaces the old one; the vessel keeps its original insertion
// position so snapshot ordering stays stable across updates.
type List struct {
	byMMSI map[string]int
	order  []Observation
}

// NewList returns an empty observation list.
func NewList() *List {
	return &List{
		byMMSI: make(map[string]int),
	}
}

// Record inserts obs, replacing any previous observation with the same MMSI.
func (l *List) Record(obs Observation) {
	if i, ok := l.byMMSI[obs.MMSI]; ok {
		l.order[i] = obs
		return
	}
	l.byMMSI[obs.MMSI] = len(l.order)
	l.order = append(l.order, obs)
}

// Count returns the number of distinct vessels recorded.
func (l *List) Count() int {
	return len(l.order)
}

// Snapshot returns the observations sorted ascending by distance. Equal
// distances keep their insertion order.
func (l *List) Snapshot() []Observation {
	out := make([]Observation, len(l.order))
	copy(out, l.order)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceNM < out[j].DistanceNM
	})
	return out
}
