package store

import (
	"sort"

	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/timetable"
	"github.com/railvorhersage/predictengine/internal/timeutil"
)

// Memory is a plain in-memory Store built from Go literals — used by
// tests and as the store LoadCSV returns.
type Memory struct {
	trains []*timetable.Train
	rules  []minstoptime.Rule
}

// NewMemory builds a Memory store. trains need not be pre-sorted by
// sorttime; NewMemory sorts a copy so TrainsWithSorttimeBetween can
// return results in the order spec.md §5 requires.
func NewMemory(trains []*timetable.Train, rules []minstoptime.Rule) *Memory {
	sorted := append([]*timetable.Train(nil), trains...)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := trainSorttime(sorted[i]), trainSorttime(sorted[j])
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return &Memory{trains: sorted, rules: append([]minstoptime.Rule(nil), rules...)}
}

func trainSorttime(t *timetable.Train) timeutil.TimeOfDay {
	if len(t.Entries) == 0 {
		return timeutil.Zero
	}
	return t.Entries[0].Sorttime
}

// TrainsWithSorttimeBetween implements Store.
func (m *Memory) TrainsWithSorttimeBetween(from, to timeutil.TimeOfDay) ([]*timetable.Train, error) {
	var out []*timetable.Train
	for _, tr := range m.trains {
		if len(tr.Entries) == 0 {
			continue
		}
		st := trainSorttime(tr)
		if !st.Before(from) && !st.After(to) {
			out = append(out, tr)
		}
	}
	return out, nil
}

// MinimumStopTimeRules implements Store.
func (m *Memory) MinimumStopTimeRules() ([]minstoptime.Rule, error) {
	return append([]minstoptime.Rule(nil), m.rules...), nil
}
