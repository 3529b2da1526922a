// Package minstoptime implements the hierarchical minimum-stop-time
// lookup (spec component C4): dwell minima resolved by
// (train-type, location, track), falling back through increasingly
// general rules to a mandatory global default.
//
// Grounded on zwl/database.py's MinimumStopTime model and its lookup
// classmethod (only referenced, not retained, in the surviving source
// snapshot; the specificity order is taken from spec.md §4.3, which is
// authoritative here).
package minstoptime

import (
	"github.com/railvorhersage/predictengine/internal/zwlerr"
)

// Rule is one minimum-stop-time row. An empty TrainType/Location means
// "unset" for that dimension; a nil Track means "unset".
type Rule struct {
	Seconds   int
	TrainType string
	Location  string
	Track     *int
}

func trackEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// tier describes one specificity level in the resolution order.
type tier struct {
	needType, needLoc, needTrack bool
}

// order is most-specific first, exactly spec.md §4.3:
// (type,loc,track) > (type,loc) > (loc,track) > (loc) > (type) > global.
var order = []tier{
	{needType: true, needLoc: true, needTrack: true},
	{needType: true, needLoc: true, needTrack: false},
	{needType: false, needLoc: true, needTrack: true},
	{needType: false, needLoc: true, needTrack: false},
	{needType: true, needLoc: false, needTrack: false},
	{needType: false, needLoc: false, needTrack: false},
}

func (tr tier) matches(r Rule, trainType, location string, track *int) bool {
	typeSet := r.TrainType != ""
	locSet := r.Location != ""
	trackSet := r.Track != nil

	if typeSet != tr.needType || locSet != tr.needLoc || trackSet != tr.needTrack {
		return false
	}
	if tr.needType && r.TrainType != trainType {
		return false
	}
	if tr.needLoc && r.Location != location {
		return false
	}
	if tr.needTrack && !trackEqual(r.Track, track) {
		return false
	}
	return true
}

// Table holds the set of minimum-stop-time rules and resolves lookups
// against them.
type Table struct {
	rules []Rule
}

// NewTable builds a Table from the given rules. It does not itself
// validate that a global rule is present — Lookup fails with NoDefault
// at the first lookup that needs it if setup omitted one, per spec
// §4.3 ("implementations must guarantee a global rule at setup time").
func NewTable(rules []Rule) *Table {
	return &Table{rules: append([]Rule(nil), rules...)}
}

// Lookup resolves the minimum stop time, in seconds, for the given
// train type at the given (optional) location/track, walking the
// specificity order in spec.md §4.3. Fails with NoDefault if no rule
// matches at all, including the global fallback.
func (t *Table) Lookup(trainType, location string, track *int) (int, error) {
	for _, tr := range order {
		for _, r := range t.rules {
			if tr.matches(r, trainType, location, track) {
				return r.Seconds, nil
			}
		}
	}
	return 0, zwlerr.New(zwlerr.NoDefault, "no minimum-stop-time rule (including global default) matches type=%q loc=%q track=%v", trainType, location, track)
}
