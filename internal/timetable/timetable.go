// Package timetable holds the per-train timetable data model (spec
// component C3): one Entry per (train, location) visit, carrying the
// plan/want/real/pred triples described in spec.md §3.
//
// Grounded on zwl/database.py's CommonTimetable/SessionTimetable models,
// generalised from the wire-format string columns there into typed,
// nullable Go fields.
package timetable

import (
	"time"

	"github.com/railvorhersage/predictengine/internal/timeutil"
)

// Entry is one (train, location) visit in a train's timetable.
type Entry struct {
	TrainID  string
	Loc      string
	Sorttime timeutil.TimeOfDay

	ArrPlan  *timeutil.TimeOfDay
	DepPlan  *timeutil.TimeOfDay
	TrackPlan *int

	ArrWant  *timeutil.TimeOfDay
	DepWant  *timeutil.TimeOfDay
	TrackWant *int

	ArrReal  *timeutil.TimeOfDay
	DepReal  *timeutil.TimeOfDay
	TrackReal *int

	// ArrPred/DepPred are the engine's output channel. They carry no
	// track field (spec §3) and are cleared at the start of every
	// prediction run.
	ArrPred *timeutil.TimeOfDay
	DepPred *timeutil.TimeOfDay

	// MinRideTime/MinStopTime are optional per-entry overrides of the
	// default ride-time ratio / the minimum-stop-time lookup (C4).
	MinRideTime *time.Duration
	MinStopTime *time.Duration
}

// ClearPredictions nulls ArrPred/DepPred, as required at the start of
// every Journey (spec §4.4.1): "Before producing any action, clear all
// arr_pred/dep_pred fields to null."
func (e *Entry) ClearPredictions() {
	e.ArrPred = nil
	e.DepPred = nil
}

// Train is one train with its ordered timetable.
type Train struct {
	ID   string
	Nr   int
	Type string
	// Entries must already be ordered by Sorttime (spec invariant:
	// within a single train's timetable, sorttime is strictly
	// non-decreasing).
	Entries []*Entry
}
