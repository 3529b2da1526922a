// Package store defines the read-only storage surface the prediction
// engine's core needs (spec component C7): fetching a train's ordered
// timetable entries and the minimum-stop-time rule set. The core never
// persists predictions through this interface — spec.md §6 is explicit
// that `*_pred` fields are written in memory only.
package store

import (
	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/timetable"
	"github.com/railvorhersage/predictengine/internal/timeutil"
)

// Store is the storage-layer contract consumed by manager.FromTimestamp.
// Memory (also what LoadCSV returns) and SQLite satisfy it.
type Store interface {
	// TrainsWithSorttimeBetween returns every train whose first
	// timetable entry's sorttime falls in [from, to], ordered by that
	// sorttime ascending (matching Train.id order for ties, per
	// spec.md §5's tie-break rule).
	TrainsWithSorttimeBetween(from, to timeutil.TimeOfDay) ([]*timetable.Train, error)
	// MinimumStopTimeRules returns every configured minimum-stop-time
	// rule, including the mandatory global default.
	MinimumStopTimeRules() ([]minstoptime.Rule, error)
}

// TrainRecord is the flat row shape of one train, before its
// timetable entries are attached. The adapters in this package do not
// use TrainRecord, TimetableRow or StopTimeRule: csv.go decodes into its
// own tagged row types and sqlite.go scans columns directly.
type TrainRecord struct {
	ID   string
	Nr   int
	Type string
}

// TimetableRow is the flat row shape of one (train, location) visit.
type TimetableRow struct {
	TrainID   string
	Loc       string
	Sorttime  string
	ArrPlan   string
	DepPlan   string
	TrackPlan string
	ArrWant   string
	DepWant   string
	TrackWant string
	ArrReal   string
	DepReal   string
	TrackReal string
}

// StopTimeRule is the flat row shape for one minimum-stop-time rule.
// Empty TrainType/Location/Track means "unset" for that dimension,
// matching minstoptime.Rule.
type StopTimeRule struct {
	Seconds   int
	TrainType string
	Location  string
	Track     string
}
