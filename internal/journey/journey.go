// Package journey implements the per-train Journey state machine
// (spec component C5): a lazy producer of Actions driven by the
// current timetable and simulated "now", consuming dispatcher feedback
// after each.
//
// Grounded on zwl/predict.py's Journey class, which expresses this as a
// Python generator (`run`); per spec.md §9 design notes, this is
// reimplemented here as an explicit state machine over `position` with
// a sub-phase field, driven by Step(Response) (Action | done), which
// eliminates stack-captured coroutine state and keeps the scheduler
// (the Manager) fully in control of when each Journey resumes.
package journey

import (
	"math"
	"time"

	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/timetable"
	"github.com/railvorhersage/predictengine/internal/timeutil"
	"github.com/railvorhersage/predictengine/internal/zwlerr"
)

// DefaultMinimumTravelTimeRatio is the MINIMUM_TRAVEL_TIME_RATIO
// default (spec §4.4.4, config surface spec §6).
const DefaultMinimumTravelTimeRatio = 0.9

// Location is a (location code, track) pair. Track is nullable: open
// line points and signals have no platform track.
type Location struct {
	Code  string
	Track *int
}

// ActionKind tags which Action variant a value holds.
type ActionKind int

const (
	ActionArrive ActionKind = iota
	ActionRide
)

// Action is a request a Journey makes to the Manager: either an
// arrival at a location or a ride between two adjacent locations. This
// is a closed tagged variant (spec §9 design notes), not an open
// polymorphic type: the Kind field always identifies which fields are
// meaningful.
type Action struct {
	Kind ActionKind
	Time timeutil.TimeOfDay

	// At is set for ActionArrive.
	At Location

	// Start/End/Succ are set for ActionRide. Succ is the location
	// after End, if any — passed forward only for routing context; the
	// core never uses it for timing (spec §4.4.3).
	Start, End Location
	Succ       *Location
}

// ResponseKind tags which Response variant a value holds.
type ResponseKind int

const (
	RespAdmitted ResponseKind = iota
	RespNotFree
)

// Response is the Manager's answer to a proposed Action.
type Response struct {
	Kind ResponseKind
	// ExpectedReleaseTime is set only for RespNotFree.
	ExpectedReleaseTime timeutil.TimeOfDay
}

// Admitted builds an Admitted response.
func Admitted() Response { return Response{Kind: RespAdmitted} }

// NotFree builds a NotFree response carrying the time the resource is
// expected to free up.
func NotFree(expectedReleaseTime timeutil.TimeOfDay) Response {
	return Response{Kind: RespNotFree, ExpectedReleaseTime: expectedReleaseTime}
}

type pending int

const (
	pendingNone pending = iota
	pendingArrive
	pendingRide
)

// Journey drives one train's timetable, location by location, per
// spec.md §4.4.
type Journey struct {
	Train *timetable.Train

	now   timeutil.TimeOfDay
	ratio float64
	rules *minstoptime.Table

	tt       []*timetable.Entry
	position int

	// arrivalPending is true while the current position still needs
	// its Arrive action produced; it is reset to true whenever the
	// position advances (arrival is skipped only for the very first
	// position, if that happens to be 0).
	arrivalPending bool

	pend           pending
	pendHistorical bool // true if the pending action mirrors an already-observed *_real event
	done           bool
}

// New constructs a Journey for train, starting from simulated time now.
// ratio is MINIMUM_TRAVEL_TIME_RATIO (spec §4.4.4); rules resolves
// minimum stop times (C4). All ArrPred/DepPred fields on train's
// entries are cleared, per spec §4.4.1.
func New(train *timetable.Train, now timeutil.TimeOfDay, ratio float64, rules *minstoptime.Table) (*Journey, error) {
	if len(train.Entries) == 0 {
		return nil, zwlerr.New(zwlerr.DegenerateTimetable, "empty timetable for train %s", train.ID)
	}
	for _, e := range train.Entries {
		e.ClearPredictions()
	}
	pos := findCurrentPosition(train.Entries)
	j := &Journey{
		Train:          train,
		now:            now,
		ratio:          ratio,
		rules:          rules,
		tt:             train.Entries,
		position:       pos,
		arrivalPending: pos > 0,
	}
	return j, nil
}

func findCurrentPosition(tt []*timetable.Entry) int {
	for i := len(tt) - 1; i >= 0; i-- {
		if tt[i].ArrReal != nil || tt[i].DepReal != nil {
			return i
		}
	}
	return 0
}

// Done reports whether the journey has produced its final action.
func (j *Journey) Done() bool { return j.done }

// Step advances the journey: resp is the Manager's response to the
// previously-returned Action (ignored on the very first call, where it
// should be the zero Response). It returns the next Action to propose,
// or (Action{}, false, nil) once the journey has ended.
func (j *Journey) Step(resp Response) (Action, bool, error) {
	if j.done {
		return Action{}, false, nil
	}
	if j.pend != pendingNone {
		if err := j.validateAndAdvance(resp); err != nil {
			return Action{}, false, err
		}
	}
	return j.produceNext()
}

func (j *Journey) validateAndAdvance(resp Response) error {
	switch j.pend {
	case pendingArrive:
		if resp.Kind != RespAdmitted {
			return zwlerr.New(zwlerr.Protocol, "train %s: expected Admitted after Arrive, got NotFree", j.Train.ID)
		}
		j.pend = pendingNone
		j.arrivalPending = false
		cur := j.tt[j.position]
		if cur.DepWant == nil {
			// Terminal stop: the journey ends here.
			j.done = true
		}
		return nil
	case pendingRide:
		switch resp.Kind {
		case RespAdmitted:
			j.pend = pendingNone
			j.position++
			j.arrivalPending = true
			return nil
		case RespNotFree:
			if j.pendHistorical {
				return zwlerr.New(zwlerr.Protocol, "train %s: NotFree for a ride that has already started", j.Train.ID)
			}
			cur := j.tt[j.position]
			t := resp.ExpectedReleaseTime
			cur.DepPred = &t
			// Stay in pendingRide at the same position; produceNext
			// will re-propose the Ride at the updated time.
			return nil
		}
	}
	return zwlerr.New(zwlerr.Protocol, "train %s: unexpected response kind", j.Train.ID)
}

func (j *Journey) produceNext() (Action, bool, error) {
	if j.done || j.position >= len(j.tt) {
		j.done = true
		return Action{}, false, nil
	}

	cur := j.tt[j.position]

	if j.arrivalPending {
		return j.produceArrival(cur)
	}
	return j.produceRide(cur)
}

func (j *Journey) produceArrival(cur *timetable.Entry) (Action, bool, error) {
	if cur.ArrReal != nil {
		j.pend = pendingArrive
		j.pendHistorical = true
		return Action{Kind: ActionArrive, Time: *cur.ArrReal, At: Location{Code: cur.Loc, Track: cur.TrackReal}}, true, nil
	}

	prev := j.tt[j.position-1]
	arr, err := j.earliestArrival(prev, cur)
	if err != nil {
		return Action{}, false, err
	}
	cur.ArrPred = &arr
	j.pend = pendingArrive
	j.pendHistorical = false
	return Action{Kind: ActionArrive, Time: arr, At: Location{Code: cur.Loc, Track: cur.TrackWant}}, true, nil
}

func (j *Journey) produceRide(cur *timetable.Entry) (Action, bool, error) {
	if j.position+1 >= len(j.tt) {
		if j.position == 0 {
			return Action{}, false, zwlerr.New(zwlerr.DegenerateTimetable, "train %s has fewer than two stops", j.Train.ID)
		}
		j.done = true
		return Action{}, false, nil
	}
	next := j.tt[j.position+1]

	var succ *Location
	if j.position+2 < len(j.tt) {
		s := j.tt[j.position+2]
		succ = &Location{Code: s.Loc, Track: s.TrackWant}
	}

	start := Location{Code: cur.Loc, Track: cur.TrackWant}
	end := Location{Code: next.Loc, Track: next.TrackWant}

	if cur.DepReal != nil {
		j.pend = pendingRide
		j.pendHistorical = true
		return Action{Kind: ActionRide, Time: *cur.DepReal, Start: start, End: end, Succ: succ}, true, nil
	}

	if cur.DepPred == nil {
		dep, err := j.earliestDeparture(cur)
		if err != nil {
			return Action{}, false, err
		}
		cur.DepPred = &dep
	}
	j.pend = pendingRide
	j.pendHistorical = false
	return Action{Kind: ActionRide, Time: *cur.DepPred, Start: start, End: end, Succ: succ}, true, nil
}

// earliestArrival computes the earliest time the train can arrive at
// cur, given it departed prev's location (spec §4.4.4).
func (j *Journey) earliestArrival(prev, cur *timetable.Entry) (timeutil.TimeOfDay, error) {
	var lastDep timeutil.TimeOfDay
	switch {
	case prev.DepReal != nil:
		lastDep = *prev.DepReal
	case prev.DepPred != nil:
		lastDep = *prev.DepPred
	default:
		return timeutil.TimeOfDay{}, zwlerr.New(zwlerr.Protocol, "train %s: no departure time known for %s", j.Train.ID, prev.Loc)
	}

	var ride time.Duration
	if !lastDep.After(*prev.DepWant) {
		d, err := timeutil.Diff(*cur.ArrWant, *prev.DepWant)
		if err != nil {
			return timeutil.TimeOfDay{}, err
		}
		ride = d
	} else if prev.MinRideTime != nil {
		ride = *prev.MinRideTime
	} else {
		d, err := timeutil.Diff(*cur.ArrWant, *prev.DepWant)
		if err != nil {
			return timeutil.TimeOfDay{}, err
		}
		ride = time.Duration(math.Ceil(d.Seconds()*j.ratio)) * time.Second
	}

	added, _, err := timeutil.Add(lastDep, ride)
	if err != nil {
		return timeutil.TimeOfDay{}, err
	}
	return timeutil.Max(j.now, added), nil
}

// earliestDeparture computes the earliest time the train can depart
// cur (spec §4.4.4).
func (j *Journey) earliestDeparture(cur *timetable.Entry) (timeutil.TimeOfDay, error) {
	if cur.ArrWant == nil {
		// First stop on the timetable.
		return timeutil.Max(j.now, *cur.DepWant), nil
	}

	var arr timeutil.TimeOfDay
	switch {
	case cur.ArrReal != nil:
		arr = *cur.ArrReal
	case cur.ArrPred != nil:
		arr = *cur.ArrPred
	default:
		return timeutil.TimeOfDay{}, zwlerr.New(zwlerr.Protocol, "train %s: no arrival time known for %s", j.Train.ID, cur.Loc)
	}

	var minStop time.Duration
	if cur.MinStopTime != nil {
		minStop = *cur.MinStopTime
	} else {
		track := cur.TrackWant
		if cur.TrackReal != nil {
			track = cur.TrackReal
		}
		secs, err := j.rules.Lookup(j.Train.Type, cur.Loc, track)
		if err != nil {
			return timeutil.TimeOfDay{}, err
		}
		minStop = time.Duration(secs) * time.Second
	}

	plannedStop, err := timeutil.Diff(*cur.DepWant, *cur.ArrWant)
	if err != nil {
		return timeutil.TimeOfDay{}, err
	}
	if plannedStop < minStop {
		minStop = plannedStop
	}

	withStop, _, err := timeutil.Add(arr, minStop)
	if err != nil {
		return timeutil.TimeOfDay{}, err
	}
	return timeutil.Max(timeutil.Max(j.now, *cur.DepWant), withStop), nil
}
