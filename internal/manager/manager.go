// Package manager implements the discrete-event scheduler (spec
// component C6): it drives many Journeys in earliest-action-first
// order against a shared occupancy table, single-threaded and
// deterministic.
//
// Grounded on zwl/predict.py's Manager class for the admit/deny
// algorithm; the non-blocking subscriber fan-out used to publish
// Decisions follows the pattern in the teacher's server/audit.go
// (auditState.subscribers, broadcast via select{default:}).
package manager

import (
	"sort"
	"time"

	"github.com/railvorhersage/predictengine/internal/journey"
	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/timetable"
	"github.com/railvorhersage/predictengine/internal/timeutil"
	"github.com/railvorhersage/predictengine/internal/zwlerr"
)

// ResourceKind tags which ResourceKey variant a value holds.
type ResourceKind int

const (
	ResourcePoint ResourceKind = iota
	ResourceLine
)

// ResourceKey identifies a mutually-exclusive track-level resource
// (spec §4.5.3): a numbered track at a location, or the trackage
// between two adjacent locations. Track is flattened to a value plus
// a presence flag rather than carried as *int, so ResourceKey remains
// comparable and usable as a map key.
type ResourceKey struct {
	Kind     ResourceKind
	Loc      string
	Track    int
	HasTrack bool
	From, To string
}

func pointKey(loc journey.Location) ResourceKey {
	k := ResourceKey{Kind: ResourcePoint, Loc: loc.Code}
	if loc.Track != nil {
		k.HasTrack = true
		k.Track = *loc.Track
	}
	return k
}

func lineKey(from, to string) ResourceKey {
	return ResourceKey{Kind: ResourceLine, From: from, To: to}
}

func requiredResources(a journey.Action) []ResourceKey {
	if a.Kind == journey.ActionArrive {
		return []ResourceKey{pointKey(a.At)}
	}
	return []ResourceKey{pointKey(a.Start), lineKey(a.Start.Code, a.End.Code), pointKey(a.End)}
}

// occupant is the Manager-private occupancy record for one resource.
type occupant struct {
	holder          int // runner.order of the occupying journey
	expectedRelease *timeutil.TimeOfDay
}

// runner is the Manager's bookkeeping for one in-flight Journey.
type runner struct {
	order   int // construction index; the tie-break for equal action times
	id      string
	j       *journey.Journey
	next    journey.Action
	waiting bool
}

// Decision is published after every admit/deny cycle, for audit and
// observer wiring (C11/C10); consumers must not block the Manager, so
// Decision is delivered over a non-blocking subscription.
type Decision struct {
	JourneyID string
	Action    journey.Action
	Admitted  bool
	RetryAt   *timeutil.TimeOfDay // set only when Admitted is false
}

// Manager drives a fixed set of Journeys to completion.
type Manager struct {
	runners   []*runner
	occupancy map[ResourceKey]*occupant

	subscribers map[chan Decision]bool
}

// Store is the read surface the Manager needs from the storage layer
// to build a run from a clock reading. It is declared here, not in
// package store, so that FromTimestamp has no import-time dependency
// on any particular storage backend — any type satisfying this
// structurally (store.Memory, store.SQLite, ...) works.
type Store interface {
	TrainsWithSorttimeBetween(from, to timeutil.TimeOfDay) ([]*timetable.Train, error)
}

// FromTrains builds one Journey per train and takes each journey's
// first action (spec §4.5.4).
func FromTrains(trains []*timetable.Train, now timeutil.TimeOfDay, ratio float64, rules *minstoptime.Table) (*Manager, error) {
	m := &Manager{
		occupancy:   make(map[ResourceKey]*occupant),
		subscribers: make(map[chan Decision]bool),
	}
	for i, tr := range trains {
		j, err := journey.New(tr, now, ratio, rules)
		if err != nil {
			return nil, err
		}
		r := &runner{order: i, id: tr.ID, j: j}
		a, more, err := j.Step(journey.Response{})
		if err != nil {
			return nil, err
		}
		if !more {
			continue
		}
		r.next = a
		m.runners = append(m.runners, r)
	}
	return m, nil
}

// FromTimestamp reads trains whose sorttime lies in
// [now, now+interval] from store and delegates to FromTrains (spec
// §4.5.4). The original source's from_timestamp referenced undefined
// names and was unusable as a reference; this is a clean
// reimplementation from the spec.
func FromTimestamp(store Store, now timeutil.TimeOfDay, interval time.Duration, ratio float64, rules *minstoptime.Table) (*Manager, error) {
	end, _, err := timeutil.Add(now, interval)
	if err != nil {
		return nil, err
	}
	trains, err := store.TrainsWithSorttimeBetween(now, end)
	if err != nil {
		return nil, err
	}
	return FromTrains(trains, now, ratio, rules)
}

// Subscribe registers ch to receive every Decision published during
// Run. Sends are non-blocking (teacher's audit.go pattern): a slow or
// absent reader simply misses decisions rather than stalling the run.
func (m *Manager) Subscribe(ch chan Decision) {
	m.subscribers[ch] = true
}

// Unsubscribe removes a previously-registered channel.
func (m *Manager) Unsubscribe(ch chan Decision) {
	delete(m.subscribers, ch)
}

func (m *Manager) publish(d Decision) {
	for ch := range m.subscribers {
		select {
		case ch <- d:
		default:
		}
	}
}

// Run drives every journey to completion (spec §4.5.2). It returns the
// first fatal error encountered, if any; on success, every journey's
// timetable entries carry their final arr_pred/dep_pred values.
func (m *Manager) Run() error {
	for len(m.runners) > 0 {
		sort.SliceStable(m.runners, func(i, j int) bool {
			return m.runners[i].next.Time.Before(m.runners[j].next.Time)
		})
		head := m.runners[0]

		resp, retryAt, err := m.evaluate(head)
		if err != nil {
			return err
		}

		m.publish(Decision{JourneyID: head.id, Action: head.next, Admitted: resp.Kind == journey.RespAdmitted, RetryAt: retryAt})

		next, more, err := head.j.Step(resp)
		if err != nil {
			return err
		}
		if !more {
			m.runners = m.runners[1:]
			continue
		}

		// "Before yielding, the previous action's expected_release_time
		// is set to this action's time" (spec §4.4.3) — performed here,
		// at the Manager, the sole owner of occupancy (spec §5), the
		// instant the journey's new action becomes known.
		for key, occ := range m.occupancy {
			if occ.holder == head.order {
				t := next.Time
				m.occupancy[key] = &occupant{holder: head.order, expectedRelease: &t}
			}
		}

		head.next = next
		// runners[0] stays in place; it is re-sorted on the next
		// iteration along with everyone else.
	}
	return nil
}

// evaluate computes the admit/deny response for head's pending action
// per spec §4.5.2 steps b-d, and mutates occupancy on admission.
func (m *Manager) evaluate(head *runner) (journey.Response, *timeutil.TimeOfDay, error) {
	required := requiredResources(head.next)

	var blockers []timeutil.TimeOfDay
	for _, key := range required {
		occ, ok := m.occupancy[key]
		if !ok || occ.holder == head.order {
			continue
		}
		if occ.expectedRelease == nil {
			return journey.Response{}, nil, zwlerr.New(zwlerr.Protocol, "journey %s: resource held by another journey with no expected release time", head.id)
		}
		blockers = append(blockers, *occ.expectedRelease)
	}

	if len(blockers) > 0 {
		latest := blockers[0]
		for _, b := range blockers[1:] {
			latest = timeutil.Max(latest, b)
		}
		retry, _, err := timeutil.Add(latest, time.Second)
		if err != nil {
			return journey.Response{}, nil, err
		}
		if !retry.After(head.next.Time) {
			return journey.Response{}, nil, zwlerr.New(zwlerr.Protocol, "journey %s: computed retry time %s does not exceed action time %s", head.id, retry, head.next.Time)
		}
		return journey.NotFree(retry), &retry, nil
	}

	newHeld := make(map[ResourceKey]bool, len(required))
	for _, key := range required {
		newHeld[key] = true
		m.occupancy[key] = &occupant{holder: head.order}
	}
	for key, occ := range m.occupancy {
		if occ.holder == head.order && !newHeld[key] {
			delete(m.occupancy, key)
		}
	}

	return journey.Admitted(), nil, nil
}
