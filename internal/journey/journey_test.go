package journey

import (
	"testing"

	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/timetable"
	"github.com/railvorhersage/predictengine/internal/timeutil"
)

func tod(h, m, s int) timeutil.TimeOfDay { return timeutil.New(h, m, s) }
func todp(h, m, s int) *timeutil.TimeOfDay {
	t := tod(h, m, s)
	return &t
}

// globalRules is the fixture shared with the minstoptime package tests:
// a single 45s global default, enough for the single-train scenarios
// below which never consult a more specific tier.
func globalRules() *minstoptime.Table {
	return minstoptime.NewTable([]minstoptime.Rule{{Seconds: 45}})
}

// singleTrainEntries builds the XWF/XLG/XBG/XDE timetable shared by
// spec scenarios S1-S4, optionally anchored by a real XWF departure.
func singleTrainEntries(depReal *timeutil.TimeOfDay) []*timetable.Entry {
	return []*timetable.Entry{
		{Loc: "XWF", DepWant: todp(15, 30, 0), DepReal: depReal},
		{Loc: "XLG", ArrWant: todp(15, 34, 0), DepWant: todp(15, 34, 0)},
		{Loc: "XBG", ArrWant: todp(15, 35, 0), DepWant: todp(15, 36, 0)},
		{Loc: "XDE", ArrWant: todp(15, 39, 0)},
	}
}

func driveToCompletion(t *testing.T, j *Journey) {
	t.Helper()
	resp := Response{}
	for i := 0; i < 1000; i++ {
		action, more, err := j.Step(resp)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if !more {
			return
		}
		_ = action
		resp = Admitted()
	}
	t.Fatal("journey did not terminate")
}

func newTrain(entries []*timetable.Entry) *timetable.Train {
	for _, e := range entries {
		e.TrainID = "T1"
	}
	return &timetable.Train{ID: "T1", Type: "", Entries: entries}
}

// S1 - on-time single train: every prediction equals the schedule.
func TestSingleTrainOnTime(t *testing.T) {
	tr := newTrain(singleTrainEntries(nil))
	j, err := New(tr, tod(15, 29, 0), 0.9, globalRules())
	if err != nil {
		t.Fatal(err)
	}
	driveToCompletion(t, j)

	check := func(label string, got *timeutil.TimeOfDay, want timeutil.TimeOfDay) {
		t.Helper()
		if got == nil || !got.Equal(want) {
			t.Errorf("%s = %v, want %s", label, got, want)
		}
	}
	check("XWF.dep_pred", tr.Entries[0].DepPred, tod(15, 30, 0))
	check("XLG.arr_pred", tr.Entries[1].ArrPred, tod(15, 34, 0))
	check("XLG.dep_pred", tr.Entries[1].DepPred, tod(15, 34, 0))
	check("XBG.arr_pred", tr.Entries[2].ArrPred, tod(15, 35, 0))
	check("XBG.dep_pred", tr.Entries[2].DepPred, tod(15, 36, 0))
	check("XDE.arr_pred", tr.Entries[3].ArrPred, tod(15, 39, 0))
}

// S2 - small delay propagates. Every departure runs late, so each ride
// takes the 0.9-ratio minimum ride time rather than the planned one:
// XDE is reached 162s after the 15:36:15 XBG departure, at 15:38:57.
func TestSingleTrainSmallDelay(t *testing.T) {
	tr := newTrain(singleTrainEntries(nil))
	j, err := New(tr, tod(15, 31, 0), 0.9, globalRules())
	if err != nil {
		t.Fatal(err)
	}
	driveToCompletion(t, j)

	want := []struct {
		entry int
		field **timeutil.TimeOfDay
		t     timeutil.TimeOfDay
	}{
		{0, &tr.Entries[0].DepPred, tod(15, 31, 0)},
		{1, &tr.Entries[1].ArrPred, tod(15, 34, 36)},
		{2, &tr.Entries[2].ArrPred, tod(15, 35, 30)},
		{2, &tr.Entries[2].DepPred, tod(15, 36, 15)},
		{3, &tr.Entries[3].ArrPred, tod(15, 38, 57)},
	}
	for _, w := range want {
		got := *w.field
		if got == nil || !got.Equal(w.t) {
			t.Errorf("entry %d: got %v, want %s", w.entry, got, w.t)
		}
	}
}

// S3 - a real departure anchors the prediction chain.
func TestSingleTrainRealEventAnchors(t *testing.T) {
	tr := newTrain(singleTrainEntries(todp(15, 32, 0)))
	j, err := New(tr, tod(15, 34, 0), 0.9, globalRules())
	if err != nil {
		t.Fatal(err)
	}
	driveToCompletion(t, j)

	want := []struct {
		field **timeutil.TimeOfDay
		t     timeutil.TimeOfDay
	}{
		{&tr.Entries[1].ArrPred, tod(15, 35, 36)},
		{&tr.Entries[2].ArrPred, tod(15, 36, 30)},
		{&tr.Entries[2].DepPred, tod(15, 37, 15)},
		{&tr.Entries[3].ArrPred, tod(15, 39, 57)},
	}
	for _, w := range want {
		got := *w.field
		if got == nil || !got.Equal(w.t) {
			t.Errorf("got %v, want %s", got, w.t)
		}
	}
}

// S4 - now overrides a past prediction.
func TestSingleTrainNowOverridesPast(t *testing.T) {
	tr := newTrain(singleTrainEntries(todp(15, 32, 0)))
	j, err := New(tr, tod(15, 37, 0), 0.9, globalRules())
	if err != nil {
		t.Fatal(err)
	}
	driveToCompletion(t, j)

	want := []struct {
		field **timeutil.TimeOfDay
		t     timeutil.TimeOfDay
	}{
		{&tr.Entries[1].ArrPred, tod(15, 37, 0)},
		{&tr.Entries[2].ArrPred, tod(15, 37, 54)},
		{&tr.Entries[2].DepPred, tod(15, 38, 39)},
		{&tr.Entries[3].ArrPred, tod(15, 41, 21)},
	}
	for _, w := range want {
		got := *w.field
		if got == nil || !got.Equal(w.t) {
			t.Errorf("got %v, want %s", got, w.t)
		}
	}
}

// TestDegenerateTimetableEmpty ensures the empty-timetable guard fires.
func TestDegenerateTimetableEmpty(t *testing.T) {
	tr := &timetable.Train{ID: "EMPTY"}
	if _, err := New(tr, tod(0, 0, 0), 0.9, globalRules()); err == nil {
		t.Fatal("expected DegenerateTimetable error for empty timetable")
	}
}

// TestProtocolViolationOnArriveNotFree ensures a NotFree response to an
// Arrive action is rejected as a protocol error.
func TestProtocolViolationOnArriveNotFree(t *testing.T) {
	tr := newTrain(singleTrainEntries(nil))
	j, err := New(tr, tod(15, 29, 0), 0.9, globalRules())
	if err != nil {
		t.Fatal(err)
	}
	// XWF's Ride is admitted, which yields the XLG Arrive.
	if _, _, err := j.Step(Response{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := j.Step(Admitted()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := j.Step(NotFree(tod(15, 40, 0))); err == nil {
		t.Fatal("expected Protocol error for NotFree after Arrive")
	}
}
