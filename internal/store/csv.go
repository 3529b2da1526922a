package store

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/timetable"
	"github.com/railvorhersage/predictengine/internal/timeutil"
)

type csvTrainRow struct {
	ID   string `csv:"id"`
	Nr   int    `csv:"nr"`
	Type string `csv:"type"`
}

type csvTimetableRow struct {
	TrainID   string `csv:"train_id"`
	Loc       string `csv:"loc"`
	Sorttime  string `csv:"sorttime"`
	ArrPlan   string `csv:"arr_plan"`
	DepPlan   string `csv:"dep_plan"`
	TrackPlan string `csv:"track_plan"`
	ArrWant   string `csv:"arr_want"`
	DepWant   string `csv:"dep_want"`
	TrackWant string `csv:"track_want"`
	ArrReal   string `csv:"arr_real"`
	DepReal   string `csv:"dep_real"`
	TrackReal string `csv:"track_real"`
}

type csvRuleRow struct {
	Seconds   int    `csv:"seconds"`
	TrainType string `csv:"train_type"`
	Location  string `csv:"location"`
	Track     string `csv:"track"`
}

// LoadCSV builds a Memory store from three CSV files (trains,
// timetable entries, minimum-stop-time rules), using gocarina/gocsv for
// unmarshalling and spkg/bom to tolerate a leading UTF-8 BOM — the kind
// of thing a spreadsheet export routinely adds and a transit-data
// importer must not choke on.
func LoadCSV(trainsPath, timetablePath, rulesPath string) (*Memory, error) {
	var trainRows []csvTrainRow
	if err := unmarshalCSVFile(trainsPath, &trainRows); err != nil {
		return nil, fmt.Errorf("loading trains from %s: %w", trainsPath, err)
	}
	var ttRows []csvTimetableRow
	if err := unmarshalCSVFile(timetablePath, &ttRows); err != nil {
		return nil, fmt.Errorf("loading timetable from %s: %w", timetablePath, err)
	}
	var ruleRows []csvRuleRow
	if err := unmarshalCSVFile(rulesPath, &ruleRows); err != nil {
		return nil, fmt.Errorf("loading minimum-stop-time rules from %s: %w", rulesPath, err)
	}

	byID := make(map[string]*timetable.Train, len(trainRows))
	var order []string
	for _, r := range trainRows {
		byID[r.ID] = &timetable.Train{ID: r.ID, Nr: r.Nr, Type: r.Type}
		order = append(order, r.ID)
	}

	for _, row := range ttRows {
		tr, ok := byID[row.TrainID]
		if !ok {
			return nil, fmt.Errorf("timetable row references unknown train %q", row.TrainID)
		}
		entry, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		tr.Entries = append(tr.Entries, entry)
	}

	trains := make([]*timetable.Train, 0, len(order))
	for _, id := range order {
		trains = append(trains, byID[id])
	}

	rules := make([]minstoptime.Rule, 0, len(ruleRows))
	for _, r := range ruleRows {
		rule := minstoptime.Rule{Seconds: r.Seconds, TrainType: r.TrainType, Location: r.Location}
		track, err := parseOptionalTrack(r.Track)
		if err != nil {
			return nil, fmt.Errorf("rule row track %q: %w", r.Track, err)
		}
		rule.Track = track
		rules = append(rules, rule)
	}

	return NewMemory(trains, rules), nil
}

func unmarshalCSVFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.Unmarshal(bom.NewReader(f), out)
}

func rowToEntry(row csvTimetableRow) (*timetable.Entry, error) {
	sorttime, err := parseHMS(row.Sorttime)
	if err != nil {
		return nil, fmt.Errorf("sorttime %q: %w", row.Sorttime, err)
	}
	e := &timetable.Entry{TrainID: row.TrainID, Loc: row.Loc, Sorttime: sorttime}

	var parseErr error
	setTime := func(dst **timeutil.TimeOfDay, s string) {
		if parseErr != nil {
			return
		}
		*dst, parseErr = parseOptionalHMS(s)
	}
	setTrack := func(dst **int, s string) {
		if parseErr != nil {
			return
		}
		*dst, parseErr = parseOptionalTrack(s)
	}

	setTime(&e.ArrPlan, row.ArrPlan)
	setTime(&e.DepPlan, row.DepPlan)
	setTrack(&e.TrackPlan, row.TrackPlan)
	setTime(&e.ArrWant, row.ArrWant)
	setTime(&e.DepWant, row.DepWant)
	setTrack(&e.TrackWant, row.TrackWant)
	setTime(&e.ArrReal, row.ArrReal)
	setTime(&e.DepReal, row.DepReal)
	setTrack(&e.TrackReal, row.TrackReal)
	if parseErr != nil {
		return nil, parseErr
	}
	return e, nil
}

func parseHMS(s string) (timeutil.TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return timeutil.TimeOfDay{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return timeutil.New(h, m, sec), nil
}

func parseOptionalHMS(s string) (*timeutil.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseHMS(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalTrack(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("parse track %q: %w", s, err)
	}
	return &v, nil
}
