package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, registers as "sqlite"

	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/timetable"
	"github.com/railvorhersage/predictengine/internal/timeutil"
)

// SQLite is a Store backed by an embedded SQLite database (via
// modernc.org/sqlite, pure Go, no cgo). It expects three tables:
//
//	trains(id TEXT, nr INTEGER, type TEXT)
//	timetable_entries(train_id TEXT, loc TEXT, sorttime INTEGER,
//	    arr_plan INTEGER, dep_plan INTEGER, track_plan INTEGER,
//	    arr_want INTEGER, dep_want INTEGER, track_want INTEGER,
//	    arr_real INTEGER, dep_real INTEGER, track_real INTEGER)
//	stop_time_rules(seconds INTEGER, train_type TEXT, location TEXT, track INTEGER)
//
// All time columns are seconds-since-midnight; NULL means unset.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path. It does not create the
// schema; the driver creates an empty database file if none exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite store %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS trains (
	id TEXT PRIMARY KEY,
	nr INTEGER,
	type TEXT
);
CREATE TABLE IF NOT EXISTS timetable_entries (
	train_id TEXT,
	loc TEXT,
	sorttime INTEGER,
	arr_plan INTEGER, dep_plan INTEGER, track_plan INTEGER,
	arr_want INTEGER, dep_want INTEGER, track_want INTEGER,
	arr_real INTEGER, dep_real INTEGER, track_real INTEGER
);
CREATE TABLE IF NOT EXISTS stop_time_rules (
	seconds INTEGER,
	train_type TEXT,
	location TEXT,
	track INTEGER
);
`

// CreateSQLite opens (creating if absent) the database at path and
// ensures its schema exists, for predictctl's loadfixtures subcommand.
func CreateSQLite(path string) (*SQLite, error) {
	s, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(schemaDDL); err != nil {
		s.Close()
		return nil, fmt.Errorf("create schema in %s: %w", path, err)
	}
	return s, nil
}

// InsertTrain writes tr and all of its timetable entries. It does not
// deduplicate; callers loading fixtures into a fresh database need not
// worry about it, but re-running against an existing one will insert
// duplicate rows.
func (s *SQLite) InsertTrain(tr *timetable.Train) error {
	if _, err := s.db.Exec(`INSERT INTO trains (id, nr, type) VALUES (?, ?, ?)`, tr.ID, tr.Nr, tr.Type); err != nil {
		return fmt.Errorf("insert train %s: %w", tr.ID, err)
	}
	for _, e := range tr.Entries {
		_, err := s.db.Exec(`
			INSERT INTO timetable_entries (
				train_id, loc, sorttime,
				arr_plan, dep_plan, track_plan,
				arr_want, dep_want, track_want,
				arr_real, dep_real, track_real
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.TrainID, e.Loc, int(e.Sorttime.Duration().Seconds()),
			timeSeconds(e.ArrPlan), timeSeconds(e.DepPlan), intValue(e.TrackPlan),
			timeSeconds(e.ArrWant), timeSeconds(e.DepWant), intValue(e.TrackWant),
			timeSeconds(e.ArrReal), timeSeconds(e.DepReal), intValue(e.TrackReal))
		if err != nil {
			return fmt.Errorf("insert timetable entry for %s at %s: %w", tr.ID, e.Loc, err)
		}
	}
	return nil
}

// InsertRule writes one minimum-stop-time rule.
func (s *SQLite) InsertRule(r minstoptime.Rule) error {
	var trainType, location interface{}
	if r.TrainType != "" {
		trainType = r.TrainType
	}
	if r.Location != "" {
		location = r.Location
	}
	_, err := s.db.Exec(`INSERT INTO stop_time_rules (seconds, train_type, location, track) VALUES (?, ?, ?, ?)`,
		r.Seconds, trainType, location, intValue(r.Track))
	if err != nil {
		return fmt.Errorf("insert stop time rule: %w", err)
	}
	return nil
}

func timeSeconds(t *timeutil.TimeOfDay) interface{} {
	if t == nil {
		return nil
	}
	return int(t.Duration().Seconds())
}

func intValue(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// TrainsWithSorttimeBetween implements Store.
func (s *SQLite) TrainsWithSorttimeBetween(from, to timeutil.TimeOfDay) ([]*timetable.Train, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT t.id, t.nr, t.type
		FROM trains t
		JOIN timetable_entries e ON e.train_id = t.id
		WHERE e.sorttime = (
			SELECT MIN(sorttime) FROM timetable_entries WHERE train_id = t.id
		)
		AND e.sorttime BETWEEN ? AND ?
		ORDER BY e.sorttime ASC, t.id ASC`,
		int(from.Duration().Seconds()), int(to.Duration().Seconds()))
	if err != nil {
		return nil, fmt.Errorf("query trains: %w", err)
	}
	defer rows.Close()

	var trains []*timetable.Train
	for rows.Next() {
		tr := &timetable.Train{}
		if err := rows.Scan(&tr.ID, &tr.Nr, &tr.Type); err != nil {
			return nil, fmt.Errorf("scan train: %w", err)
		}
		trains = append(trains, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, tr := range trains {
		entries, err := s.entriesForTrain(tr.ID)
		if err != nil {
			return nil, err
		}
		tr.Entries = entries
	}
	return trains, nil
}

func (s *SQLite) entriesForTrain(trainID string) ([]*timetable.Entry, error) {
	rows, err := s.db.Query(`
		SELECT train_id, loc, sorttime,
		       arr_plan, dep_plan, track_plan,
		       arr_want, dep_want, track_want,
		       arr_real, dep_real, track_real
		FROM timetable_entries
		WHERE train_id = ?
		ORDER BY sorttime ASC`, trainID)
	if err != nil {
		return nil, fmt.Errorf("query timetable entries for %s: %w", trainID, err)
	}
	defer rows.Close()

	var entries []*timetable.Entry
	for rows.Next() {
		var (
			loc                                 string
			sorttime                            int
			arrPlan, depPlan, arrWant, depWant  sql.NullInt64
			arrReal, depReal                    sql.NullInt64
			trackPlan, trackWant, trackReal     sql.NullInt64
		)
		if err := rows.Scan(&trainID, &loc, &sorttime,
			&arrPlan, &depPlan, &trackPlan,
			&arrWant, &depWant, &trackWant,
			&arrReal, &depReal, &trackReal); err != nil {
			return nil, fmt.Errorf("scan timetable entry: %w", err)
		}
		entries = append(entries, &timetable.Entry{
			TrainID:   trainID,
			Loc:       loc,
			Sorttime:  timeutil.FromDuration(time.Duration(sorttime) * time.Second),
			ArrPlan:   nullTime(arrPlan),
			DepPlan:   nullTime(depPlan),
			TrackPlan: nullInt(trackPlan),
			ArrWant:   nullTime(arrWant),
			DepWant:   nullTime(depWant),
			TrackWant: nullInt(trackWant),
			ArrReal:   nullTime(arrReal),
			DepReal:   nullTime(depReal),
			TrackReal: nullInt(trackReal),
		})
	}
	return entries, rows.Err()
}

// MinimumStopTimeRules implements Store.
func (s *SQLite) MinimumStopTimeRules() ([]minstoptime.Rule, error) {
	rows, err := s.db.Query(`SELECT seconds, train_type, location, track FROM stop_time_rules`)
	if err != nil {
		return nil, fmt.Errorf("query stop_time_rules: %w", err)
	}
	defer rows.Close()

	var rules []minstoptime.Rule
	for rows.Next() {
		var (
			seconds             int
			trainType, location sql.NullString
			track               sql.NullInt64
		)
		if err := rows.Scan(&seconds, &trainType, &location, &track); err != nil {
			return nil, fmt.Errorf("scan stop_time_rule: %w", err)
		}
		rules = append(rules, minstoptime.Rule{
			Seconds:   seconds,
			TrainType: trainType.String,
			Location:  location.String,
			Track:     nullInt(track),
		})
	}
	return rules, rows.Err()
}

func nullTime(v sql.NullInt64) *timeutil.TimeOfDay {
	if !v.Valid {
		return nil
	}
	t := timeutil.FromDuration(time.Duration(v.Int64) * time.Second)
	return &t
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
