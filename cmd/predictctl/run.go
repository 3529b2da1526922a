package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railvorhersage/predictengine/internal/config"
	"github.com/railvorhersage/predictengine/internal/manager"
	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/store"
)

var (
	runTrainsCSV   string
	runTimetableCSV string
	runRulesCSV    string
	runSQLitePath  string
	runNow         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one prediction pass over a fixed now and report when it completes; predicted times are not printed",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runTrainsCSV, "trains-csv", "", "path to trains.csv")
	runCmd.Flags().StringVar(&runTimetableCSV, "timetable-csv", "", "path to timetable.csv")
	runCmd.Flags().StringVar(&runRulesCSV, "rules-csv", "", "path to stop_time_rules.csv")
	runCmd.Flags().StringVar(&runSQLitePath, "sqlite", "", "path to a sqlite fixture database (alternative to the three CSV flags)")
	runCmd.Flags().StringVar(&runNow, "now", "", "HH:MM:SS to treat as the current time (required)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runNow == "" {
		return fmt.Errorf("--now is required (HH:MM:SS)")
	}
	now, err := parseHMSFlag(runNow)
	if err != nil {
		return fmt.Errorf("--now: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	src, closeSrc, err := openStore()
	if err != nil {
		return err
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	rawRules, err := src.MinimumStopTimeRules()
	if err != nil {
		return fmt.Errorf("loading minimum-stop-time rules: %w", err)
	}
	table := minstoptime.NewTable(rawRules)

	m, err := manager.FromTimestamp(src, now, cfg.PredictionInterval, cfg.MinimumTravelTimeRatio, table)
	if err != nil {
		return fmt.Errorf("building manager: %w", err)
	}

	ch := make(chan manager.Decision, 256)
	m.Subscribe(ch)
	defer m.Unsubscribe(ch)
	go func() {
		for d := range ch {
			status := "admitted"
			if !d.Admitted {
				status = fmt.Sprintf("denied, retry at %s", d.RetryAt)
			}
			logger.Debug("decision", "train", d.JourneyID, "at", d.Action.Time.String(), "status", status)
		}
	}()

	if err := m.Run(); err != nil {
		return fmt.Errorf("prediction run failed: %w", err)
	}

	fmt.Println("run complete")
	return nil
}

// openStore opens whichever source was configured on the command
// line: a sqlite fixture database, or three CSV files, in that order
// of preference. The returned closer is nil for the CSV path, which
// loads everything into an in-memory store up front.
func openStore() (store.Store, func(), error) {
	if runSQLitePath != "" {
		s, err := store.OpenSQLite(runSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	if runTrainsCSV == "" || runTimetableCSV == "" || runRulesCSV == "" {
		return nil, nil, fmt.Errorf("either --sqlite or all of --trains-csv/--timetable-csv/--rules-csv must be set")
	}
	mem, err := store.LoadCSV(runTrainsCSV, runTimetableCSV, runRulesCSV)
	if err != nil {
		return nil, nil, err
	}
	return mem, nil, nil
}
