package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/railvorhersage/predictengine/internal/auditlog"
	"github.com/railvorhersage/predictengine/internal/clockclient"
	"github.com/railvorhersage/predictengine/internal/config"
	"github.com/railvorhersage/predictengine/internal/manager"
	"github.com/railvorhersage/predictengine/internal/minstoptime"
	"github.com/railvorhersage/predictengine/internal/obsserver"
	"github.com/railvorhersage/predictengine/internal/store"
	"github.com/railvorhersage/predictengine/internal/timeutil"
)

// timeOfDayFromClock reduces a clock reading's wall time to a
// TimeOfDay, the only resolution the prediction core understands
// (spec.md §6: "the core uses only (state, time)").
func timeOfDayFromClock(r clockclient.Reading) timeutil.TimeOfDay {
	t := r.Time.UTC()
	return timeutil.New(t.Hour(), t.Minute(), t.Second())
}

var (
	serveTrainsCSV    string
	serveTimetableCSV string
	serveRulesCSV     string
	serveSQLitePath   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction engine continuously, re-predicting every clock tick",
	Long: "Connects to the configured clock server, and on every reading in the " +
		"Running state builds a fresh Manager for the configured prediction " +
		"interval and runs it to completion, publishing decisions to the audit " +
		"log and, if enabled, the observer websocket.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTrainsCSV, "trains-csv", "", "path to trains.csv")
	serveCmd.Flags().StringVar(&serveTimetableCSV, "timetable-csv", "", "path to timetable.csv")
	serveCmd.Flags().StringVar(&serveRulesCSV, "rules-csv", "", "path to stop_time_rules.csv")
	serveCmd.Flags().StringVar(&serveSQLitePath, "sqlite", "", "path to a sqlite fixture database (alternative to the three CSV flags)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.ClockServer == "" {
		return fmt.Errorf("serve requires clock_server to be configured")
	}

	src, closeSrc, err := openServeStore()
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

	audit := auditlog.New(1000)

	var hub *obsserver.Hub
	if cfg.ObserverEnabled {
		hub = obsserver.NewHub()
		mux := http.NewServeMux()
		mux.HandleFunc("/observe", hub.ServeWS)
		go func() {
			logger.Info("observer listening", "addr", cfg.ObserverAddr)
			if err := http.ListenAndServe(cfg.ObserverAddr, mux); err != nil {
				logger.Error("observer server stopped", "error", err)
			}
		}()
	}

	ctx := context.Background()
	clock, err := clockclient.Dial(ctx, cfg.ClockServer)
	if err != nil {
		return fmt.Errorf("connecting to clock server: %w", err)
	}
	defer clock.Close()

	logger.Info("serve starting", "clock_server", cfg.ClockServer, "interval", cfg.PredictionInterval)

	for {
		reading, err := clock.Get(ctx)
		if err != nil {
			logger.Error("clock read failed", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if reading.State != clockclient.Running {
			time.Sleep(time.Second)
			continue
		}

		now := timeOfDayFromClock(reading)
		m, err := manager.FromTimestamp(src, now, cfg.PredictionInterval, cfg.MinimumTravelTimeRatio, table)
		if err != nil {
			logger.Error("building manager", "error", err)
			continue
		}

		auditCh := make(chan manager.Decision, 256)
		m.Subscribe(auditCh)
		go func() {
			for d := range auditCh {
				audit.Record(d)
			}
		}()

		var obsCh chan manager.Decision
		if hub != nil {
			obsCh = make(chan manager.Decision, 256)
			m.Subscribe(obsCh)
			hub.Listen(obsCh)
		}

		if err := m.Run(); err != nil {
			logger.Error("prediction run failed", "error", err)
		}
		m.Unsubscribe(auditCh)
		close(auditCh)
		if obsCh != nil {
			m.Unsubscribe(obsCh)
			close(obsCh)
		}

		time.Sleep(time.Second)
	}
}

func openServeStore() (store.Store, func(), error) {
	if serveSQLitePath != "" {
		s, err := store.OpenSQLite(serveSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	if serveTrainsCSV == "" || serveTimetableCSV == "" || serveRulesCSV == "" {
		return nil, nil, fmt.Errorf("either --sqlite or all of --trains-csv/--timetable-csv/--rules-csv must be set")
	}
	mem, err := store.LoadCSV(serveTrainsCSV, serveTimetableCSV, serveRulesCSV)
	if err != nil {
		return nil, nil, err
	}
	return mem, nil, nil
}
