// Command predictctl is the operator-facing CLI for the prediction
// engine (spec component C10). It wires together config (C9), the
// storage adapters (C7), the clock client (C8), the Manager (C6), the
// audit log (C11), and the optional observer stream (C10's websocket
// tap) into the three subcommands spec.md §7 describes: one-shot run,
// fixture loading, and a long-running serve loop driven by the clock.
//
// Grounded on tidbyt-gtfs's cmd/main.go for the cobra rootCmd/PersistentFlags
// shape, and on the teacher's server/server/http.go for
// InitializeLogger(parentLogger)-style log15 wiring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/railvorhersage/predictengine/internal/timeutil"
)

var (
	configPath string
	logger     log.Logger
)

var rootCmd = &cobra.Command{
	Use:          "predictctl",
	Short:        "Bildfahrplan prediction engine control",
	Long:         "Drives the train-movement prediction engine: loads timetable fixtures, runs one-shot predictions, or serves a clock-driven prediction loop.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (defaults applied if omitted)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loadFixturesCmd)
	rootCmd.AddCommand(serveCmd)

	logger = log.New("module", "predictctl")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseHMSFlag parses an "HH:MM:SS" command-line flag into a TimeOfDay.
func parseHMSFlag(s string) (timeutil.TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return timeutil.TimeOfDay{}, fmt.Errorf("expected HH:MM:SS, got %q", s)
	}
	return timeutil.New(h, m, sec), nil
}
