package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railvorhersage/predictengine/internal/store"
	"github.com/railvorhersage/predictengine/internal/timeutil"
)

var (
	fixturesTrainsCSV    string
	fixturesTimetableCSV string
	fixturesRulesCSV     string
	fixturesOutSQLite    string
)

var loadFixturesCmd = &cobra.Command{
	Use:   "loadfixtures",
	Short: "Load trains/timetable/rules CSV fixtures into a fresh sqlite database",
	RunE:  runLoadFixtures,
}

func init() {
	loadFixturesCmd.Flags().StringVar(&fixturesTrainsCSV, "trains-csv", "", "path to trains.csv (required)")
	loadFixturesCmd.Flags().StringVar(&fixturesTimetableCSV, "timetable-csv", "", "path to timetable.csv (required)")
	loadFixturesCmd.Flags().StringVar(&fixturesRulesCSV, "rules-csv", "", "path to stop_time_rules.csv (required)")
	loadFixturesCmd.Flags().StringVar(&fixturesOutSQLite, "out", "", "path to the sqlite database to create (required)")
	loadFixturesCmd.MarkFlagRequired("trains-csv")
	loadFixturesCmd.MarkFlagRequired("timetable-csv")
	loadFixturesCmd.MarkFlagRequired("rules-csv")
	loadFixturesCmd.MarkFlagRequired("out")
}

func runLoadFixtures(cmd *cobra.Command, args []string) error {
	mem, err := store.LoadCSV(fixturesTrainsCSV, fixturesTimetableCSV, fixturesRulesCSV)
	if err != nil {
		return err
	}

	out, err := store.CreateSQLite(fixturesOutSQLite)
	if err != nil {
		return err
	}
	defer out.Close()

	trains, err := mem.TrainsWithSorttimeBetween(timeutil.New(0, 0, 0), timeutil.New(23, 59, 59))
	if err != nil {
		return err
	}
	for _, tr := range trains {
		if err := out.InsertTrain(tr); err != nil {
			return err
		}
	}

	rules, err := mem.MinimumStopTimeRules()
	if err != nil {
		return err
	}
	for _, r := range rules {
		if err := out.InsertRule(r); err != nil {
			return err
		}
	}

	fmt.Printf("loaded %d trains and %d minimum-stop-time rules into %s\n", len(trains), len(rules), fixturesOutSQLite)
	return nil
}
