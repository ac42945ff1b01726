// Package report exports a session's optimized rounds as an xlsx workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"skyplan/internal/model"
)

const (
	summarySheet  = "Session"
	roundsSheet   = "Rounds"
	headingsSheet = "Headings"
)

var roundHeaders = []string{
	"Round", "Iterations", "Improvements", "Accepted equal", "Accepted worse", "Rejected",
	"Initial cost", "Final cost", "Temperature before", "Temperature after",
	"Total time", "Total power", "Total delay", "Duration (ms)", "Interrupted",
}

// Write renders s and its rounds into a workbook and streams it to w.
func Write(w io.Writer, s model.Session, rounds []model.RoundRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if _, err := f.NewSheet(roundsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(headingsSheet); err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}

	summary := [][]any{
		{"Session", s.ID},
		{"Status", s.Status},
		{"Planes", s.Planes},
		{"Rounds", s.Rounds},
		{"Last round", s.LastRound},
		{"Temperature", s.Temperature},
		{"Total time", s.Totals.Time},
		{"Total power", s.Totals.Power},
		{"Total delay", s.Totals.Delay},
		{"Initial temperature", s.Config.InitialTemperature},
		{"Cooling rate", s.Config.CoolingRate},
		{"Weights (time/power/delay)", fmt.Sprintf("%g/%g/%g", s.Config.Weights.Time, s.Config.Weights.Power, s.Config.Weights.Delay)},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	if err := f.SetSheetRow(roundsSheet, "A1", &roundHeaders); err != nil {
		return err
	}
	headingHeaders := []any{"Round"}
	for i := 0; i < s.Planes; i++ {
		headingHeaders = append(headingHeaders, fmt.Sprintf("Plane %d", i))
	}
	if err := f.SetSheetRow(headingsSheet, "A1", &headingHeaders); err != nil {
		return err
	}

	for i, rec := range rounds {
		r := rec.Report
		row := []any{
			rec.Round, r.Iterations, r.Improvements, r.AcceptedEqual, r.AcceptedWorse, r.Rejected,
			r.InitialCost.Total, r.FinalCost.Total, r.TemperatureBefore, r.TemperatureAfter,
			r.Totals.Time, r.Totals.Power, r.Totals.Delay,
			float64(r.Duration.Microseconds()) / 1000, r.Interrupted,
		}
		if err := f.SetSheetRow(roundsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
		hrow := []any{rec.Round}
		for _, h := range rec.Headings {
			hrow = append(hrow, h)
		}
		if err := f.SetSheetRow(headingsSheet, fmt.Sprintf("A%d", i+2), &hrow); err != nil {
			return err
		}
	}
	return f.Write(w)
}
