package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
)

const xlsxDateLayout = "2006-01-02"

// WriteXLSX writes a workbook with two sheets: the long-format hourly stats
// and a per-tile daily summary.
func WriteXLSX(w io.Writer, profile mobility.DayProfile) error {
	f := xlsx.NewFile()

	if err := addHourlySheet(f, profile); err != nil {
		return err
	}
	if err := addSummarySheet(f, profile); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

func addHourlySheet(f *xlsx.File, profile mobility.DayProfile) error {
	sheet, err := f.AddSheet("hourly")
	if err != nil {
		return eris.Wrap(err, "report: add hourly sheet")
	}

	header := sheet.AddRow()
	for _, name := range []string{"city", "date", "tile_id", "hour", "feature", "mean", "samples"} {
		header.AddCell().SetString(name)
	}

	date := profile.Date.Format(xlsxDateLayout)
	for _, stat := range profile.Stats {
		row := sheet.AddRow()
		row.AddCell().SetString(profile.City)
		row.AddCell().SetString(date)
		row.AddCell().SetString(stat.TileID)
		row.AddCell().SetInt(stat.Hour)
		row.AddCell().SetString(stat.Feature)
		row.AddCell().SetFloat(stat.Mean)
		row.AddCell().SetInt(stat.Samples)
	}
	return nil
}

func addSummarySheet(f *xlsx.File, profile mobility.DayProfile) error {
	sheet, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	summaries := Summarize(profile)
	features := featureNames(summaries)

	header := sheet.AddRow()
	header.AddCell().SetString("tile_id")
	for _, feature := range features {
		header.AddCell().SetString(feature)
	}
	header.AddCell().SetString("samples")

	for _, summary := range summaries {
		row := sheet.AddRow()
		row.AddCell().SetString(summary.TileID)
		for _, feature := range features {
			row.AddCell().SetFloat(summary.Features[feature])
		}
		row.AddCell().SetInt(summary.Samples)
	}
	return nil
}
