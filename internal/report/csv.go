package report

import (
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
)

// WriteCSV writes a profile's hourly stats in long format, one row per
// (tile, hour, feature).
func WriteCSV(w io.Writer, profile mobility.DayProfile) error {
	data, err := csvutil.Marshal(profile.Stats)
	if err != nil {
		return eris.Wrap(err, "report: marshal hourly stats")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write csv")
	}
	return nil
}

// WriteSeriesCSV writes a tile's cross-date series, one row per
// (date, hour, feature).
func WriteSeriesCSV(w io.Writer, series []mobility.SeriesPoint) error {
	data, err := csvutil.Marshal(series)
	if err != nil {
		return eris.Wrap(err, "report: marshal tile series")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write csv")
	}
	return nil
}
