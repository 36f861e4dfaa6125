// Package mobility turns raw per-day mobility tables into time-of-day
// activity profiles: feature means grouped by tile id and hour of day.
// Tile ids are treated as opaque grouping keys throughout.
package mobility

import (
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aryanshah2441/social-distancing-index/internal/dataset"
)

// Time columns recognized in vendor tables, checked in this order.
const (
	colTimestamp  = "ts_15"        // 15-minute timestamp buckets
	colHourOfWeek = "hour_of_week" // 0-167
	colHourOfDay  = "hour_of_day"  // 0-23
)

// timestampLayouts are the ts_15 formats seen across vendor exports.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// HourlyStat is the mean of one feature over one (tile, hour-of-day) group.
type HourlyStat struct {
	TileID  string  `csv:"tile_id" json:"tile_id"`
	Hour    int     `csv:"hour" json:"hour"`
	Feature string  `csv:"feature" json:"feature"`
	Mean    float64 `csv:"mean" json:"mean"`
	Samples int     `csv:"samples" json:"samples"`
}

// DayProfile holds the hourly activity profile of one city on one date.
type DayProfile struct {
	City  string       `json:"city"`
	Date  time.Time    `json:"date"`
	Stats []HourlyStat `json:"stats"`
}

// SeriesPoint is one observation in a per-tile time series across dates.
type SeriesPoint struct {
	Date    time.Time `csv:"date" json:"date"`
	Hour    int       `csv:"hour" json:"hour"`
	Feature string    `csv:"feature" json:"feature"`
	Mean    float64   `csv:"mean" json:"mean"`
	Samples int       `csv:"samples" json:"samples"`
}

type groupKey struct {
	tileID string
	hour   int
}

type groupAcc struct {
	sums   []float64
	counts []int
}

// HourlyMean groups a table's records by (tile id, hour of day) and averages
// the given feature columns. The hour is derived from whichever time column
// the table carries: the hour of a ts_15 timestamp, hour_of_week mod 24, or
// hour_of_day as-is. Records with unparsable time or feature values are
// skipped and counted, not fatal. Stats are ordered by tile id, hour, then
// feature list position.
func HourlyMean(table dataset.Table, features []string) (DayProfile, error) {
	if len(features) == 0 {
		return DayProfile{}, eris.New("mobility: no feature columns given")
	}

	hourOf, err := hourFunc(&table)
	if err != nil {
		return DayProfile{}, err
	}
	for _, f := range features {
		if !table.HasColumn(f) {
			return DayProfile{}, eris.Errorf("mobility: table for %s on %s has no feature column %q (columns: %v)",
				table.City, table.Date.Format("2006-01-02"), f, table.Columns)
		}
	}

	groups := make(map[groupKey]*groupAcc)
	skippedTime := 0
	skippedValues := 0

	for _, rec := range table.Records {
		hour, ok := hourOf(rec)
		if !ok {
			skippedTime++
			continue
		}
		key := groupKey{tileID: rec.TileID, hour: hour}
		acc := groups[key]
		if acc == nil {
			acc = &groupAcc{sums: make([]float64, len(features)), counts: make([]int, len(features))}
			groups[key] = acc
		}
		for i, f := range features {
			v, err := strconv.ParseFloat(rec.Fields[f], 64)
			if err != nil {
				skippedValues++
				continue
			}
			acc.sums[i] += v
			acc.counts[i]++
		}
	}

	if skippedTime > 0 || skippedValues > 0 {
		zap.L().Warn("skipped unparsable mobility values",
			zap.String("city", table.City),
			zap.Time("date", table.Date),
			zap.Int("bad_time", skippedTime),
			zap.Int("bad_values", skippedValues),
		)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tileID != keys[j].tileID {
			return keys[i].tileID < keys[j].tileID
		}
		return keys[i].hour < keys[j].hour
	})

	profile := DayProfile{City: table.City, Date: table.Date}
	for _, k := range keys {
		acc := groups[k]
		for i, f := range features {
			if acc.counts[i] == 0 {
				continue
			}
			profile.Stats = append(profile.Stats, HourlyStat{
				TileID:  k.tileID,
				Hour:    k.hour,
				Feature: f,
				Mean:    acc.sums[i] / float64(acc.counts[i]),
				Samples: acc.counts[i],
			})
		}
	}
	return profile, nil
}

// hourFunc picks the hour-of-day extraction for a table based on which time
// column it carries.
func hourFunc(table *dataset.Table) (func(dataset.Record) (int, bool), error) {
	switch {
	case table.HasColumn(colTimestamp):
		return func(rec dataset.Record) (int, bool) {
			ts, ok := parseTimestamp(rec.Fields[colTimestamp])
			if !ok {
				return 0, false
			}
			return ts.Hour(), true
		}, nil
	case table.HasColumn(colHourOfWeek):
		return func(rec dataset.Record) (int, bool) {
			h, err := strconv.Atoi(rec.Fields[colHourOfWeek])
			if err != nil || h < 0 {
				return 0, false
			}
			return h % 24, true
		}, nil
	case table.HasColumn(colHourOfDay):
		return func(rec dataset.Record) (int, bool) {
			h, err := strconv.Atoi(rec.Fields[colHourOfDay])
			if err != nil || h < 0 || h > 23 {
				return 0, false
			}
			return h, true
		}, nil
	default:
		return nil, eris.Errorf("mobility: table for %s on %s has no recognized time column (columns: %v)",
			table.City, table.Date.Format("2006-01-02"), table.Columns)
	}
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
