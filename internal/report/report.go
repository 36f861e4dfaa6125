// Package report exports stored activity profiles to analyst-facing formats:
// CSV, XLSX workbooks, GeoJSON feature collections, and ESRI shapefiles.
package report

import (
	"sort"

	"github.com/aryanshah2441/social-distancing-index/internal/mobility"
)

// TileSummary is one exported row: a tile with its daily mean for each
// aggregated feature, averaged over the hours present.
type TileSummary struct {
	TileID   string             `csv:"tile_id" json:"tile_id"`
	Features map[string]float64 `csv:"-" json:"features"`
	Samples  int                `csv:"samples" json:"samples"`
}

// Summarize collapses a day profile's hourly stats to per-tile daily means.
// Tiles come back sorted by id so exports are deterministic.
func Summarize(profile mobility.DayProfile) []TileSummary {
	type acc struct {
		sums    map[string]float64
		counts  map[string]int
		samples int
	}
	byTile := make(map[string]*acc)
	for _, stat := range profile.Stats {
		a, ok := byTile[stat.TileID]
		if !ok {
			a = &acc{sums: make(map[string]float64), counts: make(map[string]int)}
			byTile[stat.TileID] = a
		}
		a.sums[stat.Feature] += stat.Mean
		a.counts[stat.Feature]++
		a.samples += stat.Samples
	}

	ids := make([]string, 0, len(byTile))
	for id := range byTile {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]TileSummary, 0, len(ids))
	for _, id := range ids {
		a := byTile[id]
		features := make(map[string]float64, len(a.sums))
		for feature, sum := range a.sums {
			features[feature] = sum / float64(a.counts[feature])
		}
		summaries = append(summaries, TileSummary{
			TileID:   id,
			Features: features,
			Samples:  a.samples,
		})
	}
	return summaries
}

// featureNames returns the union of feature keys across summaries, sorted.
func featureNames(summaries []TileSummary) []string {
	seen := make(map[string]bool)
	for _, s := range summaries {
		for feature := range s.Features {
			seen[feature] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
