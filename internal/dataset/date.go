// Package dataset loads per-city mobility data drops from disk: daily CSV
// files whose names carry the acquisition date, and date-partitioned
// directories of part files. Tables are keyed by a vendor tile id column;
// all other columns stay raw for the aggregator to interpret.
package dataset

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNoDate is returned when a file name carries no parseable acquisition date.
var ErrNoDate = eris.New("dataset: no date in file name")

var (
	digitGroups = regexp.MustCompile(`[0-9]+`)
	alphaGroups = regexp.MustCompile(`[A-Za-z]+`)
)

// ExtractDate parses the acquisition date embedded in a daily file name.
// Vendors name daily drops "<city><day><Mon><year>.csv" (e.g.
// "boston7May2020.csv"); only the path segment after the last occurrence of
// the city name is considered.
func ExtractDate(path, city string) (time.Time, error) {
	name := path
	if idx := strings.LastIndex(name, city); idx >= 0 {
		name = name[idx+len(city):]
	}
	name = strings.ReplaceAll(name, ".csv", "")

	nums := digitGroups.FindAllString(name, -1)
	words := alphaGroups.FindAllString(name, -1)
	if len(nums) < 2 || len(words) < 1 {
		return time.Time{}, eris.Wrapf(ErrNoDate, "file %q", path)
	}

	date, err := time.Parse("2 Jan 2006", fmt.Sprintf("%s %s %s", nums[0], words[0], nums[1]))
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "dataset: parse date in %q", path)
	}
	return date, nil
}

// ExtractPartitionDate parses the date of a partition directory whose path
// carries "utc_date=yyyy-mm-dd" after the city segment. The second return is
// false when the path holds no date, which is normal for intermediate
// directories during a walk.
func ExtractPartitionDate(path, city string) (time.Time, bool) {
	name := path
	if idx := strings.LastIndex(name, city); idx >= 0 {
		name = name[idx+len(city):]
	}

	nums := digitGroups.FindAllString(name, -1)
	if len(nums) < 3 {
		return time.Time{}, false
	}

	date, err := time.Parse("2006 1 2", fmt.Sprintf("%s %s %s", nums[0], nums[1], nums[2]))
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
