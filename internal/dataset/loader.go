package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// loadConcurrency caps parallel file reads during a load.
const loadConcurrency = 8

// LoadDaily loads every daily CSV under <root>/<city>, one table per file,
// sorted ascending by acquisition date.
func LoadDaily(ctx context.Context, root, city, tileColumn string) ([]Table, error) {
	files, err := filepath.Glob(filepath.Join(root, city, "*.csv"))
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: glob daily files for %s", city)
	}
	if len(files) == 0 {
		return nil, eris.Errorf("dataset: no daily files under %s for city %s", root, city)
	}

	tables := make([]Table, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			date, err := ExtractDate(file, city)
			if err != nil {
				return err
			}
			columns, records, err := ReadCSV(file, tileColumn)
			if err != nil {
				return err
			}
			tables[i] = Table{City: city, Date: date, Columns: columns, Records: records}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortTables(tables)
	logLoaded(city, "daily", tables)
	return tables, nil
}

// LoadPartitioned loads date-partitioned drops under <root>/<city>: each
// directory carrying a utc_date partition becomes one table, its part files
// concatenated in name order. Tables are sorted ascending by date.
func LoadPartitioned(ctx context.Context, root, city, tileColumn string) ([]Table, error) {
	dir := filepath.Join(root, city)

	type partition struct {
		date  time.Time
		files []string
	}
	var parts []partition

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		date, ok := ExtractPartitionDate(path, city)
		if !ok {
			return nil
		}
		files, err := filepath.Glob(filepath.Join(path, "*"))
		if err != nil {
			return err
		}
		var regular []string
		for _, f := range files {
			if info, statErr := os.Stat(f); statErr == nil && info.Mode().IsRegular() {
				regular = append(regular, f)
			}
		}
		if len(regular) > 0 {
			parts = append(parts, partition{date: date, files: regular})
		}
		return filepath.SkipDir
	})
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: walk partitions for %s", city)
	}
	if len(parts) == 0 {
		return nil, eris.Errorf("dataset: no partitions under %s for city %s", root, city)
	}

	tables := make([]Table, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, part := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table := Table{City: city, Date: part.date}
			for _, file := range part.files {
				columns, records, err := ReadCSV(file, tileColumn)
				if err != nil {
					return err
				}
				if table.Columns == nil {
					table.Columns = columns
				}
				table.Records = append(table.Records, records...)
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortTables(tables)
	logLoaded(city, "partitioned", tables)
	return tables, nil
}

func sortTables(tables []Table) {
	sort.Slice(tables, func(i, j int) bool { return tables[i].Date.Before(tables[j].Date) })
}

func logLoaded(city, kind string, tables []Table) {
	dates := make([]time.Time, len(tables))
	rows := 0
	for i, t := range tables {
		dates[i] = t.Date
		rows += len(t.Records)
	}
	zap.L().Info("loaded mobility tables",
		zap.String("city", city),
		zap.String("kind", kind),
		zap.Int("tables", len(tables)),
		zap.Int("rows", rows),
		zap.Times("dates", dates),
	)
}
