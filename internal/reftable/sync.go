package reftable

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/framewright/tenon/internal/checksum"
)

// Sync walks the table directory and brings the database up to date:
//   - new/changed CSV files are parsed and their rows replaced
//   - files removed from disk have their rows deleted
//
// Files named *.user.csv load as user tables; every other *.csv loads as
// a base table. Paths are stored relative to dir.
func Sync(db Tables, dir string, logger *slog.Logger) error {
	known, err := db.AllFileChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{})
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".csv") {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		disk[rel] = struct{}{}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warn("sync: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
			return nil
		}
		cs := checksum.Sum(data)
		if known[rel] == cs {
			return nil
		}

		rows, parseErr := ParseCSV(data)
		if parseErr != nil {
			logger.Warn("sync: parse failed", slog.String("path", rel), slog.String("error", parseErr.Error()))
			return nil
		}
		if repErr := db.ReplaceFile(rel, cs, sourceOf(rel), rows); repErr != nil {
			logger.Warn("sync: replace failed", slog.String("path", rel), slog.String("error", repErr.Error()))
			return nil
		}
		logger.Debug("sync: loaded", slog.String("path", rel), slog.Int("rows", len(rows)))
		return nil
	})
	if err != nil {
		return err
	}

	// Remove stale entries.
	for p := range known {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteFile(p); delErr != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", delErr.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// sourceOf classifies a table file by naming convention.
func sourceOf(rel string) string {
	if strings.HasSuffix(rel, ".user.csv") {
		return SourceUser
	}
	return SourceBase
}
