package output

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/law-makers/scavenger/pkg/models"
)

var fixedColumns = []string{"id", "hash", "title", "model", "target", "source", "related", "created_at"}

// WriteCSV writes one row per scrap. Data attributes become columns after
// the fixed ones, in key order across all scraps.
func WriteCSV(w io.Writer, scraps []models.Scrap) error {
	writer := csv.NewWriter(w)

	keys := dataKeys(scraps)
	if err := writer.Write(append(append([]string(nil), fixedColumns...), keys...)); err != nil {
		return err
	}

	for _, s := range scraps {
		row := []string{
			strconv.FormatInt(s.ID, 10),
			s.Hash,
			s.Title,
			s.Model,
			s.Target,
			s.Source,
			relatedColumn(s.Related),
			s.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, k := range keys {
			row = append(row, s.Data[k])
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func relatedColumn(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func dataKeys(scraps []models.Scrap) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range scraps {
		for k := range s.Data {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
