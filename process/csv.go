package process

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV exports the table with the study's header layout. The station
// code column carries the integer coding used downstream; missing values
// are empty cells.
func WriteCSV(t *Table, codes map[string]int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	header := append([]string{"Station", "StationCode", "Date", "Time"}, t.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := []string{r.Station, strconv.Itoa(codes[r.Station]), r.Date, r.Time}
		for _, col := range t.Columns {
			if v := r.Value(col); v != nil {
				rec = append(rec, strconv.FormatFloat(*v, 'g', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
