package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"aircorr/model"
)

// Column order shared by every statement in this file.
var dbColumns = []string{"pressure", "rh", "temp", "wd", "ws", "prec", "no", "no2", "nox", "o3", "pm10", "pm25"}

// frame column name -> db column name
var frameToDB = map[string]string{
	"Pressure": "pressure", "RH": "rh", "Temp": "temp", "WD": "wd", "WS": "ws", "PREC": "prec",
	"NO": "no", "NO2": "no2", "NOX": "nox", "O3": "o3", "PM10": "pm10", "PM2.5": "pm25",
}

var dbToFrame = func() map[string]string {
	m := make(map[string]string, len(frameToDB))
	for k, v := range frameToDB {
		m[v] = k
	}
	return m
}()

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// rowArgs flattens one observation into statement arguments following dbColumns.
func rowArgs(o model.Observation) []any {
	args := make([]any, 0, len(dbColumns))
	for _, c := range dbColumns {
		args = append(args, nullable(o.Value(dbToFrame[c])))
	}
	return args
}

// placeholders builds ($1,$2,...),(...) groups of width w starting at 1.
func placeholders(rows, w int) string {
	var b strings.Builder
	n := 1
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for j := 0; j < w; j++ {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}

// InsertObservations lands raw rows. Re-delivery of the same message is
// idempotent: the newest value wins on the (station,date,time,source) key.
func InsertObservations(ctx context.Context, db *sql.DB, source string, obs []model.Observation) (err error) {
	if len(obs) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	width := 4 + len(dbColumns)
	cols := "station, obs_date, obs_time, source, " + strings.Join(dbColumns, ", ")
	updates := make([]string, 0, len(dbColumns))
	for _, c := range dbColumns {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	q := fmt.Sprintf(`INSERT INTO observations (%s) VALUES %s
		ON CONFLICT (station, obs_date, obs_time, source) DO UPDATE SET %s`,
		cols, placeholders(len(obs), width), strings.Join(updates, ", "))

	args := make([]any, 0, len(obs)*width)
	for _, o := range obs {
		args = append(args, o.Station, o.Date, o.Time, source)
		args = append(args, rowArgs(o)...)
	}
	_, err = tx.ExecContext(ctx, q, args...)
	return err
}

func scanObservations(rows *sql.Rows) ([]model.Observation, error) {
	var out []model.Observation
	for rows.Next() {
		o := model.NewObservation("", "", "")
		vals := make([]sql.NullFloat64, len(dbColumns))
		dest := []any{&o.Station, &o.Date, &o.Time}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, c := range dbColumns {
			if vals[i].Valid {
				o.Set(dbToFrame[c], vals[i].Float64)
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LoadObservations returns every raw row ordered by station, date, time.
// A key present in both sources comes back as two records; the cleaning
// pass merges them column-wise.
func LoadObservations(ctx context.Context, db *sql.DB) ([]model.Observation, error) {
	sel := "station, obs_date, obs_time, " + strings.Join(dbColumns, ", ")
	q := fmt.Sprintf(`SELECT %s FROM observations ORDER BY station, obs_date, obs_time`, sel)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// ReplaceCleanObservations swaps the clean table for the given rows in one
// transaction, so readers never see a partially cleaned state.
func ReplaceCleanObservations(ctx context.Context, db *sql.DB, obs []model.Observation) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM observations_clean`); err != nil {
		return err
	}
	if len(obs) == 0 {
		return nil
	}

	width := 3 + len(dbColumns)
	cols := "station, obs_date, obs_time, " + strings.Join(dbColumns, ", ")

	// Chunked insert: Postgres caps bind parameters at 65535.
	chunk := 65000 / width
	for start := 0; start < len(obs); start += chunk {
		end := start + chunk
		if end > len(obs) {
			end = len(obs)
		}
		part := obs[start:end]
		q := fmt.Sprintf(`INSERT INTO observations_clean (%s) VALUES %s`, cols, placeholders(len(part), width))
		args := make([]any, 0, len(part)*width)
		for _, o := range part {
			args = append(args, o.Station, o.Date, o.Time)
			args = append(args, rowArgs(o)...)
		}
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// LoadCleanObservations mirrors LoadObservations for the clean table.
func LoadCleanObservations(ctx context.Context, db *sql.DB) ([]model.Observation, error) {
	sel := "station, obs_date, obs_time, " + strings.Join(dbColumns, ", ")
	q := fmt.Sprintf(`SELECT %s FROM observations_clean ORDER BY station, obs_date, obs_time`, sel)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load clean observations: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// LatestByStation returns newest clean rows for one station.
func LatestByStation(ctx context.Context, db *sql.DB, station string, limit int) ([]model.Observation, error) {
	sel := "station, obs_date, obs_time, " + strings.Join(dbColumns, ", ")
	q := fmt.Sprintf(`SELECT %s FROM observations_clean WHERE station = $1
		ORDER BY obs_date DESC, obs_time DESC LIMIT $2`, sel)
	rows, err := db.QueryContext(ctx, q, station, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

// CountByStation reports raw row count and latest date per station.
func CountByStation(ctx context.Context, db *sql.DB) (map[string]int, map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT station, COUNT(*), MAX(obs_date) FROM observations GROUP BY station`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	latest := map[string]string{}
	for rows.Next() {
		var s string
		var n int
		var d sql.NullString
		if err := rows.Scan(&s, &n, &d); err != nil {
			return nil, nil, err
		}
		counts[s] = n
		if d.Valid {
			latest[s] = d.String
		}
	}
	return counts, latest, rows.Err()
}
