package db

import (
	"context"
	"database/sql"
)

// Call once at startup to guarantee the schema.
func EnsureObservationTables(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS observations (
  station    TEXT NOT NULL,
  obs_date   TEXT NOT NULL,
  obs_time   TEXT NOT NULL,
  source     TEXT NOT NULL,
  pressure   DOUBLE PRECISION,
  rh         DOUBLE PRECISION,
  temp       DOUBLE PRECISION,
  wd         DOUBLE PRECISION,
  ws         DOUBLE PRECISION,
  prec       DOUBLE PRECISION,
  no         DOUBLE PRECISION,
  no2        DOUBLE PRECISION,
  nox        DOUBLE PRECISION,
  o3         DOUBLE PRECISION,
  pm10       DOUBLE PRECISION,
  pm25       DOUBLE PRECISION,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (station, obs_date, obs_time, source)
);
CREATE TABLE IF NOT EXISTS observations_clean (
  station    TEXT NOT NULL,
  obs_date   TEXT NOT NULL,
  obs_time   TEXT NOT NULL,
  pressure   DOUBLE PRECISION,
  rh         DOUBLE PRECISION,
  temp       DOUBLE PRECISION,
  wd         DOUBLE PRECISION,
  ws         DOUBLE PRECISION,
  prec       DOUBLE PRECISION,
  no         DOUBLE PRECISION,
  no2        DOUBLE PRECISION,
  nox        DOUBLE PRECISION,
  o3         DOUBLE PRECISION,
  pm10       DOUBLE PRECISION,
  pm25       DOUBLE PRECISION,
  PRIMARY KEY (station, obs_date, obs_time)
);
CREATE INDEX IF NOT EXISTS idx_obs_station_date ON observations (station, obs_date, obs_time);
CREATE INDEX IF NOT EXISTS idx_clean_station_date ON observations_clean (station, obs_date, obs_time);`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
