package connect

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"

	"aircorr/config"
	"aircorr/db"
)

type stationInfo struct {
	Station    string `json:"station"`
	PortalName string `json:"portal_name"`
	EnvistaIDs []int  `json:"envista_ids"`
	Rows       int    `json:"rows"`
	LatestDate string `json:"latest_date"`
}

// StationsHandler : GET /stations, the catalogue joined with row counts and
// freshness from the raw observation table.
func StationsHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enableCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
				"status":  "fail",
				"message": "Method not allowed",
			})
			return
		}

		counts, latest, err := db.CountByStation(r.Context(), database)
		if err != nil {
			log.Printf("[StationsHandler] count query error: %v", err)
			http.Error(w, "Failed to load station counts", http.StatusInternalServerError)
			return
		}

		out := make([]stationInfo, 0, len(config.Stations))
		for key, site := range config.Stations {
			ids := make([]int, 0, len(site.EnvistaIDs))
			for id := range site.EnvistaIDs {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			out = append(out, stationInfo{
				Station:    key,
				PortalName: site.PortalName,
				EnvistaIDs: ids,
				Rows:       counts[key],
				LatestDate: latest[key],
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(out)
	}
}

// ObservationsHandler : GET /observations?station=TLV&limit=48, newest clean
// rows for one station.
func ObservationsHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enableCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
				"status":  "fail",
				"message": "Method not allowed",
			})
			return
		}

		station := r.URL.Query().Get("station")
		if _, ok := config.Stations[station]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status":  "fail",
				"message": "Unknown station",
			})
			return
		}
		limit := 48
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 1000 {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"status":  "fail",
					"message": "Invalid limit",
				})
				return
			}
			limit = n
		}

		obs, err := db.LatestByStation(r.Context(), database, station, limit)
		if err != nil {
			log.Printf("[ObservationsHandler] query error: %v", err)
			http.Error(w, "Failed to load observations", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(obs)
	}
}

func writeJSON(w http.ResponseWriter, status int, data map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func enableCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
