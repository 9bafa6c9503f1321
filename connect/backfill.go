package connect

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"aircorr/config"
	"aircorr/types"
)

// BackfillFunc re-fetches one Envista station over a date window; the
// handler runs it off the request goroutine.
type BackfillFunc func(stationID int, from, to string)

// BackfillHandler : POST /backfill, admin-triggered re-acquisition. The key
// in the body is checked against the configured bcrypt hash.
func BackfillHandler(run BackfillFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enableCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
				"status":  "fail",
				"message": "Method not allowed",
			})
			return
		}

		var req types.BackfillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("[BackfillHandler] JSON decode error: %v", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status":  "fail",
				"message": "Invalid request",
			})
			return
		}

		hash := os.Getenv(config.AdminKeyHashEnv)
		if hash == "" {
			log.Printf("[BackfillHandler] %s not set, backfill disabled", config.AdminKeyHashEnv)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"status":  "fail",
				"message": "Backfill disabled",
			})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Key)) != nil {
			log.Printf("[BackfillHandler] key mismatch for station %d", req.StationID)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"status":  "fail",
				"message": "Invalid key",
			})
			return
		}

		if !validWindow(req.From, req.To) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status":  "fail",
				"message": "Invalid date window",
			})
			return
		}
		if !knownStation(req.StationID) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status":  "fail",
				"message": "Unknown station",
			})
			return
		}

		go run(req.StationID, req.From, req.To)
		log.Printf("[BackfillHandler] backfill queued: station %d %s..%s", req.StationID, req.From, req.To)
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "success",
			"message": "Backfill queued",
		})
	}
}

func validWindow(from, to string) bool {
	f, err := time.Parse("02/01/2006", from)
	if err != nil {
		return false
	}
	t, err := time.Parse("02/01/2006", to)
	if err != nil {
		return false
	}
	return !t.Before(f)
}

func knownStation(id int) bool {
	for _, site := range config.Stations {
		if _, ok := site.EnvistaIDs[id]; ok {
			return true
		}
	}
	return false
}
