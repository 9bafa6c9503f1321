package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"aircorr/config"
	"aircorr/metrics"
	"aircorr/model"
	"aircorr/types"
)

// Publisher hands fetched rows to the ingest pipeline.
type Publisher interface {
	Publish(ctx context.Context, msg types.ObservationMessage) error
}

// Envista channel name -> frame column.
var channelToColumn = map[string]string{
	"BP":   "Pressure",
	"RH":   "RH",
	"TG":   "Temp",
	"WD":   "WD",
	"WS":   "WS",
	"Rain": "PREC",
}

// ===== Envista wire types =====

type envistaChannel struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

type envistaRow struct {
	Datetime string           `json:"datetime"`
	Channels []envistaChannel `json:"channels"`
}

type envistaData struct {
	Data []envistaRow `json:"data"`
}

type EnvistaStation struct {
	StationID int    `json:"stationId"`
	Name      string `json:"name"`
}

// ===== Client =====

type Client struct {
	BaseURL string
	Token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		http:    httpClient(),
	}
}

// NewClientFromEnv reads the ApiToken granted by the meteorological service.
func NewClientFromEnv() (*Client, error) {
	tok := strings.TrimSpace(os.Getenv(config.IMSTokenEnv))
	if tok == "" {
		return nil, fmt.Errorf("%s is required", config.IMSTokenEnv)
	}
	return NewClient(config.IMSBaseURL, tok), nil
}

func httpClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", config.IMSUserAgent)
	req.Header.Set("Authorization", "ApiToken "+c.Token)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return elapsed, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return elapsed, fmt.Errorf("http status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return elapsed, json.Unmarshal(body, out)
}

func (c *Client) Stations(ctx context.Context) ([]EnvistaStation, error) {
	var out []EnvistaStation
	_, err := c.get(ctx, "/envista/stations", &out)
	return out, err
}

// ValidateCatalogue checks every configured Envista ID against the live
// station catalogue and reports the ones the service no longer lists.
func (c *Client) ValidateCatalogue(ctx context.Context) error {
	stations, err := c.Stations(ctx)
	if err != nil {
		return fmt.Errorf("station catalogue: %w", err)
	}
	known := make(map[int]string, len(stations))
	for _, s := range stations {
		known[s.StationID] = s.Name
	}
	missing := 0
	for site, s := range config.Stations {
		for id := range s.EnvistaIDs {
			if _, ok := known[id]; !ok {
				log.Printf("[IMS] configured station %d (%s) is not in the Envista catalogue", id, site)
				missing++
			}
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d configured stations missing from the Envista catalogue", missing)
	}
	log.Printf("[IMS] catalogue check passed, %d stations listed", len(known))
	return nil
}

// EarliestRecord probes the first datetime a station ever reported.
func (c *Client) EarliestRecord(ctx context.Context, stationID int) (time.Time, error) {
	var out envistaData
	if _, err := c.get(ctx, fmt.Sprintf("/envista/stations/%d/data/earliest", stationID), &out); err != nil {
		return time.Time{}, err
	}
	if len(out.Data) == 0 {
		return time.Time{}, errors.New("earliest: empty data")
	}
	return time.Parse(time.RFC3339, out.Data[0].Datetime)
}

// RangeData fetches one station's rows for a closed date range.
func (c *Client) RangeData(ctx context.Context, stationID int, from, to time.Time) ([]envistaRow, time.Duration, error) {
	path := fmt.Sprintf("/envista/stations/%d/data?from=%s&to=%s",
		stationID, from.Format("2006/01/02"), to.Format("2006/01/02"))
	var out envistaData
	elapsed, err := c.get(ctx, path, &out)
	if err != nil {
		return nil, elapsed, err
	}
	return out.Data, elapsed, nil
}

// throttleDelay spaces requests by how slow the previous one was, so a busy
// server is not hammered.
func throttleDelay(elapsed time.Duration) time.Duration {
	switch {
	case elapsed < time.Second:
		return 500 * time.Millisecond
	case elapsed < 5*time.Second:
		return time.Second
	default:
		return 5 * time.Second
	}
}

// extractRows keeps only the study hours and maps valid channels onto frame
// columns. Rows ending up with no measurement are dropped.
func extractRows(rows []envistaRow, station string, hours map[string]bool) []model.Observation {
	var out []model.Observation
	for _, r := range rows {
		t, err := time.Parse(time.RFC3339, r.Datetime)
		if err != nil {
			log.Printf("[IMS] row without datetime: %v", err)
			continue
		}
		hour := t.Format(model.TimeLayout)
		if !hours[hour] {
			continue
		}
		o := model.NewObservation(station, t.Format(model.DateLayout), hour)
		for _, ch := range r.Channels {
			col, ok := channelToColumn[ch.Name]
			if !ok || !ch.Valid {
				continue
			}
			o.Set(col, ch.Value)
		}
		if o.MissingCount(model.MeasurementColumns) == len(model.MeasurementColumns) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func hourSet() map[string]bool {
	m := make(map[string]bool, len(config.FetchHours))
	for _, h := range config.FetchHours {
		m[h] = true
	}
	return m
}

// FetchStation walks month windows from the checkpointed start date to the
// end date, publishing kept rows and advancing the checkpoint after every
// month. Returns false when the station had to be abandoned.
func (c *Client) FetchStation(ctx context.Context, cp *Checkpoint, cpPath string,
	site string, stationID int, stationName string, pub Publisher) bool {

	log.Printf("[IMS] %s [%d] station", stationName, stationID)
	begin := time.Now()
	key := strconv.Itoa(stationID)

	window, ok := cp.Window(key)
	if !ok {
		log.Printf("[IMS] no window for %s, skipping", stationName)
		return true
	}
	start, err := parseDay(window[0])
	if err != nil {
		log.Printf("[IMS] bad start date %q: %v", window[0], err)
		return false
	}
	end, err := parseDay(window[1])
	if err != nil {
		log.Printf("[IMS] bad end date %q: %v", window[1], err)
		return false
	}
	if !start.Before(end) {
		log.Printf("[IMS] not fetching %s, start is not before end (%s-%s)", stationName, window[0], window[1])
		return true
	}

	earliest, err := c.EarliestRecord(ctx, stationID)
	if err != nil {
		log.Printf("[IMS] earliest probe failed for %s: %v", stationName, err)
	} else {
		log.Printf("[IMS] earliest record %s", earliest.Format("January 2006"))
		if earliest.After(start) {
			start = earliest
		}
	}

	hours := hourSet()
	noData := 0
	for _, m := range monthsBetween(start, end) {
		first, last := monthBounds(m)
		rows, elapsed, err := c.RangeData(ctx, stationID, first, last)
		if err != nil || len(rows) == 0 {
			log.Printf("[IMS] no data for %s in %s: %v", stationName, m.Format("January 2006"), err)
			noData++
			if noData > config.IMSTryLimit {
				log.Printf("[IMS] reached try limit for %s station", stationName)
				return false
			}
			continue
		}
		log.Printf("[IMS] got %s in %.2fs", m.Format("January 2006"), elapsed.Seconds())

		obs := extractRows(rows, site, hours)
		for _, o := range obs {
			if err := pub.Publish(ctx, types.ObservationMessage{Source: "ims", Observation: o}); err != nil {
				log.Printf("[IMS] publish failed: %v", err)
			}
		}
		metrics.ObservationsFetched.WithLabelValues("ims").Add(float64(len(obs)))

		// Checkpoint only advances: next run starts at the following month.
		cp.SetWindow(key, [2]string{formatDay(m.AddDate(0, 1, 0)), window[1]})
		if err := cp.Save(cpPath); err != nil {
			log.Printf("[IMS] checkpoint save failed: %v", err)
		}

		select {
		case <-time.After(throttleDelay(elapsed)):
		case <-ctx.Done():
			return false
		}
	}
	log.Printf("[IMS] done with %s [%.1fs]", stationName, time.Since(begin).Seconds())
	return true
}

// FetchAll runs every catalogued Envista station and reports whether all of
// them completed.
func FetchAll(ctx context.Context, c *Client, cp *Checkpoint, cpPath string, pub Publisher) bool {
	sites := make([]string, 0, len(config.Stations))
	for s := range config.Stations {
		sites = append(sites, s)
	}
	sort.Strings(sites)

	total, okCount := 0, 0
	for _, site := range sites {
		ids := make([]int, 0, len(config.Stations[site].EnvistaIDs))
		for id := range config.Stations[site].EnvistaIDs {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			total++
			if c.FetchStation(ctx, cp, cpPath, site, id, config.Stations[site].EnvistaIDs[id], pub) {
				okCount++
			}
		}
	}
	log.Printf("[IMS] fetch run finished, %d/%d stations complete", okCount, total)
	return okCount == total
}
