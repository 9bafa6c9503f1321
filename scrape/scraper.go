package scrape

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"aircorr/config"
	"aircorr/metrics"
	"aircorr/model"
	"aircorr/types"
)

const dayLayout = "02/01/2006"

// Publisher hands scraped rows to the ingest pipeline.
type Publisher interface {
	Publish(ctx context.Context, msg types.ObservationMessage) error
}

// Checkpointer is the slice of the acquire checkpoint the scraper advances.
type Checkpointer interface {
	PortalLatest(station string) string
	SetPortalLatest(station, date string)
	Flush() error
}

// Scraper drives one headless-Chrome page against the hourly report of the
// national air-monitoring portal.
type Scraper struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
	pub     Publisher
	cp      Checkpointer
}

// NewScraper launches the browser and opens the portal landing page.
func NewScraper(pub Publisher, cp Checkpointer) (*Scraper, error) {
	u, err := launcher.New().Headless(config.PortalHeadless).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: config.PortalURL})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open portal: %w", err)
	}
	return &Scraper{
		browser: browser,
		page:    page,
		timeout: config.PortalTimeout,
		pub:     pub,
		cp:      cp,
	}, nil
}

func (s *Scraper) Close() {
	if s.browser != nil {
		s.browser.Close()
	}
}

// OpenMenu walks from the landing page to the hourly-data report screen.
func (s *Scraper) OpenMenu() error {
	menu, err := s.page.Timeout(s.timeout).Element("#mainMenuIcon")
	if err != nil {
		return fmt.Errorf("main menu: %w", err)
	}
	if err := menu.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("main menu click: %w", err)
	}
	// Hebrew menu labels: "air monitoring data" then "hourly data".
	for _, label := range []string{"נתוני ניטור אוויר", "נתונים שעתיים"} {
		if err := s.clickMenuEntry(label); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scraper) clickMenuEntry(label string) error {
	el, err := s.page.Timeout(s.timeout).ElementX(
		fmt.Sprintf(`//span[contains(@class,'k-link') and normalize-space(text())='%s']`, label))
	if err != nil {
		return fmt.Errorf("menu entry %q: %w", label, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("menu entry %q click: %w", label, err)
	}
	return nil
}

// AcquireStations scrapes every catalogue station whose checkpoint is behind
// today. Returns true when every station completed.
func (s *Scraper) AcquireStations(ctx context.Context) bool {
	keys := make([]string, 0, len(config.Stations))
	for k := range config.Stations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ok := true
	for _, key := range keys {
		if ctx.Err() != nil {
			return false
		}
		site := config.Stations[key]
		start := s.nextDate(site.PortalName)
		if !behindToday(start) {
			log.Printf("[Scrape] %s up to date, skipping", key)
			continue
		}
		if err := s.scrapeStation(ctx, key, site.PortalName, start); err != nil {
			log.Printf("[Scrape] %s failed: %v", key, err)
			ok = false
		}
	}
	if err := s.cp.Flush(); err != nil {
		log.Printf("[Scrape] checkpoint flush failed: %v", err)
	}
	return ok
}

// nextDate is the day after the latest fully fetched one, or the study start.
func (s *Scraper) nextDate(portalName string) string {
	latest := s.cp.PortalLatest(portalName)
	if latest == "" {
		return config.PortalStartDate
	}
	t, err := time.Parse(dayLayout, latest)
	if err != nil {
		return config.PortalStartDate
	}
	return t.AddDate(0, 0, 1).Format(dayLayout)
}

// The portal publishes Israel-local dates; a server in another zone must
// not skip or re-enter a day around the Israel midnight boundary.
func todayIsrael() time.Time {
	loc, _ := time.LoadLocation("Asia/Jerusalem")
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func behindToday(date string) bool {
	t, err := time.Parse(dayLayout, date)
	if err != nil {
		return false
	}
	return t.Before(todayIsrael())
}

func (s *Scraper) scrapeStation(ctx context.Context, site, portalName, start string) error {
	if err := s.toggleStation(portalName); err != nil {
		return err
	}
	// Untick on the way out so the next station queries alone.
	defer func() {
		if err := s.toggleStation(portalName); err != nil {
			log.Printf("[Scrape] %s untick failed: %v", site, err)
		}
	}()

	// The portal renders an empty report for days with no data; advance a
	// day and retry, up to the limit or until the date reaches today.
	date := start
	retries := 0
	for {
		if err := s.setDate(date); err != nil {
			return err
		}
		if err := s.showResults(); err != nil {
			return err
		}
		if err := s.waitReport(); err == nil {
			break
		}
		retries++
		if retries > config.PortalPageRetry {
			return fmt.Errorf("%s: report never rendered after %d attempts", site, retries-1)
		}
		t, perr := time.Parse(dayLayout, date)
		if perr != nil {
			return perr
		}
		date = t.AddDate(0, 0, 1).Format(dayLayout)
		if !behindToday(date) {
			log.Printf("[Scrape] %s reached today while retrying, stopping", site)
			return nil
		}
		log.Printf("[Scrape] %s empty report, advancing to %s (%d/%d)",
			site, date, retries, config.PortalPageRetry)
	}

	pages := 0
	sinceFlush := 0
	latest := ""
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		obs, pageLatest, err := s.readPage(site)
		if err != nil {
			return err
		}
		if err := s.publish(ctx, obs); err != nil {
			return err
		}
		if pageLatest != "" {
			latest = pageLatest
		}
		pages++
		sinceFlush++
		if sinceFlush >= config.PortalSaveEvery && latest != "" {
			s.cp.SetPortalLatest(portalName, latest)
			if err := s.cp.Flush(); err != nil {
				log.Printf("[Scrape] checkpoint flush failed: %v", err)
			}
			sinceFlush = 0
		}
		more, err := s.nextPage()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	if latest != "" {
		s.cp.SetPortalLatest(portalName, latest)
	}
	metrics.ScrapePagesGauge.Set(float64(pages))
	log.Printf("[Scrape] %s done, %d pages, latest %s", site, pages, latest)
	return s.closeReport()
}

// toggleStation ticks (or unticks) the station checkbox in the tree. The
// checkbox sits outside the viewport for most stations, so the click happens
// in-page instead of through synthesized mouse input.
func (s *Scraper) toggleStation(portalName string) error {
	box, err := s.page.Timeout(s.timeout).ElementX(
		fmt.Sprintf(`//div[span[normalize-space(text())='%s']]//span[contains(@class,'k-checkbox')]`, portalName))
	if err != nil {
		return fmt.Errorf("station %q checkbox: %w", portalName, err)
	}
	if _, err := box.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("station %q tick: %w", portalName, err)
	}
	return nil
}

func (s *Scraper) setDate(date string) error {
	picker, err := s.page.Timeout(s.timeout).Element("#fromDateDatePicker")
	if err != nil {
		return fmt.Errorf("date picker: %w", err)
	}
	if err := picker.SelectAllText(); err != nil {
		return err
	}
	if err := picker.Input(date); err != nil {
		return fmt.Errorf("date picker input: %w", err)
	}
	return nil
}

func (s *Scraper) showResults() error {
	btn, err := s.page.Timeout(s.timeout).Element("#showResultsBtn")
	if err != nil {
		return fmt.Errorf("show results: %w", err)
	}
	return btn.Click(proto.InputMouseButtonLeft, 1)
}

// waitReport blocks until the report header renders or the timeout fires.
func (s *Scraper) waitReport() error {
	_, err := s.page.Timeout(s.timeout).Element("#resultPeriodTitle")
	return err
}

// readPage reads the current report page. The frozen left table carries the
// "HH:MM DD/MM/YYYY" row labels, the scrollable right table the measurements;
// both render the same rows in the same order. Returns the kept observations
// and the last date seen on the page (DD/MM/YYYY).
func (s *Scraper) readPage(site string) ([]model.Observation, string, error) {
	tables, err := s.page.Timeout(s.timeout).Elements("table.k-selectable")
	if err != nil {
		return nil, "", fmt.Errorf("report tables: %w", err)
	}
	if len(tables) < 2 {
		return nil, "", fmt.Errorf("report tables: got %d, want 2", len(tables))
	}
	labels, err := rowTexts(tables[0])
	if err != nil {
		return nil, "", err
	}
	headers, err := s.headerTexts()
	if err != nil {
		return nil, "", err
	}
	dataRows, err := tables[1].Elements("tr")
	if err != nil {
		return nil, "", err
	}

	hours := map[string]bool{}
	for _, h := range config.FetchHours {
		hours[h] = true
	}

	var keptLabels []string
	var cells [][]string
	latest := ""
	for i, label := range labels {
		date, hour, err := SplitDateHour(label)
		if err != nil {
			continue
		}
		if t, perr := time.Parse(model.DateLayout, date); perr == nil {
			latest = t.Format(dayLayout)
		}
		if !hours[hour] || i >= len(dataRows) {
			continue
		}
		tds, err := dataRows[i].Elements("td")
		if err != nil {
			continue
		}
		row := make([]string, 0, len(tds))
		for _, td := range tds {
			txt, terr := td.Text()
			if terr != nil {
				txt = ""
			}
			row = append(row, txt)
		}
		keptLabels = append(keptLabels, label)
		cells = append(cells, row)
	}
	return BuildObservations(site, headers, keptLabels, cells), latest, nil
}

func rowTexts(table *rod.Element) ([]string, error) {
	rows, err := table.Elements("tr")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		txt, err := r.Text()
		if err != nil {
			txt = ""
		}
		out = append(out, strings.TrimSpace(txt))
	}
	return out, nil
}

// headerTexts reads the pollutant column headers of the scrollable table.
func (s *Scraper) headerTexts() ([]string, error) {
	els, err := s.page.Timeout(s.timeout).Elements(`th[data-colspan="1"]`)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		txt, err := el.Text()
		if err != nil {
			txt = ""
		}
		out = append(out, txt)
	}
	return out, nil
}

func (s *Scraper) publish(ctx context.Context, obs []model.Observation) error {
	for _, o := range obs {
		msg := types.ObservationMessage{Source: "portal", Observation: o}
		if err := s.pub.Publish(ctx, msg); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	if n := len(obs); n > 0 {
		metrics.ObservationsFetched.WithLabelValues("portal").Add(float64(n))
	}
	return nil
}

// nextPage advances the report pager; false when the forward arrow is disabled.
func (s *Scraper) nextPage() (bool, error) {
	btn, err := s.page.Timeout(s.timeout).Element("#reportForward")
	if err != nil {
		return false, fmt.Errorf("pager: %w", err)
	}
	cls, err := btn.Attribute("class")
	if err != nil {
		return false, err
	}
	if cls != nil && strings.Contains(*cls, "disable") {
		return false, nil
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scraper) closeReport() error {
	exit, err := s.page.Timeout(s.timeout).ElementX(`//img[contains(@class,'popupExitIcon')]`)
	if err != nil {
		return nil
	}
	_, err = exit.Eval(`() => this.click()`)
	return err
}
