package acquire

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Checkpoint records fetch progress per station so interrupted runs resume
// where they stopped. Dates are DD/MM/YYYY, the study's exchange format.
// One instance is shared between the scheduler and the backfill handler;
// all access goes through the locked accessors so a concurrent Save never
// writes a stale snapshot of another writer's window.
type Checkpoint struct {
	mu sync.Mutex
	// Envista station ID -> [next start date, end date]
	API map[string][2]string `json:"api_stations"`
	// portal station name -> latest fully fetched date
	Portal map[string]string `json:"portal_stations"`
}

func NewCheckpoint() *Checkpoint {
	return &Checkpoint{API: map[string][2]string{}, Portal: map[string]string{}}
}

// LoadCheckpoint returns an empty checkpoint when the file does not exist yet.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewCheckpoint(), nil
	}
	if err != nil {
		return nil, err
	}
	cp := NewCheckpoint()
	if err := json.Unmarshal(b, cp); err != nil {
		return nil, err
	}
	if cp.API == nil {
		cp.API = map[string][2]string{}
	}
	if cp.Portal == nil {
		cp.Portal = map[string]string{}
	}
	return cp, nil
}

func (c *Checkpoint) Window(key string) ([2]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.API[key]
	return w, ok
}

func (c *Checkpoint) SetWindow(key string, w [2]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.API[key] = w
}

func (c *Checkpoint) PortalLatestDate(station string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Portal[station]
}

func (c *Checkpoint) SetPortalLatestDate(station, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Portal[station] = date
}

// Save rewrites the file atomically; a crash mid-save keeps the old state.
// The lock spans marshal and rename, so concurrent savers cannot finish the
// file with an older snapshot.
func (c *Checkpoint) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// PortalView binds the shared checkpoint to its file for the portal
// scraper, which only touches the portal half.
type PortalView struct {
	CP   *Checkpoint
	Path string
}

func (v PortalView) PortalLatest(station string) string { return v.CP.PortalLatestDate(station) }

func (v PortalView) SetPortalLatest(station, date string) { v.CP.SetPortalLatestDate(station, date) }

func (v PortalView) Flush() error { return v.CP.Save(v.Path) }
