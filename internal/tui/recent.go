package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const maxRecent = 10

// RecentEntry is a saved discovery run that can be spun again.
type RecentEntry struct {
	RunID   string    `json:"run_id"`
	DBPath  string    `json:"db_path"`
	Label   string    `json:"label"`
	Size    int       `json:"size"`
	SavedAt time.Time `json:"saved_at"`
}

func recentFilePath() string {
	if p := os.Getenv("MEALSPIN_RECENT_FILE"); p != "" {
		return p
	}
	cfg, _ := os.UserConfigDir()
	return filepath.Join(cfg, "mealspin", "recent.json")
}

// LoadRecent returns the saved runs, most recent first.
func LoadRecent() []RecentEntry {
	data, err := os.ReadFile(recentFilePath())
	if err != nil {
		return nil
	}
	var entries []RecentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

// SaveRecent records a run at the top of the list. Failures are ignored; the
// list is a convenience.
func SaveRecent(e RecentEntry) {
	if abs, err := filepath.Abs(e.DBPath); err == nil {
		e.DBPath = abs
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now()
	}

	entries := LoadRecent()
	filtered := make([]RecentEntry, 0, len(entries)+1)
	filtered = append(filtered, e)
	for _, old := range entries {
		if old.RunID != e.RunID {
			filtered = append(filtered, old)
		}
	}
	if len(filtered) > maxRecent {
		filtered = filtered[:maxRecent]
	}

	data, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return
	}
	path := recentFilePath()
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	_ = os.WriteFile(path, data, 0o644)
}
