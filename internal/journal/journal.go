package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/msalah0e/relmap/internal/config"
)

// Event names written by the pipeline.
const (
	EventRebuild        = "rebuild"
	EventReset          = "reset"
	EventCenterNotFound = "center-not-found"
	EventSearchMiss     = "search-miss"
)

// Entry is one line of the journal.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	Event        string    `json:"event"`
	GraphID      string    `json:"graph_id,omitempty"`
	Center       string    `json:"center,omitempty"`
	Search       string    `json:"search,omitempty"`
	RelationType string    `json:"relation_type,omitempty"`
	Nodes        int       `json:"nodes,omitempty"`
	Links        int       `json:"links,omitempty"`
	Details      string    `json:"details,omitempty"`
}

// Journal appends entries to a JSONL file.
type Journal struct {
	path string
	mu   sync.Mutex
}

// DefaultPath returns the journal location under the config directory.
func DefaultPath() string {
	return filepath.Join(config.ConfigDir(), "journal.jsonl")
}

// Open returns a journal writing to path. The file is created on first write.
func Open(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file.
func (j *Journal) Path() string { return j.path }

// Record appends e, stamping it if the timestamp is unset.
func (j *Journal) Record(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the last count entries, newest first. Zero means all.
func (j *Journal) Read(count int) ([]Entry, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.After(entries[b].Timestamp)
	})

	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Search returns entries whose event, center, search term or details
// contain query, ignoring case.
func (j *Journal) Search(query string, count int) ([]Entry, error) {
	all, err := j.Read(0)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		if containsFold(e.Event, q) || containsFold(e.Center, q) || containsFold(e.Search, q) || containsFold(e.Details, q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

// Clear removes the journal file.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	err := os.Remove(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}
