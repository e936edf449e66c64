// Package source supplies entity snapshots to the graph pipeline.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/msalah0e/relmap/internal/model"
)

// Provider is the record source consumed by the pipeline.
//
// ReadySignal is closed exactly once, when Entities first returns data.
// Entities returns the same sequence on every call after that; its order
// decides node indexes.
type Provider interface {
	Ready() bool
	ReadySignal() <-chan struct{}
	Entities() []model.Entity
}

// Static is an in-memory provider. It is ready after Publish.
type Static struct {
	once     sync.Once
	ready    chan struct{}
	mu       sync.RWMutex
	entities []model.Entity
}

// NewStatic returns a provider that is already ready with entities.
func NewStatic(entities []model.Entity) *Static {
	s := NewPending()
	s.Publish(entities)
	return s
}

// NewPending returns a provider that becomes ready on Publish.
func NewPending() *Static {
	return &Static{ready: make(chan struct{})}
}

// Publish stores the snapshot and fires the ready signal. Later calls are
// ignored so the sequence stays stable.
func (s *Static) Publish(entities []model.Entity) {
	s.once.Do(func() {
		s.mu.Lock()
		s.entities = entities
		s.mu.Unlock()
		close(s.ready)
	})
}

func (s *Static) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

func (s *Static) ReadySignal() <-chan struct{} { return s.ready }

func (s *Static) Entities() []model.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities
}

// ─── Decoding ───

// recordFile is the object form of a records file.
type recordFile struct {
	Entities []model.Entity `json:"entities" yaml:"entities" toml:"entities"`
}

// FormatOf returns the record format implied by a file name: json, yaml or
// toml.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("unsupported records file %q (use .json, .yaml or .toml)", path)
	}
}

// Decode parses records in the given format. JSON and YAML accept either a
// bare list of entities or an object with an "entities" list; TOML uses
// [[entities]] tables.
func Decode(data []byte, format string) ([]model.Entity, error) {
	var rf recordFile
	switch format {
	case "json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &rf.Entities); err != nil {
				return nil, fmt.Errorf("records parse: %w", err)
			}
			break
		}
		if err := json.Unmarshal(trimmed, &rf); err != nil {
			return nil, fmt.Errorf("records parse: %w", err)
		}
	case "yaml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("records parse: %w", err)
		}
		if len(node.Content) == 0 {
			break
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Content[0].Decode(&rf.Entities); err != nil {
				return nil, fmt.Errorf("records parse: %w", err)
			}
			break
		}
		if err := node.Decode(&rf); err != nil {
			return nil, fmt.Errorf("records parse: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("records parse: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown records format %q", format)
	}

	if rf.Entities == nil {
		rf.Entities = make([]model.Entity, 0)
	}
	return rf.Entities, nil
}

// Load reads and decodes a records file.
func Load(path string) ([]model.Entity, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, format)
}
