// Package snapshot persists the durable part of every group's state to a
// JSON file and restores it at startup.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/renameio/v2"

	"github.com/edgard/llmchat/internal/conversation"
)

type groupRecord struct {
	Preset                 string              `json:"preset"`
	History                []conversation.Turn `json:"history"`
	LastActive             float64             `json:"last_active"`
	GroupPrompt            *string             `json:"group_prompt"`
	OutputReasoningContent bool                `json:"output_reasoning_content"`
}

// Manager saves and loads a Store to and from one file.
type Manager struct {
	path  string
	store *conversation.Store
	log   *slog.Logger
}

// NewManager creates a Manager for the file at path.
func NewManager(path string, store *conversation.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{path: path, store: store, log: log.With("component", "snapshot")}
}

// Path returns the snapshot file location.
func (m *Manager) Path() string { return m.path }

// Save writes every group to the snapshot file. The file is replaced
// atomically, so a crash mid-write leaves the previous snapshot intact.
func (m *Manager) Save(ctx context.Context) error {
	records := make(map[string]groupRecord)
	m.store.Range(func(groupID int64, st *conversation.State) bool {
		snap := st.Snapshot()
		records[strconv.FormatInt(groupID, 10)] = groupRecord{
			Preset:                 snap.Preset,
			History:                snap.History,
			LastActive:             unixSeconds(snap.LastActive),
			GroupPrompt:            snap.GroupPrompt,
			OutputReasoningContent: snap.EmitReasoning,
		}
		return ctx.Err() == nil
	})
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("snapshot cancelled: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := renameio.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	m.log.InfoContext(ctx, "State snapshot saved", "path", m.path, "groups", len(records))
	return nil
}

// Load restores every group found in the snapshot. A missing file is not
// an error. Entries whose key is not a group id are skipped.
func (m *Manager) Load(ctx context.Context) error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.log.InfoContext(ctx, "No state snapshot found, starting fresh", "path", m.path)
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var records map[string]groupRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", m.path, err)
	}

	limits := m.store.Limits()
	restored := 0
	for key, rec := range records {
		groupID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			m.log.WarnContext(ctx, "Skipping snapshot entry with invalid group id", "key", key)
			continue
		}
		preset := rec.Preset
		if preset == "" {
			preset = limits.DefaultPreset
		}
		m.store.Restore(groupID, conversation.Snapshot{
			Preset:        preset,
			History:       rec.History,
			LastActive:    fromUnixSeconds(rec.LastActive),
			GroupPrompt:   rec.GroupPrompt,
			EmitReasoning: rec.OutputReasoningContent,
		})
		restored++
	}

	m.log.InfoContext(ctx, "State snapshot loaded", "path", m.path, "groups", restored)
	return nil
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

func fromUnixSeconds(s float64) time.Time {
	if s <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
