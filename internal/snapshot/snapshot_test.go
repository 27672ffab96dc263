package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/edgard/llmchat/internal/conversation"
)

func limits() conversation.Limits {
	return conversation.Limits{DefaultPreset: "default", HistorySize: 4, PendingSize: 3}
}

func TestManager_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "state.json")
	src := conversation.NewStore(limits())

	a := src.Get(100)
	a.SetPreset("deepseek")
	a.SetGroupPrompt("talk like a pirate")
	a.ToggleReasoning()
	a.Accept(conversation.RawEvent{SenderNickname: "x", Message: "hi", SendTime: time.Unix(1, 0)}, true)
	b, ok := a.Next(4)
	if !ok {
		t.Fatalf("Next returned false")
	}
	a.Commit(b, "u1", "a1")
	a.Accept(conversation.RawEvent{Message: "unseen"}, false)

	src.Get(-200)

	if err := NewManager(path, src, nil).Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	dst := conversation.NewStore(limits())
	if err := NewManager(path, dst, nil).Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, ok := dst.Lookup(100)
	if !ok {
		t.Fatalf("group 100 not restored")
	}
	want := a.Snapshot()
	gotSnap := got.Snapshot()
	if gotSnap.Preset != want.Preset || !reflect.DeepEqual(gotSnap.History, want.History) ||
		*gotSnap.GroupPrompt != *want.GroupPrompt || gotSnap.EmitReasoning != want.EmitReasoning {
		t.Errorf("restored %+v, want %+v", gotSnap, want)
	}
	if d := gotSnap.LastActive.Sub(want.LastActive); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("LastActive drift %v", d)
	}

	// Pending and the queue are transient.
	if stats := got.Stats(); stats.PendingLen != 0 || stats.QueueLen != 0 || stats.Processing {
		t.Errorf("transient fields restored: %+v", stats)
	}

	other, ok := dst.Lookup(-200)
	if !ok || other.Snapshot().GroupPrompt != nil {
		t.Errorf("group -200 restored incorrectly")
	}
}

func TestManager_FileFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	store := conversation.NewStore(limits())
	store.Get(7)

	if err := NewManager(path, store, nil).Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("snapshot is not a JSON object: %v", err)
	}
	rec, ok := raw["7"]
	if !ok {
		t.Fatalf("missing key \"7\" in %s", data)
	}
	for _, key := range []string{"preset", "history", "last_active", "group_prompt", "output_reasoning_content"} {
		if _, ok := rec[key]; !ok {
			t.Errorf("missing field %q", key)
		}
	}
	if _, ok := rec["last_active"].(float64); !ok {
		t.Errorf("last_active is %T, want number", rec["last_active"])
	}
	if rec["group_prompt"] != nil {
		t.Errorf("group_prompt = %v, want null", rec["group_prompt"])
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestManager_LoadEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   *string
		wantErr   bool
		wantGroup int64
		wantLen   int
	}{
		{name: "missing file", content: nil},
		{name: "corrupt file", content: ptr("{not json"), wantErr: true},
		{name: "invalid key skipped", content: ptr(`{"abc":{"preset":"x"},"5":{"preset":"y","history":[]}}`), wantGroup: 5},
		{
			name: "oversized history trimmed",
			content: ptr(`{"9":{"preset":"p","history":[
				{"role":"user","content":"1"},{"role":"assistant","content":"2"},
				{"role":"user","content":"3"},{"role":"assistant","content":"4"},
				{"role":"user","content":"5"},{"role":"assistant","content":"6"}],
				"last_active":1700000000.5,"group_prompt":null,"output_reasoning_content":false}}`),
			wantGroup: 9,
			wantLen:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "state.json")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o600); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			store := conversation.NewStore(limits())
			err := NewManager(path, store, nil).Load(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantGroup == 0 {
				return
			}
			st, ok := store.Lookup(tt.wantGroup)
			if !ok {
				t.Fatalf("group %d not restored", tt.wantGroup)
			}
			if got := len(st.History()); got != tt.wantLen {
				t.Errorf("history len = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestUnixSeconds(t *testing.T) {
	t.Parallel()

	ts := time.Unix(1700000000, 250_000_000)
	if got := fromUnixSeconds(unixSeconds(ts)); !got.Equal(ts) {
		t.Errorf("round trip = %v, want %v", got, ts)
	}
	if !fromUnixSeconds(0).IsZero() {
		t.Errorf("zero seconds should map to zero time")
	}
}

func ptr(s string) *string { return &s }

func TestManager_SaveReplacesFileAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte(`{"1":{"preset":"old","history":[]}}`), 0o644); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	store := conversation.NewStore(limits())
	store.Get(7).SetPreset("fresh")
	m := NewManager(path, store, nil)
	for range 3 {
		if err := m.Save(context.Background()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "state.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only state.json", names)
	}

	var records map[string]groupRecord
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if _, stale := records["1"]; stale || records["7"].Preset != "fresh" {
		t.Errorf("snapshot not replaced: %v", records)
	}
}

func TestManager_SaveCancelled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	store := conversation.NewStore(limits())
	store.Get(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewManager(path, store, nil).Save(ctx); err == nil {
		t.Fatal("Save() with cancelled context succeeded")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("snapshot written despite cancellation: %v", err)
	}
}
