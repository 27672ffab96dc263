package database

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "archive.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil)
}

func TestStore_GroupUsage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	rows := []*Exchange{
		{GroupID: 1, Preset: "p", Model: "m", Prompt: "a", Reply: "x", TotalTokens: 10},
		{GroupID: 1, Preset: "p", Model: "m", Prompt: "b", Reply: "y", TotalTokens: 32},
		{GroupID: 1, Preset: "p", Model: "m", Prompt: "c", Failed: true, Error: "model request timed out"},
		{GroupID: 2, Preset: "p", Model: "m", Prompt: "d", Reply: "z", TotalTokens: 99},
	}
	for _, r := range rows {
		if err := s.SaveExchange(ctx, r); err != nil {
			t.Fatalf("SaveExchange() error = %v", err)
		}
		if r.ID == 0 {
			t.Errorf("SaveExchange did not set ID")
		}
	}

	got, err := s.GroupUsage(ctx, 1)
	if err != nil {
		t.Fatalf("GroupUsage() error = %v", err)
	}
	if want := (Usage{Calls: 3, Failures: 1, Tokens: 42}); got != want {
		t.Errorf("GroupUsage(1) = %+v, want %+v", got, want)
	}

	empty, err := s.GroupUsage(ctx, 404)
	if err != nil {
		t.Fatalf("GroupUsage() error = %v", err)
	}
	if empty != (Usage{}) {
		t.Errorf("GroupUsage(404) = %+v, want zero", empty)
	}
}

func TestStore_SaveExchangeValidation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.SaveExchange(context.Background(), nil); err == nil {
		t.Errorf("SaveExchange(nil) succeeded")
	}
	if err := s.SaveExchange(context.Background(), &Exchange{}); err == nil {
		t.Errorf("SaveExchange without group succeeded")
	}
}

func TestStore_Maintenance(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := s.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RunSQLMaintenance(ctx); err == nil {
		t.Errorf("RunSQLMaintenance with cancelled context succeeded")
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"storage.db", "storage.db"},
		{"file:data/x.db?_pragma=busy_timeout(5000)", "data/x.db"},
		{"file:my%20db.sqlite", "my db.sqlite"},
	}
	for _, tt := range tests {
		if got := ExtractDBNameFromPath(tt.in); got != tt.want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
