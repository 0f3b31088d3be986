// Package testutil provides shared test helpers for setting up vaults and
// settings databases.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/iotodash/internal/results"
	"github.com/starford/iotodash/internal/settings"
	"github.com/starford/iotodash/internal/storage"
	"github.com/starford/iotodash/internal/vault"
)

// Folder layout used by tests.
const (
	InputFolder   = "1-input"
	OutputFolder  = "2-output"
	TaskFolder    = "3-tasks"
	OutcomeFolder = "4-outcome"
)

// Folders returns the test folder layout.
func Folders() settings.Folders {
	return settings.Folders{
		Input:   InputFolder,
		Output:  OutputFolder,
		Outcome: OutcomeFolder,
		Task:    TaskFolder,
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestVault creates a temporary vault directory and an unsynced store over it.
func TestVault(t *testing.T) (string, *vault.Store) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fs.Root(), vault.New(fs, DiscardLogger())
}

// WriteNote writes content to rel under root, creating parent directories.
func WriteNote(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// SyncVault indexes every file currently in the vault.
func SyncVault(t *testing.T, s *vault.Store) {
	t.Helper()
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

// TestSettings opens a temporary settings database seeded with the test
// folder layout.
func TestSettings(t *testing.T) *settings.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "settings.db")
	st, err := settings.Open(context.Background(), dsn, settings.Settings{
		Folders:  Folders(),
		PageSize: results.DefaultPageSize,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}
