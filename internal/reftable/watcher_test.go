package reftable

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	logger := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	reloads := 0

	go Watch(ctx, db, dir, logger, func() {
		mu.Lock()
		reloads++
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "base.csv"), []byte(baseCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.Lookup("half_lap", "150x150", "white_oak", "no1", "none")
		return err == nil
	}, "new table file not loaded by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloads >= 1
	}, "reload callback not invoked")
}

func TestWatcherNilCallback(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, db, dir, quietLogger(), nil) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "base.csv"), []byte(baseCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.Lookup("half_lap", "150x150", "white_oak", "no1", "none")
		return err == nil
	}, "table not loaded with nil callback")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop on context cancel")
	}
}

func TestWatcherPicksUpNewSubdirectory(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "regional")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a beat to register the new directory.
	time.Sleep(300 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "extra.csv"), []byte(baseCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		sums, err := db.AllFileChecksums()
		if err != nil {
			return false
		}
		_, ok := sums[filepath.Join("regional", "extra.csv")]
		return ok
	}, "csv in new subdirectory not loaded")
}
