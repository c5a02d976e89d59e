package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/obsidianstack/logloss/cli/internal/config"
	"github.com/obsidianstack/logloss/pkg/exposition"
)

// textfileLoss reads the loss of the single dataset in a textfile, or -1 when
// the file is not there yet.
func textfileLoss(t *testing.T, path string) float64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		return -1
	}
	defer f.Close()
	evals, err := exposition.Decode(f)
	if err != nil || len(evals) != 1 {
		return -1
	}
	return evals[0].Loss
}

func waitLoss(t *testing.T, path string, want float64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := textfileLoss(t, path); math.Abs(got-want) < 1e-9 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("textfile loss: got %v, want %v", textfileLoss(t, path), want)
}

func TestWatch_AtomicDatasetSaveReevaluates(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "holdout.csv", "1,0.9\n0,0.1\n")
	textfile := filepath.Join(dir, "logloss.prom")
	cfgPath := writeFile(t, dir, "logloss.yaml", "datasets:\n  - name: holdout\n    path: holdout.csv\n")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Output.Textfile = textfile

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, cfgPath, cfg) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("runWatch() returned %v", err)
		}
	}()

	waitLoss(t, textfile, -math.Log(0.9))
	// Let the watchers register before replacing the dataset.
	time.Sleep(100 * time.Millisecond)

	tmp := writeFile(t, dir, "holdout.csv.tmp", "1,0.8\n0,0.2\n")
	if err := os.Rename(tmp, data); err != nil {
		t.Fatalf("rename: %v", err)
	}
	waitLoss(t, textfile, -math.Log(0.8))
}
