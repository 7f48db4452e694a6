package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cfgpkg "github.com/KaramelBytes/dataclean-cli/internal/config"
)

func TestProfileAll_KeepsInputOrder(t *testing.T) {
	home := withHome(t)
	c, err := cfgpkg.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	d1 := filepath.Join(home, "d1")
	if err := os.MkdirAll(d1, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	good := writeFixture(t, d1, 0)
	missing := filepath.Join(home, "missing.csv")

	results, err := profileAll(context.Background(), c, []string{good, missing, good}, 2)
	if err != nil {
		t.Fatalf("profileAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].err != nil || results[0].sum.Rows != 30 || results[2].sum.Rows != 30 {
		t.Fatalf("unexpected results for readable files: %+v", results)
	}
	if results[1].path != missing || results[1].err == nil {
		t.Fatalf("expected an error for the missing file, got %+v", results[1])
	}
}

func TestProfileAll_CancelledContext(t *testing.T) {
	withHome(t)
	c, err := cfgpkg.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := profileAll(ctx, c, []string{"a.csv", "b.csv"}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results after cancellation, got %+v", results)
	}
}
