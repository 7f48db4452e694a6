package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	"github.com/KaramelBytes/dataclean-cli/internal/store"
)

func sampleSummary() analysis.Summary {
	return analysis.Summary{
		Name:        "loans.csv",
		Rows:        10,
		Columns:     2,
		ManyMissing: []string{"notes"},
		Errors:      analysis.OpErrors{"findcorr": errors.New("invalid correlation method x")},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	run := store.NewRun("loans.csv", "profile", sampleSummary())
	if err := s.Save(run); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(run.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Source != "loans.csv" || got.Summary.Rows != 10 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.Summary.ManyMissing[0] != "notes" {
		t.Fatalf("summary lost fields: %+v", got.Summary)
	}
	if e := got.Summary.Errors["findcorr"]; e == nil || !strings.Contains(e.Error(), "invalid correlation") {
		t.Fatalf("errors not restored: %v", got.Summary.Errors)
	}
	if !strings.Contains(got.Report, "[DATASET SUMMARY]") {
		t.Fatalf("report not stored")
	}

	byPrefix, err := s.Load(run.ID[:8])
	if err != nil {
		t.Fatalf("load by prefix: %v", err)
	}
	if byPrefix.ID != run.ID {
		t.Fatalf("prefix resolved to %s", byPrefix.ID)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), run.ID+".json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestListNewestFirstAndDelete(t *testing.T) {
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	old := store.NewRun("a.csv", "profile", sampleSummary())
	old.CreatedAt = time.Now().Add(-time.Hour)
	recent := store.NewRun("b.csv", "profile", sampleSummary())
	for _, r := range []*store.Run{old, recent} {
		if err := s.Save(r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "junk.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].Source != "b.csv" {
		t.Fatalf("unexpected order: %d runs", len(runs))
	}
	if err := s.Delete(old.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(old.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(old.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := store.Open("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
