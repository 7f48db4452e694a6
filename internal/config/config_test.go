package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ManyMissingThreshold != 0.7 || c.CorrMethod != "pearson" || c.DummyLevelsLimit != 30 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.OutlierScores) != 3 || c.OutlierCutoffZ != 3 {
		t.Fatalf("unexpected outlier defaults: %+v", c)
	}
	if c.ReportsDir == "" {
		t.Fatalf("reports dir not resolved")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.Set("corr_method", "Spearman"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("outlier_scores", "z, mad"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.CorrMethod != "spearman" {
		t.Fatalf("corr_method = %q", got.CorrMethod)
	}
	if v, _ := got.Get("outlier_scores"); v != "z,mad" {
		t.Fatalf("outlier_scores = %q", v)
	}
	s := got.Settings()
	if s.CorrMethod != "spearman" || len(s.Outliers.Scores) != 2 {
		t.Fatalf("settings not carried: %+v", s)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("corr_cutoff: 0.8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATACLEAN_CORR_CUTOFF", "0.75")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CorrCutoff != 0.75 {
		t.Fatalf("corr_cutoff = %v", c.CorrCutoff)
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var cfg *analysis.InvalidConfigurationError
	if err := c.Set("corr_method", "distance"); !errors.As(err, &cfg) {
		t.Fatalf("expected InvalidConfigurationError, got %v", err)
	}
	c.CorrMethod = "pearson"
	if err := c.Set("outlier_scores", "z,grubbs"); !errors.As(err, &cfg) {
		t.Fatalf("expected InvalidConfigurationError, got %v", err)
	}
	c.OutlierScores = []string{"z"}
	if err := c.Set("corr_cutoff", "abc"); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := c.Set("nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	for _, k := range Keys() {
		if _, err := c.Get(k); err != nil {
			t.Fatalf("get %s: %v", k, err)
		}
	}
}
