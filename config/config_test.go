package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ADVANCE_CRON", "*/5 * * * *")
	t.Setenv("QUOTA_CAP", "")
	t.Setenv("ARCHIVE_AFTER", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.QuotaCap != 3 || cfg.ArchiveAfter != 14*24*time.Hour || cfg.AssessmentTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.EnvFileLoaded {
		t.Fatalf("expected no .env file in the package directory")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("QUOTA_CAP", "5")
	t.Setenv("JUDGING_START_DAY", "20")
	t.Setenv("ARCHIVE_AFTER", "72h")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.QuotaCap != 5 || cfg.JudgingStartDay != 20 || cfg.ArchiveAfter != 72*time.Hour {
		t.Fatalf("expected overrides to apply, got %+v", cfg)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"ADVANCE_CRON":      "every five minutes",
		"QUOTA_CAP":         "three",
		"JUDGING_START_DAY": "31",
		"ARCHIVE_AFTER":     "two weeks",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
