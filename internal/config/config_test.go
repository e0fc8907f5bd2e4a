package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STRING", "value")

	if got := getEnv("TEST_STRING", "fallback"); got != "value" {
		t.Errorf("Expected value, got %s", got)
	}
	if got := getEnv("TEST_STRING_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %s", got)
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "not-a-number")

	if got := getIntEnv("TEST_INT", 7); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := getIntEnv("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_BAD", "maybe")

	if !getBoolEnv("TEST_BOOL", false) {
		t.Error("Expected true")
	}
	if getBoolEnv("TEST_BOOL_BAD", false) {
		t.Error("Expected fallback false")
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "30s")

	if got := getDurationEnv("TEST_DURATION", time.Minute); got != 30*time.Second {
		t.Errorf("Expected 30s, got %v", got)
	}
	if got := getDurationEnv("TEST_DURATION_MISSING", time.Minute); got != time.Minute {
		t.Errorf("Expected fallback 1m, got %v", got)
	}
}

func TestGetSliceEnv(t *testing.T) {
	t.Setenv("TEST_SLICE", "a, b ,c,,")

	got := getSliceEnv("TEST_SLICE", nil)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Element %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for missing JWT secret")
	}

	cfg.JWT.Secret = "secret"
	cfg.App.Env = "development"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid development config, got %v", err)
	}
}

func TestValidateProductionRequirements(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.Secret = "secret"
	cfg.App.Env = "production"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for missing DB password in production")
	}

	cfg.Database.Password = "pw"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for missing admin emails in production")
	}

	cfg.Admin.Emails = []string{"admin@example.com"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid production config, got %v", err)
	}
}
