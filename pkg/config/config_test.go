package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8085" {
		t.Errorf("Expected Port to be 8085, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Workers != 4 {
		t.Errorf("Expected Workers to be 4, got %d", cfg.Workers)
	}

	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("Expected Fetch.MaxRetries to be 3, got %d", cfg.Fetch.MaxRetries)
	}

	if cfg.Fetch.CacheMaxAge != 5*time.Minute {
		t.Errorf("Expected Fetch.CacheMaxAge to be 5m, got %v", cfg.Fetch.CacheMaxAge)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("ANALYSIS_WORKERS", "8")
	os.Setenv("FETCH_MAX_RETRIES", "5")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("ANALYSIS_WORKERS")
		os.Unsetenv("FETCH_MAX_RETRIES")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Workers != 8 {
		t.Errorf("Expected Workers to be 8, got %d", cfg.Workers)
	}

	if cfg.Fetch.MaxRetries != 5 {
		t.Errorf("Expected Fetch.MaxRetries to be 5, got %d", cfg.Fetch.MaxRetries)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateInvalidWorkers(t *testing.T) {
	os.Setenv("ANALYSIS_WORKERS", "0")
	defer os.Unsetenv("ANALYSIS_WORKERS")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ANALYSIS_WORKERS is zero, got nil")
	}
}

func TestValidateInvalidStartDate(t *testing.T) {
	os.Setenv("FETCH_START_DATE", "01/01/2024")
	defer os.Unsetenv("FETCH_START_DATE")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when FETCH_START_DATE is malformed, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	os.Setenv("TEST_INT", "100")
	defer os.Unsetenv("TEST_INT")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	os.Setenv("TEST_FLOAT", "2.5")
	defer os.Unsetenv("TEST_FLOAT")

	value := getEnvAsFloat("TEST_FLOAT", 1.0)
	if value != 2.5 {
		t.Errorf("Expected value to be 2.5, got %v", value)
	}
}
