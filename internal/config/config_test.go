package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	if err := os.Setenv(key, "8080"); err != nil {
		t.Fatalf("Setenv error: %v", err)
	}
	defer os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestGetEnvDuration(t *testing.T) {
	const key = "TEST_SCRAPE_DELAY"

	_ = os.Unsetenv(key)
	if got := getEnvDuration(key, time.Second); got != time.Second {
		t.Fatalf("unset: got %s, want 1s", got)
	}

	_ = os.Setenv(key, "2s")
	defer os.Unsetenv(key)
	if got := getEnvDuration(key, time.Second); got != 2*time.Second {
		t.Fatalf("2s: got %s", got)
	}

	// 非法值回退默认
	_ = os.Setenv(key, "banana")
	if got := getEnvDuration(key, time.Second); got != time.Second {
		t.Fatalf("invalid: got %s, want default 1s", got)
	}

	// 低于 1 秒的配置被抬回 1 秒
	_ = os.Setenv(key, "200ms")
	if got := getEnvDuration(key, 3*time.Second); got != time.Second {
		t.Fatalf("sub-second: got %s, want 1s floor", got)
	}
}

func TestLoadReadsAuthAndPorts(t *testing.T) {
	_ = os.Setenv("APP_PORT", "1234")
	_ = os.Setenv("APP_BASIC_USER", "user")
	_ = os.Setenv("APP_BASIC_PASS", "pass")
	defer func() {
		_ = os.Unsetenv("APP_PORT")
		_ = os.Unsetenv("APP_BASIC_USER")
		_ = os.Unsetenv("APP_BASIC_PASS")
	}()

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.BasicAuthUser != "user" || cfg.BasicAuthPass != "pass" {
		t.Fatalf("BasicAuthUser/Pass not loaded correctly: %+v", cfg)
	}
}
