package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("FIELDCRM_SERVER", "")
	homeDir := t.TempDir()
	c, err := NewConfig(homeDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.File.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.File.Version)
	}
	if c.BaseURL() != defaultBaseURL {
		t.Fatalf("expected default base url %q, got %q", defaultBaseURL, c.BaseURL())
	}
	if c.Timeout() != defaultTimeout {
		t.Fatalf("expected default timeout, got %s", c.Timeout())
	}
	if c.CacheEnabled() {
		t.Fatalf("cache must be disabled by default")
	}
}

func TestInitDirWritesParsableDefaults(t *testing.T) {
	t.Setenv("FIELDCRM_SERVER", "")
	homeDir := t.TempDir()
	if err := InitDir(homeDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, dir := range []string{"logs", "state"} {
		if info, err := os.Stat(filepath.Join(homeDir, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory, err=%v", dir, err)
		}
	}
	c, err := NewConfig(homeDir)
	if err != nil {
		t.Fatalf("NewConfig on default file: %v", err)
	}
	if c.ListDefaults().SortBy != "date" {
		t.Fatalf("expected date sort, got %q", c.ListDefaults().SortBy)
	}
	if c.File.Bridge.Port != defaultBridgePort {
		t.Fatalf("expected bridge port %d, got %d", defaultBridgePort, c.File.Bridge.Port)
	}
}

func TestLoadConfigParsesYaml(t *testing.T) {
	t.Setenv("FIELDCRM_SERVER", "")
	homeDir := t.TempDir()
	configYAML := strings.TrimSpace(`
version: 1
server:
  base_url: https://crm.example.com/
  timeout: 3s
  read_retries: 2
cache:
  redis_addr: " localhost:6379 "
  ttl: 1m
lists:
  sort_by: Number
  descending: true
`)
	if err := os.WriteFile(filepath.Join(homeDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(homeDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.BaseURL() != "https://crm.example.com" {
		t.Fatalf("base url not normalized: %q", c.BaseURL())
	}
	if c.Timeout() != 3*time.Second || c.ReadRetries() != 2 {
		t.Fatalf("server settings wrong: %s / %d", c.Timeout(), c.ReadRetries())
	}
	if !c.CacheEnabled() || c.File.Cache.RedisAddr != "localhost:6379" || c.File.Cache.TTL != time.Minute {
		t.Fatalf("cache settings wrong: %+v", c.File.Cache)
	}
	if got := c.ListDefaults(); got.SortBy != "number" || !got.Descending {
		t.Fatalf("list defaults wrong: %+v", got)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("FIELDCRM_SERVER", "")
	cases := map[string]string{
		"scheme": "server:\n  base_url: ftp://crm\n",
		"sort":   "lists:\n  sort_by: price\n",
		"port":   "bridge:\n  port: 70000\n",
	}
	for name, body := range cases {
		homeDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(homeDir, "config.yaml"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewConfig(homeDir); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FIELDCRM_SERVER", "http://localhost:9000/")
	t.Setenv("FIELDCRM_REDIS_ADDR", "redis:6379")
	c, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.BaseURL() != "http://localhost:9000" {
		t.Fatalf("expected env base url, got %q", c.BaseURL())
	}
	if c.File.Cache.RedisAddr != "redis:6379" {
		t.Fatalf("expected env redis addr, got %q", c.File.Cache.RedisAddr)
	}
}

func TestBridgeEnvOverrides(t *testing.T) {
	c, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.BridgeEnabled() || c.BridgeAddress() != "127.0.0.1:8766" {
		t.Fatalf("defaults: enabled=%v addr=%s", c.BridgeEnabled(), c.BridgeAddress())
	}

	t.Setenv("FIELDCRM_BRIDGE_ENABLED", "true")
	t.Setenv("FIELDCRM_BRIDGE_HOST", "0.0.0.0")
	t.Setenv("FIELDCRM_BRIDGE_PORT", "9001")
	c, err = NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if !c.BridgeEnabled() {
		t.Fatalf("expected enabled=true from env override")
	}
	if c.BridgeAddress() != "0.0.0.0:9001" {
		t.Fatalf("address = %s", c.BridgeAddress())
	}

	t.Setenv("FIELDCRM_BRIDGE_PORT", "70000")
	c, err = NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.BridgeAddress() != "0.0.0.0:8766" {
		t.Fatalf("out of range port must be ignored, got %s", c.BridgeAddress())
	}
}

func TestSetListDefaultsPersistsWithoutOverrides(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("FIELDCRM_SERVER", "")
	if err := InitDir(homeDir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FIELDCRM_SERVER", "http://override:1")
	c, err := NewConfig(homeDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetBaseURL("http://flag:2"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetListDefaults("name", true); err != nil {
		t.Fatalf("SetListDefaults: %v", err)
	}
	if err := c.SetListDefaults("price", false); err == nil {
		t.Fatalf("expected unknown sort field error")
	}

	t.Setenv("FIELDCRM_SERVER", "")
	reloaded, err := NewConfig(homeDir)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.ListDefaults(); got.SortBy != "name" || !got.Descending {
		t.Fatalf("list defaults not persisted: %+v", got)
	}
	if reloaded.BaseURL() != defaultBaseURL {
		t.Fatalf("run-only base url leaked into config.yaml: %q", reloaded.BaseURL())
	}
}
