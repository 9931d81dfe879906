//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
database:
  url: postgres://localhost/billing
redis:
  url: localhost:6379
gateway:
  merchant_id: MIDtest01
  sign_key: sk-test
identity:
  merchant_id: MIDid01
  api_key: api-key-1
security:
  api_secret: secret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("fills defaults for everything optional", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, minimalYAML), false)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("port default: %d", cfg.Server.Port)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("log defaults: %+v", cfg.Log)
		}
		if cfg.Gateway.Timeout != 10*time.Second {
			t.Errorf("gateway timeout default: %v", cfg.Gateway.Timeout)
		}
		if cfg.Gateway.MobileMerchantID != "MIDtest01" {
			t.Errorf("mobile mid must fall back to the desktop mid, got %q", cfg.Gateway.MobileMerchantID)
		}
		if cfg.Gateway.AllowURLMismatch {
			t.Error("endpoint validation must default to strict")
		}
		if cfg.Gateway.NetCancelWorkers != 2 || cfg.Gateway.NetCancelQueue != 64 {
			t.Errorf("net-cancel defaults: %d/%d", cfg.Gateway.NetCancelWorkers, cfg.Gateway.NetCancelQueue)
		}
		if cfg.Scheduler.ExpiryInterval != time.Hour {
			t.Errorf("expiry interval default: %v", cfg.Scheduler.ExpiryInterval)
		}
	})

	t.Run("dev flag lands in runtime config", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, minimalYAML), true)
		if err != nil {
			t.Fatal(err)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected dev mode set")
		}
	})

	t.Run("missing required keys fail fast", func(t *testing.T) {
		cases := map[string]string{
			"database url": `
redis: {url: localhost:6379}
gateway: {merchant_id: m, sign_key: s}
identity: {merchant_id: m, api_key: a}
security: {api_secret: s}
`,
			"gateway sign key": `
database: {url: postgres://x}
redis: {url: localhost:6379}
gateway: {merchant_id: m}
identity: {merchant_id: m, api_key: a}
security: {api_secret: s}
`,
			"identity api key": `
database: {url: postgres://x}
redis: {url: localhost:6379}
gateway: {merchant_id: m, sign_key: s}
identity: {merchant_id: m}
security: {api_secret: s}
`,
			"api secret": `
database: {url: postgres://x}
redis: {url: localhost:6379}
gateway: {merchant_id: m, sign_key: s}
identity: {merchant_id: m, api_key: a}
`,
		}
		for name, yaml := range cases {
			t.Run(name, func(t *testing.T) {
				if _, err := LoadConfig(writeConfig(t, yaml), false); err == nil {
					t.Error("expected an error")
				}
			})
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.yaml", false); err == nil {
			t.Error("expected an error")
		}
	})
}
