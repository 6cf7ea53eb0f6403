package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltinWebhookConfigs_EmptyPathIsNotAnError(t *testing.T) {
	configs, err := LoadBuiltinWebhookConfigs("")
	if err != nil {
		t.Fatalf("LoadBuiltinWebhookConfigs(\"\") returned error: %v", err)
	}
	if configs != nil {
		t.Errorf("LoadBuiltinWebhookConfigs(\"\") = %v, want nil", configs)
	}
}

func TestLoadBuiltinWebhookConfigs_MissingFile(t *testing.T) {
	_, err := LoadBuiltinWebhookConfigs(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBuiltinWebhookConfigs_ParsesAndExpandsEnv(t *testing.T) {
	t.Setenv("RELAYD_TEST_SECRET_ENV", "GITHUB_WEBHOOK_SECRET")

	yaml := `
webhooks:
  - id: github-main
    provider: github
    endpoint_path: /webhooks/github
    default_agent: reviewer
    signing_secret_env: ${RELAYD_TEST_SECRET_ENV}
    requires_signature: true
    enabled: true
    commands:
      - name: review
        aliases: ["r"]
        target_agent: reviewer
        action: create_task
        priority: 10
`
	path := filepath.Join(t.TempDir(), "webhooks.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	configs, err := LoadBuiltinWebhookConfigs(path)
	if err != nil {
		t.Fatalf("LoadBuiltinWebhookConfigs: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("got %d configs, want 1", len(configs))
	}

	cfg := configs[0]
	if cfg.SigningSecretEnv != "GITHUB_WEBHOOK_SECRET" {
		t.Errorf("SigningSecretEnv = %q, want expanded env value", cfg.SigningSecretEnv)
	}
	if cfg.Provider != "github" || cfg.EndpointPath != "/webhooks/github" {
		t.Errorf("unexpected provider/endpoint: %+v", cfg)
	}
	if len(cfg.Commands) != 1 || cfg.Commands[0].Name != "review" {
		t.Fatalf("unexpected commands: %+v", cfg.Commands)
	}
	if cfg.Commands[0].Aliases[0] != "r" {
		t.Errorf("aliases not parsed: %+v", cfg.Commands[0].Aliases)
	}
}

func TestLoadBuiltinWebhookConfigs_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("webhooks: [this is not valid"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadBuiltinWebhookConfigs(path); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}
