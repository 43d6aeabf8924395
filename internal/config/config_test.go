package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
telegram:
  token: "123:abc"
  recipientChatId: -1001234567890
channels:
  - "@somechannel"
`

func TestLoad_MinimalConfigGetsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.General.RetentionMinutes != 30 {
		t.Fatalf("expected default retention 30, got %d", cfg.General.RetentionMinutes)
	}
	if cfg.General.CaptionMaxLength != 1024 {
		t.Fatalf("expected default caption max 1024, got %d", cfg.General.CaptionMaxLength)
	}
	if cfg.Translators.TimeoutSeconds != 60 {
		t.Fatalf("expected default timeout 60, got %d", cfg.Translators.TimeoutSeconds)
	}
	if !cfg.Translators.ShowFailures {
		t.Fatal("expected showFailures default true")
	}
	want := []string{"openai", "google", "deepl", "duckduckgo"}
	if len(cfg.Translators.Order) != len(want) {
		t.Fatalf("unexpected default order: %v", cfg.Translators.Order)
	}
	for i, n := range want {
		if cfg.Translators.Order[i] != n {
			t.Fatalf("unexpected default order: %v", cfg.Translators.Order)
		}
	}
}

func TestLoad_StripsAtPrefixFromChannels(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Channels[0] != "somechannel" {
		t.Fatalf("expected @ prefix stripped, got %q", cfg.Channels[0])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("CTRELAY_TEST_TOKEN", "999:xyz")
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "${CTRELAY_TEST_TOKEN}"
  recipientChatId: -100123
channels:
  - somechannel
files:
  commonPhrases: "${CTRELAY_TEST_UNSET:-fallback.txt}"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegram.Token != "999:xyz" {
		t.Fatalf("env var not expanded: %q", cfg.Telegram.Token)
	}
	if cfg.Files.CommonPhrases != "fallback.txt" {
		t.Fatalf("default value not applied: %q", cfg.Files.CommonPhrases)
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := Defaults()
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors for empty required fields")
	}
	msg := err.Error()
	for _, want := range []string{"telegram.token", "telegram.recipientChatId", "channels"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in validation error, got: %v", want, msg)
		}
	}
}

func TestValidate_RejectsInvalidUsername(t *testing.T) {
	for _, name := range []string{"abc", "1starts_with_digit", "has-dash5", strings.Repeat("a", 33)} {
		cfg := Defaults()
		cfg.Telegram.Token = "t"
		cfg.Telegram.RecipientChatID = 1
		cfg.Channels = []string{name}
		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "invalid username") {
			t.Fatalf("expected invalid username error for %q, got %v", name, err)
		}
	}
}

func TestValidate_RejectsUnknownBackendInOrder(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	cfg.Telegram.RecipientChatID = 1
	cfg.Channels = []string{"somechannel"}
	cfg.Translators.Order = []string{"google", "bing"}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown backend: bing") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestValidate_OpenAIRequiresProviders(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	cfg.Telegram.RecipientChatID = 1
	cfg.Channels = []string{"somechannel"}
	cfg.Translators.OpenAI.Enabled = true

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "at least one provider") {
		t.Fatalf("expected provider requirement error, got %v", err)
	}
}

func TestValidate_AIBackendRequiresTextPlaceholder(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	cfg.Telegram.RecipientChatID = 1
	cfg.Channels = []string{"somechannel"}
	cfg.Translators.DuckDuckGo.Enabled = true
	cfg.Messages.UserMessage = "no placeholder here"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "{text}") {
		t.Fatalf("expected placeholder requirement error, got %v", err)
	}
}

func TestValidate_MirrorRequiresCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	cfg.Telegram.RecipientChatID = 1
	cfg.Channels = []string{"somechannel"}
	cfg.Mirrors.Discord.Enabled = true

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "mirrors.discord") {
		t.Fatalf("expected discord mirror error, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	cfg := Defaults()
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.RecipientChatID = -42
	cfg.Channels = []string{"somechannel"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Telegram.Token != "123:abc" || loaded.Telegram.RecipientChatID != -42 {
		t.Fatalf("round trip lost data: %+v", loaded.Telegram)
	}
}

func TestExpandEnvVars_UnsetWithoutDefaultKeptVerbatim(t *testing.T) {
	in := "value: ${CTRELAY_DEFINITELY_UNSET}"
	if got := ExpandEnvVars(in); got != in {
		t.Fatalf("expected unset var without default kept verbatim, got %q", got)
	}
}
