package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validYAML = `
tenant:
  company_id: co-1
  division_id: div-1
database:
  dsn: postgres://localhost/munim
providers:
  default: openai
  openai:
    api_key: sk-test
    model: gpt-4o
`

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "munim.yaml", validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tenant.CompanyID != "co-1" || cfg.Tenant.DivisionID != "div-1" {
		t.Errorf("tenant = %+v", cfg.Tenant)
	}
	if cfg.Providers.OpenAI.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.Providers.OpenAI.Model)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "munim.yaml", validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Database.QueryTimeout(); got != 15*time.Second {
		t.Errorf("QueryTimeout = %v", got)
	}
	if got := cfg.Agent.MaxCompletionTokens(); got != 4096 {
		t.Errorf("MaxCompletionTokens = %v", got)
	}
	if got := cfg.Agent.ModelTimeout(); got != 60*time.Second {
		t.Errorf("ModelTimeout = %v", got)
	}
	if got := cfg.Cache.CacheCapacity(); got != 256 {
		t.Errorf("CacheCapacity = %v", got)
	}
	if got := cfg.Cache.TTL(); got != 0 {
		t.Errorf("TTL = %v", got)
	}
	if got := cfg.HTTP.Addr(); got != ":8080" {
		t.Errorf("Addr = %q", got)
	}
	if got := cfg.HTTP.MaxRequestSize(); got != 1<<20 {
		t.Errorf("MaxRequestSize = %v", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DATABASE_URL", "postgres://env/munim")
	t.Setenv("MUNIM_COMPANY_ID", "co-env")
	t.Setenv("MUNIM_DIVISION_ID", "div-env")

	path := writeConfig(t, "munim.yaml", validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.OpenAI.APIKey != "sk-env" {
		t.Errorf("api key = %q", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Database.DSN != "postgres://env/munim" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Tenant.CompanyID != "co-env" || cfg.Tenant.DivisionID != "div-env" {
		t.Errorf("tenant = %+v", cfg.Tenant)
	}
}

func TestLoad_MissingTenantFails(t *testing.T) {
	t.Setenv("MUNIM_COMPANY_ID", "")
	body := strings.Replace(validYAML, "company_id: co-1", "company_id: \"\"", 1)
	path := writeConfig(t, "munim.yaml", body)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "tenant.company_id") {
		t.Fatalf("err = %v, want tenant.company_id error", err)
	}
}

func TestLoad_MissingDSNFails(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	body := strings.Replace(validYAML, "dsn: postgres://localhost/munim", "dsn: \"\"", 1)
	path := writeConfig(t, "munim.yaml", body)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "database.dsn") {
		t.Fatalf("err = %v, want database.dsn error", err)
	}
}

func TestLoad_UnknownProviderFails(t *testing.T) {
	body := strings.Replace(validYAML, "default: openai", "default: gemini", 1)
	path := writeConfig(t, "munim.yaml", body)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("err = %v, want unsupported provider error", err)
	}
}

func TestLoad_OllamaNeedsNoKey(t *testing.T) {
	body := validYAML + `
  ollama:
    model: llama3
`
	body = strings.Replace(body, "default: openai", "default: ollama", 1)
	path := writeConfig(t, "munim.yaml", body)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.Ollama.Model != "llama3" {
		t.Errorf("ollama model = %q", cfg.Providers.Ollama.Model)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "munim.json", `{
  "tenant": {"company_id": "co-1", "division_id": "div-1"},
  "database": {"dsn": "postgres://localhost/munim"},
  "providers": {"default": "openai", "openai": {"api_key": "sk-test", "model": "gpt-4o"}}
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tenant.CompanyID != "co-1" {
		t.Errorf("tenant = %+v", cfg.Tenant)
	}
}
