package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
server:
  port: 9090
  runMode: dev
  release: "1.4.0"
mysql:
  host: 127.0.0.1:3306
  username: shop
  password: secret
  dbName: img_recg
cortex:
  host: acme.snowflakecomputing.com
  token: tok
  database: RESUME_AI_DB
  schema: IMG_RECG
  stage: INSTAGE
  semanticModelFile: SEMANTIC_FILE/semantic_analyst_file.yaml
  searchService: PRODUCT_SEARCH
  timeout: 15s
vision:
  endpointId: ep-1
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitLoadsSections(t *testing.T) {
	if err := Init(writeConfig(t, sampleConfig)); err != nil {
		t.Fatal(err)
	}

	if GetServerConf().Port != 9090 {
		t.Errorf("expected port 9090, got %d", GetServerConf().Port)
	}
	if GetRunMode() != "dev" {
		t.Errorf("expected dev run mode, got %q", GetRunMode())
	}
	if !GetMysqlConf().Enabled() || GetMysqlConf().DBName != "img_recg" {
		t.Errorf("unexpected mysql conf: %+v", GetMysqlConf())
	}
	if GetRedisConf().Enabled() {
		t.Error("redis should be disabled without an address")
	}

	cortex := GetCortexConf()
	if cortex.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cortex.Timeout)
	}
	if cortex.Dialect != "analyst" {
		t.Errorf("expected default analyst dialect, got %q", cortex.Dialect)
	}
	if got := cortex.SemanticModelPath(); got != "@RESUME_AI_DB.IMG_RECG.INSTAGE/SEMANTIC_FILE/semantic_analyst_file.yaml" {
		t.Errorf("unexpected semantic model path %q", got)
	}
	if got := cortex.SearchServiceName(); got != "RESUME_AI_DB.IMG_RECG.PRODUCT_SEARCH" {
		t.Errorf("unexpected search service %q", got)
	}
	if got := cortex.BaseURL(); got != "https://acme.snowflakecomputing.com" {
		t.Errorf("unexpected base url %q", got)
	}
	if cortex.Endpoint.AnalystFeedback != "/api/v2/cortex/analyst/feedback" {
		t.Errorf("unexpected feedback endpoint %q", cortex.Endpoint.AnalystFeedback)
	}

	vision := GetVisionConf()
	if vision.Provider != VisionProviderLandingAI || vision.EndpointID != "ep-1" {
		t.Errorf("unexpected vision conf: %+v", vision)
	}
	if GetSessionConf().TTL != 24*time.Hour {
		t.Errorf("expected 24h session ttl, got %s", GetSessionConf().TTL)
	}
}

func TestInitEnvOverride(t *testing.T) {
	t.Setenv("SHOP_CORTEX_DIALECT", "agent")
	if err := Init(writeConfig(t, sampleConfig)); err != nil {
		t.Fatal(err)
	}
	if GetCortexConf().Dialect != "agent" {
		t.Errorf("expected env override to agent, got %q", GetCortexConf().Dialect)
	}
}

func TestInitMissingFile(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestBaseURLKeepsScheme(t *testing.T) {
	c := Cortex{Host: "http://127.0.0.1:8080/"}
	if got := c.BaseURL(); got != "http://127.0.0.1:8080" {
		t.Errorf("unexpected base url %q", got)
	}
}
