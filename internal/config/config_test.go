package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Tables) != 0 || len(cfg.IncludeTables) != 0 {
		t.Fatalf("empty path should yield empty config, got %+v", cfg)
	}
}

func TestLoadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rot13.yaml")
	data := []byte(`
exclude_tables: ["sqlite_stat*"]
tables:
  messages:
    columns:
      body:
        type: Rot13
      subject:
        type: Upper
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	tbl := cfg.Tables["messages"]
	if tbl == nil {
		t.Fatal("messages table missing")
	}
	if tbl.Columns["body"].Type != "Rot13" {
		t.Fatalf("unexpected body transform: %+v", tbl.Columns["body"])
	}
	if tbl.Columns["subject"].Type != "Upper" {
		t.Fatalf("unexpected subject transform: %+v", tbl.Columns["subject"])
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("tables: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
