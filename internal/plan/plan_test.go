package plan

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dyne/rot13/internal/config"
	"github.com/dyne/rot13/internal/log"
	"github.com/dyne/rot13/internal/mask"
	_ "modernc.org/sqlite"
)

func TestPlanOutput(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	inPath := filepath.Join(tmp, "plan.sqlite")
	if err := createPlanDB(inPath); err != nil {
		t.Fatalf("create db: %v", err)
	}
	cfg := &config.Config{
		Tables: map[string]*config.TableConfig{
			"messages": {
				Columns: map[string]*config.TransformConfig{
					"body":    {Type: "Rot13"},
					"subject": {Type: "Upper"},
				},
			},
		},
	}
	out := captureStdout(func() error {
		return Run(ctx, inPath, cfg, log.Discard())
	})
	goldenPath := filepath.Join("testdata", "plan_golden.txt")
	golden, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if out != string(golden) {
		t.Fatalf("plan output mismatch\nexpected:\n%s\nactual:\n%s", string(golden), out)
	}
}

func captureStdout(fn func() error) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	_ = fn()
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func createPlanDB(path string) error {
	db, err := sql.Open("sqlite", mask.DSN(path))
	if err != nil {
		return err
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE messages (id INTEGER PRIMARY KEY, user_id INTEGER, subject TEXT, body TEXT, FOREIGN KEY(user_id) REFERENCES users(id))`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
