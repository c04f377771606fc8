// Package mask copies a sqlite database file, applying configured
// transformers to chosen text columns on the way through.
package mask

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dyne/rot13/internal/config"
	"github.com/dyne/rot13/internal/log"
	"github.com/dyne/rot13/internal/schema"
	"github.com/dyne/rot13/internal/transform"
	_ "modernc.org/sqlite"
)

const batchSize = 256

type Options struct {
	InPath  string
	OutPath string
	Config  *config.Config
	FKMode  string
	Jobs    int
	Logger  *log.Logger
}

func Run(ctx context.Context, opts Options) error {
	if opts.InPath == "" || opts.OutPath == "" {
		return fmt.Errorf("input and output paths are required")
	}
	if opts.Config == nil {
		opts.Config = &config.Config{}
	}
	if err := os.RemoveAll(opts.OutPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.OutPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	inDB, err := sql.Open("sqlite", DSN(opts.InPath))
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inDB.Close()

	outDB, err := sql.Open("sqlite", DSN(opts.OutPath))
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer outDB.Close()

	if err := setFKMode(ctx, outDB, opts.FKMode); err != nil {
		return err
	}

	s, err := schema.Load(ctx, inDB)
	if err != nil {
		return err
	}
	order := schema.TableOrder(s)

	if err := createTables(ctx, outDB, s, order, opts.Config); err != nil {
		return err
	}
	for _, name := range order {
		if !tableIncluded(opts.Config, name) {
			if opts.Logger != nil {
				opts.Logger.Infof("skip table %s", name)
			}
			continue
		}
		tbl := s.Tables[name]
		if tbl == nil {
			continue
		}
		if opts.Logger != nil {
			opts.Logger.Infof("copy table %s", name)
		}
		if err := copyTable(ctx, inDB, outDB, tbl, opts); err != nil {
			return err
		}
	}
	if err := createPostData(ctx, outDB, s, opts.Config); err != nil {
		return err
	}
	if opts.Logger != nil {
		opts.Logger.Infof("mask complete")
	}
	return nil
}

func DSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000", path)
}

func setFKMode(ctx context.Context, db *sql.DB, mode string) error {
	mode = strings.ToLower(mode)
	switch mode {
	case "", "on":
		mode = "on"
	case "off":
	default:
		return fmt.Errorf("invalid fk mode: %s", mode)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA foreign_keys = %s", strings.ToUpper(mode))); err != nil {
		return fmt.Errorf("set foreign_keys: %w", err)
	}
	return nil
}

func createTables(ctx context.Context, outDB *sql.DB, s *schema.Schema, order []string, cfg *config.Config) error {
	tx, err := outDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()
	for _, name := range order {
		if !tableIncluded(cfg, name) {
			continue
		}
		tbl := s.Tables[name]
		if tbl == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, tbl.SQL); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func createPostData(ctx context.Context, outDB *sql.DB, s *schema.Schema, cfg *config.Config) error {
	tx, err := outDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin post-data tx: %w", err)
	}
	defer tx.Rollback()
	for _, v := range s.Views {
		if v.SQL == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, v.SQL); err != nil {
			return fmt.Errorf("create view %s: %w", v.Name, err)
		}
	}
	for _, idx := range s.Indexes {
		// An index on a table that was not copied cannot be created.
		if idx.SQL == "" || !tableIncluded(cfg, idx.Table) {
			continue
		}
		if _, err := tx.ExecContext(ctx, idx.SQL); err != nil {
			return fmt.Errorf("create index %s: %w", idx.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit post-data: %w", err)
	}
	return nil
}

func copyTable(ctx context.Context, inDB, outDB *sql.DB, tbl *schema.Table, opts Options) error {
	colNames := make([]string, 0, len(tbl.Columns))
	colIndex := map[string]int{}
	for i, c := range tbl.Columns {
		colNames = append(colNames, c.Name)
		colIndex[c.Name] = i
	}
	transformers, err := buildTransformers(opts.Config, tbl, colIndex)
	if err != nil {
		return err
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.QuoteIdent(tbl.Name), strings.Join(quotedCols(colNames), ", "), placeholders(len(colNames)))
	stmt, err := outDB.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", tbl.Name, err)
	}
	defer stmt.Close()

	query := fmt.Sprintf("SELECT %s FROM %s%s",
		strings.Join(quotedCols(colNames), ", "), schema.QuoteIdent(tbl.Name), orderBy(tbl))
	rows, err := inDB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("select %s: %w", tbl.Name, err)
	}
	defer rows.Close()

	batch := make([][]any, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := transformBatch(ctx, batch, transformers, opts.Jobs, tbl.Name); err != nil {
			return err
		}
		for _, values := range batch {
			if _, err := stmt.ExecContext(ctx, values...); err != nil {
				return fmt.Errorf("insert %s: %w", tbl.Name, err)
			}
		}
		batch = batch[:0]
		return nil
	}
	for rows.Next() {
		values := make([]any, len(colNames))
		targets := make([]any, len(colNames))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return fmt.Errorf("scan row %s: %w", tbl.Name, err)
		}
		batch = append(batch, values)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", tbl.Name, err)
	}
	return flush()
}

type colTransformer struct {
	idx int
	tr  transform.Transformer
}

// transformBatch rewrites the batch in place. Rows are independent, so the
// work fans out across at most jobs goroutines.
func transformBatch(ctx context.Context, batch [][]any, transformers []colTransformer, jobs int, table string) error {
	if len(transformers) == 0 {
		return nil
	}
	if jobs < 1 {
		jobs = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, values := range batch {
		values := values
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, ct := range transformers {
				out, err := ct.tr.Transform(values[ct.idx])
				if err != nil {
					return fmt.Errorf("transform %s: %w", table, err)
				}
				values[ct.idx] = out
			}
			return nil
		})
	}
	return g.Wait()
}

func buildTransformers(cfg *config.Config, tbl *schema.Table, colIndex map[string]int) ([]colTransformer, error) {
	tblCfg := cfg.Tables[tbl.Name]
	if tblCfg == nil {
		return nil, nil
	}
	var out []colTransformer
	for col, tc := range tblCfg.Columns {
		if tc == nil {
			continue
		}
		idx, ok := colIndex[col]
		if !ok {
			return nil, fmt.Errorf("table %s has no column %s", tbl.Name, col)
		}
		tr, err := transform.Build(tc)
		if err != nil {
			return nil, fmt.Errorf("build transformer %s.%s: %w", tbl.Name, col, err)
		}
		if tr != nil {
			out = append(out, colTransformer{idx: idx, tr: tr})
		}
	}
	return out, nil
}

func orderBy(tbl *schema.Table) string {
	if len(tbl.PrimaryKeys) > 0 {
		return " ORDER BY " + strings.Join(quotedCols(tbl.PrimaryKeys), ", ")
	}
	if !tbl.WithoutRowID {
		return " ORDER BY rowid"
	}
	return ""
}

func quotedCols(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, schema.QuoteIdent(c))
	}
	return out
}

func placeholders(n int) string {
	vals := make([]string, n)
	for i := range vals {
		vals[i] = "?"
	}
	return strings.Join(vals, ", ")
}

func tableIncluded(cfg *config.Config, name string) bool {
	if cfg == nil {
		return true
	}
	if len(cfg.IncludeTables) > 0 && !schema.MatchAny(cfg.IncludeTables, name) {
		return false
	}
	return !schema.MatchAny(cfg.ExcludeTables, name)
}
