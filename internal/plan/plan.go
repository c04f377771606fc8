package plan

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/dyne/rot13/internal/config"
	"github.com/dyne/rot13/internal/log"
	"github.com/dyne/rot13/internal/mask"
	"github.com/dyne/rot13/internal/schema"
	"github.com/dyne/rot13/internal/transform"
	_ "modernc.org/sqlite"
)

// Run prints, without touching any data, which transformer each configured
// column of the input database would receive.
func Run(ctx context.Context, inPath string, cfg *config.Config, logger *log.Logger) error {
	if cfg == nil {
		cfg = &config.Config{}
	}
	db, err := sql.Open("sqlite", mask.DSN(inPath))
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer db.Close()

	s, err := schema.Load(ctx, db)
	if err != nil {
		return err
	}

	fmt.Println("Plan:")
	for _, name := range schema.TableOrder(s) {
		if !included(cfg, name) {
			continue
		}
		tbl := cfg.Tables[name]
		fmt.Printf("- %s\n", name)
		if tbl == nil || len(tbl.Columns) == 0 {
			fmt.Println("  (no transforms)")
			continue
		}
		cols := make([]string, 0, len(tbl.Columns))
		for c := range tbl.Columns {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			tr, err := transform.Build(tbl.Columns[c])
			if err != nil {
				return err
			}
			trName := "unknown"
			if tr != nil {
				trName = tr.Name()
			}
			fmt.Printf("  - %s: %s\n", c, trName)
		}
	}
	if logger != nil {
		logger.Infof("plan complete")
	}
	return nil
}

func included(cfg *config.Config, name string) bool {
	if len(cfg.IncludeTables) > 0 && !schema.MatchAny(cfg.IncludeTables, name) {
		return false
	}
	return !schema.MatchAny(cfg.ExcludeTables, name)
}
