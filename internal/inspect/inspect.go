package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dyne/rot13/internal/log"
	"github.com/dyne/rot13/internal/mask"
	"github.com/dyne/rot13/internal/schema"
	_ "modernc.org/sqlite"
)

// Run prints each table with its row count and the text columns that are
// candidates for rotation.
func Run(ctx context.Context, inPath string, logger *log.Logger) error {
	db, err := sql.Open("sqlite", mask.DSN(inPath))
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer db.Close()

	s, err := schema.Load(ctx, db)
	if err != nil {
		return err
	}

	fmt.Println("Tables:")
	for _, name := range schema.TableOrder(s) {
		tbl := s.Tables[name]
		if tbl == nil {
			continue
		}
		count, err := rowCount(ctx, db, name)
		if err != nil {
			return err
		}
		fmt.Printf("- %s (%d rows)\n", name, count)
		if cols := textColumns(tbl); len(cols) > 0 {
			fmt.Printf("  text columns: %s\n", strings.Join(cols, ", "))
		}
	}
	if logger != nil {
		logger.Infof("inspect complete")
	}
	return nil
}

func rowCount(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(1) FROM %s", schema.QuoteIdent(table))
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// textColumns picks columns with TEXT affinity per sqlite's type rules.
func textColumns(tbl *schema.Table) []string {
	var out []string
	for _, c := range tbl.Columns {
		typ := strings.ToUpper(c.Type)
		if strings.Contains(typ, "CHAR") || strings.Contains(typ, "CLOB") || strings.Contains(typ, "TEXT") {
			out = append(out, c.Name)
		}
	}
	return out
}
