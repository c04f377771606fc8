package schema

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"sort"
	"strings"
)

type Schema struct {
	Tables  map[string]*Table
	Views   []SQLItem
	Indexes []SQLItem
}

type SQLItem struct {
	Name  string
	Table string
	SQL   string
}

type Table struct {
	Name         string
	SQL          string
	Columns      []Column
	PrimaryKeys  []string
	RefTables    []string
	WithoutRowID bool
}

type Column struct {
	Name    string
	Type    string
	NotNull bool
	PK      bool
}

// Load introspects an open sqlite database: tables with columns, primary
// keys and referenced tables, plus the SQL of indexes and views.
func Load(ctx context.Context, db *sql.DB) (*Schema, error) {
	s := &Schema{Tables: map[string]*Table{}}
	rows, err := db.QueryContext(ctx, `SELECT name, type, tbl_name, sql FROM sqlite_master WHERE name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite_master: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, typ, tblName string
		var sqlText sql.NullString
		if err := rows.Scan(&name, &typ, &tblName, &sqlText); err != nil {
			return nil, fmt.Errorf("scan sqlite_master: %w", err)
		}
		switch typ {
		case "table":
			if !sqlText.Valid {
				continue
			}
			tbl := &Table{Name: name, SQL: sqlText.String}
			tbl.WithoutRowID = strings.Contains(strings.ToUpper(sqlText.String), "WITHOUT ROWID")
			s.Tables[name] = tbl
		case "index":
			s.Indexes = append(s.Indexes, SQLItem{Name: name, Table: tblName, SQL: sqlText.String})
		case "view":
			s.Views = append(s.Views, SQLItem{Name: name, Table: tblName, SQL: sqlText.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sqlite_master: %w", err)
	}
	for name, tbl := range s.Tables {
		if err := loadTableInfo(ctx, db, tbl); err != nil {
			return nil, err
		}
		refs, err := loadRefTables(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tbl.RefTables = refs
	}
	return s, nil
}

func loadTableInfo(ctx context.Context, db *sql.DB, tbl *Table) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdent(tbl.Name)))
	if err != nil {
		return fmt.Errorf("table_info %s: %w", tbl.Name, err)
	}
	defer rows.Close()
	pkMap := map[int]string{}
	for rows.Next() {
		var cid, notnull, pk int
		var name, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table_info %s: %w", tbl.Name, err)
		}
		tbl.Columns = append(tbl.Columns, Column{Name: name, Type: colType, NotNull: notnull == 1, PK: pk > 0})
		if pk > 0 {
			pkMap[pk] = name
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table_info %s: %w", tbl.Name, err)
	}
	keys := make([]int, 0, len(pkMap))
	for k := range pkMap {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		tbl.PrimaryKeys = append(tbl.PrimaryKeys, pkMap[k])
	}
	return nil
}

func loadRefTables(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", QuoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("foreign_key_list %s: %w", table, err)
	}
	defer rows.Close()
	seen := map[string]bool{}
	var refs []string
	for rows.Next() {
		var id, seq int
		var ref, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &ref, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign_key_list %s: %w", table, err)
		}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign_key_list %s: %w", table, err)
	}
	return refs, nil
}

// TableOrder returns table names such that every table appears after the
// tables it references. Cycles fall back to name order at the end.
func TableOrder(s *Schema) []string {
	graph := map[string][]string{}
	indeg := map[string]int{}
	for name := range s.Tables {
		indeg[name] = 0
	}
	for name, tbl := range s.Tables {
		for _, ref := range tbl.RefTables {
			if _, ok := s.Tables[ref]; !ok || ref == name {
				continue
			}
			graph[ref] = append(graph[ref], name)
			indeg[name]++
		}
	}
	var queue []string
	for name, deg := range indeg {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)
	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, dep := range graph[n] {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
		sort.Strings(queue)
	}
	if len(order) != len(s.Tables) {
		placed := map[string]bool{}
		for _, o := range order {
			placed[o] = true
		}
		var missing []string
		for name := range s.Tables {
			if !placed[name] {
				missing = append(missing, name)
			}
		}
		sort.Strings(missing)
		order = append(order, missing...)
	}
	return order
}

func QuoteIdent(name string) string {
	escaped := strings.ReplaceAll(name, "\"", "\"\"")
	return "\"" + escaped + "\""
}

// MatchAny reports whether name matches any of the glob patterns.
func MatchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
