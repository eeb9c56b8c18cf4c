package postgres

import (
	"context"
	"fmt"

	"github.com/medconnect/agent/internal/schema"
)

// IntrospectTables reads table and column metadata from
// information_schema, for cross-checking the static schema descriptor
// against the live store at startup.
func (db *DB) IntrospectTables(ctx context.Context) ([]schema.Table, error) {
	tableQuery := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := db.Pool.Query(ctx, tableQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}

	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		table, err := db.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (db *DB) describeTable(ctx context.Context, name string) (schema.Table, error) {
	columnQuery := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
				WHERE tc.table_name = c.table_name
				  AND tc.constraint_type = 'PRIMARY KEY'
				  AND kcu.column_name = c.column_name
			)
		FROM information_schema.columns c
		WHERE c.table_schema = 'public'
		  AND c.table_name = $1
		ORDER BY c.ordinal_position
	`

	rows, err := db.Pool.Query(ctx, columnQuery, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("failed to describe table %s: %w", name, err)
	}
	defer rows.Close()

	table := schema.Table{Name: name}
	for rows.Next() {
		var col schema.Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.PrimaryKey); err != nil {
			return schema.Table{}, fmt.Errorf("failed to scan column: %w", err)
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}
