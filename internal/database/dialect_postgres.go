package database

import "fmt"

// pgQuoteCol wraps a column name in double quotes if it is a PostgreSQL
// reserved word. "offset" conflicts with the OFFSET keyword; non-reserved
// names are returned as-is so PostgreSQL folds them to lowercase
// consistently with unquoted DDL definitions.
func pgQuoteCol(name string) string {
	if name == "offset" {
		return `"` + name + `"`
	}
	return name
}

// PostgresDialect implements the Dialect interface for PostgreSQL.
// It also satisfies query.QueryDialect through structural typing.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string             { return "pgx" }
func (d *PostgresDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *PostgresDialect) Placeholder(index int) string    { return fmt.Sprintf("$%d", index) }
func (d *PostgresDialect) IDColumn() string                { return "id" }
func (d *PostgresDialect) QuoteColumn(name string) string  { return pgQuoteCol(name) }

func (d *PostgresDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS regtx (
		id SERIAL PRIMARY KEY,
		timestamp TEXT, hive_file TEXT, key_path TEXT, value_name TEXT,
		data_before TEXT, data_after TEXT, tx_id TEXT, "offset" BIGINT
	)`
}

func (d *PostgresDialect) CreateMetadataTableSQL(tableName, columnName string) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT, frequency BIGINT)",
		tableName, pgQuoteCol(columnName))
}

func (d *PostgresDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, pgQuoteCol(column))
}

func (d *PostgresDialect) InsertRecordSQL() string {
	return `INSERT INTO regtx (
		timestamp, hive_file, key_path, value_name,
		data_before, data_after, tx_id, "offset"
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
}
