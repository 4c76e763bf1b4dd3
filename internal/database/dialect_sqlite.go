package database

import "fmt"

// SQLiteDialect implements the Dialect interface for SQLite case files.
// It also satisfies query.QueryDialect through structural typing.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string             { return "sqlite" }
func (d *SQLiteDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *SQLiteDialect) Placeholder(index int) string    { return "?" }
func (d *SQLiteDialect) IDColumn() string                { return "rowid" }
func (d *SQLiteDialect) QuoteColumn(name string) string  { return name }

func (d *SQLiteDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS regtx (
		timestamp TEXT, hive_file TEXT, key_path TEXT, value_name TEXT,
		data_before TEXT, data_after TEXT, tx_id TEXT, offset INT
	)`
}

func (d *SQLiteDialect) CreateMetadataTableSQL(tableName, columnName string) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT, frequency INT)", tableName, columnName)
}

func (d *SQLiteDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, column)
}

func (d *SQLiteDialect) InsertRecordSQL() string {
	return `INSERT INTO regtx (
		timestamp, hive_file, key_path, value_name,
		data_before, data_after, tx_id, offset
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
}
