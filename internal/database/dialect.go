package database

// Dialect abstracts all database-specific SQL generation.
// Each backend (SQLite, PostgreSQL) implements this interface. The
// Placeholder, IDColumn, and QuoteColumn methods match the
// query.QueryDialect interface through Go structural typing, so a Dialect
// can also serve as a QueryDialect.
type Dialect interface {
	// DriverName returns the database/sql driver name (e.g. "sqlite", "pgx").
	DriverName() string

	// DSN returns the data source name for opening a connection.
	// For SQLite this is the file path; for PostgreSQL a connection string.
	DSN(pathOrConnStr string) string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	// SQLite: "?" (ignoring index), PostgreSQL: "$1", "$2", etc.
	Placeholder(index int) string

	// IDColumn returns the row identifier column name.
	// SQLite: "rowid" (implicit), PostgreSQL: "id" (explicit serial).
	IDColumn() string

	// QuoteColumn returns the column name quoted appropriately for the dialect.
	// SQLite returns the name unchanged. PostgreSQL wraps reserved words
	// ("offset") in double quotes.
	QuoteColumn(name string) string

	// CreateTableSQL returns the DDL for the main regtx record table.
	CreateTableSQL() string

	// CreateMetadataTableSQL returns DDL for a metadata frequency table.
	CreateMetadataTableSQL(tableName, columnName string) string

	// CreateIndexSQL returns DDL to create an index on a table column.
	CreateIndexSQL(indexName, tableName, column string) string

	// InsertRecordSQL returns the parameterized INSERT statement for a
	// single record. The statement has 8 columns and 8 placeholders.
	InsertRecordSQL() string
}
