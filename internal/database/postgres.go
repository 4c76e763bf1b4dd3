package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/wintoolssuite/regtx/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore manages all PostgreSQL operations for a shared regtx
// case database. It implements the Store interface.
type PostgresStore struct {
	connStr string
	conn    *sql.DB
	dialect Dialect
}

// OpenPostgres opens an existing regtx PostgreSQL case database.
func OpenPostgres(connStr string) (*PostgresStore, error) {
	d := &PostgresDialect{}

	conn, err := sql.Open(d.DriverName(), d.DSN(connStr))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &PostgresStore{connStr: connStr, conn: conn, dialect: d}, nil
}

// CreatePostgres creates the regtx schema on a PostgreSQL database.
// The database itself must already exist; this creates the tables and
// indexes. indexFields specifies which columns to index; pass nil for
// DefaultIndexFields.
func CreatePostgres(connStr string, indexFields []string) (*PostgresStore, error) {
	d := &PostgresDialect{}

	conn, err := sql.Open(d.DriverName(), d.DSN(connStr))
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &PostgresStore{connStr: connStr, conn: conn, dialect: d}

	if err := db.createSchema(indexFields); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *PostgresStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the connection string identifying the database.
func (db *PostgresStore) Path() string {
	return db.connStr
}

// Conn returns the underlying *sql.DB connection for advanced query usage.
func (db *PostgresStore) Conn() *sql.DB {
	return db.conn
}

// Dialect returns the SQL dialect for query building.
func (db *PostgresStore) Dialect() Dialect {
	return db.dialect
}

func (db *PostgresStore) createSchema(indexFields []string) error {
	if indexFields == nil {
		indexFields = DefaultIndexFields
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(db.dialect.CreateTableSQL()); err != nil {
		return fmt.Errorf("creating regtx table: %w", err)
	}

	for _, f := range metadataFields {
		tableName := "regtx_" + f + "s"
		if _, err := tx.Exec(db.dialect.CreateMetadataTableSQL(tableName, f)); err != nil {
			return fmt.Errorf("creating metadata table %s: %w", tableName, err)
		}
	}

	for _, field := range indexFields {
		if _, err := tx.Exec(db.dialect.CreateIndexSQL(field+"_idx", "regtx", field)); err != nil {
			return fmt.Errorf("creating index on %s: %w", field, err)
		}
	}

	return tx.Commit()
}

// InsertRecord inserts a single record into the database.
func (db *PostgresStore) InsertRecord(r *model.TransactionRecord) error {
	_, err := db.conn.Exec(db.dialect.InsertRecordSQL(),
		r.Timestamp, r.HiveFile, r.KeyPath, r.ValueName,
		r.DataBefore, r.DataAfter, r.TxID, r.Offset,
	)
	return err
}

// InsertRecords inserts a batch of records inside a single transaction.
// The onProgress callback is called every 1,000 records.
func (db *PostgresStore) InsertRecords(records []*model.TransactionRecord, onProgress func(count int)) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(db.dialect.InsertRecordSQL())
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		_, err := stmt.Exec(
			r.Timestamp, r.HiveFile, r.KeyPath, r.ValueName,
			r.DataBefore, r.DataAfter, r.TxID, r.Offset,
		)
		if err != nil {
			return inserted, fmt.Errorf("inserting record %d: %w", inserted+1, err)
		}
		inserted++
		if onProgress != nil && inserted%1000 == 0 {
			onProgress(inserted)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("committing transaction: %w", err)
	}

	return inserted, nil
}

// QueryRecords runs a filtered query and returns the matching records.
// The whereClause must use the PostgreSQL dialect ($N placeholders and
// "offset" quoted), as produced by query.Build with this store's Dialect.
func (db *PostgresStore) QueryRecords(whereClause string, args []interface{}, orderBy string, limit, offset int) ([]*model.TransactionRecord, error) {
	query := "SELECT " + selectColumns(db.dialect) + " FROM regtx"

	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	if orderBy != "" {
		query += " ORDER BY " + db.dialect.QuoteColumn(orderBy)
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountRecords returns the total number of records, optionally filtered.
func (db *PostgresStore) CountRecords(whereClause string, args []interface{}) (int64, error) {
	query := "SELECT COUNT(" + db.dialect.IDColumn() + ") FROM regtx"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	var count int64
	err := db.conn.QueryRow(query, args...).Scan(&count)
	return count, err
}

// ExecuteQuery runs a pre-built SQL SELECT (from query.Build with the
// PostgreSQL dialect) and scans results in selectColumns order.
func (db *PostgresStore) ExecuteQuery(sqlStr string, args []interface{}) ([]*model.TransactionRecord, error) {
	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ExecuteCountQuery runs a pre-built COUNT query.
func (db *PostgresStore) ExecuteCountQuery(sqlStr string, args []interface{}) (int64, error) {
	var count int64
	err := db.conn.QueryRow(sqlStr, args...).Scan(&count)
	return count, err
}

// GetDistinctValues returns a map of distinct values and their counts for
// a given column.
func (db *PostgresStore) GetDistinctValues(fieldName string) (map[string]int64, error) {
	if !isValidField(fieldName) {
		return nil, fmt.Errorf("invalid field name: %s", fieldName)
	}

	col := pgQuoteCol(fieldName)
	query := fmt.Sprintf(
		"SELECT %s::text, COUNT(%s) FROM regtx GROUP BY %s", col, col, col)

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var value string
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, err
		}
		if value != "" {
			result[value] = count
		}
	}
	return result, rows.Err()
}

// UpdateRecord updates specific fields of a record identified by id.
func (db *PostgresStore) UpdateRecord(id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)

	paramIdx := 1
	for field, value := range fields {
		if !isValidField(field) {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, pgQuoteCol(field)+" = "+db.dialect.Placeholder(paramIdx))
		paramIdx++
		args = append(args, value)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE regtx SET %s WHERE %s = %s",
		strings.Join(setClauses, ", "), db.dialect.IDColumn(), db.dialect.Placeholder(paramIdx))

	_, err := db.conn.Exec(query, args...)
	return err
}

// UpdateMetadata refreshes the frequency tables with current distinct values.
func (db *PostgresStore) UpdateMetadata() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range metadataFields {
		tableName := "regtx_" + f + "s"
		col := pgQuoteCol(f)

		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", tableName)); err != nil {
			return fmt.Errorf("clearing %s: %w", tableName, err)
		}

		_, err = tx.Exec(fmt.Sprintf(
			"INSERT INTO %s (%s, frequency) SELECT %s, COUNT(%s) FROM regtx WHERE %s <> '' GROUP BY %s",
			tableName, col, col, col, col, col))
		if err != nil {
			return fmt.Errorf("populating %s: %w", tableName, err)
		}
	}

	return tx.Commit()
}
