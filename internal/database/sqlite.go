package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/wintoolssuite/regtx/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore manages all SQLite operations for a regtx case file.
// It implements the Store interface.
type SQLiteStore struct {
	path    string
	conn    *sql.DB
	dialect Dialect
}

// OpenSQLite opens an existing regtx case database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	d := &SQLiteDialect{}

	conn, err := sql.Open(d.DriverName(), d.DSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &SQLiteStore{path: path, conn: conn, dialect: d}, nil
}

// CreateSQLite creates a new case database with the full schema.
// indexFields specifies which columns to index. Pass nil to use
// DefaultIndexFields.
func CreateSQLite(path string, indexFields []string) (*SQLiteStore, error) {
	d := &SQLiteDialect{}

	conn, err := sql.Open(d.DriverName(), d.DSN(path))
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	db := &SQLiteStore{path: path, conn: conn, dialect: d}

	if err := db.createSchema(indexFields); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *SQLiteStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the file path of the database.
func (db *SQLiteStore) Path() string {
	return db.path
}

// Conn returns the underlying *sql.DB connection for advanced query usage.
func (db *SQLiteStore) Conn() *sql.DB {
	return db.conn
}

// Dialect returns the SQL dialect for query building.
func (db *SQLiteStore) Dialect() Dialect {
	return db.dialect
}

// createSchema builds all tables and indexes for a new case database.
func (db *SQLiteStore) createSchema(indexFields []string) error {
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
func (db *SQLiteStore) InsertRecord(r *model.TransactionRecord) error {
	_, err := db.conn.Exec(db.dialect.InsertRecordSQL(),
		r.Timestamp, r.HiveFile, r.KeyPath, r.ValueName,
		r.DataBefore, r.DataAfter, r.TxID, r.Offset,
	)
	return err
}

// InsertRecords inserts a batch of records inside a single transaction.
// The onProgress callback is called every 1,000 records with the current
// count. Pass nil for onProgress if you don't need progress updates.
func (db *SQLiteStore) InsertRecords(records []*model.TransactionRecord, onProgress func(count int)) (int, error) {
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
// whereClause may be empty for all records.
func (db *SQLiteStore) QueryRecords(whereClause string, args []interface{}, orderBy string, limit, offset int) ([]*model.TransactionRecord, error) {
	query := "SELECT " + selectColumns(db.dialect) + " FROM regtx"

	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy
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
func (db *SQLiteStore) CountRecords(whereClause string, args []interface{}) (int64, error) {
	query := "SELECT COUNT(" + db.dialect.IDColumn() + ") FROM regtx"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	var count int64
	err := db.conn.QueryRow(query, args...).Scan(&count)
	return count, err
}

// ExecuteQuery runs a pre-built SQL SELECT (from query.Build) and scans
// results in selectColumns order.
func (db *SQLiteStore) ExecuteQuery(sqlStr string, args []interface{}) ([]*model.TransactionRecord, error) {
	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ExecuteCountQuery runs a pre-built COUNT query (from query.BuildCount).
func (db *SQLiteStore) ExecuteCountQuery(sqlStr string, args []interface{}) (int64, error) {
	var count int64
	err := db.conn.QueryRow(sqlStr, args...).Scan(&count)
	return count, err
}

// GetDistinctValues returns a map of distinct values and their counts for
// a given column.
func (db *SQLiteStore) GetDistinctValues(fieldName string) (map[string]int64, error) {
	// Validate field name against known fields to prevent injection
	if !isValidField(fieldName) {
		return nil, fmt.Errorf("invalid field name: %s", fieldName)
	}

	query := fmt.Sprintf(
		"SELECT %s, COUNT(%s) FROM regtx GROUP BY %s", fieldName, fieldName, fieldName)

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

// UpdateRecord updates specific fields of a record identified by rowid.
// Used by the comparison pass to persist DataBefore/DataAfter annotations.
func (db *SQLiteStore) UpdateRecord(rowid int64, fields map[string]interface{}) error {
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
		setClauses = append(setClauses, field+" = "+db.dialect.Placeholder(paramIdx))
		paramIdx++
		args = append(args, value)
	}
	args = append(args, rowid)

	query := fmt.Sprintf("UPDATE regtx SET %s WHERE %s = %s",
		strings.Join(setClauses, ", "), db.dialect.IDColumn(), db.dialect.Placeholder(paramIdx))

	_, err := db.conn.Exec(query, args...)
	return err
}

// UpdateMetadata refreshes the frequency tables (regtx_hive_files,
// regtx_value_names, regtx_tx_ids) with current distinct values.
func (db *SQLiteStore) UpdateMetadata() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range metadataFields {
		tableName := "regtx_" + f + "s"

		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", tableName)); err != nil {
			return fmt.Errorf("clearing %s: %w", tableName, err)
		}

		_, err = tx.Exec(fmt.Sprintf(
			"INSERT INTO %s (%s, frequency) SELECT %s, COUNT(%s) FROM regtx WHERE %s <> '' GROUP BY %s",
			tableName, f, f, f, f, f))
		if err != nil {
			return fmt.Errorf("populating %s: %w", tableName, err)
		}
	}

	return tx.Commit()
}
