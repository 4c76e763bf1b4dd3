package database

import (
	"database/sql"
	"strings"

	"github.com/wintoolssuite/regtx/internal/model"
)

// Store defines the interface for all case-database operations.
// Every method the application needs is captured here so that app.go
// depends on the interface, not on a concrete database type.
type Store interface {
	// Record CRUD
	InsertRecord(r *model.TransactionRecord) error
	InsertRecords(records []*model.TransactionRecord, onProgress func(int)) (int, error)
	QueryRecords(whereClause string, args []interface{}, orderBy string, limit, offset int) ([]*model.TransactionRecord, error)
	CountRecords(whereClause string, args []interface{}) (int64, error)
	UpdateRecord(id int64, fields map[string]interface{}) error

	// Query execution for pre-built SQL (from query.Build).
	// The scan order is: id column, then model.Fields.
	ExecuteQuery(sqlStr string, args []interface{}) ([]*model.TransactionRecord, error)
	ExecuteCountQuery(sqlStr string, args []interface{}) (int64, error)

	// Metadata and filters
	GetDistinctValues(field string) (map[string]int64, error)
	UpdateMetadata() error

	// Dialect exposes the SQL dialect for query building.
	Dialect() Dialect

	// Lifecycle
	Close() error
	Path() string
}

// Fields whose distinct values are mirrored into frequency tables
// (regtx_hive_files, regtx_value_names, regtx_tx_ids) for filter dropdowns.
var metadataFields = []string{"hive_file", "value_name", "tx_id"}

// Default fields to index when creating a new case database.
var DefaultIndexFields = []string{"hive_file", "key_path", "tx_id", "offset"}

// selectColumns renders the SELECT column list (id column plus all record
// fields) for the given dialect.
func selectColumns(d Dialect) string {
	cols := make([]string, 0, len(model.Fields)+1)
	cols = append(cols, d.IDColumn())
	for _, f := range model.Fields {
		cols = append(cols, d.QuoteColumn(f))
	}
	return strings.Join(cols, ", ")
}

// scanRecords reads rows in selectColumns order into records.
func scanRecords(rows *sql.Rows) ([]*model.TransactionRecord, error) {
	var records []*model.TransactionRecord
	for rows.Next() {
		r := &model.TransactionRecord{}
		err := rows.Scan(
			&r.ID, &r.Timestamp, &r.HiveFile, &r.KeyPath, &r.ValueName,
			&r.DataBefore, &r.DataAfter, &r.TxID, &r.Offset,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// isValidField checks a field name against the known record columns.
func isValidField(name string) bool {
	for _, f := range model.Fields {
		if f == name {
			return true
		}
	}
	return false
}
