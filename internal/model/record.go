package model

// Fields is the ordered list of column names in the regtx table.
// Used for query building, field validation, and index management.
var Fields = []string{
	"timestamp", "hive_file", "key_path", "value_name",
	"data_before", "data_after", "tx_id", "offset",
}

// TransactionRecord is one reconstructed registry modification recovered
// from a transaction log dirty page. All fields except Offset are
// display-ready strings.
//
// Timestamp is capture-time, not event-time: the log format does not
// expose reliable per-write timestamps at this layer, so the field holds
// the wall-clock time of the parse annotated with the entry's sequence
// number. It must not be read as the moment the write happened.
type TransactionRecord struct {
	ID         int64  `json:"id" db:"rowid"`
	Timestamp  string `json:"timestamp" db:"timestamp"`
	HiveFile   string `json:"hive_file" db:"hive_file"`
	KeyPath    string `json:"key_path" db:"key_path"`
	ValueName  string `json:"value_name" db:"value_name"`
	DataBefore string `json:"data_before" db:"data_before"`
	DataAfter  string `json:"data_after" db:"data_after"`
	TxID       string `json:"tx_id" db:"tx_id"`
	Offset     int64  `json:"offset" db:"offset"`
}
