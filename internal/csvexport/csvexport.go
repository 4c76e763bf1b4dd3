// Package csvexport writes reconstructed transaction records to the
// UTF-8 BOM-prefixed CSV format produced by the original tool. Every
// data field is wrapped in double quotes as-is, without embedded-quote
// escaping; extracted key paths are printable-ASCII runs and cannot
// contain a quote, so the simple wrapping keeps exports byte-compatible
// with existing tooling.
package csvexport

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/wintoolssuite/regtx/internal/model"
)

// Header is the export column order.
var Header = []string{
	"Timestamp", "HiveFile", "KeyPath", "ValueName", "DataBefore", "DataAfter", "TxID",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteRecords writes records to path, overwriting any existing file.
func WriteRecords(path string, records []*model.TransactionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	if _, err := w.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range records {
		fields := []string{
			r.Timestamp, r.HiveFile, r.KeyPath, r.ValueName,
			r.DataBefore, r.DataAfter, r.TxID,
		}
		// Plain wrapping, no escaping: key paths are printable-ASCII runs
		// and the remaining fields are generated markers.
		for j, v := range fields {
			fields[j] = `"` + v + `"`
		}
		if _, err := w.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing file: %w", err)
	}
	return nil
}
