package txlog

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/wintoolssuite/regtx/internal/model"
)

// Recognized entry-start magic values, compared against a little-endian
// u32 read at the scan cursor. Both are heuristic markers, not
// format-verified structures.
const (
	sigDirtyPage uint32 = 0x656C7648 // "HvLe" dirty page entry
	sigHiveNode  uint32 = 0x486B6E68 // "hnkH" hive node header
)

const (
	entryHeaderSize = 16
	probeStride     = 4
	maxDeclaredSize = 65536
)

// Markers for fields that cannot be recovered from a dirty page alone.
// DataBefore may be overwritten later by a comparison pass.
const (
	valueNameMarker  = "<Dirty Page>"
	dataBeforeMarker = "<Uncommitted>"
)

// EntryHeader is the fixed-size header at the start of a candidate log
// entry. Fields are decoded little-endian from the buffer; Offset is the
// offset embedded in the entry itself, not the scan cursor position.
type EntryHeader struct {
	Signature uint32
	Size      uint32
	Offset    uint32
	Sequence  uint32
}

// ScanResult is the outcome of one scan pass over a log buffer.
type ScanResult struct {
	Records   []*model.TransactionRecord
	Count     int
	Rejected  int
	Cancelled bool
}

// Scan walks the buffer looking for recognized entry signatures and
// reconstructs a TransactionRecord for every structurally valid entry.
//
// On an accepted entry the cursor advances by the entry's declared size so
// payload bytes are not re-scanned. On a signature match that fails
// validation the cursor advances by the fixed probe stride instead; a
// bogus declared size must never decide how far to skip, or corrupt data
// would desynchronize the scan past valid entries. Overlapping entries are
// never merged or deduplicated: over-recovery is preferred to silently
// dropping candidate evidence.
//
// Cancellation is cooperative: ctx is polled once per iteration, and on
// cancellation the records accepted so far are returned with Cancelled set.
func Scan(ctx context.Context, buf *LogBuffer) *ScanResult {
	res := &ScanResult{}
	data := buf.Data

	cur := 0
	for cur+entryHeaderSize <= len(data) {
		select {
		case <-ctx.Done():
			res.Cancelled = true
			return res
		default:
		}

		sig := binary.LittleEndian.Uint32(data[cur:])
		if sig != sigDirtyPage && sig != sigHiveNode {
			cur += probeStride
			continue
		}

		hdr, ok := decodeEntry(data, cur)
		if !ok {
			res.Rejected++
			cur += probeStride
			continue
		}

		res.Records = append(res.Records, buildRecord(data, cur, hdr, buf.HiveName))
		res.Count++
		cur += int(hdr.Size)
	}

	return res
}

// Parse loads a log file and scans it in one call.
// A scan that completes with zero accepted entries returns the result
// together with ErrNoEntries so callers can distinguish it from an I/O
// failure (which returns a nil result).
func Parse(ctx context.Context, path string) (*ScanResult, error) {
	buf, err := Load(path)
	if err != nil {
		return nil, err
	}

	res := Scan(ctx, buf)
	if res.Count == 0 && !res.Cancelled {
		return res, ErrNoEntries
	}
	return res, nil
}

// decodeEntry reads the fixed-width header fields at cur and validates the
// declared size against the buffer bounds. The caller guarantees at least
// entryHeaderSize bytes remain at cur.
func decodeEntry(data []byte, cur int) (EntryHeader, bool) {
	hdr := EntryHeader{
		Signature: binary.LittleEndian.Uint32(data[cur:]),
		Size:      binary.LittleEndian.Uint32(data[cur+4:]),
		Offset:    binary.LittleEndian.Uint32(data[cur+8:]),
		Sequence:  binary.LittleEndian.Uint32(data[cur+12:]),
	}

	if hdr.Size == 0 || hdr.Size >= maxDeclaredSize {
		return hdr, false
	}
	if cur+int(hdr.Size) > len(data) {
		return hdr, false
	}
	return hdr, true
}

// buildRecord assembles a TransactionRecord from a validated header and
// the payload bytes following it. The payload window is the declared size
// clamped to the buffer end, so a record never references bytes outside
// the file.
func buildRecord(data []byte, cur int, hdr EntryHeader, hiveName string) *model.TransactionRecord {
	payload := data[cur+entryHeaderSize:]
	if n := int(hdr.Size); n < len(payload) {
		payload = payload[:n]
	}

	return &model.TransactionRecord{
		Timestamp:  captureTimestamp(time.Now(), hdr.Sequence),
		HiveFile:   hiveName,
		KeyPath:    extractKeyPath(payload, hdr.Offset),
		ValueName:  valueNameMarker,
		DataBefore: dataBeforeMarker,
		DataAfter:  hexDump(payload),
		TxID:       fmt.Sprintf("0x%08X", hdr.Sequence),
		Offset:     int64(hdr.Offset),
	}
}

// captureTimestamp formats the approximate timestamp for a record.
// True write times are not recoverable from a dirty page, so this is the
// capture-time wall clock annotated with the entry's sequence number.
func captureTimestamp(t time.Time, seq uint32) string {
	return fmt.Sprintf("%s (Seq: %d)", t.Format("02/01/2006 15:04:05"), seq)
}
