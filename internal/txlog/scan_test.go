package txlog

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// makeEntry builds one log entry: 16-byte header followed by payload.
// The declared size counts from the start of the entry, so a size of
// 16+len(payload) makes the scanner resume exactly at the next entry.
func makeEntry(sig, size, offset, seq uint32, payload []byte) []byte {
	b := make([]byte, entryHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(b[0:], sig)
	binary.LittleEndian.PutUint32(b[4:], size)
	binary.LittleEndian.PutUint32(b[8:], offset)
	binary.LittleEndian.PutUint32(b[12:], seq)
	copy(b[entryHeaderSize:], payload)
	return b
}

func scanBytes(t *testing.T, data []byte) *ScanResult {
	t.Helper()
	return Scan(context.Background(), &LogBuffer{Data: data, HiveName: "SYSTEM"})
}

func TestScan_BufferShorterThanHeader(t *testing.T) {
	for _, n := range []int{0, 1, 4, 15} {
		res := scanBytes(t, make([]byte, n))
		if res.Count != 0 || len(res.Records) != 0 {
			t.Errorf("buffer of %d bytes: expected empty result, got %d records", n, res.Count)
		}
		if res.Cancelled {
			t.Errorf("buffer of %d bytes: unexpected cancellation", n)
		}
	}
}

func TestScan_SingleEntry(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}
	entry := makeEntry(sigDirtyPage, uint32(entryHeaderSize+len(payload)), 0x2000, 0xABCD, payload)

	res := scanBytes(t, entry)
	if res.Count != 1 {
		t.Fatalf("expected 1 record, got %d", res.Count)
	}

	r := res.Records[0]
	if r.DataAfter != "DE AD BE EF 01 02 03 04" {
		t.Errorf("DataAfter = %q, want hex dump of payload", r.DataAfter)
	}
	if r.TxID != "0x0000ABCD" {
		t.Errorf("TxID = %q, want %q", r.TxID, "0x0000ABCD")
	}
	if r.Offset != 0x2000 {
		t.Errorf("Offset = %d, want %d", r.Offset, 0x2000)
	}
	if r.HiveFile != "SYSTEM" {
		t.Errorf("HiveFile = %q, want %q", r.HiveFile, "SYSTEM")
	}
	if r.ValueName != "<Dirty Page>" {
		t.Errorf("ValueName = %q, want %q", r.ValueName, "<Dirty Page>")
	}
	if r.DataBefore != "<Uncommitted>" {
		t.Errorf("DataBefore = %q, want %q", r.DataBefore, "<Uncommitted>")
	}
	if !strings.Contains(r.Timestamp, "(Seq: 43981)") {
		t.Errorf("Timestamp = %q, missing sequence annotation", r.Timestamp)
	}
}

func TestScan_HexDumpCappedAt32Bytes(t *testing.T) {
	payload := make([]byte, 40)
	for i := range payload {
		payload[i] = byte(i)
	}
	entry := makeEntry(sigHiveNode, uint32(entryHeaderSize+len(payload)), 0, 1, payload)

	res := scanBytes(t, entry)
	if res.Count != 1 {
		t.Fatalf("expected 1 record, got %d", res.Count)
	}

	fields := strings.Split(res.Records[0].DataAfter, " ")
	if len(fields) != 32 {
		t.Errorf("expected 32 hex pairs, got %d", len(fields))
	}
	if fields[0] != "00" || fields[31] != "1F" {
		t.Errorf("unexpected dump boundaries: first=%s last=%s", fields[0], fields[31])
	}
}

func TestScan_OversizedEntryRejectedAndScanResumes(t *testing.T) {
	// Entry at 0 declares a size past the buffer end. It must be rejected,
	// and the scanner must resume at cursor+4, not cursor+declaredSize.
	bad := makeEntry(sigDirtyPage, 5000, 0x10, 7, nil)
	good := makeEntry(sigDirtyPage, entryHeaderSize, 0x20, 8, nil)

	data := append(bad, good...)
	res := scanBytes(t, data)

	if res.Rejected != 1 {
		t.Errorf("expected 1 rejection, got %d", res.Rejected)
	}
	if res.Count != 1 {
		t.Fatalf("expected 1 accepted record, got %d", res.Count)
	}
	if res.Records[0].TxID != "0x00000008" {
		t.Errorf("accepted wrong entry: TxID = %q", res.Records[0].TxID)
	}
}

func TestScan_RejectedHeaderSizeDoesNotSkipData(t *testing.T) {
	// A signature whose declared-size field happens to also be a valid
	// signature: the rejected header's size is 0x656C7648 (way over the
	// cap), and the real entry starts 4 bytes in. Probe-stride recovery
	// must find it.
	data := make([]byte, 4+entryHeaderSize)
	binary.LittleEndian.PutUint32(data[0:], sigDirtyPage)
	copy(data[4:], makeEntry(sigDirtyPage, entryHeaderSize, 0x30, 9, nil))

	res := scanBytes(t, data)
	if res.Count != 1 {
		t.Fatalf("expected 1 record, got %d", res.Count)
	}
	if res.Records[0].Offset != 0x30 {
		t.Errorf("Offset = %d, want %d", res.Records[0].Offset, 0x30)
	}
}

func TestScan_ZeroSizeRejected(t *testing.T) {
	entry := makeEntry(sigDirtyPage, 0, 0, 1, make([]byte, 16))
	res := scanBytes(t, entry)
	if res.Count != 0 {
		t.Errorf("expected no records for zero declared size, got %d", res.Count)
	}
	if res.Rejected == 0 {
		t.Error("expected the zero-size entry to count as rejected")
	}
}

func TestScan_NoDeduplication(t *testing.T) {
	// Two identical entries produce two records; candidates are never merged.
	one := makeEntry(sigDirtyPage, entryHeaderSize, 0x40, 5, nil)
	data := append(append([]byte{}, one...), one...)

	res := scanBytes(t, data)
	if res.Count != 2 {
		t.Fatalf("expected 2 records, got %d", res.Count)
	}
	if res.Records[0].TxID != res.Records[1].TxID {
		t.Error("expected both duplicate entries to be kept as-is")
	}
}

func TestScan_Idempotent(t *testing.T) {
	payload := append([]byte{0x41, 0x00, 0x42, 0x00, 0x43, 0x00, 0x44, 0x00, 0x00, 0x00}, make([]byte, 6)...)
	data := append(
		makeEntry(sigDirtyPage, uint32(entryHeaderSize+len(payload)), 0x100, 1, payload),
		makeEntry(sigHiveNode, entryHeaderSize, 0x200, 2, nil)...,
	)

	first := scanBytes(t, data)
	second := scanBytes(t, data)

	if first.Count != second.Count {
		t.Fatalf("pass counts differ: %d vs %d", first.Count, second.Count)
	}
	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		// Timestamp is capture-time and may differ between passes.
		if a.HiveFile != b.HiveFile || a.KeyPath != b.KeyPath ||
			a.DataAfter != b.DataAfter || a.TxID != b.TxID || a.Offset != b.Offset {
			t.Errorf("record %d differs between passes: %+v vs %+v", i, a, b)
		}
	}
}

// countdownCtx is a context whose Done channel closes after a fixed number
// of polls, making mid-scan cancellation deterministic.
type countdownCtx struct {
	context.Context
	mu        sync.Mutex
	remaining int
	done      chan struct{}
	closed    bool
}

func newCountdownCtx(polls int) *countdownCtx {
	return &countdownCtx{
		Context:   context.Background(),
		remaining: polls,
		done:      make(chan struct{}),
	}
}

func (c *countdownCtx) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining--
	if c.remaining < 0 && !c.closed {
		close(c.done)
		c.closed = true
	}
	return c.done
}

func TestScan_CancellationKeepsPartialResults(t *testing.T) {
	// Many back-to-back entries; cancel after enough iterations to accept
	// some but not all.
	var data []byte
	const total = 50
	for i := 0; i < total; i++ {
		data = append(data, makeEntry(sigDirtyPage, entryHeaderSize, uint32(i), uint32(i), nil)...)
	}

	ctx := newCountdownCtx(10)
	res := Scan(ctx, &LogBuffer{Data: data, HiveName: "SOFTWARE"})

	if !res.Cancelled {
		t.Fatal("expected scan to report cancellation")
	}
	if res.Count == 0 {
		t.Fatal("expected records accepted before cancellation to be retained")
	}
	if res.Count >= total {
		t.Errorf("expected a partial result, got all %d records", res.Count)
	}
}

func TestScan_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entry := makeEntry(sigDirtyPage, entryHeaderSize, 0, 1, nil)
	res := Scan(ctx, &LogBuffer{Data: entry, HiveName: "SAM"})

	if !res.Cancelled {
		t.Error("expected cancelled result")
	}
	if res.Count != 0 {
		t.Errorf("expected no records, got %d", res.Count)
	}
}

func TestParse_NoEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SECURITY.LOG")
	if err := os.WriteFile(path, make([]byte, 1024), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	res, err := Parse(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "no transaction entries") {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
	if res == nil {
		t.Fatal("expected a non-nil (empty) result alongside ErrNoEntries")
	}
	if res.Count != 0 {
		t.Errorf("expected 0 records, got %d", res.Count)
	}
}

func TestParse_FullPipeline(t *testing.T) {
	payload := make([]byte, 64)
	copy(payload, utf16lePayload("ControlSet001\\Services"))
	entry := makeEntry(sigDirtyPage, uint32(entryHeaderSize+len(payload)), 0x1000, 42, payload)

	path := filepath.Join(t.TempDir(), "SYSTEM.LOG1")
	file := append(make([]byte, 0, 600), entry...)
	file = append(file, make([]byte, 600)...) // trailing junk past the base block size
	if err := os.WriteFile(path, file, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	res, err := Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("expected 1 record, got %d", res.Count)
	}
	r := res.Records[0]
	if r.HiveFile != "SYSTEM" {
		t.Errorf("HiveFile = %q, want %q", r.HiveFile, "SYSTEM")
	}
	if r.KeyPath != "ControlSet001\\Services" {
		t.Errorf("KeyPath = %q, want %q", r.KeyPath, "ControlSet001\\Services")
	}
	if r.TxID != "0x0000002A" {
		t.Errorf("TxID = %q, want %q", r.TxID, "0x0000002A")
	}
}
