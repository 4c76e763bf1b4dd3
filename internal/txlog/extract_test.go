package txlog

import (
	"strings"
	"testing"
)

// utf16lePayload encodes an ASCII string as UTF-16LE bytes.
func utf16lePayload(s string) []byte {
	b := make([]byte, 0, len(s)*2)
	for _, c := range s {
		b = append(b, byte(c), 0)
	}
	return b
}

func TestExtractKeyPath_PrintableRun(t *testing.T) {
	payload := append(utf16lePayload("ConfigKey"), 0x00, 0x00, 0xFF, 0xFE)
	got := extractKeyPath(payload, 0x1234)
	if got != "ConfigKey" {
		t.Errorf("extractKeyPath = %q, want %q", got, "ConfigKey")
	}
}

func TestExtractKeyPath_FirstRunWins(t *testing.T) {
	// A long run after a shorter first run must not be preferred: the
	// heuristic stops at the first non-printable unit once a run started.
	payload := utf16lePayload("Short")
	payload = append(payload, 0x00, 0x00)
	payload = append(payload, utf16lePayload("MuchLongerCandidate")...)

	got := extractKeyPath(payload, 0)
	if got != "Short" {
		t.Errorf("extractKeyPath = %q, want first run %q", got, "Short")
	}
}

func TestExtractKeyPath_RunTooShort(t *testing.T) {
	payload := append(utf16lePayload("abc"), 0x00, 0x00)
	got := extractKeyPath(payload, 0xBEEF)
	want := "key at offset 0x0000BEEF"
	if got != want {
		t.Errorf("extractKeyPath = %q, want placeholder %q", got, want)
	}
}

func TestExtractKeyPath_NoPrintableRun(t *testing.T) {
	payload := []byte{0xFF, 0xFF, 0x00, 0x01, 0x80, 0x00, 0x9F, 0x00}
	got := extractKeyPath(payload, 0x2A)
	want := "key at offset 0x0000002A"
	if got != want {
		t.Errorf("extractKeyPath = %q, want placeholder %q", got, want)
	}
}

func TestExtractKeyPath_UsesEmbeddedOffsetNotCursor(t *testing.T) {
	got := extractKeyPath(nil, 0xDEADBEEF)
	if got != "key at offset 0xDEADBEEF" {
		t.Errorf("extractKeyPath = %q, want the entry's embedded offset", got)
	}
}

func TestExtractKeyPath_ScanCappedAt512Bytes(t *testing.T) {
	// 256 non-printable code units fill the 512-byte window; a printable
	// run past it must never be reached.
	payload := make([]byte, 512)
	for i := 0; i < 512; i += 2 {
		payload[i] = 0xFF
		payload[i+1] = 0xFF
	}
	payload = append(payload, utf16lePayload("Unreachable")...)

	got := extractKeyPath(payload, 0x10)
	if got != "key at offset 0x00000010" {
		t.Errorf("extractKeyPath = %q, expected the scan to stop at 512 bytes", got)
	}
}

func TestExtractKeyPath_ExactlyFourChars(t *testing.T) {
	payload := append(utf16lePayload("ABCD"), 0x00, 0x00)
	got := extractKeyPath(payload, 0)
	if got != "ABCD" {
		t.Errorf("extractKeyPath = %q, want %q (run of 4 is accepted)", got, "ABCD")
	}
}

func TestExtractKeyPath_OddTrailingByteIgnored(t *testing.T) {
	payload := append(utf16lePayload("Key\\Path"), 0x41) // dangling half unit
	got := extractKeyPath(payload, 0)
	if got != "Key\\Path" {
		t.Errorf("extractKeyPath = %q, want %q", got, "Key\\Path")
	}
}

func TestHexDump(t *testing.T) {
	got := hexDump([]byte{0x00, 0xAB, 0xFF})
	if got != "00 AB FF" {
		t.Errorf("hexDump = %q, want %q", got, "00 AB FF")
	}

	if got := hexDump(nil); got != "" {
		t.Errorf("hexDump(nil) = %q, want empty string", got)
	}

	long := make([]byte, 64)
	if n := len(strings.Split(hexDump(long), " ")); n != 32 {
		t.Errorf("hexDump of 64 bytes produced %d pairs, want 32", n)
	}
}
