package txlog

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// extractScanCap bounds how far into the payload the string heuristic
	// looks for a key path.
	extractScanCap = 512

	// hexDumpCap bounds how many payload bytes DataAfter reproduces.
	hexDumpCap = 32

	// minPathRun is the shortest printable run accepted as a key path.
	minPathRun = 4
)

// extractKeyPath attempts to recover a registry key path from payload
// bytes by scanning for a run of printable UTF-16LE code units.
//
// The heuristic is deliberately permissive and its quirks are part of the
// output contract: it reads two bytes per code unit over at most the first
// 512 payload bytes, accumulates units in the printable ASCII range
// [32, 127), and stops at the first non-printable unit once the run has
// started. The first run wins, not the longest. A run shorter than four
// characters is discarded and a synthetic placeholder keyed by the entry's
// embedded offset is returned instead.
func extractKeyPath(payload []byte, sourceOffset uint32) string {
	limit := len(payload)
	if limit > extractScanCap {
		limit = extractScanCap
	}

	var run strings.Builder
	for i := 0; i+2 <= limit; i += 2 {
		ch := binary.LittleEndian.Uint16(payload[i:])
		if ch >= 32 && ch < 127 {
			run.WriteByte(byte(ch))
			continue
		}
		if run.Len() > 0 {
			break
		}
	}

	if run.Len() >= minPathRun {
		return run.String()
	}
	return fmt.Sprintf("key at offset 0x%08X", sourceOffset)
}

// hexDump renders up to hexDumpCap payload bytes as uppercase
// space-separated hex pairs.
func hexDump(payload []byte) string {
	if len(payload) > hexDumpCap {
		payload = payload[:hexDumpCap]
	}

	parts := make([]string, len(payload))
	for i, b := range payload {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
