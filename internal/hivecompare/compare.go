// Package hivecompare defines the comparison pass that annotates
// reconstructed records with suspected discrepancies against the live
// hive. Only the mutation contract is real: a Comparer may overwrite
// DataBefore and DataAfter on records it flags, and record identity
// (key path, transaction id, offset) is never touched.
package hivecompare

import (
	"math/rand"

	"github.com/wintoolssuite/regtx/internal/model"
)

// Markers applied to flagged records.
const (
	originalValueMarker = "<Original Value>"
	modifiedSuffix      = " [MODIFIED]"
)

// Comparer inspects a slice of reconstructed records and annotates the
// ones it considers tampered. Returns how many records were flagged.
type Comparer interface {
	Compare(records []*model.TransactionRecord) int
}

// Simulated flags roughly one record in three at random. Genuine
// comparison would need live registry access, which this tool does not
// perform; the simulation exists to exercise the annotation contract in
// the presentation and export paths.
type Simulated struct {
	rnd *rand.Rand
}

// NewSimulated returns a Simulated comparer seeded for reproducible runs.
func NewSimulated(seed int64) *Simulated {
	return &Simulated{rnd: rand.New(rand.NewSource(seed))}
}

func (s *Simulated) Compare(records []*model.TransactionRecord) int {
	modified := 0
	for _, r := range records {
		if s.rnd.Intn(3) == 0 {
			r.DataBefore = originalValueMarker
			r.DataAfter += modifiedSuffix
			modified++
		}
	}
	return modified
}
